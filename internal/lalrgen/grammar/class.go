package grammar

import "strings"

// TokenClass identifies a terminal symbol of a grammar. Lexical grammars
// (dfagen) and syntactic grammars (lalrgen) both reference terminals by
// TokenClass rather than by bare string so that error messages can carry a
// human-readable name distinct from the symbol's internal ID.
type TokenClass interface {
	// ID returns the ID of the token class, lower-cased. It must uniquely
	// identify the terminal within all terminals of a grammar, and is the
	// form used as a grammar symbol in productions.
	ID() string

	// Human returns a human-readable name for the token class, used in
	// "expected X" style error messages.
	Human() string

	// Equal returns whether the TokenClass equals another, by ID.
	Equal(o any) bool
}

type simpleTokenClass string

func (class simpleTokenClass) ID() string {
	return strings.ToLower(string(class))
}

func (class simpleTokenClass) Human() string {
	return string(class)
}

func (class simpleTokenClass) Equal(o any) bool {
	other, ok := o.(TokenClass)
	if !ok {
		return false
	}
	return other.ID() == class.ID()
}

const (
	TokenUndefined = simpleTokenClass("undefined_token")
	TokenEndOfText = simpleTokenClass("$")
)

// MakeDefaultClass returns a TokenClass whose ID is the lower-cased form of s
// and whose Human name is s unmodified.
func MakeDefaultClass(s string) TokenClass {
	return simpleTokenClass(s)
}

// MakeNamedClass returns a TokenClass with an explicit ID distinct from its
// human name — used for punctuators and keywords in the ECMA-262 grammar
// whose human name ("the '=>' punctuator") differs a lot from a usable
// symbol ID ("arrow").
func MakeNamedClass(id, human string) TokenClass {
	return namedTokenClass{id: strings.ToLower(id), human: human}
}

type namedTokenClass struct {
	id    string
	human string
}

func (c namedTokenClass) ID() string    { return c.id }
func (c namedTokenClass) Human() string { return c.human }
func (c namedTokenClass) Equal(o any) bool {
	other, ok := o.(TokenClass)
	if !ok {
		return false
	}
	return other.ID() == c.id
}
