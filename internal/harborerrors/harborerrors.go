// Package harborerrors defines the structured error types surfaced by the
// lexer, parser, and table generators: each carries both a technical
// Error() message and a human-readable summary suitable for printing at a
// source location, following the same wrap-plus-human-message shape the
// rest of this module's error handling uses.
package harborerrors

import "fmt"

// Location is a source position: line and column are both 1-indexed, Offset
// is the 0-indexed byte/rune offset into the source.
type Location struct {
	Line   int
	Column int
	Offset int
}

func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// sourceError is the shared shape behind UnexpectedCharacter and
// SyntaxError: a technical message, an optional human-readable "expected"
// summary, a source location, and an optionally wrapped cause.
type sourceError struct {
	msg      string
	human    string
	location Location
	wrap     error
}

func (e *sourceError) Error() string {
	return fmt.Sprintf("%s: %s", e.location, e.msg)
}

// Human returns the human-readable summary, falling back to Error() if none
// was set.
func (e *sourceError) Human() string {
	if e.human == "" {
		return e.Error()
	}
	return e.human
}

// SourceLocation returns the source position the error occurred at.
func (e *sourceError) SourceLocation() Location {
	return e.location
}

func (e *sourceError) Unwrap() error {
	return e.wrap
}

type unexpectedCharacterError struct{ sourceError }

// NewUnexpectedCharacter reports a lexer failure: no DFA transition out of
// the current state accepted the rune at loc.
func NewUnexpectedCharacter(r rune, loc Location) error {
	return &unexpectedCharacterError{sourceError{
		msg:      fmt.Sprintf("unexpected character %q", r),
		human:    fmt.Sprintf("unexpected character %q at %s", r, loc),
		location: loc,
	}}
}

type syntaxError struct{ sourceError }

// NewSyntaxError reports a parser failure: the table has no action for the
// current (state, token) pair. expected is the pre-formatted "expected X, Y,
// or Z" clause findExpectedTokens-style helpers produce.
func NewSyntaxError(gotHuman, expected string, loc Location) error {
	return &syntaxError{sourceError{
		msg:      fmt.Sprintf("unexpected %s", gotHuman),
		human:    fmt.Sprintf("unexpected %s at %s; %s", gotHuman, loc, expected),
		location: loc,
	}}
}

// WrapSyntaxError is NewSyntaxError with an underlying cause attached.
func WrapSyntaxError(cause error, gotHuman, expected string, loc Location) error {
	return &syntaxError{sourceError{
		msg:      fmt.Sprintf("unexpected %s", gotHuman),
		human:    fmt.Sprintf("unexpected %s at %s; %s", gotHuman, loc, expected),
		location: loc,
		wrap:     cause,
	}}
}

// grammarError reports a structural problem with a grammar definition
// itself (unreachable rule, undefined symbol, failed validation) rather
// than a problem with input being parsed.
type grammarError struct {
	msg string
}

func (e *grammarError) Error() string {
	return e.msg
}

// NewGrammarError wraps a formatted grammar-definition problem.
func NewGrammarError(format string, a ...interface{}) error {
	return &grammarError{msg: fmt.Sprintf(format, a...)}
}

// Summary returns the human-readable form of any error produced by this
// package, falling back to err.Error() for anything else — the single
// entry point CLI commands and REPLs use to print a failure the way a
// person should read it.
func Summary(err error) string {
	if h, ok := err.(interface{ Human() string }); ok {
		return h.Human()
	}
	return err.Error()
}
