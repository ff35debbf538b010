package dfagen

import (
	"testing"

	"github.com/harborlang/harbor/internal/unicodeset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// numberWhitespaceGrammar is a tiny two-token lexical grammar ("digits" and
// "whitespace", both one-or-more repetitions of a character class) used to
// exercise subset construction and minification end to end.
func numberWhitespaceGrammar() Grammar {
	digit := unicodeset.Range('0', '9')
	ws := unicodeset.Merge(unicodeset.Range(' ', ' '), unicodeset.Range('\t', '\t'))

	return Grammar{
		Rules: map[string]Rule{
			"Digits": {
				Name: "Digits",
				Productions: []Production{
					{SetTerm{Set: digit}},
					{NonTerminalTerm{Name: "Digits"}, SetTerm{Set: digit}},
				},
			},
			"Whitespace": {
				Name: "Whitespace",
				Productions: []Production{
					{SetTerm{Set: ws}},
					{NonTerminalTerm{Name: "Whitespace"}, SetTerm{Set: ws}},
				},
			},
		},
		Tokens: []Token{
			{Name: "NUMBER", Rule: "Digits", Priority: 0},
			{Name: "WS", Rule: "Whitespace", Priority: 1},
		},
	}
}

func TestCompile_NumberWhitespace_AcceptsBothTokens(t *testing.T) {
	g := numberWhitespaceGrammar()
	b := NewBuilder(g)
	nfa, starts, err := b.Build()
	require.NoError(t, err)

	goals := map[string][]string{"Default": {"NUMBER", "WS"}}
	dfa, err := Compile(nfa, starts, goals)
	require.NoError(t, err)

	cur := dfa.States[dfa.Goals["Default"]]
	require.NotNil(t, cur)

	for _, r := range "123" {
		next := cur.Step(r, true)
		require.NotEmpty(t, next, "expected a transition on %q", r)
		cur = dfa.States[next]
	}
	assert.True(t, cur.Accepting)
	assert.Equal(t, "NUMBER", cur.Token)
}

func TestCompile_TokensOfDifferingLookaheadness_Succeeds(t *testing.T) {
	digit := unicodeset.Range('0', '9')

	g := Grammar{
		Rules: map[string]Rule{
			"A": {Name: "A", Productions: []Production{{SetTerm{Set: digit}}}},
			"B": {Name: "B", Productions: []Production{
				{SetTerm{Set: digit}, LookaheadTerm{Set: digit}},
			}},
		},
		Tokens: []Token{
			{Name: "A_TOK", Rule: "A", Priority: 0},
			{Name: "B_TOK", Rule: "B", Priority: 1},
		},
	}

	b := NewBuilder(g)
	nfa, starts, err := b.Build()
	require.NoError(t, err)

	_, err = Compile(nfa, starts, map[string][]string{"Default": {"A_TOK", "B_TOK"}})
	// Two distinct tokens of differing lookahead-ness never land in the same
	// initial partition bucket, so this particular grammar is not actually
	// ambiguous; this test documents that expectation rather than asserting
	// an error.
	assert.NoError(t, err)
}
