package jsparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborlang/harbor/internal/dfagen"
	"github.com/harborlang/harbor/internal/harborerrors"
	"github.com/harborlang/harbor/internal/lalrgen"
	"github.com/harborlang/harbor/internal/lalrgen/grammar"
	"github.com/harborlang/harbor/internal/unicodeset"
	"github.com/harborlang/harbor/internal/util"
)

// recordingHandler accumulates shift/reduce events in source order so tests
// can assert on the exact parse a given input drove.
type recordingHandler struct {
	events []string
}

func (h *recordingHandler) Start()         { h.events = nil }
func (h *recordingHandler) Source(s string) {}
func (h *recordingHandler) Shift(tok Token) {
	h.events = append(h.events, "shift "+tok.Class)
}
func (h *recordingHandler) Reduce(nonTerminal string, production grammar.Production) {
	h.events = append(h.events, "reduce "+nonTerminal)
}
func (h *recordingHandler) Location(loc harborerrors.Location) {}
func (h *recordingHandler) Accept() (interface{}, error) {
	return h.events, nil
}

// buildArithmeticLexicon compiles a tiny lexicon recognizing decimal
// numbers, the identifiers "do"/"while" (kept as a generic identifier class,
// since disambiguating keywords is a grammar-layer concern in a real front
// end), "+", ";", "{", "}", line comments, and whitespace.
func buildArithmeticLexicon(t *testing.T) *dfagen.DFA {
	t.Helper()

	digit := unicodeset.Range('0', '9')
	letter := unicodeset.Merge(unicodeset.Range('a', 'z'), unicodeset.Range('A', 'Z'))
	ws := unicodeset.Merge(unicodeset.Single(' '), unicodeset.Single('\t'))
	nl := unicodeset.Single('\n')
	anyButNl := unicodeset.Exclude(unicodeset.AnyCodePoint(), nl)

	g := dfagen.Grammar{
		Rules: map[string]dfagen.Rule{
			"Number": {Name: "Number", Productions: []dfagen.Production{
				{dfagen.SetTerm{Set: digit}},
				{dfagen.NonTerminalTerm{Name: "Number"}, dfagen.SetTerm{Set: digit}},
			}},
			"Ident": {Name: "Ident", Productions: []dfagen.Production{
				{dfagen.SetTerm{Set: letter}},
				{dfagen.NonTerminalTerm{Name: "Ident"}, dfagen.SetTerm{Set: letter}},
			}},
			"Whitespace": {Name: "Whitespace", Productions: []dfagen.Production{
				{dfagen.SetTerm{Set: ws}},
				{dfagen.NonTerminalTerm{Name: "Whitespace"}, dfagen.SetTerm{Set: ws}},
			}},
			"LineBreak": {Name: "LineBreak", Productions: []dfagen.Production{
				{dfagen.SetTerm{Set: nl}},
			}},
			"LineCommentBody": {Name: "LineCommentBody", Productions: []dfagen.Production{
				{dfagen.EmptyTerm{}},
				{dfagen.NonTerminalTerm{Name: "LineCommentBody"}, dfagen.SetTerm{Set: anyButNl}},
			}},
			"LineComment": {Name: "LineComment", Productions: []dfagen.Production{
				{dfagen.SetTerm{Set: unicodeset.Single('/')}, dfagen.SetTerm{Set: unicodeset.Single('/')}, dfagen.NonTerminalTerm{Name: "LineCommentBody"}},
			}},
			"Plus":      {Name: "Plus", Productions: []dfagen.Production{{dfagen.SetTerm{Set: unicodeset.Single('+')}}}},
			"Semicolon": {Name: "Semicolon", Productions: []dfagen.Production{{dfagen.SetTerm{Set: unicodeset.Single(';')}}}},
			"LBrace":    {Name: "LBrace", Productions: []dfagen.Production{{dfagen.SetTerm{Set: unicodeset.Single('{')}}}},
			"RBrace":    {Name: "RBrace", Productions: []dfagen.Production{{dfagen.SetTerm{Set: unicodeset.Single('}')}}}},
		},
		Tokens: []dfagen.Token{
			{Name: "number", Rule: "Number", Priority: 0},
			{Name: "identifier", Rule: "Ident", Priority: 1},
			{Name: "whitespace", Rule: "Whitespace", Priority: 2},
			{Name: "lineterminatorsequence", Rule: "LineBreak", Priority: 2},
			{Name: "linecomment", Rule: "LineComment", Priority: 3},
			{Name: "plus", Rule: "Plus", Priority: 4},
			{Name: "semicolon", Rule: "Semicolon", Priority: 4},
			{Name: "lbrace", Rule: "LBrace", Priority: 4},
			{Name: "rbrace", Rule: "RBrace", Priority: 4},
		},
	}

	builder := dfagen.NewBuilder(g)
	nfa, tokenStarts, err := builder.Build()
	require.NoError(t, err)

	names := make([]string, 0, len(tokenStarts))
	for name := range tokenStarts {
		names = append(names, name)
	}

	dfa, err := dfagen.Compile(nfa, tokenStarts, map[string][]string{"InputElementDiv": names})
	require.NoError(t, err)
	return dfa
}

func TestLexer_TokenizesIdentifiersNumbersAndPunctuators(t *testing.T) {
	dfa := buildArithmeticLexicon(t)
	l := NewLexer(dfa, "do 1 + 2")

	var classes []string
	for {
		tok, err := l.Next(InputElementDiv)
		require.NoError(t, err)
		if tok.Class == "$" {
			break
		}
		classes = append(classes, tok.Class)
	}

	assert.Equal(t, []string{"identifier", "whitespace", "number", "whitespace", "plus", "whitespace", "number"}, classes)
}

func TestLexer_LineCommentThenNewlineAdvancesLine(t *testing.T) {
	dfa := buildArithmeticLexicon(t)
	l := NewLexer(dfa, "// hi\n1")

	tok, err := l.Next(InputElementDiv)
	require.NoError(t, err)
	assert.Equal(t, "linecomment", tok.Class)
	assert.Equal(t, 1, tok.Location.Line)

	tok, err = l.Next(InputElementDiv)
	require.NoError(t, err)
	assert.Equal(t, "lineterminatorsequence", tok.Class)

	tok, err = l.Next(InputElementDiv)
	require.NoError(t, err)
	assert.Equal(t, "number", tok.Class)
	assert.Equal(t, 2, tok.Location.Line)
}

// buildAdditionGrammar builds a minimal LALR(1) table for:
//
//	Program -> StmtList
//	StmtList -> StmtList Stmt | Stmt
//	Stmt -> Expr semicolon
//	Expr -> Expr plus number | number
func buildAdditionGrammar(t *testing.T) *lalrgen.Table {
	t.Helper()

	var g grammar.Grammar
	g.AddTerm("number", grammar.MakeDefaultClass("number"))
	g.AddTerm("plus", grammar.MakeDefaultClass("plus"))
	g.AddTerm("semicolon", grammar.MakeDefaultClass("semicolon"))

	g.AddRule("Program", grammar.Production{"StmtList"})
	g.AddRule("StmtList", grammar.Production{"StmtList", "Stmt"})
	g.AddRule("StmtList", grammar.Production{"Stmt"})
	g.AddRule("Stmt", grammar.Production{"Expr", "semicolon"})
	g.AddRule("Expr", grammar.Production{"Expr", "plus", "number"})
	g.AddRule("Expr", grammar.Production{"number"})
	g.SetStartSymbol("Program")

	table, errs := lalrgen.Build(g, false)
	require.Empty(t, errs)
	return table
}

// buildReplaceLexicon compiles a lexicon for the restricted-token grammar
// below: single-character tokens "a", "x", "y", plus whitespace.
func buildReplaceLexicon(t *testing.T) *dfagen.DFA {
	t.Helper()

	ws := unicodeset.Merge(unicodeset.Single(' '), unicodeset.Single('\t'))

	g := dfagen.Grammar{
		Rules: map[string]dfagen.Rule{
			"A":          {Name: "A", Productions: []dfagen.Production{{dfagen.SetTerm{Set: unicodeset.Single('a')}}}},
			"X":          {Name: "X", Productions: []dfagen.Production{{dfagen.SetTerm{Set: unicodeset.Single('x')}}}},
			"Y":          {Name: "Y", Productions: []dfagen.Production{{dfagen.SetTerm{Set: unicodeset.Single('y')}}}},
			"Whitespace": {Name: "Whitespace", Productions: []dfagen.Production{{dfagen.SetTerm{Set: ws}}}},
		},
		Tokens: []dfagen.Token{
			{Name: "a", Rule: "A", Priority: 0},
			{Name: "x", Rule: "X", Priority: 0},
			{Name: "y", Rule: "Y", Priority: 0},
			{Name: "whitespace", Rule: "Whitespace", Priority: 1},
		},
	}

	builder := dfagen.NewBuilder(g)
	nfa, tokenStarts, err := builder.Build()
	require.NoError(t, err)

	names := make([]string, 0, len(tokenStarts))
	for name := range tokenStarts {
		names = append(names, name)
	}

	dfa, err := dfagen.Compile(nfa, tokenStarts, map[string][]string{"InputElementDiv": names})
	require.NoError(t, err)
	return dfa
}

// buildReplaceGrammar builds a table for:
//
//	S -> K x
//	K -> a          (variant "Plain", disallows "y")
//	K -> a y
//
// After shifting "a", a state with both K alternatives' items exists. Since
// the variant alternative disallows "y", that state's action on "y" must be
// Replace into a re-closed state carrying only the plain "a y" alternative,
// rather than the plain Shift of "y" an unrestricted table would hold there
// (spec.md §4.2 "Restricted tokens").
func buildReplaceGrammar(t *testing.T) *lalrgen.Table {
	t.Helper()

	var g grammar.Grammar
	g.AddTerm("a", grammar.MakeDefaultClass("a"))
	g.AddTerm("x", grammar.MakeDefaultClass("x"))
	g.AddTerm("y", grammar.MakeDefaultClass("y"))

	g.AddRule("S", grammar.Production{"K", "x"})
	g.AddVariantRule("K", "Plain", grammar.Production{"a"}, []string{"y"})
	g.AddRule("K", grammar.Production{"a", "y"})
	g.SetStartSymbol("S")

	table, errs := lalrgen.Build(g, false)
	require.Empty(t, errs)
	return table
}

func TestBuild_RestrictedTokenEmitsReplaceAction(t *testing.T) {
	table := buildReplaceGrammar(t)

	afterA := table.Action(table.StartState, "a")
	require.Equal(t, lalrgen.Shift, afterA.Type)
	stateAfterA := afterA.State

	onY := table.Action(stateAfterA, "y")
	require.Equal(t, lalrgen.Replace, onY.Type, "state after shifting 'a' must Replace, not Shift or Reduce, on the disallowed token 'y'")

	onX := table.Action(stateAfterA, "x")
	assert.Equal(t, lalrgen.Reduce, onX.Type, "the restriction is token-specific: 'x' still reduces K -> a directly")

	replaced := table.Action(onY.State, "y")
	assert.Equal(t, lalrgen.Shift, replaced.Type, "the replacement state carries only the plain 'a y' alternative, so it can Shift 'y' without conflict")
}

func TestDriver_DrivesReplaceTransitionThenAccepts(t *testing.T) {
	dfa := buildReplaceLexicon(t)
	table := buildReplaceGrammar(t)

	lexer := NewLexer(dfa, "a y x")
	handler := &recordingHandler{}
	d := New(Config{Table: table, GoalOf: divGoal}, lexer, handler, nil)

	result, err := d.Run("a y x")
	require.NoError(t, err)

	events := result.([]string)
	assert.Contains(t, events, "reduce K")
	assert.Contains(t, events, "reduce S")
}

func divGoal(state string, templateTailAllowed bool) Goal { return InputElementDiv }

func TestDriver_ParsesSimpleAddition(t *testing.T) {
	dfa := buildArithmeticLexicon(t)
	table := buildAdditionGrammar(t)

	lexer := NewLexer(dfa, "1 + 2;")
	handler := &recordingHandler{}
	d := New(Config{Table: table, GoalOf: divGoal}, lexer, handler, nil)

	result, err := d.Run("1 + 2;")
	require.NoError(t, err)

	events := result.([]string)
	assert.Contains(t, events, "reduce Expr")
	assert.Contains(t, events, "reduce Stmt")
	assert.Contains(t, events, "reduce Program")
}

func TestDriver_AutomaticSemicolonInsertionAtEOF(t *testing.T) {
	dfa := buildArithmeticLexicon(t)
	table := buildAdditionGrammar(t)

	lexer := NewLexer(dfa, "1 + 2")
	handler := &recordingHandler{}
	d := New(Config{Table: table, GoalOf: divGoal}, lexer, handler, nil)

	result, err := d.Run("1 + 2")
	require.NoError(t, err)

	events := result.([]string)
	assert.Contains(t, events, "reduce Stmt")
}

func TestDriver_ErrorsOnUnexpectedToken(t *testing.T) {
	dfa := buildArithmeticLexicon(t)
	table := buildAdditionGrammar(t)

	lexer := NewLexer(dfa, "+ 2;")
	handler := &recordingHandler{}
	d := New(Config{Table: table, GoalOf: divGoal}, lexer, handler, nil)

	_, err := d.Run("+ 2;")
	require.Error(t, err)
}

func TestDriver_NoASIStatesLeavesUnlistedStatesInserting(t *testing.T) {
	dfa := buildArithmeticLexicon(t)
	table := buildAdditionGrammar(t)

	lexer := NewLexer(dfa, "1 + 2")
	handler := &recordingHandler{}
	noASI := util.NewStringSet()
	noASI.Add(table.StartState)
	d := New(Config{Table: table, GoalOf: divGoal, NoASIStates: noASI}, lexer, handler, nil)

	_, err := d.Run("1 + 2")
	// ASI is suppressed only in the states recorded as "no ASI" (here the
	// start state); the state after "1 + 2" is not listed, so the semicolon
	// is still inserted at EOF and the parse succeeds.
	require.NoError(t, err)
}
