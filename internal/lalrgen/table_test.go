package lalrgen

import (
	"testing"

	"github.com/harborlang/harbor/internal/lalrgen/grammar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// classicExprGrammar is the textbook "E -> E + T | T, T -> T * F | F,
// F -> ( E ) | id" grammar, the same shape of fixture ictiobus's lalr_test.go
// exercises, used here to check that a small, genuinely LALR(1) grammar
// produces a conflict-free table.
func classicExprGrammar() grammar.Grammar {
	var g grammar.Grammar
	g.AddTerm("plus", grammar.MakeDefaultClass("+"))
	g.AddTerm("star", grammar.MakeDefaultClass("*"))
	g.AddTerm("lparen", grammar.MakeDefaultClass("("))
	g.AddTerm("rparen", grammar.MakeDefaultClass(")"))
	g.AddTerm("id", grammar.MakeDefaultClass("id"))

	g.AddRule("E", grammar.Production{"E", "plus", "T"})
	g.AddRule("E", grammar.Production{"T"})
	g.AddRule("T", grammar.Production{"T", "star", "F"})
	g.AddRule("T", grammar.Production{"F"})
	g.AddRule("F", grammar.Production{"lparen", "E", "rparen"})
	g.AddRule("F", grammar.Production{"id"})

	return g
}

func TestBuild_ClassicExpressionGrammar_NoConflicts(t *testing.T) {
	g := classicExprGrammar()

	table, errs := Build(g, false)
	require.Empty(t, errs)
	assert.NotEmpty(t, table.States)
	assert.Equal(t, "0", table.StartState)
}

func TestBuild_DanglingElse_ShiftReduceResolvedByPreference(t *testing.T) {
	var g grammar.Grammar
	g.AddTerm("if", grammar.MakeDefaultClass("if"))
	g.AddTerm("then", grammar.MakeDefaultClass("then"))
	g.AddTerm("else", grammar.MakeDefaultClass("else"))
	g.AddTerm("stmt", grammar.MakeDefaultClass("stmt"))

	g.AddRule("S", grammar.Production{"if", "stmt", "then", "S"})
	g.AddRule("S", grammar.Production{"if", "stmt", "then", "S", "else", "S"})
	g.AddRule("S", grammar.Production{"stmt"})

	_, errsStrict := Build(g, false)
	assert.NotEmpty(t, errsStrict, "ambiguous dangling-else grammar must conflict without a shift preference")

	_, errsShift := Build(g, true)
	assert.Empty(t, errsShift, "shift preference must resolve the dangling-else conflict")
}

func TestBuild_ReduceReduceConflict_IsReported(t *testing.T) {
	var g grammar.Grammar
	g.AddTerm("a", grammar.MakeDefaultClass("a"))

	g.AddRule("S", grammar.Production{"A"})
	g.AddRule("S", grammar.Production{"B"})
	g.AddRule("A", grammar.Production{"a"})
	g.AddRule("B", grammar.Production{"a"})

	_, errs := Build(g, false)
	require.NotEmpty(t, errs)

	foundRR := false
	for _, e := range errs {
		if ce, ok := e.(*ConflictError); ok && ce.Kind == ReduceReduceConflict {
			foundRR = true
		}
	}
	assert.True(t, foundRR, "expected a reduce/reduce conflict to be reported")
}
