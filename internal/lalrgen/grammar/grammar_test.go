package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrammar_Validate(t *testing.T) {
	t.Run("empty grammar is invalid", func(t *testing.T) {
		var g Grammar
		assert.Error(t, g.Validate())
	})

	t.Run("no terminals is invalid", func(t *testing.T) {
		var g Grammar
		g.AddRule("S", Production{"S"})
		assert.Error(t, g.Validate())
	})

	t.Run("undefined symbol in production is invalid", func(t *testing.T) {
		var g Grammar
		g.AddTerm("int", MakeDefaultClass("int"))
		g.AddRule("S", Production{"unknownrule"})
		assert.Error(t, g.Validate())
	})

	t.Run("unreachable rule is invalid", func(t *testing.T) {
		var g Grammar
		g.AddTerm("int", MakeDefaultClass("int"))
		g.AddRule("S", Production{"int"})
		g.AddRule("Unused", Production{"int"})
		assert.Error(t, g.Validate())
	})

	t.Run("single reachable rule grammar is valid", func(t *testing.T) {
		var g Grammar
		g.AddTerm("int", MakeDefaultClass("int"))
		g.AddRule("S", Production{"int"})
		assert.NoError(t, g.Validate())
	})
}

// TestGrammar_RemoveEpsilons_ClassicExample mirrors the textbook epsilon
// elimination worked example:
//
//	S -> A C A | A a
//	A -> B B | ε
//	B -> A | b C
//	C -> b
//
// which, after removing the A -> ε production, expects S to gain every
// alternative reachable by omitting a nullable A, and A to gain the
// single-B form alongside its original B B form.
func TestGrammar_RemoveEpsilons_ClassicExample(t *testing.T) {
	var g Grammar
	g.AddTerm("a", MakeDefaultClass("a"))
	g.AddTerm("b", MakeDefaultClass("b"))

	g.AddRule("S", Production{"A", "C", "A"})
	g.AddRule("S", Production{"A", "a"})
	g.AddRule("A", Production{"B", "B"})
	g.AddRule("A", Production{})
	g.AddRule("B", Production{"A"})
	g.AddRule("B", Production{"b", "C"})
	g.AddRule("C", Production{"b"})
	g.SetStartSymbol("S")

	out := g.RemoveEpsilons()

	sRule := out.Rule("S")
	assertHasProduction(t, sRule.Productions, Production{"A", "C", "A"})
	assertHasProduction(t, sRule.Productions, Production{"C", "A"})
	assertHasProduction(t, sRule.Productions, Production{"A", "C"})
	assertHasProduction(t, sRule.Productions, Production{"C"})
	assertHasProduction(t, sRule.Productions, Production{"A", "a"})
	assertHasProduction(t, sRule.Productions, Production{"a"})

	aRule := out.Rule("A")
	assertHasProduction(t, aRule.Productions, Production{"B", "B"})
	assertHasProduction(t, aRule.Productions, Production{"B"})
	assertNoEpsilonProduction(t, aRule.Productions)
}

func assertHasProduction(t *testing.T, prods []Production, want Production) {
	t.Helper()
	for _, p := range prods {
		if p.Equal(want) {
			return
		}
	}
	t.Errorf("expected production %s among %v", want, prods)
}

func assertNoEpsilonProduction(t *testing.T, prods []Production) {
	t.Helper()
	for _, p := range prods {
		if len(p) == 0 {
			t.Errorf("unexpected epsilon production survived elimination")
		}
	}
}

func TestGrammar_AddVariantRule_RecordsVariantAndDisallowed(t *testing.T) {
	var g Grammar
	g.AddTerm("a", MakeDefaultClass("a"))
	g.AddTerm("y", MakeDefaultClass("y"))

	g.AddVariantRule("K", "Plain", Production{"a"}, []string{"y"})
	g.AddRule("K", Production{"a", "y"})

	rule := g.Rule("K")
	require.Len(t, rule.Productions, 2)
	assert.Equal(t, "Plain", rule.Variants[0])
	assert.Equal(t, []string{"y"}, rule.Disallowed[0])
	assert.Equal(t, "", rule.Variants[1])
	assert.Empty(t, rule.Disallowed[1])
}

func TestGrammar_Augmented_AddsFreshStartRule(t *testing.T) {
	var g Grammar
	g.AddTerm("int", MakeDefaultClass("int"))
	g.AddRule("S", Production{"int"})
	g.SetStartSymbol("S")

	aug := g.Augmented()
	require.NotEqual(t, "S", aug.StartSymbol())

	startRule := aug.Rule(aug.StartSymbol())
	require.Len(t, startRule.Productions, 1)
	assert.Equal(t, Production{"S"}, startRule.Productions[0])
}
