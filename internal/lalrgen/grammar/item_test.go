package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/harborlang/harbor/internal/util"
)

// TestCoreSet_MergesVariantDistinguishedItems checks spec.md §3's
// requirement directly: two items built from what is conceptually one
// production, differing only by Variant, must collapse into a single core
// entry so the LALR merge step treats their two canonical-LR(1) states as
// one.
func TestCoreSet_MergesVariantDistinguishedItems(t *testing.T) {
	plain := LR1Item{
		LR0Item:   LR0Item{NonTerminal: "K", Left: []string{"a"}, Variant: ""},
		Lookahead: "x",
	}
	awaitVariant := LR1Item{
		LR0Item:   LR0Item{NonTerminal: "K", Left: []string{"a"}, Variant: "Await"},
		Lookahead: "y",
	}

	set := util.NewSVSet[LR1Item]()
	set.Set(plain.String(), plain)
	set.Set(awaitVariant.String(), awaitVariant)

	cores := CoreSet(set)
	assert.Equal(t, 1, len(cores.Elements()), "variant-distinguished items over the same production must share one core")
}

func TestCoreSet_DistinctProductionsStayDistinct(t *testing.T) {
	a := LR1Item{LR0Item: LR0Item{NonTerminal: "K", Left: []string{"a"}}, Lookahead: "x"}
	b := LR1Item{LR0Item: LR0Item{NonTerminal: "K", Left: []string{"b"}}, Lookahead: "x"}

	set := util.NewSVSet[LR1Item]()
	set.Set(a.String(), a)
	set.Set(b.String(), b)

	cores := CoreSet(set)
	assert.Equal(t, 2, len(cores.Elements()), "items over genuinely different productions must not merge")
}

func TestLR0Item_IsDisallowed(t *testing.T) {
	item := LR0Item{NonTerminal: "K", DisallowedTokens: []string{"of", "in"}}
	assert.True(t, item.IsDisallowed("of"))
	assert.False(t, item.IsDisallowed("for"))
}

func TestLR0Item_Original_ClearsVariant(t *testing.T) {
	item := LR0Item{NonTerminal: "K", Variant: "Await", DisallowedTokens: []string{"of"}}
	original := item.Original()
	assert.Equal(t, "", original.Variant)
	assert.Equal(t, item.OriginalKey(), original.OriginalKey())
}
