// Package lalrgen builds LALR(1) parse tables from a grammar, extended with
// two features ordinary textbook LALR(1) construction doesn't have:
// grammar-directed restricted-token replacement ("Replace" actions) and
// per-production tail lookahead conditions that narrow which tokens a
// reduction is willing to fire on.
package lalrgen

import (
	"fmt"
	"sort"

	"github.com/harborlang/harbor/internal/lalrgen/grammar"
	"github.com/harborlang/harbor/internal/util"
)

// firstSets caches FIRST(X) for every grammar symbol X, computed once per
// grammar and reused by every closure operation, rather than recomputing
// FIRST sets inside every closure call.
type firstSets struct {
	g       grammar.Grammar
	cache   map[string]util.StringSet
	nullable util.StringSet
}

func newFirstSets(g grammar.Grammar) *firstSets {
	f := &firstSets{g: g, cache: map[string]util.StringSet{}}
	f.compute()
	return f
}

func (f *firstSets) compute() {
	f.nullable = util.NewStringSet()
	for _, t := range f.g.Terminals() {
		f.cache[t] = util.NewStringSet(map[string]bool{t: true})
	}
	for _, nt := range f.g.NonTerminals() {
		f.cache[nt] = util.NewStringSet()
	}

	changed := true
	for changed {
		changed = false
		for _, nt := range f.g.NonTerminals() {
			for _, prod := range f.g.Rule(nt).Productions {
				before := f.cache[nt].Len()
				nullableBefore := f.nullable.Has(nt)

				allNullableSoFar := true
				for _, sym := range prod {
					if sym == "" {
						continue
					}
					f.cache[nt].AddAll(f.cache[sym])
					if !f.nullable.Has(sym) && !f.g.IsTerminal(sym) {
						allNullableSoFar = false
						break
					}
					if f.g.IsTerminal(sym) {
						allNullableSoFar = false
						break
					}
				}
				if len(prod) == 0 || allNullableSoFar {
					f.nullable.Add(nt)
				}

				if f.cache[nt].Len() != before || f.nullable.Has(nt) != nullableBefore {
					changed = true
				}
			}
		}
	}
}

// First returns FIRST(sym) for a single grammar symbol.
func (f *firstSets) First(sym string) util.StringSet {
	if sym == "" {
		return util.NewStringSet()
	}
	if s, ok := f.cache[sym]; ok {
		return s
	}
	return util.NewStringSet()
}

// FirstOfString returns FIRST(X1 X2 ... Xn), the lookahead set that can
// legally follow a derivation of the symbol string, propagating through
// leading nullable symbols the way DeRemer-Pennello lookahead propagation
// requires (spec.md §4.3).
func (f *firstSets) FirstOfString(symbols []string) util.StringSet {
	result := util.NewStringSet()
	for _, sym := range symbols {
		result.AddAll(f.First(sym))
		if !f.Nullable(sym) {
			return result
		}
	}
	return result
}

// Nullable reports whether sym can derive the empty string.
func (f *firstSets) Nullable(sym string) bool {
	if sym == "" {
		return true
	}
	if f.g.IsTerminal(sym) {
		return false
	}
	return f.nullable.Has(sym)
}

// itemSet is an ordered, deduplicated collection of LR1Items, keyed by their
// String() representation the way an ictiobus-style automaton keys
// NFA/DFA states by item-set string (spec.md §4.2/§4.3).
type itemSet struct {
	items util.SVSet[grammar.LR1Item]
}

func newItemSet() *itemSet {
	return &itemSet{items: util.NewSVSet[grammar.LR1Item]()}
}

func (s *itemSet) add(item grammar.LR1Item) bool {
	key := item.String()
	if s.items.Has(key) {
		return false
	}
	s.items.Set(key, item)
	return true
}

func (s *itemSet) sortedItems() []grammar.LR1Item {
	keys := s.items.Elements()
	sort.Strings(keys)
	out := make([]grammar.LR1Item, len(keys))
	for i, k := range keys {
		out[i] = s.items.Get(k)
	}
	return out
}

// closure1 computes the LR(1) closure of a seed item set: for every item
// [A -> α . B β, a] with B a non-terminal, add [B -> . γ, b] for every
// production B -> γ and every b in FIRST(βa) — the production's tail
// lookahead condition, if any, filters every such b, whether it came from
// FIRST(β) or from a (spec.md §3 "[Lookahead]").
func closure1(g grammar.Grammar, f *firstSets, seed []grammar.LR1Item) *itemSet {
	set := newItemSet()
	var worklist []grammar.LR1Item
	for _, it := range seed {
		if set.add(it) {
			worklist = append(worklist, it)
		}
	}

	for len(worklist) > 0 {
		item := worklist[0]
		worklist = worklist[1:]

		if item.Reducible() {
			continue
		}
		b := item.Right[0]
		if !g.IsNonTerminal(b) {
			continue
		}
		beta := item.Right[1:]

		lookaheads := f.FirstOfString(beta)
		if f.FirstOfString(beta).Len() == 0 || allNullable(f, beta) {
			lookaheads.Add(item.Lookahead)
		}

		rule := g.Rule(b)
		for pIdx, prod := range rule.Productions {
			right := []string(prod)
			if len(right) == 1 && right[0] == "" {
				right = nil
			}
			var tail *grammar.LookaheadCondition
			if pIdx < len(rule.Tails) {
				tail = rule.Tails[pIdx]
			}
			variant := ""
			if pIdx < len(rule.Variants) {
				variant = rule.Variants[pIdx]
			}
			var disallowed []string
			if pIdx < len(rule.Disallowed) {
				disallowed = rule.Disallowed[pIdx]
			}

			for _, la := range lookaheads.Elements() {
				if tail != nil && tail.Match(la) == grammar.Unmatched {
					continue
				}
				newItem := grammar.LR1Item{
					LR0Item: grammar.LR0Item{
						NonTerminal:      b,
						Right:            append([]string{}, right...),
						Tail:             tail,
						Variant:          variant,
						DisallowedTokens: append([]string{}, disallowed...),
					},
					Lookahead: la,
				}
				if set.add(newItem) {
					worklist = append(worklist, newItem)
				}
			}
		}
	}

	return set
}

func allNullable(f *firstSets, syms []string) bool {
	for _, s := range syms {
		if !f.Nullable(s) {
			return false
		}
	}
	return true
}

// gotoSet computes GOTO(set, X): shift every item in set whose next symbol
// is X, one symbol to the right, returning both the closed item set and the
// shifted kernel — the kernel is needed again for restricted-token
// re-closure (spec.md §4.2 "Restricted tokens").
func gotoSet(g grammar.Grammar, f *firstSets, set *itemSet, x string) (*itemSet, []grammar.LR1Item) {
	var seed []grammar.LR1Item
	for _, item := range set.sortedItems() {
		if item.Reducible() || item.Right[0] != x {
			continue
		}
		seed = append(seed, item.Shift())
	}
	if len(seed) == 0 {
		return nil, nil
	}
	return closure1(g, f, seed), seed
}

// kernelDisallowedTokens returns the union of every disallowed token named
// by a variant-bearing item in kernel (spec.md §4.2: "a state is restricted
// if any of its items bears a variant that disallows certain tokens").
func kernelDisallowedTokens(kernel []grammar.LR1Item) []string {
	seen := util.NewStringSet()
	var out []string
	for _, item := range kernel {
		for _, t := range item.DisallowedTokens {
			if !seen.Has(t) {
				seen.Add(t)
				out = append(out, t)
			}
		}
	}
	sort.Strings(out)
	return out
}

// filterKernel returns the subset of kernel with every item disallowing
// token removed — the filtered kernel spec.md §4.2 re-closes into a
// replacement state for a Replace action on token.
func filterKernel(kernel []grammar.LR1Item, token string) []grammar.LR1Item {
	var out []grammar.LR1Item
	for _, item := range kernel {
		if item.IsDisallowed(token) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func symbolsOf(g grammar.Grammar) []string {
	syms := append([]string{}, g.Terminals()...)
	syms = append(syms, g.NonTerminals()...)
	return syms
}

func fmtItem(item grammar.LR1Item) string {
	return fmt.Sprintf("[%s]", item.String())
}
