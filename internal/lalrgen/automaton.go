package lalrgen

import (
	"fmt"
	"sort"

	"github.com/emirpasic/gods/lists/arraylist"

	"github.com/harborlang/harbor/internal/lalrgen/grammar"
	"github.com/harborlang/harbor/internal/util"
)

// state is one node of the canonical-LR(1) (pre-merge) automaton: a closed
// item set plus the transitions leaving it, keyed by grammar symbol. States
// are named by a dense integer string ("0", "1", ...) rather than by their
// item-set contents, matching the string-keyed DFA/NFA arena
// pattern in dfagen.
type state struct {
	name  string
	items *itemSet
	moves map[string]string // symbol -> destination state name

	// kernel is the pre-closure seed this state was built from, kept around
	// so a restricted token can re-close a filtered copy of it (spec.md
	// §4.2 "Restricted tokens").
	kernel []grammar.LR1Item

	// replaced marks which tokens in moves are Replace targets rather than
	// ordinary Shift targets.
	replaced map[string]bool
}

// canonicalAutomaton is the full canonical-LR(1) collection before LALR
// merging.
type canonicalAutomaton struct {
	states []*state
	byKey  map[string]*state // item-set signature -> state, for dedup
	start  string
}

func itemSetKey(s *itemSet) string {
	items := s.sortedItems()
	keys := make([]string, len(items))
	for i, it := range items {
		keys[i] = it.String()
	}
	sort.Strings(keys)
	out := ""
	for _, k := range keys {
		out += k + "\n"
	}
	return out
}

// buildCanonicalLR1 runs the standard canonical-LR(1) construction: start
// from the closure of the augmented grammar's start item, and repeatedly
// compute GOTO for every symbol until no new item sets appear (spec.md
// §4.2/§4.3).
func buildCanonicalLR1(g grammar.Grammar, f *firstSets) *canonicalAutomaton {
	aut := &canonicalAutomaton{byKey: map[string]*state{}}

	startRule := g.Rule(g.StartSymbol())
	seedProd := []string(startRule.Productions[0])
	seed := []grammar.LR1Item{{
		LR0Item:   grammar.LR0Item{NonTerminal: g.StartSymbol(), Right: append([]string{}, seedProd...)},
		Lookahead: "$",
	}}
	startItems := closure1(g, f, seed)

	startState := aut.addState(startItems, seed)
	aut.start = startState.name

	syms := symbolsOf(g)

	worklist := arraylist.New()
	worklist.Add(startState)
	for !worklist.Empty() {
		front, _ := worklist.Get(0)
		worklist.Remove(0)
		cur := front.(*state)

		for _, x := range syms {
			next, kernel := gotoSet(g, f, cur.items, x)
			if next == nil || next.items.Len() == 0 {
				continue
			}
			key := itemSetKey(next)
			if existing, ok := aut.byKey[key]; ok {
				cur.moves[x] = existing.name
				continue
			}
			ns := aut.addState(next, kernel)
			cur.moves[x] = ns.name
			worklist.Add(ns)
		}

		disallowed := kernelDisallowedTokens(cur.kernel)
		if len(disallowed) > 0 {
			if cur.replaced == nil {
				cur.replaced = map[string]bool{}
			}
			for _, t := range disallowed {
				filtered := filterKernel(cur.kernel, t)
				if len(filtered) == 0 {
					continue
				}
				reclosed := closure1(g, f, filtered)
				key := itemSetKey(reclosed)
				rs, ok := aut.byKey[key]
				if !ok {
					rs = aut.addState(reclosed, filtered)
					worklist.Add(rs)
				}
				cur.moves[t] = rs.name
				cur.replaced[t] = true
			}
		}
	}

	return aut
}

func (a *canonicalAutomaton) addState(items *itemSet, kernel []grammar.LR1Item) *state {
	key := itemSetKey(items)
	if existing, ok := a.byKey[key]; ok {
		return existing
	}
	s := &state{
		name:   fmt.Sprintf("%d", len(a.states)),
		items:  items,
		moves:  map[string]string{},
		kernel: kernel,
	}
	a.states = append(a.states, s)
	a.byKey[key] = s
	return s
}

// mergedState is one LALR(1) state: the union of canonical-LR(1) states
// sharing an LR(0) core, per spec.md §4.3's "identical-core merge" rule.
type mergedState struct {
	name     string
	core     util.SVSet[grammar.LR0Item]
	items    *itemSet
	moves    map[string]string
	replaced map[string]bool
}

// lalrAutomaton is the canonical-LR(1) collection merged down by identical
// LR(0) core, the direct input to table construction.
type lalrAutomaton struct {
	states map[string]*mergedState
	order  []string
	start  string
}

// mergeByCore collapses a canonical-LR(1) automaton into its LALR(1)
// automaton. Two canonical states merge iff grammar.EqualCoreSets reports
// their item sets share an LR0 core; the merged state's item set is the
// union of the lookaheads from every contributing state, and its
// transitions are the union of the contributing states' transitions
// (naming mismatches cannot occur, since merged-by-core states always
// transition, symbol for symbol, to other states that are themselves
// merged by core — a standard LALR(1) theorem).
func mergeByCore(aut *canonicalAutomaton) *lalrAutomaton {
	coreKeyOf := map[string]string{} // canonical state name -> core key
	coreOwner := map[string]*mergedState{}
	merged := &lalrAutomaton{states: map[string]*mergedState{}}

	for _, s := range aut.states {
		core := grammar.CoreSet(asVSet(s.items))
		ck := coreSetKey(core)
		coreKeyOf[s.name] = ck

		owner, ok := coreOwner[ck]
		if !ok {
			owner = &mergedState{
				name:     ck,
				core:     core,
				items:    newItemSet(),
				moves:    map[string]string{},
				replaced: map[string]bool{},
			}
			coreOwner[ck] = owner
			merged.states[ck] = owner
			merged.order = append(merged.order, ck)
		}
		for _, it := range s.items.sortedItems() {
			owner.items.add(it)
		}
	}

	for _, s := range aut.states {
		ck := coreKeyOf[s.name]
		owner := coreOwner[ck]
		for sym, dest := range s.moves {
			owner.moves[sym] = coreKeyOf[dest]
		}
		for t := range s.replaced {
			owner.replaced[t] = true
		}
	}

	merged.start = coreKeyOf[aut.start]
	return merged
}

func asVSet(s *itemSet) util.SVSet[grammar.LR1Item] {
	return s.items
}

func coreSetKey(core util.SVSet[grammar.LR0Item]) string {
	keys := core.Elements()
	sort.Strings(keys)
	out := ""
	for _, k := range keys {
		out += k + "\n"
	}
	return out
}
