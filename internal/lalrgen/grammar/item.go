package grammar

import (
	"fmt"
	"strings"

	"github.com/harborlang/harbor/internal/util"
)

// Epsilon is the symbol used for an epsilon production, matching the
// convention of treating "" as ε throughout the item/closure machinery.
var Epsilon = [1]string{""}

// LookaheadCondition is a tail lookahead condition attached to the final
// symbol position of a production (spec.md §3, "[Lookahead]"): it restricts
// which lookahead tokens may reduce the production it is attached to.
type LookaheadCondition struct {
	// Allowed, if non-nil, is the set of tokens permitted as lookahead; any
	// other token fails the condition ("Unmatched").
	Allowed []string
	// Forbidden, if non-nil, is the set of tokens that fail the condition;
	// every other token passes ("Matched").
	Forbidden []string
}

// MatchResult is the result of testing a lookahead token against a
// LookaheadCondition during LR(1) closure: "Matched" or "Unmatched".
// Conditions do not chain, so Match never returns "Remaining".
type MatchResult int

const (
	Unmatched MatchResult = iota
	Matched
	Remaining
)

// Match tests token against the condition.
func (c LookaheadCondition) Match(token string) MatchResult {
	if c.Allowed != nil {
		for _, a := range c.Allowed {
			if a == token {
				return Matched
			}
		}
		return Unmatched
	}
	if c.Forbidden != nil {
		for _, f := range c.Forbidden {
			if f == token {
				return Unmatched
			}
		}
		return Matched
	}
	return Matched
}

// LR0Item is a dotted production with no lookahead: NonTerminal -> Left . Right.
type LR0Item struct {
	NonTerminal string
	Left        []string
	Right       []string

	// Variant, if non-empty, names the variant marker (spec.md §3, e.g.
	// "_Await", "_Yield_Return") selecting which alternative production of
	// NonTerminal this item was built from. Two items over what is
	// otherwise the same original production, differing only in Variant,
	// are related via OriginalKey for LALR lookahead bookkeeping.
	Variant string

	// Tail, if non-nil, is this production's tail lookahead condition.
	Tail *LookaheadCondition

	// DisallowedTokens, if non-empty, names tokens that a state containing
	// this item must not Shift directly (spec.md §4.2 "Restricted tokens").
	// Such a token instead replaces the state's kernel with this item
	// removed, re-closes it, and targets that with a Replace action.
	DisallowedTokens []string
}

// IsDisallowed reports whether token is named in item's DisallowedTokens.
func (item LR0Item) IsDisallowed(token string) bool {
	for _, t := range item.DisallowedTokens {
		if t == token {
			return true
		}
	}
	return false
}

// Original returns a copy of item with its Variant marker cleared — the
// "to_original" projection spec.md §3 names, used wherever two items that
// differ only by variant must be treated as one LR(0) core.
func (item LR0Item) Original() LR0Item {
	cp := item.Copy()
	cp.Variant = ""
	return cp
}

// OriginalKey returns the canonical "to_original" identity of the item,
// ignoring its Variant marker — the key the LALR lookahead table uses to
// identify items across variant-distinguished alternatives of what is
// conceptually one production (spec.md §3).
func (item LR0Item) OriginalKey() string {
	return fmt.Sprintf("%s -> %s . %s", item.NonTerminal, strings.Join(item.Left, " "), strings.Join(item.Right, " "))
}

// Reducible reports whether the dot is at the end of the production.
func (item LR0Item) Reducible() bool {
	return len(item.Right) == 0
}

// Shift advances the dot past the next symbol, returning the new item. It
// panics if the item is already reducible, matching the general
// practice of panicking on programmer-error preconditions rather than
// returning an error for something only internal callers can trigger.
func (item LR0Item) Shift() LR0Item {
	if item.Reducible() {
		panic("cannot shift a reducible item")
	}
	newLeft := make([]string, len(item.Left)+1)
	copy(newLeft, item.Left)
	newLeft[len(item.Left)] = item.Right[0]

	newRight := make([]string, len(item.Right)-1)
	copy(newRight, item.Right[1:])

	return LR0Item{
		NonTerminal:      item.NonTerminal,
		Left:             newLeft,
		Right:            newRight,
		Variant:          item.Variant,
		Tail:             item.Tail,
		DisallowedTokens: item.DisallowedTokens,
	}
}

func (item LR0Item) Copy() LR0Item {
	cp := LR0Item{NonTerminal: item.NonTerminal, Variant: item.Variant, Tail: item.Tail, DisallowedTokens: append([]string{}, item.DisallowedTokens...)}
	cp.Left = append([]string{}, item.Left...)
	cp.Right = append([]string{}, item.Right...)
	return cp
}

func (item LR0Item) Equal(o any) bool {
	other, ok := o.(LR0Item)
	if !ok {
		return false
	}
	if item.NonTerminal != other.NonTerminal || item.Variant != other.Variant {
		return false
	}
	if len(item.Left) != len(other.Left) || len(item.Right) != len(other.Right) {
		return false
	}
	for i := range item.Left {
		if item.Left[i] != other.Left[i] {
			return false
		}
	}
	for i := range item.Right {
		if item.Right[i] != other.Right[i] {
			return false
		}
	}
	return true
}

func (item LR0Item) String() string {
	nonTermPhrase := ""
	if item.NonTerminal != "" {
		name := item.NonTerminal
		if item.Variant != "" {
			name += "_" + item.Variant
		}
		nonTermPhrase = fmt.Sprintf("%s -> ", name)
	}

	left := strings.Join(item.Left, " ")
	right := strings.Join(item.Right, " ")
	if len(left) > 0 {
		left += " "
	}
	if len(right) > 0 {
		right = " " + right
	}

	return fmt.Sprintf("%s%s.%s", nonTermPhrase, left, right)
}

// LR1Item is an LR0Item annotated with a single lookahead token, the unit of
// work for canonical-LR(1)/LALR(1) closures and tables.
type LR1Item struct {
	LR0Item
	Lookahead string
}

func (item LR1Item) Copy() LR1Item {
	return LR1Item{LR0Item: item.LR0Item.Copy(), Lookahead: item.Lookahead}
}

func (item LR1Item) Shift() LR1Item {
	return LR1Item{LR0Item: item.LR0Item.Shift(), Lookahead: item.Lookahead}
}

func (item LR1Item) Equal(o any) bool {
	other, ok := o.(LR1Item)
	if !ok {
		return false
	}
	return item.LR0Item.Equal(other.LR0Item) && item.Lookahead == other.Lookahead
}

func (item LR1Item) String() string {
	return fmt.Sprintf("%s, %s", item.LR0Item.String(), item.Lookahead)
}

// CoreSet projects a set of LR1Items down to their LR0 cores, keyed by
// OriginalKey rather than String so that items differing only by Variant
// collapse into one core entry (spec.md §3's "to_original map"). Two LALR
// states are the same state iff their core sets are equal (spec.md §4.3,
// used by automaton merging and by lalrgen's own LALR(1) construction to
// recognize when two canonical-LR(1) states should be merged).
func CoreSet(s util.VSet[string, LR1Item]) util.SVSet[LR0Item] {
	cores := util.NewSVSet[LR0Item]()
	for _, elem := range s.Elements() {
		lr1 := s.Get(elem)
		original := lr1.LR0Item.Original()
		cores.Set(original.OriginalKey(), original)
	}
	return cores
}

// EqualCoreSets reports whether s1 and s2 have the same LR0 core.
func EqualCoreSets(s1, s2 util.VSet[string, LR1Item]) bool {
	return CoreSet(s1).Equal(CoreSet(s2))
}
