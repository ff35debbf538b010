package grammar

import (
	"fmt"
	"sort"
	"strings"

	"github.com/harborlang/harbor/internal/util"
)

// Production is one alternative right-hand side of a rule. A symbol is a
// terminal iff it was registered with AddTerm (or is "$"; see IsTerminal),
// whatever its casing; other symbols name non-terminals. The empty
// Production (zero-length slice) denotes an epsilon production.
type Production []string

func (p Production) String() string {
	if len(p) == 0 {
		return "ε"
	}
	return strings.Join([]string(p), " ")
}

func (p Production) Equal(o Production) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

func (p Production) Copy() Production {
	return append(Production{}, p...)
}

// Rule is every production alternative for one non-terminal.
type Rule struct {
	NonTerminal string
	Productions []Production

	// Tails holds, parallel to Productions, an optional tail lookahead
	// condition (spec.md §3 "[Lookahead]") restricting which tokens may
	// trigger a reduction of that alternative. A nil entry means the
	// alternative has no such restriction.
	Tails []*LookaheadCondition

	// Variants holds, parallel to Productions, the variant marker (spec.md
	// §3, e.g. "_Await", "_Yield_Return") selecting that alternative. An
	// empty entry means the alternative carries no variant.
	Variants []string

	// Disallowed holds, parallel to Productions, the set of tokens a state
	// containing this alternative's item must not Shift directly (spec.md
	// §4.2 "Restricted tokens"). A nil entry means the alternative imposes
	// no restriction.
	Disallowed [][]string
}

// Grammar is a context-free grammar over Token/NonTerminal symbols, per
// spec.md §3. It is built incrementally with AddTerm/AddRule and is not
// safe for concurrent writes; reads (closures, FIRST, table construction)
// are safe to run concurrently once construction is complete, matching the
// "batch, immutable-after-construction" lifecycle spec.md §3/§5 describe.
type Grammar struct {
	rules     map[string]Rule
	ruleOrder []string

	terms      map[string]TokenClass
	termOrder  []string

	start string

	uniqueCounter int
}

// AddTerm registers a terminal symbol. id is lower-cased and used as the
// grammar symbol; cl is retained for Human()/error-reporting purposes.
func (g *Grammar) AddTerm(id string, cl TokenClass) {
	if g.terms == nil {
		g.terms = map[string]TokenClass{}
	}
	key := strings.ToLower(id)
	if _, exists := g.terms[key]; !exists {
		g.termOrder = append(g.termOrder, key)
	}
	g.terms[key] = cl
}

// AddRule adds one production alternative to the rule for nonTerminal,
// creating the rule if it doesn't exist yet. The first non-terminal ever
// added becomes the grammar's start symbol unless SetStartSymbol is called
// explicitly.
func (g *Grammar) AddRule(nonTerminal string, alt Production) {
	g.addAlt(nonTerminal, alt, nil, "", nil)
}

// AddRestrictedRule is AddRule with an explicit tail lookahead condition
// attached to the new alternative (spec.md §3 "[Lookahead]" restricted
// productions, e.g. a production that must not reduce when the lookahead
// is "in" or "function").
func (g *Grammar) AddRestrictedRule(nonTerminal string, alt Production, tail *LookaheadCondition) {
	g.addAlt(nonTerminal, alt, tail, "", nil)
}

// AddVariantRule adds a production alternative tagged with a variant marker
// (spec.md §3, e.g. "_NoIn"), optionally naming the tokens a state built
// from this alternative's item must not Shift directly (spec.md §4.2
// "Restricted tokens"): lalrgen re-closes the kernel with this alternative's
// items removed and emits a Replace action to the result for each such
// token instead of the ordinary Shift.
func (g *Grammar) AddVariantRule(nonTerminal, variant string, alt Production, disallowedTokens []string) {
	g.addAlt(nonTerminal, alt, nil, variant, disallowedTokens)
}

func (g *Grammar) addAlt(nonTerminal string, alt Production, tail *LookaheadCondition, variant string, disallowed []string) {
	if g.rules == nil {
		g.rules = map[string]Rule{}
	}
	r, ok := g.rules[nonTerminal]
	if !ok {
		r = Rule{NonTerminal: nonTerminal}
		g.ruleOrder = append(g.ruleOrder, nonTerminal)
		if g.start == "" {
			g.start = nonTerminal
		}
	}
	r.Productions = append(r.Productions, alt.Copy())
	r.Tails = append(r.Tails, tail)
	r.Variants = append(r.Variants, variant)
	r.Disallowed = append(r.Disallowed, append([]string{}, disallowed...))
	g.rules[nonTerminal] = r
}

// SetStartSymbol overrides the inferred start symbol.
func (g *Grammar) SetStartSymbol(s string) {
	g.start = s
}

// StartSymbol returns the grammar's start non-terminal.
func (g Grammar) StartSymbol() string {
	return g.start
}

// Rule returns the rule for nonTerminal, or the zero Rule if undefined.
func (g Grammar) Rule(nonTerminal string) Rule {
	return g.rules[nonTerminal]
}

// Term returns the TokenClass registered for a terminal id, or
// TokenUndefined if none was registered.
func (g Grammar) Term(id string) TokenClass {
	if cl, ok := g.terms[strings.ToLower(id)]; ok {
		return cl
	}
	return TokenUndefined
}

// IsTerminal reports whether sym is a registered terminal symbol.
func (g Grammar) IsTerminal(sym string) bool {
	if sym == "$" {
		return true
	}
	_, ok := g.terms[sym]
	return ok
}

// IsNonTerminal reports whether sym names a rule in the grammar.
func (g Grammar) IsNonTerminal(sym string) bool {
	_, ok := g.rules[sym]
	return ok
}

// Terminals returns all terminal symbols, in the order they were added.
func (g Grammar) Terminals() []string {
	return append([]string{}, g.termOrder...)
}

// NonTerminals returns all non-terminal symbols, in the order their rules
// were first added.
func (g Grammar) NonTerminals() []string {
	return append([]string{}, g.ruleOrder...)
}

// GenerateUniqueTerminal returns a terminal-shaped symbol name, derived from
// base, guaranteed not to collide with any terminal or non-terminal symbol
// already in the grammar.
func (g *Grammar) GenerateUniqueTerminal(base string) string {
	candidate := strings.ToLower(base)
	for g.IsTerminal(candidate) || g.IsNonTerminal(candidate) {
		g.uniqueCounter++
		candidate = fmt.Sprintf("%s%d", strings.ToLower(base), g.uniqueCounter)
	}
	return candidate
}

// Augmented returns a copy of g with a new start rule S' -> S added, where
// S is g's current start symbol and S' is a freshly generated non-terminal
// name. This is the standard augmentation every LR(0)/LR(1)/LALR(1)
// construction needs to give the automaton a single, unambiguous accept
// state.
func (g Grammar) Augmented() Grammar {
	newStart := g.uniqueNonTerminal("S-P")

	augmented := g.copy()
	augmented.ruleOrder = append([]string{newStart}, augmented.ruleOrder...)
	augmented.rules[newStart] = Rule{
		NonTerminal: newStart,
		Productions: []Production{{g.start}},
		Tails:       []*LookaheadCondition{nil},
		Variants:    []string{""},
		Disallowed:  [][]string{nil},
	}
	augmented.start = newStart
	return augmented
}

func (g Grammar) uniqueNonTerminal(base string) string {
	candidate := base
	n := 0
	for g.IsNonTerminal(candidate) || g.IsTerminal(candidate) {
		n++
		candidate = fmt.Sprintf("%s%d", base, n)
	}
	return candidate
}

func (g Grammar) copy() Grammar {
	cp := Grammar{
		rules:     map[string]Rule{},
		ruleOrder: append([]string{}, g.ruleOrder...),
		terms:     map[string]TokenClass{},
		termOrder: append([]string{}, g.termOrder...),
		start:     g.start,
	}
	for k, v := range g.rules {
		prods := make([]Production, len(v.Productions))
		for i, p := range v.Productions {
			prods[i] = p.Copy()
		}
		tails := append([]*LookaheadCondition{}, v.Tails...)
		variants := append([]string{}, v.Variants...)
		disallowed := make([][]string, len(v.Disallowed))
		for i, d := range v.Disallowed {
			disallowed[i] = append([]string{}, d...)
		}
		cp.rules[k] = Rule{NonTerminal: v.NonTerminal, Productions: prods, Tails: tails, Variants: variants, Disallowed: disallowed}
	}
	for k, v := range g.terms {
		cp.terms[k] = v
	}
	return cp
}

// Validate checks the structural invariants spec.md §7 calls "grammar
// errors": at least one terminal and one rule, every non-terminal
// referenced in a production is defined, and every rule is reachable from
// the start symbol.
func (g Grammar) Validate() error {
	var errs []string

	if len(g.terms) == 0 {
		errs = append(errs, "grammar defines no terminals")
	}
	if len(g.rules) == 0 {
		errs = append(errs, "grammar defines no rules")
	}
	if g.start == "" {
		errs = append(errs, "grammar has no start symbol")
	}

	for _, ntName := range g.ruleOrder {
		rule := g.rules[ntName]
		for _, prod := range rule.Productions {
			for _, sym := range prod {
				if sym == "" {
					continue // epsilon
				}
				if g.IsTerminal(sym) || g.IsNonTerminal(sym) {
					continue
				}
				errs = append(errs, fmt.Sprintf("rule %q references undefined symbol %q", ntName, sym))
			}
		}
	}

	reachable := g.reachableNonTerminals()
	for _, ntName := range g.ruleOrder {
		if !reachable.Has(ntName) {
			errs = append(errs, fmt.Sprintf("rule %q is unreachable from start symbol %q", ntName, g.start))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("grammar validation failed:\n%s", strings.Join(errs, "\n"))
	}
	return nil
}

func (g Grammar) reachableNonTerminals() util.StringSet {
	seen := util.NewStringSet()
	if g.start == "" {
		return seen
	}
	var visit func(nt string)
	visit = func(nt string) {
		if seen.Has(nt) {
			return
		}
		seen.Add(nt)
		for _, prod := range g.rules[nt].Productions {
			for _, sym := range prod {
				if g.IsNonTerminal(sym) {
					visit(sym)
				}
			}
		}
	}
	visit(g.start)
	return seen
}

// RemoveEpsilons returns a grammar equivalent to g but with every epsilon
// production eliminated (standard epsilon-elimination: for every
// non-terminal B that can derive ε, every production containing B gets an
// alternative with B omitted). The start symbol's own nullability is
// preserved by keeping an explicit epsilon alternative on the start rule
// when needed, rather than introducing a fresh start symbol, since callers
// expect StartSymbol() to be unchanged afterward.
func (g Grammar) RemoveEpsilons() Grammar {
	nullable := g.nullableSet()

	out := g.copy()
	for _, ntName := range g.ruleOrder {
		rule := g.rules[ntName]
		seen := map[string]bool{}
		var newProds []Production
		var newTails []*LookaheadCondition
		var newVariants []string
		var newDisallowed [][]string

		for pIdx, prod := range rule.Productions {
			tail := rule.Tails[pIdx]
			variantMarker := ""
			if pIdx < len(rule.Variants) {
				variantMarker = rule.Variants[pIdx]
			}
			var disallowed []string
			if pIdx < len(rule.Disallowed) {
				disallowed = rule.Disallowed[pIdx]
			}
			for _, omission := range expandNullableOmissions(prod, nullable) {
				if len(omission) == 0 && ntName != g.start {
					// every ε alternative is dropped for a non-start rule,
					// whether it was already literally ε or only became so
					// by omitting every nullable symbol in the original
					// production: a non-start nullable non-terminal is
					// eliminated entirely, and any rule that referenced it
					// already has the omission variant threaded in by
					// expandNullableOmissions.
					continue
				}
				key := Production(omission).String()
				if seen[key] {
					continue
				}
				seen[key] = true
				newProds = append(newProds, omission)
				newTails = append(newTails, tail)
				newVariants = append(newVariants, variantMarker)
				newDisallowed = append(newDisallowed, disallowed)
			}
		}
		if ntName == g.start && nullable.Has(ntName) && !seen[Production{}.String()] {
			newProds = append(newProds, Production{})
			newTails = append(newTails, nil)
			newVariants = append(newVariants, "")
			newDisallowed = append(newDisallowed, nil)
		}
		out.rules[ntName] = Rule{NonTerminal: ntName, Productions: newProds, Tails: newTails, Variants: newVariants, Disallowed: newDisallowed}
	}

	return out
}

func (g Grammar) nullableSet() util.StringSet {
	nullable := util.NewStringSet()
	changed := true
	for changed {
		changed = false
		for _, ntName := range g.ruleOrder {
			if nullable.Has(ntName) {
				continue
			}
			for _, prod := range g.rules[ntName].Productions {
				if len(prod) == 0 {
					nullable.Add(ntName)
					changed = true
					break
				}
				allNullable := true
				for _, sym := range prod {
					if g.IsTerminal(sym) || !nullable.Has(sym) {
						allNullable = false
						break
					}
				}
				if allNullable {
					nullable.Add(ntName)
					changed = true
					break
				}
			}
		}
	}
	return nullable
}

// expandNullableOmissions returns every production variant obtainable by
// independently omitting zero or more nullable non-terminals from prod,
// excluding the all-omitted empty result unless prod was already empty.
func expandNullableOmissions(prod Production, nullable util.StringSet) []Production {
	if len(prod) == 0 {
		return []Production{prod.Copy()}
	}

	variants := []Production{{}}
	for _, sym := range prod {
		var next []Production
		for _, v := range variants {
			withSym := append(v.Copy(), sym)
			next = append(next, withSym)
			if nullable.Has(sym) {
				next = append(next, v.Copy())
			}
		}
		variants = next
	}

	var out []Production
	for _, v := range variants {
		if len(v) == 0 {
			continue
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		out = append(out, Production{})
	}
	return out
}

func (g Grammar) String() string {
	names := append([]string{}, g.ruleOrder...)
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		rule := g.rules[name]
		alts := make([]string, len(rule.Productions))
		for i, p := range rule.Productions {
			alts[i] = p.String()
		}
		fmt.Fprintf(&sb, "%s -> %s\n", name, strings.Join(alts, " | "))
	}
	return sb.String()
}
