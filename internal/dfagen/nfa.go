// Package dfagen compiles a lexical grammar — productions over Empty,
// UnicodeSet, Exclude, NonTerminal and Lookahead terms — into a minimized
// DFA ready to drive a lexer (spec.md §4.2).
package dfagen

import (
	"fmt"
	"sort"

	"github.com/harborlang/harbor/internal/unicodeset"
)

// Term is one element of a lexical production's right-hand side.
type Term interface {
	isTerm()
}

// EmptyTerm matches the empty string (an ε-edge).
type EmptyTerm struct{}

func (EmptyTerm) isTerm() {}

// SetTerm matches one code point out of a concrete UnicodeSet.
type SetTerm struct {
	Set unicodeset.Set
}

func (SetTerm) isTerm() {}

// ExcludeTerm compiles NonTerminal down to a single UnicodeSet (it must be a
// rule with exactly one alternative of exactly one set-reducible term: a
// SetTerm, an ExcludeTerm, or a NonTerminalTerm naming another such rule)
// and subtracts Subtract from it.
type ExcludeTerm struct {
	NonTerminal string
	Subtract    unicodeset.Set
}

func (ExcludeTerm) isTerm() {}

// NonTerminalTerm recursively compiles the referenced rule.
type NonTerminalTerm struct {
	Name string
}

func (NonTerminalTerm) isTerm() {}

// LookaheadTerm is a zero-width assertion: the set must (or, if Negate, must
// not) match at this position, but the match does not consume input. It may
// only follow a non-lookahead term in a production (spec.md §4.2).
type LookaheadTerm struct {
	Set    unicodeset.Set
	Negate bool
}

func (LookaheadTerm) isTerm() {}

// Production is one alternative right-hand side of a lexical rule.
type Production []Term

// Rule is a named lexical non-terminal with one or more alternatives.
type Rule struct {
	Name        string
	Productions []Production
}

// Token names one lexical rule as the defining body of an emitted token,
// with Priority breaking ties between two tokens whose DFA states would
// otherwise both accept the same lexeme (lower Priority wins, mirroring
// keyword-before-identifier ordering in the ECMA-262 lexical grammar).
type Token struct {
	Name       string
	Rule       string
	Priority   int
}

// Grammar is the full lexical grammar: a set of named rules plus the list of
// tokens to emit start/accept states for.
type Grammar struct {
	Rules  map[string]Rule
	Tokens []Token
}

// nfaState is one node of the Thompson-style NFA built per token, kept in
// the same string-keyed arena style as lalrgen's automaton.go so that
// subset construction (dfa.go) can key DFA states by sorted sets of NFA
// state names.
type nfaState struct {
	name        string
	transitions []nfaTransition
	// precondition, if non-nil, is a lookahead pre-condition UnicodeSet that
	// must non-emptily intersect a candidate move's label for the move out
	// of this state to be taken at all (spec.md §4.2 lookahead handling).
	precondition *unicodeset.Set
	// accept, if non-empty, names the token this state accepts.
	accept string
	// acceptPriority orders competing accept states the way the grammar's
	// token list orders Token.Priority.
	acceptPriority int
	// lookaheadAccept marks the state that carries a production's trailing
	// zero-width lookahead term; it is not itself accepting, but has an
	// epsilon edge to the token's accept state.
	lookaheadAccept bool
}

type nfaTransition struct {
	set  unicodeset.Set
	next string
	eps  bool
}

// NFA is a Thompson-construction automaton over every token in a Grammar,
// sharing NFA fragments is not attempted — each token gets its own
// glued-in fragment, matching the "start state, end state, glue fragment"
// recipe spec.md §4.2 describes.
type NFA struct {
	states map[string]*nfaState
	start  string
	nextID int
}

func newNFA() *NFA {
	return &NFA{states: map[string]*nfaState{}}
}

func (n *NFA) newState() *nfaState {
	name := fmt.Sprintf("n%d", n.nextID)
	n.nextID++
	s := &nfaState{name: name}
	n.states[name] = s
	return s
}

func (n *NFA) addEpsilon(from, to *nfaState) {
	from.transitions = append(from.transitions, nfaTransition{next: to.name, eps: true})
}

func (n *NFA) addMove(from, to *nfaState, set unicodeset.Set) {
	from.transitions = append(from.transitions, nfaTransition{next: to.name, set: set})
}

// Builder compiles a Grammar into an NFA, one fragment per token glued onto
// a shared multi-start arrangement: the returned NFA's nominal start state
// has an epsilon edge to each token's own fragment start, so that the same
// NFA serves every lexical goal (InputElementDiv, etc.) simultaneously —
// goal-specific DFA start states are computed downstream in dfa.go by
// restricting which token fragments are reachable.
type Builder struct {
	grammar Grammar
	nfa     *NFA
	// inProgress guards against runaway recursion while still allowing the
	// position-0/position-last recursion the grammar legitimately uses
	// (e.g. DecimalDigits -> DecimalDigits DecimalDigit | DecimalDigit).
	inProgress map[string]*recursionGuard
}

type recursionGuard struct {
	start, end *nfaState
	positions  map[int]bool
}

// NewBuilder creates a Builder for g. g is not modified.
func NewBuilder(g Grammar) *Builder {
	return &Builder{grammar: g, nfa: newNFA(), inProgress: map[string]*recursionGuard{}}
}

// Build compiles every token in the grammar into the shared NFA and returns
// it along with the NFA state name that begins each token's fragment.
func (b *Builder) Build() (*NFA, map[string]string, error) {
	tokenStarts := map[string]string{}

	tokens := append([]Token{}, b.grammar.Tokens...)
	sort.SliceStable(tokens, func(i, j int) bool { return tokens[i].Priority < tokens[j].Priority })

	root := b.nfa.newState()
	b.nfa.start = root.name

	for _, tok := range tokens {
		start, end, err := b.compileRule(tok.Rule)
		if err != nil {
			return nil, nil, fmt.Errorf("token %s: %w", tok.Name, err)
		}
		end.accept = tok.Name
		end.acceptPriority = tok.Priority
		b.nfa.addEpsilon(root, start)
		tokenStarts[tok.Name] = start.name
	}

	return b.nfa, tokenStarts, nil
}

func (b *Builder) compileRule(name string) (*nfaState, *nfaState, error) {
	if guard, ok := b.inProgress[name]; ok {
		return guard.start, guard.end, nil
	}

	rule, ok := b.grammar.Rules[name]
	if !ok {
		return nil, nil, fmt.Errorf("undefined lexical rule %q", name)
	}

	start := b.nfa.newState()
	end := b.nfa.newState()
	b.inProgress[name] = &recursionGuard{start: start, end: end, positions: map[int]bool{}}
	defer delete(b.inProgress, name)

	for _, prod := range rule.Productions {
		if err := b.compileProduction(name, prod, start, end); err != nil {
			return nil, nil, err
		}
	}

	return start, end, nil
}

func (b *Builder) compileProduction(ruleName string, prod Production, start, end *nfaState) error {
	cur := start
	for i, term := range prod {
		isLast := i == len(prod)-1

		switch t := term.(type) {
		case EmptyTerm:
			b.nfa.addEpsilon(cur, end)
			return nil

		case SetTerm:
			next := end
			if !isLast {
				next = b.nfa.newState()
			}
			b.nfa.addMove(cur, next, t.Set)
			cur = next

		case ExcludeTerm:
			base, err := b.compileExcludable(t.NonTerminal)
			if err != nil {
				return err
			}
			set := unicodeset.Exclude(base, t.Subtract)
			next := end
			if !isLast {
				next = b.nfa.newState()
			}
			b.nfa.addMove(cur, next, set)
			cur = next

		case NonTerminalTerm:
			if i != 0 && !isLast {
				if _, recursive := b.inProgress[t.Name]; recursive {
					return fmt.Errorf("rule %q recurses into %q at non-boundary position %d", ruleName, t.Name, i)
				}
			}
			subStart, subEnd, err := b.compileRule(t.Name)
			if err != nil {
				return err
			}
			b.nfa.addEpsilon(cur, subStart)
			next := end
			if !isLast {
				next = b.nfa.newState()
				b.nfa.addEpsilon(subEnd, next)
			} else {
				b.nfa.addEpsilon(subEnd, end)
			}
			cur = next

		case LookaheadTerm:
			if i == 0 {
				return fmt.Errorf("rule %q: a lookahead term must follow a non-lookahead term", ruleName)
			}
			set := t.Set
			if t.Negate {
				set = unicodeset.Exclude(unicodeset.Merge(unicodeset.AnyCodePoint(), unicodeset.EOF()), t.Set)
			}
			cur.precondition = &set
			if isLast {
				cur.lookaheadAccept = true
				b.nfa.addEpsilon(cur, end)
			}

		default:
			return fmt.Errorf("rule %q: unhandled term type %T", ruleName, t)
		}
	}
	if len(prod) == 0 {
		b.nfa.addEpsilon(start, end)
	}
	return nil
}

// compileExcludable resolves a rule reference used inside an Exclude term:
// the rule must reduce to exactly one UnicodeSet-valued alternative (a
// static check enforced here rather than at subset-construction time, so
// grammar authors get an error at compile time rather than a silently wrong
// alphabet).
func (b *Builder) compileExcludable(name string) (unicodeset.Set, error) {
	rule, ok := b.grammar.Rules[name]
	if !ok {
		return unicodeset.Empty(), fmt.Errorf("undefined lexical rule %q referenced in Exclude", name)
	}
	if len(rule.Productions) != 1 || len(rule.Productions[0]) != 1 {
		return unicodeset.Empty(), fmt.Errorf("rule %q is not reducible to a single UnicodeSet (required for use in Exclude)", name)
	}
	switch t := rule.Productions[0][0].(type) {
	case SetTerm:
		return t.Set, nil
	case ExcludeTerm:
		base, err := b.compileExcludable(t.NonTerminal)
		if err != nil {
			return unicodeset.Empty(), err
		}
		return unicodeset.Exclude(base, t.Subtract), nil
	case NonTerminalTerm:
		return b.compileExcludable(t.Name)
	default:
		return unicodeset.Empty(), fmt.Errorf("rule %q's single term is not set-reducible", name)
	}
}

// epsilonClosure returns the set of NFA states reachable from seeds via
// zero or more epsilon transitions, propagating any precondition found
// along the way exactly once per state (spec.md §4.2 step 2): a state that
// is itself reached through a precondition-bearing transition inherits
// that same precondition, and it is an error for two different
// preconditions to reach the same state by different epsilon paths.
func epsilonClosure(nfa *NFA, seeds []string) (map[string]bool, error) {
	closure := map[string]bool{}
	precond := map[string]*unicodeset.Set{}
	var worklist []string

	for _, s := range seeds {
		closure[s] = true
		worklist = append(worklist, s)
	}

	for len(worklist) > 0 {
		cur := worklist[0]
		worklist = worklist[1:]
		st := nfa.states[cur]

		for _, t := range st.transitions {
			if !t.eps {
				continue
			}
			if st.precondition != nil {
				if existing, ok := precond[t.next]; ok && existing != st.precondition {
					if !existing.Equal(*st.precondition) {
						return nil, fmt.Errorf("conflicting lookahead precondition propagation into state %s", t.next)
					}
				} else {
					precond[t.next] = st.precondition
				}
			}
			if !closure[t.next] {
				closure[t.next] = true
				worklist = append(worklist, t.next)
			}
		}
	}

	for name, p := range precond {
		if nfa.states[name].precondition == nil {
			nfa.states[name].precondition = p
		}
	}

	return closure, nil
}
