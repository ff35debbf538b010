package lalrgen

import (
	"fmt"
	"sort"

	"github.com/dekarrin/rezi"
	"github.com/dekarrin/rosed"

	"github.com/harborlang/harbor/internal/lalrgen/grammar"
)

// ActionType distinguishes the four things a parser can do on seeing a
// token in a given state (Shift, Reduce, Accept, Replace), plus Error for a
// token with no action.
type ActionType int

const (
	Shift ActionType = iota
	Reduce
	Accept
	Replace
	Error
)

// Action is one cell of the ACTION table.
type Action struct {
	Type ActionType

	// State is the destination state, used when Type is Shift or Replace.
	State string

	// NonTerminal and Production identify the rule to reduce, used when
	// Type is Reduce.
	NonTerminal string
	Production  grammar.Production
}

func (a Action) String() string {
	switch a.Type {
	case Shift:
		return fmt.Sprintf("shift %s", a.State)
	case Reduce:
		return fmt.Sprintf("reduce %s -> %s", a.NonTerminal, a.Production.String())
	case Accept:
		return "accept"
	case Replace:
		return fmt.Sprintf("replace %s", a.State)
	default:
		return "error"
	}
}

// Table is a constructed LALR(1) parse table: ACTION[state][terminal] and
// GOTO[state][nonterminal], plus enough bookkeeping to render human-readable
// diagnostics and to serialize/deserialize the table (spec.md §4.4, §4.5).
type Table struct {
	States      []string
	StartState  string
	action      map[string]map[string]Action
	gotoTbl     map[string]map[string]string
	grammar     grammar.Grammar
}

// Action returns the ACTION table entry for (state, terminal), defaulting to
// an Error action when no entry exists.
func (t *Table) Action(state, terminal string) Action {
	row, ok := t.action[state]
	if !ok {
		return Action{Type: Error}
	}
	if a, ok := row[terminal]; ok {
		return a
	}
	return Action{Type: Error}
}

// Goto returns the GOTO table entry for (state, nonTerminal), or "" if
// undefined.
func (t *Table) Goto(state, nonTerminal string) string {
	row, ok := t.gotoTbl[state]
	if !ok {
		return ""
	}
	return row[nonTerminal]
}

// Grammar returns the grammar the table was built from (augmented).
func (t *Table) Grammar() grammar.Grammar {
	return t.grammar
}

// ConflictKind distinguishes the two classical LR table conflicts plus the
// "no lookahead fired" case that restricted tokens can produce when a tail
// LookaheadCondition rejects every candidate lookahead.
type ConflictKind int

const (
	ShiftReduceConflict ConflictKind = iota
	ReduceReduceConflict
	NoLookaheadConflict
)

// ConflictError reports an unresolved LALR(1) table conflict: two or more
// actions wanted the same (state, terminal) cell.
type ConflictError struct {
	Kind     ConflictKind
	State    string
	Terminal string
	Actions  []Action
}

func (e *ConflictError) Error() string {
	switch e.Kind {
	case ShiftReduceConflict:
		return fmt.Sprintf("shift/reduce conflict in state %s on terminal %q: %s vs %s", e.State, e.Terminal, e.Actions[0], e.Actions[1])
	case ReduceReduceConflict:
		return fmt.Sprintf("reduce/reduce conflict in state %s on terminal %q: %s vs %s", e.State, e.Terminal, e.Actions[0], e.Actions[1])
	default:
		return fmt.Sprintf("no lookahead in state %s admits terminal %q after tail-condition filtering", e.State, e.Terminal)
	}
}

// Build constructs the LALR(1) parse table for g. g is augmented internally;
// callers pass their grammar's natural start symbol. preferShiftOverReduce,
// when true, resolves shift/reduce conflicts by shifting (the conventional
// yacc/bison default, used by the grammar's dangling-else and operator
// precedence-free productions) instead of reporting a ConflictError.
func Build(g grammar.Grammar, preferShiftOverReduce bool) (*Table, []error) {
	augmented := g.Augmented()
	f := newFirstSets(augmented)

	canon := buildCanonicalLR1(augmented, f)
	merged := mergeByCore(canon)
	renameStatesDensely(merged)

	t := &Table{
		StartState: merged.start,
		action:     map[string]map[string]Action{},
		gotoTbl:    map[string]map[string]string{},
		grammar:    augmented,
	}

	var errs []error

	for _, name := range merged.order {
		st := merged.states[name]
		t.action[name] = map[string]Action{}
		t.gotoTbl[name] = map[string]string{}

		for sym, dest := range st.moves {
			if augmented.IsTerminal(sym) {
				if st.replaced[sym] {
					t.setAction(name, sym, Action{Type: Replace, State: dest}, preferShiftOverReduce, &errs)
				} else {
					t.setAction(name, sym, Action{Type: Shift, State: dest}, preferShiftOverReduce, &errs)
				}
			} else {
				t.gotoTbl[name][sym] = dest
			}
		}

		for _, item := range st.items.sortedItems() {
			if !item.Reducible() {
				continue
			}
			if item.NonTerminal == augmented.StartSymbol() && item.Lookahead == "$" {
				t.setAction(name, "$", Action{Type: Accept}, preferShiftOverReduce, &errs)
				continue
			}
			prod := grammar.Production(append([]string{}, item.Left...))
			t.setAction(name, item.Lookahead, Action{
				Type:        Reduce,
				NonTerminal: item.NonTerminal,
				Production:  prod,
			}, preferShiftOverReduce, &errs)
		}
	}

	for _, name := range merged.order {
		t.States = append(t.States, name)
	}

	return t, errs
}

func (t *Table) setAction(state, terminal string, newAct Action, preferShift bool, errs *[]error) {
	row := t.action[state]
	existing, had := row[terminal]
	if !had {
		row[terminal] = newAct
		return
	}
	if existing.Type == newAct.Type && actionsEqual(existing, newAct) {
		return
	}

	if preferShift {
		if isShiftLike(existing.Type) && newAct.Type == Reduce {
			return
		}
		if existing.Type == Reduce && isShiftLike(newAct.Type) {
			row[terminal] = newAct
			return
		}
	}

	kind := ReduceReduceConflict
	if (isShiftLike(existing.Type) && newAct.Type == Reduce) || (existing.Type == Reduce && isShiftLike(newAct.Type)) {
		kind = ShiftReduceConflict
	}
	*errs = append(*errs, &ConflictError{
		Kind:     kind,
		State:    state,
		Terminal: terminal,
		Actions:  []Action{existing, newAct},
	})
}

// isShiftLike reports whether t consumes the current token and moves to a
// new state, the sense in which a shift/reduce conflict is classified
// (spec.md §4.3): Replace behaves like Shift here even though the driver
// doesn't actually consume the token on a Replace transition.
func isShiftLike(t ActionType) bool {
	return t == Shift || t == Replace
}

func actionsEqual(a, b Action) bool {
	if a.Type != b.Type || a.State != b.State || a.NonTerminal != b.NonTerminal {
		return false
	}
	return a.Production.Equal(b.Production)
}

// renameStatesDensely replaces merged's hash-derived state names with dense
// integer strings "0".."n-1", state 0 always being the start state, purely
// so generated tables and diagnostics read like a normal textbook LALR
// table rather than a wall of item-set hashes.
func renameStatesDensely(merged *lalrAutomaton) {
	order := append([]string{}, merged.order...)
	sort.Slice(order, func(i, j int) bool {
		if order[i] == merged.start {
			return true
		}
		if order[j] == merged.start {
			return false
		}
		return order[i] < order[j]
	})

	rename := map[string]string{}
	for i, old := range order {
		rename[old] = fmt.Sprintf("%d", i)
	}

	newStates := map[string]*mergedState{}
	for old, st := range merged.states {
		st.name = rename[old]
		newMoves := map[string]string{}
		for sym, dest := range st.moves {
			newMoves[sym] = rename[dest]
		}
		st.moves = newMoves
		newStates[rename[old]] = st
	}
	merged.states = newStates
	merged.start = rename[merged.start]

	newOrder := make([]string, len(order))
	for i, old := range order {
		newOrder[i] = rename[old]
	}
	merged.order = newOrder
}

// Dump renders the ACTION/GOTO table as a bordered text grid, one row per
// state, terminals then non-terminals as columns — the same
// rosed.InsertTableOpts layout an SLR table dump uses.
func (t *Table) Dump() string {
	terms := t.grammar.Terminals()
	nonTerms := t.grammar.NonTerminals()

	header := append([]string{"St"}, terms...)
	header = append(header, "|")
	header = append(header, nonTerms...)

	data := [][]string{header}
	for _, s := range t.States {
		row := []string{s}
		for _, term := range terms {
			row = append(row, t.Action(s, term).String())
		}
		row = append(row, "|")
		for _, nt := range nonTerms {
			row = append(row, t.Goto(s, nt))
		}
		data = append(data, row)
	}

	return rosed.
		Edit("").
		InsertTableOpts(0, data, 10, rosed.Options{
			TableHeaders:             true,
			NoTrailingLineSeparators: true,
		}).
		String()
}

// TableSnapshot is the exported, rezi-serializable projection of a Table:
// everything needed to reconstruct ACTION/GOTO lookups without re-running
// LALR(1) construction. Table itself keeps its lookup maps unexported so
// that Action/Goto stay read-only from a caller's perspective; Snapshot is
// the only bridge between the two shapes, and DecodeTableSnapshot yields a
// TableSnapshot, not a Table.
type TableSnapshot struct {
	States     []string
	StartState string
	Action     map[string]map[string]Action
	Goto       map[string]map[string]string
}

// Snapshot projects t into its serializable form.
func (t *Table) Snapshot() TableSnapshot {
	return TableSnapshot{
		States:     append([]string{}, t.States...),
		StartState: t.StartState,
		Action:     t.action,
		Goto:       t.gotoTbl,
	}
}

// EncodeBinary REZI-encodes a TableSnapshot, the on-disk form harborctl
// writes when a project's output format is "rezi".
func (s TableSnapshot) EncodeBinary() []byte {
	return rezi.EncBinary(s)
}

// DecodeTableSnapshot REZI-decodes bytes produced by EncodeBinary.
func DecodeTableSnapshot(data []byte) (TableSnapshot, error) {
	var s TableSnapshot
	if _, err := rezi.DecBinary(data, &s); err != nil {
		return TableSnapshot{}, fmt.Errorf("decoding table snapshot: %w", err)
	}
	return s, nil
}
