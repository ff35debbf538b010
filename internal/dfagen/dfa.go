package dfagen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dekarrin/rezi"
	"github.com/dekarrin/rosed"

	"github.com/harborlang/harbor/internal/unicodeset"
)

// CollapsedMove is one post-minification transition: the union of every
// partition member that led to the same destination state.
type CollapsedMove struct {
	Set  unicodeset.Set
	Next string
}

// DFAState is one state of a minimized lexer DFA. Transitions is populated
// during subset construction (keyed by partition-member id); after
// minification the authoritative transition table is CollapsedMoves and
// Transitions is cleared.
type DFAState struct {
	Name           string
	Transitions    map[string]string // partition-member key -> destination state name
	CollapsedMoves []CollapsedMove
	Accepting      bool
	Token          string
	Lookahead      bool
}

// Step returns the destination state name for input rune r from st, or ""
// if no transition matches. EOF is represented by passing hasRune=false.
func (st *DFAState) Step(r rune, hasRune bool) string {
	for _, m := range st.CollapsedMoves {
		if !hasRune {
			if m.Set.ContainsEOF() {
				return m.Next
			}
			continue
		}
		if m.Set.ContainsRune(r) {
			return m.Next
		}
	}
	return ""
}

// DFA is a minimized lexical-analyzer automaton: a family of named start
// states (one per lexical goal) sharing the same state/transition arena,
// plus the concrete partition alphabet the transition keys index into
// (spec.md §4.2/§4.4 "a family of DFAs sharing most states").
type DFA struct {
	States      map[string]*DFAState
	Goals       map[string]string // goal name -> start state name
	Alphabet    []unicodeset.Set  // partition members, indexed by key "p<i>"
	alphabetKey map[int]string
}

func (d *DFA) keyFor(idx int) string {
	return d.alphabetKey[idx]
}

// Compile runs subset construction followed by minimization over an NFA
// built by Builder.Build, producing one lexical goal per entry in
// goalFragments (goal name -> set of token names reachable from that goal,
// e.g. InputElementDiv maps to every non-regex token).
func Compile(nfa *NFA, tokenStarts map[string]string, goalFragments map[string][]string) (*DFA, error) {
	partitionBuilder := unicodeset.NewPartitionBuilder()
	for _, st := range nfa.states {
		for _, t := range st.transitions {
			if !t.eps {
				partitionBuilder.Add(t.set)
			}
		}
	}
	alphabet := partitionBuilder.Build()

	sc := &subsetConstructor{
		nfa:      nfa,
		alphabet: alphabet,
		byKey:    map[string]*DFAState{},
		states:   map[string]*DFAState{},
	}

	dfa := &DFA{
		States:      sc.states,
		Goals:       map[string]string{},
		Alphabet:    alphabet,
		alphabetKey: map[int]string{},
	}
	for i := range alphabet {
		dfa.alphabetKey[i] = fmt.Sprintf("p%d", i)
	}

	for goal, tokenNames := range goalFragments {
		var seeds []string
		for _, tn := range tokenNames {
			if s, ok := tokenStarts[tn]; ok {
				seeds = append(seeds, s)
			}
		}
		start, err := sc.buildFrom(seeds)
		if err != nil {
			return nil, err
		}
		dfa.Goals[goal] = start
	}

	return minimize(dfa)
}

type subsetConstructor struct {
	nfa      *NFA
	alphabet []unicodeset.Set
	byKey    map[string]*DFAState // nfa-subset signature -> DFA state
	states   map[string]*DFAState
	nextID   int
}

func subsetKey(subset map[string]bool) string {
	names := make([]string, 0, len(subset))
	for n := range subset {
		names = append(names, n)
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}

func (sc *subsetConstructor) buildFrom(seeds []string) (string, error) {
	closure, err := epsilonClosure(sc.nfa, seeds)
	if err != nil {
		return "", err
	}
	return sc.getOrCreate(closure)
}

func (sc *subsetConstructor) getOrCreate(subset map[string]bool) (string, error) {
	key := subsetKey(subset)
	if key == "" {
		return "", fmt.Errorf("empty NFA subset encountered during subset construction")
	}
	if existing, ok := sc.byKey[key]; ok {
		return existing.Name, nil
	}

	name := fmt.Sprintf("s%d", sc.nextID)
	sc.nextID++

	ds := &DFAState{Name: name, Transitions: map[string]string{}}
	sc.byKey[key] = ds
	sc.states[name] = ds

	// decide acceptance: lowest-priority accepting NFA state in the subset
	// wins, per the "priority-sorted input" rule (spec.md §4.2 step 3).
	bestPriority := -1
	for n := range subset {
		st := sc.nfa.states[n]
		if st.accept == "" {
			continue
		}
		if bestPriority == -1 || st.acceptPriority < bestPriority {
			bestPriority = st.acceptPriority
			ds.Accepting = true
			ds.Token = st.accept
		}
	}
	// the DFA state is a lookahead state if any member NFA state is one.
	for n := range subset {
		if sc.nfa.states[n].lookaheadAccept {
			ds.Lookahead = true
		}
	}

	for i, member := range sc.alphabet {
		moveSet := map[string]bool{}
		for n := range subset {
			st := sc.nfa.states[n]
			if st.precondition != nil && !unicodeset.Intersect(*st.precondition, member).Any() {
				continue
			}
			for _, t := range st.transitions {
				if t.eps {
					continue
				}
				if unicodeset.Contains(t.set, member) {
					moveSet[t.next] = true
				}
			}
		}
		if len(moveSet) == 0 {
			continue
		}

		var seeds []string
		for n := range moveSet {
			seeds = append(seeds, n)
		}
		closure, err := epsilonClosure(sc.nfa, seeds)
		if err != nil {
			return "", err
		}
		if len(closure) == 0 {
			continue
		}
		destName, err := sc.getOrCreate(closure)
		if err != nil {
			return "", err
		}
		ds.Transitions[fmt.Sprintf("p%d", i)] = destName
	}

	return name, nil
}

// sortedStateNames returns d's state names in a stable order, goal start
// states first (one per goal, sorted by goal name) followed by every
// remaining state sorted by name, so Dump/Snapshot read deterministically
// across runs.
func (d *DFA) sortedStateNames() []string {
	seen := map[string]bool{}
	var order []string

	var goalNames []string
	for g := range d.Goals {
		goalNames = append(goalNames, g)
	}
	sort.Strings(goalNames)
	for _, g := range goalNames {
		start := d.Goals[g]
		if !seen[start] {
			seen[start] = true
			order = append(order, start)
		}
	}

	var rest []string
	for name := range d.States {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	order = append(order, rest...)
	return order
}

// keyDest looks up the destination state reached from st by partition
// member i, checking the minimized CollapsedMoves first and falling back to
// the pre-minification Transitions map for DFAs dumped before minification
// ran.
func (st *DFAState) keyDest(d *DFA, i int) string {
	for _, m := range st.CollapsedMoves {
		if unicodeset.Contains(m.Set, d.Alphabet[i]) {
			return m.Next
		}
	}
	return st.Transitions[d.keyFor(i)]
}

// Dump renders the DFA as a bordered text grid, one row per state, one
// column per partition-alphabet member plus accepting/token/lookahead flags
// — the same rosed.InsertTableOpts layout lalrgen.Table.Dump uses for its
// ACTION/GOTO table.
func (d *DFA) Dump() string {
	header := []string{"State"}
	for i := range d.Alphabet {
		header = append(header, d.keyFor(i))
	}
	header = append(header, "Accept", "Token", "Lookahead")

	data := [][]string{header}
	for _, name := range d.sortedStateNames() {
		st := d.States[name]
		row := []string{name}
		for i := range d.Alphabet {
			row = append(row, st.keyDest(d, i))
		}
		row = append(row, fmt.Sprintf("%t", st.Accepting), st.Token, fmt.Sprintf("%t", st.Lookahead))
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

// DFAStateSnapshot is the rezi-serializable projection of a DFAState: only
// the minimized CollapsedMoves are kept, since Step never consults the
// pre-minification Transitions map once minification has run.
type DFAStateSnapshot struct {
	Name           string
	CollapsedMoves []CollapsedMove
	Accepting      bool
	Token          string
	Lookahead      bool
}

// DFASnapshot is the exported, rezi-serializable projection of a DFA:
// everything needed to reconstruct Step lookups without re-running subset
// construction and minimization, mirroring lalrgen.TableSnapshot.
type DFASnapshot struct {
	States   []DFAStateSnapshot
	Goals    map[string]string
	Alphabet []unicodeset.Set
}

// Snapshot projects d into its serializable form.
func (d *DFA) Snapshot() DFASnapshot {
	s := DFASnapshot{
		Goals:    map[string]string{},
		Alphabet: append([]unicodeset.Set{}, d.Alphabet...),
	}
	for g, start := range d.Goals {
		s.Goals[g] = start
	}
	for _, name := range d.sortedStateNames() {
		st := d.States[name]
		s.States = append(s.States, DFAStateSnapshot{
			Name:           st.Name,
			CollapsedMoves: append([]CollapsedMove{}, st.CollapsedMoves...),
			Accepting:      st.Accepting,
			Token:          st.Token,
			Lookahead:      st.Lookahead,
		})
	}
	return s
}

// EncodeBinary REZI-encodes a DFASnapshot, the on-disk form harborctl
// writes when a project's output format is "rezi".
func (s DFASnapshot) EncodeBinary() []byte {
	return rezi.EncBinary(s)
}

// DecodeDFASnapshot REZI-decodes bytes produced by EncodeBinary, restoring
// a walkable DFA (pre-minification Transitions left nil; Step only needs
// CollapsedMoves).
func DecodeDFASnapshot(data []byte) (*DFA, error) {
	var s DFASnapshot
	if _, err := rezi.DecBinary(data, &s); err != nil {
		return nil, fmt.Errorf("decoding dfa snapshot: %w", err)
	}

	d := &DFA{
		States:      map[string]*DFAState{},
		Goals:       map[string]string{},
		Alphabet:    s.Alphabet,
		alphabetKey: map[int]string{},
	}
	for i := range d.Alphabet {
		d.alphabetKey[i] = fmt.Sprintf("p%d", i)
	}
	for g, start := range s.Goals {
		d.Goals[g] = start
	}
	for _, ss := range s.States {
		d.States[ss.Name] = &DFAState{
			Name:           ss.Name,
			CollapsedMoves: ss.CollapsedMoves,
			Accepting:      ss.Accepting,
			Token:          ss.Token,
			Lookahead:      ss.Lookahead,
		}
	}
	return d, nil
}

