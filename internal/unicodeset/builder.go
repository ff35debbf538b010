package unicodeset

import (
	"sort"

	"github.com/emirpasic/gods/sets/treeset"
	"github.com/emirpasic/gods/utils"
)

// PartitionBuilder computes a partition of the union of a collection of
// UnicodeSets such that every input set is a disjoint union of partition
// members (spec.md §4.1). Only adjacent elementary intervals covered by the
// same inputs are merged into one member; intervals with the same coverage
// that are not adjacent stay separate members, so the partition is not
// always the coarsest one. The resulting partition is the concrete
// transition alphabet fed to dfagen's subset construction: an NFA transition
// labelled with one of the input sets is replaced by one transition per
// partition member contained in it.
//
// The working set of distinct boundary points is kept in a treeset.Set
// ordered by a rune comparator, mirroring how npillmayer/gorgo keeps its
// LR closure worklists in gods containers rather than plain slices/maps.
type PartitionBuilder struct {
	boundaries *treeset.Set
	inputs     []Set
	eofInputs  []int
}

func runeComparator(a, b interface{}) int {
	return utils.IntComparator(int(a.(rune)), int(b.(rune)))
}

// NewPartitionBuilder creates an empty builder.
func NewPartitionBuilder() *PartitionBuilder {
	return &PartitionBuilder{boundaries: treeset.NewWith(runeComparator)}
}

// Add registers one input set (typically, the UnicodeSet label of a single
// NFA transition) to be accounted for in the eventual partition.
func (b *PartitionBuilder) Add(s Set) {
	idx := len(b.inputs)
	b.inputs = append(b.inputs, s)
	for _, sp := range s.spans {
		b.boundaries.Add(sp.Lo)
		b.boundaries.Add(sp.Hi)
	}
	if s.containsE {
		b.eofInputs = append(b.eofInputs, idx)
	}
}

// Build computes the partition. Each returned Set is non-empty and pairwise
// disjoint from every other returned Set, their union equals the union of
// every set added via Add, and every added set is exactly the union of some
// subset of the returned partition members — the defining property checked
// by TestableProperty 1 in spec.md §8.
func (b *PartitionBuilder) Build() []Set {
	var partition []Set

	if len(b.eofInputs) > 0 {
		partition = append(partition, EOF())
	}

	points := make([]rune, 0, b.boundaries.Size())
	for _, v := range b.boundaries.Values() {
		points = append(points, v.(rune))
	}
	sort.Slice(points, func(i, j int) bool { return points[i] < points[j] })

	if len(points) < 2 {
		return partition
	}

	// Elementary intervals are the gaps between consecutive boundary
	// points. Group runs of consecutive elementary intervals that are
	// covered by the exact same subset of inputs ("signature") into a
	// single partition member — this is what keeps the partition coarse
	// rather than one member per elementary interval.
	var curSig string
	var curLo, curHi rune
	haveCur := false

	for i := 0; i+1 < len(points); i++ {
		lo, hi := points[i], points[i+1]
		if lo >= hi {
			continue
		}
		sig := b.signature(lo)
		if sig == "" {
			// covered by nothing; flush any pending run and skip.
			if haveCur {
				partition = append(partition, Range(curLo, curHi-1))
				haveCur = false
			}
			continue
		}
		if haveCur && sig == curSig && curHi == lo {
			curHi = hi
			continue
		}
		if haveCur {
			partition = append(partition, Range(curLo, curHi-1))
		}
		curSig, curLo, curHi, haveCur = sig, lo, hi, true
	}
	if haveCur {
		partition = append(partition, Range(curLo, curHi-1))
	}

	return partition
}

// signature returns a string uniquely identifying the subset of inputs that
// contain code point r, used as the grouping key above. An elementary
// interval's signature is constant across the whole interval by
// construction (no input set's boundary falls strictly inside it), so
// sampling one representative point per interval is sufficient.
func (b *PartitionBuilder) signature(r rune) string {
	buf := make([]byte, len(b.inputs))
	any := false
	for i, s := range b.inputs {
		if s.ContainsRune(r) {
			buf[i] = 1
			any = true
		}
	}
	if !any {
		return ""
	}
	return string(buf)
}
