// Package unicodeset implements the exact-set algebra over Unicode code
// points (plus a sentinel EOF value) that the lexical grammar compiler uses
// as its transition alphabet. A Set is a totally ordered, pairwise-disjoint,
// non-adjacent sequence of half-open code point spans, with a separate bit
// tracking whether the set contains the EOF sentinel.
//
// This is the fine-grained analog of ictiobus's string-keyed transition
// labels: where an ictiobus-style package labels an FATransition with a bare
// string, a lexical grammar compiler needs a real interval-set algebra
// because token alternatives are specified as Unicode ranges, negations, and
// named built-in classes, not single characters.
package unicodeset

import (
	"fmt"
	"sort"
	"strings"
)

// MaxCodePoint is the largest valid Unicode scalar value.
const MaxCodePoint = 0x10FFFF

// Span is a half-open code point range [Lo, Hi).
type Span struct {
	Lo rune
	Hi rune
}

func (s Span) String() string {
	if s.Hi-s.Lo == 1 {
		return fmt.Sprintf("U+%04X", s.Lo)
	}
	return fmt.Sprintf("U+%04X..U+%04X", s.Lo, s.Hi-1)
}

func (s Span) Empty() bool {
	return s.Hi <= s.Lo
}

func (s Span) contains(r rune) bool {
	return r >= s.Lo && r < s.Hi
}

// overlapsOrAdjacent returns whether s and o share at least one code point, or are
// adjacent (Hi of one equals Lo of the other) — adjacency matters because
// Set's invariant forbids two spans that could be merged into one.
func (s Span) overlapsOrAdjacent(o Span) bool {
	return s.Lo <= o.Hi && o.Lo <= s.Hi
}

// Set is an immutable-by-convention value type representing a union of
// disjoint code point spans plus an EOF membership flag. The zero value is
// the empty set. Callers should treat Sets as values and use the
// constructors/combinators below rather than mutating Spans directly, since
// every combinator re-establishes the sorted/disjoint/non-adjacent
// invariant.
type Set struct {
	spans     []Span
	containsE bool
}

// Empty returns the empty set (contains neither code points nor EOF).
func Empty() Set {
	return Set{}
}

// EOF returns the set containing only the EOF sentinel.
func EOF() Set {
	return Set{containsE: true}
}

// AnyCodePoint returns the set containing every Unicode scalar value, but
// not the EOF sentinel — the base set a negated Lookahead term subtracts
// its operand from (spec.md §4.2).
func AnyCodePoint() Set {
	return Range(0, MaxCodePoint)
}

// Single returns the set containing exactly one code point.
func Single(r rune) Set {
	return Set{spans: []Span{{Lo: r, Hi: r + 1}}}
}

// Range returns the set containing the inclusive code point range [lo, hi].
func Range(lo, hi rune) Set {
	if hi < lo {
		return Empty()
	}
	return Set{spans: []Span{{Lo: lo, Hi: hi + 1}}}
}

// Of builds a set from a list of half-open [Lo, Hi) Spans and an EOF flag,
// normalizing them into the sorted, disjoint, non-adjacent form.
func Of(spans []Span, withEOF bool) Set {
	s := Set{containsE: withEOF}
	for _, sp := range spans {
		s = s.unionSpan(sp)
	}
	return s
}

// IsEmpty reports whether the set contains no code points and not EOF.
func (s Set) IsEmpty() bool {
	return len(s.spans) == 0 && !s.containsE
}

// Any is an alias for !IsEmpty, matching the Contract naming in spec.md
// §4.1 ("any()").
func (s Set) Any() bool {
	return !s.IsEmpty()
}

// ContainsEOF reports whether EOF is a member of the set.
func (s Set) ContainsEOF() bool {
	return s.containsE
}

// ContainsRune reports whether r is a member of the set.
func (s Set) ContainsRune(r rune) bool {
	i := sort.Search(len(s.spans), func(i int) bool { return s.spans[i].Hi > r })
	return i < len(s.spans) && s.spans[i].contains(r)
}

// Spans returns a copy of the set's underlying sorted, disjoint span list.
func (s Set) Spans() []Span {
	out := make([]Span, len(s.spans))
	copy(out, s.spans)
	return out
}

func (s Set) unionSpan(sp Span) Set {
	if sp.Empty() {
		return s
	}

	out := make([]Span, 0, len(s.spans)+1)
	inserted := false
	cur := sp

	for _, existing := range s.spans {
		if !inserted && cur.overlapsOrAdjacent(existing) {
			// merge cur into existing
			if existing.Lo < cur.Lo {
				cur.Lo = existing.Lo
			}
			if existing.Hi > cur.Hi {
				cur.Hi = existing.Hi
			}
			continue
		}
		if !inserted && cur.Hi < existing.Lo {
			out = append(out, cur)
			inserted = true
		}
		out = append(out, existing)
	}
	if !inserted {
		out = append(out, cur)
	}

	return Set{spans: coalesce(out), containsE: s.containsE}
}

// coalesce sorts spans and merges any that overlap or are adjacent. Used
// after unionSpan's single-span insert and by Merge, which must handle two
// already-normalized operands whose union may still need re-coalescing at
// the boundary between them.
func coalesce(spans []Span) []Span {
	if len(spans) < 2 {
		return spans
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].Lo < spans[j].Lo })

	out := make([]Span, 0, len(spans))
	cur := spans[0]
	for _, next := range spans[1:] {
		if next.Lo <= cur.Hi {
			if next.Hi > cur.Hi {
				cur.Hi = next.Hi
			}
			continue
		}
		out = append(out, cur)
		cur = next
	}
	out = append(out, cur)
	return out
}

// Merge returns the union of a and b.
func Merge(a, b Set) Set {
	all := append(append([]Span{}, a.spans...), b.spans...)
	return Set{spans: coalesce(all), containsE: a.containsE || b.containsE}
}

// Intersect returns the intersection of a and b. The EOF bit is ANDed, per
// spec.md §4.1.
func Intersect(a, b Set) Set {
	var out []Span

	i, j := 0, 0
	for i < len(a.spans) && j < len(b.spans) {
		lo := a.spans[i].Lo
		if b.spans[j].Lo > lo {
			lo = b.spans[j].Lo
		}
		hi := a.spans[i].Hi
		if b.spans[j].Hi < hi {
			hi = b.spans[j].Hi
		}
		if lo < hi {
			out = append(out, Span{Lo: lo, Hi: hi})
		}
		if a.spans[i].Hi < b.spans[j].Hi {
			i++
		} else {
			j++
		}
	}

	return Set{spans: coalesce(out), containsE: a.containsE && b.containsE}
}

// ExcludeSpan removes a single span sp from a — the fast path mentioned in
// spec.md §4.1 for when the excluded region is already known to be one
// contiguous span (e.g. removing a single built-in pattern from a wider
// class) rather than an arbitrary Set.
func (a Set) ExcludeSpan(sp Span) Set {
	if sp.Empty() {
		return a
	}

	var out []Span
	for _, s := range a.spans {
		if sp.Hi <= s.Lo || sp.Lo >= s.Hi {
			out = append(out, s)
			continue
		}
		if sp.Lo > s.Lo {
			out = append(out, Span{Lo: s.Lo, Hi: sp.Lo})
		}
		if sp.Hi < s.Hi {
			out = append(out, Span{Lo: sp.Hi, Hi: s.Hi})
		}
	}
	return Set{spans: out, containsE: a.containsE}
}

// Exclude returns a ∖ b (every element of a that is not in b).
func Exclude(a, b Set) Set {
	out := a
	for _, sp := range b.spans {
		out = out.ExcludeSpan(sp)
	}
	if b.containsE {
		out.containsE = false
	}
	return out
}

// Contains reports whether b is a subset of a (b ⊆ a).
func Contains(a, b Set) bool {
	if b.containsE && !a.containsE {
		return false
	}
	return Intersect(a, b).equalSpans(b)
}

func (s Set) equalSpans(o Set) bool {
	if len(s.spans) != len(o.spans) {
		return false
	}
	for i := range s.spans {
		if s.spans[i] != o.spans[i] {
			return false
		}
	}
	return true
}

// Equal reports whether a and b contain exactly the same elements.
func (a Set) Equal(b Set) bool {
	return a.containsE == b.containsE && a.equalSpans(b)
}

func (s Set) String() string {
	if s.IsEmpty() {
		return "{}"
	}
	parts := make([]string, 0, len(s.spans)+1)
	for _, sp := range s.spans {
		parts = append(parts, sp.String())
	}
	if s.containsE {
		parts = append(parts, "EOF")
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
