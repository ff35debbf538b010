package unicodeset

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Set_MergeIntersectExclude(t *testing.T) {
	testCases := []struct {
		name   string
		a      Set
		b      Set
		merge  Set
		inter  Set
		exclA  Set
	}{
		{
			name:  "disjoint ranges merge without touching",
			a:     Range('a', 'c'),
			b:     Range('x', 'z'),
			merge: Of([]Span{{Lo: 'a', Hi: 'd'}, {Lo: 'x', Hi: '{'}}, false),
			inter: Empty(),
			exclA: Range('a', 'c'),
		},
		{
			name:  "adjacent ranges coalesce on merge",
			a:     Range('a', 'c'),
			b:     Range('d', 'f'),
			merge: Range('a', 'f'),
			inter: Empty(),
			exclA: Range('a', 'c'),
		},
		{
			name:  "overlapping ranges",
			a:     Range('a', 'm'),
			b:     Range('g', 'z'),
			merge: Range('a', 'z'),
			inter: Range('g', 'm'),
			exclA: Range('a', 'f'),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			assert.True(tc.merge.Equal(Merge(tc.a, tc.b)), "merge")
			assert.True(tc.inter.Equal(Intersect(tc.a, tc.b)), "intersect")
			assert.True(tc.exclA.Equal(Exclude(tc.a, tc.b)), "exclude")
		})
	}
}

func Test_Set_EOF_Distinct(t *testing.T) {
	assert := assert.New(t)

	noEOF := Range('a', 'z')
	withEOF := Merge(noEOF, EOF())

	assert.False(noEOF.ContainsEOF())
	assert.True(withEOF.ContainsEOF())
	assert.True(Contains(withEOF, noEOF))
	assert.False(Contains(noEOF, withEOF))
}

func Test_Set_Contains(t *testing.T) {
	assert := assert.New(t)

	whole := Range('a', 'z')
	part := Range('f', 'h')

	assert.True(Contains(whole, part))
	assert.False(Contains(part, whole))
}

// Test_PartitionBuilder_Property fuzzes the partition builder's three
// invariants from spec.md §8 property 1: union preservation, pairwise
// disjointness, and that every input is a union of partition members.
func Test_PartitionBuilder_Property(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 50; trial++ {
		b := NewPartitionBuilder()
		var inputs []Set

		n := 1 + rng.Intn(6)
		for i := 0; i < n; i++ {
			lo := rune(rng.Intn(200))
			hi := lo + rune(rng.Intn(30))
			s := Range(lo, hi)
			if rng.Intn(4) == 0 {
				s = Merge(s, EOF())
			}
			inputs = append(inputs, s)
			b.Add(s)
		}

		partition := b.Build()

		assert.New(t).Condition(func() bool {
			return partitionIsDisjoint(partition)
		}, "partition members must be pairwise disjoint")

		var union Set
		for _, p := range partition {
			union = Merge(union, p)
		}
		var wantUnion Set
		for _, in := range inputs {
			wantUnion = Merge(wantUnion, in)
		}
		assert.New(t).True(union.Equal(wantUnion), "partition union must equal input union")

		for _, in := range inputs {
			assert.New(t).True(isUnionOfSubset(in, partition), "each input must be a union of partition members")
		}
	}
}

func partitionIsDisjoint(partition []Set) bool {
	for i := range partition {
		for j := i + 1; j < len(partition); j++ {
			if Intersect(partition[i], partition[j]).Any() {
				return false
			}
		}
	}
	return true
}

func isUnionOfSubset(in Set, partition []Set) bool {
	var rebuilt Set
	for _, p := range partition {
		if Contains(in, p) {
			rebuilt = Merge(rebuilt, p)
		}
	}
	return rebuilt.Equal(in)
}
