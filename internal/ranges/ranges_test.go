package ranges

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"owl/internal/source"
)

func r(from, until source.Loc) source.Range {
	return source.Range{From: from, Until: until}
}

func randomRanges(rng *rand.Rand, n int) []source.Range {
	out := make([]source.Range, 0, n)
	for range n {
		from := source.Loc(rng.IntN(100))
		size := source.Loc(1 + rng.IntN(20))
		out = append(out, r(from, from+size))
	}
	return out
}

func covers(rs []source.Range, pos source.Loc) bool {
	for _, x := range rs {
		if x.From <= pos && pos < x.Until {
			return true
		}
	}
	return false
}

func TestIsSuperRange(t *testing.T) {
	assert.True(t, IsSuperRange(r(0, 10), r(2, 4)))
	assert.True(t, IsSuperRange(r(0, 10), r(0, 4)))
	assert.True(t, IsSuperRange(r(0, 10), r(3, 10)))
	assert.False(t, IsSuperRange(r(0, 10), r(0, 10)))
	assert.False(t, IsSuperRange(r(2, 4), r(0, 10)))
	assert.False(t, IsSuperRange(r(0, 5), r(3, 8)))
}

func TestCommon(t *testing.T) {
	c, ok := Common(r(0, 10), r(5, 15))
	require.True(t, ok)
	assert.Equal(t, r(5, 10), c)

	_, ok = Common(r(0, 5), r(5, 10))
	assert.False(t, ok, "touching ranges share no character")

	_, ok = Common(r(0, 3), r(7, 9))
	assert.False(t, ok)

	c, ok = Common(r(2, 4), r(0, 10))
	require.True(t, ok)
	assert.Equal(t, r(2, 4), c)
}

func TestCommonIsSymmetric(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for range 500 {
		pair := randomRanges(rng, 2)
		ab, okAB := Common(pair[0], pair[1])
		ba, okBA := Common(pair[1], pair[0])
		require.Equal(t, okAB, okBA, "pair %v", pair)
		require.Equal(t, ab, ba, "pair %v", pair)
	}
}

func TestMerge(t *testing.T) {
	m, ok := Merge(r(0, 5), r(5, 8))
	require.True(t, ok, "adjacent ranges merge")
	assert.Equal(t, r(0, 8), m)

	m, ok = Merge(r(4, 9), r(0, 6))
	require.True(t, ok)
	assert.Equal(t, r(0, 9), m)

	_, ok = Merge(r(0, 4), r(5, 8))
	assert.False(t, ok)
}

func TestCommonAll(t *testing.T) {
	got := CommonAll([]source.Range{r(0, 10), r(5, 15), r(8, 20)})
	assert.Equal(t, []source.Range{r(5, 15)}, got)
	assert.Empty(t, CommonAll([]source.Range{r(0, 2), r(3, 4)}))
}

func TestEliminate(t *testing.T) {
	got := Eliminate([]source.Range{r(10, 12), r(0, 3), r(3, 5), r(11, 15), r(20, 21), r(0, 3)})
	assert.Equal(t, []source.Range{r(0, 5), r(10, 15), r(20, 21)}, got)
	assert.Nil(t, Eliminate(nil))
}

func TestEliminateIsIdempotentAndDisjoint(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	for range 300 {
		xs := randomRanges(rng, rng.IntN(12))
		once := Eliminate(xs)
		require.Equal(t, once, Eliminate(once), "input %v", xs)
		for i := range once {
			for j := i + 1; j < len(once); j++ {
				_, overlap := Merge(once[i], once[j])
				require.False(t, overlap, "%v and %v can still be merged", once[i], once[j])
			}
		}
		for pos := source.Loc(0); pos < 130; pos++ {
			require.Equal(t, covers(xs, pos), covers(once, pos), "coverage of %d changed", pos)
		}
	}
}

func TestExclude(t *testing.T) {
	got := Exclude([]source.Range{r(0, 20)}, []source.Range{r(5, 8), r(12, 14)})
	assert.Equal(t, []source.Range{r(0, 5), r(8, 12), r(14, 20)}, got)

	got = Exclude([]source.Range{r(0, 10)}, []source.Range{r(0, 10)})
	assert.Empty(t, got)

	got = Exclude([]source.Range{r(0, 10)}, []source.Range{r(0, 4)})
	assert.Equal(t, []source.Range{r(4, 10)}, got)

	got = Exclude([]source.Range{r(0, 10), r(30, 40)}, nil)
	assert.Equal(t, []source.Range{r(0, 10), r(30, 40)}, got)
}

func TestExcludeNeverOverlapsExcluded(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	for range 300 {
		xs := randomRanges(rng, rng.IntN(8))
		ys := randomRanges(rng, rng.IntN(8))
		got := Exclude(xs, ys)
		for _, g := range got {
			require.True(t, g.Valid())
			for _, y := range ys {
				_, overlap := Common(g, y)
				require.False(t, overlap, "%v overlaps excluded %v", g, y)
			}
		}
		for pos := source.Loc(0); pos < 130; pos++ {
			want := covers(xs, pos) && !covers(ys, pos)
			require.Equal(t, want, covers(got, pos), "position %d", pos)
		}
	}
}

func TestIntersect(t *testing.T) {
	shared := []source.Range{r(0, 10), r(20, 30)}
	mutable := []source.Range{r(5, 25)}
	assert.Equal(t, []source.Range{r(5, 10), r(20, 25)}, Intersect(shared, mutable))
	assert.Empty(t, Intersect(shared, nil))
}
