package catalog

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solarrank/solarrank/pkg/building"
)

func scored(pairs ...any) []*building.Building {
	var out []*building.Building
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, &building.Building{ID: pairs[i].(string), Score: pairs[i+1].(float64)})
	}
	return out
}

func idsOf(bs []*building.Building) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.ID
	}
	return out
}

func TestNew_TotalOrderAndDenseRanks(t *testing.T) {
	c := New(scored("d", 50.0, "b", 70.0, "a", 50.0, "c", 90.0, "e", 70.0))

	assert.Equal(t, []string{"c", "b", "e", "a", "d"}, idsOf(c.All()))
	for i, b := range c.All() {
		assert.Equal(t, i+1, b.Rank)
	}
	assert.NoError(t, Verify(c))
}

func TestNew_Empty(t *testing.T) {
	c := New(nil)
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Top(10))

	_, err := c.FindByScoreThreshold(50)
	assert.True(t, eris.Is(err, ErrEmpty))
	assert.NoError(t, Verify(c))
}

func TestNew_DoesNotReorderInput(t *testing.T) {
	in := scored("a", 10.0, "b", 90.0)
	New(in)
	assert.Equal(t, []string{"a", "b"}, idsOf(in))
}

func TestTop(t *testing.T) {
	c := New(scored("a", 10.0, "b", 90.0, "c", 50.0))
	assert.Equal(t, []string{"b", "c"}, idsOf(c.Top(2)))
	assert.Equal(t, []string{"b", "c", "a"}, idsOf(c.Top(10)))
	assert.Empty(t, c.Top(0))
}

func TestGetAndAt(t *testing.T) {
	c := New(scored("a", 10.0, "b", 90.0))
	b, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, b.Rank)

	_, ok = c.Get("zz")
	assert.False(t, ok)

	b, ok = c.At(1)
	require.True(t, ok)
	assert.Equal(t, "b", b.ID)
	_, ok = c.At(3)
	assert.False(t, ok)
}

func TestClosestScoreIndex(t *testing.T) {
	scores := []float64{95, 80, 60, 40, 10}
	tests := []struct {
		target float64
		want   int
	}{
		{58, 2},  // closest is 60
		{50, 2},  // equidistant between 60 and 40, earlier wins
		{60, 2},  // exact
		{100, 0}, // above the best
		{0, 4},   // below the worst
		{87.5, 0},
		{87, 1},
		{25, 3}, // equidistant between 40 and 10
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.target), func(t *testing.T) {
			got, err := ClosestScoreIndex(scores, tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClosestScoreIndex_TiedRunReturnsFirst(t *testing.T) {
	scores := []float64{90, 70, 70, 70, 20}
	got, err := ClosestScoreIndex(scores, 65)
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	got, err = ClosestScoreIndex(scores, 75)
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}

func TestClosestScoreIndex_Preconditions(t *testing.T) {
	_, err := ClosestScoreIndex(nil, 10)
	assert.True(t, eris.Is(err, ErrEmpty))

	_, err = ClosestScoreIndex([]float64{10, 40, 20}, 30)
	assert.True(t, eris.Is(err, ErrUnsorted))
}

func TestFindByScoreThreshold(t *testing.T) {
	c := New(scored("a", 95.0, "b", 80.0, "c", 60.0, "d", 40.0, "e", 10.0))

	b, err := c.FindByScoreThreshold(58)
	require.NoError(t, err)
	assert.Equal(t, "c", b.ID)
	assert.Equal(t, 3, b.Rank)

	b, err = c.FindByScoreThreshold(50)
	require.NoError(t, err)
	assert.Equal(t, "c", b.ID)
}

func TestFindByScoreThreshold_TrustsRankedOrder(t *testing.T) {
	c := New(scored("a", 95.0, "b", 80.0, "c", 60.0, "d", 40.0))
	// break the order behind the catalog's back: the free function notices,
	// the catalog method does not rescan what New already sorted
	c.ranked[3].Score = 99
	_, err := ClosestScoreIndex(c.Scores(), 60)
	assert.True(t, eris.Is(err, ErrUnsorted))

	b, err := c.FindByScoreThreshold(60)
	require.NoError(t, err)
	assert.Equal(t, "c", b.ID)
}

func TestClosestIndexIsLogarithmic(t *testing.T) {
	const n = 1 << 16
	calls := 0
	score := func(j int) float64 {
		calls++
		return float64(n - j)
	}
	got, err := closestIndex(n, score, 1234.4)
	require.NoError(t, err)
	assert.Equal(t, n-1234, got)
	assert.LessOrEqual(t, calls, 3*17, "search reads O(log N) scores")
}

func TestReferenceSortAgrees(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var pop []*building.Building
	for _, i := range rng.Perm(500) {
		// coarse scores force many ties
		pop = append(pop, &building.Building{
			ID:    fmt.Sprintf("b%04d", i),
			Score: float64(rng.Intn(20)) * 5,
		})
	}
	c := New(pop)
	assert.Equal(t, idsOf(c.All()), idsOf(ReferenceSort(pop)))
	assert.NoError(t, Verify(c))
}

func TestVerifyDetectsMismatch(t *testing.T) {
	c := New(scored("a", 10.0, "b", 90.0, "c", 50.0))
	c.ranked[0], c.ranked[1] = c.ranked[1], c.ranked[0]

	err := Verify(c)
	assert.True(t, eris.Is(err, ErrOrderMismatch))
}

func TestDeterministicAcrossRuns(t *testing.T) {
	build := func() []*building.Building {
		return scored("x", 42.0, "y", 42.0, "z", 99.0, "w", 0.0)
	}
	first := idsOf(New(build()).All())
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, idsOf(New(build()).All()))
	}
}
