// Package catalog orders scored buildings into a ranked catalog and answers
// priority, threshold and filter queries over it.
package catalog

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/solarrank/solarrank/pkg/building"
)

var (
	// ErrUnsorted is a broken precondition: a search was asked to run over
	// scores that are not in descending order.
	ErrUnsorted = eris.New("scores are not sorted in descending order")

	// ErrEmpty is returned by searches over an empty catalog.
	ErrEmpty = eris.New("catalog is empty")

	// ErrOrderMismatch is returned by Verify when the reference sort
	// disagrees with the production order.
	ErrOrderMismatch = eris.New("reference sort disagrees with catalog order")
)

// Less is the catalog's total order: higher score first, then ID ascending.
func Less(a, b *building.Building) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.ID < b.ID
}

// Catalog is a ranked, read-only view of a scored population.
type Catalog struct {
	ranked []*building.Building
	byID   map[string]int
}

// New sorts buildings by Less and assigns dense ranks 1..N. The input slice
// is not reordered; the Building values are updated in place with their rank.
func New(buildings []*building.Building) *Catalog {
	ranked := append([]*building.Building(nil), buildings...)
	sort.SliceStable(ranked, func(i, j int) bool { return Less(ranked[i], ranked[j]) })

	byID := make(map[string]int, len(ranked))
	for i, b := range ranked {
		b.Rank = i + 1
		byID[b.ID] = i
	}
	return &Catalog{ranked: ranked, byID: byID}
}

// Len returns the number of ranked buildings.
func (c *Catalog) Len() int { return len(c.ranked) }

// All returns every building in rank order.
func (c *Catalog) All() []*building.Building {
	return append([]*building.Building(nil), c.ranked...)
}

// Top returns the n best buildings. n larger than Len returns everything;
// n <= 0 returns nothing.
func (c *Catalog) Top(n int) []*building.Building {
	if n <= 0 {
		return nil
	}
	if n > len(c.ranked) {
		n = len(c.ranked)
	}
	return append([]*building.Building(nil), c.ranked[:n]...)
}

// Get looks a building up by ID.
func (c *Catalog) Get(id string) (*building.Building, bool) {
	i, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	return c.ranked[i], true
}

// At returns the building at rank r (1-based).
func (c *Catalog) At(rank int) (*building.Building, bool) {
	if rank < 1 || rank > len(c.ranked) {
		return nil, false
	}
	return c.ranked[rank-1], true
}

// Scores returns the scores in rank order.
func (c *Catalog) Scores() []float64 {
	out := make([]float64, len(c.ranked))
	for i, b := range c.ranked {
		out[i] = b.Score
	}
	return out
}

// FindByScoreThreshold returns the building whose score is closest to
// target. Ties go to the better-ranked building. The ranked order is sorted
// by construction, so the search runs in O(log N) without rescanning it.
func (c *Catalog) FindByScoreThreshold(target float64) (*building.Building, error) {
	if math.IsNaN(target) {
		return nil, eris.New("target score is NaN")
	}
	if len(c.ranked) == 0 {
		return nil, ErrEmpty
	}
	i, err := closestIndex(len(c.ranked), func(j int) float64 { return c.ranked[j].Score }, target)
	if err != nil {
		return nil, err
	}
	return c.ranked[i], nil
}
