package catalog

import (
	"sort"

	"github.com/google/uuid"
)

// RankMove records how one building moved between two catalogs.
type RankMove struct {
	ID         string  `json:"id"`
	BaseRank   int     `json:"base_rank"`
	HeadRank   int     `json:"head_rank"`
	BaseScore  float64 `json:"base_score"`
	HeadScore  float64 `json:"head_score"`
	ScoreDelta float64 `json:"score_delta"`
	// RankDelta is positive when the building moved up.
	RankDelta int `json:"rank_delta"`
}

// Comparison is the difference between two ranked runs over overlapping
// populations, e.g. two weight sets or two snapshots of the same city.
type Comparison struct {
	ID        string       `json:"id"`
	BaseRunID string       `json:"base_run_id,omitempty"`
	HeadRunID string       `json:"head_run_id,omitempty"`
	Added     []string     `json:"added"`
	Removed   []string     `json:"removed"`
	Moves     []RankMove   `json:"moves"` // buildings in both, largest movement first
	Stats     CompareStats `json:"stats"`
}

// CompareStats holds summary counts for a comparison.
type CompareStats struct {
	AddedCount    int `json:"added_count"`
	RemovedCount  int `json:"removed_count"`
	MovedCount    int `json:"moved_count"` // rank changed
	UnmovedCount  int `json:"unmoved_count"`
	CategoryFlips int `json:"category_flips"`
}

// Compare diffs two catalogs by building ID.
func Compare(base, head *Catalog) *Comparison {
	cmp := &Comparison{
		ID:      uuid.New().String(),
		Added:   []string{},
		Removed: []string{},
		Moves:   []RankMove{},
	}

	// ranks come from catalog positions so two catalogs sharing Building
	// values still compare correctly
	for hi, h := range head.ranked {
		bi, ok := base.byID[h.ID]
		if !ok {
			cmp.Added = append(cmp.Added, h.ID)
			continue
		}
		b := base.ranked[bi]
		move := RankMove{
			ID:         h.ID,
			BaseRank:   bi + 1,
			HeadRank:   hi + 1,
			BaseScore:  b.Score,
			HeadScore:  h.Score,
			ScoreDelta: h.Score - b.Score,
			RankDelta:  bi - hi,
		}
		if move.RankDelta != 0 {
			cmp.Stats.MovedCount++
		} else {
			cmp.Stats.UnmovedCount++
		}
		if b.Category != h.Category {
			cmp.Stats.CategoryFlips++
		}
		cmp.Moves = append(cmp.Moves, move)
	}
	for _, b := range base.ranked {
		if _, ok := head.byID[b.ID]; !ok {
			cmp.Removed = append(cmp.Removed, b.ID)
		}
	}

	sort.SliceStable(cmp.Moves, func(i, j int) bool {
		return abs(cmp.Moves[i].RankDelta) > abs(cmp.Moves[j].RankDelta)
	})

	cmp.Stats.AddedCount = len(cmp.Added)
	cmp.Stats.RemovedCount = len(cmp.Removed)
	return cmp
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
