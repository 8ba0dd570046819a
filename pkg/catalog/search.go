package catalog

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
)

// IsSortedDesc reports whether scores never increase.
func IsSortedDesc(scores []float64) bool {
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[i-1] {
			return false
		}
	}
	return true
}

// ClosestScoreIndex binary-searches descending scores for the entry closest
// to target. When two entries are equally close the earlier one wins, and
// within a run of equal scores the first index is returned.
//
// Unsorted input is rejected with ErrUnsorted rather than searched.
func ClosestScoreIndex(scores []float64, target float64) (int, error) {
	if len(scores) == 0 {
		return 0, ErrEmpty
	}
	if !IsSortedDesc(scores) {
		return 0, ErrUnsorted
	}
	return closestIndex(len(scores), func(j int) float64 { return scores[j] }, target)
}

// closestIndex is the search behind ClosestScoreIndex. score(j) must not
// increase with j and n must be positive; neither is checked.
func closestIndex(n int, score func(int) float64, target float64) (int, error) {
	// first position whose score is at or below the target
	i := sort.Search(n, func(j int) bool { return score(j) <= target })

	best := i
	switch {
	case i == n:
		best = n - 1
	case i > 0 && math.Abs(score(i-1)-target) <= math.Abs(score(i)-target):
		best = i - 1
	}

	s := score(best)
	first := sort.Search(n, func(j int) bool { return score(j) <= s })
	if first >= n {
		return 0, eris.Wrapf(ErrUnsorted, "score %g not found by search", s)
	}
	return first, nil
}
