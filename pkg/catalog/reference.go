package catalog

import (
	"github.com/rotisserie/eris"

	"github.com/solarrank/solarrank/pkg/building"
)

// ReferenceSort returns buildings ordered by Less using a plain recursive
// quicksort with a middle pivot. It is an independent implementation used to
// audit the catalog order, not a production path.
func ReferenceSort(buildings []*building.Building) []*building.Building {
	out := append([]*building.Building(nil), buildings...)
	quicksort(out, 0, len(out)-1)
	return out
}

func quicksort(a []*building.Building, lo, hi int) {
	for lo < hi {
		pivot := a[lo+(hi-lo)/2]
		i, j := lo, hi
		for i <= j {
			for Less(a[i], pivot) {
				i++
			}
			for Less(pivot, a[j]) {
				j--
			}
			if i <= j {
				a[i], a[j] = a[j], a[i]
				i++
				j--
			}
		}
		// recurse into the smaller half, loop on the larger
		if j-lo < hi-i {
			quicksort(a, lo, j)
			lo = i
		} else {
			quicksort(a, i, hi)
			hi = j
		}
	}
}

// Verify cross-checks the catalog against ReferenceSort and its rank
// assignment. Any disagreement is ErrOrderMismatch.
func Verify(c *Catalog) error {
	ref := ReferenceSort(c.ranked)
	for i, b := range c.ranked {
		if ref[i].ID != b.ID {
			return eris.Wrapf(ErrOrderMismatch, "position %d: catalog has %s, reference has %s", i+1, b.ID, ref[i].ID)
		}
		if b.Rank != i+1 {
			return eris.Wrapf(ErrOrderMismatch, "building %s at position %d has rank %d", b.ID, i+1, b.Rank)
		}
	}
	return nil
}
