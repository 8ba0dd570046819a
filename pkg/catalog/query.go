package catalog

import (
	"sort"

	"github.com/solarrank/solarrank/pkg/building"
)

// DefaultLimit caps a query page when no limit is given.
const DefaultLimit = 100

// Filter selects buildings from a catalog. Zero values disable a criterion.
type Filter struct {
	MinScore  *float64
	MaxScore  *float64
	MinArea   float64
	MinEnergy float64
	Category  building.Category
	Limit     int
	Offset    int
}

// Page is one window of a filtered query.
type Page struct {
	Total     int                  `json:"total"` // matches before paging
	Offset    int                  `json:"offset"`
	Limit     int                  `json:"limit"`
	Buildings []*building.Building `json:"buildings"`
}

// Match reports whether b passes every criterion of f.
func (f Filter) Match(b *building.Building) bool {
	switch {
	case f.MinScore != nil && b.Score < *f.MinScore:
		return false
	case f.MaxScore != nil && b.Score > *f.MaxScore:
		return false
	case b.RoofArea < f.MinArea:
		return false
	case b.EnergyKWh < f.MinEnergy:
		return false
	case f.Category != "" && b.Category != f.Category:
		return false
	}
	return true
}

// Query returns the matching buildings in rank order, windowed by Offset and
// Limit.
func (c *Catalog) Query(f Filter) Page {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	page := Page{Offset: offset, Limit: limit, Buildings: []*building.Building{}}
	for _, b := range c.ranked {
		if !f.Match(b) {
			continue
		}
		if page.Total >= offset && len(page.Buildings) < limit {
			page.Buildings = append(page.Buildings, b)
		}
		page.Total++
	}
	return page
}

// CategoryCount is the number of buildings in one category.
type CategoryCount struct {
	Category building.Category `json:"category"`
	Count    int               `json:"count"`
}

// Summary aggregates a catalog for reporting.
type Summary struct {
	Count            int             `json:"count"`
	Categories       []CategoryCount `json:"categories"` // best to worst, zero counts included
	TotalEnergy      float64         `json:"total_energy_kwh"`
	TotalRoofArea    float64         `json:"total_roof_area"`
	TotalSavings     float64         `json:"total_annual_savings"`
	MeanScore        float64         `json:"mean_score"`
	MedianScore      float64         `json:"median_score"`
	MeanShading      float64         `json:"mean_shading"`
	MedianPayback    *float64        `json:"median_payback_years,omitempty"`
	UndefinedPayback int             `json:"undefined_payback"`
}

// Summary computes aggregate statistics over the whole catalog.
func (c *Catalog) Summary() Summary {
	s := Summary{Count: len(c.ranked)}

	counts := make(map[building.Category]int)
	var paybacks []float64
	var scoreSum, shadeSum float64
	for _, b := range c.ranked {
		counts[b.Category]++
		s.TotalEnergy += b.EnergyKWh
		s.TotalRoofArea += b.RoofArea
		s.TotalSavings += b.AnnualSavings
		scoreSum += b.Score
		shadeSum += b.ShadingFactor
		if b.PaybackYears != nil {
			paybacks = append(paybacks, *b.PaybackYears)
		} else {
			s.UndefinedPayback++
		}
	}
	for _, cat := range building.Categories {
		s.Categories = append(s.Categories, CategoryCount{Category: cat, Count: counts[cat]})
	}

	if s.Count == 0 {
		return s
	}
	s.MeanScore = scoreSum / float64(s.Count)
	s.MeanShading = shadeSum / float64(s.Count)
	// ranked is score-descending, so the median needs no extra sort
	s.MedianScore = median(c.Scores())
	if len(paybacks) > 0 {
		sort.Float64s(paybacks)
		m := median(paybacks)
		s.MedianPayback = &m
	}
	return s
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
