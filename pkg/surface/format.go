package surface

import (
	"fmt"
	"math"
	"strings"

	"github.com/solarrank/solarrank/pkg/building"
	"github.com/solarrank/solarrank/pkg/pipeline"
)

func limit(bs []*building.Building, n int) []*building.Building {
	if n <= 0 || n >= len(bs) {
		return bs
	}
	return bs[:n]
}

func weightSetName(name string) string {
	if name == "" {
		return "custom"
	}
	return name
}

func formatWeights(r *pipeline.Result) string {
	w := r.Weights
	return fmt.Sprintf("energy %.2f, orientation %.2f, shading %.2f, area %.2f",
		w.Energy, w.Orientation, w.Shading, w.Area)
}

func formatPayback(years *float64) string {
	if years == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1fy", *years)
}

// formatThousands rounds v and groups its digits: 1234567.8 -> "1,234,568".
func formatThousands(v float64) string {
	n := int64(math.Round(v))
	sign := ""
	if n < 0 {
		sign, n = "-", -n
	}
	s := fmt.Sprintf("%d", n)
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return sign + b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func shortID(id string) string {
	if id == "" {
		return "?"
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
