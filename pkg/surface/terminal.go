package surface

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/solarrank/solarrank/pkg/building"
	"github.com/solarrank/solarrank/pkg/catalog"
	"github.com/solarrank/solarrank/pkg/pipeline"
)

// TerminalRenderer renders a run as colored terminal output.
type TerminalRenderer struct {
	TopN int // 0 = all
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

// maxRejections caps the rejection listing; the rest is summarized.
const maxRejections = 10

func categoryColor(c building.Category) string {
	if noColor() {
		return ""
	}
	switch c {
	case building.CategoryExcellent, building.CategoryGood:
		return colorGreen
	case building.CategoryModerate:
		return colorYellow
	case building.CategoryPoor, building.CategoryUnsuitable:
		return colorRed
	default:
		return ""
	}
}

func noColor() bool {
	_, ok := os.LookupEnv("NO_COLOR")
	return ok
}

func bold(s string) string {
	if noColor() {
		return s
	}
	return colorBold + s + colorReset
}

func dim(s string) string {
	if noColor() {
		return s
	}
	return colorDim + s + colorReset
}

func colored(s, color string) string {
	if noColor() || color == "" {
		return s
	}
	return color + s + colorReset
}

func (r *TerminalRenderer) Render(w io.Writer, result *pipeline.Result) error {
	fmt.Fprintf(w, "%s\n\n", bold(fmt.Sprintf("Solarrank: %d buildings ranked (snapshot %s)",
		result.Stats.ScoredCount, result.SnapshotID)))

	fmt.Fprintf(w, "Run %s  weights %s (%s)\n", result.RunID, weightSetName(result.WeightSet), formatWeights(result))
	fmt.Fprintf(w, "Input: %d buildings / %d scored / %d rejected / %d imputed heights\n\n",
		result.Stats.InputCount, result.Stats.ScoredCount,
		result.Stats.RejectedCount, result.Stats.HeightImputed)

	s := result.Summary
	if s.Count > 0 {
		fmt.Fprintln(w, "Categories:")
		for _, cc := range s.Categories {
			label := fmt.Sprintf("%-10s", cc.Category)
			fmt.Fprintf(w, "  %s %5d  %s\n",
				colored(label, categoryColor(cc.Category)), cc.Count, dim(bar(cc.Count, s.Count, 30)))
		}
		fmt.Fprintln(w)

		fmt.Fprintf(w, "Total yield %s kWh/yr over %s m² of roof, savings %s/yr\n",
			formatThousands(s.TotalEnergy), formatThousands(s.TotalRoofArea), formatThousands(s.TotalSavings))
		fmt.Fprintf(w, "Mean score %.1f, median %.1f, mean shading %.2f, median payback %s\n\n",
			s.MeanScore, s.MedianScore, s.MeanShading, formatPayback(s.MedianPayback))
	}

	top := limit(result.Buildings, r.TopN)
	if len(top) == 0 {
		fmt.Fprintln(w, "No buildings ranked.")
		fmt.Fprintln(w)
	} else {
		if len(top) < len(result.Buildings) {
			fmt.Fprintf(w, "Top %d:\n", len(top))
		} else {
			fmt.Fprintln(w, "Ranking:")
		}
		fmt.Fprintf(w, "  %s\n", dim(fmt.Sprintf("%5s  %-20s %6s  %-10s %10s %8s %7s %8s",
			"rank", "id", "score", "category", "kWh/yr", "roof m²", "shade", "payback")))
		for _, b := range top {
			cat := fmt.Sprintf("%-10s", b.Category)
			fmt.Fprintf(w, "  %5d  %-20s %6.1f  %s %10.0f %8.1f %7.2f %8s\n",
				b.Rank, truncate(b.ID, 20), b.Score, colored(cat, categoryColor(b.Category)),
				b.EnergyKWh, b.RoofArea, b.ShadingFactor, formatPayback(b.PaybackYears))
		}
		fmt.Fprintln(w)
	}

	if len(result.Rejections) > 0 {
		fmt.Fprintln(w, "Rejected:")
		n := min(len(result.Rejections), maxRejections)
		for _, rj := range result.Rejections[:n] {
			fmt.Fprintf(w, "  %s %s [%s]\n", colored("●", colorRed), bold(rj.ID), rj.Stage)
			for _, line := range wrapText(rj.Reason, 70) {
				fmt.Fprintf(w, "    %s\n", dim(line))
			}
		}
		if len(result.Rejections) > maxRejections {
			fmt.Fprintf(w, "  %s\n", dim(fmt.Sprintf("... and %d more", len(result.Rejections)-maxRejections)))
		}
		fmt.Fprintln(w)
	}

	return nil
}

// RenderComparison writes a rank comparison between two runs, listing at most
// maxMoves of the largest movements.
func RenderComparison(w io.Writer, cmp *catalog.Comparison, maxMoves int) error {
	fmt.Fprintf(w, "%s\n\n", bold(fmt.Sprintf("Solarrank: %s vs %s", shortID(cmp.BaseRunID), shortID(cmp.HeadRunID))))
	fmt.Fprintf(w, "Buildings: %d moved / %d unmoved / %d added / %d removed / %d changed category\n\n",
		cmp.Stats.MovedCount, cmp.Stats.UnmovedCount, cmp.Stats.AddedCount,
		cmp.Stats.RemovedCount, cmp.Stats.CategoryFlips)

	moved := 0
	for _, m := range cmp.Moves {
		if m.RankDelta == 0 {
			continue
		}
		if moved == 0 {
			fmt.Fprintln(w, "Largest moves:")
		}
		if maxMoves > 0 && moved == maxMoves {
			fmt.Fprintf(w, "  %s\n", dim(fmt.Sprintf("... and %d more", cmp.Stats.MovedCount-maxMoves)))
			break
		}
		moved++

		arrow, color := "▲", colorGreen
		if m.RankDelta < 0 {
			arrow, color = "▼", colorRed
		}
		fmt.Fprintf(w, "  %s %-20s #%d -> #%d  (%+.1f points)\n",
			colored(fmt.Sprintf("%s%3d", arrow, abs(m.RankDelta)), color),
			truncate(m.ID, 20), m.BaseRank, m.HeadRank, m.ScoreDelta)
	}
	if moved == 0 {
		fmt.Fprintln(w, "No rank changes.")
	}
	fmt.Fprintln(w)

	if len(cmp.Added) > 0 {
		fmt.Fprintf(w, "Added: %s\n", strings.Join(cmp.Added, ", "))
	}
	if len(cmp.Removed) > 0 {
		fmt.Fprintf(w, "Removed: %s\n", strings.Join(cmp.Removed, ", "))
	}
	return nil
}

// bar draws a proportional histogram bar.
func bar(n, total, width int) string {
	if total == 0 || n == 0 {
		return ""
	}
	cells := n * width / total
	if cells == 0 {
		cells = 1
	}
	return strings.Repeat("█", cells)
}

// wrapText wraps a string at the given width, returning lines.
func wrapText(s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]

	for _, word := range words[1:] {
		if len(current)+1+len(word) > width {
			lines = append(lines, current)
			current = word
		} else {
			current += " " + word
		}
	}
	lines = append(lines, current)
	return lines
}
