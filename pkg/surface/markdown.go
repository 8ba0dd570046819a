package surface

import (
	"fmt"
	"io"
	"strings"

	"github.com/solarrank/solarrank/pkg/building"
	"github.com/solarrank/solarrank/pkg/pipeline"
	"github.com/solarrank/solarrank/pkg/scoring"
)

// MarkdownRenderer produces a Markdown report of a run, suitable for a
// ticket, a PR comment or a wiki page.
type MarkdownRenderer struct {
	TopN int // 0 = all
}

func (r *MarkdownRenderer) Render(w io.Writer, result *pipeline.Result) error {
	_, err := io.WriteString(w, BuildMarkdownReport(result, r.TopN))
	return err
}

// BuildMarkdownReport renders the run summary, category table, ranking and
// rejections as Markdown.
func BuildMarkdownReport(result *pipeline.Result, topN int) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("## Solarrank: %d buildings ranked\n\n", result.Stats.ScoredCount))
	sb.WriteString(fmt.Sprintf("Snapshot `%s`, run `%s`, weight set **%s** (%s).\n\n",
		result.SnapshotID, result.RunID, weightSetName(result.WeightSet), formatWeights(result)))

	sb.WriteString("### Run Stats\n\n")
	sb.WriteString("| Metric | Value |\n|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Input buildings | %d |\n", result.Stats.InputCount))
	sb.WriteString(fmt.Sprintf("| Scored | %d |\n", result.Stats.ScoredCount))
	sb.WriteString(fmt.Sprintf("| Rejected | %d |\n", result.Stats.RejectedCount))
	sb.WriteString(fmt.Sprintf("| Imputed heights | %d |\n", result.Stats.HeightImputed))
	sb.WriteString(fmt.Sprintf("| Total yield (kWh/yr) | %s |\n", formatThousands(result.Summary.TotalEnergy)))
	sb.WriteString(fmt.Sprintf("| Total savings (/yr) | %s |\n", formatThousands(result.Summary.TotalSavings)))
	sb.WriteString(fmt.Sprintf("| Median payback | %s |\n", formatPayback(result.Summary.MedianPayback)))
	sb.WriteString("\n")

	sb.WriteString("### Categories\n\n")
	sb.WriteString("| Category | Score | Buildings |\n|----------|-------|-----------|\n")
	for _, cc := range result.Summary.Categories {
		lo, hi := scoring.CategoryRange(cc.Category)
		sb.WriteString(fmt.Sprintf("| %s %s | %.0f-%.0f | %d |\n", categoryIcon(cc.Category), cc.Category, lo, hi, cc.Count))
	}
	sb.WriteString("\n")

	top := limit(result.Buildings, topN)
	if len(top) > 0 {
		sb.WriteString("### Ranking\n\n")
		sb.WriteString("| Rank | Building | Score | Category | kWh/yr | Roof (m²) | Shading | Payback |\n")
		sb.WriteString("|------|----------|-------|----------|--------|-----------|---------|---------|\n")
		for _, b := range top {
			sb.WriteString(fmt.Sprintf("| %d | `%s` | %.1f | %s | %.0f | %.1f | %.2f | %s |\n",
				b.Rank, b.ID, b.Score, b.Category, b.EnergyKWh, b.RoofArea, b.ShadingFactor, formatPayback(b.PaybackYears)))
		}
		if len(top) < len(result.Buildings) {
			sb.WriteString(fmt.Sprintf("\n_... and %d more buildings_\n", len(result.Buildings)-len(top)))
		}
		sb.WriteString("\n")
	}

	if len(result.Rejections) > 0 {
		sb.WriteString("<details>\n<summary>Rejected buildings</summary>\n\n")
		sb.WriteString("| Building | Stage | Reason |\n|----------|-------|--------|\n")
		for _, rj := range result.Rejections {
			sb.WriteString(fmt.Sprintf("| `%s` | %s | %s |\n", rj.ID, rj.Stage, strings.ReplaceAll(rj.Reason, "|", "\\|")))
		}
		sb.WriteString("\n</details>\n")
	}

	return sb.String()
}

func categoryIcon(c building.Category) string {
	switch c {
	case building.CategoryExcellent:
		return "🟢"
	case building.CategoryGood:
		return "🟡"
	case building.CategoryModerate:
		return "🟠"
	case building.CategoryPoor:
		return "🔴"
	default:
		return "⚪"
	}
}
