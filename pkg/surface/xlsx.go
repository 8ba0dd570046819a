package surface

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/solarrank/solarrank/pkg/pipeline"
)

// Sheet names of the XLSX export.
const (
	SheetRanking    = "Ranking"
	SheetSummary    = "Summary"
	SheetRejections = "Rejections"
)

var rankingHeader = []string{
	"Rank", "Building ID", "Score", "Category", "Energy (kWh/yr)", "Roof area (m²)",
	"Orientation (deg)", "Roof slope (deg)", "Shading", "Irradiance (kWh/m²/yr)", "Annual savings",
	"Payback (years)", "ROI (%)",
}

// XLSXRenderer writes a workbook with the full ranking, the run summary and
// the rejected buildings on separate sheets.
type XLSXRenderer struct{}

func (r *XLSXRenderer) Render(w io.Writer, result *pipeline.Result) error {
	f, err := BuildWorkbook(result)
	if err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "writing workbook")
	}
	return nil
}

// BuildWorkbook assembles the workbook for a run.
func BuildWorkbook(result *pipeline.Result) (*xlsx.File, error) {
	f := xlsx.NewFile()

	ranking, err := f.AddSheet(SheetRanking)
	if err != nil {
		return nil, eris.Wrap(err, "adding ranking sheet")
	}
	addStringRow(ranking, rankingHeader...)
	for _, b := range result.Buildings {
		row := ranking.AddRow()
		row.AddCell().SetInt(b.Rank)
		row.AddCell().SetString(b.ID)
		row.AddCell().SetFloat(b.Score)
		row.AddCell().SetString(string(b.Category))
		row.AddCell().SetFloat(b.EnergyKWh)
		row.AddCell().SetFloat(b.RoofArea)
		row.AddCell().SetFloat(b.OrientationDeg)
		row.AddCell().SetFloat(b.RoofSlopeDeg)
		row.AddCell().SetFloat(b.ShadingFactor)
		row.AddCell().SetFloat(b.Irradiance)
		row.AddCell().SetFloat(b.AnnualSavings)
		addOptionalFloat(row, b.PaybackYears)
		addOptionalFloat(row, b.ROIPercent)
	}

	summary, err := f.AddSheet(SheetSummary)
	if err != nil {
		return nil, eris.Wrap(err, "adding summary sheet")
	}
	addStringRow(summary, "Field", "Value")
	addStringRow(summary, "Run ID", result.RunID)
	addStringRow(summary, "Snapshot ID", result.SnapshotID)
	addStringRow(summary, "Weight set", weightSetName(result.WeightSet))
	addStringRow(summary, "Weights", formatWeights(result))
	addIntRow(summary, "Input buildings", result.Stats.InputCount)
	addIntRow(summary, "Scored", result.Stats.ScoredCount)
	addIntRow(summary, "Rejected", result.Stats.RejectedCount)
	addIntRow(summary, "Imputed heights", result.Stats.HeightImputed)
	addFloatRow(summary, "Total energy (kWh/yr)", result.Summary.TotalEnergy)
	addFloatRow(summary, "Total roof area (m²)", result.Summary.TotalRoofArea)
	addFloatRow(summary, "Total annual savings", result.Summary.TotalSavings)
	addFloatRow(summary, "Mean score", result.Summary.MeanScore)
	addFloatRow(summary, "Median score", result.Summary.MedianScore)
	for _, cc := range result.Summary.Categories {
		addIntRow(summary, string(cc.Category), cc.Count)
	}

	rejections, err := f.AddSheet(SheetRejections)
	if err != nil {
		return nil, eris.Wrap(err, "adding rejections sheet")
	}
	addStringRow(rejections, "Building ID", "Stage", "Reason")
	for _, rj := range result.Rejections {
		addStringRow(rejections, rj.ID, rj.Stage, rj.Reason)
	}

	return f, nil
}

// addOptionalFloat leaves the cell empty when v is nil.
func addOptionalFloat(row *xlsx.Row, v *float64) {
	cell := row.AddCell()
	if v != nil {
		cell.SetFloat(*v)
	}
}

func addStringRow(sheet *xlsx.Sheet, values ...string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func addIntRow(sheet *xlsx.Sheet, label string, v int) {
	row := sheet.AddRow()
	row.AddCell().SetString(label)
	row.AddCell().SetInt(v)
}

func addFloatRow(sheet *xlsx.Sheet, label string, v float64) {
	row := sheet.AddRow()
	row.AddCell().SetString(label)
	row.AddCell().SetFloat(v)
}
