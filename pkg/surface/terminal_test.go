package surface_test

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/solarrank/solarrank/pkg/building"
	"github.com/solarrank/solarrank/pkg/catalog"
	"github.com/solarrank/solarrank/pkg/pipeline"
	"github.com/solarrank/solarrank/pkg/scoring"
	"github.com/solarrank/solarrank/pkg/surface"
)

func square(x, y, side float64) []building.Point {
	return []building.Point{{X: x, Y: y}, {X: x + side, Y: y}, {X: x + side, Y: y + side}, {X: x, Y: y + side}}
}

func sampleResult() *pipeline.Result {
	cat := catalog.New([]*building.Building{
		{ID: "town-hall", Footprint: square(0, 0, 20), Score: 91.5, Category: building.CategoryExcellent,
			RoofArea: 400, EnergyKWh: 68400, Irradiance: 950, AnnualSavings: 17100, PaybackYears: building.Float(4.7)},
		{ID: "library", Footprint: square(30, 0, 10), Score: 64.2, Category: building.CategoryGood,
			RoofArea: 100, EnergyKWh: 14000, Irradiance: 930, ShadingFactor: 0.18, AnnualSavings: 3500, PaybackYears: building.Float(5.7)},
		{ID: "garage", Footprint: square(0, 30, 5), Score: 12.0, Category: building.CategoryUnsuitable,
			RoofArea: 25, Irradiance: 0, ShadingFactor: 0.9},
	})
	return &pipeline.Result{
		RunID:      "7d5e0c1a-0000-4000-8000-000000000001",
		SnapshotID: "delft-2024",
		WeightSet:  scoring.DefaultWeightSet,
		Weights:    scoring.DefaultWeights(),
		Stats: pipeline.RunStats{
			InputCount:    5,
			ScoredCount:   3,
			RejectedCount: 2,
			HeightImputed: 1,
		},
		Summary:   cat.Summary(),
		Buildings: cat.All(),
		Rejections: []building.Rejection{
			{ID: "bowtie", Stage: building.StageGeometry, Reason: "malformed geometry: ring self-intersects"},
			{ID: "ghost", Stage: building.StageEnergy, Reason: "invalid input: irradiance must be >= 0"},
		},
	}
}

func TestTerminalRenderer_BasicOutput(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	r := &surface.TerminalRenderer{}
	var buf bytes.Buffer

	if err := r.Render(&buf, sampleResult()); err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	output := buf.String()

	for _, want := range []string{
		"3 buildings ranked (snapshot delft-2024)",
		"weights default",
		"5 buildings / 3 scored / 2 rejected / 1 imputed heights",
		"Categories:",
		"Ranking:",
		"town-hall",
		"91.5",
		"4.7y",
		"n/a", // garage has no payback
		"Rejected:",
		"bowtie [geometry]",
		"ring self-intersects",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output", want)
		}
	}

	if strings.Index(output, "town-hall") > strings.Index(output, "library") {
		t.Error("expected town-hall listed before library")
	}
}

func TestTerminalRenderer_TopN(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	r := &surface.TerminalRenderer{TopN: 1}
	var buf bytes.Buffer
	if err := r.Render(&buf, sampleResult()); err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "Top 1:") {
		t.Error("expected Top 1 heading")
	}
	if strings.Contains(output, "library") {
		t.Error("expected library to be cut by TopN")
	}
}

func TestTerminalRenderer_Empty(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	r := &surface.TerminalRenderer{}
	var buf bytes.Buffer

	result := &pipeline.Result{SnapshotID: "empty", Summary: catalog.New(nil).Summary()}
	if err := r.Render(&buf, result); err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "No buildings ranked") {
		t.Error("expected 'No buildings ranked' message")
	}
	if strings.Contains(output, "Rejected:") {
		t.Error("expected no rejection section")
	}
}

func TestTerminalRenderer_ManyRejections(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	result := sampleResult()
	result.Rejections = nil
	for i := 0; i < 14; i++ {
		result.Rejections = append(result.Rejections, building.Rejection{
			ID: "bad-" + string(rune('a'+i)), Stage: building.StageImport, Reason: "null geometry",
		})
	}

	var buf bytes.Buffer
	if err := (&surface.TerminalRenderer{}).Render(&buf, result); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	output := buf.String()
	if !strings.Contains(output, "... and 4 more") {
		t.Error("expected rejection overflow line")
	}
	if strings.Contains(output, "bad-n") {
		t.Error("expected the 14th rejection to be elided")
	}
}

func TestTerminalRenderer_ColorRespected(t *testing.T) {
	// t.Setenv restores the variable after the test
	t.Setenv("NO_COLOR", "")
	os.Unsetenv("NO_COLOR")

	r := &surface.TerminalRenderer{}
	var buf bytes.Buffer

	if err := r.Render(&buf, sampleResult()); err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	if !strings.Contains(buf.String(), "\033[") {
		t.Error("expected ANSI escape codes when NO_COLOR is not set")
	}
}

func TestRenderComparison(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	base := catalog.New([]*building.Building{
		{ID: "a", Score: 90, Category: building.CategoryExcellent},
		{ID: "b", Score: 70, Category: building.CategoryGood},
		{ID: "c", Score: 50, Category: building.CategoryModerate},
	})
	head := catalog.New([]*building.Building{
		{ID: "c", Score: 95, Category: building.CategoryExcellent},
		{ID: "a", Score: 85, Category: building.CategoryExcellent},
		{ID: "d", Score: 10, Category: building.CategoryUnsuitable},
	})
	cmp := catalog.Compare(base, head)
	cmp.BaseRunID, cmp.HeadRunID = "base-run-id", "head-run-id"

	var buf bytes.Buffer
	if err := surface.RenderComparison(&buf, cmp, 10); err != nil {
		t.Fatalf("RenderComparison() error: %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"base-run vs head-run",
		"2 moved",
		"▲  2 c",
		"#3 -> #1",
		"(+45.0 points)",
		"▼  1 a",
		"Added: d",
		"Removed: b",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output", want)
		}
	}
}
