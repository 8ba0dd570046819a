package surface_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/solarrank/solarrank/pkg/pipeline"
	"github.com/solarrank/solarrank/pkg/surface"
)

func TestForFormat(t *testing.T) {
	tests := []struct {
		format string
		want   surface.Renderer
	}{
		{"", &surface.TerminalRenderer{TopN: 5}},
		{"text", &surface.TerminalRenderer{TopN: 5}},
		{"JSON", &surface.JSONRenderer{}},
		{"geojson", &surface.GeoJSONRenderer{TopN: 5}},
		{"md", &surface.MarkdownRenderer{TopN: 5}},
		{"xlsx", &surface.XLSXRenderer{}},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			r, err := surface.ForFormat(tt.format, 5)
			require.NoError(t, err)
			assert.Equal(t, tt.want, r)
		})
	}

	_, err := surface.ForFormat("pdf", 0)
	assert.Error(t, err)
}

func TestJSONRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&surface.JSONRenderer{}).Render(&buf, sampleResult()))

	got, err := pipeline.UnmarshalResult(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "delft-2024", got.SnapshotID)
	require.Len(t, got.Buildings, 3)
	assert.Equal(t, "town-hall", got.Buildings[0].ID)
	assert.Nil(t, got.Buildings[2].PaybackYears)
}

func TestGeoJSONRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&surface.GeoJSONRenderer{TopN: 2}).Render(&buf, sampleResult()))

	var doc struct {
		Type     string `json:"type"`
		Features []struct {
			ID       string         `json:"id"`
			Geometry map[string]any `json:"geometry"`
			Props    map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "FeatureCollection", doc.Type)
	require.Len(t, doc.Features, 2)
	assert.Equal(t, "town-hall", doc.Features[0].ID)
	assert.Equal(t, "Polygon", doc.Features[0].Geometry["type"])
	assert.EqualValues(t, 1, doc.Features[0].Props["rank"])
	assert.Equal(t, "Excellent", doc.Features[0].Props["category"])
}

func TestMarkdownRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&surface.MarkdownRenderer{TopN: 2}).Render(&buf, sampleResult()))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "## Solarrank: 3 buildings ranked"))
	assert.Contains(t, out, "| Rejected | 2 |")
	assert.Contains(t, out, "| 🟢 Excellent | 80-100 | 1 |")
	assert.Contains(t, out, "| 1 | `town-hall` | 91.5 | Excellent |")
	assert.Contains(t, out, "_... and 1 more buildings_")
	assert.NotContains(t, out, "`garage`")
	assert.Contains(t, out, "| `bowtie` | geometry |")
}

func TestXLSXRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&surface.XLSXRenderer{}).Render(&buf, sampleResult()))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)

	ranking, ok := f.Sheet[surface.SheetRanking]
	require.True(t, ok)
	require.Len(t, ranking.Rows, 4) // header + 3 buildings
	assert.Equal(t, "Rank", ranking.Rows[0].Cells[0].Value)
	assert.Len(t, ranking.Rows[0].Cells, 13)
	assert.Equal(t, "ROI (%)", ranking.Rows[0].Cells[12].Value)
	assert.Equal(t, "town-hall", ranking.Rows[1].Cells[1].Value)
	assert.Equal(t, "Excellent", ranking.Rows[1].Cells[3].Value)
	assert.Equal(t, "garage", ranking.Rows[3].Cells[1].Value)

	rejections, ok := f.Sheet[surface.SheetRejections]
	require.True(t, ok)
	require.Len(t, rejections.Rows, 3)
	assert.Equal(t, "bowtie", rejections.Rows[1].Cells[0].Value)
	assert.Equal(t, "geometry", rejections.Rows[1].Cells[1].Value)

	_, ok = f.Sheet[surface.SheetSummary]
	assert.True(t, ok)
}
