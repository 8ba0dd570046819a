// Package surface defines output rendering for solarrank run results.
// Implementations handle different output targets: terminal, JSON, GeoJSON,
// Markdown and XLSX.
package surface

import (
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/solarrank/solarrank/pkg/pipeline"
)

// Renderer produces formatted output from a run result.
type Renderer interface {
	// Render writes the formatted run result to the writer.
	Render(w io.Writer, result *pipeline.Result) error
}

// Formats lists the names accepted by ForFormat.
var Formats = []string{"text", "json", "geojson", "markdown", "xlsx"}

// ForFormat returns the renderer for a format name. topN limits the ranked
// listing of the text, markdown and GeoJSON outputs; 0 means every building.
func ForFormat(format string, topN int) (Renderer, error) {
	switch strings.ToLower(format) {
	case "", "text", "terminal":
		return &TerminalRenderer{TopN: topN}, nil
	case "json":
		return &JSONRenderer{}, nil
	case "geojson":
		return &GeoJSONRenderer{TopN: topN}, nil
	case "markdown", "md":
		return &MarkdownRenderer{TopN: topN}, nil
	case "xlsx":
		return &XLSXRenderer{}, nil
	default:
		return nil, eris.Errorf("unknown format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}
