package surface

import (
	"encoding/json"
	"io"

	"github.com/solarrank/solarrank/pkg/pipeline"
)

// JSONRenderer marshals the run result to indented JSON.
type JSONRenderer struct{}

func (r *JSONRenderer) Render(w io.Writer, result *pipeline.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
