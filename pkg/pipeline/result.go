package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"

	"github.com/solarrank/solarrank/pkg/building"
	"github.com/solarrank/solarrank/pkg/catalog"
	"github.com/solarrank/solarrank/pkg/energy"
	"github.com/solarrank/solarrank/pkg/scoring"
)

// Params records the model parameters a run used.
type Params struct {
	SearchRadius float64          `json:"search_radius_m"`
	ShadowLength float64          `json:"shadow_length_m"`
	HeightScale  float64          `json:"height_scale_m"`
	SizeCurve    string           `json:"size_curve"`
	Efficiency   float64          `json:"efficiency"`
	Economics    energy.Economics `json:"economics"`
}

// RunStats holds summary counts and timings for a run.
type RunStats struct {
	InputCount    int   `json:"input_count"`
	ScoredCount   int   `json:"scored_count"`
	RejectedCount int   `json:"rejected_count"`
	HeightImputed int   `json:"height_imputed"` // scored buildings whose own height was read as 0
	IndexDepth    int   `json:"index_depth"`
	DurationMs    int64 `json:"duration_ms"`
}

// Result is the output of one run. It is self-contained: the catalog can be
// re-derived from Buildings alone.
type Result struct {
	RunID      string                  `json:"run_id"`
	SnapshotID string                  `json:"snapshot_id"`
	CreatedAt  time.Time               `json:"created_at"`
	WeightSet  string                  `json:"weight_set,omitempty"`
	Weights    scoring.Weights         `json:"weights"`
	Params     Params                  `json:"params"`
	Population scoring.PopulationStats `json:"population"`
	Stats      RunStats                `json:"stats"`
	Summary    catalog.Summary         `json:"summary"`
	Buildings  []*building.Building    `json:"buildings"` // rank order
	Rejections []building.Rejection    `json:"rejections"`
}

// Catalog rebuilds the ranked catalog. The order is a pure function of
// scores and IDs, so it matches the order the run produced.
func (r *Result) Catalog() *catalog.Catalog {
	return catalog.New(r.Buildings)
}

// MarshalResult encodes a result for storage.
func MarshalResult(r *Result) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "marshaling run result")
	}
	return data, nil
}

// UnmarshalResult decodes a result produced by MarshalResult.
func UnmarshalResult(data []byte) (*Result, error) {
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, eris.Wrap(err, "unmarshaling run result")
	}
	return &r, nil
}

// SaveResult writes a result to disk as JSON.
func SaveResult(path string, r *Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "creating directory for run result")
	}
	data, err := MarshalResult(r)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrap(err, "writing run result")
	}
	return nil
}

// LoadResult reads a result from disk.
func LoadResult(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "reading run result")
	}
	return UnmarshalResult(data)
}
