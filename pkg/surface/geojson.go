package surface

import (
	"encoding/json"
	"io"

	"github.com/solarrank/solarrank/pkg/building"
	"github.com/solarrank/solarrank/pkg/pipeline"
)

// GeoJSONRenderer writes the ranked buildings as a FeatureCollection, best
// first, for loading into a map.
type GeoJSONRenderer struct {
	TopN int // 0 = all
}

func (r *GeoJSONRenderer) Render(w io.Writer, result *pipeline.Result) error {
	fc, err := building.FeatureCollection(limit(result.Buildings, r.TopN))
	if err != nil {
		return err
	}
	return json.NewEncoder(w).Encode(fc)
}
