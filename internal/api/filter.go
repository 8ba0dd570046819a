package api

import (
	"net/http"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/solarrank/solarrank/pkg/building"
	"github.com/solarrank/solarrank/pkg/catalog"
)

// parseFilter reads min_score, max_score, min_area, min_energy, category,
// limit and offset from the query string.
func parseFilter(r *http.Request) (catalog.Filter, error) {
	q := r.URL.Query()
	var f catalog.Filter

	floatParam := func(name string) (*float64, error) {
		v := q.Get(name)
		if v == "" {
			return nil, nil
		}
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, eris.Errorf("%s must be a number", name)
		}
		return &x, nil
	}
	intParam := func(name string) (int, error) {
		v := q.Get(name)
		if v == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, eris.Errorf("%s must be a non-negative integer", name)
		}
		return n, nil
	}

	var err error
	if f.MinScore, err = floatParam("min_score"); err != nil {
		return f, err
	}
	if f.MaxScore, err = floatParam("max_score"); err != nil {
		return f, err
	}
	if v, err := floatParam("min_area"); err != nil {
		return f, err
	} else if v != nil {
		f.MinArea = *v
	}
	if v, err := floatParam("min_energy"); err != nil {
		return f, err
	} else if v != nil {
		f.MinEnergy = *v
	}
	if v := q.Get("category"); v != "" {
		c, ok := building.ParseCategory(v)
		if !ok {
			return f, eris.Errorf("unknown category %q", v)
		}
		f.Category = c
	}
	if f.Limit, err = intParam("limit"); err != nil {
		return f, err
	}
	if f.Offset, err = intParam("offset"); err != nil {
		return f, err
	}
	return f, nil
}
