package shading

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"
)

// SizeCurve maps a neighbour's footprint area, relative to the target's, to
// a weight in (0,1]. Implementations must be non-decreasing in ratio and
// saturate at 1.
type SizeCurve interface {
	Name() string
	Weight(ratio float64) float64
}

// LinearCurve rises linearly from Floor at ratio 0 to 1 at ratio 1 and stays
// flat beyond.
type LinearCurve struct {
	Floor float64
}

// DefaultCurve is a neighbour half the weight at zero relative size, full
// weight once it is at least as large as the target.
var DefaultCurve SizeCurve = LinearCurve{Floor: 0.5}

func (c LinearCurve) Name() string { return fmt.Sprintf("linear(floor=%g)", c.Floor) }

func (c LinearCurve) Weight(ratio float64) float64 {
	return clamp01(c.Floor + (1-c.Floor)*math.Min(math.Max(ratio, 0), 1))
}

// ExponentialCurve approaches 1 as 1 - exp(-Rate*ratio).
type ExponentialCurve struct {
	Rate float64
}

func (c ExponentialCurve) Name() string { return fmt.Sprintf("exponential(rate=%g)", c.Rate) }

func (c ExponentialCurve) Weight(ratio float64) float64 {
	return clamp01(1 - math.Exp(-c.Rate*math.Max(ratio, 0)))
}

// DefaultCurveParam asks ParseCurve for the curve's own default parameter.
// Any negative value does the same.
const DefaultCurveParam = -1.0

// ParseCurve builds a curve from its config name. param is the linear floor
// or the exponential rate; a negative param selects the curve's default.
func ParseCurve(name string, param float64) (SizeCurve, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "linear":
		if param < 0 {
			return DefaultCurve, nil
		}
		if param > 1 {
			return nil, eris.Errorf("linear size curve floor must be in [0,1], got %g", param)
		}
		return LinearCurve{Floor: param}, nil
	case "exponential", "exp":
		if param < 0 {
			param = 3
		}
		if param == 0 {
			return nil, eris.Errorf("exponential size curve rate must be positive, got %g", param)
		}
		return ExponentialCurve{Rate: param}, nil
	default:
		return nil, eris.Errorf("unknown size curve %q", name)
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0 || math.IsNaN(v):
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
