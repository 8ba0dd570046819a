// Package energy holds the pure yield and economics formulas.
package energy

import (
	"math"

	"github.com/rotisserie/eris"
)

// DefaultEfficiency is the panel conversion efficiency.
const DefaultEfficiency = 0.18

var (
	// ErrInvalidInput marks physically impossible inputs (negative area or
	// irradiance, shading outside [0,1]). These indicate upstream corruption
	// and are reported, never clamped.
	ErrInvalidInput = eris.New("invalid energy input")

	// ErrPaybackUndefined is returned when a roof earns nothing per year.
	ErrPaybackUndefined = eris.New("payback undefined: annual revenue is zero")

	// ErrROIUndefined is returned when the installation costs nothing.
	ErrROIUndefined = eris.New("roi undefined: installation cost is zero")
)

// AnnualYield returns E = area * irradiance * efficiency * (1 - shading) in
// kWh/year.
func AnnualYield(area, irradiance, efficiency, shading float64) (float64, error) {
	switch {
	case area < 0 || math.IsNaN(area):
		return 0, eris.Wrapf(ErrInvalidInput, "roof area %g", area)
	case irradiance < 0 || math.IsNaN(irradiance):
		return 0, eris.Wrapf(ErrInvalidInput, "irradiance %g", irradiance)
	case efficiency < 0 || efficiency > 1 || math.IsNaN(efficiency):
		return 0, eris.Wrapf(ErrInvalidInput, "efficiency %g", efficiency)
	case shading < 0 || shading > 1 || math.IsNaN(shading):
		return 0, eris.Wrapf(ErrInvalidInput, "shading factor %g", shading)
	}
	return area * irradiance * efficiency * (1 - shading), nil
}

// Economics are the unit prices used by the financial helpers.
type Economics struct {
	PricePerKWh float64 `json:"price_per_kwh" yaml:"price_per_kwh" mapstructure:"price_per_kwh"`
	CostPerM2   float64 `json:"cost_per_m2" yaml:"cost_per_m2" mapstructure:"cost_per_m2"`
}

// DefaultEconomics returns €0.25/kWh and €200/m² installed.
func DefaultEconomics() Economics {
	return Economics{PricePerKWh: 0.25, CostPerM2: 200}
}

// InstallCost is the cost of covering area square metres.
func (e Economics) InstallCost(area float64) float64 {
	return e.CostPerM2 * area
}

// AnnualSavings is the yearly revenue of energyKWh.
func (e Economics) AnnualSavings(energyKWh float64) float64 {
	return energyKWh * e.PricePerKWh
}

// Payback returns the years until savings cover the installation cost.
func (e Economics) Payback(energyKWh, area float64) (float64, error) {
	revenue := e.AnnualSavings(energyKWh)
	if revenue == 0 {
		return 0, ErrPaybackUndefined
	}
	return e.InstallCost(area) / revenue, nil
}

// ROI returns the first-year return on investment as a percentage.
func (e Economics) ROI(energyKWh, area float64) (float64, error) {
	cost := e.InstallCost(area)
	if cost == 0 {
		return 0, ErrROIUndefined
	}
	return (e.AnnualSavings(energyKWh) - cost) / cost * 100, nil
}
