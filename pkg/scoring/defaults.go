package scoring

// DefaultFactors returns the four suitability factors in display order.
func DefaultFactors() []Factor {
	return []Factor{
		EnergyMetric{},
		OrientationMetric{},
		ShadingMetric{},
		AreaMetric{},
	}
}
