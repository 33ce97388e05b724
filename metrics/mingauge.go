package metrics

// minGauge implements a gauge whose values are combined by minimum (Policy_Min).
// Each update is reported as-is; the gauge itself keeps no state.
type minGauge struct {
	name  string // Metric name
	group string // Metric group for categorization
}

// Name returns the metric name.
func (g *minGauge) Name() string {
	return g.name
}

// Group returns the metric group.
func (g *minGauge) Group() string {
	return g.group
}

// Policy returns the aggregation policy for this gauge (Policy_Min).
func (g *minGauge) Policy() Policy {
	return Policy_Min
}

// Update updates the minimum gauge value without dimensions.
func (g *minGauge) Update(v Value) {
	g.UpdateWithDim(v, nil)
}

// UpdateWithDim updates the minimum gauge value with specified dimensions.
// Reporters keep the lowest value reported.
func (g *minGauge) UpdateWithDim(v Value, dimensions Dimension) {
	r := Record{
		metrics:    g,
		value:      v,
		dimensions: dimensions,
	}
	for _, reporter := range _Reporters {
		reporter.Report(r)
	}
}
