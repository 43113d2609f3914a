package optimization

// SphereObjective is sum(x_i^2), minimum 0 at the origin.
func SphereObjective(x Input) float64 {
	sum := 0.0
	for _, v := range x {
		sum += v * v
	}
	return sum
}

// CountingObjective wraps fn and records every point it is called with.
type CountingObjective struct {
	Fn     ObjectiveFunction
	Points []Input
}

// Eval is an ObjectiveFunction that records x before delegating.
func (c *CountingObjective) Eval(x Input) float64 {
	c.Points = append(c.Points, append(Input(nil), x...))
	return c.Fn(x)
}

// Calls returns the number of recorded evaluations.
func (c *CountingObjective) Calls() int {
	return len(c.Points)
}
