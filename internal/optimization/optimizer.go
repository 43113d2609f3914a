// Package optimization defines the contract shared by all optimizer backends:
// bounds, candidate points, results and stop criteria.
package optimization

// Bound is a closed interval [Min, Max] for a single optimization variable.
type Bound struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Bounds holds one Bound per dimension. Index i bounds variable i.
type Bounds []Bound

// NewBounds converts [min, max] pairs into Bounds.
func NewBounds(pairs ...[2]float64) Bounds {
	b := make(Bounds, len(pairs))
	for i, p := range pairs {
		b[i] = Bound{Min: p[0], Max: p[1]}
	}
	return b
}

// Dims returns the number of dimensions.
func (b Bounds) Dims() int {
	return len(b)
}

// Input is a candidate point in the search space.
type Input []float64

// ObjectiveFunction maps a candidate point to a scalar score.
type ObjectiveFunction func(Input) float64

// Result is the best point found by a search together with its score.
type Result struct {
	Optimum Input   `json:"optimum"`
	Score   float64 `json:"score"`
	// Evaluations is the number of objective calls made during the search.
	// Zero means Optimum was never set and Score is the direction sentinel.
	Evaluations int `json:"evaluations"`
}

// Evaluated reports whether at least one point was scored. It does not imply
// an Optimum: when every score is NaN none of them is an improvement and
// Optimum stays nil.
func (r Result) Evaluated() bool {
	return r.Evaluations > 0
}

// Optimizer is implemented by every backend. A configured optimizer can be
// swapped for another without changing the caller.
type Optimizer interface {
	// Optimize searches bounds for the best score of fn. Backends that do not
	// use a starting point ignore initial.
	Optimize(fn ObjectiveFunction, initial Input, bounds Bounds) (Result, error)

	// ToMin makes subsequent searches minimize.
	ToMin() Optimizer

	// ToMax makes subsequent searches maximize.
	ToMax() Optimizer

	// SetCriteria replaces the stop criteria.
	SetCriteria(c StopCriteria) Optimizer

	// Criteria returns the current stop criteria.
	Criteria() StopCriteria
}
