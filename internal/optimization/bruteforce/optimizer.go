// Package bruteforce implements an exhaustive grid search over a bounded box.
//
// Every axis is sampled at GridSize evenly spaced points including both ends,
// and the objective is evaluated at each node of the resulting lattice, so a
// search over N dimensions costs at most GridSize^N evaluations. Dimension 0
// varies fastest and dimension N-1 slowest.
package bruteforce

import (
	"math"

	"github.com/copyleftdev/gridopt/internal/optimization"
)

// DefaultGridSize is the number of samples per axis used by New when zero is given.
const DefaultGridSize = 100

// algorithm is the state owned by one Optimizer.
type algorithm struct {
	toMin    bool
	stc      optimization.StopCriteria
	gridSize int
}

// Optimizer is the grid search backend.
type Optimizer struct {
	alg algorithm
}

var _ optimization.Optimizer = (*Optimizer)(nil)

// New creates a grid optimizer sampling gridSize points per axis. A gridSize
// of zero selects DefaultGridSize. Sizes below 2 leave the step between grid
// points undefined; use optimization.ValidateGridSize to reject them up front.
// The optimizer minimizes until ToMax is called.
func New(criteria optimization.StopCriteria, gridSize int) *Optimizer {
	if gridSize == 0 {
		gridSize = DefaultGridSize
	}
	return &Optimizer{alg: algorithm{toMin: true, stc: criteria, gridSize: gridSize}}
}

// GridSize returns the number of samples per axis.
func (o *Optimizer) GridSize() int {
	return o.alg.gridSize
}

// Minimizing reports the current search direction.
func (o *Optimizer) Minimizing() bool {
	return o.alg.toMin
}

// ToMin makes subsequent searches minimize.
func (o *Optimizer) ToMin() optimization.Optimizer {
	o.alg.toMin = true
	return o
}

// ToMax makes subsequent searches maximize.
func (o *Optimizer) ToMax() optimization.Optimizer {
	o.alg.toMin = false
	return o
}

// SetCriteria replaces the stop criteria.
func (o *Optimizer) SetCriteria(c optimization.StopCriteria) optimization.Optimizer {
	o.alg.stc = c
	return o
}

// Criteria returns the current stop criteria.
func (o *Optimizer) Criteria() optimization.StopCriteria {
	return o.alg.stc
}

// Optimize evaluates fn on every lattice node of bounds and returns the best
// one. initial is accepted for parity with other backends and ignored: the
// grid always spans the full box.
//
// Score starts at math.MaxFloat64 when minimizing and -math.MaxFloat64 when
// maximizing; if the stop condition fires before the first evaluation the
// result keeps that score, a nil Optimum and zero Evaluations.
//
// The returned error is always nil.
func (o *Optimizer) Optimize(fn optimization.ObjectiveFunction, initial optimization.Input, bounds optimization.Bounds) (optimization.Result, error) {
	return o.alg.optimize(fn, bounds), nil
}

func (a *algorithm) optimize(fn optimization.ObjectiveFunction, bounds optimization.Bounds) optimization.Result {
	s := search{
		alg:    a,
		fn:     fn,
		bounds: bounds,
		idx:    make([]int, len(bounds)),
		steps:  make([]float64, len(bounds)),
		point:  make(optimization.Input, len(bounds)),
	}
	for d, b := range bounds {
		s.steps[d] = (b.Max - b.Min) / float64(a.gridSize-1)
	}

	if a.toMin {
		s.result.Score = math.MaxFloat64
		s.better = less
	} else {
		s.result.Score = -math.MaxFloat64
		s.better = greater
	}

	s.run(len(bounds) - 1)
	return s.result
}

func less(a, b float64) bool    { return a < b }
func greater(a, b float64) bool { return a > b }
