// Package neldermead is a derivative-free local optimizer backend built on
// gonum's Nelder-Mead simplex method. It satisfies the same contract as the
// grid backend, so the two are interchangeable.
package neldermead

import (
	"math"

	"gonum.org/v1/gonum/optimize"

	"github.com/copyleftdev/gridopt/internal/optimization"
)

const component = "neldermead"

// convergeIterations is how many major iterations without sufficient
// improvement end the search. Shorter windows stop while the simplex is still
// collapsing against a clamped bound.
const convergeIterations = 100

// defaultAbsScoreDiff applies when the criteria set no score tolerance.
const defaultAbsScoreDiff = 1e-10

// Optimizer runs a bounded Nelder-Mead search starting from the initial guess.
// Points proposed outside the bounds are clamped before evaluation.
type Optimizer struct {
	toMin       bool
	stc         optimization.StopCriteria
	simplexSize float64
}

var _ optimization.Optimizer = (*Optimizer)(nil)

// New creates a minimizing Nelder-Mead optimizer.
func New(criteria optimization.StopCriteria) *Optimizer {
	return &Optimizer{toMin: true, stc: criteria, simplexSize: 0.2}
}

// ToMin makes subsequent searches minimize.
func (o *Optimizer) ToMin() optimization.Optimizer {
	o.toMin = true
	return o
}

// ToMax makes subsequent searches maximize.
func (o *Optimizer) ToMax() optimization.Optimizer {
	o.toMin = false
	return o
}

// SetCriteria replaces the stop criteria.
func (o *Optimizer) SetCriteria(c optimization.StopCriteria) optimization.Optimizer {
	o.stc = c
	return o
}

// Criteria returns the current stop criteria.
func (o *Optimizer) Criteria() optimization.StopCriteria {
	return o.stc
}

// Optimize searches from initial, or from the centre of bounds when initial is
// empty. The simplex size is relative to the width of the widest bound.
func (o *Optimizer) Optimize(fn optimization.ObjectiveFunction, initial optimization.Input, bounds optimization.Bounds) (optimization.Result, error) {
	result := optimization.Result{Score: math.MaxFloat64}
	if !o.toMin {
		result.Score = -math.MaxFloat64
	}
	if o.stc.ShouldStop() {
		return result, nil
	}

	dims := len(bounds)
	if dims == 0 {
		return result, optimization.WrapError(optimization.ErrNoDimensions, component, "optimize")
	}
	start := make([]float64, dims)
	switch len(initial) {
	case 0:
		for i, b := range bounds {
			start[i] = b.Min + (b.Max-b.Min)/2
		}
	case dims:
		copy(start, initial)
		bounds.Clamp(start)
	default:
		return result, optimization.WrapError(optimization.ErrDimensionMismatch, component, "optimize")
	}

	sign := 1.0
	if !o.toMin {
		sign = -1.0
	}

	scratch := make([]float64, dims)
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			copy(scratch, x)
			bounds.Clamp(scratch)
			result.Evaluations++
			return sign * fn(scratch)
		},
		Status: func() (optimize.Status, error) {
			if o.stc.ShouldStop() {
				return optimize.RuntimeLimit, nil
			}
			return optimize.NotTerminated, nil
		},
	}

	method := &optimize.NelderMead{
		Reflection:  1.0,
		Expansion:   2.0,
		Contraction: 0.5,
		Shrink:      0.5,
		SimplexSize: o.simplexSize * widest(bounds),
	}

	res, err := optimize.Minimize(problem, start, o.settings(sign), method)
	if res != nil && result.Evaluations > 0 && len(res.X) == dims {
		result.Optimum = append(optimization.Input(nil), res.X...)
		bounds.Clamp(result.Optimum)
		result.Score = sign * res.F
	}
	return result, optimization.WrapError(err, component, "optimize")
}

func (o *Optimizer) settings(sign float64) *optimize.Settings {
	conv := &scoreConverger{
		FunctionConverge: optimize.FunctionConverge{
			Absolute:   o.stc.AbsScoreDiff,
			Relative:   o.stc.RelScoreDiff,
			Iterations: convergeIterations,
		},
	}
	if conv.Absolute == 0 && conv.Relative == 0 {
		conv.Absolute = defaultAbsScoreDiff
	}
	if target, ok := o.stc.StopScore(); ok {
		conv.target = sign * target
		conv.hasTarget = true
	}

	s := &optimize.Settings{Converger: conv}
	if o.stc.MaxIterations > 0 {
		s.FuncEvaluations = int(o.stc.MaxIterations)
	}
	return s
}

// scoreConverger stops once the sign-adjusted score reaches the target and
// otherwise defers to FunctionConverge.
type scoreConverger struct {
	optimize.FunctionConverge
	target    float64
	hasTarget bool
}

func (c *scoreConverger) Converged(loc *optimize.Location) optimize.Status {
	if c.hasTarget && loc.F <= c.target {
		return optimize.FunctionThreshold
	}
	return c.FunctionConverge.Converged(loc)
}

func widest(bounds optimization.Bounds) float64 {
	w := 0.0
	for _, b := range bounds {
		w = math.Max(w, b.Max-b.Min)
	}
	if w == 0 {
		return 1
	}
	return w
}
