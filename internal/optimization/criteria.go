package optimization

import (
	"context"
	"math"
	"time"
)

// StopCriteria tells a backend when to give up searching. It is a value type:
// the With* methods return modified copies and never touch the receiver.
type StopCriteria struct {
	// StopCondition is polled during the search. Nil never stops.
	StopCondition func() bool

	// MaxIterations caps the number of objective evaluations. Zero is unlimited.
	MaxIterations uint

	// AbsScoreDiff and RelScoreDiff are convergence tolerances on the score.
	// Only iterative backends use them.
	AbsScoreDiff float64
	RelScoreDiff float64

	stopScore    float64
	hasStopScore bool
}

// StopScore returns the target score of an iterative search and whether one
// was set.
func (c StopCriteria) StopScore() (float64, bool) {
	return c.stopScore, c.hasStopScore
}

// ShouldStop evaluates the stop predicate.
func (c StopCriteria) ShouldStop() bool {
	return c.StopCondition != nil && c.StopCondition()
}

// WithStopCondition returns a copy with the predicate replaced.
func (c StopCriteria) WithStopCondition(fn func() bool) StopCriteria {
	c.StopCondition = fn
	return c
}

// WithMaxIterations returns a copy with the evaluation cap replaced.
func (c StopCriteria) WithMaxIterations(n uint) StopCriteria {
	c.MaxIterations = n
	return c
}

// WithAbsScoreDiff returns a copy with the absolute tolerance replaced.
func (c StopCriteria) WithAbsScoreDiff(d float64) StopCriteria {
	c.AbsScoreDiff = d
	return c
}

// WithRelScoreDiff returns a copy with the relative tolerance replaced.
func (c StopCriteria) WithRelScoreDiff(d float64) StopCriteria {
	c.RelScoreDiff = d
	return c
}

// WithStopScore returns a copy that ends iterative searches once a score at
// least as good as s is reached. NaN clears the target.
func (c StopCriteria) WithStopScore(s float64) StopCriteria {
	c.stopScore = s
	c.hasStopScore = !math.IsNaN(s)
	return c
}

// StopOnContext returns a predicate that fires once ctx is done.
func StopOnContext(ctx context.Context) func() bool {
	return func() bool {
		return ctx.Err() != nil
	}
}

// StopAfter returns a predicate that fires once the deadline has passed.
func StopAfter(deadline time.Time) func() bool {
	return func() bool {
		return !time.Now().Before(deadline)
	}
}

// AnyOf combines predicates; the result fires when any of them does.
func AnyOf(conds ...func() bool) func() bool {
	return func() bool {
		for _, c := range conds {
			if c != nil && c() {
				return true
			}
		}
		return false
	}
}
