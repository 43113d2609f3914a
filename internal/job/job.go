package job

import (
	"context"
	"math"
	"time"

	"go.uber.org/atomic"

	"github.com/copyleftdev/gridopt/internal/optimization"
	"github.com/copyleftdev/gridopt/internal/optimization/bruteforce"
	"github.com/copyleftdev/gridopt/internal/optimization/neldermead"
)

// Defaults fill in what a Spec leaves unset.
type Defaults struct {
	GridSize int
	// MaxEvaluations caps every job. Zero is unlimited.
	MaxEvaluations uint
	Timeout        time.Duration
}

// Job is a validated, compiled Spec ready to run once.
type Job struct {
	Spec      Spec
	bounds    optimization.Bounds
	objective *Objective
	optimizer optimization.Optimizer
	gridSize  int
	limit     uint
	timeout   time.Duration

	evaluations atomic.Int64
	total       int64
}

// Prepare validates spec, compiles its objective and builds the backend.
func Prepare(spec Spec, d Defaults) (*Job, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	bounds := spec.OptBounds()
	obj, err := CompileObjective(spec.Objective, len(bounds))
	if err != nil {
		return nil, err
	}

	j := &Job{
		Spec:      spec,
		bounds:    bounds,
		objective: obj,
		limit:     spec.MaxIterations,
		timeout:   spec.TimeoutDuration(),
	}
	if d.MaxEvaluations > 0 && (j.limit == 0 || j.limit > d.MaxEvaluations) {
		j.limit = d.MaxEvaluations
	}
	if j.timeout == 0 {
		j.timeout = d.Timeout
	}

	switch spec.BackendName() {
	case BackendNelderMead:
		j.optimizer = neldermead.New(optimization.StopCriteria{})
		j.total = int64(j.limit)
	default:
		j.gridSize = spec.GridSize
		if j.gridSize == 0 {
			j.gridSize = d.GridSize
		}
		if err := optimization.ValidateGridSize(j.gridSize); err != nil {
			return nil, err
		}
		j.optimizer = bruteforce.New(optimization.StopCriteria{}, j.gridSize)
		j.total = latticeSize(j.gridSize, len(bounds), j.limit)
	}

	if spec.Maximizing() {
		j.optimizer.ToMax()
	} else {
		j.optimizer.ToMin()
	}
	return j, nil
}

// latticeSize returns gridSize^dims limited to cap (when non-zero) and to the
// int64 range.
func latticeSize(gridSize, dims int, limit uint) int64 {
	n := math.Pow(float64(gridSize), float64(dims))
	if limit > 0 && n > float64(limit) {
		n = float64(limit)
	}
	if n >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(n)
}

// Run executes the search. It stops early when ctx is done or the timeout
// expires; the best result found so far is returned together with the
// context error in that case.
func (j *Job) Run(ctx context.Context) (optimization.Result, error) {
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	j.optimizer.SetCriteria(optimization.StopCriteria{}.
		WithStopCondition(optimization.StopOnContext(ctx)).
		WithMaxIterations(j.limit))

	fn := func(x optimization.Input) float64 {
		j.evaluations.Inc()
		return j.objective.Eval(x)
	}

	res, err := j.optimizer.Optimize(fn, optimization.Input(j.Spec.Initial), j.bounds)
	if err != nil {
		return res, err
	}
	if err := j.objective.Err(); err != nil {
		return res, err
	}
	return res, ctx.Err()
}

// Evaluations returns the number of objective calls so far. It is safe to
// call while Run is in progress.
func (j *Job) Evaluations() int64 {
	return j.evaluations.Load()
}

// Progress returns the completed fraction in [0, 1], or 0 when the total
// number of evaluations is not known in advance.
func (j *Job) Progress() float64 {
	if j.total <= 0 {
		return 0
	}
	return math.Min(1, float64(j.Evaluations())/float64(j.total))
}

// GridSize returns the grid resolution, or 0 for non-grid backends.
func (j *Job) GridSize() int {
	return j.gridSize
}

// Limit returns the effective evaluation cap. Zero is unlimited.
func (j *Job) Limit() uint {
	return j.limit
}
