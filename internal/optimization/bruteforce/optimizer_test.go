package bruteforce

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/gridopt/internal/optimization"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		gridSize int
		want     int
	}{
		{name: "explicit", gridSize: 11, want: 11},
		{name: "default", gridSize: 0, want: DefaultGridSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := New(optimization.StopCriteria{}, tt.gridSize)
			assert.Equal(t, tt.want, o.GridSize())
			assert.True(t, o.Minimizing(), "new optimizers minimize")
		})
	}
}

func TestDirectionChaining(t *testing.T) {
	o := New(optimization.StopCriteria{}, 3)

	same := o.ToMax()
	assert.Same(t, o, same)
	assert.False(t, o.Minimizing())

	o.ToMax().ToMin()
	assert.True(t, o.Minimizing())
}

func TestSetCriteriaReplacesWholesale(t *testing.T) {
	o := New(optimization.StopCriteria{}.WithMaxIterations(5).WithAbsScoreDiff(0.1), 3)
	o.SetCriteria(optimization.StopCriteria{}.WithRelScoreDiff(0.2))

	c := o.Criteria()
	assert.Equal(t, uint(0), c.MaxIterations, "old cap must not survive replacement")
	assert.Equal(t, 0.0, c.AbsScoreDiff)
	assert.Equal(t, 0.2, c.RelScoreDiff)
}

func TestEvaluationCount(t *testing.T) {
	tests := []struct {
		dims     int
		gridSize int
	}{
		{dims: 1, gridSize: 2},
		{dims: 1, gridSize: 17},
		{dims: 2, gridSize: 5},
		{dims: 3, gridSize: 4},
		{dims: 4, gridSize: 3},
	}

	for _, tt := range tests {
		bounds := make(optimization.Bounds, tt.dims)
		for i := range bounds {
			bounds[i] = optimization.Bound{Min: -1, Max: 2}
		}

		counter := &optimization.CountingObjective{Fn: optimization.SphereObjective}
		res, err := New(optimization.StopCriteria{}, tt.gridSize).Optimize(counter.Eval, nil, bounds)
		require.NoError(t, err)

		want := int(math.Pow(float64(tt.gridSize), float64(tt.dims)))
		assert.Equal(t, want, counter.Calls(), "dims=%d grid=%d", tt.dims, tt.gridSize)
		assert.Equal(t, want, res.Evaluations)

		seen := make(map[[4]float64]bool, want)
		for _, p := range counter.Points {
			var key [4]float64
			copy(key[:], p)
			seen[key] = true
		}
		assert.Len(t, seen, want, "every lattice node is visited exactly once")
	}
}

func TestMaxIterationsCap(t *testing.T) {
	bounds := optimization.NewBounds([2]float64{0, 1}, [2]float64{0, 1}, [2]float64{0, 1})

	for _, limit := range []uint{1, 7, 26, 27, 1000} {
		counter := &optimization.CountingObjective{Fn: optimization.SphereObjective}
		o := New(optimization.StopCriteria{}.WithMaxIterations(limit), 3)

		res, err := o.Optimize(counter.Eval, nil, bounds)
		require.NoError(t, err)

		want := int(limit)
		if want > 27 {
			want = 27
		}
		assert.Equal(t, want, counter.Calls(), "limit=%d", limit)
		assert.Equal(t, want, res.Evaluations)
	}
}

func TestEnumerationOrder(t *testing.T) {
	counter := &optimization.CountingObjective{Fn: optimization.SphereObjective}
	bounds := optimization.NewBounds([2]float64{0, 1}, [2]float64{10, 11})

	_, err := New(optimization.StopCriteria{}, 2).Optimize(counter.Eval, nil, bounds)
	require.NoError(t, err)

	want := []optimization.Input{{0, 10}, {1, 10}, {0, 11}, {1, 11}}
	assert.Equal(t, want, counter.Points, "dimension 0 varies fastest")
}

func TestIteration(t *testing.T) {
	assert.Equal(t, uint64(0), iteration([]int{0, 0, 0}, 4))
	assert.Equal(t, uint64(1), iteration([]int{1, 0, 0}, 4))
	assert.Equal(t, uint64(4), iteration([]int{0, 1, 0}, 4))
	assert.Equal(t, uint64(3+2*4+1*16), iteration([]int{3, 2, 1}, 4))
	assert.Equal(t, uint64(0), iteration(nil, 4))
}

func TestMaximizeParabola(t *testing.T) {
	counter := &optimization.CountingObjective{Fn: func(x optimization.Input) float64 {
		return -(x[0] - 5) * (x[0] - 5)
	}}

	o := New(optimization.StopCriteria{}, 11)
	o.ToMax()
	res, err := o.Optimize(counter.Eval, optimization.Input{0}, optimization.NewBounds([2]float64{0, 10}))
	require.NoError(t, err)

	require.Equal(t, 11, counter.Calls())
	for i, p := range counter.Points {
		assert.InDelta(t, float64(i), p[0], 1e-12)
	}
	assert.InDelta(t, 5.0, res.Optimum[0], 1e-12)
	assert.Equal(t, 0.0, res.Score)
}

func TestMinimizeCorners(t *testing.T) {
	counter := &optimization.CountingObjective{Fn: func(x optimization.Input) float64 {
		return x[0] + x[1]
	}}

	bounds := optimization.NewBounds([2]float64{0, 1}, [2]float64{0, 1})
	res, err := New(optimization.StopCriteria{}, 2).ToMin().Optimize(counter.Eval, nil, bounds)
	require.NoError(t, err)

	assert.ElementsMatch(t, []optimization.Input{{0, 0}, {0, 1}, {1, 0}, {1, 1}}, counter.Points)
	assert.Equal(t, optimization.Input{0, 0}, res.Optimum)
	assert.Equal(t, 0.0, res.Score)
}

func TestCornersOnly(t *testing.T) {
	counter := &optimization.CountingObjective{Fn: optimization.SphereObjective}
	bounds := optimization.NewBounds([2]float64{-2, 3}, [2]float64{4, 8}, [2]float64{-1, -0.5})

	_, err := New(optimization.StopCriteria{}, 2).Optimize(counter.Eval, nil, bounds)
	require.NoError(t, err)

	require.Equal(t, 8, counter.Calls())
	for _, p := range counter.Points {
		for d, v := range p {
			assert.True(t, v == bounds[d].Min || v == bounds[d].Max, "coordinate %v of dim %d is not a corner", v, d)
		}
	}
}

func TestResultIsGridOptimum(t *testing.T) {
	fn := func(x optimization.Input) float64 {
		return math.Sin(3*x[0])*math.Cos(2*x[1]) + 0.1*x[0]
	}
	bounds := optimization.NewBounds([2]float64{-2, 2}, [2]float64{-1, 3})

	for _, maximize := range []bool{false, true} {
		counter := &optimization.CountingObjective{Fn: fn}
		o := New(optimization.StopCriteria{}, 21)
		if maximize {
			o.ToMax()
		}
		res, err := o.Optimize(counter.Eval, nil, bounds)
		require.NoError(t, err)

		for _, p := range counter.Points {
			score := fn(p)
			if maximize {
				assert.GreaterOrEqual(t, res.Score, score)
			} else {
				assert.LessOrEqual(t, res.Score, score)
			}
		}
		assert.Equal(t, fn(res.Optimum), res.Score)
	}
}

func TestDeterministic(t *testing.T) {
	fn := func(x optimization.Input) float64 {
		return math.Abs(x[0]-0.3) + math.Abs(x[1]+0.7)
	}
	bounds := optimization.NewBounds([2]float64{-1, 1}, [2]float64{-1, 1})
	o := New(optimization.StopCriteria{}, 33)

	first, err := o.Optimize(fn, nil, bounds)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := o.Optimize(fn, nil, bounds)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestInitialGuessIgnored(t *testing.T) {
	bounds := optimization.NewBounds([2]float64{0, 4}, [2]float64{0, 4})
	o := New(optimization.StopCriteria{}, 5)

	a, err := o.Optimize(optimization.SphereObjective, optimization.Input{3, 3}, bounds)
	require.NoError(t, err)
	b, err := o.Optimize(optimization.SphereObjective, nil, bounds)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestStopBeforeFirstEvaluation(t *testing.T) {
	calls := 0
	fn := func(x optimization.Input) float64 {
		calls++
		return 0
	}
	always := optimization.StopCriteria{}.WithStopCondition(func() bool { return true })
	bounds := optimization.NewBounds([2]float64{0, 1})

	res, err := New(always, 10).Optimize(fn, nil, bounds)
	require.NoError(t, err)
	assert.Zero(t, calls)
	assert.False(t, res.Evaluated())
	assert.Nil(t, res.Optimum)
	assert.Equal(t, math.MaxFloat64, res.Score)

	o := New(always, 10)
	o.ToMax()
	res, err = o.Optimize(fn, nil, bounds)
	require.NoError(t, err)
	assert.Equal(t, -math.MaxFloat64, res.Score)
}

func TestStopConditionMidSearch(t *testing.T) {
	calls := 0
	fn := func(x optimization.Input) float64 {
		calls++
		return x[0]
	}
	stop := optimization.StopCriteria{}.WithStopCondition(func() bool { return calls >= 5 })

	res, err := New(stop, 10).Optimize(fn, nil, optimization.NewBounds([2]float64{0, 1}, [2]float64{0, 1}))
	require.NoError(t, err)
	assert.Equal(t, 5, calls)
	assert.Equal(t, 5, res.Evaluations)
	assert.True(t, res.Evaluated())
}

func BenchmarkOptimize3D(b *testing.B) {
	bounds := optimization.NewBounds([2]float64{-1, 1}, [2]float64{-1, 1}, [2]float64{-1, 1})
	o := New(optimization.StopCriteria{}, 30)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = o.Optimize(optimization.SphereObjective, nil, bounds)
	}
}
