package bruteforce

import (
	"github.com/copyleftdev/gridopt/internal/optimization"
)

// search is the accumulator for a single Optimize call. It is owned by one
// call stack and never shared.
type search struct {
	alg    *algorithm
	fn     optimization.ObjectiveFunction
	bounds optimization.Bounds
	better func(a, b float64) bool

	// idx is the lattice cell being visited, one index per dimension.
	idx   []int
	steps []float64
	// point is scratch space for the coordinates passed to fn.
	point optimization.Input

	result optimization.Result
}

// iteration returns the position of idx in enumeration order, reading idx as
// a mixed-radix number with dimension 0 as the least significant digit.
func iteration(idx []int, gridSize int) uint64 {
	var n, w uint64 = 0, 1
	for _, i := range idx {
		n += uint64(i) * w
		w *= uint64(gridSize)
	}
	return n
}

// run walks dimension d and everything below it. It returns false once the
// iteration cap is reached; every later node has a larger iteration number,
// so the whole traversal can unwind.
func (s *search) run(d int) bool {
	if s.alg.stc.ShouldStop() {
		return true
	}

	if d < 0 {
		return s.visit()
	}

	for i := 0; i < s.alg.gridSize; i++ {
		s.idx[d] = i
		if !s.run(d - 1) {
			return false
		}
	}
	return true
}

// visit evaluates the objective at the current lattice node.
func (s *search) visit() bool {
	if limit := s.alg.stc.MaxIterations; limit > 0 && iteration(s.idx, s.alg.gridSize) >= uint64(limit) {
		return false
	}

	for d, i := range s.idx {
		s.point[d] = s.bounds[d].Min + float64(i)*s.steps[d]
	}

	score := s.fn(s.point)
	s.result.Evaluations++
	if s.better(score, s.result.Score) {
		s.result.Score = score
		s.result.Optimum = append(s.result.Optimum[:0], s.point...)
	}
	return true
}
