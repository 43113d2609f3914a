// Package job turns a declarative optimization request into a running search:
// it validates the request, compiles its objective expression and drives the
// selected optimizer backend.
package job

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/copyleftdev/gridopt/internal/optimization"
)

// Backend names.
const (
	BackendGrid       = "grid"
	BackendNelderMead = "neldermead"
)

// Direction names.
const (
	Minimize = "min"
	Maximize = "max"
)

// Spec describes one optimization job.
type Spec struct {
	// Objective is an expression over x0..x{N-1}, e.g. "(x0-1)**2 + x1".
	Objective string `json:"objective" yaml:"objective" validate:"required"`
	// Bounds holds one [min, max] pair per variable.
	Bounds [][2]float64 `json:"bounds" yaml:"bounds" validate:"required,min=1,max=16"`
	// Direction is "min" (default) or "max".
	Direction string `json:"direction,omitempty" yaml:"direction,omitempty" validate:"omitempty,oneof=min max"`
	// Backend is "grid" (default) or "neldermead".
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty" validate:"omitempty,oneof=grid neldermead"`
	// GridSize is the number of samples per axis for the grid backend.
	GridSize int `json:"grid_size,omitempty" yaml:"grid_size,omitempty" validate:"omitempty,min=2"`
	// Initial is the starting point for the Nelder-Mead backend.
	Initial []float64 `json:"initial,omitempty" yaml:"initial,omitempty"`
	// MaxIterations caps the number of objective evaluations.
	MaxIterations uint `json:"max_iterations,omitempty" yaml:"max_iterations,omitempty"`
	// Timeout is a Go duration string bounding the wall-clock time of the job.
	Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty" validate:"omitempty,duration"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("duration", validDuration)
	return v
}

func validDuration(fl validator.FieldLevel) bool {
	d, err := time.ParseDuration(fl.Field().String())
	return err == nil && d > 0
}

// LoadSpec reads a YAML job file.
func LoadSpec(path string) (Spec, error) {
	var spec Spec
	data, err := os.ReadFile(path)
	if err != nil {
		return spec, err
	}
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return spec, fmt.Errorf("decode %s: %w", path, err)
	}
	return spec, nil
}

// Validate checks s without compiling the objective.
func (s Spec) Validate() error {
	if err := validate.Struct(s); err != nil {
		return err
	}
	if err := s.OptBounds().Validate(); err != nil {
		return err
	}
	if len(s.Initial) > 0 && len(s.Initial) != len(s.Bounds) {
		return fmt.Errorf("%w: initial has %d values for %d bounds", optimization.ErrDimensionMismatch, len(s.Initial), len(s.Bounds))
	}
	return nil
}

// OptBounds converts the bounds into the optimizer representation.
func (s Spec) OptBounds() optimization.Bounds {
	return optimization.NewBounds(s.Bounds...)
}

// BackendName returns the selected backend, applying the default.
func (s Spec) BackendName() string {
	if s.Backend == "" {
		return BackendGrid
	}
	return s.Backend
}

// Maximizing reports whether the job maximizes.
func (s Spec) Maximizing() bool {
	return s.Direction == Maximize
}

// TimeoutDuration returns the parsed timeout, or zero when unset.
func (s Spec) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(s.Timeout)
	return d
}
