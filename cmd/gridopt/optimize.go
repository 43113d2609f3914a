package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/copyleftdev/gridopt/internal/job"
)

type optimizeOptions struct {
	file          string
	objective     string
	bounds        []string
	direction     string
	backend       string
	gridSize      int
	initial       []float64
	maxIterations uint
	timeout       time.Duration
}

type optimizeOutput struct {
	Backend     string    `json:"backend"`
	Direction   string    `json:"direction"`
	GridSize    int       `json:"grid_size,omitempty"`
	Optimum     []float64 `json:"optimum"`
	Score       job.Score `json:"score"`
	Evaluations int       `json:"evaluations"`
	Stopped     string    `json:"stopped,omitempty"`
	ElapsedMs   int64     `json:"elapsed_ms"`
}

func newOptimizeCmd(root *rootOptions) *cobra.Command {
	opts := &optimizeOptions{}

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Run one optimization and print the result as JSON",
		Long: `Runs an optimization described by flags or by a YAML job file. Flags
given together with --file override the values from the file.

Example:
  gridopt optimize --objective "-((x0-5)**2)" --bound 0:10 --direction max --grid-size 11`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := opts.spec(cmd)
			if err != nil {
				return err
			}
			return runOptimize(cmd, root, spec)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.file, "file", "f", "", "YAML job file")
	f.StringVar(&opts.objective, "objective", "", "Objective expression over x0..x{N-1}")
	f.StringArrayVar(&opts.bounds, "bound", nil, "Bound of one variable as min:max, repeated per variable")
	f.StringVar(&opts.direction, "direction", job.Minimize, "Optimization direction (min, max)")
	f.StringVar(&opts.backend, "backend", job.BackendGrid, "Optimizer backend (grid, neldermead)")
	f.IntVar(&opts.gridSize, "grid-size", 100, "Samples per axis for the grid backend")
	f.Float64SliceVar(&opts.initial, "initial", nil, "Starting point for the neldermead backend")
	f.UintVar(&opts.maxIterations, "max-iterations", 0, "Cap on objective evaluations (0 is unlimited)")
	f.DurationVar(&opts.timeout, "timeout", 0, "Wall-clock limit (0 is unlimited)")

	return cmd
}

// spec builds the job from the file, if any, and the flags that were set.
func (o *optimizeOptions) spec(cmd *cobra.Command) (job.Spec, error) {
	var spec job.Spec
	fromFile := o.file != ""
	if fromFile {
		var err error
		if spec, err = job.LoadSpec(o.file); err != nil {
			return spec, err
		}
	}

	// With a file, only explicitly set flags override; without one, every
	// flag contributes its default.
	set := func(name string) bool {
		return !fromFile || cmd.Flags().Changed(name)
	}

	if set("objective") {
		spec.Objective = o.objective
	}
	if set("bound") {
		bounds, err := parseBounds(o.bounds)
		if err != nil {
			return spec, err
		}
		spec.Bounds = bounds
	}
	if set("direction") {
		spec.Direction = o.direction
	}
	if set("backend") {
		spec.Backend = o.backend
	}
	if set("grid-size") {
		spec.GridSize = o.gridSize
	}
	if set("initial") {
		spec.Initial = o.initial
	}
	if set("max-iterations") {
		spec.MaxIterations = o.maxIterations
	}
	if set("timeout") && o.timeout > 0 {
		spec.Timeout = o.timeout.String()
	}
	return spec, nil
}

func parseBounds(values []string) ([][2]float64, error) {
	bounds := make([][2]float64, 0, len(values))
	for _, v := range values {
		lo, hi, ok := strings.Cut(v, ":")
		if !ok {
			return nil, fmt.Errorf("bound %q: expected min:max", v)
		}
		lower, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
		if err != nil {
			return nil, fmt.Errorf("bound %q: %w", v, err)
		}
		upper, err := strconv.ParseFloat(strings.TrimSpace(hi), 64)
		if err != nil {
			return nil, fmt.Errorf("bound %q: %w", v, err)
		}
		bounds = append(bounds, [2]float64{lower, upper})
	}
	return bounds, nil
}

func runOptimize(cmd *cobra.Command, root *rootOptions, spec job.Spec) error {
	j, err := job.Prepare(spec, job.Defaults{GridSize: 100})
	if err != nil {
		return err
	}

	logger := root.logger.WithFields(map[string]interface{}{
		"backend":    spec.BackendName(),
		"dimensions": len(spec.Bounds),
	})
	logger.Info("Starting optimization", map[string]interface{}{
		"grid_size":      j.GridSize(),
		"max_iterations": j.Limit(),
	})

	start := time.Now()
	res, runErr := j.Run(cmd.Context())
	elapsed := time.Since(start)

	out := optimizeOutput{
		Backend:     spec.BackendName(),
		Direction:   job.Minimize,
		GridSize:    j.GridSize(),
		Optimum:     res.Optimum,
		Score:       job.Score(res.Score),
		Evaluations: res.Evaluations,
		ElapsedMs:   elapsed.Milliseconds(),
	}
	if spec.Maximizing() {
		out.Direction = job.Maximize
	}

	switch {
	case runErr == nil:
	case errors.Is(runErr, context.DeadlineExceeded), errors.Is(runErr, context.Canceled):
		// Partial results are still worth printing.
		out.Stopped = runErr.Error()
		logger.Warn("Optimization stopped early", map[string]interface{}{"error": runErr})
	default:
		return runErr
	}

	logger.Info("Optimization finished", map[string]interface{}{
		"evaluations": res.Evaluations,
		"score":       res.Score,
		"elapsed_ms":  elapsed.Milliseconds(),
	})

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
