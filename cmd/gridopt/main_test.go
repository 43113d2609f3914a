package main

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/gridopt/internal/job"
	"github.com/copyleftdev/gridopt/internal/version"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func decodeOutput(t *testing.T, s string) optimizeOutput {
	t.Helper()
	var out optimizeOutput
	require.NoError(t, json.Unmarshal([]byte(s), &out), s)
	return out
}

func TestOptimizeFromFlags(t *testing.T) {
	stdout, err := execute(t, "optimize",
		"--objective", "-((x0 - 5) ** 2)",
		"--bound", "0:10",
		"--direction", "max",
		"--grid-size", "11",
	)
	require.NoError(t, err)

	out := decodeOutput(t, stdout)
	assert.Equal(t, "grid", out.Backend)
	assert.Equal(t, "max", out.Direction)
	assert.Equal(t, 11, out.GridSize)
	assert.Equal(t, 11, out.Evaluations)
	require.Len(t, out.Optimum, 1)
	assert.InDelta(t, 5.0, out.Optimum[0], 1e-12)
	assert.InDelta(t, 0.0, float64(out.Score), 1e-12)
	assert.Empty(t, out.Stopped)
}

func TestOptimizeFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corners.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
objective: "x0 + x1"
bounds:
  - [0, 1]
  - [0, 1]
grid_size: 2
`), 0o644))

	stdout, err := execute(t, "optimize", "-f", path)
	require.NoError(t, err)
	out := decodeOutput(t, stdout)
	assert.Equal(t, []float64{0, 0}, out.Optimum)
	assert.Equal(t, 4, out.Evaluations)

	stdout, err = execute(t, "optimize", "-f", path, "--direction", "max")
	require.NoError(t, err)
	out = decodeOutput(t, stdout)
	assert.Equal(t, []float64{1, 1}, out.Optimum, "flags override the file")
	assert.Equal(t, job.Score(2), out.Score)
}

func TestOptimizeInfiniteScore(t *testing.T) {
	stdout, err := execute(t, "optimize",
		"--objective", "1 / x0",
		"--bound", "0:1",
		"--direction", "max",
		"--grid-size", "3",
	)
	require.NoError(t, err)
	assert.Contains(t, stdout, `"score": "+Inf"`)

	out := decodeOutput(t, stdout)
	assert.True(t, math.IsInf(float64(out.Score), 1))
	assert.Equal(t, []float64{0}, out.Optimum)
}

func TestOptimizeMaxIterations(t *testing.T) {
	stdout, err := execute(t, "optimize",
		"--objective", "x0 * x1",
		"--bound", "0:1", "--bound", "0:1",
		"--grid-size", "10",
		"--max-iterations", "25",
	)
	require.NoError(t, err)
	assert.Equal(t, 25, decodeOutput(t, stdout).Evaluations)
}

func TestOptimizeErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "no bounds", args: []string{"optimize", "--objective", "x0"}},
		{name: "bad bound", args: []string{"optimize", "--objective", "x0", "--bound", "0-1"}},
		{name: "non numeric bound", args: []string{"optimize", "--objective", "x0", "--bound", "a:1"}},
		{name: "grid too small", args: []string{"optimize", "--objective", "x0", "--bound", "0:1", "--grid-size", "1"}},
		{name: "unknown variable", args: []string{"optimize", "--objective", "x3", "--bound", "0:1"}},
		{name: "missing file", args: []string{"optimize", "-f", filepath.Join(t.TempDir(), "nope.yaml")}},
		{name: "positional args", args: []string{"optimize", "extra"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestParseBounds(t *testing.T) {
	bounds, err := parseBounds([]string{"-1:1", " 0.5 : 2.5 "})
	require.NoError(t, err)
	assert.Equal(t, [][2]float64{{-1, 1}, {0.5, 2.5}}, bounds)
}

func TestVersion(t *testing.T) {
	stdout, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, version.Version)
}
