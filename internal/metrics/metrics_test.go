package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStarted(t *testing.T) {
	m := New(nil)

	done := m.JobStarted("grid")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveJobs))

	done("completed", 121)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveJobs))
	assert.Equal(t, 121.0, testutil.ToFloat64(m.Evaluations.WithLabelValues("grid")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.JobDuration))
}

func TestReprojected(t *testing.T) {
	m := New(nil)
	m.Reprojected("support_point", 3)
	m.Reprojected("support_point", 2)
	m.Reprojected("drain_hole", 1)

	assert.Equal(t, 5.0, testutil.ToFloat64(m.ReprojectedPoints.WithLabelValues("support_point")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReprojectedPoints.WithLabelValues("drain_hole")))
}

func TestRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.Reprojected("drain_hole", 1)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "gridopt_reprojected_points_total")
	assert.Contains(t, names, "gridopt_active_jobs")
}
