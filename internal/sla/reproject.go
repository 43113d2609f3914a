package sla

import (
	"runtime"

	"github.com/sourcegraph/conc/pool"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/copyleftdev/gridopt/internal/mesh"
)

// NearestQuerier finds the closest surface point. Implementations must be
// safe for concurrent use.
type NearestQuerier interface {
	Nearest(p r3.Vec) (face int, proj r3.Vec, sqDist float64)
}

// Positioned is implemented by pointers to point types that live on a surface.
type Positioned[T any] interface {
	*T
	Position() r3.Vec
	SetPosition(r3.Vec)
}

// chunkSize is the number of points handled by one task.
const chunkSize = 64

// buildIndex constructs the nearest-point structure for a model mesh.
var buildIndex = func(m *mesh.TriangleMesh) NearestQuerier {
	return mesh.NewIndex(m)
}

// Reprojector moves points onto a surface in parallel.
type Reprojector struct {
	workers int
}

// NewReprojector creates a Reprojector running at most workers tasks at once.
// A non-positive value uses GOMAXPROCS.
func NewReprojector(workers int) *Reprojector {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Reprojector{workers: workers}
}

// ReprojectPoints replaces every point's position with the nearest position on
// q's surface. Points are handled independently and in no particular order;
// the call returns after all of them are done.
func ReprojectPoints[T any, P Positioned[T]](r *Reprojector, q NearestQuerier, pts []T) {
	if len(pts) == 0 {
		return
	}

	p := pool.New().WithMaxGoroutines(r.workers)
	for start := 0; start < len(pts); start += chunkSize {
		chunk := pts[start:min(start+chunkSize, len(pts))]
		p.Go(func() {
			for i := range chunk {
				pt := P(&chunk[i])
				_, proj, _ := q.Nearest(pt.Position())
				pt.SetPosition(proj)
			}
		})
	}
	p.Wait()
}

// ReprojectPointsAndHoles snaps the support points and drain holes of obj onto
// its raw mesh and returns obj. A nil object, or one with neither support
// points nor drain holes, is returned untouched without building an index.
func (r *Reprojector) ReprojectPointsAndHoles(obj *ModelObject) *ModelObject {
	if obj == nil {
		return nil
	}
	hasPoints := len(obj.SupportPoints) > 0
	hasHoles := len(obj.DrainHoles) > 0
	if !hasPoints && !hasHoles {
		return obj
	}

	q := buildIndex(obj.RawMesh())

	if hasPoints {
		ReprojectPoints(r, q, obj.SupportPoints)
	}
	if hasHoles {
		ReprojectPoints(r, q, obj.DrainHoles)
	}
	return obj
}
