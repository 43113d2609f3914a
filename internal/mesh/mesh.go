// Package mesh holds triangle meshes and answers nearest-surface-point queries
// against them.
package mesh

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// TriangleMesh is an indexed triangle soup. Each face references three
// entries of Vertices.
type TriangleMesh struct {
	Vertices []r3.Vec `json:"vertices"`
	Faces    [][3]int `json:"faces"`
}

// Empty reports whether the mesh has no faces.
func (m *TriangleMesh) Empty() bool {
	return m == nil || len(m.Faces) == 0
}

// Validate checks that every face references existing vertices.
func (m *TriangleMesh) Validate() error {
	for i, f := range m.Faces {
		for _, v := range f {
			if v < 0 || v >= len(m.Vertices) {
				return fmt.Errorf("mesh: face %d references vertex %d of %d", i, v, len(m.Vertices))
			}
		}
	}
	return nil
}

// Triangle returns the corners of face i.
func (m *TriangleMesh) Triangle(i int) (a, b, c r3.Vec) {
	f := m.Faces[i]
	return m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
}

// Quad returns a mesh of the axis-aligned rectangle spanned by lo and hi in
// the plane z = lo.Z, split into two triangles. It is mostly useful in tests
// and examples.
func Quad(lo, hi r3.Vec) *TriangleMesh {
	return &TriangleMesh{
		Vertices: []r3.Vec{
			{X: lo.X, Y: lo.Y, Z: lo.Z},
			{X: hi.X, Y: lo.Y, Z: lo.Z},
			{X: hi.X, Y: hi.Y, Z: lo.Z},
			{X: lo.X, Y: hi.Y, Z: lo.Z},
		},
		Faces: [][3]int{{0, 1, 2}, {0, 2, 3}},
	}
}
