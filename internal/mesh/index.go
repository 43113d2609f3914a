package mesh

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Index answers nearest-point queries against a mesh. It is immutable after
// construction and safe for concurrent use.
type Index struct {
	mesh  *TriangleMesh
	boxes []r3.Box
}

// NewIndex precomputes per-face bounding boxes for m. The mesh must not be
// modified while the index is in use. A nil mesh yields an empty index.
func NewIndex(m *TriangleMesh) *Index {
	if m == nil {
		m = &TriangleMesh{}
	}
	idx := &Index{mesh: m, boxes: make([]r3.Box, len(m.Faces))}
	for i := range m.Faces {
		a, b, c := m.Triangle(i)
		idx.boxes[i] = r3.Box{
			Min: r3.Vec{X: min(a.X, b.X, c.X), Y: min(a.Y, b.Y, c.Y), Z: min(a.Z, b.Z, c.Z)},
			Max: r3.Vec{X: max(a.X, b.X, c.X), Y: max(a.Y, b.Y, c.Y), Z: max(a.Z, b.Z, c.Z)},
		}
	}
	return idx
}

// Nearest returns the face closest to p, the closest point on that face and
// the squared distance between the two. On an empty mesh it returns -1, p and
// +Inf.
func (idx *Index) Nearest(p r3.Vec) (face int, proj r3.Vec, sqDist float64) {
	face, proj, sqDist = -1, p, math.Inf(1)
	for i, box := range idx.boxes {
		if boxSqDist(box, p) > sqDist {
			continue
		}
		a, b, c := idx.mesh.Triangle(i)
		q := closestOnTriangle(p, a, b, c)
		if d := r3.Norm2(r3.Sub(p, q)); d < sqDist {
			face, proj, sqDist = i, q, d
		}
	}
	return face, proj, sqDist
}

func boxSqDist(b r3.Box, p r3.Vec) float64 {
	dx := math.Max(0, math.Max(b.Min.X-p.X, p.X-b.Max.X))
	dy := math.Max(0, math.Max(b.Min.Y-p.Y, p.Y-b.Max.Y))
	dz := math.Max(0, math.Max(b.Min.Z-p.Z, p.Z-b.Max.Z))
	return dx*dx + dy*dy + dz*dz
}

// closestOnTriangle returns the point of triangle abc closest to p by
// classifying p against the Voronoi regions of the vertices, edges and face.
func closestOnTriangle(p, a, b, c r3.Vec) r3.Vec {
	ab := r3.Sub(b, a)
	ac := r3.Sub(c, a)
	ap := r3.Sub(p, a)

	d1, d2 := r3.Dot(ab, ap), r3.Dot(ac, ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}

	bp := r3.Sub(p, b)
	d3, d4 := r3.Dot(ab, bp), r3.Dot(ac, bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return r3.Add(a, r3.Scale(v, ab))
	}

	cp := r3.Sub(p, c)
	d5, d6 := r3.Dot(ab, cp), r3.Dot(ac, cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return r3.Add(a, r3.Scale(w, ac))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return r3.Add(b, r3.Scale(w, r3.Sub(c, b)))
	}

	denom := 1 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	return r3.Add(a, r3.Add(r3.Scale(v, ab), r3.Scale(w, ac)))
}
