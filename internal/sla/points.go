// Package sla holds the support points and drain holes attached to a printable
// model and keeps them on the model surface.
package sla

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/copyleftdev/gridopt/internal/mesh"
)

// SupportPoint is a point where a support pillar touches the model.
type SupportPoint struct {
	Pos             r3.Vec  `json:"pos"`
	HeadFrontRadius float64 `json:"head_front_radius"`
	IsNewIsland     bool    `json:"is_new_island"`
}

// Position returns the point's location.
func (p *SupportPoint) Position() r3.Vec { return p.Pos }

// SetPosition moves the point.
func (p *SupportPoint) SetPosition(v r3.Vec) { p.Pos = v }

// DrainHole is a hole drilled into a hollowed model.
type DrainHole struct {
	Pos    r3.Vec  `json:"pos"`
	Normal r3.Vec  `json:"normal"`
	Radius float64 `json:"radius"`
	Height float64 `json:"height"`
}

// Position returns the hole's location.
func (h *DrainHole) Position() r3.Vec { return h.Pos }

// SetPosition moves the hole.
func (h *DrainHole) SetPosition(v r3.Vec) { h.Pos = v }

// ModelObject is a model together with the points attached to it.
type ModelObject struct {
	Name          string             `json:"name,omitempty"`
	Mesh          *mesh.TriangleMesh `json:"mesh"`
	SupportPoints []SupportPoint     `json:"support_points"`
	DrainHoles    []DrainHole        `json:"drain_holes"`
}

// RawMesh returns the untransformed model geometry.
func (o *ModelObject) RawMesh() *mesh.TriangleMesh {
	return o.Mesh
}
