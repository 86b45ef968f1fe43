// Package mesh builds, smooths, and thickens the triangulated leg surface.
package mesh

import (
	"math"

	"legcast/internal/cloud"

	"github.com/golang/geo/r3"
)

// Triangle is a single mesh facet. Vertex order determines the facing of the
// derived normal.
type Triangle struct {
	V1, V2, V3 r3.Vector
}

// Normal returns the unit face normal via the cross product of (V2-V1) and
// (V3-V1). A degenerate (zero-length) cross product defaults to (0,1,0).
// Non-finite vertex coordinates propagate into the result; callers that
// cannot tolerate them must check with IsFinite.
func (t Triangle) Normal() r3.Vector {
	n := t.V2.Sub(t.V1).Cross(t.V3.Sub(t.V1))
	norm := n.Norm()
	if norm == 0 {
		return r3.Vector{X: 0, Y: 1, Z: 0}
	}
	return n.Mul(1.0 / norm)
}

// Vertices returns the three vertices in order.
func (t Triangle) Vertices() [3]r3.Vector {
	return [3]r3.Vector{t.V1, t.V2, t.V3}
}

// IsFinite reports whether every vertex coordinate is a finite number.
func (t Triangle) IsFinite() bool {
	for _, v := range t.Vertices() {
		if !isFiniteVec(v) {
			return false
		}
	}
	return true
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func isFiniteVec(v r3.Vector) bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

// Mesh is an ordered collection of triangles with cached bounds. Triangle
// order is insertion order; the STL writer preserves it.
type Mesh struct {
	Triangles []Triangle

	bounds cloud.MetaData
}

// NewMesh returns an empty mesh.
func NewMesh() *Mesh {
	return &Mesh{bounds: cloud.NewMetaData()}
}

// Add appends a triangle and merges its vertices into the bounds.
func (m *Mesh) Add(t Triangle) {
	m.Triangles = append(m.Triangles, t)
	m.bounds.Merge(t.V1)
	m.bounds.Merge(t.V2)
	m.bounds.Merge(t.V3)
}

// Size returns the triangle count.
func (m *Mesh) Size() int {
	return len(m.Triangles)
}

// Bounds returns the min and max corners of the mesh's bounding box.
func (m *Mesh) Bounds() (r3.Vector, r3.Vector) {
	if len(m.Triangles) == 0 {
		return r3.Vector{}, r3.Vector{}
	}
	b := m.bounds
	return r3.Vector{X: b.MinX, Y: b.MinY, Z: b.MinZ},
		r3.Vector{X: b.MaxX, Y: b.MaxY, Z: b.MaxZ}
}
