// Package cloud defines the reconstruction point cloud and the operations
// that create and reduce it. Coordinates are millimeters; Y is the vertical
// axis and X/Z span the horizontal cross-section plane.
package cloud

import (
	"math"

	"github.com/golang/geo/r3"
)

// MetaData tracks the running bounds of a point cloud as points are added.
type MetaData struct {
	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64
}

// NewMetaData returns bounds primed for merging.
func NewMetaData() MetaData {
	return MetaData{
		MinX: math.MaxFloat64, MaxX: -math.MaxFloat64,
		MinY: math.MaxFloat64, MaxY: -math.MaxFloat64,
		MinZ: math.MaxFloat64, MaxZ: -math.MaxFloat64,
	}
}

// Merge extends the bounds to include p.
func (m *MetaData) Merge(p r3.Vector) {
	if p.X < m.MinX {
		m.MinX = p.X
	}
	if p.X > m.MaxX {
		m.MaxX = p.X
	}
	if p.Y < m.MinY {
		m.MinY = p.Y
	}
	if p.Y > m.MaxY {
		m.MaxY = p.Y
	}
	if p.Z < m.MinZ {
		m.MinZ = p.Z
	}
	if p.Z > m.MaxZ {
		m.MaxZ = p.Z
	}
}

// HeightRange returns the vertical extent of the cloud, or 0 when empty.
func (m MetaData) HeightRange() float64 {
	if m.MaxY < m.MinY {
		return 0
	}
	return m.MaxY - m.MinY
}

// PointCloud is an unordered collection of 3D points with cached bounds.
type PointCloud struct {
	points []r3.Vector
	meta   MetaData
}

// New returns an empty PointCloud.
func New() *PointCloud {
	return NewWithPrealloc(0)
}

// NewWithPrealloc returns an empty PointCloud with capacity for size points.
func NewWithPrealloc(size int) *PointCloud {
	return &PointCloud{
		points: make([]r3.Vector, 0, size),
		meta:   NewMetaData(),
	}
}

// Add appends a point to the cloud and merges it into the bounds.
func (c *PointCloud) Add(p r3.Vector) {
	c.points = append(c.points, p)
	c.meta.Merge(p)
}

// Size returns the number of points in the cloud.
func (c *PointCloud) Size() int {
	return len(c.points)
}

// Points returns the backing point slice. Callers must not mutate it.
func (c *PointCloud) Points() []r3.Vector {
	return c.points
}

// MetaData returns the cloud's bounds.
func (c *PointCloud) MetaData() MetaData {
	return c.meta
}

// Iterate calls fn for every point until fn returns false.
func (c *PointCloud) Iterate(fn func(p r3.Vector) bool) {
	for _, p := range c.points {
		if !fn(p) {
			return
		}
	}
}
