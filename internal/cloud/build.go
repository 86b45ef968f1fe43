package cloud

import (
	"math"

	"legcast/pkg/geometry"

	"github.com/golang/geo/r3"
)

// Frame is one frame's silhouette ready for lifting into 3D. Contour may be
// nil when extraction found nothing; such frames contribute no points.
type Frame struct {
	Contour []geometry.PointInt
	Width   int
	Height  int
}

// Build lifts a sequence of 2D silhouettes into a 3D point cloud under a
// uniform-rotation assumption: frame i of n is assigned the rotation angle
// (i/n)*totalRotationDegrees about the vertical axis. Each contour point is
// centered on the frame, scaled to millimeters, then placed radially:
//
//	x3d = x2d*cos(angle), y3d = y2d, z3d = x2d*sin(angle)
//
// This treats the horizontal contour extent as the radial distance at every
// rotation, exact only for an axially symmetric subject. It is an accepted
// modeling approximation for orthotic fitting, and the dominant source of
// measurement error.
func Build(frames []Frame, mmPerPixel, totalRotationDegrees float64) *PointCloud {
	out := New()
	n := len(frames)
	if n == 0 || mmPerPixel <= 0 {
		return out
	}

	for i, f := range frames {
		if len(f.Contour) == 0 {
			continue
		}

		angleDeg := float64(i) / float64(n) * totalRotationDegrees
		angle := angleDeg * math.Pi / 180.0
		sin, cos := math.Sincos(angle)

		halfW := float64(f.Width) / 2.0
		halfH := float64(f.Height) / 2.0

		for _, pt := range f.Contour {
			x2d := (float64(pt.X) - halfW) * mmPerPixel
			y2d := (float64(pt.Y) - halfH) * mmPerPixel
			out.Add(r3.Vector{
				X: x2d * cos,
				Y: y2d,
				Z: x2d * sin,
			})
		}
	}

	return out
}
