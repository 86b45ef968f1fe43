// Package silhouette extracts the leg's 2D outline from a color frame by
// skin-color segmentation.
package silhouette

import (
	"legcast/internal/vision"
	"legcast/pkg/geometry"

	"gocv.io/x/gocv"
)

// Contour is an ordered polygon of pixel points bounding the largest
// skin-colored region of one frame.
type Contour struct {
	Points []geometry.PointInt
	// AreaPx is the enclosed pixel area reported by the contour finder.
	AreaPx float64
}

// Bounds returns the contour's bounding box in pixel space.
func (c Contour) Bounds() geometry.Rect {
	pts := make([]geometry.Point2D, len(c.Points))
	for i, p := range c.Points {
		pts[i] = p.ToFloat()
	}
	return geometry.BoundingBox(pts)
}

// Perimeter returns the closed perimeter length in pixels.
func (c Contour) Perimeter() float64 {
	pts := make([]geometry.Point2D, len(c.Points))
	for i, p := range c.Points {
		pts[i] = p.ToFloat()
	}
	return geometry.PolygonPerimeter(pts)
}

// Params configures skin segmentation. Ranges are in OpenCV HSV convention
// (H 0-180, S and V 0-255).
type Params struct {
	HueMin, HueMax float64
	SatMin, SatMax float64
	ValMin, ValMax float64

	// KernelSize is the elliptical structuring element edge used for the
	// close-then-open cleanup pass.
	KernelSize int

	// MinAreaPx rejects contours smaller than this many pixels.
	MinAreaPx float64
}

// DefaultParams returns a skin-hue range that covers common lighting.
// Lighting and skin-tone variance are the known accuracy risk here; the
// range is deliberately wide and the downstream validation reports frames
// that produced no contour.
func DefaultParams() Params {
	return Params{
		HueMin: 0, HueMax: 25,
		SatMin: 40, SatMax: 255,
		ValMin: 60, ValMax: 255,
		KernelSize: 5,
		MinAreaPx:  500,
	}
}

// Extract segments skin-colored pixels and returns the largest external
// contour as an ordered polygon. Returns (nil, false) when no contour meets
// the criteria; per-frame misses are tolerated by the caller.
func Extract(img gocv.Mat, p Params) (*Contour, bool) {
	if img.Empty() {
		return nil, false
	}
	vision.EnsureInitialized()

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(img, &hsv, gocv.ColorBGRToHSV)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.InRangeWithScalar(hsv,
		gocv.NewScalar(p.HueMin, p.SatMin, p.ValMin, 0),
		gocv.NewScalar(p.HueMax, p.SatMax, p.ValMax, 0),
		&mask)

	cleaned := vision.CleanupMask(mask, p.KernelSize)
	defer cleaned.Close()

	pts, area := vision.LargestExternalContour(cleaned)
	if pts == nil || area < p.MinAreaPx {
		return nil, false
	}

	contour := &Contour{
		Points: make([]geometry.PointInt, len(pts)),
		AreaPx: area,
	}
	for i, pt := range pts {
		contour.Points[i] = geometry.PointInt{X: pt.X, Y: pt.Y}
	}
	return contour, true
}
