// Package vision provides shared OpenCV glue: image conversion, morphological
// cleanup, and one-time backend initialization.
package vision

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

var initOnce sync.Once

// EnsureInitialized performs process-wide vision backend setup. It is
// idempotent and safe to call from multiple goroutines; every pipeline
// entry point calls it before touching a Mat.
func EnsureInitialized() {
	initOnce.Do(func() {
		// gocv binds OpenCV statically, so there is no runtime loader to
		// invoke. Warming up a Mat here surfaces a broken native install
		// at startup instead of mid-pipeline.
		m := gocv.NewMatWithSize(1, 1, gocv.MatTypeCV8U)
		m.Close()
	})
}

// ImageToMat converts a Go image.Image to a gocv.Mat in BGR byte order.
func ImageToMat(img image.Image) (gocv.Mat, error) {
	if img == nil {
		return gocv.Mat{}, fmt.Errorf("nil image")
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return gocv.Mat{}, fmt.Errorf("empty image bounds %v", bounds)
	}

	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			mat.SetUCharAt(y, x*3+0, uint8(b>>8))
			mat.SetUCharAt(y, x*3+1, uint8(g>>8))
			mat.SetUCharAt(y, x*3+2, uint8(r>>8))
		}
	}

	return mat, nil
}

// CleanupMask applies a morphological close followed by an open with an
// elliptical structuring element, removing speckle noise and filling small
// gaps in a binary mask.
func CleanupMask(mask gocv.Mat, kernelSize int) gocv.Mat {
	if mask.Empty() {
		return gocv.NewMat()
	}
	if kernelSize < 3 {
		kernelSize = 3
	}

	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Point{kernelSize, kernelSize})
	defer kernel.Close()

	cleaned := gocv.NewMat()
	gocv.MorphologyEx(mask, &cleaned, gocv.MorphClose, kernel)
	gocv.MorphologyEx(cleaned, &cleaned, gocv.MorphOpen, kernel)

	return cleaned
}

// LargestExternalContour finds external contours in a binary mask and returns
// the one with the greatest enclosed area as pixel points, along with that
// area. Returns nil if the mask contains no contours.
func LargestExternalContour(mask gocv.Mat) ([]image.Point, float64) {
	if mask.Empty() {
		return nil, 0
	}

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	best := -1
	bestArea := 0.0
	for i := 0; i < contours.Size(); i++ {
		area := gocv.ContourArea(contours.At(i))
		if best < 0 || area > bestArea {
			best = i
			bestArea = area
		}
	}
	if best < 0 {
		return nil, 0
	}

	pts := contours.At(best).ToPoints()
	out := make([]image.Point, len(pts))
	copy(out, pts)
	return out, bestArea
}
