// Package ruler detects a reference ruler in video frames and derives the
// millimeters-per-pixel scale used by the reconstruction.
package ruler

import (
	"errors"
	"sort"

	"legcast/internal/vision"
	"legcast/pkg/geometry"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"
)

// ErrNotDetected is returned when no frame yields a ruler candidate. The
// pipeline falls back to a fixed default scale and records a warning.
var ErrNotDetected = errors.New("ruler not detected in any frame")

// Detection is a single-frame ruler detection result.
type Detection struct {
	// MillimetersPerPixel is the derived scale factor.
	MillimetersPerPixel float64
	// BoundingBox is the ruler's axis-aligned box in pixel space.
	BoundingBox geometry.RectInt
	// Confidence is in [0,1]; see Score for the blend.
	Confidence float64
}

// Params configures ruler detection.
type Params struct {
	// RulerLengthMm is the physical length of the reference ruler. The
	// bounding box height in pixels maps to this length.
	RulerLengthMm float64

	// Canny edge thresholds.
	CannyLow  float32
	CannyHigh float32

	// Accepted height/width aspect ratio range for candidates.
	MinAspectRatio float64
	MaxAspectRatio float64

	// IdealAspectRatio is the aspect ratio of a perfectly framed ruler.
	IdealAspectRatio float64

	// Candidates scoring below MinConfidence are rejected.
	MinConfidence float64

	// Frame-area fraction range considered a plausible ruler size.
	MinAreaFraction float64
	MaxAreaFraction float64
}

// DefaultParams returns detection parameters for a 30 cm ruler held
// vertically in frame.
func DefaultParams() Params {
	return Params{
		RulerLengthMm:    300.0,
		CannyLow:         50,
		CannyHigh:        150,
		MinAspectRatio:   3.0,
		MaxAspectRatio:   15.0,
		IdealAspectRatio: 10.0,
		MinConfidence:    0.3,
		MinAreaFraction:  0.05,
		MaxAreaFraction:  0.30,
	}
}

// Score computes the detection confidence for a candidate bounding box in a
// frame of the given pixel area. Aspect-ratio closeness to the ideal carries
// weight 0.7; a plausible area fraction carries weight 0.3.
func Score(p Params, box geometry.Rect, frameArea float64) float64 {
	aspect := box.AspectRatio()

	ratioDiff := aspect - p.IdealAspectRatio
	if ratioDiff < 0 {
		ratioDiff = -ratioDiff
	}
	ratioScore := 1.0 - ratioDiff/p.IdealAspectRatio
	if ratioScore < 0 {
		ratioScore = 0
	}

	areaScore := 0.5
	if frameArea > 0 {
		frac := box.Area() / frameArea
		if frac >= p.MinAreaFraction && frac <= p.MaxAreaFraction {
			areaScore = 1.0
		}
	}

	return 0.7*ratioScore + 0.3*areaScore
}

// Detect runs single-frame ruler detection: grayscale, Canny edges, external
// contours, then aspect-ratio filtering of candidate bounding boxes. The
// candidate with the largest box area wins, provided it clears the confidence
// floor. Returns (nil, false) when nothing qualifies.
func Detect(img gocv.Mat, p Params) (*Detection, bool) {
	if img.Empty() {
		return nil, false
	}
	vision.EnsureInitialized()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, p.CannyLow, p.CannyHigh)

	contours := gocv.FindContours(edges, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	frameArea := float64(img.Rows() * img.Cols())

	var best *Detection
	bestArea := 0.0
	for i := 0; i < contours.Size(); i++ {
		r := gocv.BoundingRect(contours.At(i))
		box := geometry.RectInt{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
		fbox := box.ToFloat()

		aspect := fbox.AspectRatio()
		if aspect <= p.MinAspectRatio || aspect >= p.MaxAspectRatio {
			continue
		}
		if fbox.Area() <= bestArea {
			continue
		}

		conf := Score(p, fbox, frameArea)
		if conf <= p.MinConfidence {
			continue
		}

		bestArea = fbox.Area()
		best = &Detection{
			MillimetersPerPixel: p.RulerLengthMm / fbox.Height,
			BoundingBox:         box,
			Confidence:          conf,
		}
	}

	return best, best != nil
}

// Calibrate runs detection over every frame and aggregates to a robust scale
// estimate: the mean millimeters-per-pixel of the top three detections by
// confidence, reported alongside the single best detection's box and
// confidence. Returns ErrNotDetected if no frame yields a detection.
func Calibrate(frames []gocv.Mat, p Params) (*Detection, error) {
	var detections []*Detection
	for _, f := range frames {
		if d, ok := Detect(f, p); ok {
			detections = append(detections, d)
		}
	}
	if len(detections) == 0 {
		return nil, ErrNotDetected
	}

	sort.Slice(detections, func(i, j int) bool {
		return detections[i].Confidence > detections[j].Confidence
	})

	top := detections
	if len(top) > 3 {
		top = top[:3]
	}
	ratios := make([]float64, len(top))
	for i, d := range top {
		ratios[i] = d.MillimetersPerPixel
	}

	best := detections[0]
	return &Detection{
		MillimetersPerPixel: stat.Mean(ratios, nil),
		BoundingBox:         best.BoundingBox,
		Confidence:          best.Confidence,
	}, nil
}
