package ruler

import (
	"image"
	"image/color"
	"math"
	"testing"

	"legcast/pkg/geometry"

	"go.viam.com/test"
	"gocv.io/x/gocv"
)

func TestScoreIdealAspect(t *testing.T) {
	p := DefaultParams()

	// Ideal 10:1 aspect but implausibly small area: 0.7*1.0 + 0.3*0.5.
	box := geometry.NewRect(0, 0, 10, 100)
	test.That(t, Score(p, box, 100000), test.ShouldAlmostEqual, 0.85)

	// Same aspect with a plausible area fraction scores the full blend.
	big := geometry.NewRect(0, 0, 100, 1000)
	test.That(t, Score(p, big, 1000000), test.ShouldAlmostEqual, 1.0)
}

func TestScoreMonotonicInAspect(t *testing.T) {
	p := DefaultParams()

	// Hold area fixed inside the plausible fraction range and sweep the
	// aspect ratio away from ideal: confidence must strictly decrease.
	const frameArea = 100000.0
	const boxArea = 10000.0 // fraction 0.1

	prev := 2.0
	for _, aspect := range []float64{10, 11, 12.5, 14, 16, 19} {
		w := math.Sqrt(boxArea / aspect)
		box := geometry.NewRect(0, 0, w, w*aspect)
		s := Score(p, box, frameArea)
		test.That(t, s, test.ShouldBeLessThan, prev)
		prev = s
	}
}

func TestDetectSyntheticRuler(t *testing.T) {
	// A white 20x160 bar on black: aspect 8, well inside the candidate
	// window, mapping 300 mm onto ~160 px.
	frame := gocv.NewMatWithSize(400, 200, gocv.MatTypeCV8UC3)
	defer frame.Close()
	gocv.Rectangle(&frame, image.Rect(90, 120, 110, 280), color.RGBA{R: 255, G: 255, B: 255, A: 255}, -1)

	det, ok := Detect(frame, DefaultParams())
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, det.BoundingBox.Height, test.ShouldBeBetween, 155, 165)
	test.That(t, det.MillimetersPerPixel, test.ShouldAlmostEqual, 300.0/160.0, 0.1)
	test.That(t, det.Confidence, test.ShouldBeGreaterThan, 0.3)
}

func TestDetectRejectsBlankFrame(t *testing.T) {
	frame := gocv.NewMatWithSize(400, 200, gocv.MatTypeCV8UC3)
	defer frame.Close()

	_, ok := Detect(frame, DefaultParams())
	test.That(t, ok, test.ShouldBeFalse)

	_, ok = Detect(gocv.NewMat(), DefaultParams())
	test.That(t, ok, test.ShouldBeFalse)
}

func TestCalibrateAggregatesTopDetections(t *testing.T) {
	var frames []gocv.Mat
	for i := 0; i < 5; i++ {
		f := gocv.NewMatWithSize(400, 200, gocv.MatTypeCV8UC3)
		gocv.Rectangle(&f, image.Rect(90, 120, 110, 280), color.RGBA{R: 255, G: 255, B: 255, A: 255}, -1)
		frames = append(frames, f)
	}
	defer func() {
		for i := range frames {
			frames[i].Close()
		}
	}()

	det, err := Calibrate(frames, DefaultParams())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, det.MillimetersPerPixel, test.ShouldAlmostEqual, 300.0/160.0, 0.1)
}

func TestCalibrateNoDetections(t *testing.T) {
	blank := gocv.NewMatWithSize(100, 100, gocv.MatTypeCV8UC3)
	defer blank.Close()

	_, err := Calibrate([]gocv.Mat{blank}, DefaultParams())
	test.That(t, err, test.ShouldBeError, ErrNotDetected)
}
