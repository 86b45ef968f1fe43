package silhouette

import (
	"image"
	"image/color"
	"testing"

	"go.viam.com/test"
	"gocv.io/x/gocv"
)

// skinTone is a mid-tone skin color whose OpenCV HSV lands inside the default
// segmentation range (H~13, S~109, V~210).
var skinTone = color.RGBA{R: 210, G: 160, B: 120, A: 255}

func TestExtractFindsSkinRegion(t *testing.T) {
	frame := gocv.NewMatWithSize(300, 200, gocv.MatTypeCV8UC3)
	defer frame.Close()
	gocv.Rectangle(&frame, image.Rect(60, 40, 140, 260), skinTone, -1)

	c, ok := Extract(frame, DefaultParams())
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, c.AreaPx, test.ShouldBeGreaterThan, 15000.0)

	b := c.Bounds()
	test.That(t, b.X, test.ShouldBeBetween, 55.0, 65.0)
	test.That(t, b.Width, test.ShouldBeBetween, 70.0, 90.0)
	test.That(t, b.Height, test.ShouldBeBetween, 210.0, 230.0)
	test.That(t, c.Perimeter(), test.ShouldBeGreaterThan, 0.0)
}

func TestExtractPicksLargestRegion(t *testing.T) {
	frame := gocv.NewMatWithSize(300, 300, gocv.MatTypeCV8UC3)
	defer frame.Close()
	gocv.Rectangle(&frame, image.Rect(10, 10, 40, 40), skinTone, -1)
	gocv.Rectangle(&frame, image.Rect(100, 50, 250, 280), skinTone, -1)

	c, ok := Extract(frame, DefaultParams())
	test.That(t, ok, test.ShouldBeTrue)

	b := c.Bounds()
	test.That(t, b.X, test.ShouldBeGreaterThan, 90.0)
	test.That(t, b.Width, test.ShouldBeGreaterThan, 100.0)
}

func TestExtractNoSkin(t *testing.T) {
	// A blue region is outside the skin hue range.
	frame := gocv.NewMatWithSize(300, 200, gocv.MatTypeCV8UC3)
	defer frame.Close()
	gocv.Rectangle(&frame, image.Rect(60, 40, 140, 260), color.RGBA{R: 30, G: 60, B: 220, A: 255}, -1)

	_, ok := Extract(frame, DefaultParams())
	test.That(t, ok, test.ShouldBeFalse)

	_, ok = Extract(gocv.NewMat(), DefaultParams())
	test.That(t, ok, test.ShouldBeFalse)
}

func TestExtractRejectsTinyRegions(t *testing.T) {
	frame := gocv.NewMatWithSize(300, 200, gocv.MatTypeCV8UC3)
	defer frame.Close()
	gocv.Rectangle(&frame, image.Rect(100, 100, 115, 115), skinTone, -1)

	// Below the minimum area even though the color matches.
	_, ok := Extract(frame, DefaultParams())
	test.That(t, ok, test.ShouldBeFalse)
}
