package framesource

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"go.viam.com/test"
)

func TestEmbeddedNumber(t *testing.T) {
	for _, tc := range []struct {
		name string
		want int
		ok   bool
	}{
		{"frame_2.png", 2, true},
		{"frame_10.png", 10, true},
		{"IMG0042.jpg", 42, true},
		{"leg.png", 0, false},
		{"shot7", 7, true},
	} {
		n, ok := embeddedNumber(tc.name)
		test.That(t, ok, test.ShouldEqual, tc.ok)
		test.That(t, n, test.ShouldEqual, tc.want)
	}
}

func writeFrame(t *testing.T, dir, name string, w, h int) {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 120, G: 90, B: 60, A: 255})
	test.That(t, imaging.Save(img, filepath.Join(dir, name)), test.ShouldBeNil)
}

func TestLoadDirNumericOrder(t *testing.T) {
	dir := t.TempDir()

	// Widths encode the expected position so ordering is observable after
	// loading. Lexical order would put frame_10 before frame_2.
	writeFrame(t, dir, "frame_10.png", 30, 10)
	writeFrame(t, dir, "frame_2.png", 10, 10)
	writeFrame(t, dir, "frame_5.png", 20, 10)
	test.That(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644), test.ShouldBeNil)

	frames, err := LoadDir(dir, DefaultOptions())
	test.That(t, err, test.ShouldBeNil)
	defer CloseAll(frames)

	test.That(t, len(frames), test.ShouldEqual, 3)
	test.That(t, frames[0].Cols(), test.ShouldEqual, 10)
	test.That(t, frames[1].Cols(), test.ShouldEqual, 20)
	test.That(t, frames[2].Cols(), test.ShouldEqual, 30)
}

func TestLoadDirScalesDown(t *testing.T) {
	dir := t.TempDir()
	writeFrame(t, dir, "frame_1.png", 200, 100)

	frames, err := LoadDir(dir, Options{MaxDimension: 50})
	test.That(t, err, test.ShouldBeNil)
	defer CloseAll(frames)

	test.That(t, frames[0].Cols(), test.ShouldEqual, 50)
	test.That(t, frames[0].Rows(), test.ShouldEqual, 25)
}

func TestLoadDirEmpty(t *testing.T) {
	_, err := LoadDir(t.TempDir(), DefaultOptions())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "no frame images")

	_, err = LoadDir(filepath.Join(t.TempDir(), "missing"), DefaultOptions())
	test.That(t, err, test.ShouldNotBeNil)
}

func TestLoadDirCorruptImage(t *testing.T) {
	dir := t.TempDir()
	writeFrame(t, dir, "frame_1.png", 10, 10)
	test.That(t, os.WriteFile(filepath.Join(dir, "frame_2.png"), []byte("not a png"), 0o644), test.ShouldBeNil)

	_, err := LoadDir(dir, DefaultOptions())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "frame_2.png")
}

func TestImageBoundsPreserved(t *testing.T) {
	dir := t.TempDir()
	writeFrame(t, dir, "frame_1.png", 64, 48)

	frames, err := LoadDir(dir, Options{})
	test.That(t, err, test.ShouldBeNil)
	defer CloseAll(frames)

	test.That(t, frames[0].Cols(), test.ShouldEqual, 64)
	test.That(t, frames[0].Rows(), test.ShouldEqual, 48)
	test.That(t, frames[0].Size(), test.ShouldResemble, []int{48, 64})
}
