// Package framesource loads an ordered frame sequence from a directory of
// still images. It stands in for the camera/video decoder, which is an
// external collaborator: the pipeline only needs ordered pixel buffers and
// assigns rotation angles from frame index.
package framesource

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"legcast/internal/vision"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"

	// Register formats beyond imaging's defaults.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Options configures frame loading.
type Options struct {
	// MaxDimension bounds the longer image edge; larger frames are scaled
	// down before processing. Zero disables scaling.
	MaxDimension int
}

// DefaultOptions keeps frames at a size the contour stages handle quickly.
func DefaultOptions() Options {
	return Options{MaxDimension: 1280}
}

var frameExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true,
	".bmp": true, ".tif": true, ".tiff": true,
}

// LoadDir reads every supported image in dir, ordered by the first number
// embedded in each filename (falling back to lexical order), and converts
// them to BGR Mats. The caller owns the returned Mats and must Close them.
func LoadDir(dir string, opts Options) ([]gocv.Mat, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frame directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if frameExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no frame images in %s", dir)
	}

	sort.Slice(names, func(i, j int) bool {
		ni, iok := embeddedNumber(names[i])
		nj, jok := embeddedNumber(names[j])
		if iok && jok && ni != nj {
			return ni < nj
		}
		return names[i] < names[j]
	})

	frames := make([]gocv.Mat, 0, len(names))
	for _, name := range names {
		img, err := imaging.Open(filepath.Join(dir, name))
		if err != nil {
			closeAll(frames)
			return nil, fmt.Errorf("open frame %s: %w", name, err)
		}
		if opts.MaxDimension > 0 {
			img = imaging.Fit(img, opts.MaxDimension, opts.MaxDimension, imaging.Linear)
		}
		mat, err := vision.ImageToMat(img)
		if err != nil {
			closeAll(frames)
			return nil, fmt.Errorf("convert frame %s: %w", name, err)
		}
		frames = append(frames, mat)
	}

	return frames, nil
}

// CloseAll releases every Mat in the slice.
func CloseAll(frames []gocv.Mat) {
	closeAll(frames)
}

func closeAll(frames []gocv.Mat) {
	for i := range frames {
		frames[i].Close()
	}
}

// embeddedNumber extracts the first run of digits in a filename, so
// frame_2.png sorts before frame_10.png.
func embeddedNumber(name string) (int, bool) {
	start := -1
	for i, r := range name {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			n, err := strconv.Atoi(name[start:i])
			return n, err == nil
		}
	}
	if start >= 0 {
		n, err := strconv.Atoi(name[start:])
		return n, err == nil
	}
	return 0, false
}
