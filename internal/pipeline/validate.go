package pipeline

import (
	"fmt"
)

// Level grades a validation finding.
type Level int

// Severity order: ERROR dominates WARNING dominates OK.
const (
	LevelOK Level = iota
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelOK:
		return "OK"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// ValidationResult summarizes run quality for the caller's display. Level is
// the maximum severity across the independent sub-checks; Messages keeps
// their findings in check order.
type ValidationResult struct {
	Level    Level
	Messages []string
	Details  map[string]string
}

func (v *ValidationResult) add(level Level, msg string) {
	if level > v.Level {
		v.Level = level
	}
	v.Messages = append(v.Messages, msg)
}

func (v *ValidationResult) detail(key, format string, args ...interface{}) {
	v.Details[key] = fmt.Sprintf(format, args...)
}

// Plausible measurement ranges for an adult lower leg, in millimeters.
// Values outside these are capture faults (bad scale, truncated scan), not
// anatomy.
const (
	minAnkleCircumferenceMm = 100
	maxAnkleCircumferenceMm = 400
	minCalfCircumferenceMm  = 150
	maxCalfCircumferenceMm  = 650
	minTotalLengthMm        = 150
	maxTotalLengthMm        = 800
)

const (
	minUsableFrames    = 8
	minContourFraction = 0.5
	minCloudPoints     = 500
	maxEmptyBandRatio  = 0.5
)

// validate runs the independent quality sub-checks over a completed run.
func validate(res *Result) ValidationResult {
	v := ValidationResult{Details: make(map[string]string)}

	// Ruler detection.
	if res.ScaleFallback {
		v.add(LevelWarning, "ruler not detected in any frame; using default scale")
		v.detail("scale_mm_per_px", "%.4f (default)", res.MmPerPixel)
	} else {
		v.detail("scale_mm_per_px", "%.4f", res.MmPerPixel)
		v.detail("ruler_confidence", "%.2f", res.Scale.Confidence)
		if res.Scale.Confidence < 0.5 {
			v.add(LevelWarning, fmt.Sprintf("low ruler detection confidence %.2f", res.Scale.Confidence))
		}
	}

	// Frame coverage.
	v.detail("frames", "%d total, %d with silhouette", res.FramesTotal, res.FramesWithContour)
	switch {
	case res.FramesTotal == 0:
		v.add(LevelError, "no input frames")
	case res.FramesTotal < minUsableFrames:
		v.add(LevelWarning, fmt.Sprintf("only %d frames; rotation coverage is sparse", res.FramesTotal))
	}
	if res.FramesTotal > 0 {
		frac := float64(res.FramesWithContour) / float64(res.FramesTotal)
		if frac < minContourFraction {
			v.add(LevelWarning, fmt.Sprintf("silhouette found in only %d of %d frames", res.FramesWithContour, res.FramesTotal))
		}
	}

	// Measurement plausibility.
	m := res.Measurements
	v.detail("ankle_mm", "%.1f", m.AnkleCircumferenceMm)
	v.detail("calf_mm", "%.1f", m.CalfCircumferenceMm)
	v.detail("length_mm", "%.1f", m.TotalLengthMm)
	if m.AnkleCircumferenceMm <= 0 || m.CalfCircumferenceMm <= 0 || m.TotalLengthMm <= 0 {
		v.add(LevelError, "one or more measurements are zero; reconstruction did not cover the leg")
	} else {
		if m.AnkleCircumferenceMm < minAnkleCircumferenceMm || m.AnkleCircumferenceMm > maxAnkleCircumferenceMm {
			v.add(LevelWarning, fmt.Sprintf("ankle circumference %.0f mm outside plausible range", m.AnkleCircumferenceMm))
		}
		if m.CalfCircumferenceMm < minCalfCircumferenceMm || m.CalfCircumferenceMm > maxCalfCircumferenceMm {
			v.add(LevelWarning, fmt.Sprintf("calf circumference %.0f mm outside plausible range", m.CalfCircumferenceMm))
		}
		if m.TotalLengthMm < minTotalLengthMm || m.TotalLengthMm > maxTotalLengthMm {
			v.add(LevelWarning, fmt.Sprintf("leg length %.0f mm outside plausible range", m.TotalLengthMm))
		}
	}

	// Reconstruction density.
	v.detail("points", "%d", res.PointCount)
	v.detail("triangles", "%d", res.TriangleCount)
	if res.PointCount < minCloudPoints {
		v.add(LevelWarning, fmt.Sprintf("sparse reconstruction: %d points", res.PointCount))
	}
	if res.MeshStats.NumSlices > 0 {
		ratio := float64(res.MeshStats.SkippedBands) / float64(res.MeshStats.NumSlices)
		v.detail("empty_band_ratio", "%.2f", ratio)
		if ratio > maxEmptyBandRatio {
			v.add(LevelWarning, fmt.Sprintf("%d of %d slices had too few points", res.MeshStats.SkippedBands, res.MeshStats.NumSlices))
		}
	}
	if res.UsedFallbackMesh {
		v.add(LevelWarning, "surface reconstruction failed; exported a coarse cylindrical approximation")
	}
	if !res.ThickeningApplied {
		v.add(LevelWarning, "wall thickening skipped; exported the unthickened surface")
	}

	if len(v.Messages) == 0 {
		v.add(LevelOK, "all checks passed")
	}
	return v
}
