package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"legcast/internal/stl"
	"legcast/internal/version"
)

// Artifacts names the three files a run produces. All share the run
// timestamp so they correlate on disk.
type Artifacts struct {
	STL          string
	Measurements string
	Log          string
}

func artifactNames(stamp string) Artifacts {
	return Artifacts{
		STL:          fmt.Sprintf("legcast_%s.stl", stamp),
		Measurements: fmt.Sprintf("legcast_%s.json", stamp),
		Log:          fmt.Sprintf("legcast_%s.log", stamp),
	}
}

func (p *Pipeline) writeSTL(dir string, res *Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	path := filepath.Join(dir, res.Artifacts.STL)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create stl: %w", err)
	}
	defer f.Close()

	header := fmt.Sprintf("legcast v%s cast shell", version.Version)
	if err := stl.WriteBinary(f, res.Mesh, header); err != nil {
		os.Remove(path)
		return fmt.Errorf("export stl: %w", err)
	}
	return nil
}

// reportDoc is the measurement JSON schema consumed by collaborators. Field
// names are part of the contract.
type reportDoc struct {
	Timestamp    int64          `json:"timestamp"`
	Date         string         `json:"date"`
	Measurements measurementDoc `json:"measurements"`
	Model        modelDoc       `json:"model"`
	Processing   processingDoc  `json:"processing"`
	Files        filesDoc       `json:"files"`
}

type measurementDoc struct {
	AnkleCircumferenceMm float64 `json:"ankleCircumference_mm"`
	CalfCircumferenceMm  float64 `json:"calfCircumference_mm"`
	TotalLengthMm        float64 `json:"totalLength_mm"`
}

type modelDoc struct {
	PointCount    int `json:"pointCount"`
	TriangleCount int `json:"triangleCount"`
}

type processingDoc struct {
	VideoCount            int     `json:"videoCount"`
	ProcessingTimeMs      int64   `json:"processingTime_ms"`
	ProcessingTimeSeconds float64 `json:"processingTime_seconds"`
}

type filesDoc struct {
	STL          string `json:"stl"`
	Measurements string `json:"measurements"`
	Log          string `json:"log"`
}

func (p *Pipeline) writeReport(dir string, res *Result) error {
	doc := reportDoc{
		Timestamp: p.start.UnixMilli(),
		Date:      p.start.Format("2006-01-02 15:04:05"),
		Measurements: measurementDoc{
			AnkleCircumferenceMm: res.Measurements.AnkleCircumferenceMm,
			CalfCircumferenceMm:  res.Measurements.CalfCircumferenceMm,
			TotalLengthMm:        res.Measurements.TotalLengthMm,
		},
		Model: modelDoc{
			PointCount:    res.PointCount,
			TriangleCount: res.TriangleCount,
		},
		Processing: processingDoc{
			VideoCount:            p.cfg.InputVideoCount,
			ProcessingTimeMs:      res.ProcessingTime.Milliseconds(),
			ProcessingTimeSeconds: res.ProcessingTime.Seconds(),
		},
		Files: filesDoc{
			STL:          res.Artifacts.STL,
			Measurements: res.Artifacts.Measurements,
			Log:          res.Artifacts.Log,
		},
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, res.Artifacts.Measurements), data, 0o644); err != nil {
		return fmt.Errorf("write measurement json: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, res.Artifacts.Log), []byte(p.renderLog(res)), 0o644); err != nil {
		return fmt.Errorf("write processing log: %w", err)
	}
	return nil
}

// renderLog produces the human-readable run transcript: summary sections
// followed by every recorded event with its millisecond offset. The format
// is descriptive only; nothing machine-parses it.
func (p *Pipeline) renderLog(res *Result) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "legcast v%s processing log\n", version.Version)
	fmt.Fprintf(&sb, "run started %s\n\n", p.start.Format(time.RFC3339))

	sb.WriteString("== input ==\n")
	fmt.Fprintf(&sb, "videos: %d\n", p.cfg.InputVideoCount)
	fmt.Fprintf(&sb, "frames: %d (%d with silhouette)\n", res.FramesTotal, res.FramesWithContour)
	fmt.Fprintf(&sb, "rotation: %.0f degrees assumed uniform\n\n", p.cfg.TotalRotationDegrees)

	sb.WriteString("== calibration ==\n")
	if res.ScaleFallback {
		fmt.Fprintf(&sb, "ruler: not detected, default scale %.4f mm/px\n\n", res.MmPerPixel)
	} else {
		fmt.Fprintf(&sb, "ruler: %.4f mm/px, confidence %.2f, box %dx%d px\n\n",
			res.MmPerPixel, res.Scale.Confidence,
			res.Scale.BoundingBox.Width, res.Scale.BoundingBox.Height)
	}

	sb.WriteString("== reconstruction ==\n")
	fmt.Fprintf(&sb, "points: %d (downsample tier %d)\n", res.PointCount, res.DownsampleTier)
	fmt.Fprintf(&sb, "triangles: %d\n", res.TriangleCount)
	fmt.Fprintf(&sb, "slices: %d (%d skipped)\n", res.MeshStats.NumSlices, res.MeshStats.SkippedBands)
	fmt.Fprintf(&sb, "fallback mesh: %v\n", res.UsedFallbackMesh)
	fmt.Fprintf(&sb, "thickened: %v (%.1f mm)\n", res.ThickeningApplied, p.cfg.WallThicknessMm)
	fmt.Fprintf(&sb, "validation: %s\n", res.Validation.Level)
	for _, msg := range res.Validation.Messages {
		fmt.Fprintf(&sb, "  - %s\n", msg)
	}
	sb.WriteString("\n== detailed log ==\n")

	p.mu.Lock()
	events := p.events
	p.mu.Unlock()
	for _, e := range events {
		fmt.Fprintf(&sb, "[%8dms] %s\n", e.offset.Milliseconds(), e.message)
	}

	return sb.String()
}
