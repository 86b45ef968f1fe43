// Command legcast reconstructs a lower-leg cast shell from a rotating-camera
// frame sequence and writes the printable STL, measurement JSON, and
// processing log.
package main

import (
	"flag"
	"fmt"
	"os"

	"legcast/internal/framesource"
	"legcast/internal/pipeline"
	"legcast/internal/version"

	"github.com/edaniels/golog"
)

func main() {
	framesDir := flag.String("frames", "", "Directory of ordered frame images (JPEG, PNG, TIFF, or BMP)")
	outDir := flag.String("out", ".", "Output directory for STL, JSON, and log files")
	thickness := flag.Float64("thickness", 3.0, "Cast wall thickness in mm (0 disables thickening)")
	rulerLength := flag.Float64("ruler", 300.0, "Physical length of the reference ruler in mm")
	rotation := flag.Float64("rotation", 360.0, "Total camera rotation covered by the frames, degrees")
	smooth := flag.Bool("smooth", true, "Apply Laplacian mesh smoothing")
	smoothIters := flag.Int("smooth-iters", 3, "Smoothing iteration count")
	slices := flag.Int("slices", 12, "Target horizontal slice count")
	voxel := flag.Float64("voxel", 2.0, "Downsampling voxel edge in mm")
	verbose := flag.Bool("verbose", false, "Debug logging")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("legcast v%s (%s, built %s)\n", version.Version, version.GitCommit, version.BuildTime)
		return
	}
	if *framesDir == "" {
		fmt.Println("Usage: legcast -frames <dir> [-out <dir>] [-thickness 3.0] [-ruler 300]")
		os.Exit(1)
	}

	logger := golog.NewLogger("legcast")
	if *verbose {
		logger = golog.NewDevelopmentLogger("legcast")
	}

	frames, err := framesource.LoadDir(*framesDir, framesource.DefaultOptions())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load frames: %v\n", err)
		os.Exit(1)
	}
	defer framesource.CloseAll(frames)
	fmt.Printf("Loaded %d frames from %s\n", len(frames), *framesDir)

	cfg := pipeline.DefaultConfig()
	cfg.WallThicknessMm = *thickness
	cfg.Ruler.RulerLengthMm = *rulerLength
	cfg.TotalRotationDegrees = *rotation
	cfg.SmoothingEnabled = *smooth
	cfg.SmoothingIterations = *smoothIters
	cfg.Mesh.TargetSlices = *slices
	cfg.VoxelSizeMm = *voxel

	p := pipeline.New(cfg, logger, consoleListener{})
	res, err := p.Run(frames, *outDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Reconstruction failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nMeasurements:\n")
	fmt.Printf("  Ankle circumference: %.1f mm\n", res.Measurements.AnkleCircumferenceMm)
	fmt.Printf("  Calf circumference:  %.1f mm\n", res.Measurements.CalfCircumferenceMm)
	fmt.Printf("  Total length:        %.1f mm\n", res.Measurements.TotalLengthMm)
	fmt.Printf("\nModel: %d points, %d triangles (%.1fs)\n",
		res.PointCount, res.TriangleCount, res.ProcessingTime.Seconds())

	fmt.Printf("\nValidation: %s\n", res.Validation.Level)
	for _, msg := range res.Validation.Messages {
		fmt.Printf("  - %s\n", msg)
	}

	fmt.Printf("\nOutput files in %s:\n  %s\n  %s\n  %s\n",
		*outDir, res.Artifacts.STL, res.Artifacts.Measurements, res.Artifacts.Log)

	if res.Validation.Level == pipeline.LevelError {
		os.Exit(2)
	}
}

// consoleListener prints pipeline progress to stdout.
type consoleListener struct{}

func (consoleListener) OnProgress(percent int, message string) {
	fmt.Printf("[%3d%%] %s\n", percent, message)
}

func (consoleListener) OnStepComplete(step, details string) {
	fmt.Printf("       %s: %s\n", step, details)
}
