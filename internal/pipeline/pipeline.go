// Package pipeline sequences the reconstruction stages: calibration,
// silhouette extraction, point cloud building, downsampling, meshing,
// smoothing, thickening, export, measurement, and validation.
package pipeline

import (
	"fmt"
	"sync"
	"time"

	"legcast/internal/cloud"
	"legcast/internal/measure"
	"legcast/internal/mesh"
	"legcast/internal/ruler"
	"legcast/internal/silhouette"
	"legcast/internal/vision"

	"github.com/edaniels/golog"
	"gocv.io/x/gocv"
)

// Step names, emitted to the listener in this order. Ordering is a contract:
// collaborators drive progress UIs off it.
const (
	StepFramesLoaded    = "frames loaded"
	StepRulerDetected   = "ruler detected"
	StepCloudBuilt      = "point cloud built"
	StepCloudDownsample = "point cloud downsampled"
	StepMeshBuilt       = "mesh built"
	StepMeshSmoothed    = "mesh smoothed"
	StepMeshThickened   = "mesh thickened"
	StepExported        = "stl exported"
	StepMeasured        = "measurements computed"
	StepValidated       = "validated"
)

// Listener receives progress events synchronously on the pipeline goroutine.
type Listener interface {
	OnProgress(percent int, message string)
	OnStepComplete(step string, details string)
}

// NopListener discards all events.
type NopListener struct{}

// OnProgress implements Listener.
func (NopListener) OnProgress(int, string) {}

// OnStepComplete implements Listener.
func (NopListener) OnStepComplete(string, string) {}

// Config holds every tunable the pipeline depends on but does not define.
type Config struct {
	// WallThicknessMm is the cast shell wall thickness.
	WallThicknessMm float64
	// TotalRotationDegrees is the camera orbit covered by the frame
	// sequence.
	TotalRotationDegrees float64
	// SmoothingEnabled toggles Laplacian smoothing.
	SmoothingEnabled bool
	// SmoothingIterations is the pass count when smoothing is enabled.
	SmoothingIterations int
	// VoxelSizeMm is the base downsampling voxel edge.
	VoxelSizeMm float64
	// MaxPoints is the post-downsample safety ceiling. Exceeding it
	// triggers graduated re-downsampling at larger voxel sizes.
	MaxPoints int
	// MaxThickenTriangles bounds the mesh size thickening will attempt;
	// beyond it the pre-thickened mesh ships as-is.
	MaxThickenTriangles int
	// FallbackMmPerPixel is used when no ruler is detected anywhere.
	FallbackMmPerPixel float64
	// InputVideoCount is recorded in the measurement report.
	InputVideoCount int

	Ruler      ruler.Params
	Silhouette silhouette.Params
	Mesh       mesh.Options
	Measure    measure.Params
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		WallThicknessMm:      3.0,
		TotalRotationDegrees: 360.0,
		SmoothingEnabled:     true,
		SmoothingIterations:  mesh.DefaultSmoothingIterations,
		VoxelSizeMm:          2.0,
		MaxPoints:            10000,
		MaxThickenTriangles:  200000,
		FallbackMmPerPixel:   0.5,
		InputVideoCount:      1,
		Ruler:                ruler.DefaultParams(),
		Silhouette:           silhouette.DefaultParams(),
		Mesh:                 mesh.DefaultOptions(),
		Measure:              measure.DefaultParams(),
	}
}

// Result carries everything a run produced.
type Result struct {
	MmPerPixel    float64
	Scale         *ruler.Detection
	ScaleFallback bool

	FramesTotal       int
	FramesWithContour int

	PointCount    int
	TriangleCount int
	MeshStats     mesh.Stats

	Cloud *cloud.PointCloud
	Mesh  *mesh.Mesh

	UsedFallbackMesh  bool
	ThickeningApplied bool
	DownsampleTier    int

	Measurements measure.Measurements
	Validation   ValidationResult

	ProcessingTime time.Duration
	Artifacts      Artifacts
}

// Pipeline is the orchestrator. One Pipeline handles one run.
type Pipeline struct {
	cfg      Config
	logger   golog.Logger
	listener Listener

	mu     sync.Mutex
	start  time.Time
	events []logEvent
}

type logEvent struct {
	offset  time.Duration
	message string
}

// New creates a pipeline with the given configuration. A nil listener is
// replaced by NopListener.
func New(cfg Config, logger golog.Logger, listener Listener) *Pipeline {
	if listener == nil {
		listener = NopListener{}
	}
	return &Pipeline{cfg: cfg, logger: logger, listener: listener}
}

func (p *Pipeline) progress(percent int, message string) {
	p.record(message)
	p.listener.OnProgress(percent, message)
}

func (p *Pipeline) stepDone(step, details string) {
	p.record(fmt.Sprintf("%s: %s", step, details))
	p.logger.Infow("step complete", "step", step, "details", details)
	p.listener.OnStepComplete(step, details)
}

func (p *Pipeline) record(message string) {
	p.mu.Lock()
	p.events = append(p.events, logEvent{offset: time.Since(p.start), message: message})
	p.mu.Unlock()
}

// Run executes the full pipeline over the given frames and writes the STL,
// measurement JSON, and processing log into outputDir. The frames are read
// only; the caller keeps ownership.
//
// Every run either returns a usable result (possibly with quality warnings in
// its ValidationResult) or an error naming the specific failure; it never
// silently writes an empty file.
func (p *Pipeline) Run(frames []gocv.Mat, outputDir string) (*Result, error) {
	p.start = time.Now()
	vision.EnsureInitialized()

	res := &Result{FramesTotal: len(frames)}
	if len(frames) == 0 {
		return nil, fmt.Errorf("no input frames")
	}

	p.progress(5, fmt.Sprintf("processing %d frames", len(frames)))
	p.stepDone(StepFramesLoaded, fmt.Sprintf("%d frames", len(frames)))

	// Scale calibration. A missing ruler degrades to the default scale and
	// a validation warning rather than aborting the run.
	det, err := ruler.Calibrate(frames, p.cfg.Ruler)
	if err != nil {
		p.logger.Warnw("ruler calibration failed, using default scale",
			"error", err, "mm_per_px", p.cfg.FallbackMmPerPixel)
		res.ScaleFallback = true
		res.MmPerPixel = p.cfg.FallbackMmPerPixel
		p.stepDone(StepRulerDetected, "not detected, default scale")
	} else {
		res.Scale = det
		res.MmPerPixel = det.MillimetersPerPixel
		p.stepDone(StepRulerDetected, fmt.Sprintf("%.4f mm/px, confidence %.2f", det.MillimetersPerPixel, det.Confidence))
	}
	p.progress(20, "scale calibrated")

	// Silhouette extraction and lifting. Frames without a usable contour
	// contribute nothing; their count feeds validation.
	liftFrames := make([]cloud.Frame, len(frames))
	for i, f := range frames {
		liftFrames[i] = cloud.Frame{Width: f.Cols(), Height: f.Rows()}
		if c, ok := silhouette.Extract(f, p.cfg.Silhouette); ok {
			liftFrames[i].Contour = c.Points
			res.FramesWithContour++
		}
	}

	raw := cloud.Build(liftFrames, res.MmPerPixel, p.cfg.TotalRotationDegrees)
	p.stepDone(StepCloudBuilt, fmt.Sprintf("%d points from %d silhouettes", raw.Size(), res.FramesWithContour))
	p.progress(40, "point cloud built")

	reduced, tier := p.reduceCloud(raw)
	res.Cloud = reduced
	res.PointCount = reduced.Size()
	res.DownsampleTier = tier
	p.stepDone(StepCloudDownsample, fmt.Sprintf("%d points, tier %d", reduced.Size(), tier))
	p.progress(55, "point cloud downsampled")

	m, err := p.buildMesh(reduced, res)
	if err != nil {
		return nil, err
	}
	p.stepDone(StepMeshBuilt, fmt.Sprintf("%d triangles", m.Size()))
	p.progress(70, "mesh built")

	if p.cfg.SmoothingEnabled && !res.UsedFallbackMesh {
		m = mesh.Smooth(m, p.cfg.SmoothingIterations)
		p.stepDone(StepMeshSmoothed, fmt.Sprintf("%d iterations", p.cfg.SmoothingIterations))
	} else {
		p.stepDone(StepMeshSmoothed, "skipped")
	}
	p.progress(78, "mesh smoothed")

	m = p.thicken(m, res)
	p.progress(85, "mesh thickened")

	res.Mesh = m
	res.TriangleCount = m.Size()

	stamp := p.start.Format("20060102_150405")
	res.Artifacts = artifactNames(stamp)
	if err := p.writeSTL(outputDir, res); err != nil {
		return nil, err
	}
	p.stepDone(StepExported, res.Artifacts.STL)
	p.progress(90, "stl exported")

	// Measurements run off the downsampled cloud, independent of meshing.
	res.Measurements = measure.Estimate(reduced, p.cfg.Measure)
	p.stepDone(StepMeasured, fmt.Sprintf("ankle %.0f mm, calf %.0f mm, length %.0f mm",
		res.Measurements.AnkleCircumferenceMm,
		res.Measurements.CalfCircumferenceMm,
		res.Measurements.TotalLengthMm))
	p.progress(95, "measurements computed")

	res.ProcessingTime = time.Since(p.start)
	res.Validation = validate(res)
	p.stepDone(StepValidated, res.Validation.Level.String())
	p.progress(100, "done")

	res.ProcessingTime = time.Since(p.start)
	if err := p.writeReport(outputDir, res); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}

	return res, nil
}

// downsampleTierScale maps retry tier to voxel size multiplier. Tier 0 is the
// configured voxel; tiers 1 and 2 trade fidelity for a bounded memory
// footprint after earlier runs exhausted memory on constrained devices.
var downsampleTierScale = [3]float64{1, 2, 4}

// reduceCloud downsamples with graduated retry: if the result still exceeds
// the point ceiling it re-runs at double, then quadruple, voxel size. Voxel
// semantics never change, only the edge length.
func (p *Pipeline) reduceCloud(c *cloud.PointCloud) (*cloud.PointCloud, int) {
	out := c
	tier := 0
	for i, scale := range downsampleTierScale {
		tier = i
		out = cloud.Downsample(c, p.cfg.VoxelSizeMm*scale)
		if out.Size() <= p.cfg.MaxPoints {
			return out, tier
		}
		p.logger.Warnw("cloud over point ceiling, escalating voxel size",
			"points", out.Size(), "ceiling", p.cfg.MaxPoints, "tier", i+1)
	}
	return out, tier
}

// buildMesh attempts surface construction and falls back to a coarse
// cylindrical approximation when the cloud cannot support a real mesh. Only
// a cloud that cannot produce even the fallback aborts the run.
func (p *Pipeline) buildMesh(c *cloud.PointCloud, res *Result) (*mesh.Mesh, error) {
	opts := p.cfg.Mesh
	m, stats, err := mesh.Build(c, opts)
	res.MeshStats = stats
	if err == nil {
		return m, nil
	}

	p.logger.Warnw("surface reconstruction failed, synthesizing fallback mesh", "error", err)
	fb := fallbackCylinder(c.MetaData())
	if fb == nil || fb.Size() == 0 {
		return nil, fmt.Errorf("mesh generation failed and no fallback possible: %w", err)
	}
	res.UsedFallbackMesh = true
	return fb, nil
}

// thicken is best-effort: an oversized mesh ships unthickened rather than
// risking the whole run.
func (p *Pipeline) thicken(m *mesh.Mesh, res *Result) *mesh.Mesh {
	if p.cfg.WallThicknessMm <= 0 {
		p.stepDone(StepMeshThickened, "disabled")
		return m
	}
	if m.Size() > p.cfg.MaxThickenTriangles {
		p.logger.Warnw("mesh too large to thicken, keeping surface mesh",
			"triangles", m.Size(), "ceiling", p.cfg.MaxThickenTriangles)
		p.stepDone(StepMeshThickened, "skipped: mesh too large")
		return m
	}
	out := mesh.Thicken(m, p.cfg.WallThicknessMm)
	res.ThickeningApplied = true
	p.stepDone(StepMeshThickened, fmt.Sprintf("%.1f mm wall", p.cfg.WallThicknessMm))
	return out
}
