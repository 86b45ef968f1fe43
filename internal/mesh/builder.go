package mesh

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"legcast/internal/cloud"

	"github.com/golang/geo/r3"
)

// Errors surfaced by Build. All are caller-correctable input errors: retaking
// the video or adjusting capture conditions recovers from each.
var (
	ErrEmptyCloud         = errors.New("point cloud is empty")
	ErrInsufficientPoints = errors.New("not enough finite points to build a mesh")
	ErrDegenerateHeight   = errors.New("all points share the same height")
	ErrNoTriangles        = errors.New("slicing produced no triangles")
)

// Options configures surface construction.
type Options struct {
	// TargetSlices is the nominal number of horizontal bands. Taller clouds
	// get proportionally more slices, but bands never get thinner than
	// MinSliceHeightMm.
	TargetSlices int

	// MinSliceHeightMm is the floor on band thickness, preventing
	// degenerate near-empty slices.
	MinSliceHeightMm float64

	// BandOverlap is the fractional margin added to both sides of a band
	// when gathering its points, so enough points survive per band.
	BandOverlap float64

	// MinBandPoints is the minimum ring size; thinner bands are skipped.
	MinBandPoints int

	// MinVertexSpacingMm rejects sliver triangles whose vertices are not
	// pairwise at least this far apart.
	MinVertexSpacingMm float64
}

// DefaultOptions returns the standard slicing parameters.
func DefaultOptions() Options {
	return Options{
		TargetSlices:       12,
		MinSliceHeightMm:   2.0,
		BandOverlap:        0.10,
		MinBandPoints:      3,
		MinVertexSpacingMm: 0.1,
	}
}

// Stats reports how slicing went. The pipeline's validation step warns when
// more than half the slice pairs were empty.
type Stats struct {
	NumSlices    int
	SkippedBands int
	HeightRange  float64
	SliceHeight  float64
}

// Build slices the cloud into horizontal bands, orders each band's points
// angularly around the band centroid, and connects consecutive bands with
// triangle strips.
func Build(c *cloud.PointCloud, opts Options) (*Mesh, Stats, error) {
	var stats Stats

	if c == nil || c.Size() == 0 {
		return nil, stats, ErrEmptyCloud
	}

	points := make([]r3.Vector, 0, c.Size())
	for _, p := range c.Points() {
		if isFiniteVec(p) {
			points = append(points, p)
		}
	}
	if len(points) < 4 {
		return nil, stats, fmt.Errorf("%w: %d finite points", ErrInsufficientPoints, len(points))
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Y < points[j].Y })

	minY := points[0].Y
	maxY := points[len(points)-1].Y
	heightRange := maxY - minY
	if heightRange == 0 {
		return nil, stats, ErrDegenerateHeight
	}

	sliceHeight := heightRange / float64(opts.TargetSlices)
	if sliceHeight < opts.MinSliceHeightMm {
		sliceHeight = opts.MinSliceHeightMm
	}
	numSlices := int(math.Round(heightRange / sliceHeight))
	if numSlices < 2 {
		numSlices = 2
	}

	stats.NumSlices = numSlices
	stats.HeightRange = heightRange
	stats.SliceHeight = sliceHeight

	// Gather one ring per band. Bands with too few points are skipped and
	// recorded; the surviving rings are stitched in height order, so a run
	// of empty bands bridges to the next populated one instead of tearing
	// a hole in the surface.
	overlap := opts.BandOverlap * sliceHeight
	rings := make([][]r3.Vector, 0, numSlices)
	for i := 0; i < numSlices; i++ {
		band := bandPoints(points, minY+float64(i)*sliceHeight-overlap, minY+float64(i+1)*sliceHeight+overlap)
		if len(band) < opts.MinBandPoints {
			stats.SkippedBands++
			continue
		}
		sortRing(band)
		rings = append(rings, band)
	}

	m := NewMesh()
	for i := 0; i+1 < len(rings); i++ {
		connectRings(m, rings[i], rings[i+1], opts.MinVertexSpacingMm)
	}

	if m.Size() == 0 {
		return nil, stats, ErrNoTriangles
	}
	return m, stats, nil
}

// bandPoints gathers the points whose height falls in [lo, hi). The input
// must be sorted by Y.
func bandPoints(sorted []r3.Vector, lo, hi float64) []r3.Vector {
	start := sort.Search(len(sorted), func(i int) bool { return sorted[i].Y >= lo })
	end := sort.Search(len(sorted), func(i int) bool { return sorted[i].Y >= hi })
	if start >= end {
		return nil
	}
	band := make([]r3.Vector, end-start)
	copy(band, sorted[start:end])
	return band
}

// sortRing orders a band's points by polar angle around the band centroid in
// the horizontal plane.
func sortRing(band []r3.Vector) {
	var cx, cz float64
	for _, p := range band {
		cx += p.X
		cz += p.Z
	}
	n := float64(len(band))
	cx /= n
	cz /= n

	sort.Slice(band, func(i, j int) bool {
		ai := math.Atan2(band[i].Z-cz, band[i].X-cx)
		aj := math.Atan2(band[j].Z-cz, band[j].X-cx)
		return ai < aj
	})
}

// connectRings joins two angularly-sorted rings with a triangle strip. Two
// cursors walk the rings together; each step splits the current quad along
// its shorter diagonal and advances whichever cursor has made less fractional
// progress, keeping the cursors angularly aligned. A hard iteration bound
// guards against pathological inputs.
func connectRings(m *Mesh, ring1, ring2 []r3.Vector, minSpacing float64) {
	n1, n2 := len(ring1), len(ring2)
	if n1 == 0 || n2 == 0 {
		return
	}

	i1, i2 := 0, 0
	maxIter := 2 * (n1 + n2)

	for iter := 0; iter < maxIter; iter++ {
		if i1 >= n1 || i2 >= n2 {
			break
		}

		p1 := ring1[i1]
		p2 := ring1[(i1+1)%n1]
		p3 := ring2[i2]
		p4 := ring2[(i2+1)%n2]

		// Split the quad p1-p2-p4-p3 along the shorter diagonal.
		if p1.Sub(p4).Norm() < p2.Sub(p3).Norm() {
			addIfSound(m, Triangle{V1: p1, V2: p2, V3: p4}, minSpacing)
			addIfSound(m, Triangle{V1: p1, V2: p4, V3: p3}, minSpacing)
		} else {
			addIfSound(m, Triangle{V1: p1, V2: p2, V3: p3}, minSpacing)
			addIfSound(m, Triangle{V1: p2, V2: p4, V3: p3}, minSpacing)
		}

		f1 := float64(i1+1) / float64(n1)
		f2 := float64(i2+1) / float64(n2)
		switch {
		case f1 < f2:
			i1++
		case f2 < f1:
			i2++
		default:
			i1++
			i2++
		}
	}
}

// addIfSound appends the triangle unless any two of its vertices are closer
// than the minimum spacing, which would make a degenerate sliver.
func addIfSound(m *Mesh, t Triangle, minSpacing float64) {
	if t.V1.Sub(t.V2).Norm() < minSpacing ||
		t.V2.Sub(t.V3).Norm() < minSpacing ||
		t.V1.Sub(t.V3).Norm() < minSpacing {
		return
	}
	m.Add(t)
}
