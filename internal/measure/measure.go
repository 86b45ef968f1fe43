// Package measure derives clinical measurements from the reconstructed point
// cloud by height-banding and radius averaging.
package measure

import (
	"math"

	"legcast/internal/cloud"

	"gonum.org/v1/gonum/stat"
)

// Measurements are the circumference and length estimates handed to the
// caller and written to the measurement report.
type Measurements struct {
	AnkleCircumferenceMm float64
	CalfCircumferenceMm  float64
	TotalLengthMm        float64
}

// Band is a fractional height range within the cloud, 0 at MinY and 1 at
// MaxY.
type Band struct {
	Lo, Hi float64
}

// Params locates the anatomical bands within the scanned height. The capture
// convention points the camera down the leg, so the ankle sits near the low
// end of the height range and the calf bulge in the upper half.
type Params struct {
	AnkleBand Band
	CalfBand  Band
}

// DefaultParams returns band positions for a typical lower-leg scan.
func DefaultParams() Params {
	return Params{
		AnkleBand: Band{Lo: 0.10, Hi: 0.25},
		CalfBand:  Band{Lo: 0.55, Hi: 0.85},
	}
}

// Estimate computes ankle and calf circumference plus total length. Each
// circumference is 2*pi times the mean horizontal radius of the band's points
// around the band centroid. A band with no points yields a zero
// circumference, which validation flags as implausible.
func Estimate(c *cloud.PointCloud, p Params) Measurements {
	var out Measurements
	if c == nil || c.Size() == 0 {
		return out
	}

	meta := c.MetaData()
	out.TotalLengthMm = meta.HeightRange()
	out.AnkleCircumferenceMm = bandCircumference(c, p.AnkleBand)
	out.CalfCircumferenceMm = bandCircumference(c, p.CalfBand)
	return out
}

func bandCircumference(c *cloud.PointCloud, b Band) float64 {
	meta := c.MetaData()
	h := meta.HeightRange()
	if h == 0 {
		return 0
	}
	lo := meta.MinY + b.Lo*h
	hi := meta.MinY + b.Hi*h

	var xs, zs []float64
	for _, p := range c.Points() {
		if p.Y >= lo && p.Y <= hi {
			xs = append(xs, p.X)
			zs = append(zs, p.Z)
		}
	}
	if len(xs) == 0 {
		return 0
	}

	cx := stat.Mean(xs, nil)
	cz := stat.Mean(zs, nil)

	radii := make([]float64, len(xs))
	for i := range xs {
		radii[i] = math.Hypot(xs[i]-cx, zs[i]-cz)
	}

	return 2 * math.Pi * stat.Mean(radii, nil)
}
