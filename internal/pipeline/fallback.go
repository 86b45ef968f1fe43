package pipeline

import (
	"math"

	"legcast/internal/cloud"
	"legcast/internal/mesh"

	"github.com/golang/geo/r3"
)

const (
	fallbackSides  = 8
	fallbackLayers = 10
	// The synthetic leg tapers from full radius at the calf end down to
	// this fraction at the ankle end.
	fallbackTaper = 0.7
)

// fallbackCylinder synthesizes a coarse tapered cylinder from the cloud's
// bounding box. It is the last recovery step when slicing cannot produce a
// surface: clearly inferior output, but it keeps the run total and gives the
// clinician something to sanity-check the capture against.
func fallbackCylinder(meta cloud.MetaData) *mesh.Mesh {
	height := meta.HeightRange()
	if height <= 0 {
		return nil
	}

	cx := (meta.MinX + meta.MaxX) / 2
	cz := (meta.MinZ + meta.MaxZ) / 2
	radius := math.Max(meta.MaxX-meta.MinX, meta.MaxZ-meta.MinZ) / 2
	if radius <= 0 || math.IsInf(radius, 0) {
		return nil
	}

	rings := make([][]r3.Vector, fallbackLayers)
	for layer := 0; layer < fallbackLayers; layer++ {
		t := float64(layer) / float64(fallbackLayers-1)
		y := meta.MinY + t*height
		r := radius * (fallbackTaper + (1-fallbackTaper)*t)

		ring := make([]r3.Vector, fallbackSides)
		for s := 0; s < fallbackSides; s++ {
			angle := float64(s) / fallbackSides * 2 * math.Pi
			ring[s] = r3.Vector{
				X: cx + r*math.Cos(angle),
				Y: y,
				Z: cz + r*math.Sin(angle),
			}
		}
		rings[layer] = ring
	}

	m := mesh.NewMesh()
	for layer := 0; layer+1 < fallbackLayers; layer++ {
		lower, upper := rings[layer], rings[layer+1]
		for s := 0; s < fallbackSides; s++ {
			next := (s + 1) % fallbackSides
			m.Add(mesh.Triangle{V1: lower[s], V2: lower[next], V3: upper[next]})
			m.Add(mesh.Triangle{V1: lower[s], V2: upper[next], V3: upper[s]})
		}
	}
	return m
}
