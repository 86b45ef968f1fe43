package mesh

import (
	"math"
	"testing"

	"legcast/internal/cloud"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestSmoothSingleTriangle(t *testing.T) {
	m := NewMesh()
	m.Add(Triangle{
		V1: r3.Vector{X: 0, Y: 0, Z: 0},
		V2: r3.Vector{X: 2, Y: 0, Z: 0},
		V3: r3.Vector{X: 0, Y: 2, Z: 0},
	})

	out := Smooth(m, 1)
	test.That(t, out.Size(), test.ShouldEqual, 1)

	// Each vertex moves halfway toward the mean of the other two.
	got := out.Triangles[0]
	test.That(t, got.V1.X, test.ShouldAlmostEqual, 0.5) // 0.5*0 + 0.5*(2+0)/2
	test.That(t, got.V1.Y, test.ShouldAlmostEqual, 0.5)
	test.That(t, got.V2.X, test.ShouldAlmostEqual, 1.0) // 0.5*2 + 0.5*(0+0)/2
	test.That(t, got.V2.Y, test.ShouldAlmostEqual, 0.5)
	test.That(t, got.V3.X, test.ShouldAlmostEqual, 0.5)
	test.That(t, got.V3.Y, test.ShouldAlmostEqual, 1.0)
}

func TestSmoothSharedVertices(t *testing.T) {
	// Two triangles sharing an edge: the shared vertices must be treated
	// as single vertices, so both output triangles still meet exactly.
	a := r3.Vector{X: 0, Y: 0, Z: 0}
	b := r3.Vector{X: 1, Y: 0, Z: 0}
	c := r3.Vector{X: 0.5, Y: 1, Z: 0}
	d := r3.Vector{X: 0.5, Y: -1, Z: 0}

	m := NewMesh()
	m.Add(Triangle{V1: a, V2: b, V3: c})
	m.Add(Triangle{V1: a, V2: d, V3: b})

	out := Smooth(m, 2)
	test.That(t, out.Size(), test.ShouldEqual, 2)
	test.That(t, out.Triangles[0].V1, test.ShouldResemble, out.Triangles[1].V1)
	test.That(t, out.Triangles[0].V2, test.ShouldResemble, out.Triangles[1].V3)
}

func TestSmoothShrinksNoiseOnRing(t *testing.T) {
	// A noisy cylinder section gets closer to the mean radius with each
	// iteration.
	c := cloud.New()
	for layer := 0; layer < 10; layer++ {
		for i := 0; i < 24; i++ {
			angle := float64(i) / 24 * 2 * math.Pi
			noise := 3 * math.Sin(float64(i*7))
			c.Add(r3.Vector{
				X: (45 + noise) * math.Cos(angle),
				Y: float64(layer) * 15,
				Z: (45 + noise) * math.Sin(angle),
			})
		}
	}

	m, _, err := Build(c, DefaultOptions())
	test.That(t, err, test.ShouldBeNil)

	smoothed := Smooth(m, DefaultSmoothingIterations)
	test.That(t, smoothed.Size(), test.ShouldEqual, m.Size())

	test.That(t, radiusSpread(smoothed), test.ShouldBeLessThan, radiusSpread(m))
}

func radiusSpread(m *Mesh) float64 {
	minR, maxR := math.MaxFloat64, 0.0
	for _, tri := range m.Triangles {
		for _, v := range tri.Vertices() {
			r := math.Hypot(v.X, v.Z)
			if r < minR {
				minR = r
			}
			if r > maxR {
				maxR = r
			}
		}
	}
	return maxR - minR
}

func TestSmoothNoopCases(t *testing.T) {
	m := NewMesh()
	m.Add(Triangle{
		V1: r3.Vector{X: 0, Y: 0, Z: 0},
		V2: r3.Vector{X: 1, Y: 0, Z: 0},
		V3: r3.Vector{X: 0, Y: 1, Z: 0},
	})

	test.That(t, Smooth(m, 0), test.ShouldEqual, m)
	test.That(t, Smooth(nil, 3), test.ShouldBeNil)
	test.That(t, Smooth(NewMesh(), 3).Size(), test.ShouldEqual, 0)
}
