package stl

import (
	"bytes"
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"legcast/internal/mesh"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func sampleMesh() *mesh.Mesh {
	m := mesh.NewMesh()
	m.Add(mesh.Triangle{
		V1: r3.Vector{X: 0.1, Y: 2.5, Z: -3.75},
		V2: r3.Vector{X: 10, Y: 0, Z: 0},
		V3: r3.Vector{X: 0, Y: 0, Z: 10},
	})
	m.Add(mesh.Triangle{
		V1: r3.Vector{X: -5, Y: 120.25, Z: 0},
		V2: r3.Vector{X: 5, Y: 120.25, Z: 0},
		V3: r3.Vector{X: 0, Y: 130, Z: 3},
	})
	return m
}

func TestBinaryRoundTrip(t *testing.T) {
	m := sampleMesh()

	var buf bytes.Buffer
	test.That(t, WriteBinary(&buf, m, "round trip"), test.ShouldBeNil)

	// 80-byte header, 4-byte count, 50 bytes per triangle.
	test.That(t, buf.Len(), test.ShouldEqual, 84+50*m.Size())

	got, header, err := ReadBinary(&buf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, header, test.ShouldEqual, "round trip")
	test.That(t, got.Size(), test.ShouldEqual, m.Size())

	// Coordinates survive to float32 precision.
	for i, tri := range m.Triangles {
		want := tri.Vertices()
		have := got.Triangles[i].Vertices()
		for v := range want {
			test.That(t, have[v].X, test.ShouldEqual, float64(float32(want[v].X)))
			test.That(t, have[v].Y, test.ShouldEqual, float64(float32(want[v].Y)))
			test.That(t, have[v].Z, test.ShouldEqual, float64(float32(want[v].Z)))
		}
	}
}

func TestBinaryCountMatchesRecords(t *testing.T) {
	// A triangle with a non-finite vertex is skipped, and the header count
	// must reflect only the records actually written.
	m := sampleMesh()
	m.Add(mesh.Triangle{
		V1: r3.Vector{X: math.NaN(), Y: 0, Z: 0},
		V2: r3.Vector{X: 1, Y: 0, Z: 0},
		V3: r3.Vector{X: 0, Y: 1, Z: 0},
	})

	var buf bytes.Buffer
	test.That(t, WriteBinary(&buf, m, "skip bad"), test.ShouldBeNil)

	raw := buf.Bytes()
	count := binary.LittleEndian.Uint32(raw[80:84])
	test.That(t, count, test.ShouldEqual, uint32(2))
	test.That(t, len(raw), test.ShouldEqual, 84+50*2)

	got, _, err := ReadBinary(bytes.NewReader(raw))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got.Size(), test.ShouldEqual, 2)
}

func TestBinaryAttributeBytesZero(t *testing.T) {
	var buf bytes.Buffer
	test.That(t, WriteBinary(&buf, sampleMesh(), "attrs"), test.ShouldBeNil)

	raw := buf.Bytes()
	for i := 0; i < 2; i++ {
		off := 84 + 50*i + 48
		test.That(t, raw[off], test.ShouldEqual, byte(0))
		test.That(t, raw[off+1], test.ShouldEqual, byte(0))
	}
}

func TestReadBinaryTruncated(t *testing.T) {
	var buf bytes.Buffer
	test.That(t, WriteBinary(&buf, sampleMesh(), "trunc"), test.ShouldBeNil)

	raw := buf.Bytes()
	_, _, err := ReadBinary(bytes.NewReader(raw[:len(raw)-10]))
	test.That(t, err, test.ShouldNotBeNil)

	_, _, err = ReadBinary(bytes.NewReader(raw[:40]))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestWriteASCII(t *testing.T) {
	out := WriteASCII(sampleMesh(), "leg")

	test.That(t, strings.HasPrefix(out, "solid leg\n"), test.ShouldBeTrue)
	test.That(t, strings.HasSuffix(out, "endsolid leg\n"), test.ShouldBeTrue)
	test.That(t, strings.Count(out, "facet normal"), test.ShouldEqual, 2)
	test.That(t, strings.Count(out, "outer loop"), test.ShouldEqual, 2)
	test.That(t, strings.Count(out, "vertex"), test.ShouldEqual, 6)
	test.That(t, strings.Count(out, "endfacet"), test.ShouldEqual, 2)
}

func TestWriteBinaryNilMesh(t *testing.T) {
	var buf bytes.Buffer
	test.That(t, WriteBinary(&buf, nil, "x"), test.ShouldNotBeNil)
}
