// Package stl serializes triangle meshes to the STL format used by slicers
// and 3D printers, and reads binary STL back for inspection tools.
package stl

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"

	"legcast/internal/mesh"

	"github.com/golang/geo/r3"
)

const (
	headerSize   = 80
	triangleSize = 50 // 12 float32s plus the 2-byte attribute field
)

// WriteBinary writes the mesh in binary STL: an 80-byte header, a uint32
// triangle count, then 50 bytes per triangle (normal, three vertices, zero
// attribute), all little-endian. Triangles with non-finite normals are
// skipped; the count is computed before the header is written so it always
// matches the records that follow.
func WriteBinary(w io.Writer, m *mesh.Mesh, header string) error {
	if m == nil {
		return fmt.Errorf("nil mesh")
	}

	emit := make([]mesh.Triangle, 0, len(m.Triangles))
	for _, t := range m.Triangles {
		if !t.IsFinite() || !finiteVec(t.Normal()) {
			continue
		}
		emit = append(emit, t)
	}

	bw := bufio.NewWriter(w)

	var head [headerSize]byte
	copy(head[:], header)
	if _, err := bw.Write(head[:]); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(emit))); err != nil {
		return fmt.Errorf("write triangle count: %w", err)
	}

	buf := make([]byte, triangleSize)
	for _, t := range emit {
		n := t.Normal()
		putVec(buf[0:], n)
		putVec(buf[12:], t.V1)
		putVec(buf[24:], t.V2)
		putVec(buf[36:], t.V3)
		buf[48] = 0
		buf[49] = 0
		if _, err := bw.Write(buf); err != nil {
			return fmt.Errorf("write triangle: %w", err)
		}
	}

	return bw.Flush()
}

// WriteASCII renders the mesh in the legacy ASCII STL format. Intended for
// debugging; binary output is the production path.
func WriteASCII(m *mesh.Mesh, name string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "solid %s\n", name)
	for _, t := range m.Triangles {
		n := t.Normal()
		if !t.IsFinite() || !finiteVec(n) {
			continue
		}
		fmt.Fprintf(&sb, "  facet normal %g %g %g\n", n.X, n.Y, n.Z)
		sb.WriteString("    outer loop\n")
		for _, v := range t.Vertices() {
			fmt.Fprintf(&sb, "      vertex %g %g %g\n", v.X, v.Y, v.Z)
		}
		sb.WriteString("    endloop\n")
		sb.WriteString("  endfacet\n")
	}
	fmt.Fprintf(&sb, "endsolid %s\n", name)
	return sb.String()
}

// ReadBinary parses a binary STL stream. Vertex coordinates come back at
// float32 precision; stored normals are discarded since Triangle derives
// them on demand.
func ReadBinary(r io.Reader) (*mesh.Mesh, string, error) {
	var head [headerSize]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return nil, "", fmt.Errorf("read header: %w", err)
	}
	header := strings.TrimRight(string(head[:]), "\x00 ")

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, "", fmt.Errorf("read triangle count: %w", err)
	}

	m := mesh.NewMesh()
	buf := make([]byte, triangleSize)
	for i := uint32(0); i < count; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, "", fmt.Errorf("read triangle %d of %d: %w", i, count, err)
		}
		m.Add(mesh.Triangle{
			V1: getVec(buf[12:]),
			V2: getVec(buf[24:]),
			V3: getVec(buf[36:]),
		})
	}

	return m, header, nil
}

func putVec(b []byte, v r3.Vector) {
	binary.LittleEndian.PutUint32(b[0:], math.Float32bits(float32(v.X)))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(float32(v.Y)))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(float32(v.Z)))
}

func getVec(b []byte) r3.Vector {
	return r3.Vector{
		X: float64(math.Float32frombits(binary.LittleEndian.Uint32(b[0:]))),
		Y: float64(math.Float32frombits(binary.LittleEndian.Uint32(b[4:]))),
		Z: float64(math.Float32frombits(binary.LittleEndian.Uint32(b[8:]))),
	}
}

func finiteVec(v r3.Vector) bool {
	return finite(v.X) && finite(v.Y) && finite(v.Z)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
