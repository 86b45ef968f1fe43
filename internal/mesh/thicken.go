package mesh

// Thicken offsets every triangle's vertices along its face normal by
// thicknessMm, synthesizing a shell of that wall thickness. Each triangle is
// displaced independently, so shared vertices between adjacent triangles are
// not kept coincident; the output approximates an offset surface within
// 3D-printing tolerance rather than forming a strictly watertight solid.
// Triangles with non-finite normals pass through unmodified, so the triangle
// count is always preserved.
func Thicken(m *Mesh, thicknessMm float64) *Mesh {
	if m == nil || len(m.Triangles) == 0 {
		return m
	}

	out := NewMesh()
	for _, t := range m.Triangles {
		n := t.Normal()
		if !isFiniteVec(n) {
			out.Add(t)
			continue
		}
		offset := n.Mul(thicknessMm)
		out.Add(Triangle{
			V1: t.V1.Add(offset),
			V2: t.V2.Add(offset),
			V3: t.V3.Add(offset),
		})
	}
	return out
}
