package mesh

import (
	"github.com/golang/geo/r3"
)

// DefaultSmoothingIterations is the iteration count used when smoothing is
// enabled but unconfigured.
const DefaultSmoothingIterations = 3

// vertexArena deduplicates mesh vertices into an indexed position array plus
// index triangles. Adjacency is computed once over indices; smoothing then
// works purely by index, so floating-point identity never decides which
// vertices are neighbors after construction.
type vertexArena struct {
	positions []r3.Vector
	tris      [][3]int
	neighbors [][]int
}

func buildArena(m *Mesh) *vertexArena {
	a := &vertexArena{}
	index := make(map[r3.Vector]int)

	indexOf := func(v r3.Vector) int {
		if i, ok := index[v]; ok {
			return i
		}
		i := len(a.positions)
		index[v] = i
		a.positions = append(a.positions, v)
		return i
	}

	a.tris = make([][3]int, len(m.Triangles))
	for ti, t := range m.Triangles {
		a.tris[ti] = [3]int{indexOf(t.V1), indexOf(t.V2), indexOf(t.V3)}
	}

	seen := make([]map[int]struct{}, len(a.positions))
	for i := range seen {
		seen[i] = make(map[int]struct{})
	}
	a.neighbors = make([][]int, len(a.positions))
	link := func(i, j int) {
		if i == j {
			return
		}
		if _, ok := seen[i][j]; ok {
			return
		}
		seen[i][j] = struct{}{}
		a.neighbors[i] = append(a.neighbors[i], j)
	}
	for _, tri := range a.tris {
		link(tri[0], tri[1])
		link(tri[1], tri[0])
		link(tri[1], tri[2])
		link(tri[2], tri[1])
		link(tri[0], tri[2])
		link(tri[2], tri[0])
	}

	return a
}

// Smooth applies iterative Laplacian averaging: every vertex moves to a 50/50
// blend of its position and the mean of its neighbors, where two vertices are
// neighbors if they share a triangle. Vertices with no neighbors stay put.
// The input mesh is not modified.
func Smooth(m *Mesh, iterations int) *Mesh {
	if m == nil || len(m.Triangles) == 0 || iterations <= 0 {
		return m
	}

	a := buildArena(m)
	pos := a.positions

	for iter := 0; iter < iterations; iter++ {
		next := make([]r3.Vector, len(pos))
		for i := range pos {
			nbrs := a.neighbors[i]
			if len(nbrs) == 0 {
				next[i] = pos[i]
				continue
			}
			var sum r3.Vector
			for _, j := range nbrs {
				sum = sum.Add(pos[j])
			}
			mean := sum.Mul(1.0 / float64(len(nbrs)))
			next[i] = pos[i].Mul(0.5).Add(mean.Mul(0.5))
		}
		pos = next
	}

	out := NewMesh()
	for _, tri := range a.tris {
		out.Add(Triangle{V1: pos[tri[0]], V2: pos[tri[1]], V3: pos[tri[2]]})
	}
	return out
}
