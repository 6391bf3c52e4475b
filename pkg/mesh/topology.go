package mesh

import "github.com/Faultbox/capsulemaker/pkg/math"

// Topology summarises the edge structure of a mesh after welding vertices
// that share a position. Seam duplicates and pole copies are welded, so a
// closed capsule reports no boundary edges.
type Topology struct {
	Vertices  int // distinct positions after welding
	Edges     int // distinct undirected edges
	Triangles int

	Boundary     int // edges used by exactly one triangle
	NonManifold  int // edges used by more than two triangles
	Inconsistent int // directed edges used twice in the same direction
	Degenerate   int // triangles with two corners welded together
}

// Closed reports whether every edge is shared by exactly two triangles.
func (t Topology) Closed() bool {
	return t.Boundary == 0 && t.NonManifold == 0
}

// Oriented reports whether neighbouring triangles agree on winding.
func (t Topology) Oriented() bool {
	return t.Inconsistent == 0
}

// EulerCharacteristic returns V - E + F, which is 2 for a closed surface of
// genus zero.
func (t Topology) EulerCharacteristic() int {
	return t.Vertices - t.Edges + t.Triangles
}

// Analyze welds positions within epsilon and counts edge adjacency.
// The mesh must already satisfy the triangle invariants.
func Analyze(m *Buffers, epsilon float32) (Topology, error) {
	if err := m.validateTriangles(); err != nil {
		return Topology{}, err
	}

	weld := make([]int, len(m.Positions))
	ids := make(map[weldKey]int)
	for i, p := range m.Positions {
		key := quantize(p, epsilon)
		id, ok := ids[key]
		if !ok {
			id = len(ids)
			ids[key] = id
		}
		weld[i] = id
	}

	topo := Topology{Vertices: len(ids), Triangles: m.TriangleCount()}
	directed := make(map[[2]int]int)
	undirected := make(map[[2]int]int)

	for i := 0; i < topo.Triangles; i++ {
		tri := m.Triangle(i)
		c := [3]int{weld[tri[0]], weld[tri[1]], weld[tri[2]]}
		if c[0] == c[1] || c[1] == c[2] || c[2] == c[0] {
			topo.Degenerate++
			continue
		}
		for k := 0; k < 3; k++ {
			a, b := c[k], c[(k+1)%3]
			directed[[2]int{a, b}]++
			if a > b {
				a, b = b, a
			}
			undirected[[2]int{a, b}]++
		}
	}

	topo.Edges = len(undirected)
	for _, n := range undirected {
		switch {
		case n == 1:
			topo.Boundary++
		case n > 2:
			topo.NonManifold++
		}
	}
	for _, n := range directed {
		if n > 1 {
			topo.Inconsistent++
		}
	}
	return topo, nil
}

// UniquePositions returns the positions of m with duplicates within epsilon
// removed, in first-seen order.
func UniquePositions(m *Buffers, epsilon float32) []math.Vec3 {
	seen := make(map[weldKey]struct{}, len(m.Positions))
	out := make([]math.Vec3, 0, len(m.Positions))
	for _, p := range m.Positions {
		key := quantize(p, epsilon)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}
