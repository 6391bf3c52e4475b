// Package mesh holds shared-vertex triangle buffers and the transforms that
// operate on them, such as flat shading.
package mesh

import (
	gomath "math"
	"strconv"

	"github.com/Faultbox/capsulemaker/pkg/math"
)

// Limits imposed by the uint32 index type: every vertex must be addressable
// by an index, and the index count itself must fit in a uint32 as the CMSH
// header stores it.
const (
	MaxVertices int64 = gomath.MaxUint32 + 1
	MaxIndices  int64 = gomath.MaxUint32
)

// Buffers is a triangle mesh as four parallel arrays. Indices are grouped in
// triples, one triple per triangle, all wound the same way.
type Buffers struct {
	Positions []math.Vec3
	Normals   []math.Vec3
	UVs       []math.Vec2
	Indices   []uint32
}

// New allocates buffers sized exactly for the given counts.
func New(vertexCount, indexCount int) *Buffers {
	return &Buffers{
		Positions: make([]math.Vec3, vertexCount),
		Normals:   make([]math.Vec3, vertexCount),
		UVs:       make([]math.Vec2, vertexCount),
		Indices:   make([]uint32, indexCount),
	}
}

// VertexCount returns the number of vertices.
func (b *Buffers) VertexCount() int {
	return len(b.Positions)
}

// TriangleCount returns the number of complete index triples.
func (b *Buffers) TriangleCount() int {
	return len(b.Indices) / 3
}

// Triangle returns the vertex indices of triangle i.
func (b *Buffers) Triangle(i int) [3]uint32 {
	k := i * 3
	return [3]uint32{b.Indices[k], b.Indices[k+1], b.Indices[k+2]}
}

// Validate checks the buffer invariants: parallel arrays of equal length, an
// index count divisible by three and every index inside the vertex range.
// UVs may be nil for meshes without texture coordinates.
func (b *Buffers) Validate() error {
	n := len(b.Positions)
	if len(b.Normals) != n {
		return invalid("normals", len(b.Normals), "length does not match positions")
	}
	if b.UVs != nil && len(b.UVs) != n {
		return invalid("uvs", len(b.UVs), "length does not match positions")
	}
	return b.validateTriangles()
}

func (b *Buffers) validateTriangles() error {
	if len(b.Indices)%3 != 0 {
		return invalid("indices", len(b.Indices), "count is not a multiple of 3")
	}
	n := uint64(len(b.Positions))
	for i, idx := range b.Indices {
		if uint64(idx) >= n {
			return invalid("indices", idx, "references a vertex out of range at slot "+strconv.Itoa(i))
		}
	}
	return nil
}

// Clone returns a deep copy.
func (b *Buffers) Clone() *Buffers {
	return &Buffers{
		Positions: cloneSlice(b.Positions),
		Normals:   cloneSlice(b.Normals),
		UVs:       cloneSlice(b.UVs),
		Indices:   cloneSlice(b.Indices),
	}
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
