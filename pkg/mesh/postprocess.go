package mesh

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/capsulemaker/pkg/math"
)

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min math.Vec3
	Max math.Vec3
}

// Size returns the extent of the box on each axis.
func (b Bounds) Size() math.Vec3 {
	return b.Max.Sub(b.Min)
}

// Center returns the midpoint of the box.
func (b Bounds) Center() math.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// ComputeBounds returns the bounding box of all positions.
// An empty mesh yields the zero box.
func ComputeBounds(m *Buffers) Bounds {
	if len(m.Positions) == 0 {
		return Bounds{}
	}
	b := Bounds{Min: m.Positions[0], Max: m.Positions[0]}
	for _, p := range m.Positions[1:] {
		b.Min = b.Min.Min(p)
		b.Max = b.Max.Max(p)
	}
	return b
}

// ReverseWinding returns a copy of m with corners 1 and 2 of every triangle
// swapped, for hosts whose front-face convention is the opposite one.
// Normals are left alone; they already point outward.
func ReverseWinding(m *Buffers) *Buffers {
	out := m.Clone()
	for i := 0; i+2 < len(out.Indices); i += 3 {
		out.Indices[i+1], out.Indices[i+2] = out.Indices[i+2], out.Indices[i+1]
	}
	return out
}

const minNormalLengthSqr = 1e-12

// SmoothNormals averages normals of vertices that share a position within
// epsilon, in place. Seam duplicates and per-longitude pole vertices end up
// with a single shared direction. A group whose normals cancel out, such as
// two back-to-back faces, keeps its original normals.
func SmoothNormals(m *Buffers, epsilon float32) {
	// Group vertices by quantized position for O(n) lookup
	posMap := make(map[weldKey][]int)
	for i, p := range m.Positions {
		key := quantize(p, epsilon)
		posMap[key] = append(posMap[key], i)
	}

	for _, idxs := range posMap {
		if len(idxs) < 2 {
			continue
		}

		var sum math.Vec3
		for _, idx := range idxs {
			sum = sum.Add(m.Normals[idx])
		}
		if sum.LengthSqr() < minNormalLengthSqr {
			continue
		}
		avg := sum.Normalize()

		for _, idx := range idxs {
			m.Normals[idx] = avg
		}
	}
}

// ComputeTangents returns one tangent per vertex for tangent-space normal
// mapping. The W component holds the bitangent handedness (+1 or -1).
// Triangles with a degenerate UV area contribute nothing; vertices left
// without a tangent get an arbitrary one perpendicular to their normal.
func ComputeTangents(m *Buffers) []math.Vec4 {
	n := len(m.Positions)
	tan := make([]math.Vec3, n)
	bitan := make([]math.Vec3, n)

	if len(m.UVs) == n {
		for i := 0; i+2 < len(m.Indices); i += 3 {
			i0, i1, i2 := m.Indices[i], m.Indices[i+1], m.Indices[i+2]

			e1 := m.Positions[i1].Sub(m.Positions[i0])
			e2 := m.Positions[i2].Sub(m.Positions[i0])
			d1 := m.UVs[i1].Sub(m.UVs[i0])
			d2 := m.UVs[i2].Sub(m.UVs[i0])

			denom := d1.Cross(d2)
			if denom == 0 {
				continue
			}
			r := 1 / denom

			t := e1.Scale(d2.Y * r).Sub(e2.Scale(d1.Y * r))
			b := e2.Scale(d1.X * r).Sub(e1.Scale(d2.X * r))

			for _, v := range [3]uint32{i0, i1, i2} {
				tan[v] = tan[v].Add(t)
				bitan[v] = bitan[v].Add(b)
			}
		}
	}

	out := make([]math.Vec4, n)
	for i := range out {
		nrm := m.Normals[i]

		// Gram-Schmidt against the normal.
		t := tan[i].Sub(nrm.Scale(nrm.Dot(tan[i])))
		if t.LengthSqr() < 1e-12 {
			if math32.Abs(nrm.X) < 0.9 {
				t = math.Vec3{X: 1}.Sub(nrm.Scale(nrm.X))
			} else {
				t = math.Vec3{Y: 1}.Sub(nrm.Scale(nrm.Y))
			}
		}
		t = t.Normalize()

		w := float32(1)
		if nrm.Cross(t).Dot(bitan[i]) < 0 {
			w = -1
		}
		out[i] = math.Vec4{X: t.X, Y: t.Y, Z: t.Z, W: w}
	}
	return out
}

type weldKey [3]int32

func quantize(p math.Vec3, epsilon float32) weldKey {
	return weldKey{
		int32(math32.Floor(p.X/epsilon + 0.5)),
		int32(math32.Floor(p.Y/epsilon + 0.5)),
		int32(math32.Floor(p.Z/epsilon + 0.5)),
	}
}
