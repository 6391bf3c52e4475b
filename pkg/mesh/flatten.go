package mesh

import "github.com/Faultbox/capsulemaker/pkg/math"

// Flatten returns a flat-shaded copy of m. Every triangle gets three vertices
// of its own that carry the triangle's face normal, so no vertex is shared.
// The output index buffer is 0..n-1 and keeps the input winding.
//
// The face normal is normalize(cross(b-a, c-a)); a degenerate triangle gets a
// zero normal. UVs are copied per corner when the input has them.
func Flatten(m *Buffers) (*Buffers, error) {
	if err := m.validateTriangles(); err != nil {
		return nil, err
	}
	hasUV := len(m.UVs) > 0
	if hasUV && len(m.UVs) != len(m.Positions) {
		return nil, invalid("uvs", len(m.UVs), "length does not match positions")
	}

	n := len(m.Indices)
	if int64(n) > MaxVertices {
		return nil, &CapacityError{What: "flattened vertex", Count: int64(n), Limit: MaxVertices}
	}
	out := &Buffers{
		Positions: make([]math.Vec3, n),
		Normals:   make([]math.Vec3, n),
		Indices:   make([]uint32, n),
	}
	if hasUV {
		out.UVs = make([]math.Vec2, n)
	}

	for i := 0; i < n; i += 3 {
		ia, ib, ic := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		a, b, c := m.Positions[ia], m.Positions[ib], m.Positions[ic]
		normal := FaceNormal(a, b, c)

		out.Positions[i] = a
		out.Positions[i+1] = b
		out.Positions[i+2] = c

		out.Normals[i] = normal
		out.Normals[i+1] = normal
		out.Normals[i+2] = normal

		if hasUV {
			out.UVs[i] = m.UVs[ia]
			out.UVs[i+1] = m.UVs[ib]
			out.UVs[i+2] = m.UVs[ic]
		}

		out.Indices[i] = uint32(i)
		out.Indices[i+1] = uint32(i + 1)
		out.Indices[i+2] = uint32(i + 2)
	}

	return out, nil
}

// FaceNormal returns the unit normal of triangle (a, b, c).
func FaceNormal(a, b, c math.Vec3) math.Vec3 {
	return b.Sub(a).Cross(c.Sub(a)).Normalize()
}
