package assets

import (
	"fmt"

	"github.com/Faultbox/capsulemaker/pkg/math"
	"github.com/Faultbox/capsulemaker/pkg/mesh"
)

// WeldEpsilon is the distance under which Smooth treats two vertices as one.
const WeldEpsilon = 1e-5

// Options selects the post-processing applied after generation.
type Options struct {
	Flat           bool // one vertex per corner with face normals
	Smooth         bool // average normals of vertices sharing a position
	ReverseWinding bool // for hosts with the opposite front-face convention
	Tangents       bool
}

// Prepared is a mesh ready to be written or uploaded.
type Prepared struct {
	Buffers  *mesh.Buffers
	Tangents []math.Vec4 // nil unless requested
	Bounds   mesh.Bounds
}

// Prepare applies opts to buf. buf itself is never modified.
//
// Winding is reversed after flattening so face normals keep pointing out of
// the surface; the reversed order only changes which side the host culls.
func Prepare(buf *mesh.Buffers, opts Options) (*Prepared, error) {
	if opts.Flat && opts.Smooth {
		return nil, fmt.Errorf("flat and smooth shading are exclusive")
	}

	out := buf
	if opts.Flat {
		flat, err := mesh.Flatten(buf)
		if err != nil {
			return nil, err
		}
		out = flat
	} else if err := buf.Validate(); err != nil {
		return nil, err
	}

	if opts.Smooth {
		out = out.Clone()
		mesh.SmoothNormals(out, WeldEpsilon)
	}

	if opts.ReverseWinding {
		out = mesh.ReverseWinding(out)
	}

	p := &Prepared{
		Buffers: out,
		Bounds:  mesh.ComputeBounds(out),
	}
	if opts.Tangents {
		p.Tangents = mesh.ComputeTangents(out)
	}
	return p, nil
}
