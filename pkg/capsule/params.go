package capsule

import (
	gomath "math"

	"github.com/Faultbox/capsulemaker/pkg/mesh"
)

// Minimum values accepted for the integer parameters.
const (
	MinLongitudes = 3
	MinLatitudes  = 2
	MinRings      = 0
)

// MinDimension is what Clamp substitutes for a non-positive depth or radius.
const MinDimension float32 = 1e-6

// Params describes a capsule: a cylinder of length Depth capped by two
// hemispheres of Radius, Y up, centered on the origin.
type Params struct {
	Longitudes int       `yaml:"longitudes"`
	Latitudes  int       `yaml:"latitudes"`
	Rings      int       `yaml:"rings"`
	Depth      float32   `yaml:"depth"`
	Radius     float32   `yaml:"radius"`
	Profile    UVProfile `yaml:"uv_profile"`
}

// DefaultParams returns a 32 x 16 capsule of depth 1 and radius 0.5.
func DefaultParams() Params {
	return Params{
		Longitudes: 32,
		Latitudes:  16,
		Rings:      0,
		Depth:      1.0,
		Radius:     0.5,
		Profile:    Aspect,
	}
}

// Validate rejects parameters the generator cannot honor. Odd latitudes are
// accepted; Normalize rounds them up.
func (p Params) Validate() error {
	switch {
	case p.Longitudes < MinLongitudes:
		return &mesh.ValidationError{Field: "longitudes", Value: p.Longitudes, Reason: "must be at least 3"}
	case p.Latitudes < MinLatitudes:
		return &mesh.ValidationError{Field: "latitudes", Value: p.Latitudes, Reason: "must be at least 2"}
	case p.Rings < MinRings:
		return &mesh.ValidationError{Field: "rings", Value: p.Rings, Reason: "must not be negative"}
	case !positiveFinite(p.Depth):
		return &mesh.ValidationError{Field: "depth", Value: p.Depth, Reason: "must be positive and finite"}
	case !positiveFinite(p.Radius):
		return &mesh.ValidationError{Field: "radius", Value: p.Radius, Reason: "must be positive and finite"}
	case !p.Profile.Valid():
		return &mesh.ValidationError{Field: "uv profile", Value: int(p.Profile), Reason: "unknown profile"}
	}
	return nil
}

// Normalize rounds odd latitudes up to the next even value so the equator
// can split the sphere into two hemispheres.
func (p Params) Normalize() Params {
	if p.Latitudes%2 != 0 {
		p.Latitudes++
	}
	return p
}

// Clamp forces every field into its valid range and normalizes the result.
// Parameter forms call this before Generate; Generate itself never clamps.
func (p Params) Clamp() Params {
	p.Longitudes = max(p.Longitudes, MinLongitudes)
	p.Latitudes = max(p.Latitudes, MinLatitudes)
	p.Rings = max(p.Rings, MinRings)
	if !positiveFinite(p.Depth) {
		p.Depth = MinDimension
	}
	if !positiveFinite(p.Radius) {
		p.Radius = MinDimension
	}
	if !p.Profile.Valid() {
		p.Profile = Fixed
	}
	return p.Normalize()
}

func positiveFinite(f float32) bool {
	return f > 0 && !gomath.IsInf(float64(f), 1)
}
