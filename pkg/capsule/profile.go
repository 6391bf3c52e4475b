package capsule

import (
	"fmt"
	"strings"
)

// UVProfile selects how much of the texture height goes to the south part of
// the capsule. The north part always gets the remainder.
type UVProfile int

// UV profiles.
const (
	// Fixed gives the south region a third of the texture.
	Fixed UVProfile = iota
	// Aspect matches the split to the arc-length ratio of the shape.
	Aspect
	// Uniform makes every latitude and ring row the same texture height.
	Uniform
)

// String returns the lower-case profile name.
func (u UVProfile) String() string {
	switch u {
	case Fixed:
		return "fixed"
	case Aspect:
		return "aspect"
	case Uniform:
		return "uniform"
	default:
		return fmt.Sprintf("UVProfile(%d)", int(u))
	}
}

// Valid reports whether u is one of the defined profiles.
func (u UVProfile) Valid() bool {
	return u >= Fixed && u <= Uniform
}

// Ratio returns the fraction of texture height allotted to the south region
// for normalized params p. South spans [0, Ratio] and north spans
// [1-Ratio, 1]; the cylinder fills the band between.
func (u UVProfile) Ratio(p Params) float32 {
	switch u {
	case Aspect:
		return p.Radius / (p.Depth + p.Radius + p.Radius)
	case Uniform:
		halfLats := p.Latitudes / 2
		return float32(halfLats) / float32(p.Rings+1+p.Latitudes)
	default:
		return 1.0 / 3.0
	}
}

// ParseUVProfile parses a profile name, case-insensitively.
func ParseUVProfile(s string) (UVProfile, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fixed":
		return Fixed, nil
	case "aspect":
		return Aspect, nil
	case "uniform":
		return Uniform, nil
	default:
		return 0, fmt.Errorf("unknown uv profile %q (want fixed, aspect or uniform)", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (u UVProfile) MarshalText() ([]byte, error) {
	if !u.Valid() {
		return nil, fmt.Errorf("invalid uv profile %d", int(u))
	}
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *UVProfile) UnmarshalText(text []byte) error {
	p, err := ParseUVProfile(string(text))
	if err != nil {
		return err
	}
	*u = p
	return nil
}

// Set implements flag.Value.
func (u *UVProfile) Set(s string) error {
	return u.UnmarshalText([]byte(s))
}
