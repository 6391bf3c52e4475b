package viewer

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/capsulemaker/internal/assets"
	"github.com/Faultbox/capsulemaker/pkg/capsule"
)

// Longitude step and upper bound for the +/- keys.
const (
	longitudeStep = 4
	maxLongitudes = 256
)

// State is what the viewer shows.
type State struct {
	Params    capsule.Params
	Flat      bool
	Wireframe bool
}

// Options returns the post-processing for the current shading.
func (s State) Options() assets.Options {
	return assets.Options{Flat: s.Flat}
}

// HandleKey applies a key press. It reports whether the mesh must be
// regenerated; wireframe changes only need a redraw.
func (s *State) HandleKey(key sdl.Keycode) (regenerate bool) {
	switch key {
	case sdl.K_f:
		s.Flat = !s.Flat
		return true
	case sdl.K_w:
		s.Wireframe = !s.Wireframe
	case sdl.K_PLUS, sdl.K_EQUALS, sdl.K_KP_PLUS:
		if s.Params.Longitudes+longitudeStep <= maxLongitudes {
			s.Params.Longitudes += longitudeStep
			return true
		}
	case sdl.K_MINUS, sdl.K_KP_MINUS:
		if s.Params.Longitudes-longitudeStep >= capsule.MinLongitudes {
			s.Params.Longitudes -= longitudeStep
			return true
		}
	case sdl.K_p:
		s.Params.Profile = (s.Params.Profile + 1) % (capsule.Uniform + 1)
		return true
	}
	return false
}

// Title describes the state for the window title bar.
func (s State) Title() string {
	shading := "smooth"
	if s.Flat {
		shading = "flat"
	}
	p := s.Params.Normalize()
	return fmt.Sprintf("capsuleview - %dx%d, %d rings, %s uv, %s", p.Longitudes, p.Latitudes, p.Rings, p.Profile, shading)
}
