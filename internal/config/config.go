// Package config handles capsulemaker configuration loading and management.
package config

import (
	"fmt"

	"github.com/Faultbox/capsulemaker/internal/uvmap"
	"github.com/Faultbox/capsulemaker/pkg/capsule"
)

// Output formats and shading modes.
const (
	FormatCMSH = "cmsh"
	FormatOBJ  = "obj"

	ShadingSmooth = "smooth"
	ShadingFlat   = "flat"
)

// DefaultColliderIndexThreshold is the index count below which an
// instantiated capsule gets a convex mesh collider instead of a capsule proxy.
const DefaultColliderIndexThreshold = 768

// Config holds all capsulemaker settings.
type Config struct {
	Capsule  capsule.Params `yaml:"capsule"`
	Output   OutputConfig   `yaml:"output"`
	Instance InstanceConfig `yaml:"instance"`
	Viewer   ViewerConfig   `yaml:"viewer"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// OutputConfig controls what is written and how the mesh is post-processed.
type OutputConfig struct {
	Dir            string `yaml:"dir"`
	Name           string `yaml:"name"`
	Format         string `yaml:"format"`  // cmsh or obj
	Shading        string `yaml:"shading"` // smooth or flat
	ReverseWinding bool   `yaml:"reverse_winding"`
	Tangents       bool   `yaml:"tangents"`
	UVMap          string `yaml:"uv_map"` // png, webp, tga or empty for none
	UVMapSize      int    `yaml:"uv_map_size"`
}

// InstanceConfig controls scene instantiation of generated meshes.
type InstanceConfig struct {
	Create                 bool `yaml:"create"`
	ColliderIndexThreshold int  `yaml:"collider_index_threshold"`
}

// ViewerConfig holds display settings for capsuleview.
type ViewerConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
	Wireframe  bool `yaml:"wireframe"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Capsule: capsule.DefaultParams(),
		Output: OutputConfig{
			Dir:       ".",
			Name:      "Capsule",
			Format:    FormatCMSH,
			Shading:   ShadingSmooth,
			UVMapSize: 1024,
		},
		Instance: InstanceConfig{
			Create:                 false,
			ColliderIndexThreshold: DefaultColliderIndexThreshold,
		},
		Viewer: ViewerConfig{
			Width:  1280,
			Height: 720,
			VSync:  true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks the string-valued settings. Capsule params are clamped
// by Load rather than rejected.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case FormatCMSH, FormatOBJ:
	default:
		return fmt.Errorf("output.format: unknown format %q", c.Output.Format)
	}
	switch c.Output.Shading {
	case ShadingSmooth, ShadingFlat:
	default:
		return fmt.Errorf("output.shading: unknown shading %q", c.Output.Shading)
	}
	switch c.Output.UVMap {
	case "", "png", "webp", "tga":
	default:
		return fmt.Errorf("output.uv_map: unknown image format %q", c.Output.UVMap)
	}
	if c.Output.UVMap != "" && (c.Output.UVMapSize <= 0 || c.Output.UVMapSize > uvmap.MaxSize) {
		return fmt.Errorf("output.uv_map_size: must be in [1, %d], got %d", uvmap.MaxSize, c.Output.UVMapSize)
	}
	if c.Output.Name == "" {
		return fmt.Errorf("output.name: must not be empty")
	}
	if c.Instance.ColliderIndexThreshold < 0 {
		return fmt.Errorf("instance.collider_index_threshold: must not be negative")
	}
	return nil
}

// Flat reports whether flat shading is selected.
func (c *Config) Flat() bool {
	return c.Output.Shading == ShadingFlat
}
