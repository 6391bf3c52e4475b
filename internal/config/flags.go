package config

import (
	"flag"
	"fmt"

	"github.com/Faultbox/capsulemaker/pkg/capsule"
)

// Flags holds the command-line overrides shared by the commands. Zero
// values mean "not given"; rings uses -1 since zero rings is meaningful.
type Flags struct {
	Config string
	Debug  bool

	Longitudes int
	Latitudes  int
	Rings      int
	Depth      float64
	Radius     float64
	Profile    string
	Flat       bool

	Out    string
	Name   string
	Format string
}

// RegisterFlags defines the shared flags on fs and returns their storage.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.IntVar(&f.Longitudes, "longitudes", 0, "Longitude count (min 3)")
	fs.IntVar(&f.Latitudes, "latitudes", 0, "Latitude count (min 2, rounded up to even)")
	fs.IntVar(&f.Rings, "rings", -1, "Interior cylinder rings (min 0)")
	fs.Float64Var(&f.Depth, "depth", 0, "Cylinder depth")
	fs.Float64Var(&f.Radius, "radius", 0, "Hemisphere radius")
	fs.StringVar(&f.Profile, "profile", "", "UV profile: fixed, aspect or uniform")
	fs.BoolVar(&f.Flat, "flat", false, "Flat shading (one vertex per triangle corner)")
	fs.StringVar(&f.Out, "out", "", "Output directory")
	fs.StringVar(&f.Name, "name", "", "Output file name without extension")
	fs.StringVar(&f.Format, "format", "", "Output format: cmsh or obj")
	return f
}

// ConfigPath returns the explicit config path if provided via --config flag.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return f.Config
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) error {
	if f == nil {
		return nil
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.Longitudes > 0 {
		cfg.Capsule.Longitudes = f.Longitudes
	}
	if f.Latitudes > 0 {
		cfg.Capsule.Latitudes = f.Latitudes
	}
	if f.Rings >= 0 {
		cfg.Capsule.Rings = f.Rings
	}
	if f.Depth > 0 {
		cfg.Capsule.Depth = float32(f.Depth)
	}
	if f.Radius > 0 {
		cfg.Capsule.Radius = float32(f.Radius)
	}
	if f.Profile != "" {
		p, err := capsule.ParseUVProfile(f.Profile)
		if err != nil {
			return fmt.Errorf("-profile: %w", err)
		}
		cfg.Capsule.Profile = p
	}
	if f.Flat {
		cfg.Output.Shading = ShadingFlat
	}
	if f.Out != "" {
		cfg.Output.Dir = f.Out
	}
	if f.Name != "" {
		cfg.Output.Name = f.Name
	}
	if f.Format != "" {
		cfg.Output.Format = f.Format
	}
	return nil
}
