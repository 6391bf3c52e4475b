package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/capsulemaker/pkg/capsule"
)

// Preset is one named capsule of a batch file.
type Preset struct {
	Name    string
	Capsule capsule.Params
}

type presetFile struct {
	Presets []struct {
		Name    string    `yaml:"name"`
		Capsule yaml.Node `yaml:"capsule"`
	} `yaml:"presets"`
}

// LoadPresets reads a batch file. Each preset starts from base, so it only
// needs to list the params it changes:
//
//	presets:
//	  - name: low
//	    capsule: {longitudes: 8, latitudes: 4}
//	  - name: tall
//	    capsule: {depth: 4, rings: 6}
//
// Params are clamped the same way Load clamps them.
func LoadPresets(path string, base capsule.Params) ([]Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading presets: %w", err)
	}
	return ParsePresets(data, base)
}

// ParsePresets parses batch file contents; see LoadPresets.
func ParsePresets(data []byte, base capsule.Params) ([]Preset, error) {
	var file presetFile
	if err := decodeStrict(bytes.NewReader(data), &file); err != nil {
		return nil, fmt.Errorf("parsing presets: %w", err)
	}
	if len(file.Presets) == 0 {
		return nil, fmt.Errorf("parsing presets: no presets defined")
	}

	seen := make(map[string]bool, len(file.Presets))
	presets := make([]Preset, 0, len(file.Presets))
	for i, entry := range file.Presets {
		if entry.Name == "" {
			return nil, fmt.Errorf("preset %d: missing name", i)
		}
		if seen[entry.Name] {
			return nil, fmt.Errorf("preset %q: duplicate name", entry.Name)
		}
		seen[entry.Name] = true

		params := base
		if !entry.Capsule.IsZero() {
			if err := decodeNode(&entry.Capsule, &params); err != nil {
				return nil, fmt.Errorf("preset %q: %w", entry.Name, err)
			}
		}
		presets = append(presets, Preset{Name: entry.Name, Capsule: params.Clamp()})
	}
	return presets, nil
}

// decodeStrict decodes one YAML document from r into v, rejecting keys v
// does not define. An empty document leaves v unchanged.
func decodeStrict(r io.Reader, v any) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// decodeNode is decodeStrict for an already parsed node. yaml.Node.Decode
// has no strict mode, so the node is encoded again first.
func decodeNode(n *yaml.Node, v any) error {
	data, err := yaml.Marshal(n)
	if err != nil {
		return err
	}
	return decodeStrict(bytes.NewReader(data), v)
}
