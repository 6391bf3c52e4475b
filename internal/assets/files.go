package assets

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/capsulemaker/pkg/formats"
)

// Supported output formats.
const (
	FormatCMSH = "cmsh"
	FormatOBJ  = "obj"
)

// Path returns the file Save writes for name in dir.
func Path(dir, name, format string) string {
	return filepath.Join(dir, name+"."+format)
}

// Save writes p to <dir>/<name>.<format>, creating dir if needed, and
// returns the path. OBJ output drops tangents.
func Save(p *Prepared, dir, name, format string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid mesh name %q", name)
	}
	if format != FormatCMSH && format != FormatOBJ {
		return "", fmt.Errorf("unknown mesh format %q", format)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	path := Path(dir, name, format)
	// Write to a temp file first so a failed write never leaves a partial mesh.
	tmp, err := os.CreateTemp(dir, "."+name+"-*.tmp")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	switch format {
	case FormatCMSH:
		err = formats.EncodeMesh(w, p.Buffers, p.Tangents)
	case FormatOBJ:
		err = formats.WriteOBJ(w, p.Buffers, name)
	}
	if err == nil {
		err = w.Flush()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", err
	}
	return path, nil
}

// Load reads a CMSH mesh file. OBJ is write-only.
func Load(path string) (*formats.Mesh, error) {
	if ext := strings.ToLower(filepath.Ext(path)); ext != "."+FormatCMSH {
		return nil, fmt.Errorf("cannot load %q files, only .%s", ext, FormatCMSH)
	}
	return formats.LoadMesh(path)
}
