package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	gomath "math"
	"os"

	"github.com/Faultbox/capsulemaker/pkg/math"
	"github.com/Faultbox/capsulemaker/pkg/mesh"
)

// CMSH format errors.
var (
	ErrInvalidMeshMagic       = errors.New("invalid CMSH magic: expected 'CMSH'")
	ErrUnsupportedMeshVersion = errors.New("unsupported CMSH version")
	ErrTruncatedMeshData      = errors.New("truncated CMSH data")
)

const (
	meshMagic      = "CMSH"
	meshHeaderSize = 16
)

// Header flags.
const (
	MeshHasUVs      uint16 = 1 << 0
	MeshHasTangents uint16 = 1 << 1
)

// MeshVersion represents the CMSH file version.
type MeshVersion struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v MeshVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// CurrentMeshVersion is the version EncodeMesh writes.
var CurrentMeshVersion = MeshVersion{Major: 1, Minor: 0}

// Mesh represents a parsed CMSH file.
type Mesh struct {
	Version  MeshVersion
	Flags    uint16
	Buffers  *mesh.Buffers
	Tangents []math.Vec4 // nil unless MeshHasTangents is set
}

// HasUVs reports whether the file carried texture coordinates.
func (m *Mesh) HasUVs() bool {
	return m.Flags&MeshHasUVs != 0
}

// HasTangents reports whether the file carried a tangent frame.
func (m *Mesh) HasTangents() bool {
	return m.Flags&MeshHasTangents != 0
}

// ParseMesh parses a CMSH file from raw bytes.
//
// Layout, little endian:
//
//	magic "CMSH" | minor u8 | major u8 | flags u16 | vertices u32 | indices u32
//	positions [vertices]vec3 | normals [vertices]vec3
//	uvs [vertices]vec2 (flag) | tangents [vertices]vec4 (flag)
//	indices [indices]u32
func ParseMesh(data []byte) (*Mesh, error) {
	if len(data) < meshHeaderSize {
		return nil, ErrTruncatedMeshData
	}

	if string(data[0:4]) != meshMagic {
		return nil, ErrInvalidMeshMagic
	}

	// Version is stored as [minor, major]
	version := MeshVersion{
		Major: data[5],
		Minor: data[4],
	}
	if version.Major != CurrentMeshVersion.Major {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMeshVersion, version)
	}

	flags := binary.LittleEndian.Uint16(data[6:8])
	vertexCount := int64(binary.LittleEndian.Uint32(data[8:12]))
	indexCount := int64(binary.LittleEndian.Uint32(data[12:16]))

	// Check the payload size up front so a corrupt header cannot trigger a
	// huge allocation.
	perVertex := int64(12 + 12)
	if flags&MeshHasUVs != 0 {
		perVertex += 8
	}
	if flags&MeshHasTangents != 0 {
		perVertex += 16
	}
	need := meshHeaderSize + vertexCount*perVertex + indexCount*4
	if int64(len(data)) < need {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrTruncatedMeshData, need, len(data))
	}

	m := &Mesh{
		Version: version,
		Flags:   flags,
		Buffers: &mesh.Buffers{
			Positions: make([]math.Vec3, vertexCount),
			Normals:   make([]math.Vec3, vertexCount),
			Indices:   make([]uint32, indexCount),
		},
	}
	if m.HasUVs() {
		m.Buffers.UVs = make([]math.Vec2, vertexCount)
	}
	if m.HasTangents() {
		m.Tangents = make([]math.Vec4, vertexCount)
	}

	r := bytes.NewReader(data[meshHeaderSize:])
	sections := []struct {
		name string
		dst  any
		skip bool
	}{
		{"positions", m.Buffers.Positions, false},
		{"normals", m.Buffers.Normals, false},
		{"uvs", m.Buffers.UVs, !m.HasUVs()},
		{"tangents", m.Tangents, !m.HasTangents()},
		{"indices", m.Buffers.Indices, false},
	}
	for _, s := range sections {
		if s.skip {
			continue
		}
		if err := binary.Read(r, binary.LittleEndian, s.dst); err != nil {
			return nil, fmt.Errorf("%w: reading %s", ErrTruncatedMeshData, s.name)
		}
	}

	if err := m.Buffers.Validate(); err != nil {
		return nil, fmt.Errorf("invalid CMSH mesh: %w", err)
	}

	return m, nil
}

// LoadMesh parses a CMSH file from disk.
func LoadMesh(path string) (*Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading CMSH file: %w", err)
	}
	return ParseMesh(data)
}

// EncodeMesh writes m in CMSH format. Tangents are optional; when given they
// must have one entry per vertex.
func EncodeMesh(w io.Writer, m *mesh.Buffers, tangents []math.Vec4) error {
	if err := m.Validate(); err != nil {
		return err
	}
	n := m.VertexCount()
	if tangents != nil && len(tangents) != n {
		return fmt.Errorf("tangent count %d does not match vertex count %d", len(tangents), n)
	}
	// The header stores the vertex count as a uint32 too, one short of
	// mesh.MaxVertices.
	if int64(n) > gomath.MaxUint32 {
		return &mesh.CapacityError{What: "CMSH vertex", Count: int64(n), Limit: gomath.MaxUint32}
	}
	if int64(len(m.Indices)) > mesh.MaxIndices {
		return &mesh.CapacityError{What: "CMSH index", Count: int64(len(m.Indices)), Limit: mesh.MaxIndices}
	}

	var flags uint16
	if m.UVs != nil {
		flags |= MeshHasUVs
	}
	if tangents != nil {
		flags |= MeshHasTangents
	}

	header := make([]byte, meshHeaderSize)
	copy(header, meshMagic)
	header[4] = CurrentMeshVersion.Minor
	header[5] = CurrentMeshVersion.Major
	binary.LittleEndian.PutUint16(header[6:8], flags)
	binary.LittleEndian.PutUint32(header[8:12], uint32(n))
	binary.LittleEndian.PutUint32(header[12:16], uint32(len(m.Indices)))
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("writing CMSH header: %w", err)
	}

	sections := []struct {
		name string
		src  any
		skip bool
	}{
		{"positions", m.Positions, false},
		{"normals", m.Normals, false},
		{"uvs", m.UVs, flags&MeshHasUVs == 0},
		{"tangents", tangents, flags&MeshHasTangents == 0},
		{"indices", m.Indices, false},
	}
	for _, s := range sections {
		if s.skip {
			continue
		}
		if err := binary.Write(w, binary.LittleEndian, s.src); err != nil {
			return fmt.Errorf("writing CMSH %s: %w", s.name, err)
		}
	}
	return nil
}
