package mesh

import (
	"errors"
	"testing"

	"github.com/chewxy/math32"

	"github.com/Faultbox/capsulemaker/pkg/math"
)

// tetrahedron returns a closed, outward-wound shared-vertex tetrahedron.
func tetrahedron() *Buffers {
	return &Buffers{
		Positions: []math.Vec3{
			{X: 0, Y: 0, Z: 0},
			{X: 1, Y: 0, Z: 0},
			{X: 0, Y: 1, Z: 0},
			{X: 0, Y: 0, Z: 1},
		},
		Normals: []math.Vec3{
			{X: -1, Y: -1, Z: -1},
			{X: 1, Y: 0, Z: 0},
			{X: 0, Y: 1, Z: 0},
			{X: 0, Y: 0, Z: 1},
		},
		UVs: []math.Vec2{
			{X: 0, Y: 0},
			{X: 1, Y: 0},
			{X: 0, Y: 1},
			{X: 1, Y: 1},
		},
		Indices: []uint32{
			0, 2, 1,
			0, 1, 3,
			0, 3, 2,
			1, 2, 3,
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Buffers)
		field  string
	}{
		{"valid", func(*Buffers) {}, ""},
		{"short normals", func(b *Buffers) { b.Normals = b.Normals[:3] }, "normals"},
		{"short uvs", func(b *Buffers) { b.UVs = b.UVs[:2] }, "uvs"},
		{"no uvs", func(b *Buffers) { b.UVs = nil }, ""},
		{"partial triangle", func(b *Buffers) { b.Indices = b.Indices[:4] }, "indices"},
		{"out of range", func(b *Buffers) { b.Indices[5] = 4 }, "indices"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tetrahedron()
			tt.mutate(b)
			err := b.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, verr.Field)
			}
			if !errors.Is(err, ErrValidation) {
				t.Error("expected errors.Is(err, ErrValidation)")
			}
		})
	}
}

func TestCapacityErrorIs(t *testing.T) {
	err := error(&CapacityError{What: "vertex", Count: MaxVertices + 1, Limit: MaxVertices})
	if !errors.Is(err, ErrCapacity) {
		t.Error("expected errors.Is(err, ErrCapacity)")
	}
	if errors.Is(err, ErrValidation) {
		t.Error("capacity error must not match ErrValidation")
	}
}

func TestFlatten(t *testing.T) {
	src := tetrahedron()
	flat, err := Flatten(src)
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}

	if flat.VertexCount() != 3*src.TriangleCount() {
		t.Errorf("expected %d vertices, got %d", 3*src.TriangleCount(), flat.VertexCount())
	}
	if flat.TriangleCount() != src.TriangleCount() {
		t.Errorf("expected %d triangles, got %d", src.TriangleCount(), flat.TriangleCount())
	}
	if err := flat.Validate(); err != nil {
		t.Fatalf("flattened mesh invalid: %v", err)
	}

	for i, idx := range flat.Indices {
		if idx != uint32(i) {
			t.Fatalf("index %d = %d, want identity", i, idx)
		}
	}

	for tri := 0; tri < src.TriangleCount(); tri++ {
		orig := src.Triangle(tri)
		k := tri * 3
		want := FaceNormal(src.Positions[orig[0]], src.Positions[orig[1]], src.Positions[orig[2]])
		for c := 0; c < 3; c++ {
			if flat.Positions[k+c] != src.Positions[orig[c]] {
				t.Errorf("triangle %d corner %d position not copied", tri, c)
			}
			if flat.UVs[k+c] != src.UVs[orig[c]] {
				t.Errorf("triangle %d corner %d uv not copied", tri, c)
			}
			if flat.Normals[k+c] != want {
				t.Errorf("triangle %d corner %d normal = %v, want %v", tri, c, flat.Normals[k+c], want)
			}
			if l := flat.Normals[k+c].Length(); math32.Abs(l-1) > 1e-5 {
				t.Errorf("triangle %d normal length %v", tri, l)
			}
		}
	}

	// The last face is the slanted one; its outward normal is (1,1,1)/sqrt(3).
	s := 1 / math32.Sqrt(3)
	if got := flat.Normals[9]; !got.ApproxEqual(math.Vec3{X: s, Y: s, Z: s}, 1e-6) {
		t.Errorf("slanted face normal = %v", got)
	}
}

func TestFlattenIdempotent(t *testing.T) {
	once, err := Flatten(tetrahedron())
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}
	twice, err := Flatten(once)
	if err != nil {
		t.Fatalf("second Flatten failed: %v", err)
	}

	if twice.VertexCount() != once.VertexCount() {
		t.Fatalf("vertex count changed: %d -> %d", once.VertexCount(), twice.VertexCount())
	}
	for i := range once.Positions {
		if twice.Positions[i] != once.Positions[i] {
			t.Errorf("position %d changed", i)
		}
		if twice.UVs[i] != once.UVs[i] {
			t.Errorf("uv %d changed", i)
		}
		if !twice.Normals[i].ApproxEqual(once.Normals[i], 1e-6) {
			t.Errorf("normal %d changed: %v -> %v", i, once.Normals[i], twice.Normals[i])
		}
		if twice.Indices[i] != once.Indices[i] {
			t.Errorf("index %d changed", i)
		}
	}
}

func TestFlattenWithoutUVs(t *testing.T) {
	src := tetrahedron()
	src.UVs = nil
	flat, err := Flatten(src)
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}
	if flat.UVs != nil {
		t.Errorf("expected nil UVs, got %d", len(flat.UVs))
	}
}

func TestFlattenInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Buffers)
	}{
		{"partial triangle", func(b *Buffers) { b.Indices = append(b.Indices, 0) }},
		{"out of range", func(b *Buffers) { b.Indices[0] = 99 }},
		{"mismatched uvs", func(b *Buffers) { b.UVs = b.UVs[:1] }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tetrahedron()
			tt.mutate(b)
			out, err := Flatten(b)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if out != nil {
				t.Error("expected no output on error")
			}
		})
	}
}

func TestFlattenDoesNotMutateInput(t *testing.T) {
	src := tetrahedron()
	before := src.Clone()
	if _, err := Flatten(src); err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}
	for i := range before.Indices {
		if src.Indices[i] != before.Indices[i] {
			t.Fatal("input indices were modified")
		}
	}
	for i := range before.Normals {
		if src.Normals[i] != before.Normals[i] {
			t.Fatal("input normals were modified")
		}
	}
}

func TestReverseWinding(t *testing.T) {
	src := tetrahedron()
	rev := ReverseWinding(src)
	for i := 0; i < src.TriangleCount(); i++ {
		a, b := src.Triangle(i), rev.Triangle(i)
		if a[0] != b[0] || a[1] != b[2] || a[2] != b[1] {
			t.Errorf("triangle %d: %v reversed to %v", i, a, b)
		}
	}

	flat, _ := Flatten(rev)
	orig, _ := Flatten(src)
	for i := range flat.Normals {
		if !flat.Normals[i].ApproxEqual(orig.Normals[i].Neg(), 1e-6) {
			t.Errorf("reversed face normal %d = %v, want %v", i, flat.Normals[i], orig.Normals[i].Neg())
		}
	}
}

func TestSmoothNormals(t *testing.T) {
	b := &Buffers{
		Positions: []math.Vec3{{X: 1}, {X: 1}, {Y: 1}},
		Normals:   []math.Vec3{{X: 1}, {Y: 1}, {Z: 1}},
		UVs:       make([]math.Vec2, 3),
	}
	SmoothNormals(b, 1e-4)

	s := 1 / math32.Sqrt(2)
	want := math.Vec3{X: s, Y: s}
	if !b.Normals[0].ApproxEqual(want, 1e-6) || !b.Normals[1].ApproxEqual(want, 1e-6) {
		t.Errorf("welded normals = %v, %v, want %v", b.Normals[0], b.Normals[1], want)
	}
	if b.Normals[2] != (math.Vec3{Z: 1}) {
		t.Errorf("lone vertex normal changed to %v", b.Normals[2])
	}
}

func TestSmoothNormalsCancelling(t *testing.T) {
	// Two back-to-back faces: the welded corners carry opposite normals.
	b := &Buffers{
		Positions: []math.Vec3{{}, {X: 1}, {Y: 1}, {}, {Y: 1}, {X: 1}},
		Normals:   []math.Vec3{{Z: 1}, {Z: 1}, {Z: 1}, {Z: -1}, {Z: -1}, {Z: -1}},
		Indices:   []uint32{0, 1, 2, 3, 4, 5},
	}
	SmoothNormals(b, 1e-4)

	for i, n := range b.Normals {
		if math32.Abs(n.Length()-1) > 1e-6 {
			t.Errorf("normal %d = %v, want unit length", i, n)
		}
	}
	if b.Normals[0] != (math.Vec3{Z: 1}) || b.Normals[3] != (math.Vec3{Z: -1}) {
		t.Errorf("cancelling group should keep its normals, got %v and %v", b.Normals[0], b.Normals[3])
	}
}

func TestComputeTangents(t *testing.T) {
	// Unit quad in the XY plane facing +Z, u along +X and v along +Y.
	b := &Buffers{
		Positions: []math.Vec3{{}, {X: 1}, {X: 1, Y: 1}, {Y: 1}},
		Normals:   []math.Vec3{{Z: 1}, {Z: 1}, {Z: 1}, {Z: 1}},
		UVs:       []math.Vec2{{}, {X: 1}, {X: 1, Y: 1}, {Y: 1}},
		Indices:   []uint32{0, 1, 2, 0, 2, 3},
	}
	tangents := ComputeTangents(b)
	if len(tangents) != 4 {
		t.Fatalf("expected 4 tangents, got %d", len(tangents))
	}
	for i, tg := range tangents {
		if !tg.XYZ().ApproxEqual(math.Vec3{X: 1}, 1e-5) {
			t.Errorf("tangent %d = %v, want +X", i, tg)
		}
		if tg.W != 1 {
			t.Errorf("tangent %d handedness = %v, want 1", i, tg.W)
		}
	}
}

func TestComputeBounds(t *testing.T) {
	b := ComputeBounds(tetrahedron())
	if b.Min != (math.Vec3{}) || b.Max != (math.Vec3{X: 1, Y: 1, Z: 1}) {
		t.Errorf("bounds = %+v", b)
	}
	if c := b.Center(); c != (math.Vec3{X: 0.5, Y: 0.5, Z: 0.5}) {
		t.Errorf("center = %v", c)
	}
	if got := ComputeBounds(&Buffers{}); got != (Bounds{}) {
		t.Errorf("empty bounds = %+v", got)
	}
}

func TestAnalyze(t *testing.T) {
	topo, err := Analyze(tetrahedron(), 1e-5)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if !topo.Closed() || !topo.Oriented() {
		t.Errorf("tetrahedron should be closed and oriented: %+v", topo)
	}
	if topo.Vertices != 4 || topo.Edges != 6 || topo.Triangles != 4 {
		t.Errorf("unexpected counts: %+v", topo)
	}
	if topo.EulerCharacteristic() != 2 {
		t.Errorf("euler characteristic = %d, want 2", topo.EulerCharacteristic())
	}

	// A flattened tetrahedron welds back to the same surface.
	flat, _ := Flatten(tetrahedron())
	ftopo, _ := Analyze(flat, 1e-5)
	if ftopo != topo {
		t.Errorf("flattened topology %+v differs from %+v", ftopo, topo)
	}

	open := tetrahedron()
	open.Indices = open.Indices[:9]
	otopo, _ := Analyze(open, 1e-5)
	if otopo.Closed() || otopo.Boundary != 3 {
		t.Errorf("open mesh should report 3 boundary edges: %+v", otopo)
	}

	flipped := tetrahedron()
	flipped.Indices[1], flipped.Indices[2] = flipped.Indices[2], flipped.Indices[1]
	ftopo, _ = Analyze(flipped, 1e-5)
	if ftopo.Oriented() {
		t.Errorf("flipping one face should break orientation: %+v", ftopo)
	}
}

func TestUniquePositions(t *testing.T) {
	flat, err := Flatten(tetrahedron())
	if err != nil {
		t.Fatal(err)
	}

	got := UniquePositions(flat, 1e-4)
	if len(got) != 4 {
		t.Fatalf("expected 4 unique positions, got %d", len(got))
	}
	// First-seen order follows the first triangle: 0, 2, 1.
	want := []math.Vec3{{}, {Y: 1}, {X: 1}}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("position %d = %v, want %v", i, got[i], w)
		}
	}
}
