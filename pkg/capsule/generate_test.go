package capsule

import (
	"sync"
	"testing"

	"github.com/chewxy/math32"

	"github.com/Faultbox/capsulemaker/pkg/math"
	"github.com/Faultbox/capsulemaker/pkg/mesh"
)

const epsilon = 1e-5

// shapes covers the corner cases of the layout: the minimum tessellation,
// two latitudes, odd latitudes, cylinder rings and a tall thin capsule.
var shapes = []Params{
	{Longitudes: 3, Latitudes: 2, Rings: 0, Depth: 1, Radius: 0.5, Profile: Fixed},
	{Longitudes: 4, Latitudes: 4, Rings: 0, Depth: 2, Radius: 1, Profile: Aspect},
	{Longitudes: 5, Latitudes: 7, Rings: 1, Depth: 0.25, Radius: 2, Profile: Uniform},
	{Longitudes: 3, Latitudes: 2, Rings: 4, Depth: 3, Radius: 0.1, Profile: Aspect},
	{Longitudes: 32, Latitudes: 16, Rings: 0, Depth: 1, Radius: 0.5, Profile: Aspect},
	{Longitudes: 24, Latitudes: 12, Rings: 6, Depth: 10, Radius: 1, Profile: Uniform},
}

func mustGenerate(t *testing.T, p Params) *mesh.Buffers {
	t.Helper()
	buf, err := Generate(p)
	if err != nil {
		t.Fatalf("Generate(%+v) failed: %v", p, err)
	}
	return buf
}

// axisPoint returns the point of the capsule's core segment closest to p.
func axisPoint(p math.Vec3, halfDepth float32) math.Vec3 {
	return math.Vec3{Y: max(-halfDepth, min(halfDepth, p.Y))}
}

func TestGenerateCountInvariants(t *testing.T) {
	for _, p := range shapes {
		buf := mustGenerate(t, p)
		if err := buf.Validate(); err != nil {
			t.Errorf("%+v: %v", p, err)
		}
		layout, _ := NewLayout(p)
		if buf.VertexCount() != layout.Vertex.Count {
			t.Errorf("%+v: %d vertices, layout says %d", p, buf.VertexCount(), layout.Vertex.Count)
		}
		if len(buf.Indices) != layout.Index.Count {
			t.Errorf("%+v: %d indices, layout says %d", p, len(buf.Indices), layout.Index.Count)
		}
	}
}

func TestGenerateClosedSurface(t *testing.T) {
	for _, p := range shapes {
		buf := mustGenerate(t, p)
		topo, err := mesh.Analyze(buf, 1e-4)
		if err != nil {
			t.Fatalf("Analyze failed: %v", err)
		}
		if !topo.Closed() {
			t.Errorf("%+v: surface not closed: %+v", p, topo)
		}
		if !topo.Oriented() {
			t.Errorf("%+v: inconsistent winding: %+v", p, topo)
		}
		if topo.Degenerate != 0 {
			t.Errorf("%+v: %d degenerate triangles", p, topo.Degenerate)
		}
		if topo.EulerCharacteristic() != 2 {
			t.Errorf("%+v: euler characteristic %d, want 2", p, topo.EulerCharacteristic())
		}
	}
}

func TestGenerateNormals(t *testing.T) {
	for _, p := range shapes {
		buf := mustGenerate(t, p)
		halfDepth := p.Depth / 2
		for i, n := range buf.Normals {
			if l := n.Length(); math32.Abs(l-1) > epsilon {
				t.Fatalf("%+v: normal %d has length %v", p, i, l)
			}

			// Every vertex lies at radius from the core segment, along its normal.
			pos := buf.Positions[i]
			offset := pos.Sub(axisPoint(pos, halfDepth))
			if d := offset.Length(); math32.Abs(d-p.Radius) > epsilon*max(1, p.Radius) {
				t.Fatalf("%+v: vertex %d at distance %v from axis, want %v", p, i, d, p.Radius)
			}
			if !offset.Normalize().ApproxEqual(n, 1e-4) {
				t.Fatalf("%+v: vertex %d normal %v does not match surface direction %v", p, i, n, offset.Normalize())
			}
		}
	}
}

func TestGenerateWindingFacesOutward(t *testing.T) {
	for _, p := range shapes {
		flat, err := mesh.Flatten(mustGenerate(t, p))
		if err != nil {
			t.Fatalf("Flatten failed: %v", err)
		}
		halfDepth := p.Depth / 2
		for tri := 0; tri < flat.TriangleCount(); tri++ {
			k := tri * 3
			centroid := flat.Positions[k].Add(flat.Positions[k+1]).Add(flat.Positions[k+2]).Scale(1.0 / 3.0)
			out := centroid.Sub(axisPoint(centroid, halfDepth))
			if flat.Normals[k].Dot(out) <= 0 {
				t.Fatalf("%+v: triangle %d faces inward (normal %v)", p, tri, flat.Normals[k])
			}
		}
	}
}

func TestGenerateScenario(t *testing.T) {
	p := Params{Longitudes: 4, Latitudes: 4, Rings: 0, Depth: 2, Radius: 1, Profile: Aspect}
	buf := mustGenerate(t, p)
	layout, _ := NewLayout(p)
	v := layout.Vertex

	if buf.VertexCount() != 28 || buf.TriangleCount() != 32 {
		t.Fatalf("got %d vertices and %d triangles, want 28 and 32", buf.VertexCount(), buf.TriangleCount())
	}

	for j := 0; j < 4; j++ {
		north := buf.Positions[v.NorthCap.Offset+j]
		south := buf.Positions[v.SouthCap.Offset+j]
		if north != (math.Vec3{Y: 2}) || south != (math.Vec3{Y: -2}) {
			t.Errorf("pole %d at %v / %v, want (0, +-2, 0)", j, north, south)
		}
		wantS := 1 - (float32(j)+0.5)/4
		if uv := buf.UVs[v.NorthCap.Offset+j]; uv != (math.Vec2{X: wantS, Y: 1}) {
			t.Errorf("north pole %d uv = %v, want (%v, 1)", j, uv, wantS)
		}
		if uv := buf.UVs[v.SouthCap.Offset+j]; uv != (math.Vec2{X: wantS, Y: 0}) {
			t.Errorf("south pole %d uv = %v, want (%v, 0)", j, uv, wantS)
		}
	}

	for j := 0; j <= 4; j++ {
		n := buf.UVs[v.NorthEquator.Offset+j]
		s := buf.UVs[v.SouthEquator.Offset+j]
		if n.Y != 0.75 || s.Y != 0.25 {
			t.Errorf("equator column %d t = %v / %v, want 0.75 / 0.25", j, n.Y, s.Y)
		}
		if y := buf.Positions[v.NorthEquator.Offset+j].Y; y != 1 {
			t.Errorf("north equator column %d at height %v, want 1", j, y)
		}
		if ny := buf.Normals[v.SouthEquator.Offset+j].Y; ny != 0 {
			t.Errorf("south equator column %d normal has vertical part %v", j, ny)
		}
	}

	// The single hemisphere row sits at 45 degrees; its t is halfway
	// between the pole and the equator inside each band.
	if got := buf.UVs[v.NorthHemi.Offset].Y; math32.Abs(got-0.875) > epsilon {
		t.Errorf("north hemisphere t = %v, want 0.875", got)
	}
	if got := buf.UVs[v.SouthHemi.Offset].Y; math32.Abs(got-0.125) > epsilon {
		t.Errorf("south hemisphere t = %v, want 0.125", got)
	}
	wantY := 1 + math32.Sqrt(0.5)
	if got := buf.Positions[v.NorthHemi.Offset].Y; math32.Abs(got-wantY) > epsilon {
		t.Errorf("north hemisphere height = %v, want %v", got, wantY)
	}

	// First fan and first quad follow the documented winding.
	if got := buf.Triangle(0); got != [3]uint32{0, 4, 5} {
		t.Errorf("north fan 0 = %v, want [0 4 5]", got)
	}
	if got := buf.Triangle(layout.Index.SouthCap.Offset / 3); got != [3]uint32{24, 20, 19} {
		t.Errorf("south fan 0 = %v, want [24 20 19]", got)
	}
	q := layout.Index.Cylinder.Offset / 3
	if a, b := buf.Triangle(q), buf.Triangle(q+1); a != [3]uint32{9, 15, 10} || b != [3]uint32{9, 14, 15} {
		t.Errorf("first cylinder quad = %v %v, want [9 15 10] [9 14 15]", a, b)
	}
}

func TestGenerateSeam(t *testing.T) {
	for _, p := range shapes {
		buf := mustGenerate(t, p)
		layout, _ := NewLayout(p)
		v := layout.Vertex
		stride := layout.RingStride

		rings := []int{v.NorthEquator.Offset, v.SouthEquator.Offset}
		for r := 0; r < layout.HemiRows; r++ {
			rings = append(rings, v.NorthHemi.Offset+r*stride, v.SouthHemi.Offset+r*stride)
		}
		for r := 0; r < layout.Rings; r++ {
			rings = append(rings, v.Cylinder.Offset+r*stride)
		}

		for _, start := range rings {
			first, last := start, start+stride-1
			if buf.Positions[first] != buf.Positions[last] || buf.Normals[first] != buf.Normals[last] {
				t.Errorf("%+v: ring at %d seam vertices differ", p, start)
			}
			if buf.UVs[first].X != 1 || buf.UVs[last].X != 0 {
				t.Errorf("%+v: ring at %d s runs %v..%v, want 1..0", p, start, buf.UVs[first].X, buf.UVs[last].X)
			}
			if buf.UVs[first].Y != buf.UVs[last].Y {
				t.Errorf("%+v: ring at %d t not constant", p, start)
			}
		}
	}
}

func TestGenerateUVBands(t *testing.T) {
	for _, p := range shapes {
		buf := mustGenerate(t, p)
		layout, _ := NewLayout(p)
		v := layout.Vertex
		ratio := p.Profile.Ratio(p.Normalize())

		for i := 0; i < v.NorthEquator.End(); i++ {
			if tt := buf.UVs[i].Y; tt < 1-ratio-epsilon || tt > 1+epsilon {
				t.Fatalf("%+v: north vertex %d t = %v outside [%v, 1]", p, i, tt, 1-ratio)
			}
		}
		for i := v.SouthEquator.Offset; i < v.Count; i++ {
			if tt := buf.UVs[i].Y; tt < -epsilon || tt > ratio+epsilon {
				t.Fatalf("%+v: south vertex %d t = %v outside [0, %v]", p, i, tt, ratio)
			}
		}
		for i := v.Cylinder.Offset; i < v.Cylinder.End(); i++ {
			if tt := buf.UVs[i].Y; tt < ratio-epsilon || tt > 1-ratio+epsilon {
				t.Fatalf("%+v: cylinder vertex %d t = %v outside the equator band", p, i, tt)
			}
		}

		// t never increases walking from the north pole to the south pole.
		prev := float32(2)
		for i := v.NorthHemi.Offset; i < v.SouthCap.Offset; i += layout.RingStride {
			if buf.UVs[i].Y > prev+epsilon {
				t.Fatalf("%+v: t increases at row starting %d", p, i)
			}
			prev = buf.UVs[i].Y
		}
	}
}

func TestGenerateHemisphereSymmetry(t *testing.T) {
	p := Params{Longitudes: 12, Latitudes: 10, Rings: 2, Depth: 1.5, Radius: 0.75, Profile: Fixed}
	buf := mustGenerate(t, p)
	layout, _ := NewLayout(p)
	v := layout.Vertex
	stride := layout.RingStride

	// North row i mirrors south row (rows-1-i) across the XZ plane.
	for i := 0; i < layout.HemiRows; i++ {
		north := v.NorthHemi.Offset + i*stride
		south := v.SouthHemi.Offset + (layout.HemiRows-1-i)*stride
		for j := 0; j < stride; j++ {
			n := buf.Positions[north+j]
			s := buf.Positions[south+j]
			mirrored := math.Vec3{X: s.X, Y: -s.Y, Z: s.Z}
			if !n.ApproxEqual(mirrored, epsilon) {
				t.Fatalf("row %d column %d: north %v, mirrored south %v", i, j, n, mirrored)
			}
		}
	}
}

func TestCylinderRingParity(t *testing.T) {
	const halfDepth = float32(1.7)
	depth := 2 * halfDepth
	for rings := 1; rings <= 16; rings++ {
		for h := 1; h <= rings; h++ {
			fac := float32(h) / float32(rings+1)
			y, _ := cylinderRing(fac, halfDepth, 0.6, 0.4)
			alt := halfDepth - depth*fac
			if math32.Abs(y-alt) > epsilon {
				t.Errorf("rings=%d h=%d: lerp height %v, direct height %v", rings, h, y, alt)
			}
		}
	}
}

func TestGenerateDegenerateRings(t *testing.T) {
	const k = 3
	base := Params{Longitudes: 6, Latitudes: 6, Rings: 0, Depth: 2, Radius: 1, Profile: Aspect}
	ringed := base
	ringed.Rings = k

	flat := mustGenerate(t, base)
	tall := mustGenerate(t, ringed)
	fl, _ := NewLayout(base)
	tl, _ := NewLayout(ringed)
	shift := uint32(k * tl.RingStride)

	if tall.VertexCount()-flat.VertexCount() != k*tl.RingStride {
		t.Fatalf("vertex difference %d, want %d", tall.VertexCount()-flat.VertexCount(), k*tl.RingStride)
	}

	// North of the cylinder both meshes are identical.
	northEnd := fl.Index.NorthHemi.End()
	for i := 0; i < northEnd; i++ {
		if flat.Indices[i] != tall.Indices[i] {
			t.Fatalf("north index %d: %d vs %d", i, flat.Indices[i], tall.Indices[i])
		}
	}

	// The single equator band equals the first cylinder band: its far ring
	// is the south equator instead of the first interior ring.
	band := fl.Index.Cylinder
	for i := 0; i < band.Len; i++ {
		if flat.Indices[band.Offset+i] != tall.Indices[tl.Index.Cylinder.Offset+i] {
			t.Fatalf("equator band index %d differs", i)
		}
	}

	// South of the cylinder the indices are shifted by the removed rings.
	for i := 0; i < fl.Index.SouthHemi.Len+fl.Index.SouthCap.Len; i++ {
		got := flat.Indices[fl.Index.SouthHemi.Offset+i]
		want := tall.Indices[tl.Index.SouthHemi.Offset+i] - shift
		if got != want {
			t.Fatalf("south index %d: %d, want %d", i, got, want)
		}
	}

	// Positions outside the cylinder do not depend on the ring count.
	for i := 0; i < fl.Vertex.Cylinder.Offset; i++ {
		if flat.Positions[i] != tall.Positions[i] || flat.UVs[i] != tall.UVs[i] {
			t.Fatalf("north vertex %d differs", i)
		}
	}
	for i := fl.Vertex.SouthEquator.Offset; i < fl.Vertex.Count; i++ {
		if flat.Positions[i] != tall.Positions[i+int(shift)] || flat.UVs[i] != tall.UVs[i+int(shift)] {
			t.Fatalf("south vertex %d differs", i)
		}
	}
}

func TestGenerateFlattenProperties(t *testing.T) {
	for _, p := range shapes {
		src := mustGenerate(t, p)
		flat, err := mesh.Flatten(src)
		if err != nil {
			t.Fatalf("Flatten failed: %v", err)
		}
		if flat.VertexCount() != 3*src.TriangleCount() || flat.TriangleCount() != src.TriangleCount() {
			t.Errorf("%+v: flattened to %d vertices / %d triangles from %d triangles",
				p, flat.VertexCount(), flat.TriangleCount(), src.TriangleCount())
		}
		for i, n := range flat.Normals {
			if l := n.Length(); math32.Abs(l-1) > epsilon {
				t.Fatalf("%+v: flat normal %d has length %v", p, i, l)
			}
		}

		again, err := mesh.Flatten(flat)
		if err != nil {
			t.Fatalf("second Flatten failed: %v", err)
		}
		for i := range flat.Normals {
			if again.Positions[i] != flat.Positions[i] || !again.Normals[i].ApproxEqual(flat.Normals[i], 1e-6) {
				t.Fatalf("%+v: flattening twice changed vertex %d", p, i)
			}
		}
	}
}

func TestGenerateDeterministicAndConcurrent(t *testing.T) {
	p := DefaultParams()
	want := mustGenerate(t, p)

	var wg sync.WaitGroup
	results := make([]*mesh.Buffers, 8)
	errs := make([]error, len(results))
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = Generate(p)
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		if errs[i] != nil {
			t.Fatalf("goroutine %d: %v", i, errs[i])
		}
		if !equalBuffers(got, want) {
			t.Errorf("goroutine %d produced different buffers", i)
		}
	}
}

func TestGenerateReturnsFreshBuffers(t *testing.T) {
	p := DefaultParams()
	a := mustGenerate(t, p)
	b := mustGenerate(t, p)
	a.Positions[0] = math.Vec3{X: 99}
	a.Indices[0] = 7
	if b.Positions[0] == a.Positions[0] || b.Indices[0] == a.Indices[0] {
		t.Error("buffers from separate calls share storage")
	}
}

func equalBuffers(a, b *mesh.Buffers) bool {
	if len(a.Positions) != len(b.Positions) || len(a.Indices) != len(b.Indices) {
		return false
	}
	for i := range a.Positions {
		if a.Positions[i] != b.Positions[i] || a.Normals[i] != b.Normals[i] || a.UVs[i] != b.UVs[i] {
			return false
		}
	}
	for i := range a.Indices {
		if a.Indices[i] != b.Indices[i] {
			return false
		}
	}
	return true
}
