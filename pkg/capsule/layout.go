package capsule

import (
	gomath "math"

	"github.com/Faultbox/capsulemaker/pkg/mesh"
)

// Region is a contiguous run of a flat buffer.
type Region struct {
	Offset int
	Len    int
}

// End returns the offset one past the last element.
func (r Region) End() int {
	return r.Offset + r.Len
}

// VertexLayout partitions the vertex array into seven contiguous regions,
// north to south. Every ring except the pole caps holds Longitudes+1
// vertices because the seam column is duplicated.
type VertexLayout struct {
	NorthCap     Region
	NorthHemi    Region // halfLats-1 rows, pole side first
	NorthEquator Region
	Cylinder     Region // Rings rows, north first
	SouthEquator Region
	SouthHemi    Region // halfLats-1 rows, equator side first
	SouthCap     Region

	// SouthPolar is the offset of the ring the south cap fans into: the last
	// south hemisphere row, or the south equator when there are no rows.
	SouthPolar int

	Count int
}

// IndexLayout partitions the index array. Pole caps use 3 slots per
// longitude; every other band uses 6 slots per quad cell.
type IndexLayout struct {
	NorthCap  Region
	NorthHemi Region
	Cylinder  Region // Rings+1 bands joining the equators
	SouthHemi Region
	SouthCap  Region

	Count int
}

// Layout is the bookkeeping for one generation call.
type Layout struct {
	Longitudes int
	Latitudes  int // normalized to even
	HalfLats   int
	HemiRows   int // interior rows per hemisphere, polar ring included
	Rings      int
	RingStride int // vertices per ring, Longitudes+1

	Vertex VertexLayout
	Index  IndexLayout
}

// NewLayout validates p and derives every region offset. It fails with a
// CapacityError when the mesh would not be addressable with uint32 indices.
func NewLayout(p Params) (Layout, error) {
	if err := p.Validate(); err != nil {
		return Layout{}, err
	}
	if err := checkCapacity(p); err != nil {
		return Layout{}, err
	}
	p = p.Normalize()

	lons := p.Longitudes
	stride := lons + 1
	halfLats := p.Latitudes / 2
	// latitudes == 2 leaves no rows between pole and equator.
	hemiRows := max(halfLats-1, 0)

	l := Layout{
		Longitudes: lons,
		Latitudes:  p.Latitudes,
		HalfLats:   halfLats,
		HemiRows:   hemiRows,
		Rings:      p.Rings,
		RingStride: stride,
	}

	v := &l.Vertex
	v.NorthCap = Region{0, lons}
	v.NorthHemi = Region{v.NorthCap.End(), hemiRows * stride}
	v.NorthEquator = Region{v.NorthHemi.End(), stride}
	v.Cylinder = Region{v.NorthEquator.End(), p.Rings * stride}
	v.SouthEquator = Region{v.Cylinder.End(), stride}
	v.SouthHemi = Region{v.SouthEquator.End(), hemiRows * stride}
	v.SouthCap = Region{v.SouthHemi.End(), lons}
	v.SouthPolar = v.SouthCap.Offset - stride
	v.Count = v.SouthCap.End()

	lons3 := lons * 3
	lons6 := lons * 6
	ix := &l.Index
	ix.NorthCap = Region{0, lons3}
	ix.NorthHemi = Region{ix.NorthCap.End(), hemiRows * lons6}
	ix.Cylinder = Region{ix.NorthHemi.End(), (p.Rings + 1) * lons6}
	ix.SouthHemi = Region{ix.Cylinder.End(), hemiRows * lons6}
	ix.SouthCap = Region{ix.SouthHemi.End(), lons3}
	ix.Count = ix.SouthCap.End()

	return l, nil
}

// TriangleCount returns the number of triangles the layout describes.
func (l Layout) TriangleCount() int {
	return l.Index.Count / 3
}

// checkCapacity computes the derived counts in float64, which is exact well
// past the uint32 range, so huge parameters are rejected without overflow.
func checkCapacity(p Params) error {
	lons := float64(p.Longitudes)
	lats := float64(p.Latitudes)
	if p.Latitudes%2 != 0 {
		lats++
	}
	hemiRows := gomath.Max(lats/2-1, 0)
	rings := float64(p.Rings)

	verts := 2*lons + (lons+1)*(2*hemiRows+2+rings)
	if verts > float64(mesh.MaxVertices) {
		return &mesh.CapacityError{What: "vertex", Count: saturate(verts), Limit: mesh.MaxVertices}
	}
	indices := 6*lons + 6*lons*(2*hemiRows+rings+1)
	if indices > float64(mesh.MaxIndices) {
		return &mesh.CapacityError{What: "index", Count: saturate(indices), Limit: mesh.MaxIndices}
	}
	return nil
}

func saturate(f float64) int64 {
	if f >= gomath.MaxInt64 {
		return gomath.MaxInt64
	}
	return int64(f)
}
