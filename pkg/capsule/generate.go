// Package capsule generates UV capsule meshes: a cylinder capped by two
// hemispheres, tessellated into shared-vertex triangle buffers.
package capsule

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/capsulemaker/pkg/math"
	"github.com/Faultbox/capsulemaker/pkg/mesh"
)

// Generate builds the capsule described by p.
//
// Positions are Y up. A ring point at longitude angle theta lies at
// (r*cos(theta), y, -r*sin(theta)). Texture s runs from 1 at theta = 0 down
// to 0 at theta = 2*pi, and t runs from 0 at the south pole to 1 at the north
// pole. Triangles face outward for the (00, 11, 10), (00, 01, 11) quad order.
//
// Generate allocates nothing before p has been validated and the counts
// range-checked; the returned buffers belong to the caller.
func Generate(p Params) (*mesh.Buffers, error) {
	layout, err := NewLayout(p)
	if err != nil {
		return nil, err
	}
	p = p.Normalize()

	g := newGenerator(p, layout)
	buf := mesh.New(layout.Vertex.Count, layout.Index.Count)

	g.poles(buf)
	g.equators(buf)
	g.hemispheres(buf)
	g.cylinder(buf)
	g.triangles(buf)

	return buf, nil
}

// generator carries the per-call tables shared by the vertex passes.
type generator struct {
	layout Layout

	radius    float32
	halfDepth float32
	summit    float32

	// South region share of the texture height; north gets 1 - ratio.
	vtSouth float32
	vtNorth float32

	// Unit circle (cos, sin) per longitude and texture s per seam column.
	theta []math.Vec2
	sTex  []float32
}

func newGenerator(p Params, layout Layout) *generator {
	halfDepth := p.Depth * 0.5
	ratio := p.Profile.Ratio(p)

	g := &generator{
		layout:    layout,
		radius:    p.Radius,
		halfDepth: halfDepth,
		summit:    halfDepth + p.Radius,
		vtSouth:   ratio,
		vtNorth:   1 - ratio,
		theta:     make([]math.Vec2, layout.Longitudes),
		sTex:      make([]float32, layout.RingStride),
	}

	toTheta := 2 * math32.Pi / float32(layout.Longitudes)
	toTexHorizontal := 1 / float32(layout.Longitudes)
	for j := range g.theta {
		angle := float32(j) * toTheta
		g.theta[j] = math.Vec2{X: math32.Cos(angle), Y: math32.Sin(angle)}
	}
	for j := range g.sTex {
		g.sTex[j] = 1 - float32(j)*toTexHorizontal
	}
	return g
}

// ring returns the unit circle point for seam column j; column Longitudes
// wraps to column 0.
func (g *generator) ring(j int) math.Vec2 {
	return g.theta[j%g.layout.Longitudes]
}

func set(buf *mesh.Buffers, idx int, pos, normal math.Vec3, uv math.Vec2) {
	buf.Positions[idx] = pos
	buf.Normals[idx] = normal
	buf.UVs[idx] = uv
}

// poles writes one pole vertex per longitude so each can carry an s value
// centered between its two neighbouring seams.
func (g *generator) poles(buf *mesh.Buffers) {
	v := g.layout.Vertex
	toTexHorizontal := 1 / float32(g.layout.Longitudes)

	for j := 0; j < g.layout.Longitudes; j++ {
		sPolar := 1 - (float32(j)+0.5)*toTexHorizontal

		set(buf, v.NorthCap.Offset+j,
			math.Vec3{Y: g.summit},
			math.Vec3{Y: 1},
			math.Vec2{X: sPolar, Y: 1})

		set(buf, v.SouthCap.Offset+j,
			math.Vec3{Y: -g.summit},
			math.Vec3{Y: -1},
			math.Vec2{X: sPolar, Y: 0})
	}
}

// equators writes the two rings where the hemispheres meet the cylinder.
// Their normals are purely radial.
func (g *generator) equators(buf *mesh.Buffers) {
	v := g.layout.Vertex

	for j := 0; j < g.layout.RingStride; j++ {
		tc := g.ring(j)
		normal := math.Vec3{X: tc.X, Z: -tc.Y}
		x, z := g.radius*tc.X, -g.radius*tc.Y

		set(buf, v.NorthEquator.Offset+j,
			math.Vec3{X: x, Y: g.halfDepth, Z: z},
			normal,
			math.Vec2{X: g.sTex[j], Y: g.vtNorth})

		set(buf, v.SouthEquator.Offset+j,
			math.Vec3{X: x, Y: -g.halfDepth, Z: z},
			normal,
			math.Vec2{X: g.sTex[j], Y: g.vtSouth})
	}
}

// hemispheres writes the interior latitude rows of both caps.
//
// South row i sits at phi = (i+1)*pi/latitudes below the south equator. The
// north row i sits at the same angle shifted by -pi/2, measured from the
// north equator, so its pair follows from the south one:
//
//	cos(phi - pi/2) =  sin(phi)
//	sin(phi - pi/2) = -cos(phi)
//
// One cos/sin evaluation per row serves both hemispheres.
func (g *generator) hemispheres(buf *mesh.Buffers) {
	l := g.layout
	toPhi := math32.Pi / float32(l.Latitudes)
	toTexVertical := 1 / float32(l.HalfLats)

	for i := 0; i < l.HemiRows; i++ {
		ip1 := float32(i + 1)
		phi := ip1 * toPhi

		cosPhiSouth := math32.Cos(phi)
		sinPhiSouth := math32.Sin(phi)
		cosPhiNorth := sinPhiSouth
		sinPhiNorth := -cosPhiSouth

		rhoCosNorth := g.radius * cosPhiNorth
		yNorth := g.halfDepth - g.radius*sinPhiNorth
		rhoCosSouth := g.radius * cosPhiSouth
		ySouth := -g.halfDepth - g.radius*sinPhiSouth

		tFac := ip1 * toTexVertical
		cmplFac := 1 - tFac
		tNorth := cmplFac + g.vtNorth*tFac
		tSouth := cmplFac * g.vtSouth

		north := l.Vertex.NorthHemi.Offset + i*l.RingStride
		south := l.Vertex.SouthHemi.Offset + i*l.RingStride

		for j := 0; j < l.RingStride; j++ {
			tc := g.ring(j)
			s := g.sTex[j]

			set(buf, north+j,
				math.Vec3{X: rhoCosNorth * tc.X, Y: yNorth, Z: -rhoCosNorth * tc.Y},
				math.Vec3{X: cosPhiNorth * tc.X, Y: -sinPhiNorth, Z: -cosPhiNorth * tc.Y},
				math.Vec2{X: s, Y: tNorth})

			set(buf, south+j,
				math.Vec3{X: rhoCosSouth * tc.X, Y: ySouth, Z: -rhoCosSouth * tc.Y},
				math.Vec3{X: cosPhiSouth * tc.X, Y: -sinPhiSouth, Z: -cosPhiSouth * tc.Y},
				math.Vec2{X: s, Y: tSouth})
		}
	}
}

// cylinder writes the interior rings between the equators. The equators
// themselves are the interpolation endpoints and are not repeated.
func (g *generator) cylinder(buf *mesh.Buffers) {
	l := g.layout
	if l.Rings == 0 {
		return
	}
	toFac := 1 / float32(l.Rings+1)

	idx := l.Vertex.Cylinder.Offset
	for h := 1; h <= l.Rings; h++ {
		fac := float32(h) * toFac
		y, t := cylinderRing(fac, g.halfDepth, g.vtNorth, g.vtSouth)

		for j := 0; j < l.RingStride; j++ {
			tc := g.ring(j)
			set(buf, idx,
				math.Vec3{X: g.radius * tc.X, Y: y, Z: -g.radius * tc.Y},
				math.Vec3{X: tc.X, Z: -tc.Y},
				math.Vec2{X: g.sTex[j], Y: t})
			idx++
		}
	}
}

// cylinderRing returns the height and texture t of the ring at fraction fac
// of the way from the north equator to the south equator.
func cylinderRing(fac, halfDepth, vtNorth, vtSouth float32) (y, t float32) {
	cmplFac := 1 - fac
	return cmplFac*halfDepth - fac*halfDepth, cmplFac*vtNorth + fac*vtSouth
}

// triangles fills the index buffer: fans at the poles, quads elsewhere.
func (g *generator) triangles(buf *mesh.Buffers) {
	l := g.layout
	v, ix := l.Vertex, l.Index
	tris := buf.Indices
	stride := l.RingStride

	// Polar fans. The north cap fans into the first ring below it, the
	// south cap into the last ring above it.
	northRing := v.NorthHemi.Offset
	for j := 0; j < l.Longitudes; j++ {
		k := ix.NorthCap.Offset + j*3
		tris[k] = uint32(v.NorthCap.Offset + j)
		tris[k+1] = uint32(northRing + j)
		tris[k+2] = uint32(northRing + j + 1)

		m := ix.SouthCap.Offset + j*3
		tris[m] = uint32(v.SouthCap.Offset + j)
		tris[m+1] = uint32(v.SouthPolar + j + 1)
		tris[m+2] = uint32(v.SouthPolar + j)
	}

	// Hemisphere bands. The last north band ends on the north equator;
	// the first south band starts on the south equator.
	k := ix.NorthHemi.Offset
	m := ix.SouthHemi.Offset
	for i := 0; i < l.HemiRows; i++ {
		north := v.NorthHemi.Offset + i*stride
		south := v.SouthEquator.Offset + i*stride
		for j := 0; j < l.Longitudes; j++ {
			k = quad(tris, k, north, north+stride, j)
			m = quad(tris, m, south, south+stride, j)
		}
	}

	// Cylinder bands from the north equator through every interior ring to
	// the south equator. With no rings the equators join directly.
	k = ix.Cylinder.Offset
	for i := 0; i <= l.Rings; i++ {
		curr := v.NorthEquator.Offset + i*stride
		for j := 0; j < l.Longitudes; j++ {
			k = quad(tris, k, curr, curr+stride, j)
		}
	}
}

// quad writes the two triangles of the cell at column j between ring curr
// and ring next and returns the next free slot.
func quad(tris []uint32, k, curr, next, j int) int {
	v00 := uint32(curr + j)
	v01 := uint32(next + j)
	v11 := uint32(next + j + 1)
	v10 := uint32(curr + j + 1)

	tris[k] = v00
	tris[k+1] = v11
	tris[k+2] = v10

	tris[k+3] = v00
	tris[k+4] = v01
	tris[k+5] = v11
	return k + 6
}
