// Package uvmap renders the texture layout of a mesh to an image: every
// triangle is filled in its UV position, coloured by the capsule band it
// belongs to, and outlined.
package uvmap

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"github.com/Faultbox/capsulemaker/pkg/math"
	"github.com/Faultbox/capsulemaker/pkg/mesh"
)

// Options controls the rendered image.
type Options struct {
	Size        int     // output width and height in pixels
	Supersample int     // render scale before downsampling, 1 disables
	LineWidth   float32 // outline width in output pixels, 0 disables

	Background color.RGBA
	North      color.RGBA
	Cylinder   color.RGBA
	South      color.RGBA
	Line       color.RGBA
}

// MaxSize is the largest output size Render accepts. Supersampling is
// reduced so the working canvas never exceeds it either.
const MaxSize = 8192

// supersample returns the render scale for an output of size pixels.
func supersample(size, requested int) int {
	return max(min(requested, MaxSize/size), 1)
}

// DefaultOptions returns a size x size layout with 4x supersampling.
func DefaultOptions(size int) Options {
	return Options{
		Size:        size,
		Supersample: 4,
		LineWidth:   1,
		Background:  color.RGBA{R: 24, G: 24, B: 28, A: 255},
		North:       color.RGBA{R: 214, G: 96, B: 77, A: 255},
		Cylinder:    color.RGBA{R: 104, G: 180, B: 96, A: 255},
		South:       color.RGBA{R: 77, G: 124, B: 214, A: 255},
		Line:        color.RGBA{R: 240, G: 240, B: 240, A: 255},
	}
}

// Render draws the UV layout of m. ratio is the south share of the texture
// height, as returned by capsule.UVProfile.Ratio; triangles whose centroid
// lies above 1-ratio are north, below ratio south, the rest cylinder.
func Render(m *mesh.Buffers, ratio float32, opts Options) (*image.RGBA, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if m.UVs == nil {
		return nil, fmt.Errorf("uv map: mesh has no texture coordinates")
	}
	if opts.Size <= 0 || opts.Size > MaxSize {
		return nil, fmt.Errorf("uv map: size must be in [1, %d], got %d", MaxSize, opts.Size)
	}
	ss := supersample(opts.Size, opts.Supersample)
	size := opts.Size * ss

	canvas := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)

	r := &renderer{
		canvas: canvas,
		ras:    vector.NewRasterizer(size, size),
		scale:  float32(size),
	}

	fills := map[band]*image.Uniform{
		bandNorth:    image.NewUniform(opts.North),
		bandCylinder: image.NewUniform(opts.Cylinder),
		bandSouth:    image.NewUniform(opts.South),
	}
	for i := 0; i < m.TriangleCount(); i++ {
		uv := r.corners(m, i)
		r.fill(uv, fills[classify(uv, ratio)])
	}

	if opts.LineWidth > 0 {
		line := image.NewUniform(opts.Line)
		width := opts.LineWidth * float32(ss)
		for i := 0; i < m.TriangleCount(); i++ {
			uv := r.corners(m, i)
			for k := 0; k < 3; k++ {
				r.stroke(uv[k], uv[(k+1)%3], width, line)
			}
		}
	}

	if ss == 1 {
		return canvas, nil
	}
	out := image.NewRGBA(image.Rect(0, 0, opts.Size, opts.Size))
	draw.CatmullRom.Scale(out, out.Bounds(), canvas, canvas.Bounds(), draw.Src, nil)
	return out, nil
}

type band int

const (
	bandSouth band = iota
	bandCylinder
	bandNorth
)

func classify(uv [3]math.Vec2, ratio float32) band {
	t := (uv[0].Y + uv[1].Y + uv[2].Y) / 3
	switch {
	case t > 1-ratio:
		return bandNorth
	case t < ratio:
		return bandSouth
	default:
		return bandCylinder
	}
}

type renderer struct {
	canvas *image.RGBA
	ras    *vector.Rasterizer
	scale  float32
}

// corners returns the pixel positions of triangle i. t = 1 is the top row.
func (r *renderer) corners(m *mesh.Buffers, i int) [3]math.Vec2 {
	tri := m.Triangle(i)
	var out [3]math.Vec2
	for k, idx := range tri {
		uv := m.UVs[idx]
		out[k] = math.Vec2{X: uv.X * r.scale, Y: (1 - uv.Y) * r.scale}
	}
	return out
}

func (r *renderer) fill(p [3]math.Vec2, src image.Image) {
	r.ras.Reset(r.canvas.Bounds().Dx(), r.canvas.Bounds().Dy())
	r.ras.MoveTo(p[0].X, p[0].Y)
	r.ras.LineTo(p[1].X, p[1].Y)
	r.ras.LineTo(p[2].X, p[2].Y)
	r.ras.ClosePath()
	r.ras.Draw(r.canvas, r.canvas.Bounds(), src, image.Point{})
}

// stroke fills the rectangle of the given width centred on segment a-b.
func (r *renderer) stroke(a, b math.Vec2, width float32, src image.Image) {
	d := b.Sub(a)
	length := d.Length()
	if length == 0 {
		return
	}
	half := width / 2
	n := math.Vec2{X: -d.Y / length * half, Y: d.X / length * half}

	r.ras.Reset(r.canvas.Bounds().Dx(), r.canvas.Bounds().Dy())
	r.ras.MoveTo(a.X+n.X, a.Y+n.Y)
	r.ras.LineTo(b.X+n.X, b.Y+n.Y)
	r.ras.LineTo(b.X-n.X, b.Y-n.Y)
	r.ras.LineTo(a.X-n.X, a.Y-n.Y)
	r.ras.ClosePath()
	r.ras.Draw(r.canvas, r.canvas.Bounds(), src, image.Point{})
}
