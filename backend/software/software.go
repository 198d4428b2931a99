// Package software provides a CPU rendering backend.
//
// It implements gpucore.Context with a plain RGBA framebuffer and a
// scanline triangle rasterizer. It exists as the always-available
// fallback and as a reference for verifying GPU backend output.
package software

import (
	"fmt"

	"github.com/gogpu/hwvg/backend"
	"github.com/gogpu/hwvg/gpucore"
)

func init() {
	backend.Register(backend.BackendSoftware, func() (gpucore.Context, error) {
		return New(), nil
	})
}

// texture is a CPU-side texture allocation.
type texture struct {
	format gpucore.TextureFormat
	width  int
	height int
	pix    []byte
}

// Context is a CPU implementation of gpucore.Context.
//
// All triangle draws rasterize into an internal premultiplied RGBA
// framebuffer sized by BeginFrame. Not safe for concurrent use.
type Context struct {
	width   int
	height  int
	pix     []byte
	inFrame bool

	textures map[gpucore.TextureID]*texture
	nextID   gpucore.TextureID
}

var _ gpucore.Context = (*Context)(nil)

// New creates a software rendering context. The framebuffer is
// allocated on the first BeginFrame.
func New() *Context {
	return &Context{
		textures: make(map[gpucore.TextureID]*texture),
		nextID:   1,
	}
}

// Pixels returns the framebuffer as tightly packed premultiplied RGBA.
// The slice is owned by the context and valid until the next BeginFrame.
func (c *Context) Pixels() []byte { return c.pix }

// Size returns the framebuffer dimensions in pixels.
func (c *Context) Size() (int, int) { return c.width, c.height }

// CreateTexture allocates a texture, optionally with initial contents.
func (c *Context) CreateTexture(format gpucore.TextureFormat, width, height int, data []byte) (gpucore.TextureID, error) {
	if width <= 0 || height <= 0 {
		return gpucore.InvalidID, fmt.Errorf("software: invalid texture size %dx%d", width, height)
	}
	size := width * height * format.BytesPerPixel()
	if data != nil && len(data) != size {
		return gpucore.InvalidID, fmt.Errorf("software: texture data length %d, want %d", len(data), size)
	}

	pix := make([]byte, size)
	copy(pix, data)

	id := c.nextID
	c.nextID++
	c.textures[id] = &texture{format: format, width: width, height: height, pix: pix}
	return id, nil
}

// WriteTexture replaces the region (x, y, w, h) with data.
func (c *Context) WriteTexture(id gpucore.TextureID, x, y, w, h int, data []byte) error {
	tex, ok := c.textures[id]
	if !ok {
		return fmt.Errorf("software: unknown texture %d", id)
	}
	if x < 0 || y < 0 || w <= 0 || h <= 0 || x+w > tex.width || y+h > tex.height {
		return fmt.Errorf("software: write region (%d,%d %dx%d) outside texture %dx%d",
			x, y, w, h, tex.width, tex.height)
	}
	bpp := tex.format.BytesPerPixel()
	if len(data) != w*h*bpp {
		return fmt.Errorf("software: write data length %d, want %d", len(data), w*h*bpp)
	}

	for row := 0; row < h; row++ {
		dst := ((y+row)*tex.width + x) * bpp
		src := row * w * bpp
		copy(tex.pix[dst:dst+w*bpp], data[src:src+w*bpp])
	}
	return nil
}

// DestroyTexture frees a texture.
func (c *Context) DestroyTexture(id gpucore.TextureID) error {
	if _, ok := c.textures[id]; !ok {
		return fmt.Errorf("software: unknown texture %d", id)
	}
	delete(c.textures, id)
	return nil
}

// BeginFrame sizes and clears the framebuffer.
func (c *Context) BeginFrame(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("software: invalid frame size %dx%d", width, height)
	}
	if width != c.width || height != c.height || c.pix == nil {
		c.pix = make([]byte, width*height*4)
		c.width = width
		c.height = height
	} else {
		for i := range c.pix {
			c.pix[i] = 0
		}
	}
	c.inFrame = true
	return nil
}

// EndFrame completes the frame. The framebuffer stays readable through
// Pixels until the next BeginFrame.
func (c *Context) EndFrame() error {
	if !c.inFrame {
		return backend.ErrNotInitialized
	}
	c.inFrame = false
	return nil
}

// Draw rasterizes one indexed triangle list into the framebuffer.
func (c *Context) Draw(state gpucore.DrawState, vertices []gpucore.Vertex, indices []uint32) error {
	if !c.inFrame {
		return backend.ErrNotInitialized
	}
	if len(indices)%3 != 0 {
		return fmt.Errorf("software: index count %d not a multiple of 3", len(indices))
	}

	var tex *texture
	if state.Texture != gpucore.InvalidID {
		t, ok := c.textures[state.Texture]
		if !ok {
			return fmt.Errorf("software: unknown texture %d", state.Texture)
		}
		tex = t
	}

	clipX0, clipY0, clipX1, clipY1 := c.clipBounds(state.Clip)
	if clipX0 >= clipX1 || clipY0 >= clipY1 {
		return nil
	}

	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		if int(i0) >= len(vertices) || int(i1) >= len(vertices) || int(i2) >= len(vertices) {
			return fmt.Errorf("software: index out of range (%d vertices)", len(vertices))
		}
		c.rasterizeTriangle(vertices[i0], vertices[i1], vertices[i2],
			tex, state.Blend, clipX0, clipY0, clipX1, clipY1)
	}
	return nil
}

// clipBounds intersects the scissor rect with the framebuffer and
// returns half-open pixel bounds.
func (c *Context) clipBounds(clip gpucore.ClipRect) (x0, y0, x1, y1 int) {
	x0, y0 = 0, 0
	x1, y1 = c.width, c.height
	if !clip.Enabled {
		return
	}
	if int(clip.X) > x0 {
		x0 = int(clip.X)
	}
	if int(clip.Y) > y0 {
		y0 = int(clip.Y)
	}
	if cx1 := int(clip.X) + int(clip.Width); cx1 < x1 {
		x1 = cx1
	}
	if cy1 := int(clip.Y) + int(clip.Height); cy1 < y1 {
		y1 = cy1
	}
	return
}

// rasterizeTriangle fills one triangle using edge functions with
// per-pixel barycentric interpolation of UV and color.
func (c *Context) rasterizeTriangle(v0, v1, v2 gpucore.Vertex, tex *texture,
	blend gpucore.BlendMode, clipX0, clipY0, clipX1, clipY1 int,
) {
	x0, y0 := float64(v0.Pos[0]), float64(v0.Pos[1])
	x1, y1 := float64(v1.Pos[0]), float64(v1.Pos[1])
	x2, y2 := float64(v2.Pos[0]), float64(v2.Pos[1])

	area := (x1-x0)*(y2-y0) - (y1-y0)*(x2-x0)
	if area == 0 {
		return
	}
	// Normalize winding so the edge tests below accept both orders.
	if area < 0 {
		x1, y1, x2, y2 = x2, y2, x1, y1
		v1, v2 = v2, v1
		area = -area
	}

	// Top-left fill rule: a pixel center exactly on an edge belongs to
	// the triangle whose edge runs upward, or rightward when horizontal,
	// so an edge shared by two triangles composites exactly once.
	t0 := topLeftEdge(x1, y1, x2, y2)
	t1 := topLeftEdge(x2, y2, x0, y0)
	t2 := topLeftEdge(x0, y0, x1, y1)

	minX := clampI(int(floor3(x0, x1, x2)), clipX0, clipX1)
	maxX := clampI(int(ceil3(x0, x1, x2))+1, clipX0, clipX1)
	minY := clampI(int(floor3(y0, y1, y2)), clipY0, clipY1)
	maxY := clampI(int(ceil3(y0, y1, y2))+1, clipY0, clipY1)

	invArea := 1.0 / area

	for py := minY; py < maxY; py++ {
		fy := float64(py) + 0.5
		for px := minX; px < maxX; px++ {
			fx := float64(px) + 0.5

			w0 := (x2-x1)*(fy-y1) - (y2-y1)*(fx-x1)
			w1 := (x0-x2)*(fy-y2) - (y0-y2)*(fx-x2)
			w2 := (x1-x0)*(fy-y0) - (y1-y0)*(fx-x0)
			if !edgeCovers(w0, t0) || !edgeCovers(w1, t1) || !edgeCovers(w2, t2) {
				continue
			}

			b0 := w0 * invArea
			b1 := w1 * invArea
			b2 := w2 * invArea

			r, g, b, a := interpColor(v0, v1, v2, b0, b1, b2)
			if tex != nil {
				u := b0*float64(v0.UV[0]) + b1*float64(v1.UV[0]) + b2*float64(v2.UV[0])
				v := b0*float64(v0.UV[1]) + b1*float64(v1.UV[1]) + b2*float64(v2.UV[1])
				tr, tg, tb, ta := tex.sample(u, v)
				r = mul255(r, tr)
				g = mul255(g, tg)
				b = mul255(b, tb)
				a = mul255(a, ta)
			}
			if a == 0 && blend != gpucore.BlendCopy && (r|g|b) == 0 {
				continue
			}

			c.blendPixel(px, py, r, g, b, a, blend)
		}
	}
}

// sample reads the texel nearest to (u, v) with clamp-to-edge
// addressing. A8 textures expand to premultiplied white.
func (t *texture) sample(u, v float64) (r, g, b, a uint32) {
	tx := clampI(int(u*float64(t.width)), 0, t.width-1)
	ty := clampI(int(v*float64(t.height)), 0, t.height-1)

	if t.format == gpucore.TextureFormatA8 {
		av := uint32(t.pix[ty*t.width+tx])
		return av, av, av, av
	}
	off := (ty*t.width + tx) * 4
	return uint32(t.pix[off]), uint32(t.pix[off+1]), uint32(t.pix[off+2]), uint32(t.pix[off+3])
}

// blendPixel composites one premultiplied source pixel.
func (c *Context) blendPixel(px, py int, r, g, b, a uint32, blend gpucore.BlendMode) {
	off := (py*c.width + px) * 4
	dst := c.pix[off : off+4 : off+4]

	switch blend {
	case gpucore.BlendCopy:
		dst[0] = uint8(r)
		dst[1] = uint8(g)
		dst[2] = uint8(b)
		dst[3] = uint8(a)
	case gpucore.BlendAdditive:
		dst[0] = addSat(dst[0], r)
		dst[1] = addSat(dst[1], g)
		dst[2] = addSat(dst[2], b)
		dst[3] = addSat(dst[3], a)
	default: // source-over
		inv := 255 - a
		dst[0] = uint8(r + mul255(uint32(dst[0]), inv))
		dst[1] = uint8(g + mul255(uint32(dst[1]), inv))
		dst[2] = uint8(b + mul255(uint32(dst[2]), inv))
		dst[3] = uint8(a + mul255(uint32(dst[3]), inv))
	}
}

func interpColor(v0, v1, v2 gpucore.Vertex, b0, b1, b2 float64) (r, g, b, a uint32) {
	r = uint32(b0*float64(v0.Color[0]) + b1*float64(v1.Color[0]) + b2*float64(v2.Color[0]) + 0.5)
	g = uint32(b0*float64(v0.Color[1]) + b1*float64(v1.Color[1]) + b2*float64(v2.Color[1]) + 0.5)
	b = uint32(b0*float64(v0.Color[2]) + b1*float64(v1.Color[2]) + b2*float64(v2.Color[2]) + 0.5)
	a = uint32(b0*float64(v0.Color[3]) + b1*float64(v1.Color[3]) + b2*float64(v2.Color[3]) + 0.5)
	return
}

// edgeCovers reports whether an edge function value admits a pixel,
// counting the zero boundary only for top and left edges.
func edgeCovers(w float64, topLeft bool) bool {
	if w != 0 {
		return w > 0
	}
	return topLeft
}

// topLeftEdge classifies the directed edge (ax,ay)-(bx,by) of a
// positive-area triangle in y-down device coordinates. Left edges run
// upward; top edges are horizontal and run rightward.
func topLeftEdge(ax, ay, bx, by float64) bool {
	if ay != by {
		return by < ay
	}
	return bx > ax
}

// mul255 multiplies two 0..255 values with rounding.
func mul255(x, y uint32) uint32 {
	return (x*y + 127) / 255
}

func addSat(d uint8, s uint32) uint8 {
	sum := uint32(d) + s
	if sum > 255 {
		return 255
	}
	return uint8(sum)
}

func clampI(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func floor3(a, b, c float64) float64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

func ceil3(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}
