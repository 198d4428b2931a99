package hwvg

import (
	"fmt"
	"math"

	"github.com/gogpu/hwvg/cache"
	"github.com/gogpu/hwvg/gpucore"
	"github.com/gogpu/hwvg/internal/raster"
)

// subpixelBuckets is the number of horizontal subpixel phases a glyph
// is rasterized at. Four phases keep small text stable under scrolling
// without blowing up the atlas.
const subpixelBuckets = 4

// DrawPath tessellates and fills a path with a brush. The transform m
// maps path coordinates to device pixels; brush geometry is interpreted
// in path space.
func (r *Renderer) DrawPath(path *Path, brush Brush, rule FillRule, m Matrix) error {
	if err := r.drawGuard(); err != nil {
		return err
	}
	mesh, err := FillPath(path, rule, r.pathSpaceOptions(m))
	if err != nil {
		return err
	}
	return r.drawMesh(mesh, brush, m)
}

// DrawStroke expands and fills the stroke outline of a path.
func (r *Renderer) DrawStroke(path *Path, brush Brush, style StrokeStyle, m Matrix) error {
	if err := r.drawGuard(); err != nil {
		return err
	}
	mesh, err := StrokePath(path, style, r.pathSpaceOptions(m))
	if err != nil {
		return err
	}
	return r.drawMesh(mesh, brush, m)
}

// pathSpaceOptions scales the device-pixel tolerance and feather into
// path space so flattening error and AA width come out right after the
// transform is applied.
func (r *Renderer) pathSpaceOptions(m Matrix) TessellateOptions {
	opts := r.tessOptions()
	scale := m.MaxScale()
	if scale > 1e-10 {
		opts.Tolerance /= scale
		opts.Feather /= scale
	}
	return opts
}

// drawMesh shades a path-space mesh with the brush, transforms it to
// device space, and hands it to the batcher.
func (r *Renderer) drawMesh(mesh *Mesh, brush Brush, m Matrix) error {
	if mesh.IsEmpty() {
		return nil
	}
	texture := gpucore.TextureID(gpucore.InvalidID)
	verts := make([]gpucore.Vertex, len(mesh.Vertices))

	switch b := brush.(type) {
	case SolidBrush:
		rgba := b.Color.Premul8()
		for i, v := range mesh.Vertices {
			verts[i] = gpucore.Vertex{Pos: v.Pos, Color: scaleColor(rgba, mesh.coverageAt(i))}
		}

	case LinearGradientBrush:
		ts := make([]float64, len(mesh.Vertices))
		dx := b.End.X - b.Start.X
		dy := b.End.Y - b.Start.Y
		lenSq := dx*dx + dy*dy
		for i, v := range mesh.Vertices {
			if lenSq > 0 {
				px := float64(v.Pos[0]) - b.Start.X
				py := float64(v.Pos[1]) - b.Start.Y
				ts[i] = (px*dx + py*dy) / lenSq
			}
		}
		id, err := r.shadeRamp(verts, mesh, ts, b.Stops, b.Extend)
		if err != nil {
			return err
		}
		texture = id

	case RadialGradientBrush:
		ts := make([]float64, len(mesh.Vertices))
		for i, v := range mesh.Vertices {
			if b.Radius > 0 {
				px := float64(v.Pos[0]) - b.Center.X
				py := float64(v.Pos[1]) - b.Center.Y
				ts[i] = math.Hypot(px, py) / b.Radius
			}
		}
		id, err := r.shadeRamp(verts, mesh, ts, b.Stops, b.Extend)
		if err != nil {
			return err
		}
		texture = id

	case ImageBrush:
		if b.Image == nil || b.Image.Width <= 0 || b.Image.Height <= 0 {
			return nil
		}
		h, err := r.acquireImage(b.Image)
		if err != nil {
			return err
		}
		texture = h.Texture
		w := float64(b.Image.Width)
		ih := float64(b.Image.Height)
		for i, v := range mesh.Vertices {
			u := (float64(v.Pos[0]) - b.Origin.X) / w
			vv := (float64(v.Pos[1]) - b.Origin.Y) / ih
			verts[i] = gpucore.Vertex{
				Pos: v.Pos,
				UV: [2]float32{
					h.U0 + float32(clampF(u, 0, 1))*(h.U1-h.U0),
					h.V0 + float32(clampF(vv, 0, 1))*(h.V1-h.V0),
				},
				Color: scaleColor([4]uint8{255, 255, 255, 255}, mesh.coverageAt(i)),
			}
		}

	default:
		return fmt.Errorf("%w: unknown brush type %T", ErrInvalidState, brush)
	}

	for i := range verts {
		p := m.TransformPoint(Point{X: float64(verts[i].Pos[0]), Y: float64(verts[i].Pos[1])})
		verts[i].Pos = [2]float32{float32(p.X), float32(p.Y)}
	}

	r.submit(gpucore.DrawState{
		Texture: texture,
		Blend:   gpucore.BlendSourceOver,
		Clip:    r.currentClip(),
	}, verts, mesh.Indices)
	return nil
}

// DrawImage draws an image into a destination rectangle.
func (r *Renderer) DrawImage(img *Image, dst Rect, m Matrix) error {
	if err := r.drawGuard(); err != nil {
		return err
	}
	if img == nil || img.Width <= 0 || img.Height <= 0 || dst.IsEmpty() {
		return nil
	}
	h, err := r.acquireImage(img)
	if err != nil {
		return err
	}
	mesh := FillRects([]TexturedRect{{Dst: dst, Src: handleUVRect(h)}})
	verts := make([]gpucore.Vertex, len(mesh.Vertices))
	for i, v := range mesh.Vertices {
		p := m.TransformPoint(Point{X: float64(v.Pos[0]), Y: float64(v.Pos[1])})
		verts[i] = gpucore.Vertex{
			Pos:   [2]float32{float32(p.X), float32(p.Y)},
			UV:    v.UV,
			Color: [4]uint8{255, 255, 255, 255},
		}
	}
	r.submit(gpucore.DrawState{
		Texture: h.Texture,
		Blend:   gpucore.BlendSourceOver,
		Clip:    r.currentClip(),
	}, verts, mesh.Indices)
	return nil
}

// DrawText rasterizes a glyph run through the atlas cache and draws one
// textured quad per glyph. Glyph masks are produced at device pixel
// size, so the transform's scale is baked into the atlas entry.
func (r *Renderer) DrawText(run GlyphRun, brush Brush, m Matrix) error {
	if err := r.drawGuard(); err != nil {
		return err
	}
	if run.Outliner == nil || len(run.Glyphs) == 0 {
		return nil
	}
	scale := m.MaxScale()
	if scale <= 1e-10 {
		return nil
	}
	devSize := run.PixelSize * scale
	size26_6 := uint32(devSize*64 + 0.5)

	for _, g := range run.Glyphs {
		dev := m.TransformPoint(g.Position)
		bucket := subpixelBucket(dev.X)
		fp := cache.GlyphKey(run.FaceID, g.ID, size26_6, bucket)
		id := g.ID
		produce := func() (cache.Mask, error) {
			return r.rasterizeGlyph(run.Outliner, id, devSize, bucket)
		}
		h, err := r.cache.GetOrCreateMask(fp, produce)
		if isAtlasFull(err) && r.cache.EvictUnused() > 0 {
			// Atlas pressure: drop unreferenced entries and retry once.
			h, err = r.cache.GetOrCreateMask(fp, produce)
		}
		if err != nil {
			return r.cacheErr("DrawText", err)
		}
		r.hold(h)
		if h.Width == 0 || h.Height == 0 {
			continue
		}
		x0 := math.Floor(dev.X) + float64(h.OffsetX)
		y0 := math.Floor(dev.Y) + float64(h.OffsetY)
		color := colorAt(brush, g.Position).Premul8()
		mesh := FillRects([]TexturedRect{{
			Dst: Rect{MinX: x0, MinY: y0, MaxX: x0 + float64(h.Width), MaxY: y0 + float64(h.Height)},
			Src: handleUVRect(h),
		}})
		verts := make([]gpucore.Vertex, len(mesh.Vertices))
		for i, v := range mesh.Vertices {
			verts[i] = gpucore.Vertex{Pos: v.Pos, UV: v.UV, Color: color}
		}
		r.submit(gpucore.DrawState{
			Texture: h.Texture,
			Blend:   gpucore.BlendSourceOver,
			Clip:    r.currentClip(),
		}, verts, mesh.Indices)
	}
	return nil
}

// rasterizeGlyph produces an A8 coverage mask for one glyph at device
// pixel size and horizontal subpixel phase.
func (r *Renderer) rasterizeGlyph(out GlyphOutliner, glyphID uint32, devSize float64, bucket uint8) (cache.Mask, error) {
	outline, err := out.GlyphOutline(glyphID, devSize)
	if err != nil {
		return cache.Mask{}, err
	}
	contours := flattenPath(outline, r.cfg.Tolerance)
	if len(contours) == 0 {
		return cache.Mask{}, nil
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range contours {
		for _, p := range c.points {
			minX = math.Min(minX, p.X)
			minY = math.Min(minY, p.Y)
			maxX = math.Max(maxX, p.X)
			maxY = math.Max(maxY, p.Y)
		}
	}
	phase := float64(bucket) / subpixelBuckets
	ox := int(math.Floor(minX))
	oy := int(math.Floor(minY))
	w := int(math.Ceil(maxX+phase)) - ox + 1
	h := int(math.Ceil(maxY)) - oy + 1
	if w <= 0 || h <= 0 {
		return cache.Mask{}, nil
	}

	shifted := make([][]raster.Point, len(contours))
	for i, c := range contours {
		pts := make([]raster.Point, len(c.points))
		for j, p := range c.points {
			pts[j] = raster.Point{X: p.X - float64(ox) + phase, Y: p.Y - float64(oy)}
		}
		shifted[i] = pts
	}
	return cache.Mask{
		Width:   w,
		Height:  h,
		OffsetX: ox,
		OffsetY: oy,
		Pix:     raster.Fill(w, h, shifted),
	}, nil
}

// maxRampPeriods caps the number of gradient periods one baked strip
// holds; spans beyond the cap clamp to the last tile.
const maxRampPeriods = 32

// maxRampWidth caps baked strip width so multi-period ramps stay well
// under common GPU texture size limits.
const maxRampWidth = 4096

// shadeRamp acquires a ramp texture covering the parameter span of ts
// and fills verts with vertices sampling it. Repeat and reflect bake
// one ramp tile per period, so interpolating the remapped parameter
// across triangles that span whole periods still lands on the right
// texels; pad clamps to the unit tile.
func (r *Renderer) shadeRamp(verts []gpucore.Vertex, mesh *Mesh, ts []float64, stops []ColorStop, extend ExtendMode) (gpucore.TextureID, error) {
	lo, periods := rampSpan(ts, extend)
	h, err := r.acquireRamp(stops, extend, lo, periods)
	if err != nil {
		return gpucore.InvalidID, err
	}
	for i, v := range mesh.Vertices {
		t := ts[i]
		if extend == ExtendPad {
			t = clampF(t, 0, 1)
		} else {
			t = clampF((t-float64(lo))/float64(periods), 0, 1)
		}
		verts[i] = rampVertex(v.Pos, h, t, mesh.coverageAt(i))
	}
	return h.Texture, nil
}

// rampSpan returns the whole-period window [lo, lo+periods) covering
// all parameter values. Pad always maps to the unit window.
func rampSpan(ts []float64, extend ExtendMode) (lo, periods int) {
	if extend == ExtendPad {
		return 0, 1
	}
	tmin, tmax := math.Inf(1), math.Inf(-1)
	for _, t := range ts {
		tmin = math.Min(tmin, t)
		tmax = math.Max(tmax, t)
	}
	if tmin > tmax {
		return 0, 1
	}
	lo = int(math.Floor(tmin))
	hi := int(math.Ceil(tmax))
	if hi <= lo {
		hi = lo + 1
	}
	periods = hi - lo
	if periods > maxRampPeriods {
		periods = maxRampPeriods
	}
	return lo, periods
}

// acquireRamp resolves gradient stops to a baked ramp texture handle
// spanning periods tiles starting at period lo, pinned for the rest of
// the frame.
func (r *Renderer) acquireRamp(stops []ColorStop, extend ExtendMode, lo, periods int) (cache.Handle, error) {
	cstops := make([]cache.Stop, len(stops))
	for i, s := range stops {
		c := s.Color.NRGBA()
		cstops[i] = cache.Stop{Offset: s.Offset, R: c.R, G: c.G, B: c.B, A: c.A}
	}
	// Reflect tiles alternate direction; whether the first baked tile
	// runs backwards depends on the parity of the starting period.
	parity := uint8(0)
	if extend == ExtendReflect && lo&1 != 0 {
		parity = 1
	}
	tileSize := r.cfg.Cache.RampSize
	if tileSize*periods > maxRampWidth {
		tileSize = maxRampWidth / periods
		if tileSize < 2 {
			tileSize = 2
		}
	}
	fp := cache.RampKey(uint8(extend), periods, parity, cstops)
	h, err := r.cache.GetOrCreateTexture(fp, func() (cache.Texture, error) {
		return cache.Texture{
			Format: gpucore.TextureFormatRGBA8,
			Width:  tileSize * periods,
			Height: 1,
			Pix:    cache.BakeRampTiles(cstops, tileSize, periods, extend == ExtendReflect, parity == 1),
		}, nil
	})
	if err != nil {
		return cache.Handle{}, r.cacheErr("gradient ramp", err)
	}
	r.hold(h)
	return h, nil
}

// acquireImage resolves an image to a premultiplied texture handle,
// pinned for the rest of the frame.
func (r *Renderer) acquireImage(img *Image) (cache.Handle, error) {
	fp := cache.ImageKey(img.ID(), img.Version())
	h, err := r.cache.GetOrCreateTexture(fp, func() (cache.Texture, error) {
		return cache.Texture{
			Format: gpucore.TextureFormatRGBA8,
			Width:  img.Width,
			Height: img.Height,
			Pix:    premultiply(img.Pix),
		}, nil
	})
	if err != nil {
		return cache.Handle{}, r.cacheErr("image upload", err)
	}
	r.hold(h)
	return h, nil
}

// rampVertex builds a vertex sampling the ramp strip at parameter t.
func rampVertex(pos [2]float32, h cache.Handle, t float64, coverage float32) gpucore.Vertex {
	return gpucore.Vertex{
		Pos:   pos,
		UV:    [2]float32{h.U0 + float32(t)*(h.U1-h.U0), (h.V0 + h.V1) / 2},
		Color: scaleColor([4]uint8{255, 255, 255, 255}, coverage),
	}
}

// handleUVRect returns the handle's texture coordinates as a rectangle
// in the layout FillRects consumes.
func handleUVRect(h cache.Handle) Rect {
	return Rect{
		MinX: float64(h.U0), MinY: float64(h.V0),
		MaxX: float64(h.U1), MaxY: float64(h.V1),
	}
}

// applyExtend maps a gradient parameter into [0, 1] per the extend mode.
func applyExtend(t float64, mode ExtendMode) float64 {
	switch mode {
	case ExtendRepeat:
		t -= math.Floor(t)
	case ExtendReflect:
		t = math.Abs(t)
		period := math.Mod(t, 2)
		if period > 1 {
			period = 2 - period
		}
		t = period
	default:
		t = clampF(t, 0, 1)
	}
	return t
}

// colorAt evaluates a brush's color at a single point. Glyph quads get
// one color per glyph rather than per-pixel shading.
func colorAt(brush Brush, p Point) RGBA {
	switch b := brush.(type) {
	case SolidBrush:
		return b.Color
	case LinearGradientBrush:
		dx := b.End.X - b.Start.X
		dy := b.End.Y - b.Start.Y
		lenSq := dx*dx + dy*dy
		t := 0.0
		if lenSq > 0 {
			t = ((p.X-b.Start.X)*dx + (p.Y-b.Start.Y)*dy) / lenSq
		}
		return evalStops(b.Stops, applyExtend(t, b.Extend))
	case RadialGradientBrush:
		t := 0.0
		if b.Radius > 0 {
			t = math.Hypot(p.X-b.Center.X, p.Y-b.Center.Y) / b.Radius
		}
		return evalStops(b.Stops, applyExtend(t, b.Extend))
	default:
		return RGBA{R: 1, G: 1, B: 1, A: 1}
	}
}

// evalStops interpolates a stop list at parameter t in [0, 1].
func evalStops(stops []ColorStop, t float64) RGBA {
	if len(stops) == 0 {
		return RGBA{}
	}
	if t <= stops[0].Offset {
		return stops[0].Color
	}
	last := stops[len(stops)-1]
	if t >= last.Offset {
		return last.Color
	}
	for i := 1; i < len(stops); i++ {
		if t <= stops[i].Offset {
			s0, s1 := stops[i-1], stops[i]
			span := s1.Offset - s0.Offset
			if span <= 0 {
				return s1.Color
			}
			f := (t - s0.Offset) / span
			return RGBA{
				R: s0.Color.R + (s1.Color.R-s0.Color.R)*f,
				G: s0.Color.G + (s1.Color.G-s0.Color.G)*f,
				B: s0.Color.B + (s1.Color.B-s0.Color.B)*f,
				A: s0.Color.A + (s1.Color.A-s0.Color.A)*f,
			}
		}
	}
	return last.Color
}

// subpixelBucket quantizes the fractional part of a device x coordinate.
func subpixelBucket(x float64) uint8 {
	frac := x - math.Floor(x)
	return uint8(frac*subpixelBuckets) % subpixelBuckets
}

// scaleColor multiplies a premultiplied color by a coverage factor.
func scaleColor(c [4]uint8, coverage float32) [4]uint8 {
	if coverage >= 1 {
		return c
	}
	if coverage <= 0 {
		return [4]uint8{}
	}
	return [4]uint8{
		uint8(float32(c[0])*coverage + 0.5),
		uint8(float32(c[1])*coverage + 0.5),
		uint8(float32(c[2])*coverage + 0.5),
		uint8(float32(c[3])*coverage + 0.5),
	}
}

// premultiply converts straight-alpha RGBA pixels to premultiplied.
func premultiply(pix []byte) []byte {
	out := make([]byte, len(pix))
	for i := 0; i+3 < len(pix); i += 4 {
		a := uint32(pix[i+3])
		out[i+0] = uint8((uint32(pix[i+0])*a + 127) / 255)
		out[i+1] = uint8((uint32(pix[i+1])*a + 127) / 255)
		out[i+2] = uint8((uint32(pix[i+2])*a + 127) / 255)
		out[i+3] = pix[i+3]
	}
	return out
}
