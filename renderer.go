package hwvg

import (
	"errors"
	"fmt"

	"github.com/gogpu/hwvg/cache"
	"github.com/gogpu/hwvg/gpucore"
)

// RendererConfig holds renderer configuration.
type RendererConfig struct {
	// Cache configures the resource cache (atlas pages, ramp size).
	Cache cache.Config

	// Tolerance is the curve flattening tolerance in device pixels.
	// Default: 0.25
	Tolerance float64

	// Feather is the anti-aliasing band width in device pixels.
	// Zero disables coverage AA. Default: 1.0
	Feather float64

	// MaxBatchVertices caps the vertex count of a single batch; larger
	// geometry opens a new batch. Default: 65536
	MaxBatchVertices int
}

// DefaultRendererConfig returns the default configuration.
func DefaultRendererConfig() RendererConfig {
	return RendererConfig{
		Cache:            cache.DefaultConfig(),
		Tolerance:        defaultTolerance,
		Feather:          1.0,
		MaxBatchVertices: 65536,
	}
}

// RendererConfigError describes an invalid configuration field.
type RendererConfigError struct {
	Field  string
	Reason string
}

func (e *RendererConfigError) Error() string {
	return fmt.Sprintf("hwvg: invalid config %s: %s", e.Field, e.Reason)
}

// Validate checks if the configuration is valid. The embedded cache
// config is validated by the cache itself.
func (c *RendererConfig) Validate() error {
	if c.Tolerance <= 0 {
		return &RendererConfigError{Field: "Tolerance", Reason: "must be positive"}
	}
	if c.Feather < 0 {
		return &RendererConfigError{Field: "Feather", Reason: "must be non-negative"}
	}
	if c.MaxBatchVertices < 4 {
		return &RendererConfigError{Field: "MaxBatchVertices", Reason: "must be at least 4"}
	}
	return nil
}

// rendererState is the batcher's explicit state. Draw calls are legal
// in stateIdle and stateAccumulating; submission runs in stateFlushing
// and rejects re-entrant draws.
type rendererState uint8

const (
	stateIdle rendererState = iota
	stateAccumulating
	stateFlushing
)

// Renderer translates paths, images, and glyph runs into batched
// triangle draws against a render context.
//
// A Renderer serves one surface from one goroutine. Frame lifecycle:
// BeginFrame, any number of draw calls and flushes, EndFrame. Abandon
// discards the current frame without GPU submission.
type Renderer struct {
	ctx   gpucore.Context
	cfg   RendererConfig
	cache *cache.Cache
	batch *batcher

	state     rendererState
	inFrame   bool
	abandoned bool
	frameW    int
	frameH    int

	// clip stack; each entry is pre-intersected with those below it.
	clips []gpucore.ClipRect

	// handles pinned for the current frame, released at EndFrame.
	held []cache.Handle

	// featherOff drops the AA band after resource pressure.
	featherOff bool
}

// NewRenderer creates a renderer on top of a render context.
func NewRenderer(ctx gpucore.Context, cfg RendererConfig) (*Renderer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c, err := cache.New(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}
	return &Renderer{
		ctx:   ctx,
		cfg:   cfg,
		cache: c,
		batch: newBatcher(ctx, cfg.MaxBatchVertices),
	}, nil
}

// BeginFrame starts a frame targeting a width x height surface.
func (r *Renderer) BeginFrame(width, height int) error {
	if r.inFrame {
		return fmt.Errorf("%w: BeginFrame inside a frame", ErrInvalidState)
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: frame size %dx%d", ErrInvalidState, width, height)
	}
	if err := r.ctx.BeginFrame(width, height); err != nil {
		return backendErr("BeginFrame", err)
	}
	r.inFrame = true
	r.abandoned = false
	r.state = stateIdle
	r.frameW = width
	r.frameH = height
	r.clips = r.clips[:0]
	return nil
}

// Flush submits all pending batches to the render context in
// accumulation order.
func (r *Renderer) Flush() error {
	if !r.inFrame {
		return fmt.Errorf("%w: Flush outside a frame", ErrInvalidState)
	}
	if r.state == stateFlushing {
		return fmt.Errorf("%w: re-entrant Flush", ErrInvalidState)
	}
	r.state = stateFlushing
	if n := r.batch.batchCount(); n > 0 {
		Logger().Debug("hwvg: flushing", "batches", n)
	}
	err := r.batch.flush()
	r.state = stateIdle
	return err
}

// EndFrame flushes pending work, signals frame end to the context, and
// releases the frame's cache references. After Abandon it discards the
// frame instead and reports ErrFrameAbandoned.
func (r *Renderer) EndFrame() error {
	if !r.inFrame {
		return fmt.Errorf("%w: EndFrame outside a frame", ErrInvalidState)
	}
	if r.abandoned {
		r.inFrame = false
		r.batch.drop()
		r.releaseHeld()
		return ErrFrameAbandoned
	}
	r.state = stateFlushing
	flushErr := r.batch.flush()
	r.state = stateIdle
	r.inFrame = false
	if flushErr != nil {
		r.releaseHeld()
		return flushErr
	}
	if err := r.ctx.EndFrame(); err != nil {
		r.releaseHeld()
		return backendErr("EndFrame", err)
	}
	r.releaseHeld()
	return nil
}

// TrimCache evicts cached resources no draw currently references and
// returns how many entries were dropped. Unreferenced entries otherwise
// stay resident so stable content is not re-uploaded every frame;
// eviction also runs automatically when the atlas fills up.
func (r *Renderer) TrimCache() int {
	return r.cache.EvictUnused()
}

// Abandon discards the frame accumulated so far. Nothing reaches the
// GPU; EndFrame must still be called and reports ErrFrameAbandoned.
func (r *Renderer) Abandon() {
	if !r.inFrame {
		return
	}
	r.abandoned = true
	r.batch.drop()
	r.state = stateIdle
}

// PushClip intersects a new clip rectangle, transformed by m, with the
// current clip. Subsequent draws are limited to the intersection.
func (r *Renderer) PushClip(rect Rect, m Matrix) {
	device := m.TransformRect(rect)
	clip := clipFromRect(device, r.frameW, r.frameH)
	if len(r.clips) > 0 {
		clip = intersectClips(r.clips[len(r.clips)-1], clip)
	}
	r.clips = append(r.clips, clip)
}

// PopClip removes the most recent clip. Popping an empty stack is a
// programming error and panics.
func (r *Renderer) PopClip() {
	if len(r.clips) == 0 {
		panic("hwvg: PopClip on empty clip stack")
	}
	r.clips = r.clips[:len(r.clips)-1]
}

// Close flushes nothing, drops pending state, and releases all cached
// resources. The renderer must not be used afterwards.
func (r *Renderer) Close() {
	r.batch.drop()
	r.releaseHeld()
	r.cache.Clear()
}

func (r *Renderer) currentClip() gpucore.ClipRect {
	if len(r.clips) == 0 {
		return gpucore.NoClip
	}
	return r.clips[len(r.clips)-1]
}

func (r *Renderer) releaseHeld() {
	for _, h := range r.held {
		r.cache.Release(h)
	}
	r.held = r.held[:0]
}

// hold pins a handle until the end of the current frame.
func (r *Renderer) hold(h cache.Handle) {
	r.held = append(r.held, h)
}

// drawGuard validates that a draw call is legal in the current state.
func (r *Renderer) drawGuard() error {
	if !r.inFrame {
		return fmt.Errorf("%w: draw outside a frame", ErrInvalidState)
	}
	if r.state == stateFlushing {
		return fmt.Errorf("%w: draw during flush", ErrInvalidState)
	}
	return nil
}

// submit hands shaded geometry to the batcher.
func (r *Renderer) submit(state gpucore.DrawState, vertices []gpucore.Vertex, indices []uint32) {
	r.batch.add(state, vertices, indices)
	r.state = stateAccumulating
}

// cacheErr maps cache failures onto the renderer's error taxonomy and
// downgrades quality under resource pressure.
func (r *Renderer) cacheErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case isAtlasFull(err):
		return fmt.Errorf("%w: %s: %v", ErrCapacityExceeded, op, err)
	default:
		if !r.featherOff && r.cfg.Feather > 0 {
			r.featherOff = true
			Logger().Warn("hwvg: disabling feather after resource pressure", "op", op, "error", err)
		}
		return fmt.Errorf("%w: %s: %v", ErrResourceExhausted, op, err)
	}
}

func (r *Renderer) tessOptions() TessellateOptions {
	opts := TessellateOptions{Tolerance: r.cfg.Tolerance, Feather: r.cfg.Feather}
	if r.featherOff {
		opts.Feather = 0
	}
	return opts
}

// clipFromRect converts a device-space rectangle to an integer clip,
// clamped to the frame.
func clipFromRect(rect Rect, frameW, frameH int) gpucore.ClipRect {
	x0 := int32(clampF(rect.MinX, 0, float64(frameW)))
	y0 := int32(clampF(rect.MinY, 0, float64(frameH)))
	x1 := int32(clampF(rect.MaxX+0.5, 0, float64(frameW)))
	y1 := int32(clampF(rect.MaxY+0.5, 0, float64(frameH)))
	if x1 < x0 {
		x1 = x0
	}
	if y1 < y0 {
		y1 = y0
	}
	return gpucore.ClipRect{
		Enabled: true,
		X:       x0,
		Y:       y0,
		Width:   uint32(x1 - x0),
		Height:  uint32(y1 - y0),
	}
}

func intersectClips(a, b gpucore.ClipRect) gpucore.ClipRect {
	if !a.Enabled {
		return b
	}
	if !b.Enabled {
		return a
	}
	x0 := maxI32(a.X, b.X)
	y0 := maxI32(a.Y, b.Y)
	x1 := minI32(a.X+int32(a.Width), b.X+int32(b.Width))
	y1 := minI32(a.Y+int32(a.Height), b.Y+int32(b.Height))
	if x1 < x0 {
		x1 = x0
	}
	if y1 < y0 {
		y1 = y0
	}
	return gpucore.ClipRect{Enabled: true, X: x0, Y: y0, Width: uint32(x1 - x0), Height: uint32(y1 - y0)}
}

func isAtlasFull(err error) bool {
	return errors.Is(err, cache.ErrAtlasFull)
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxI32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

func minI32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}
