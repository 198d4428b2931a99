package cache

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gogpu/hwvg/gpucore"
)

// fakeContext implements gpucore.Context in memory, recording texture
// operations for assertions.
type fakeContext struct {
	mu         sync.Mutex
	nextID     gpucore.TextureID
	alive      map[gpucore.TextureID]bool
	writes     int
	failCreate bool
}

func newFakeContext() *fakeContext {
	return &fakeContext{alive: make(map[gpucore.TextureID]bool)}
}

func (f *fakeContext) CreateTexture(format gpucore.TextureFormat, w, h int, data []byte) (gpucore.TextureID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return gpucore.InvalidID, errors.New("out of memory")
	}
	f.nextID++
	f.alive[f.nextID] = true
	return f.nextID, nil
}

func (f *fakeContext) WriteTexture(id gpucore.TextureID, x, y, w, h int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.alive[id] {
		return fmt.Errorf("write to dead texture %d", id)
	}
	f.writes++
	return nil
}

func (f *fakeContext) DestroyTexture(id gpucore.TextureID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.alive[id] {
		return fmt.Errorf("double destroy of texture %d", id)
	}
	delete(f.alive, id)
	return nil
}

func (f *fakeContext) Draw(gpucore.DrawState, []gpucore.Vertex, []uint32) error { return nil }
func (f *fakeContext) BeginFrame(int, int) error                                { return nil }
func (f *fakeContext) EndFrame() error                                          { return nil }

func (f *fakeContext) aliveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.alive)
}

func newTestCache(t *testing.T, cfg Config) (*Cache, *fakeContext) {
	t.Helper()
	ctx := newFakeContext()
	c, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c, ctx
}

func solidMask(w, h int) func() (Mask, error) {
	return func() (Mask, error) {
		return Mask{Width: w, Height: h, Pix: make([]byte, w*h)}, nil
	}
}

func TestCache_GetOrCreateMask_Idempotent(t *testing.T) {
	c, _ := newTestCache(t, DefaultConfig())

	var calls atomic.Int32
	produce := func() (Mask, error) {
		calls.Add(1)
		return Mask{Width: 16, Height: 16, Pix: make([]byte, 256)}, nil
	}

	fp := GlyphKey(1, 42, 16<<6, 0)
	h1, err := c.GetOrCreateMask(fp, produce)
	if err != nil {
		t.Fatalf("GetOrCreateMask() error = %v", err)
	}
	h2, err := c.GetOrCreateMask(fp, produce)
	if err != nil {
		t.Fatalf("GetOrCreateMask() error = %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("producer ran %d times, want 1", got)
	}
	if h1 != h2 {
		t.Errorf("handles differ: %+v vs %+v", h1, h2)
	}
	if got := c.Refs(fp); got != 2 {
		t.Errorf("Refs() = %d, want 2", got)
	}
}

func TestCache_ReleaseAndEvict(t *testing.T) {
	c, _ := newTestCache(t, DefaultConfig())

	fp := GlyphKey(1, 7, 12<<6, 0)
	h, err := c.GetOrCreateMask(fp, solidMask(8, 8))
	if err != nil {
		t.Fatalf("GetOrCreateMask() error = %v", err)
	}

	// Referenced entries survive eviction.
	if n := c.EvictUnused(); n != 0 {
		t.Errorf("EvictUnused() = %d, want 0", n)
	}
	c.Release(h)
	if got := c.Refs(fp); got != 0 {
		t.Errorf("Refs() = %d, want 0", got)
	}
	if n := c.EvictUnused(); n != 1 {
		t.Errorf("EvictUnused() = %d, want 1", n)
	}
	if got := c.Refs(fp); got != -1 {
		t.Errorf("Refs() after evict = %d, want -1 (gone)", got)
	}
}

func TestCache_ReleaseUnderflowPanics(t *testing.T) {
	c, _ := newTestCache(t, DefaultConfig())

	fp := GlyphKey(1, 7, 12<<6, 0)
	h, err := c.GetOrCreateMask(fp, solidMask(8, 8))
	if err != nil {
		t.Fatalf("GetOrCreateMask() error = %v", err)
	}
	c.Release(h)

	defer func() {
		if recover() == nil {
			t.Error("second Release did not panic")
		}
	}()
	c.Release(h)
}

func TestCache_AtlasFull(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PageSize = 64
	cfg.MaxPages = 1
	c, _ := newTestCache(t, cfg)

	// 60x60 fills the single 64x64 page.
	if _, err := c.GetOrCreateMask(GlyphKey(1, 1, 0, 0), solidMask(60, 60)); err != nil {
		t.Fatalf("first mask error = %v", err)
	}
	_, err := c.GetOrCreateMask(GlyphKey(1, 2, 0, 0), solidMask(60, 60))
	if !errors.Is(err, ErrAtlasFull) {
		t.Errorf("error = %v, want ErrAtlasFull", err)
	}
}

func TestCache_NewPageWhenFull(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PageSize = 64
	cfg.MaxPages = 2
	c, _ := newTestCache(t, cfg)

	for i := uint32(0); i < 2; i++ {
		if _, err := c.GetOrCreateMask(GlyphKey(1, i, 0, 0), solidMask(60, 60)); err != nil {
			t.Fatalf("mask %d error = %v", i, err)
		}
	}
	if got := c.PageCount(); got != 2 {
		t.Errorf("PageCount() = %d, want 2", got)
	}
}

func TestCache_ProducerFailure(t *testing.T) {
	c, _ := newTestCache(t, DefaultConfig())

	boom := errors.New("font load failed")
	fp := GlyphKey(9, 9, 9, 0)
	_, err := c.GetOrCreateMask(fp, func() (Mask, error) { return Mask{}, boom })
	if !errors.Is(err, ErrResourceExhausted) {
		t.Errorf("error = %v, want ErrResourceExhausted", err)
	}

	// Failure is not cached: a working producer succeeds afterwards.
	if _, err := c.GetOrCreateMask(fp, solidMask(8, 8)); err != nil {
		t.Errorf("retry error = %v", err)
	}
}

func TestCache_CreateTextureFailure(t *testing.T) {
	c, ctx := newTestCache(t, DefaultConfig())
	ctx.failCreate = true

	_, err := c.GetOrCreateMask(GlyphKey(1, 1, 0, 0), solidMask(8, 8))
	if !errors.Is(err, ErrResourceExhausted) {
		t.Errorf("error = %v, want ErrResourceExhausted", err)
	}
}

func TestCache_SingleFlight(t *testing.T) {
	c, _ := newTestCache(t, DefaultConfig())

	var calls atomic.Int32
	gate := make(chan struct{})
	produce := func() (Mask, error) {
		calls.Add(1)
		<-gate
		return Mask{Width: 16, Height: 16, Pix: make([]byte, 256)}, nil
	}

	fp := GlyphKey(3, 3, 3, 0)
	const workers = 8
	var wg sync.WaitGroup
	handles := make([]Handle, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			handles[i], errs[i] = c.GetOrCreateMask(fp, produce)
		}(i)
	}
	close(gate)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("producer ran %d times, want 1", got)
	}
	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d error = %v", i, errs[i])
		}
		if handles[i] != handles[0] {
			t.Errorf("worker %d handle differs", i)
		}
	}
	if got := c.Refs(fp); got != workers {
		t.Errorf("Refs() = %d, want %d", got, workers)
	}
}

func TestCache_Defrag(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PageSize = 64
	cfg.MaxPages = 1
	cfg.DefragThreshold = 0.3
	c, ctx := newTestCache(t, cfg)

	// Three 30x30 masks fill most of the page.
	var handles []Handle
	for i := uint32(0); i < 3; i++ {
		h, err := c.GetOrCreateMask(GlyphKey(1, i, 0, 0), solidMask(30, 30))
		if err != nil {
			t.Fatalf("mask %d error = %v", i, err)
		}
		handles = append(handles, h)
	}

	// Drop two of three: 1800 of 4096 freed, above the 0.3 threshold.
	// The third entry is still pinned, so the page keeps its layout.
	c.Release(handles[0])
	c.Release(handles[1])
	writesBefore := ctx.writes
	if n := c.EvictUnused(); n != 2 {
		t.Fatalf("EvictUnused() = %d, want 2", n)
	}
	if ctx.writes != writesBefore {
		t.Error("sweep moved entries on a page with pinned entries")
	}
	h, err := c.GetOrCreateMask(GlyphKey(1, 2, 0, 0), solidMask(30, 30))
	if err != nil {
		t.Fatalf("re-acquire error = %v", err)
	}
	if h != handles[2] {
		t.Errorf("pinned entry moved: %+v vs %+v", h, handles[2])
	}

	// Unpin and sweep again: the now-empty page resets, and the
	// reclaimed space fits a large mask without a new page.
	c.Release(handles[2])
	c.Release(h)
	if n := c.EvictUnused(); n != 1 {
		t.Fatalf("second EvictUnused() = %d, want 1", n)
	}
	if _, err := c.GetOrCreateMask(GlyphKey(1, 9, 0, 0), solidMask(60, 60)); err != nil {
		t.Errorf("post-defrag mask error = %v", err)
	}
	if got := c.PageCount(); got != 1 {
		t.Errorf("PageCount() = %d, want 1", got)
	}
}

func TestCache_StandaloneTexture(t *testing.T) {
	c, ctx := newTestCache(t, DefaultConfig())

	fp := ImageKey(5, 1)
	h, err := c.GetOrCreateTexture(fp, func() (Texture, error) {
		return Texture{
			Format: gpucore.TextureFormatRGBA8,
			Width:  32, Height: 32,
			Pix: make([]byte, 32*32*4),
		}, nil
	})
	if err != nil {
		t.Fatalf("GetOrCreateTexture() error = %v", err)
	}
	if h.U0 != 0 || h.V0 != 0 || h.U1 != 1 || h.V1 != 1 {
		t.Errorf("standalone UVs = %v %v %v %v, want full texture", h.U0, h.V0, h.U1, h.V1)
	}

	c.Release(h)
	alive := ctx.aliveCount()
	if n := c.EvictUnused(); n != 1 {
		t.Fatalf("EvictUnused() = %d, want 1", n)
	}
	if got := ctx.aliveCount(); got != alive-1 {
		t.Errorf("alive textures = %d, want %d", got, alive-1)
	}
}

func TestBakeRamp(t *testing.T) {
	stops := []Stop{
		{Offset: 0, R: 255, A: 255},
		{Offset: 1, B: 255, A: 255},
	}
	pix := BakeRamp(stops, 256)
	if len(pix) != 256*4 {
		t.Fatalf("len(pix) = %d, want 1024", len(pix))
	}
	if pix[0] != 255 || pix[2] != 0 {
		t.Errorf("first texel = %v, want red", pix[:4])
	}
	last := pix[255*4:]
	if last[0] != 0 || last[2] != 255 {
		t.Errorf("last texel = %v, want blue", last)
	}
	mid := pix[128*4:]
	if mid[0] < 100 || mid[0] > 155 || mid[2] < 100 || mid[2] > 155 {
		t.Errorf("middle texel = %v, want roughly half red half blue", mid[:4])
	}
}

func TestCache_EmptyMask(t *testing.T) {
	c, ctx := newTestCache(t, DefaultConfig())

	var calls atomic.Int32
	produce := func() (Mask, error) {
		calls.Add(1)
		return Mask{}, nil
	}

	// Whitespace glyphs rasterize to no coverage. They still cache, as
	// a zero-size entry without atlas placement.
	fp := GlyphKey(1, 3, 16<<6, 0)
	h, err := c.GetOrCreateMask(fp, produce)
	if err != nil {
		t.Fatalf("GetOrCreateMask() error = %v", err)
	}
	if h.Width != 0 || h.Height != 0 {
		t.Errorf("handle size = %dx%d, want 0x0", h.Width, h.Height)
	}
	if h.Texture != gpucore.InvalidID {
		t.Errorf("handle texture = %d, want InvalidID", h.Texture)
	}
	if got := c.PageCount(); got != 0 {
		t.Errorf("PageCount() = %d, want 0", got)
	}

	h2, err := c.GetOrCreateMask(fp, produce)
	if err != nil {
		t.Fatalf("second GetOrCreateMask() error = %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("producer ran %d times, want 1", got)
	}

	c.Release(h)
	c.Release(h2)
	if n := c.EvictUnused(); n != 1 {
		t.Errorf("EvictUnused() = %d, want 1", n)
	}
	if got := ctx.aliveCount(); got != 0 {
		t.Errorf("textures alive = %d, want 0", got)
	}
}

func TestCache_OversizeMaskAllocatesNoPage(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PageSize = 64
	cfg.MaxPages = 1
	c, ctx := newTestCache(t, cfg)

	_, err := c.GetOrCreateMask(GlyphKey(1, 1, 0, 0), solidMask(100, 10))
	if !errors.Is(err, ErrAtlasFull) {
		t.Fatalf("error = %v, want ErrAtlasFull", err)
	}
	if got := c.PageCount(); got != 0 {
		t.Errorf("PageCount() = %d, want 0", got)
	}
	if got := ctx.aliveCount(); got != 0 {
		t.Errorf("textures alive = %d, want 0", got)
	}

	// The page slot is still available for a mask that fits.
	if _, err := c.GetOrCreateMask(GlyphKey(1, 2, 0, 0), solidMask(60, 60)); err != nil {
		t.Errorf("fitting mask error = %v", err)
	}
	if got := c.PageCount(); got != 1 {
		t.Errorf("PageCount() = %d, want 1", got)
	}
}

func TestBakeRampTiles_Repeat(t *testing.T) {
	stops := []Stop{
		{Offset: 0, R: 255, A: 255},
		{Offset: 1, B: 255, A: 255},
	}
	pix := BakeRampTiles(stops, 16, 2, false, false)
	if len(pix) != 32*4 {
		t.Fatalf("len(pix) = %d, want 128", len(pix))
	}
	// Both tiles run start to end: red at each tile's first texel,
	// blue at each tile's last.
	if pix[0] != 255 || pix[16*4] != 255 {
		t.Errorf("tile starts = %d, %d, want red in both", pix[0], pix[16*4])
	}
	if pix[15*4+2] != 255 || pix[31*4+2] != 255 {
		t.Errorf("tile ends = %d, %d, want blue in both", pix[15*4+2], pix[31*4+2])
	}
}

func TestBakeRampTiles_Reflect(t *testing.T) {
	stops := []Stop{
		{Offset: 0, R: 255, A: 255},
		{Offset: 1, B: 255, A: 255},
	}
	pix := BakeRampTiles(stops, 16, 2, true, false)
	// The second tile mirrors the first: blue where the first is red.
	if pix[0] != 255 || pix[16*4] != 0 || pix[16*4+2] != 255 {
		t.Errorf("tiles = %v / %v, want red then reversed", pix[:4], pix[16*4:16*4+4])
	}

	// startReversed flips the parity of the whole strip.
	rev := BakeRampTiles(stops, 16, 2, true, true)
	if rev[2] != 255 || rev[16*4] != 255 {
		t.Errorf("reversed tiles = %v / %v, want blue then red", rev[:4], rev[16*4:16*4+4])
	}
}

func TestBakeRamp_Premultiplied(t *testing.T) {
	stops := []Stop{{Offset: 0, R: 255, A: 0}, {Offset: 1, R: 255, A: 0}}
	pix := BakeRamp(stops, 16)
	// Fully transparent stops premultiply to zero everywhere.
	for i, v := range pix {
		if v != 0 {
			t.Fatalf("pix[%d] = %d, want 0", i, v)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"page size too small", func(c *Config) { c.PageSize = 32 }, "PageSize"},
		{"page size not power of 2", func(c *Config) { c.PageSize = 1000 }, "PageSize"},
		{"no pages", func(c *Config) { c.MaxPages = 0 }, "MaxPages"},
		{"negative padding", func(c *Config) { c.Padding = -1 }, "Padding"},
		{"tiny ramp", func(c *Config) { c.RampSize = 1 }, "RampSize"},
		{"zero threshold", func(c *Config) { c.DefragThreshold = 0 }, "DefragThreshold"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Validate() = %v, want ConfigError", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Field = %s, want %s", cfgErr.Field, tt.field)
			}
		})
	}

	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config Validate() = %v", err)
	}
}
