package cache

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gogpu/hwvg/gpucore"
)

var (
	// ErrAtlasFull is returned when a mask cannot be placed on any
	// atlas page and the page limit has been reached.
	ErrAtlasFull = errors.New("cache: atlas full")

	// ErrResourceExhausted wraps producer or backend failures during
	// resource creation. Recoverable: the caller may evict and retry
	// or skip the draw.
	ErrResourceExhausted = errors.New("cache: resource exhausted")
)

// Mask is CPU-side single-channel coverage data for one atlas entry.
// OffsetX and OffsetY record where the mask's top-left corner sits
// relative to the source's origin (glyph bearing), carried through to
// the handle so callers can position the quad.
type Mask struct {
	Width   int
	Height  int
	OffsetX int
	OffsetY int
	Pix     []byte // A8, Width*Height bytes
}

// Texture is CPU-side data for a standalone texture entry.
type Texture struct {
	Format gpucore.TextureFormat
	Width  int
	Height int
	Pix    []byte
}

// Handle is a reference to a cached resource. It pins the resource
// until released. Texture coordinates are captured at acquisition and
// stay valid while any handle pins the entry; unpinned entries may be
// evicted or moved by the next EvictUnused.
type Handle struct {
	fp Fingerprint

	Texture          gpucore.TextureID
	U0, V0, U1, V1   float32
	Width, Height    int
	OffsetX, OffsetY int
}

// Fingerprint returns the fingerprint this handle was acquired with.
func (h Handle) Fingerprint() Fingerprint { return h.fp }

type entry struct {
	fp   Fingerprint
	refs int

	tex    gpucore.TextureID
	page   int // atlas page index, or -1 for standalone textures
	x, y   int
	w, h   int
	ox, oy int

	// Retained CPU pixels. Atlas entries keep them so pages can be
	// repacked without GPU readback.
	pix    []byte
	format gpucore.TextureFormat
}

type atlasPage struct {
	tex   gpucore.TextureID
	alloc *shelfAllocator
	freed int // area of evicted entries awaiting repack
}

type inflight struct {
	done chan struct{}
	err  error
}

// Cache is the resource cache. Safe for concurrent use.
type Cache struct {
	cfg Config

	mu       sync.Mutex
	ctx      gpucore.Context
	entries  map[Fingerprint]*entry
	creating map[Fingerprint]*inflight
	pages    []*atlasPage
}

// New creates a cache backed by the given render context.
func New(ctx gpucore.Context, cfg Config) (*Cache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Cache{
		cfg:      cfg,
		ctx:      ctx,
		entries:  make(map[Fingerprint]*entry),
		creating: make(map[Fingerprint]*inflight),
	}, nil
}

// GetOrCreateMask returns the atlas location of the mask identified by
// fp, running produce to rasterize it on first use. Concurrent calls
// with the same fingerprint share one producer run. The returned handle
// pins the entry until Release.
func (c *Cache) GetOrCreateMask(fp Fingerprint, produce func() (Mask, error)) (Handle, error) {
	return c.getOrCreate(fp, func() (*entry, error) {
		mask, err := produce()
		if err != nil {
			return nil, fmt.Errorf("%w: mask producer: %v", ErrResourceExhausted, err)
		}
		return c.placeMask(fp, mask)
	})
}

// GetOrCreateTexture returns a standalone cached texture (gradient
// ramps, images), creating it on first use.
func (c *Cache) GetOrCreateTexture(fp Fingerprint, produce func() (Texture, error)) (Handle, error) {
	return c.getOrCreate(fp, func() (*entry, error) {
		tex, err := produce()
		if err != nil {
			return nil, fmt.Errorf("%w: texture producer: %v", ErrResourceExhausted, err)
		}
		id, err := c.ctx.CreateTexture(tex.Format, tex.Width, tex.Height, tex.Pix)
		if err != nil {
			return nil, fmt.Errorf("%w: create texture: %v", ErrResourceExhausted, err)
		}
		return &entry{
			fp:     fp,
			tex:    id,
			page:   -1,
			w:      tex.Width,
			h:      tex.Height,
			format: tex.Format,
		}, nil
	})
}

// getOrCreate implements the shared lookup, single-flight, and refcount
// logic. create runs without the cache lock held and must register
// nothing itself; on success its entry is inserted with one reference.
func (c *Cache) getOrCreate(fp Fingerprint, create func() (*entry, error)) (Handle, error) {
	for {
		c.mu.Lock()
		if e, ok := c.entries[fp]; ok {
			e.refs++
			h := c.handleFor(e)
			c.mu.Unlock()
			return h, nil
		}
		if call, ok := c.creating[fp]; ok {
			c.mu.Unlock()
			<-call.done
			if call.err != nil {
				return Handle{}, call.err
			}
			// Success: loop to take a reference on the new entry.
			continue
		}
		call := &inflight{done: make(chan struct{})}
		c.creating[fp] = call
		c.mu.Unlock()

		e, err := create()

		c.mu.Lock()
		delete(c.creating, fp)
		if err != nil {
			call.err = err
			close(call.done)
			c.mu.Unlock()
			return Handle{}, err
		}
		e.refs = 1
		c.entries[fp] = e
		h := c.handleFor(e)
		close(call.done)
		c.mu.Unlock()
		return h, nil
	}
}

func (c *Cache) handleFor(e *entry) Handle {
	h := Handle{
		fp:      e.fp,
		Texture: e.tex,
		Width:   e.w,
		Height:  e.h,
		OffsetX: e.ox,
		OffsetY: e.oy,
	}
	if e.page >= 0 {
		size := float32(c.cfg.PageSize)
		h.U0 = float32(e.x) / size
		h.V0 = float32(e.y) / size
		h.U1 = float32(e.x+e.w) / size
		h.V1 = float32(e.y+e.h) / size
	} else {
		h.U1, h.V1 = 1, 1
	}
	return h
}

// placeMask uploads a mask onto the first atlas page with room,
// creating pages up to the limit. Called without the cache lock;
// takes it for the placement.
func (c *Cache) placeMask(fp Fingerprint, mask Mask) (*entry, error) {
	if mask.Width <= 0 || mask.Height <= 0 {
		// Empty coverage, typically a whitespace glyph. Cached as a
		// zero-size entry so repeat lookups hit; nothing is placed or
		// uploaded, and the handle reports Width and Height zero.
		return &entry{fp: fp, page: -1}, nil
	}
	if len(mask.Pix) < mask.Width*mask.Height {
		return nil, fmt.Errorf("%w: malformed mask %dx%d", ErrResourceExhausted, mask.Width, mask.Height)
	}
	if mask.Width+c.cfg.Padding > c.cfg.PageSize || mask.Height+c.cfg.Padding > c.cfg.PageSize {
		return nil, fmt.Errorf("%w: mask %dx%d exceeds page size %d", ErrAtlasFull,
			mask.Width, mask.Height, c.cfg.PageSize)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for pageIdx, page := range c.pages {
		if x, y, ok := page.alloc.allocate(mask.Width, mask.Height); ok {
			return c.uploadMask(fp, pageIdx, x, y, mask)
		}
	}
	if len(c.pages) >= c.cfg.MaxPages {
		return nil, fmt.Errorf("%w: %d pages of %dx%d", ErrAtlasFull,
			len(c.pages), c.cfg.PageSize, c.cfg.PageSize)
	}
	tex, err := c.ctx.CreateTexture(gpucore.TextureFormatA8, c.cfg.PageSize, c.cfg.PageSize, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create atlas page: %v", ErrResourceExhausted, err)
	}
	page := &atlasPage{
		tex:   tex,
		alloc: newShelfAllocator(c.cfg.PageSize, c.cfg.PageSize, c.cfg.Padding),
	}
	c.pages = append(c.pages, page)
	x, y, ok := page.alloc.allocate(mask.Width, mask.Height)
	if !ok {
		return nil, fmt.Errorf("%w: mask %dx%d exceeds page size %d", ErrAtlasFull,
			mask.Width, mask.Height, c.cfg.PageSize)
	}
	return c.uploadMask(fp, len(c.pages)-1, x, y, mask)
}

func (c *Cache) uploadMask(fp Fingerprint, pageIdx, x, y int, mask Mask) (*entry, error) {
	page := c.pages[pageIdx]
	err := c.ctx.WriteTexture(page.tex, x, y, mask.Width, mask.Height, mask.Pix)
	if err != nil {
		return nil, fmt.Errorf("%w: upload mask: %v", ErrResourceExhausted, err)
	}
	return &entry{
		fp:     fp,
		tex:    page.tex,
		page:   pageIdx,
		x:      x,
		y:      y,
		w:      mask.Width,
		h:      mask.Height,
		ox:     mask.OffsetX,
		oy:     mask.OffsetY,
		pix:    mask.Pix,
		format: gpucore.TextureFormatA8,
	}, nil
}

// Release drops one reference. Releasing an entry whose reference count
// is already zero is a programming error and panics.
func (c *Cache) Release(h Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[h.fp]
	if !ok {
		return // already evicted
	}
	if e.refs == 0 {
		panic(fmt.Sprintf("cache: release of unreferenced entry %x", h.fp))
	}
	e.refs--
}

// Refs reports the current reference count for a fingerprint. Intended
// for tests and diagnostics.
func (c *Cache) Refs(fp Fingerprint) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[fp]; ok {
		return e.refs
	}
	return -1
}

// PageCount returns the number of live atlas pages.
func (c *Cache) PageCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pages)
}

// EvictUnused removes every entry whose reference count is zero and
// repacks atlas pages whose freed area exceeds the defrag threshold.
// Pages still holding pinned entries keep their layout, so texture
// coordinates handed out for them stay valid; their repack waits for a
// later sweep. Returns the number of evicted entries.
func (c *Cache) EvictUnused() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for fp, e := range c.entries {
		if e.refs != 0 {
			continue
		}
		if e.page >= 0 {
			c.pages[e.page].freed += e.w * e.h
		} else if e.tex != gpucore.InvalidID {
			if err := c.ctx.DestroyTexture(e.tex); err != nil {
				// The entry is gone either way; the texture leaks
				// until the context is torn down.
				logEvictFailure(fp, err)
			}
		}
		delete(c.entries, fp)
		evicted++
	}

	total := c.cfg.PageSize * c.cfg.PageSize
	for idx, page := range c.pages {
		if float64(page.freed)/float64(total) <= c.cfg.DefragThreshold {
			continue
		}
		// Pinned entries have handed out texture coordinates that must
		// stay valid; the page repacks once every reference is gone.
		if c.pageHasPinned(idx) {
			continue
		}
		c.repackPage(idx)
	}
	return evicted
}

func (c *Cache) pageHasPinned(pageIdx int) bool {
	for _, e := range c.entries {
		if e.page == pageIdx && e.refs > 0 {
			return true
		}
	}
	return false
}

// repackPage re-allocates every surviving entry of a page from its
// retained pixels, compacting the shelf layout.
func (c *Cache) repackPage(pageIdx int) {
	page := c.pages[pageIdx]

	var live []*entry
	for _, e := range c.entries {
		if e.page == pageIdx {
			live = append(live, e)
		}
	}
	// Tall-first placement keeps shelves dense.
	sort.Slice(live, func(i, j int) bool { return live[i].h > live[j].h })

	page.alloc.reset()
	page.freed = 0
	for _, e := range live {
		x, y, ok := page.alloc.allocate(e.w, e.h)
		if !ok {
			// Cannot happen: repacking places a subset of what the
			// page already held. Keep the old location if it does.
			continue
		}
		e.x, e.y = x, y
		if err := c.ctx.WriteTexture(page.tex, x, y, e.w, e.h, e.pix); err != nil {
			logEvictFailure(e.fp, err)
		}
	}
}

// Clear drops every entry and destroys all textures regardless of
// reference counts. For shutdown only.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for fp, e := range c.entries {
		if e.page < 0 && e.tex != gpucore.InvalidID {
			_ = c.ctx.DestroyTexture(e.tex)
		}
		delete(c.entries, fp)
	}
	for _, page := range c.pages {
		_ = c.ctx.DestroyTexture(page.tex)
	}
	c.pages = nil
}
