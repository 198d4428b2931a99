package software

import (
	"errors"
	"testing"

	"github.com/gogpu/hwvg/backend"
	"github.com/gogpu/hwvg/gpucore"
)

func beginFrame(t *testing.T, c *Context, w, h int) {
	t.Helper()
	if err := c.BeginFrame(w, h); err != nil {
		t.Fatalf("BeginFrame(%d, %d) error = %v", w, h, err)
	}
}

// quad returns a solid axis-aligned rectangle as two triangles.
func quad(x0, y0, x1, y1 float32, color [4]uint8) ([]gpucore.Vertex, []uint32) {
	verts := []gpucore.Vertex{
		{Pos: [2]float32{x0, y0}, Color: color},
		{Pos: [2]float32{x1, y0}, Color: color},
		{Pos: [2]float32{x1, y1}, Color: color},
		{Pos: [2]float32{x0, y1}, Color: color},
	}
	return verts, []uint32{0, 1, 2, 0, 2, 3}
}

func pixelAt(c *Context, x, y int) [4]uint8 {
	w, _ := c.Size()
	off := (y*w + x) * 4
	pix := c.Pixels()
	return [4]uint8{pix[off], pix[off+1], pix[off+2], pix[off+3]}
}

func TestContext_RegisteredAsDefaultFallback(t *testing.T) {
	if !backend.IsRegistered(backend.BackendSoftware) {
		t.Fatal("software backend not registered")
	}
	ctx, err := backend.Get(backend.BackendSoftware)
	if err != nil {
		t.Fatalf("Get(software) error = %v", err)
	}
	if _, ok := ctx.(*Context); !ok {
		t.Errorf("Get(software) returned %T, want *software.Context", ctx)
	}
}

func TestContext_SolidFill(t *testing.T) {
	c := New()
	beginFrame(t, c, 16, 16)

	red := [4]uint8{255, 0, 0, 255}
	verts, idx := quad(4, 4, 12, 12, red)
	if err := c.Draw(gpucore.DrawState{}, verts, idx); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}

	if got := pixelAt(c, 8, 8); got != red {
		t.Errorf("interior pixel = %v, want %v", got, red)
	}
	if got := pixelAt(c, 1, 1); got != ([4]uint8{}) {
		t.Errorf("exterior pixel = %v, want transparent", got)
	}
	if err := c.EndFrame(); err != nil {
		t.Errorf("EndFrame() error = %v", err)
	}
}

func TestContext_WindingOrderIrrelevant(t *testing.T) {
	c := New()
	beginFrame(t, c, 16, 16)

	white := [4]uint8{255, 255, 255, 255}
	verts, _ := quad(0, 0, 16, 16, white)
	// Clockwise and counter-clockwise triangles both rasterize.
	if err := c.Draw(gpucore.DrawState{}, verts, []uint32{0, 1, 2, 0, 3, 2}); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	if got := pixelAt(c, 8, 8); got != white {
		t.Errorf("pixel = %v, want %v", got, white)
	}
}

func TestContext_SourceOverBlend(t *testing.T) {
	c := New()
	beginFrame(t, c, 8, 8)

	opaque := [4]uint8{0, 0, 255, 255}
	verts, idx := quad(0, 0, 8, 8, opaque)
	if err := c.Draw(gpucore.DrawState{}, verts, idx); err != nil {
		t.Fatal(err)
	}

	// 50% premultiplied red over opaque blue.
	half := [4]uint8{128, 0, 0, 128}
	verts, idx = quad(0, 0, 8, 8, half)
	if err := c.Draw(gpucore.DrawState{}, verts, idx); err != nil {
		t.Fatal(err)
	}

	got := pixelAt(c, 4, 4)
	if got[3] != 255 {
		t.Errorf("alpha = %d, want 255", got[3])
	}
	if got[0] != 128 {
		t.Errorf("red = %d, want 128", got[0])
	}
	// Blue attenuated by (1 - 128/255).
	if got[2] < 125 || got[2] > 129 {
		t.Errorf("blue = %d, want about 127", got[2])
	}
}

func TestContext_SharedEdgeCompositesOnce(t *testing.T) {
	c := New()
	beginFrame(t, c, 10, 10)

	// The quad's two triangles share the diagonal, which passes
	// straight through pixel centers. Additive blend exposes any pixel
	// rasterized by both.
	dim := [4]uint8{100, 0, 0, 100}
	verts, idx := quad(1, 1, 9, 9, dim)
	if err := c.Draw(gpucore.DrawState{Blend: gpucore.BlendAdditive}, verts, idx); err != nil {
		t.Fatal(err)
	}

	for y := 1; y < 9; y++ {
		for x := 1; x < 9; x++ {
			if got := pixelAt(c, x, y)[0]; got != 100 {
				t.Fatalf("pixel (%d,%d) red = %d, want 100", x, y, got)
			}
		}
	}
}

func TestContext_AdditiveBlend(t *testing.T) {
	c := New()
	beginFrame(t, c, 8, 8)

	dim := [4]uint8{100, 100, 100, 255}
	verts, idx := quad(0, 0, 8, 8, dim)
	state := gpucore.DrawState{Blend: gpucore.BlendAdditive}
	if err := c.Draw(state, verts, idx); err != nil {
		t.Fatal(err)
	}
	if err := c.Draw(state, verts, idx); err != nil {
		t.Fatal(err)
	}

	got := pixelAt(c, 4, 4)
	if got[0] != 200 {
		t.Errorf("red = %d, want 200", got[0])
	}
	if got[3] != 255 {
		t.Errorf("alpha = %d, want saturated 255", got[3])
	}
}

func TestContext_ScissorClips(t *testing.T) {
	c := New()
	beginFrame(t, c, 16, 16)

	white := [4]uint8{255, 255, 255, 255}
	verts, idx := quad(0, 0, 16, 16, white)
	state := gpucore.DrawState{
		Clip: gpucore.ClipRect{Enabled: true, X: 4, Y: 4, Width: 4, Height: 4},
	}
	if err := c.Draw(state, verts, idx); err != nil {
		t.Fatal(err)
	}

	if got := pixelAt(c, 5, 5); got != white {
		t.Errorf("inside clip = %v, want %v", got, white)
	}
	if got := pixelAt(c, 10, 10); got != ([4]uint8{}) {
		t.Errorf("outside clip = %v, want transparent", got)
	}
}

func TestContext_EmptyClipDrawsNothing(t *testing.T) {
	c := New()
	beginFrame(t, c, 8, 8)

	verts, idx := quad(0, 0, 8, 8, [4]uint8{255, 255, 255, 255})
	state := gpucore.DrawState{
		Clip: gpucore.ClipRect{Enabled: true, X: 0, Y: 0, Width: 0, Height: 0},
	}
	if err := c.Draw(state, verts, idx); err != nil {
		t.Fatal(err)
	}
	if got := pixelAt(c, 4, 4); got != ([4]uint8{}) {
		t.Errorf("pixel = %v, want transparent", got)
	}
}

func TestContext_A8TextureModulatesColor(t *testing.T) {
	c := New()
	beginFrame(t, c, 8, 8)

	// 1x1 mask at half coverage.
	id, err := c.CreateTexture(gpucore.TextureFormatA8, 1, 1, []byte{128})
	if err != nil {
		t.Fatalf("CreateTexture() error = %v", err)
	}

	verts, idx := quad(0, 0, 8, 8, [4]uint8{255, 255, 255, 255})
	if err := c.Draw(gpucore.DrawState{Texture: id}, verts, idx); err != nil {
		t.Fatal(err)
	}

	got := pixelAt(c, 4, 4)
	if got[0] != 128 || got[3] != 128 {
		t.Errorf("pixel = %v, want half-coverage white {128 128 128 128}", got)
	}
}

func TestContext_RGBATextureSampling(t *testing.T) {
	c := New()
	beginFrame(t, c, 8, 8)

	// 2x1 texture: left red, right green (premultiplied, opaque).
	id, err := c.CreateTexture(gpucore.TextureFormatRGBA8, 2, 1, []byte{
		255, 0, 0, 255,
		0, 255, 0, 255,
	})
	if err != nil {
		t.Fatal(err)
	}

	white := [4]uint8{255, 255, 255, 255}
	verts := []gpucore.Vertex{
		{Pos: [2]float32{0, 0}, UV: [2]float32{0, 0}, Color: white},
		{Pos: [2]float32{8, 0}, UV: [2]float32{1, 0}, Color: white},
		{Pos: [2]float32{8, 8}, UV: [2]float32{1, 1}, Color: white},
		{Pos: [2]float32{0, 8}, UV: [2]float32{0, 1}, Color: white},
	}
	if err := c.Draw(gpucore.DrawState{Texture: id}, verts, []uint32{0, 1, 2, 0, 2, 3}); err != nil {
		t.Fatal(err)
	}

	left := pixelAt(c, 1, 4)
	right := pixelAt(c, 6, 4)
	if left[0] < 200 || left[1] > 50 {
		t.Errorf("left pixel = %v, want red", left)
	}
	if right[1] < 200 || right[0] > 50 {
		t.Errorf("right pixel = %v, want green", right)
	}
}

func TestContext_WriteTexture(t *testing.T) {
	c := New()
	id, err := c.CreateTexture(gpucore.TextureFormatA8, 4, 4, nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := c.WriteTexture(id, 1, 1, 2, 2, []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("WriteTexture() error = %v", err)
	}
	tex := c.textures[id]
	if tex.pix[1*4+1] != 1 || tex.pix[2*4+2] != 4 {
		t.Errorf("texture contents not written at expected offsets: %v", tex.pix)
	}

	if err := c.WriteTexture(id, 3, 3, 2, 2, []byte{0, 0, 0, 0}); err == nil {
		t.Error("WriteTexture() out of bounds should fail")
	}
	if err := c.WriteTexture(99, 0, 0, 1, 1, []byte{0}); err == nil {
		t.Error("WriteTexture() on unknown texture should fail")
	}
}

func TestContext_TextureLifecycleErrors(t *testing.T) {
	c := New()

	if _, err := c.CreateTexture(gpucore.TextureFormatA8, 0, 4, nil); err == nil {
		t.Error("CreateTexture() with zero width should fail")
	}
	if _, err := c.CreateTexture(gpucore.TextureFormatRGBA8, 2, 2, []byte{1, 2, 3}); err == nil {
		t.Error("CreateTexture() with short data should fail")
	}

	id, err := c.CreateTexture(gpucore.TextureFormatA8, 2, 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.DestroyTexture(id); err != nil {
		t.Errorf("DestroyTexture() error = %v", err)
	}
	if err := c.DestroyTexture(id); err == nil {
		t.Error("DestroyTexture() twice should fail")
	}
}

func TestContext_DrawOutsideFrame(t *testing.T) {
	c := New()
	verts, idx := quad(0, 0, 4, 4, [4]uint8{255, 255, 255, 255})
	if err := c.Draw(gpucore.DrawState{}, verts, idx); !errors.Is(err, backend.ErrNotInitialized) {
		t.Errorf("Draw() outside frame error = %v, want ErrNotInitialized", err)
	}
	if err := c.EndFrame(); !errors.Is(err, backend.ErrNotInitialized) {
		t.Errorf("EndFrame() outside frame error = %v, want ErrNotInitialized", err)
	}
}

func TestContext_DrawValidation(t *testing.T) {
	c := New()
	beginFrame(t, c, 4, 4)

	verts, _ := quad(0, 0, 4, 4, [4]uint8{255, 255, 255, 255})
	if err := c.Draw(gpucore.DrawState{}, verts, []uint32{0, 1}); err == nil {
		t.Error("Draw() with ragged index count should fail")
	}
	if err := c.Draw(gpucore.DrawState{}, verts, []uint32{0, 1, 9}); err == nil {
		t.Error("Draw() with out-of-range index should fail")
	}
	if err := c.Draw(gpucore.DrawState{Texture: 42}, verts, []uint32{0, 1, 2}); err == nil {
		t.Error("Draw() with unknown texture should fail")
	}
}

func TestContext_FrameClearsFramebuffer(t *testing.T) {
	c := New()
	beginFrame(t, c, 8, 8)

	verts, idx := quad(0, 0, 8, 8, [4]uint8{255, 255, 255, 255})
	if err := c.Draw(gpucore.DrawState{}, verts, idx); err != nil {
		t.Fatal(err)
	}
	if err := c.EndFrame(); err != nil {
		t.Fatal(err)
	}

	beginFrame(t, c, 8, 8)
	if got := pixelAt(c, 4, 4); got != ([4]uint8{}) {
		t.Errorf("pixel after new BeginFrame = %v, want transparent", got)
	}
}
