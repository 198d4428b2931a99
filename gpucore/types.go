package gpucore

// Resource IDs
//
// These opaque IDs represent GPU resources. Each backend maintains the
// mapping between IDs and actual GPU objects. IDs are uint64 to
// accommodate various backend handle sizes.

// TextureID is an opaque handle to a GPU texture.
type TextureID uint64

// InvalidID is the zero value, representing an invalid/null resource.
const InvalidID = 0

// TextureFormat specifies the format of texture data.
type TextureFormat uint32

// Texture formats the core uploads.
const (
	// TextureFormatRGBA8 is 8-bit RGBA, premultiplied alpha.
	TextureFormatRGBA8 TextureFormat = iota + 1

	// TextureFormatA8 is an 8-bit single-channel coverage mask
	// (glyph atlases).
	TextureFormatA8
)

// BytesPerPixel returns the pixel stride of the format.
func (f TextureFormat) BytesPerPixel() int {
	if f == TextureFormatA8 {
		return 1
	}
	return 4
}

// BlendMode selects the fixed-function blend state for a draw.
type BlendMode uint32

const (
	// BlendSourceOver is premultiplied source-over compositing,
	// the default for vector graphics.
	BlendSourceOver BlendMode = iota

	// BlendAdditive adds source to destination (glow effects).
	BlendAdditive

	// BlendCopy replaces the destination entirely.
	BlendCopy
)

// String returns the blend mode name.
func (b BlendMode) String() string {
	switch b {
	case BlendSourceOver:
		return "source-over"
	case BlendAdditive:
		return "additive"
	case BlendCopy:
		return "copy"
	default:
		return "unknown"
	}
}

// ClipRect is an axis-aligned scissor rectangle in device pixels.
// A zero-value ClipRect (Width or Height zero with Enabled true) clips
// everything away.
type ClipRect struct {
	// Enabled selects whether the scissor test applies to the draw.
	Enabled bool

	X, Y          int32
	Width, Height uint32
}

// NoClip is the disabled clip state.
var NoClip = ClipRect{}

// Vertex is the per-vertex format the core submits: position in device
// pixels, UV in texture space, premultiplied RGBA color.
//
// The layout matches a tightly packed GPU vertex buffer: 20 bytes,
// 2 float32 position, 2 float32 UV, 4 uint8 color.
type Vertex struct {
	Pos   [2]float32
	UV    [2]float32
	Color [4]uint8
}

// DrawState is the full GPU state for one indexed triangle draw.
type DrawState struct {
	// Texture is bound to the single sampler slot. InvalidID draws
	// with the built-in white texture (solid color geometry).
	Texture TextureID

	// Blend selects the blend state.
	Blend BlendMode

	// Clip is the scissor rectangle.
	Clip ClipRect
}
