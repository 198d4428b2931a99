package gpucore

// Context is the capability set a backend must provide for the hwvg
// core to drive it. See the package documentation for the behavioral
// contract implementations must honor.
//
// Every method may return an error; the core wraps backend failures and
// surfaces them through the draw/flush call chain rather than dropping
// them, since a lost allocation corrupts subsequent rendering.
type Context interface {
	// CreateTexture allocates a texture of the given format and size.
	// If data is non-nil it holds the initial contents, tightly packed
	// at the format's pixel stride. A nil data allocates a zeroed
	// texture.
	CreateTexture(format TextureFormat, width, height int, data []byte) (TextureID, error)

	// WriteTexture replaces the rectangular region (x, y, w, h) of the
	// texture with data, tightly packed. Used for atlas region uploads.
	WriteTexture(id TextureID, x, y, w, h int, data []byte) error

	// DestroyTexture frees a texture. The handle is invalid afterwards.
	DestroyTexture(id TextureID) error

	// Draw submits one indexed triangle draw: vertices and indices are
	// uploaded (or appended to the backend's transient buffers) and
	// rasterized under the given state. Indices address into vertices;
	// every three indices form one triangle.
	//
	// Draws must be rasterized in submission order.
	Draw(state DrawState, vertices []Vertex, indices []uint32) error

	// BeginFrame signals the start of a frame targeting a surface of
	// the given size in device pixels.
	BeginFrame(width, height int) error

	// EndFrame signals that all draws for the frame have been
	// submitted and the backend may present.
	EndFrame() error
}
