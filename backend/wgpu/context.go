package wgpu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/hwvg/backend"
	"github.com/gogpu/hwvg/gpucore"
)

// Package errors.
var (
	// ErrNoDevice is returned when constructing a context without a
	// hal device or queue.
	ErrNoDevice = errors.New("wgpu: nil device or queue")

	// ErrNoFrame is returned when reading pixels before a frame has
	// been rendered.
	ErrNoFrame = errors.New("wgpu: no rendered frame")
)

// gpuFenceTimeout bounds the wait for frame submission.
const gpuFenceTimeout = 5 * time.Second

// gpuTexture is a device texture with its sampling view.
type gpuTexture struct {
	tex    hal.Texture
	view   hal.TextureView
	width  int
	height int
	format gpucore.TextureFormat
}

// drawCall is one recorded indexed draw, offsets into the frame's
// shared vertex and index arrays.
type drawCall struct {
	state      gpucore.DrawState
	firstIndex uint32
	indexCount uint32
	baseVertex int32
}

// Context implements gpucore.Context on a wgpu hal device.
//
// Draws accumulate on the CPU during a frame; EndFrame uploads them as
// one vertex and one index buffer and encodes a single render pass.
// Not safe for concurrent use.
type Context struct {
	device hal.Device
	queue  hal.Queue

	pipes *pipelineSet
	white *gpuTexture

	textures map[gpucore.TextureID]*gpuTexture
	nextID   gpucore.TextureID

	// Offscreen color target, reallocated when the frame size changes.
	target     hal.Texture
	targetView hal.TextureView
	width      uint32
	height     uint32

	inFrame  bool
	rendered bool
	draws    []drawCall
	vertices []byte
	indices  []byte
	vertexN  int
}

var _ gpucore.Context = (*Context)(nil)

// New creates a rendering context on the given device and queue.
// The caller keeps ownership of both; Close releases only resources
// the context created.
func New(device hal.Device, queue hal.Queue) (*Context, error) {
	if device == nil || queue == nil {
		return nil, ErrNoDevice
	}
	return &Context{
		device:   device,
		queue:    queue,
		textures: make(map[gpucore.TextureID]*gpuTexture),
		nextID:   1,
	}, nil
}

// RegisterDevice makes the wgpu backend selectable through the backend
// registry, constructing contexts on the given device and queue.
func RegisterDevice(device hal.Device, queue hal.Queue) {
	backend.Register(backend.BackendWGPU, func() (gpucore.Context, error) {
		return New(device, queue)
	})
}

// CreateTexture allocates a device texture. A8 data is expanded to
// premultiplied white RGBA so a single sampled format serves all draws.
func (c *Context) CreateTexture(format gpucore.TextureFormat, width, height int, data []byte) (gpucore.TextureID, error) {
	if width <= 0 || height <= 0 {
		return gpucore.InvalidID, fmt.Errorf("wgpu: invalid texture size %dx%d", width, height)
	}
	if data != nil && len(data) != width*height*format.BytesPerPixel() {
		return gpucore.InvalidID, fmt.Errorf("wgpu: texture data length %d, want %d",
			len(data), width*height*format.BytesPerPixel())
	}

	gt, err := c.newGPUTexture(fmt.Sprintf("hwvg_tex_%d", c.nextID), width, height, format)
	if err != nil {
		return gpucore.InvalidID, err
	}
	if data != nil {
		c.uploadRegion(gt, 0, 0, width, height, data)
	}

	id := c.nextID
	c.nextID++
	c.textures[id] = gt
	return id, nil
}

// WriteTexture replaces the region (x, y, w, h) with data.
func (c *Context) WriteTexture(id gpucore.TextureID, x, y, w, h int, data []byte) error {
	gt, ok := c.textures[id]
	if !ok {
		return fmt.Errorf("wgpu: unknown texture %d", id)
	}
	if x < 0 || y < 0 || w <= 0 || h <= 0 || x+w > gt.width || y+h > gt.height {
		return fmt.Errorf("wgpu: write region (%d,%d %dx%d) outside texture %dx%d",
			x, y, w, h, gt.width, gt.height)
	}
	if len(data) != w*h*gt.format.BytesPerPixel() {
		return fmt.Errorf("wgpu: write data length %d, want %d",
			len(data), w*h*gt.format.BytesPerPixel())
	}
	c.uploadRegion(gt, x, y, w, h, data)
	return nil
}

// DestroyTexture frees a texture.
func (c *Context) DestroyTexture(id gpucore.TextureID) error {
	gt, ok := c.textures[id]
	if !ok {
		return fmt.Errorf("wgpu: unknown texture %d", id)
	}
	delete(c.textures, id)
	c.device.DestroyTextureView(gt.view)
	c.device.DestroyTexture(gt.tex)
	return nil
}

// BeginFrame starts a frame targeting an offscreen surface of the
// given size.
func (c *Context) BeginFrame(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("wgpu: invalid frame size %dx%d", width, height)
	}
	if err := c.ensureTarget(uint32(width), uint32(height)); err != nil {
		return err
	}
	c.inFrame = true
	c.draws = c.draws[:0]
	c.vertices = c.vertices[:0]
	c.indices = c.indices[:0]
	c.vertexN = 0
	return nil
}

// Draw records one indexed triangle draw for the current frame.
func (c *Context) Draw(state gpucore.DrawState, vertices []gpucore.Vertex, indices []uint32) error {
	if !c.inFrame {
		return backend.ErrNotInitialized
	}
	if len(vertices) == 0 || len(indices) == 0 {
		return nil
	}
	if len(indices)%3 != 0 {
		return fmt.Errorf("wgpu: index count %d not a multiple of 3", len(indices))
	}
	if state.Texture != gpucore.InvalidID {
		if _, ok := c.textures[state.Texture]; !ok {
			return fmt.Errorf("wgpu: unknown texture %d", state.Texture)
		}
	}

	call := drawCall{
		state:      state,
		firstIndex: uint32(len(c.indices) / 4),
		indexCount: uint32(len(indices)),
		baseVertex: int32(c.vertexN),
	}

	c.vertices = appendVertexData(c.vertices, vertices)
	c.vertexN += len(vertices)
	for _, idx := range indices {
		c.indices = binary.LittleEndian.AppendUint32(c.indices, idx)
	}
	c.draws = append(c.draws, call)
	return nil
}

// EndFrame uploads the recorded draws and renders them in one pass.
func (c *Context) EndFrame() error {
	if !c.inFrame {
		return backend.ErrNotInitialized
	}
	c.inFrame = false

	if c.pipes == nil {
		pipes, err := newPipelineSet(c.device)
		if err != nil {
			return err
		}
		c.pipes = pipes
	}
	if c.white == nil {
		white, err := c.newGPUTexture("hwvg_white", 1, 1, gpucore.TextureFormatRGBA8)
		if err != nil {
			return err
		}
		c.uploadRegion(white, 0, 0, 1, 1, []byte{255, 255, 255, 255})
		c.white = white
	}

	err := c.renderFrame()
	if err == nil {
		c.rendered = true
	}
	return err
}

// ReadPixels copies the rendered target into dst as tightly packed
// RGBA, which must hold width*height*4 bytes. Valid after EndFrame.
func (c *Context) ReadPixels(dst []byte) error {
	if !c.rendered || c.target == nil {
		return ErrNoFrame
	}
	need := int(c.width) * int(c.height) * 4
	if len(dst) != need {
		return fmt.Errorf("wgpu: destination length %d, want %d", len(dst), need)
	}

	encoder, err := c.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "hwvg_readback_encoder",
	})
	if err != nil {
		return fmt.Errorf("create readback encoder: %w", err)
	}
	if err := encoder.BeginEncoding("hwvg_readback"); err != nil {
		return fmt.Errorf("begin readback encoding: %w", err)
	}

	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: c.target,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})

	staging, err := c.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "hwvg_readback_staging",
		Size:  uint64(need),
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		encoder.DiscardEncoding()
		return fmt.Errorf("create staging buffer: %w", err)
	}
	defer c.device.DestroyBuffer(staging)

	encoder.CopyTextureToBuffer(c.target, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: c.width * 4, RowsPerImage: c.height},
		TextureBase:  hal.ImageCopyTexture{Texture: c.target, MipLevel: 0},
		Size:         hal.Extent3D{Width: c.width, Height: c.height, DepthOrArrayLayers: 1},
	}})

	if err := c.submitEncoder(encoder); err != nil {
		return err
	}
	if err := c.queue.ReadBuffer(staging, 0, dst); err != nil {
		return fmt.Errorf("readback: %w", err)
	}
	return nil
}

// Close releases all resources the context created. The device and
// queue stay with the host.
func (c *Context) Close() {
	for id, gt := range c.textures {
		c.device.DestroyTextureView(gt.view)
		c.device.DestroyTexture(gt.tex)
		delete(c.textures, id)
	}
	if c.white != nil {
		c.device.DestroyTextureView(c.white.view)
		c.device.DestroyTexture(c.white.tex)
		c.white = nil
	}
	c.destroyTarget()
	if c.pipes != nil {
		c.pipes.destroy(c.device)
		c.pipes = nil
	}
	c.inFrame = false
	c.rendered = false
}

// renderFrame uploads vertex, index, and uniform data and encodes the
// frame's render pass.
func (c *Context) renderFrame() error {
	encoder, err := c.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "hwvg_frame_encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("hwvg_frame"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	var vertBuf, idxBuf, uniformBuf hal.Buffer
	cleanup := func() {
		if vertBuf != nil {
			c.device.DestroyBuffer(vertBuf)
		}
		if idxBuf != nil {
			c.device.DestroyBuffer(idxBuf)
		}
		if uniformBuf != nil {
			c.device.DestroyBuffer(uniformBuf)
		}
	}
	defer cleanup()

	if len(c.draws) > 0 {
		vertBuf, err = c.createAndUploadBuffer("hwvg_frame_verts", c.vertices,
			gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
		if err != nil {
			encoder.DiscardEncoding()
			return err
		}
		idxBuf, err = c.createAndUploadBuffer("hwvg_frame_indices", c.indices,
			gputypes.BufferUsageIndex|gputypes.BufferUsageCopyDst)
		if err != nil {
			encoder.DiscardEncoding()
			return err
		}
	}
	uniformBuf, err = c.createAndUploadBuffer("hwvg_frame_uniform",
		makeViewportUniform(c.width, c.height),
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		encoder.DiscardEncoding()
		return err
	}

	// One bind group per distinct texture used this frame.
	bindGroups := make(map[gpucore.TextureID]hal.BindGroup)
	defer func() {
		for _, bg := range bindGroups {
			c.device.DestroyBindGroup(bg)
		}
	}()
	for _, call := range c.draws {
		if _, ok := bindGroups[call.state.Texture]; ok {
			continue
		}
		bg, err := c.createBindGroup(uniformBuf, call.state.Texture)
		if err != nil {
			encoder.DiscardEncoding()
			return err
		}
		bindGroups[call.state.Texture] = bg
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "hwvg_frame_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       c.targetView,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 0},
			},
		},
	})

	if len(c.draws) > 0 {
		rp.SetVertexBuffer(0, vertBuf, 0)
		rp.SetIndexBuffer(idxBuf, gputypes.IndexFormatUint32, 0)

		for _, call := range c.draws {
			rp.SetPipeline(c.pipes.pipelines[call.state.Blend])
			rp.SetBindGroup(0, bindGroups[call.state.Texture], nil)

			x, y, w, h := c.scissorFor(call.state.Clip)
			if w == 0 || h == 0 {
				continue
			}
			rp.SetScissorRect(x, y, w, h)
			rp.DrawIndexed(call.indexCount, 1, call.firstIndex, call.baseVertex, 0)
		}
	}
	rp.End()

	return c.submitEncoder(encoder)
}

// submitEncoder finishes encoding, submits, and waits on a fence.
func (c *Context) submitEncoder(encoder hal.CommandEncoder) error {
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer c.device.FreeCommandBuffer(cmdBuf)

	fence, err := c.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer c.device.DestroyFence(fence)

	if err := c.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	ok, err := c.device.Wait(fence, 1, gpuFenceTimeout)
	if err != nil || !ok {
		return fmt.Errorf("wait for GPU: ok=%v err=%w", ok, err)
	}
	return nil
}

// createBindGroup binds the viewport uniform plus the draw's texture
// and the shared sampler. InvalidID binds the white fallback texture.
func (c *Context) createBindGroup(uniformBuf hal.Buffer, id gpucore.TextureID) (hal.BindGroup, error) {
	gt := c.white
	if id != gpucore.InvalidID {
		gt = c.textures[id]
	}

	return c.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "hwvg_draw_bind",
		Layout: c.pipes.uniformLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: uniformBuf.NativeHandle(), Offset: 0, Size: uniformSize,
			}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{
				TextureView: gt.view.NativeHandle(),
			}},
			{Binding: 2, Resource: gputypes.SamplerBinding{
				Sampler: c.pipes.sampler.NativeHandle(),
			}},
		},
	})
}

// scissorFor clamps a clip rect to the frame and returns it as an
// unsigned scissor, the full frame when the clip is disabled.
func (c *Context) scissorFor(clip gpucore.ClipRect) (x, y, w, h uint32) {
	if !clip.Enabled {
		return 0, 0, c.width, c.height
	}

	x0 := clampI32(clip.X, 0, int32(c.width))
	y0 := clampI32(clip.Y, 0, int32(c.height))
	x1 := clampI32(clip.X+int32(clip.Width), x0, int32(c.width))
	y1 := clampI32(clip.Y+int32(clip.Height), y0, int32(c.height))
	return uint32(x0), uint32(y0), uint32(x1 - x0), uint32(y1 - y0)
}

// ensureTarget creates or recreates the offscreen color target.
func (c *Context) ensureTarget(w, h uint32) error {
	if c.width == w && c.height == h && c.target != nil {
		return nil
	}
	c.destroyTarget()

	tex, err := c.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "hwvg_target",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        targetFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create target texture: %w", err)
	}
	view, err := c.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "hwvg_target_view",
		Format:        targetFormat,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		c.device.DestroyTexture(tex)
		return fmt.Errorf("create target view: %w", err)
	}

	c.target = tex
	c.targetView = view
	c.width = w
	c.height = h
	c.rendered = false
	return nil
}

func (c *Context) destroyTarget() {
	if c.targetView != nil {
		c.device.DestroyTextureView(c.targetView)
		c.targetView = nil
	}
	if c.target != nil {
		c.device.DestroyTexture(c.target)
		c.target = nil
	}
	c.width = 0
	c.height = 0
	c.rendered = false
}

// newGPUTexture allocates a sampled RGBA8 texture and its view.
func (c *Context) newGPUTexture(label string, width, height int, format gpucore.TextureFormat) (*gpuTexture, error) {
	tex, err := c.device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture: %w", err)
	}
	view, err := c.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		c.device.DestroyTexture(tex)
		return nil, fmt.Errorf("create texture view: %w", err)
	}
	return &gpuTexture{tex: tex, view: view, width: width, height: height, format: format}, nil
}

// uploadRegion writes data into the texture region, expanding A8
// coverage to premultiplied white RGBA.
func (c *Context) uploadRegion(gt *gpuTexture, x, y, w, h int, data []byte) {
	rgba := data
	if gt.format == gpucore.TextureFormatA8 {
		rgba = expandA8(data)
	}
	c.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  gt.tex,
			MipLevel: 0,
			Origin:   hal.Origin3D{X: uint32(x), Y: uint32(y), Z: 0},
		},
		rgba,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(w) * 4,
			RowsPerImage: uint32(h),
		},
		&hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
	)
}

// createAndUploadBuffer creates a GPU buffer and uploads data.
func (c *Context) createAndUploadBuffer(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := c.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	c.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

// appendVertexData serializes packed vertices into the GPU layout,
// widening the byte color to float.
func appendVertexData(dst []byte, vertices []gpucore.Vertex) []byte {
	for _, v := range vertices {
		dst = appendFloat32(dst, v.Pos[0])
		dst = appendFloat32(dst, v.Pos[1])
		dst = appendFloat32(dst, v.UV[0])
		dst = appendFloat32(dst, v.UV[1])
		dst = appendFloat32(dst, float32(v.Color[0])/255)
		dst = appendFloat32(dst, float32(v.Color[1])/255)
		dst = appendFloat32(dst, float32(v.Color[2])/255)
		dst = appendFloat32(dst, float32(v.Color[3])/255)
	}
	return dst
}

func appendFloat32(dst []byte, v float32) []byte {
	return binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
}

// makeViewportUniform packs the 16-byte viewport uniform.
func makeViewportUniform(w, h uint32) []byte {
	buf := make([]byte, uniformSize)
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(float32(w)))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(float32(h)))
	return buf
}

// expandA8 widens single-channel coverage to premultiplied white RGBA.
func expandA8(src []byte) []byte {
	dst := make([]byte, len(src)*4)
	for i, a := range src {
		off := i * 4
		dst[off+0] = a
		dst[off+1] = a
		dst[off+2] = a
		dst[off+3] = a
	}
	return dst
}

func clampI32(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
