package wgpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/hwvg/gpucore"
	"github.com/gogpu/hwvg/internal/shader"
)

//go:embed shaders/draw.wgsl
var drawShaderSource string

// gpuVertexStride is the byte stride per vertex in the GPU buffer.
// Layout per vertex:
//
//	pos   (vec2<f32>) = 8 bytes   (location 0)
//	uv    (vec2<f32>) = 8 bytes   (location 1)
//	color (vec4<f32>) = 16 bytes  (location 2)
//
// Total = 32 bytes. The packed gpucore.Vertex stores color as 4 bytes;
// it is widened to float on upload so the layout stays on formats every
// hal backend supports.
const gpuVertexStride = 32

// uniformSize is the byte size of the viewport uniform:
// viewport (vec2<f32>) + padding = 16 bytes.
const uniformSize = 16

// targetFormat is the offscreen color target format.
const targetFormat = gputypes.TextureFormatRGBA8Unorm

// pipelineSet holds the shader, layouts, sampler, and one render
// pipeline per blend mode. All pipelines share the shader and layout;
// only the fixed-function blend state differs.
type pipelineSet struct {
	shader        hal.ShaderModule
	uniformLayout hal.BindGroupLayout
	pipeLayout    hal.PipelineLayout
	sampler       hal.Sampler

	pipelines map[gpucore.BlendMode]hal.RenderPipeline
}

// newPipelineSet compiles the draw shader and builds the bind group
// layout, pipeline layout, sampler, and the three blend pipelines.
func newPipelineSet(device hal.Device) (*pipelineSet, error) {
	p := &pipelineSet{
		pipelines: make(map[gpucore.BlendMode]hal.RenderPipeline),
	}

	mod, err := shader.CreateModule(device, "hwvg_draw_shader", drawShaderSource)
	if err != nil {
		return nil, fmt.Errorf("compile draw shader: %w", err)
	}
	p.shader = mod

	// Bind group layout:
	//   Binding 0: viewport uniform (vertex)
	//   Binding 1: texture (fragment)
	//   Binding 2: sampler (fragment)
	uniformLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "hwvg_draw_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		p.destroy(device)
		return nil, fmt.Errorf("create bind group layout: %w", err)
	}
	p.uniformLayout = uniformLayout

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "hwvg_draw_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.uniformLayout},
	})
	if err != nil {
		p.destroy(device)
		return nil, fmt.Errorf("create pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout

	sampler, err := device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "hwvg_draw_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		p.destroy(device)
		return nil, fmt.Errorf("create sampler: %w", err)
	}
	p.sampler = sampler

	for _, mode := range []gpucore.BlendMode{
		gpucore.BlendSourceOver, gpucore.BlendAdditive, gpucore.BlendCopy,
	} {
		pipe, err := p.createPipeline(device, mode)
		if err != nil {
			p.destroy(device)
			return nil, fmt.Errorf("create %s pipeline: %w", mode, err)
		}
		p.pipelines[mode] = pipe
	}

	return p, nil
}

func (p *pipelineSet) createPipeline(device hal.Device, mode gpucore.BlendMode) (hal.RenderPipeline, error) {
	blend := blendStateFor(mode)
	return device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "hwvg_draw_" + mode.String(),
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.shader,
			EntryPoint: "vs_main",
			Buffers:    drawVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     p.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    targetFormat,
					Blend:     &blend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
}

// blendStateFor maps a core blend mode to the fixed-function state.
// All geometry carries premultiplied alpha.
func blendStateFor(mode gpucore.BlendMode) gputypes.BlendState {
	switch mode {
	case gpucore.BlendAdditive:
		return gputypes.BlendState{
			Color: gputypes.BlendComponent{
				SrcFactor: gputypes.BlendFactorOne,
				DstFactor: gputypes.BlendFactorOne,
				Operation: gputypes.BlendOperationAdd,
			},
			Alpha: gputypes.BlendComponent{
				SrcFactor: gputypes.BlendFactorOne,
				DstFactor: gputypes.BlendFactorOne,
				Operation: gputypes.BlendOperationAdd,
			},
		}
	case gpucore.BlendCopy:
		return gputypes.BlendState{
			Color: gputypes.BlendComponent{
				SrcFactor: gputypes.BlendFactorOne,
				DstFactor: gputypes.BlendFactorZero,
				Operation: gputypes.BlendOperationAdd,
			},
			Alpha: gputypes.BlendComponent{
				SrcFactor: gputypes.BlendFactorOne,
				DstFactor: gputypes.BlendFactorZero,
				Operation: gputypes.BlendOperationAdd,
			},
		}
	default:
		return gputypes.BlendStatePremultiplied()
	}
}

// drawVertexLayout returns the vertex buffer layout matching
// VertexInput in draw.wgsl.
func drawVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: gpuVertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},  // pos
				{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},  // uv
				{Format: gputypes.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 2}, // color
			},
		},
	}
}

// destroy releases pipeline resources in reverse creation order.
func (p *pipelineSet) destroy(device hal.Device) {
	for mode, pipe := range p.pipelines {
		if pipe != nil {
			device.DestroyRenderPipeline(pipe)
		}
		delete(p.pipelines, mode)
	}
	if p.sampler != nil {
		device.DestroySampler(p.sampler)
		p.sampler = nil
	}
	if p.pipeLayout != nil {
		device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.uniformLayout != nil {
		device.DestroyBindGroupLayout(p.uniformLayout)
		p.uniformLayout = nil
	}
	if p.shader != nil {
		device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}
