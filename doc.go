// Package hwvg translates 2D vector-graphics draw calls into batches of
// textured triangles for execution on a GPU.
//
// hwvg sits between a high-level vector-graphics API and a minimal GPU
// abstraction. It owns the three hard problems of hardware-accelerated
// vector rendering:
//
//   - Tessellation: converting Bezier paths and stroke outlines into
//     triangle meshes with coverage-based anti-aliasing.
//   - Resource caching: glyph atlases, gradient ramp textures and image
//     textures, deduplicated by content fingerprint with reference-counted
//     eviction (package cache).
//   - Batching: grouping consecutive draws that share GPU state (texture,
//     blend mode, clip) into single submissions, preserving painter's
//     order ([Renderer]).
//
// The GPU itself is reached only through the [gpucore.Context] interface.
// Any backend implementing that interface is interchangeable; a hardware
// implementation over gogpu/wgpu lives in backend/wgpu and a CPU rasterizer
// lives in backend/software.
//
// # Usage
//
//	ctx := software.New()
//	r, err := hwvg.NewRenderer(ctx, hwvg.DefaultRendererConfig())
//	if err != nil {
//	    return err
//	}
//
//	path := hwvg.NewPath()
//	path.MoveTo(0, 0)
//	path.LineTo(100, 0)
//	path.LineTo(100, 100)
//	path.Close()
//
//	if err := r.BeginFrame(800, 600); err != nil {
//	    return err
//	}
//	if err := r.DrawPath(path, hwvg.Solid(hwvg.RGB(1, 0, 0)), hwvg.FillRuleNonZero, hwvg.Identity()); err != nil {
//	    return err
//	}
//	return r.EndFrame()
//
// A Renderer is single-threaded: all draw calls for one surface must come
// from one goroutine. Multiple surfaces need one Renderer each, each with
// its own resource cache.
package hwvg
