// Package gpucore defines the minimal GPU capability set the hwvg
// translation engine requires, independent of any concrete graphics API.
//
// The [Context] interface is the sole point of contact between the core
// and the GPU. The core drives it with textured-triangle draws only; it
// never asks for shaders, render passes or synchronization primitives.
// One implementation per backend is expected, resolved at construction
// time through a single interface indirection:
//
//	          +---------------------+
//	          |   hwvg.Renderer     |
//	          | (batch translation) |
//	          +----------+----------+
//	                     |
//	             gpucore.Context
//	                     |
//	      +--------------+--------------+
//	      |                             |
//	+-----v------+               +------v-----+
//	| backend/   |               | host app's |
//	| wgpu       |               | own backend|
//	+------------+               +------------+
//
// # Behavioral contract
//
// Implementations must rasterize draws in submission order (painter's
// algorithm). Overlapping semi-transparent draws depend on it: the core
// submits batches in exactly the order they were accumulated and assumes
// "later over earlier" compositing.
//
// Resource handles returned by CreateTexture remain valid until
// DestroyTexture; the core's resource cache is the single owner of every
// texture it creates and frees them explicitly.
//
// All Context methods are called from the single goroutine that owns the
// renderer. Implementations own any synchronization with the actual GPU
// (fences, queue submission); from the core's perspective every call is
// fire-and-forget.
package gpucore
