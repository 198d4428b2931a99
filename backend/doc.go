// Package backend provides the rendering backend registry.
//
// Backends implement gpucore.Context and register a Factory under a
// well-known name, usually from an init() function in their package:
//
//	import _ "github.com/gogpu/hwvg/backend/software"
//
// The host then selects a backend explicitly with Get, or takes the
// best available one with Default. The wgpu backend needs a hal device
// from the host and therefore does not self-register; hosts construct
// it directly (or register a closure over their device).
package backend
