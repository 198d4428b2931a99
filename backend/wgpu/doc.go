// Package wgpu renders through a wgpu hal device.
//
// The package receives the device from the host, it does not create
// one: windowing, adapter selection, and surface management belong to
// the application. Construct a Context with New, or call RegisterDevice
// to make it selectable through the backend registry.
//
// Rendering goes to an offscreen color target sized by BeginFrame.
// After EndFrame the host can fetch the frame with ReadPixels or
// composite the target texture itself.
package wgpu
