// Package shader holds WGSL compilation helpers shared by GPU backends.
package shader

import (
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// CompileWGSL compiles WGSL source to a SPIR-V uint32 word slice.
func CompileWGSL(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("compile shader: %w", err)
	}

	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}

// CreateModule creates a shader module from WGSL source, preferring the
// device's native WGSL path and falling back to SPIR-V via naga when a
// backend cannot consume WGSL directly.
func CreateModule(device hal.Device, label, source string) (hal.ShaderModule, error) {
	module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{WGSL: source},
	})
	if err == nil {
		return module, nil
	}

	words, cerr := CompileWGSL(source)
	if cerr != nil {
		return nil, fmt.Errorf("%s: wgsl rejected (%v) and spirv fallback failed: %w", label, err, cerr)
	}
	return device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: words},
	})
}
