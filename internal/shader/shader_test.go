package shader

import "testing"

const testShader = `
struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) color: vec4<f32>,
}

@vertex
fn vs_main(@location(0) pos: vec2<f32>, @location(1) color: vec4<f32>) -> VertexOutput {
    var out: VertexOutput;
    out.position = vec4<f32>(pos, 0.0, 1.0);
    out.color = color;
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return in.color;
}
`

func TestCompileWGSL(t *testing.T) {
	words, err := CompileWGSL(testShader)
	if err != nil {
		t.Skipf("naga cannot compile on this platform: %v", err)
	}
	if len(words) == 0 {
		t.Fatal("CompileWGSL() returned empty SPIR-V")
	}
	// SPIR-V magic number is the first word.
	if words[0] != 0x07230203 {
		t.Errorf("SPIR-V magic = %#x, want 0x07230203", words[0])
	}
}

func TestCompileWGSL_Invalid(t *testing.T) {
	if _, err := CompileWGSL("@vertex fn broken("); err == nil {
		t.Error("CompileWGSL() accepted invalid source")
	}
}
