package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"
)

// blurFragSrc averages a 4x4 neighborhood, exactly one noise tile, so
// the per-pixel rotation pattern cancels out of the occlusion signal.
const blurFragSrc = `
#version 410 core
in  vec2 fragUV;
out float outAO;

uniform sampler2D ssaoTex;

void main() {
    vec2 texel  = 1.0 / vec2(textureSize(ssaoTex, 0));
    float result = 0.0;
    for (int x = -2; x < 2; x++) {
        for (int y = -2; y < 2; y++) {
            result += texture(ssaoTex, fragUV + vec2(x, y) * texel).r;
        }
    }
    outAO = result / 16.0;
}
` + "\x00"

// BlurPass box-filters the raw occlusion into the blur target.
type BlurPass struct {
	prog uint32
	vao  uint32
}

func NewBlurPass(vao uint32) (*BlurPass, error) {
	prog, err := newProgram(fsVertSrc, blurFragSrc)
	if err != nil {
		return nil, fmt.Errorf("ssao blur shader: %w", err)
	}

	gl.UseProgram(prog)
	gl.Uniform1i(uniformLoc(prog, "ssaoTex"), 0)

	return &BlurPass{prog: prog, vao: vao}, nil
}

func (p *BlurPass) Name() string { return "blur" }

func (p *BlurPass) Execute(f *Frame) error {
	t := f.Targets

	gl.Disable(gl.DEPTH_TEST)
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.BlurFBO)
	gl.Viewport(0, 0, int32(t.Width), int32(t.Height))
	gl.UseProgram(p.prog)

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, t.AOTex)

	gl.BindVertexArray(p.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)

	gl.Enable(gl.DEPTH_TEST)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	return nil
}

func (p *BlurPass) Destroy() {
	if p.prog != 0 {
		gl.DeleteProgram(p.prog)
		p.prog = 0
	}
}
