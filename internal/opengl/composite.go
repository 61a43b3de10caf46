package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"ssao-pipeline/core"
)

// DisplayMode selects what the composite pass writes to the screen.
type DisplayMode int

const (
	ModeLit     DisplayMode = iota // lit color multiplied by occlusion
	ModeAOOnly                     // grayscale occlusion for debugging
	ModeLitNoAO                    // lit color with occlusion bypassed
)

func (m DisplayMode) String() string {
	switch m {
	case ModeLit:
		return "lit"
	case ModeAOOnly:
		return "ao-only"
	case ModeLitNoAO:
		return "lit-no-ao"
	}
	return fmt.Sprintf("DisplayMode(%d)", int(m))
}

const compositeFragSrc = `
#version 410 core
in  vec2 fragUV;
out vec4 outColor;

uniform sampler2D colorTex;  // unit 0 — lit scene
uniform sampler2D aoTex;     // unit 1 — blurred occlusion
uniform int  mode;           // 0 = lit*ao, 1 = ao only, 2 = lit bypass
uniform bool dither;

// 4x4 Bayer matrix, thresholds in units of 1/16.
const float bayer[16] = float[16](
     0.0,  8.0,  2.0, 10.0,
    12.0,  4.0, 14.0,  6.0,
     3.0, 11.0,  1.0,  9.0,
    15.0,  7.0, 13.0,  5.0
);

void main() {
    vec4  lit = texture(colorTex, fragUV);
    float ao  = clamp(texture(aoTex, fragUV).r, 0.0, 1.0);

    vec3 rgb;
    if (mode == 1) {
        rgb = vec3(ao);
    } else if (mode == 2) {
        rgb = lit.rgb;
    } else {
        rgb = lit.rgb * ao;
    }

    if (dither) {
        // Ordered dither breaks up banding in the smooth AO gradients
        // before the write to the 8-bit backbuffer.
        ivec2 px = ivec2(gl_FragCoord.xy) & 3;
        float t  = (bayer[px.y * 4 + px.x] + 0.5) / 16.0;
        rgb += (t - 0.5) / 255.0;
    }

    outColor = vec4(rgb, lit.a);
}
` + "\x00"

// CompositePass combines the lit color and the blurred occlusion into
// the default framebuffer.
type CompositePass struct {
	prog      uint32
	vao       uint32
	modeLoc   int32
	ditherLoc int32

	Mode   DisplayMode
	Dither bool
}

func NewCompositePass(vao uint32) (*CompositePass, error) {
	prog, err := newProgram(fsVertSrc, compositeFragSrc)
	if err != nil {
		return nil, fmt.Errorf("composite shader: %w", err)
	}

	p := &CompositePass{
		prog:      prog,
		vao:       vao,
		modeLoc:   uniformLoc(prog, "mode"),
		ditherLoc: uniformLoc(prog, "dither"),
	}

	gl.UseProgram(prog)
	gl.Uniform1i(uniformLoc(prog, "colorTex"), 0)
	gl.Uniform1i(uniformLoc(prog, "aoTex"), 1)

	return p, nil
}

func (p *CompositePass) Name() string { return "composite" }

func (p *CompositePass) Execute(f *Frame) error {
	t := f.Targets

	gl.Disable(gl.DEPTH_TEST)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, int32(f.Width), int32(f.Height))
	gl.UseProgram(p.prog)

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, t.ColorTex)
	gl.ActiveTexture(gl.TEXTURE1)
	gl.BindTexture(gl.TEXTURE_2D, t.BlurTex)

	gl.Uniform1i(p.modeLoc, int32(p.Mode))
	if p.Dither {
		gl.Uniform1i(p.ditherLoc, 1)
	} else {
		gl.Uniform1i(p.ditherLoc, 0)
	}

	gl.BindVertexArray(p.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)

	gl.ActiveTexture(gl.TEXTURE0)
	gl.Enable(gl.DEPTH_TEST)
	return nil
}

func (p *CompositePass) Destroy() {
	if p.prog != 0 {
		gl.DeleteProgram(p.prog)
		p.prog = 0
	}
}

// compositePixel is the CPU reference of the shader's mode selection,
// without dithering. Kept next to the shader so the two stay in sync.
func compositePixel(mode DisplayMode, lit core.Color, ao float32) core.Color {
	ao = clampf(ao, 0, 1)
	switch mode {
	case ModeAOOnly:
		return core.Color{R: ao, G: ao, B: ao, A: lit.A}
	case ModeLitNoAO:
		return lit
	default:
		return core.Color{R: lit.R * ao, G: lit.G * ao, B: lit.B * ao, A: lit.A}
	}
}

var bayer4 = [16]float32{
	0, 8, 2, 10,
	12, 4, 14, 6,
	3, 11, 1, 9,
	15, 7, 13, 5,
}

// bayerThreshold returns the ordered-dither threshold in (0,1) for a
// pixel coordinate.
func bayerThreshold(x, y int) float32 {
	return (bayer4[(y&3)*4+(x&3)] + 0.5) / 16.0
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
