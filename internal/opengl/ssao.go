package opengl

import (
	"fmt"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"ssao-pipeline/ao"
)

// ssaoFragSrc is the GPU twin of ao.Kernel.Evaluate: it reconstructs
// view-space position from the depth buffer, reads the view-space
// normal from the geometry MRT, and accumulates hemisphere occlusion
// with the precomputed kernel.
const ssaoFragSrc = `
#version 410 core
in  vec2 fragUV;
out float outAO;

uniform sampler2D depthTex;   // unit 0 — scene depth [0,1]
uniform sampler2D normalTex;  // unit 1 — view-space normals
uniform sampler2D noiseTex;   // unit 2 — 4x4 XY rotation noise
uniform vec3  kernel[64];
uniform mat4  proj;
uniform mat4  invProj;
uniform float radius;
uniform float bias;
uniform vec2  noiseScale;     // vec2(screenW/4, screenH/4) for tiling

// Reconstruct view-space position from a UV + depth sample.
vec3 viewPos(vec2 uv) {
    float d  = texture(depthTex, uv).r * 2.0 - 1.0;
    vec4 ndc = vec4(uv * 2.0 - 1.0, d, 1.0);
    vec4 vp  = invProj * ndc;
    return vp.xyz / vp.w;
}

void main() {
    // Skip background (depth at or beyond far plane)
    if (texture(depthTex, fragUV).r >= 0.9999) { outAO = 1.0; return; }

    vec3 pos = viewPos(fragUV);

    vec3 n = texture(normalTex, fragUV).xyz;
    vec3 N = dot(n, n) < 1e-8 ? vec3(0.0, 0.0, 1.0) : normalize(n);

    // Random tangent from the tiled noise texture (XY in [-1,1], Z=0)
    vec3 rnd = texture(noiseTex, fragUV * noiseScale).xyz;
    rnd.z = 0.0;

    // Gram-Schmidt TBN to rotate the kernel to the surface hemisphere
    vec3 T = rnd - N * dot(rnd, N);
    if (dot(T, T) < 1e-8) T = cross(vec3(0.0, 1.0, 0.0), N);
    if (dot(T, T) < 1e-8) T = cross(vec3(1.0, 0.0, 0.0), N);
    T = normalize(T);
    vec3 B   = cross(N, T);
    mat3 TBN = mat3(T, B, N);

    float occ = 0.0;
    for (int i = 0; i < 64; i++) {
        vec3 s = pos + TBN * kernel[i] * radius;

        // Project the candidate occluder back to screen UV
        vec4 off = proj * vec4(s, 1.0);
        if (off.w <= 0.0) continue;
        off.xyz /= off.w;
        vec2 suv = clamp(off.xy * 0.5 + 0.5, 0.001, 0.999);

        float geoZ = viewPos(suv).z;

        // Range check prevents occlusion from distant geometry
        float rng = smoothstep(0.0, 1.0, radius / max(abs(pos.z - geoZ), 0.0001));

        // View space looks down -Z: larger z means closer, so
        // geoZ >= sampleZ means the sample point is behind geometry.
        occ += (geoZ >= s.z + bias ? 1.0 : 0.0) * rng;
    }

    outAO = clamp(1.0 - occ / 64.0, 0.0, 1.0);
}
` + "\x00"

// SSAOPass computes raw per-pixel occlusion into the AO target.
type SSAOPass struct {
	prog     uint32
	vao      uint32
	noiseTex uint32

	projLoc       int32
	invProjLoc    int32
	radiusLoc     int32
	biasLoc       int32
	noiseScaleLoc int32

	// Configuration (tweakable at runtime)
	Radius float32 // hemisphere radius in view-space units
	Bias   float32 // depth bias to prevent self-occlusion acne
}

// NewSSAOPass compiles the occlusion shader and uploads the kernel and
// the noise tile. The kernel never changes after this.
func NewSSAOPass(kernel *ao.Kernel, radius, bias float32, vao uint32) (*SSAOPass, error) {
	prog, err := newProgram(fsVertSrc, ssaoFragSrc)
	if err != nil {
		return nil, fmt.Errorf("ssao shader: %w", err)
	}

	p := &SSAOPass{
		prog:   prog,
		vao:    vao,
		Radius: radius,
		Bias:   bias,

		projLoc:       uniformLoc(prog, "proj"),
		invProjLoc:    uniformLoc(prog, "invProj"),
		radiusLoc:     uniformLoc(prog, "radius"),
		biasLoc:       uniformLoc(prog, "bias"),
		noiseScaleLoc: uniformLoc(prog, "noiseScale"),
	}

	gl.UseProgram(prog)
	gl.Uniform1i(uniformLoc(prog, "depthTex"), 0)
	gl.Uniform1i(uniformLoc(prog, "normalTex"), 1)
	gl.Uniform1i(uniformLoc(prog, "noiseTex"), 2)

	// Upload the sample kernel once.
	flat := make([]float32, ao.KernelSize*3)
	for i, s := range kernel.Samples {
		flat[i*3+0] = s.X
		flat[i*3+1] = s.Y
		flat[i*3+2] = s.Z
	}
	gl.Uniform3fv(uniformLoc(prog, "kernel"), ao.KernelSize, &flat[0])

	// Noise tile as RGB32F with z=0, REPEAT so it tiles over the screen.
	noise := make([]float32, ao.NoiseSize*ao.NoiseSize*3)
	for i, n := range kernel.Noise {
		noise[i*3+0] = n.X
		noise[i*3+1] = n.Y
	}
	gl.GenTextures(1, &p.noiseTex)
	gl.BindTexture(gl.TEXTURE_2D, p.noiseTex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGB32F, ao.NoiseSize, ao.NoiseSize,
		0, gl.RGB, gl.FLOAT, gl.Ptr(noise))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	return p, nil
}

func (p *SSAOPass) Name() string { return "ssao" }

func (p *SSAOPass) Execute(f *Frame) error {
	t := f.Targets

	gl.Disable(gl.DEPTH_TEST)
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.AOFBO)
	gl.Viewport(0, 0, int32(t.Width), int32(t.Height))
	gl.UseProgram(p.prog)

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, t.DepthTex)
	gl.ActiveTexture(gl.TEXTURE1)
	gl.BindTexture(gl.TEXTURE_2D, t.NormalTex)
	gl.ActiveTexture(gl.TEXTURE2)
	gl.BindTexture(gl.TEXTURE_2D, p.noiseTex)

	gl.UniformMatrix4fv(p.projLoc, 1, false, (*float32)(unsafe.Pointer(&f.Proj[0][0])))
	gl.UniformMatrix4fv(p.invProjLoc, 1, false, (*float32)(unsafe.Pointer(&f.InvProj[0][0])))
	gl.Uniform1f(p.radiusLoc, p.Radius)
	gl.Uniform1f(p.biasLoc, p.Bias)
	gl.Uniform2f(p.noiseScaleLoc,
		float32(t.Width)/float32(ao.NoiseSize),
		float32(t.Height)/float32(ao.NoiseSize))

	gl.BindVertexArray(p.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)

	gl.ActiveTexture(gl.TEXTURE0)
	gl.Enable(gl.DEPTH_TEST)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	return nil
}

func (p *SSAOPass) Destroy() {
	if p.prog != 0 {
		gl.DeleteProgram(p.prog)
		p.prog = 0
	}
	if p.noiseTex != 0 {
		gl.DeleteTextures(1, &p.noiseTex)
		p.noiseTex = 0
	}
}
