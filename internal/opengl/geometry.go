package opengl

import (
	"fmt"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"ssao-pipeline/scene"
)

const geomVertSrc = `
#version 410 core
layout(location = 0) in vec3 inPos;
layout(location = 1) in vec3 inNormal;
layout(location = 2) in vec2 inUV;
layout(location = 3) in vec4 inColor;

uniform mat4 model;
uniform mat4 view;
uniform mat4 proj;
uniform mat4 lightVP;

out vec3 worldPos;
out vec3 worldNormal;
out vec3 viewNormal;
out vec2 fragUV;
out vec4 vertColor;
out vec4 lightClip;

void main() {
    vec4 wp     = model * vec4(inPos, 1.0);
    worldPos    = wp.xyz;
    worldNormal = mat3(model) * inNormal;
    viewNormal  = mat3(view) * worldNormal;
    fragUV      = inUV;
    vertColor   = inColor;
    lightClip   = lightVP * wp;
    gl_Position = proj * view * wp;
}
` + "\x00"

const geomFragSrc = `
#version 410 core
in vec3 worldPos;
in vec3 worldNormal;
in vec3 viewNormal;
in vec2 fragUV;
in vec4 vertColor;
in vec4 lightClip;

layout(location = 0) out vec4 outColor;   // RGBA8 lit color
layout(location = 1) out vec4 outNormal;  // RGBA16F view-space normal

uniform sampler2D albedoTex;  // unit 0
uniform sampler2D shadowMap;  // unit 1

uniform vec4  matAlbedo;
uniform vec3  matSpecular;
uniform float matShininess;
uniform bool  matUnlit;

uniform vec3  lightDir;       // world-space direction light travels in
uniform vec3  lightColor;
uniform float lightIntensity;
uniform vec3  ambientColor;
uniform vec3  cameraPos;
uniform float shadowBias;

// Single-tap shadow lookup: 1 = lit, 0 = in shadow.
float shadowFactor() {
    vec3 p = lightClip.xyz / lightClip.w * 0.5 + 0.5;
    if (p.z > 1.0) return 1.0;
    float stored = texture(shadowMap, p.xy).r;
    return (p.z - shadowBias > stored) ? 0.0 : 1.0;
}

void main() {
    vec4 base = matAlbedo * vertColor * texture(albedoTex, fragUV);

    if (matUnlit) {
        outColor = base;
    } else {
        vec3  N   = normalize(worldNormal);
        vec3  L   = normalize(-lightDir);
        float ndl = max(dot(N, L), 0.0);
        float sh  = shadowFactor();

        vec3  V    = normalize(cameraPos - worldPos);
        vec3  H    = normalize(L + V);
        float spec = ndl > 0.0 ? pow(max(dot(N, H), 0.0), matShininess) : 0.0;

        vec3 lit = base.rgb * (ambientColor + lightColor * lightIntensity * ndl * sh)
                 + matSpecular * lightColor * lightIntensity * spec * sh;
        outColor = vec4(lit, base.a);
    }

    outNormal = vec4(normalize(viewNormal), 0.0);
}
` + "\x00"

// GeometryPass rasterizes the scene into the MRT target group: lit
// color, view-space normals, and depth, plus the single-tap shadow
// lookup against the shadow pass output.
type GeometryPass struct {
	prog   uint32
	meshes *meshCache
	shadow *ShadowPass

	// 1x1 white fallback bound when a material has no albedo texture,
	// so the shader can sample unconditionally.
	whiteTex uint32

	modelLoc     int32
	viewLoc      int32
	projLoc      int32
	lightVPLoc   int32
	albedoLoc    int32
	specularLoc  int32
	shininessLoc int32
	unlitLoc     int32
	lightDirLoc  int32
	lightColLoc  int32
	lightIntLoc  int32
	ambientLoc   int32
	cameraPosLoc int32
	biasLoc      int32

	// ShadowBias offsets the depth compare to avoid acne.
	ShadowBias float32

	defaultMat *scene.Material
}

func NewGeometryPass(meshes *meshCache, shadow *ShadowPass) (*GeometryPass, error) {
	prog, err := newProgram(geomVertSrc, geomFragSrc)
	if err != nil {
		return nil, fmt.Errorf("geometry shader: %w", err)
	}

	p := &GeometryPass{
		prog:       prog,
		meshes:     meshes,
		shadow:     shadow,
		ShadowBias: 0.002,
		defaultMat: scene.DefaultMaterial(),

		modelLoc:     uniformLoc(prog, "model"),
		viewLoc:      uniformLoc(prog, "view"),
		projLoc:      uniformLoc(prog, "proj"),
		lightVPLoc:   uniformLoc(prog, "lightVP"),
		albedoLoc:    uniformLoc(prog, "matAlbedo"),
		specularLoc:  uniformLoc(prog, "matSpecular"),
		shininessLoc: uniformLoc(prog, "matShininess"),
		unlitLoc:     uniformLoc(prog, "matUnlit"),
		lightDirLoc:  uniformLoc(prog, "lightDir"),
		lightColLoc:  uniformLoc(prog, "lightColor"),
		lightIntLoc:  uniformLoc(prog, "lightIntensity"),
		ambientLoc:   uniformLoc(prog, "ambientColor"),
		cameraPosLoc: uniformLoc(prog, "cameraPos"),
		biasLoc:      uniformLoc(prog, "shadowBias"),
	}

	gl.UseProgram(prog)
	gl.Uniform1i(uniformLoc(prog, "albedoTex"), 0)
	gl.Uniform1i(uniformLoc(prog, "shadowMap"), 1)

	white := [4]byte{255, 255, 255, 255}
	gl.GenTextures(1, &p.whiteTex)
	gl.BindTexture(gl.TEXTURE_2D, p.whiteTex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, 1, 1, 0,
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(&white[0]))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	return p, nil
}

func (p *GeometryPass) Name() string { return "geometry" }

func (p *GeometryPass) Execute(f *Frame) error {
	t := f.Targets
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.GeomFBO)
	gl.Viewport(0, 0, int32(t.Width), int32(t.Height))

	// Clear each attachment separately: sky color into the color
	// buffer, zero into the normal buffer so the background stays a
	// degenerate normal for the SSAO pass.
	sky := [4]float32{f.Sky.R, f.Sky.G, f.Sky.B, f.Sky.A}
	zero := [4]float32{0, 0, 0, 0}
	one := float32(1)
	gl.ClearBufferfv(gl.COLOR, 0, &sky[0])
	gl.ClearBufferfv(gl.COLOR, 1, &zero[0])
	gl.ClearBufferfv(gl.DEPTH, 0, &one)

	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)

	gl.UseProgram(p.prog)

	gl.UniformMatrix4fv(p.viewLoc, 1, false, (*float32)(unsafe.Pointer(&f.View[0][0])))
	gl.UniformMatrix4fv(p.projLoc, 1, false, (*float32)(unsafe.Pointer(&f.Proj[0][0])))
	gl.UniformMatrix4fv(p.lightVPLoc, 1, false, (*float32)(unsafe.Pointer(&f.LightVP[0][0])))

	dir := f.Light.Direction.Normalize()
	gl.Uniform3f(p.lightDirLoc, dir.X, dir.Y, dir.Z)
	gl.Uniform3f(p.lightColLoc, f.Light.Color.R, f.Light.Color.G, f.Light.Color.B)
	gl.Uniform1f(p.lightIntLoc, f.Light.Intensity)
	gl.Uniform3f(p.ambientLoc, f.Ambient.R, f.Ambient.G, f.Ambient.B)
	gl.Uniform3f(p.cameraPosLoc, f.CameraPos.X, f.CameraPos.Y, f.CameraPos.Z)
	gl.Uniform1f(p.biasLoc, p.ShadowBias)

	gl.ActiveTexture(gl.TEXTURE1)
	gl.BindTexture(gl.TEXTURE_2D, p.shadow.DepthTex())

	for _, inst := range f.Instances {
		gpu := p.meshes.ensure(inst.Mesh)
		if gpu == nil {
			continue
		}

		gl.UniformMatrix4fv(p.modelLoc, 1, false,
			(*float32)(unsafe.Pointer(&inst.World[0][0])))
		p.applyMaterial(inst.Mesh.Material)
		gpu.draw()
	}

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	return nil
}

func (p *GeometryPass) applyMaterial(mat *scene.Material) {
	if mat == nil {
		mat = p.defaultMat
	}

	gl.Uniform4f(p.albedoLoc, mat.Albedo.R, mat.Albedo.G, mat.Albedo.B, mat.Albedo.A)
	gl.Uniform3f(p.specularLoc, mat.Specular.R, mat.Specular.G, mat.Specular.B)
	gl.Uniform1f(p.shininessLoc, mat.Shininess)
	if mat.Unlit {
		gl.Uniform1i(p.unlitLoc, 1)
	} else {
		gl.Uniform1i(p.unlitLoc, 0)
	}

	gl.ActiveTexture(gl.TEXTURE0)
	if mat.AlbedoTexture != nil && mat.AlbedoTexture.GLID != 0 {
		gl.BindTexture(gl.TEXTURE_2D, mat.AlbedoTexture.GLID)
	} else {
		gl.BindTexture(gl.TEXTURE_2D, p.whiteTex)
	}
}

func (p *GeometryPass) Destroy() {
	if p.prog != 0 {
		gl.DeleteProgram(p.prog)
		p.prog = 0
	}
	if p.whiteTex != 0 {
		gl.DeleteTextures(1, &p.whiteTex)
		p.whiteTex = 0
	}
}
