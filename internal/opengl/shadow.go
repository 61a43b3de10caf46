package opengl

import (
	"fmt"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"ssao-pipeline/scene"
)

const shadowVertSrc = `
#version 410 core
layout(location = 0) in vec3 inPos;
uniform mat4 mvp;
void main() {
    gl_Position = mvp * vec4(inPos, 1.0);
}
` + "\x00"

const shadowFragSrc = `
#version 410 core
void main() {}
` + "\x00"

// ShadowMap wraps a depth-only framebuffer used for shadow mapping.
type ShadowMap struct {
	FBO      uint32
	DepthTex uint32
	Size     int32
}

// NewShadowMap creates a depth-only FBO of size x size resolution with
// a 32-bit float depth texture. The texture is sampled directly (single
// tap) by the geometry pass, so no hardware compare mode is set.
func NewShadowMap(size int) (*ShadowMap, error) {
	sm := &ShadowMap{Size: int32(size)}

	gl.GenTextures(1, &sm.DepthTex)
	gl.BindTexture(gl.TEXTURE_2D, sm.DepthTex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.DEPTH_COMPONENT32F,
		int32(size), int32(size), 0, gl.DEPTH_COMPONENT, gl.FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_BORDER)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_BORDER)
	// Fragments outside the shadow map are lit (border depth = 1.0)
	border := [4]float32{1, 1, 1, 1}
	gl.TexParameterfv(gl.TEXTURE_2D, gl.TEXTURE_BORDER_COLOR, &border[0])

	// Depth-only framebuffer
	gl.GenFramebuffers(1, &sm.FBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, sm.FBO)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, sm.DepthTex, 0)
	gl.DrawBuffer(gl.NONE)
	gl.ReadBuffer(gl.NONE)

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if status != gl.FRAMEBUFFER_COMPLETE {
		gl.DeleteTextures(1, &sm.DepthTex)
		gl.DeleteFramebuffers(1, &sm.FBO)
		return nil, fmt.Errorf("shadow FBO incomplete: status=0x%X", status)
	}

	return sm, nil
}

// Destroy frees GPU resources.
func (sm *ShadowMap) Destroy() {
	if sm.FBO != 0 {
		gl.DeleteFramebuffers(1, &sm.FBO)
		sm.FBO = 0
	}
	if sm.DepthTex != 0 {
		gl.DeleteTextures(1, &sm.DepthTex)
		sm.DepthTex = 0
	}
}

// ShadowPass renders scene depth from the light's point of view.
// Front faces are culled during the pass, so stored depth comes from
// back faces.
type ShadowPass struct {
	shadowMap *ShadowMap
	prog      uint32
	mvpLoc    int32
	meshes    *meshCache
}

func NewShadowPass(size int, meshes *meshCache) (*ShadowPass, error) {
	sm, err := NewShadowMap(size)
	if err != nil {
		return nil, err
	}

	prog, err := newProgram(shadowVertSrc, shadowFragSrc)
	if err != nil {
		sm.Destroy()
		return nil, fmt.Errorf("shadow shader: %w", err)
	}

	return &ShadowPass{
		shadowMap: sm,
		prog:      prog,
		mvpLoc:    uniformLoc(prog, "mvp"),
		meshes:    meshes,
	}, nil
}

func (p *ShadowPass) Name() string { return "shadow" }

// DepthTex exposes the shadow map texture for the geometry pass.
func (p *ShadowPass) DepthTex() uint32 { return p.shadowMap.DepthTex }

func (p *ShadowPass) Execute(f *Frame) error {
	gl.BindFramebuffer(gl.FRAMEBUFFER, p.shadowMap.FBO)
	gl.Viewport(0, 0, p.shadowMap.Size, p.shadowMap.Size)
	gl.Clear(gl.DEPTH_BUFFER_BIT)

	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.FRONT)

	gl.UseProgram(p.prog)

	for _, inst := range f.Instances {
		if inst.Mesh.DrawMode != scene.DrawTriangles {
			continue
		}
		gpu := p.meshes.ensure(inst.Mesh)
		if gpu == nil {
			continue
		}
		mvp := f.LightVP.Mul(inst.World)
		gl.UniformMatrix4fv(p.mvpLoc, 1, false,
			(*float32)(unsafe.Pointer(&mvp[0][0])))
		gpu.draw()
	}

	gl.CullFace(gl.BACK)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	return nil
}

func (p *ShadowPass) Destroy() {
	if p.prog != 0 {
		gl.DeleteProgram(p.prog)
		p.prog = 0
	}
	if p.shadowMap != nil {
		p.shadowMap.Destroy()
		p.shadowMap = nil
	}
}
