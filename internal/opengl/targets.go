package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"
)

// TargetGroup bundles every screen-sized render target of one frame:
// the geometry MRT (color + view-space normal + depth) and the two
// single-channel AO targets. A group is created whole and destroyed
// whole; passes never see a half-built set of attachments.
type TargetGroup struct {
	Width  int
	Height int

	// Geometry pass MRT
	GeomFBO   uint32
	ColorTex  uint32 // RGBA8
	NormalTex uint32 // RGBA16F, view-space normals
	DepthTex  uint32 // DEPTH_COMPONENT32F, sampled by the SSAO pass

	// Occlusion targets
	AOFBO   uint32
	AOTex   uint32 // R16F raw occlusion
	BlurFBO uint32
	BlurTex uint32 // R16F blurred occlusion

	release func()
}

// Release frees the group's GPU resources. Safe to call on groups from
// non-GL factories, where release is a no-op.
func (g *TargetGroup) Release() {
	if g.release != nil {
		g.release()
		g.release = nil
	}
}

// CreateTargetsFunc builds a complete TargetGroup for the given pixel
// size, or fails without leaking partial state. Tests inject fakes here
// so TargetSet can be exercised without a GL context.
type CreateTargetsFunc func(width, height int) (*TargetGroup, error)

// TargetSet owns the current TargetGroup and swaps it on resize.
type TargetSet struct {
	create CreateTargetsFunc
	group  *TargetGroup
}

func NewTargetSet(create CreateTargetsFunc) *TargetSet {
	return &TargetSet{create: create}
}

// Group returns the current target group, or nil before the first
// successful EnsureSize.
func (s *TargetSet) Group() *TargetGroup {
	return s.group
}

// EnsureSize makes the current group match the given size. The new
// group is created first and the old one is destroyed only after the
// new one exists, so on failure the previous targets stay usable and
// the caller can keep rendering at the old size.
func (s *TargetSet) EnsureSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid target size %dx%d", width, height)
	}
	if s.group != nil && s.group.Width == width && s.group.Height == height {
		return nil
	}

	next, err := s.create(width, height)
	if err != nil {
		return fmt.Errorf("create %dx%d targets: %w", width, height, err)
	}

	if s.group != nil {
		s.group.Release()
	}
	s.group = next
	return nil
}

// Destroy releases the current group.
func (s *TargetSet) Destroy() {
	if s.group != nil {
		s.group.Release()
		s.group = nil
	}
}

// NewGLTargets is the production CreateTargetsFunc: it allocates the
// geometry MRT and both AO framebuffers on the GPU. Any incomplete
// framebuffer aborts the whole group and frees everything already made.
func NewGLTargets(width, height int) (*TargetGroup, error) {
	g := &TargetGroup{Width: width, Height: height}
	w, h := int32(width), int32(height)

	var texs []uint32
	var fbos []uint32
	fail := func(err error) (*TargetGroup, error) {
		if len(texs) > 0 {
			gl.DeleteTextures(int32(len(texs)), &texs[0])
		}
		if len(fbos) > 0 {
			gl.DeleteFramebuffers(int32(len(fbos)), &fbos[0])
		}
		return nil, err
	}

	colorTex := func(internal int32, format, xtype uint32) uint32 {
		var tex uint32
		gl.GenTextures(1, &tex)
		gl.BindTexture(gl.TEXTURE_2D, tex)
		gl.TexImage2D(gl.TEXTURE_2D, 0, internal, w, h, 0, format, xtype, nil)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
		gl.BindTexture(gl.TEXTURE_2D, 0)
		texs = append(texs, tex)
		return tex
	}

	// ── Geometry MRT ──────────────────────────────────────────────────────────
	g.ColorTex = colorTex(gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE)
	g.NormalTex = colorTex(gl.RGBA16F, gl.RGBA, gl.FLOAT)
	g.DepthTex = colorTex(gl.DEPTH_COMPONENT32F, gl.DEPTH_COMPONENT, gl.FLOAT)

	gl.GenFramebuffers(1, &g.GeomFBO)
	fbos = append(fbos, g.GeomFBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, g.GeomFBO)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, g.ColorTex, 0)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT1, gl.TEXTURE_2D, g.NormalTex, 0)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, g.DepthTex, 0)
	drawBufs := [2]uint32{gl.COLOR_ATTACHMENT0, gl.COLOR_ATTACHMENT1}
	gl.DrawBuffers(2, &drawBufs[0])
	if st := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); st != gl.FRAMEBUFFER_COMPLETE {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		return fail(fmt.Errorf("geometry FBO incomplete: status=0x%X", st))
	}

	// ── AO and blur targets ───────────────────────────────────────────────────
	for _, t := range []struct {
		fbo *uint32
		tex *uint32
		tag string
	}{
		{&g.AOFBO, &g.AOTex, "ssao"},
		{&g.BlurFBO, &g.BlurTex, "ssao blur"},
	} {
		*t.tex = colorTex(gl.R16F, gl.RED, gl.FLOAT)
		gl.GenFramebuffers(1, t.fbo)
		fbos = append(fbos, *t.fbo)
		gl.BindFramebuffer(gl.FRAMEBUFFER, *t.fbo)
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, *t.tex, 0)
		if st := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); st != gl.FRAMEBUFFER_COMPLETE {
			gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
			return fail(fmt.Errorf("%s FBO incomplete: status=0x%X", t.tag, st))
		}
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	allTexs := texs
	allFBOs := fbos
	g.release = func() {
		gl.DeleteFramebuffers(int32(len(allFBOs)), &allFBOs[0])
		gl.DeleteTextures(int32(len(allTexs)), &allTexs[0])
	}
	return g, nil
}
