package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"ssao-pipeline/ao"
	"ssao-pipeline/core"
	"ssao-pipeline/math"
	"ssao-pipeline/scene"
)

// Frame carries the per-frame inputs shared by every pass.
type Frame struct {
	Width  int
	Height int

	View    math.Mat4
	Proj    math.Mat4
	InvProj math.Mat4
	LightVP math.Mat4

	CameraPos math.Vec3
	Light     *scene.DirectionalLight
	Ambient   core.Color
	Sky       core.Color

	Instances []scene.Instance

	Targets *TargetGroup
}

// Pass is one stage of the frame graph. Execute reads its inputs from
// the Frame and leaves its output in the frame's targets (or, for the
// composite pass, the default framebuffer).
type Pass interface {
	Name() string
	Execute(f *Frame) error
}

// Config holds the pipeline's startup parameters.
type Config struct {
	ShadowMapSize int
	KernelSeed    uint32
	Radius        float32 // SSAO hemisphere radius in view-space units
	Bias          float32 // SSAO depth bias
}

func DefaultConfig() Config {
	return Config{
		ShadowMapSize: 2048,
		KernelSeed:    42,
		Radius:        0.5,
		Bias:          0.025,
	}
}

// Pipeline owns the full render frame graph: shadow, geometry MRT,
// SSAO, blur, and composite, plus the shared GPU resources they use.
// Construction errors are fatal; per-frame errors are returned from
// RenderFrame and the caller decides whether to keep going.
type Pipeline struct {
	cfg Config

	meshes  *meshCache
	targets *TargetSet
	fsVAO   uint32 // fullscreen triangle, shared by the post passes

	shadow    *ShadowPass
	geometry  *GeometryPass
	ssao      *SSAOPass
	blur      *BlurPass
	composite *CompositePass

	passes []Pass
}

// NewPipeline initializes OpenGL and builds every pass. The GL context
// must be current on the calling goroutine.
func NewPipeline(cfg Config) (*Pipeline, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("opengl init: %w", err)
	}
	if cfg.ShadowMapSize <= 0 {
		cfg.ShadowMapSize = DefaultConfig().ShadowMapSize
	}

	p := &Pipeline{
		cfg:     cfg,
		meshes:  newMeshCache(),
		targets: NewTargetSet(NewGLTargets),
	}

	gl.GenVertexArrays(1, &p.fsVAO)

	var err error
	if p.shadow, err = NewShadowPass(cfg.ShadowMapSize, p.meshes); err != nil {
		p.Destroy()
		return nil, err
	}
	if p.geometry, err = NewGeometryPass(p.meshes, p.shadow); err != nil {
		p.Destroy()
		return nil, err
	}

	kernel := ao.Generate(cfg.KernelSeed)
	if p.ssao, err = NewSSAOPass(&kernel, cfg.Radius, cfg.Bias, p.fsVAO); err != nil {
		p.Destroy()
		return nil, err
	}
	if p.blur, err = NewBlurPass(p.fsVAO); err != nil {
		p.Destroy()
		return nil, err
	}
	if p.composite, err = NewCompositePass(p.fsVAO); err != nil {
		p.Destroy()
		return nil, err
	}

	p.passes = []Pass{p.shadow, p.geometry, p.ssao, p.blur, p.composite}
	return p, nil
}

// SetDisplayMode switches what the composite pass shows.
func (p *Pipeline) SetDisplayMode(m DisplayMode) {
	p.composite.Mode = m
}

func (p *Pipeline) DisplayMode() DisplayMode {
	return p.composite.Mode
}

// SetDither toggles ordered dithering in the composite pass.
func (p *Pipeline) SetDither(on bool) {
	p.composite.Dither = on
}

func (p *Pipeline) Dither() bool {
	return p.composite.Dither
}

// UploadTexture uploads a CPU texture for use by scene materials.
func (p *Pipeline) UploadTexture(tex *scene.Texture) error {
	return UploadTexture(tex)
}

// RenderFrame renders one frame of the scene at the given surface size.
// A zero-sized surface (minimized window) submits an empty command
// stream and succeeds. When resizing the targets fails, the previous
// group is still intact, so this frame renders at the previous
// resolution and the resize error is reported after the passes ran.
func (p *Pipeline) RenderFrame(sc *scene.Scene, width, height int) error {
	if sc == nil || sc.Camera == nil {
		return fmt.Errorf("render frame: scene has no camera")
	}
	if width <= 0 || height <= 0 {
		gl.Flush()
		return nil
	}

	resizeErr := p.targets.EnsureSize(width, height)
	if resizeErr != nil && p.targets.Group() == nil {
		return fmt.Errorf("render frame: %w", resizeErr)
	}

	cam := sc.Camera
	cam.UpdateAspectRatio(float32(width), float32(height))

	bounds, _ := sc.Bounds()

	f := &Frame{
		Width:     width,
		Height:    height,
		View:      cam.GetViewMatrix(),
		Proj:      cam.GetProjectionMatrix(),
		InvProj:   cam.GetInverseProjectionMatrix(),
		LightVP:   sc.Light.ViewProjection(bounds.Center(), bounds.Radius()),
		CameraPos: cam.Position,
		Light:     sc.Light,
		Ambient:   sc.Ambient,
		Sky:       sc.SkyColor,
		Instances: sc.Instances(),
		Targets:   p.targets.Group(),
	}

	if err := runPasses(p.passes, f); err != nil {
		return err
	}
	return resizeErr
}

func runPasses(passes []Pass, f *Frame) error {
	for _, pass := range passes {
		if err := pass.Execute(f); err != nil {
			return fmt.Errorf("%s pass: %w", pass.Name(), err)
		}
	}
	return nil
}

// Destroy waits for all in-flight work to retire, then frees every GPU
// resource, so the context can be torn down immediately afterwards.
func (p *Pipeline) Destroy() {
	gl.Finish()
	if p.composite != nil {
		p.composite.Destroy()
		p.composite = nil
	}
	if p.blur != nil {
		p.blur.Destroy()
		p.blur = nil
	}
	if p.ssao != nil {
		p.ssao.Destroy()
		p.ssao = nil
	}
	if p.geometry != nil {
		p.geometry.Destroy()
		p.geometry = nil
	}
	if p.shadow != nil {
		p.shadow.Destroy()
		p.shadow = nil
	}
	if p.targets != nil {
		p.targets.Destroy()
	}
	if p.meshes != nil {
		p.meshes.destroy()
	}
	if p.fsVAO != 0 {
		gl.DeleteVertexArrays(1, &p.fsVAO)
		p.fsVAO = 0
	}
}
