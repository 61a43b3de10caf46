package opengl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssao-pipeline/scene"
)

type recordingPass struct {
	name string
	log  *[]string
	err  error
	last *Frame
}

func (p *recordingPass) Name() string { return p.name }

func (p *recordingPass) Execute(f *Frame) error {
	*p.log = append(*p.log, p.name)
	p.last = f
	return p.err
}

func TestRunPassesInOrder(t *testing.T) {
	var log []string
	passes := []Pass{
		&recordingPass{name: "shadow", log: &log},
		&recordingPass{name: "geometry", log: &log},
		&recordingPass{name: "ssao", log: &log},
		&recordingPass{name: "blur", log: &log},
		&recordingPass{name: "composite", log: &log},
	}

	err := runPasses(passes, &Frame{})
	require.NoError(t, err)
	assert.Equal(t, []string{"shadow", "geometry", "ssao", "blur", "composite"}, log)
}

func TestRunPassesStopsOnError(t *testing.T) {
	var log []string
	boom := errors.New("framebuffer incomplete")
	passes := []Pass{
		&recordingPass{name: "shadow", log: &log},
		&recordingPass{name: "geometry", log: &log, err: boom},
		&recordingPass{name: "ssao", log: &log},
	}

	err := runPasses(passes, &Frame{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "geometry pass:")
	assert.Equal(t, []string{"shadow", "geometry"}, log)
}

func TestRenderFrameKeepsRenderingWhenResizeFails(t *testing.T) {
	var log []string
	factory := &fakeFactory{}
	pass := &recordingPass{name: "geometry", log: &log}
	p := &Pipeline{
		targets: NewTargetSet(factory.create),
		passes:  []Pass{pass},
	}

	sc := scene.NewScene()
	sc.SetCamera(scene.NewCamera(1.0, 1.0, 0.1, 100))

	require.NoError(t, p.RenderFrame(sc, 800, 600))
	require.Len(t, log, 1)

	// Target creation starts failing: the frame must still render at
	// the previous resolution, with the resize error reported.
	factory.fail = true
	err := p.RenderFrame(sc, 1920, 1080)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1920x1080")

	require.Len(t, log, 2, "passes must run even when the resize fails")
	require.NotNil(t, pass.last.Targets)
	assert.Equal(t, 800, pass.last.Targets.Width)
	assert.Equal(t, 600, pass.last.Targets.Height)
	assert.Equal(t, 0, factory.released)
}

func TestRenderFrameFailsWithoutAnyTargets(t *testing.T) {
	var log []string
	factory := &fakeFactory{fail: true}
	p := &Pipeline{
		targets: NewTargetSet(factory.create),
		passes:  []Pass{&recordingPass{name: "geometry", log: &log}},
	}

	sc := scene.NewScene()
	sc.SetCamera(scene.NewCamera(1.0, 1.0, 0.1, 100))

	err := p.RenderFrame(sc, 800, 600)
	require.Error(t, err)
	assert.Empty(t, log, "no pass can run without render targets")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 2048, cfg.ShadowMapSize)
	assert.InDelta(t, 0.5, cfg.Radius, 1e-6)
	assert.InDelta(t, 0.025, cfg.Bias, 1e-6)
}
