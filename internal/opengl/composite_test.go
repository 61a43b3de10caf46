package opengl

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ssao-pipeline/core"
)

func TestCompositePixelLit(t *testing.T) {
	lit := core.Color{R: 0.8, G: 0.4, B: 0.2, A: 1}

	out := compositePixel(ModeLit, lit, 0.5)
	assert.InDelta(t, 0.4, float64(out.R), 1e-6)
	assert.InDelta(t, 0.2, float64(out.G), 1e-6)
	assert.InDelta(t, 0.1, float64(out.B), 1e-6)
	assert.Equal(t, float32(1), out.A, "alpha passes through untouched")
}

func TestCompositePixelAOOnly(t *testing.T) {
	lit := core.Color{R: 0.8, G: 0.4, B: 0.2, A: 1}

	out := compositePixel(ModeAOOnly, lit, 0.25)
	assert.Equal(t, core.Color{R: 0.25, G: 0.25, B: 0.25, A: 1}, out)
}

func TestCompositePixelBypass(t *testing.T) {
	lit := core.Color{R: 0.8, G: 0.4, B: 0.2, A: 0.5}

	// Occlusion must have no effect in bypass mode.
	assert.Equal(t, lit, compositePixel(ModeLitNoAO, lit, 0.1))
	assert.Equal(t, lit, compositePixel(ModeLitNoAO, lit, 0.9))
}

func TestCompositePixelClampsOcclusion(t *testing.T) {
	lit := core.Color{R: 1, G: 1, B: 1, A: 1}

	over := compositePixel(ModeLit, lit, 1.5)
	assert.Equal(t, float32(1), over.R, "occlusion above 1 clamps to 1")

	under := compositePixel(ModeLit, lit, -0.5)
	assert.Equal(t, float32(0), under.R, "occlusion below 0 clamps to 0")
}

func TestBayerThreshold(t *testing.T) {
	seen := make(map[float32]bool)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			th := bayerThreshold(x, y)
			assert.Greater(t, th, float32(0))
			assert.Less(t, th, float32(1))
			seen[th] = true
		}
	}
	// All sixteen thresholds are distinct, so the pattern actually dithers.
	assert.Len(t, seen, 16)

	// The matrix tiles with period 4.
	assert.Equal(t, bayerThreshold(1, 2), bayerThreshold(5, 6))
	assert.Equal(t, bayerThreshold(0, 0), bayerThreshold(-4, -4))
}

func TestDisplayModeString(t *testing.T) {
	assert.Equal(t, "lit", ModeLit.String())
	assert.Equal(t, "ao-only", ModeAOOnly.String())
	assert.Equal(t, "lit-no-ao", ModeLitNoAO.String())
}
