package ao

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chewxy/math32"

	"ssao-pipeline/math"
)

const (
	testRes  = 96
	testFovY = math32.Pi / 3
)

func testParams(radius, bias float32) *Params {
	proj := math.Mat4Perspective(testFovY, 1, 0.1, 100)
	return &Params{
		Proj:    proj,
		InvProj: proj.Inverse(),
		Radius:  radius,
		Bias:    bias,
	}
}

// depthOf converts a view-space z to the window depth the projection
// writes for it.
func depthOf(proj math.Mat4, z float32) float32 {
	clip := proj.MulVec(math.Vec4{Z: z, W: 1})
	return clip.Z/clip.W*0.5 + 0.5
}

// flatSurface fills the whole buffer with a camera-facing plane at the
// given view-space depth.
func flatSurface(p *Params, z float32) *Surface {
	s := NewSurface(testRes, testRes)
	d := depthOf(p.Proj, z)
	for y := 0; y < testRes; y++ {
		for x := 0; x < testRes; x++ {
			s.Set(x, y, d, math.Vec3Front)
		}
	}
	return s
}

// cornerSurface builds a concave corner: a floor plane y=-2 meeting a
// back wall z=-10, seen from a camera at the origin looking down -Z.
func cornerSurface(p *Params) *Surface {
	s := NewSurface(testRes, testRes)
	tanHalf := math32.Tan(testFovY / 2)
	for y := 0; y < testRes; y++ {
		for x := 0; x < testRes; x++ {
			dy := ((float32(y)+0.5)/testRes*2 - 1) * tanHalf
			if dy < 0 {
				if t := 2 / -dy; t < 10 {
					s.Set(x, y, depthOf(p.Proj, -t), math.Vec3Up)
					continue
				}
			}
			s.Set(x, y, depthOf(p.Proj, -10), math.Vec3Front)
		}
	}
	return s
}

func TestEvaluateBackgroundIsLit(t *testing.T) {
	p := testParams(0.5, 0.025)
	s := NewSurface(testRes, testRes) // depth 1 everywhere

	k := Generate(42)
	assert.Equal(t, float32(1), k.Evaluate(s, p, testRes/2, testRes/2))
}

func TestEvaluateFlatPlaneUnoccluded(t *testing.T) {
	p := testParams(0.5, 0.025)
	s := flatSurface(p, -5)
	k := Generate(42)

	for _, px := range [][2]int{{48, 48}, {10, 10}, {90, 48}, {48, 4}} {
		vis := k.Evaluate(s, p, px[0], px[1])
		assert.InDelta(t, 1.0, float64(vis), 1e-3, "pixel %v", px)
	}
}

func TestEvaluateConcaveCornerDarker(t *testing.T) {
	p := testParams(1.0, 0.025)
	s := cornerSurface(p)
	k := Generate(42)

	// The floor/wall junction projects to the row where the floor ray
	// grazes depth 10; pixels well away from it on either surface stay
	// close to fully lit.
	corner := k.Evaluate(s, p, 48, 31)
	floor := k.Evaluate(s, p, 48, 8)
	wall := k.Evaluate(s, p, 48, 80)

	assert.Greater(t, floor, float32(0.9), "open floor should be nearly unoccluded")
	assert.Greater(t, wall, float32(0.9), "open wall should be nearly unoccluded")
	assert.Less(t, corner, floor-0.1, "corner must be darker than the open floor")
	assert.Less(t, corner, wall-0.1, "corner must be darker than the open wall")
}

func TestEvaluateRangeCheckSuppressesHalo(t *testing.T) {
	p := testParams(2.0, 0.025)
	s := flatSurface(p, -50)

	// A small foreground square floats far in front of the plane. Its
	// silhouette must not darken the distant background around it.
	near := depthOf(p.Proj, -2)
	for y := 40; y < 56; y++ {
		for x := 40; x < 56; x++ {
			s.Set(x, y, near, math.Vec3Front)
		}
	}

	k := Generate(42)
	vis := k.Evaluate(s, p, 57, 48)
	assert.Greater(t, vis, float32(0.9),
		"background next to a distant silhouette should stay lit")
}

func TestEvaluateBoxOverGround(t *testing.T) {
	p := testParams(3.0, 0.025)
	s := flatSurface(p, -10) // ground seen top-down

	// Box top two units above the ground, covering the central region.
	top := depthOf(p.Proj, -8)
	for y := 32; y < 64; y++ {
		for x := 32; x < 64; x++ {
			s.Set(x, y, top, math.Vec3Front)
		}
	}

	k := Generate(42)
	nearEdge := k.Evaluate(s, p, 66, 48)
	farAway := k.Evaluate(s, p, 92, 48)

	assert.Greater(t, farAway, float32(0.9))
	assert.Less(t, nearEdge, farAway-0.1,
		"ground beside the box must be darker than open ground")
}

func TestEvaluateClampedForArbitraryInput(t *testing.T) {
	p := testParams(1.5, 0.025)
	s := NewSurface(32, 32)

	// Hash-noise depths with zero normals exercise the degenerate
	// normal fallback; every result must still land in [0,1].
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			d := float32(pcgHash(uint32(y*32+x))>>8) / float32(1<<24)
			s.Set(x, y, d, math.Vec3Zero)
		}
	}

	k := Generate(7)
	for y := 0; y < 32; y += 3 {
		for x := 0; x < 32; x += 3 {
			vis := k.Evaluate(s, p, x, y)
			require.GreaterOrEqual(t, vis, float32(0), "pixel (%d,%d)", x, y)
			require.LessOrEqual(t, vis, float32(1), "pixel (%d,%d)", x, y)
		}
	}
}

func BenchmarkEvaluate(b *testing.B) {
	p := testParams(1.0, 0.025)
	s := cornerSurface(p)
	k := Generate(42)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = k.Evaluate(s, p, 48, 31)
	}
}
