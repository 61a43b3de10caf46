package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssao-pipeline/math"
)

func TestNodeWorldMatrixPropagation(t *testing.T) {
	parent := NewNode("parent")
	parent.SetPosition(math.Vec3{X: 1, Y: 0, Z: 0})

	child := NewNode("child")
	child.SetPosition(math.Vec3{X: 0, Y: 2, Z: 0})
	parent.AddChild(child)

	p := child.GetWorldMatrix().MulVec3(math.Vec3Zero)
	assert.InDelta(t, 1.0, float64(p.X), 1e-5)
	assert.InDelta(t, 2.0, float64(p.Y), 1e-5)
	assert.InDelta(t, 0.0, float64(p.Z), 1e-5)

	// Moving the parent must invalidate the cached child matrix.
	parent.SetPosition(math.Vec3{X: -3, Y: 0, Z: 0})
	p = child.GetWorldMatrix().MulVec3(math.Vec3Zero)
	assert.InDelta(t, -3.0, float64(p.X), 1e-5)
}

func TestInstancesSkipsInvisibleSubtrees(t *testing.T) {
	s := NewScene()

	visible := NewNode("visible")
	visible.Mesh = CreateCube(1)
	s.AddNode(visible)

	hidden := NewNode("hidden")
	hidden.Mesh = CreateCube(1)
	hidden.Visible = false
	hiddenChild := NewNode("hiddenChild")
	hiddenChild.Mesh = CreateCube(1)
	hidden.AddChild(hiddenChild)
	s.AddNode(hidden)

	instances := s.Instances()
	require.Len(t, instances, 1)
	assert.Equal(t, visible.Mesh, instances[0].Mesh)
}

func TestSceneBounds(t *testing.T) {
	s := NewScene()

	_, ok := s.Bounds()
	assert.False(t, ok, "empty scene has no bounds")

	n := NewNode("cube")
	n.Mesh = CreateCube(2)
	n.SetPosition(math.Vec3{X: 10, Y: 0, Z: 0})
	n.SetScale(math.Vec3{X: 2, Y: 2, Z: 2})
	s.AddNode(n)

	box, ok := s.Bounds()
	require.True(t, ok)
	assert.InDelta(t, 8.0, float64(box.Min.X), 1e-4)
	assert.InDelta(t, 12.0, float64(box.Max.X), 1e-4)
	assert.InDelta(t, -2.0, float64(box.Min.Y), 1e-4)
	assert.InDelta(t, 2.0, float64(box.Max.Y), 1e-4)
}

func TestLightViewProjectionCentersScene(t *testing.T) {
	light := NewDirectionalLight(math.Vec3{X: 1, Y: -2, Z: 0.5})
	center := math.Vec3{X: 3, Y: 1, Z: -4}
	radius := float32(6)

	vp := light.ViewProjection(center, radius)
	ndc := vp.MulVec3(center)
	assert.InDelta(t, 0.0, float64(ndc.X), 1e-4)
	assert.InDelta(t, 0.0, float64(ndc.Y), 1e-4)
	assert.InDelta(t, 0.0, float64(ndc.Z), 1e-4)

	// Every point of the bounding sphere must land inside the ortho volume.
	for _, offset := range []math.Vec3{
		{X: radius}, {X: -radius}, {Y: radius}, {Y: -radius}, {Z: radius}, {Z: -radius},
	} {
		p := vp.MulVec3(center.Add(offset))
		assert.LessOrEqual(t, float64(p.X), 1.0+1e-4)
		assert.GreaterOrEqual(t, float64(p.X), -1.0-1e-4)
		assert.LessOrEqual(t, float64(p.Y), 1.0+1e-4)
		assert.GreaterOrEqual(t, float64(p.Y), -1.0-1e-4)
		assert.LessOrEqual(t, float64(p.Z), 1.0+1e-4)
		assert.GreaterOrEqual(t, float64(p.Z), -1.0-1e-4)
	}
}

func TestLightViewProjectionDegenerateDirection(t *testing.T) {
	light := NewDirectionalLight(math.Vec3Zero)
	vp := light.ViewProjection(math.Vec3Zero, 5)

	// Falls back to straight down; must still be a finite matrix.
	p := vp.MulVec3(math.Vec3Zero)
	assert.False(t, p.X != p.X || p.Y != p.Y || p.Z != p.Z, "matrix produced NaN")

	// Straight-down light is parallel to the default up vector, which
	// exercises the alternate up axis.
	down := NewDirectionalLight(math.Vec3{Y: -1})
	p = down.ViewProjection(math.Vec3Zero, 5).MulVec3(math.Vec3Zero)
	assert.False(t, p.X != p.X || p.Y != p.Y || p.Z != p.Z, "matrix produced NaN")
}

func TestCameraLookAt(t *testing.T) {
	cam := NewCamera(1.0472, 16.0/9.0, 0.1, 100)
	cam.SetPosition(math.Vec3{X: 0, Y: 0, Z: 5})
	cam.LookAt(math.Vec3Zero, math.Vec3Up)

	fwd := cam.GetForward()
	assert.InDelta(t, 0.0, float64(fwd.X), 1e-5)
	assert.InDelta(t, 0.0, float64(fwd.Y), 1e-5)
	assert.InDelta(t, -1.0, float64(fwd.Z), 1e-5)

	// The view matrix places the target straight ahead on the -Z axis.
	viewTarget := cam.GetViewMatrix().MulVec3(math.Vec3Zero)
	assert.InDelta(t, 0.0, float64(viewTarget.X), 1e-5)
	assert.InDelta(t, 0.0, float64(viewTarget.Y), 1e-5)
	assert.InDelta(t, -5.0, float64(viewTarget.Z), 1e-5)
}

func TestMeshLocalAABB(t *testing.T) {
	m := CreateCube(2)
	require.True(t, m.HasLocalAABB)
	assert.Equal(t, math.Vec3{X: -1, Y: -1, Z: -1}, m.LocalAABB.Min)
	assert.Equal(t, math.Vec3One, m.LocalAABB.Max)
	assert.InDelta(t, 1.7320508, float64(m.LocalAABB.Radius()), 1e-4)
}
