package scene

import (
	"github.com/chewxy/math32"

	"ssao-pipeline/core"
	"ssao-pipeline/math"
)

// DirectionalLight is the single shadow-casting light of a scene.
type DirectionalLight struct {
	Direction math.Vec3 // world-space direction the light travels in
	Color     core.Color
	Intensity float32
}

func NewDirectionalLight(direction math.Vec3) *DirectionalLight {
	return &DirectionalLight{
		Direction: direction,
		Color:     core.ColorWhite,
		Intensity: 1,
	}
}

// ViewProjection builds the orthographic light matrix covering a sphere
// around center with the given radius. A zero direction falls back to
// straight down so the shadow pass always has a valid matrix.
func (l *DirectionalLight) ViewProjection(center math.Vec3, radius float32) math.Mat4 {
	dir := l.Direction
	if dir.LengthSqr() < 1e-8 {
		dir = math.Vec3{X: 0, Y: -1, Z: 0}
	}
	dir = dir.Normalize()

	if radius < 1 {
		radius = 1
	}

	// Place the shadow camera behind the scene along the light direction.
	eye := center.Sub(dir.Mul(radius * 2))

	// Choose an up vector that is not parallel to the light direction.
	up := math.Vec3Up
	if math32.Abs(dir.Dot(math.Vec3Up)) > 0.999 {
		up = math.Vec3{X: 0, Y: 0, Z: 1}
	}

	view := math.Mat4LookAt(eye, center, up)
	proj := math.Mat4Orthographic(
		-radius, radius, -radius, radius,
		radius, radius*3,
	)
	return proj.Mul(view)
}
