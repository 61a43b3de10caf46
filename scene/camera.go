package scene

import (
	"github.com/chewxy/math32"

	"ssao-pipeline/math"
)

// Camera represents a view camera.
// Rotation is the camera's world orientation; the camera looks down
// its local -Z axis.
type Camera struct {
	Position    math.Vec3
	Rotation    math.Quaternion
	FOV         float32
	AspectRatio float32
	NearPlane   float32
	FarPlane    float32

	// Cached matrices
	viewMatrix     math.Mat4
	projMatrix     math.Mat4
	invProjMatrix  math.Mat4
	viewProjMatrix math.Mat4
	dirty          bool
}

func NewCamera(fov, aspectRatio, nearPlane, farPlane float32) *Camera {
	return &Camera{
		Position:    math.Vec3Zero,
		Rotation:    math.QuaternionIdentity(),
		FOV:         fov,
		AspectRatio: aspectRatio,
		NearPlane:   nearPlane,
		FarPlane:    farPlane,
		dirty:       true,
	}
}

func (c *Camera) UpdateAspectRatio(width, height float32) {
	if height > 0 {
		c.AspectRatio = width / height
		c.dirty = true
	}
}

func (c *Camera) SetPosition(pos math.Vec3) {
	c.Position = pos
	c.dirty = true
}

func (c *Camera) SetRotation(rot math.Quaternion) {
	c.Rotation = rot
	c.dirty = true
}

func (c *Camera) Translate(delta math.Vec3) {
	c.Position = c.Position.Add(delta)
	c.dirty = true
}

func (c *Camera) Rotate(axis math.Vec3, angle float32) {
	rotation := math.QuaternionFromAxisAngle(axis, angle)
	c.Rotation = c.Rotation.Mul(rotation).Normalize()
	c.dirty = true
}

func (c *Camera) LookAt(target, up math.Vec3) {
	c.Rotation = c.quaternionFromLookAt(target, up)
	c.dirty = true
}

func (c *Camera) GetViewMatrix() math.Mat4 {
	if c.dirty {
		c.updateMatrices()
	}
	return c.viewMatrix
}

func (c *Camera) GetProjectionMatrix() math.Mat4 {
	if c.dirty {
		c.updateMatrices()
	}
	return c.projMatrix
}

// GetInverseProjectionMatrix returns the cached inverse of the
// projection matrix, used to reconstruct view-space positions from
// window depth.
func (c *Camera) GetInverseProjectionMatrix() math.Mat4 {
	if c.dirty {
		c.updateMatrices()
	}
	return c.invProjMatrix
}

func (c *Camera) GetViewProjectionMatrix() math.Mat4 {
	if c.dirty {
		c.updateMatrices()
	}
	return c.viewProjMatrix
}

func (c *Camera) GetForward() math.Vec3 {
	return c.Rotation.RotateVector(math.Vec3Front.Negate())
}

func (c *Camera) GetRight() math.Vec3 {
	return c.Rotation.RotateVector(math.Vec3Right)
}

func (c *Camera) GetUp() math.Vec3 {
	return c.Rotation.RotateVector(math.Vec3Up)
}

func (c *Camera) updateMatrices() {
	// The view matrix is the inverse of the camera's world transform.
	rotationMatrix := c.Rotation.Conjugate().ToMat4()
	translationMatrix := math.Mat4Translation(c.Position.Negate())
	c.viewMatrix = rotationMatrix.Mul(translationMatrix)

	c.projMatrix = math.Mat4Perspective(c.FOV, c.AspectRatio, c.NearPlane, c.FarPlane)
	c.invProjMatrix = c.projMatrix.Inverse()
	c.viewProjMatrix = c.projMatrix.Mul(c.viewMatrix)

	c.dirty = false
}

func (c *Camera) quaternionFromLookAt(target, up math.Vec3) math.Quaternion {
	forward := target.Sub(c.Position).Normalize()
	right := forward.Cross(up).Normalize()
	upNew := right.Cross(forward)

	// Convert rotation matrix to quaternion
	m := math.Mat4{
		{right.X, upNew.X, -forward.X, 0},
		{right.Y, upNew.Y, -forward.Y, 0},
		{right.Z, upNew.Z, -forward.Z, 0},
		{0, 0, 0, 1},
	}

	trace := m[0][0] + m[1][1] + m[2][2]

	var q math.Quaternion
	if trace > 0 {
		s := 0.5 / math32.Sqrt(trace+1)
		q.W = 0.25 / s
		q.X = (m[2][1] - m[1][2]) * s
		q.Y = (m[0][2] - m[2][0]) * s
		q.Z = (m[1][0] - m[0][1]) * s
	} else if m[0][0] > m[1][1] && m[0][0] > m[2][2] {
		s := 2 * math32.Sqrt(1+m[0][0]-m[1][1]-m[2][2])
		q.W = (m[2][1] - m[1][2]) / s
		q.X = 0.25 * s
		q.Y = (m[0][1] + m[1][0]) / s
		q.Z = (m[0][2] + m[2][0]) / s
	} else if m[1][1] > m[2][2] {
		s := 2 * math32.Sqrt(1+m[1][1]-m[0][0]-m[2][2])
		q.W = (m[0][2] - m[2][0]) / s
		q.X = (m[0][1] + m[1][0]) / s
		q.Y = 0.25 * s
		q.Z = (m[1][2] + m[2][1]) / s
	} else {
		s := 2 * math32.Sqrt(1+m[2][2]-m[0][0]-m[1][1])
		q.W = (m[1][0] - m[0][1]) / s
		q.X = (m[0][2] + m[2][0]) / s
		q.Y = (m[1][2] + m[2][1]) / s
		q.Z = 0.25 * s
	}

	return q.Normalize()
}
