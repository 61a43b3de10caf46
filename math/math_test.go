package math

import (
	"testing"

	"github.com/chewxy/math32"
)

func TestVec3Operations(t *testing.T) {
	v1 := NewVec3(1, 2, 3)
	v2 := NewVec3(4, 5, 6)

	result := v1.Add(v2)
	expected := NewVec3(5, 7, 9)
	if result != expected {
		t.Errorf("Add: expected %v, got %v", expected, result)
	}

	result = v2.Sub(v1)
	expected = NewVec3(3, 3, 3)
	if result != expected {
		t.Errorf("Sub: expected %v, got %v", expected, result)
	}

	result = v1.Mul(2)
	expected = NewVec3(2, 4, 6)
	if result != expected {
		t.Errorf("Mul: expected %v, got %v", expected, result)
	}

	dot := v1.Dot(v2)
	if dot != 32 {
		t.Errorf("Dot: expected 32, got %v", dot)
	}

	// Right x Up = Front in a right-handed system
	cross := Vec3Right.Cross(Vec3Up)
	if cross != Vec3Front {
		t.Errorf("Cross: expected %v, got %v", Vec3Front, cross)
	}
}

func TestVec3Normalize(t *testing.T) {
	v := NewVec3(3, 0, 0)
	normalized := v.Normalize()
	expected := NewVec3(1, 0, 0)

	if normalized != expected {
		t.Errorf("Normalize: expected %v, got %v", expected, normalized)
	}

	length := NewVec3(1, 2, 3).Normalize().Length()
	if math32.Abs(length-1) > 0.0001 {
		t.Errorf("Normalize: expected length 1, got %v", length)
	}

	// Zero vector stays zero rather than producing NaN
	if Vec3Zero.Normalize() != Vec3Zero {
		t.Error("Normalize: expected zero vector to stay zero")
	}
}

func TestMat4Identity(t *testing.T) {
	m := Mat4Identity()

	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			expected := float32(0)
			if i == j {
				expected = 1
			}
			if m[i][j] != expected {
				t.Errorf("Identity: expected [%d][%d] = %v, got %v", i, j, expected, m[i][j])
			}
		}
	}
}

func TestMat4Multiplication(t *testing.T) {
	result := Mat4Identity().Mul(Mat4Identity())

	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			expected := float32(0)
			if i == j {
				expected = 1
			}
			if result[i][j] != expected {
				t.Errorf("Mul: expected [%d][%d] = %v, got %v", i, j, expected, result[i][j])
			}
		}
	}
}

func TestMat4Translation(t *testing.T) {
	translation := NewVec3(1, 2, 3)
	m := Mat4Translation(translation)

	if m[3][0] != 1 || m[3][1] != 2 || m[3][2] != 3 {
		t.Errorf("Translation: expected (1,2,3), got (%v,%v,%v)", m[3][0], m[3][1], m[3][2])
	}

	point := NewVec4(0, 0, 0, 1)
	result := point.MulMat(m)
	if result.ToVec3() != translation {
		t.Errorf("Translation: expected %v, got %v", translation, result.ToVec3())
	}
}

func TestMat4Inverse(t *testing.T) {
	// Round-trip a composite transform: M * M^-1 should be identity.
	m := Mat4Translation(NewVec3(2, -3, 5)).
		Mul(Mat4RotationY(0.7)).
		Mul(Mat4Scale(NewVec3(2, 2, 2)))

	round := m.Mul(m.Inverse())
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			expected := float32(0)
			if i == j {
				expected = 1
			}
			if math32.Abs(round[i][j]-expected) > 0.0001 {
				t.Errorf("Inverse round-trip: [%d][%d] = %v, want %v", i, j, round[i][j], expected)
			}
		}
	}
}

func TestMat4InverseProjection(t *testing.T) {
	// Project a view-space point to clip space and back through the
	// inverse projection; this is the SSAO position-reconstruction path.
	proj := Mat4Perspective(math32.Pi/4, 16.0/9.0, 0.1, 100.0)
	invProj := proj.Inverse()

	p := NewVec3(1.5, -0.75, -10)
	clip := proj.MulVec(p.ToVec4(1))
	ndc := clip.ToVec3DivW()
	back := invProj.MulVec3(ndc)

	if back.Distance(p) > 0.001 {
		t.Errorf("Inverse projection: expected %v, got %v", p, back)
	}
}

func TestMat4InverseSingular(t *testing.T) {
	if Mat4Zero().Inverse() != Mat4Identity() {
		t.Error("Inverse: expected identity fallback for singular matrix")
	}
}

func TestMat4Perspective(t *testing.T) {
	m := Mat4Perspective(math32.Pi/4, 16.0/9.0, 0.1, 100.0)

	if m[0][0] == 0 {
		t.Error("Perspective: expected non-zero X scale")
	}
	if m[1][1] == 0 {
		t.Error("Perspective: expected non-zero Y scale")
	}
}

func TestMat4Orthographic(t *testing.T) {
	m := Mat4Orthographic(-10, 10, -10, 10, -10, 30)

	// Centre of the volume maps to NDC origin on X/Y
	p := m.MulVec3(NewVec3(0, 0, -10))
	if math32.Abs(p.X) > 0.0001 || math32.Abs(p.Y) > 0.0001 {
		t.Errorf("Orthographic: expected centre to map to origin, got (%v,%v)", p.X, p.Y)
	}
}

func TestMat4LookAt(t *testing.T) {
	eye := NewVec3(0, 0, 5)
	m := Mat4LookAt(eye, NewVec3(0, 0, 0), Vec3Up)

	result := m.MulVec(eye.ToVec4(1))
	if math32.Abs(result.X) > 0.001 ||
		math32.Abs(result.Y) > 0.001 ||
		math32.Abs(result.Z) > 0.001 {
		t.Errorf("LookAt: expected eye to transform to origin, got (%v,%v,%v)", result.X, result.Y, result.Z)
	}
}

func TestQuaternionRotation(t *testing.T) {
	// 90 degrees around Y rotates +X to -Z
	q := QuaternionFromAxisAngle(Vec3Up, math32.Pi/2)
	result := q.RotateVector(Vec3Right)

	tolerance := float32(0.001)
	if math32.Abs(result.X) > tolerance ||
		math32.Abs(result.Y) > tolerance ||
		math32.Abs(result.Z+1) > tolerance {
		t.Errorf("Quaternion rotation: expected approximately (0,0,-1), got (%v,%v,%v)", result.X, result.Y, result.Z)
	}
}

func BenchmarkMat4Mul(b *testing.B) {
	m1 := Mat4Identity()
	m2 := Mat4Identity()
	for i := 0; i < b.N; i++ {
		_ = m1.Mul(m2)
	}
}

func BenchmarkMat4Inverse(b *testing.B) {
	m := Mat4Perspective(math32.Pi/4, 16.0/9.0, 0.1, 100.0)
	for i := 0; i < b.N; i++ {
		_ = m.Inverse()
	}
}
