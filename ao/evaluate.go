package ao

import (
	"github.com/chewxy/math32"

	"ssao-pipeline/math"
)

// Surface is a CPU-side stand-in for the G-buffer inputs of the SSAO
// pass: a window-space depth buffer in [0,1] and a view-space normal
// buffer, both row-major at the same resolution.
type Surface struct {
	Width  int
	Height int
	Depth  []float32
	Normal []math.Vec3
}

// NewSurface allocates a background surface: depth 1 (far plane)
// everywhere, zero normals.
func NewSurface(width, height int) *Surface {
	s := &Surface{
		Width:  width,
		Height: height,
		Depth:  make([]float32, width*height),
		Normal: make([]math.Vec3, width*height),
	}
	for i := range s.Depth {
		s.Depth[i] = 1
	}
	return s
}

func (s *Surface) Set(x, y int, depth float32, normal math.Vec3) {
	i := y*s.Width + x
	s.Depth[i] = depth
	s.Normal[i] = normal
}

// depthAt samples the depth buffer at a UV with nearest filtering and
// clamp-to-edge addressing, matching the GPU sampler state.
func (s *Surface) depthAt(u, v float32) float32 {
	x := int(u * float32(s.Width))
	y := int(v * float32(s.Height))
	if x < 0 {
		x = 0
	}
	if x >= s.Width {
		x = s.Width - 1
	}
	if y < 0 {
		y = 0
	}
	if y >= s.Height {
		y = s.Height - 1
	}
	return s.Depth[y*s.Width+x]
}

// Params are the per-frame inputs of the occlusion estimate.
type Params struct {
	Proj    math.Mat4
	InvProj math.Mat4
	Radius  float32
	Bias    float32
}

const backgroundDepth = 0.9999

// viewPos reconstructs the view-space position for a UV and its stored
// depth through the inverse projection matrix.
func viewPos(s *Surface, p *Params, u, v float32) math.Vec3 {
	d := s.depthAt(u, v)*2 - 1
	ndc := math.Vec4{X: u*2 - 1, Y: v*2 - 1, Z: d, W: 1}
	return p.InvProj.MulVec(ndc).ToVec3DivW()
}

func smoothstep(x float32) float32 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	return x * x * (3 - 2*x)
}

// Evaluate computes the visibility of one pixel: 1 = fully lit,
// 0 = fully occluded. It is the reference implementation of the GPU
// SSAO fragment program and is guaranteed to return a value in [0,1]
// for arbitrary surface content, including degenerate zero normals.
func (k *Kernel) Evaluate(s *Surface, p *Params, x, y int) float32 {
	u := (float32(x) + 0.5) / float32(s.Width)
	v := (float32(y) + 0.5) / float32(s.Height)

	if s.depthAt(u, v) >= backgroundDepth {
		return 1
	}

	pos := viewPos(s, p, u, v)

	n := s.Normal[y*s.Width+x]
	if n.LengthSqr() < 1e-10 {
		// Degenerate normal: face the camera so the hemisphere still
		// opens toward the viewer.
		n = math.Vec3Front
	}
	n = n.Normalize()

	// Per-pixel rotation from the wrapped noise tile, then Gram-Schmidt
	// to an orthonormal basis aligned with the surface normal.
	rot := k.NoiseAt(x, y)
	rnd := math.Vec3{X: rot.X, Y: rot.Y, Z: 0}
	tangent := rnd.Sub(n.Mul(rnd.Dot(n)))
	if tangent.LengthSqr() < 1e-10 {
		// Noise vector parallel to the normal: any orthogonal axis works.
		tangent = math.Vec3Up.Cross(n)
		if tangent.LengthSqr() < 1e-10 {
			tangent = math.Vec3Right.Cross(n)
		}
	}
	tangent = tangent.Normalize()
	bitangent := n.Cross(tangent)

	occluded := float32(0)
	for i := 0; i < KernelSize; i++ {
		smp := k.Samples[i]
		dir := tangent.Mul(smp.X).Add(bitangent.Mul(smp.Y)).Add(n.Mul(smp.Z))
		candidate := pos.Add(dir.Mul(p.Radius))

		// Project the candidate occluder position back to screen space.
		clip := p.Proj.MulVec(candidate.ToVec4(1))
		if clip.W <= 0 {
			continue
		}
		su := clamp(clip.X/clip.W*0.5+0.5, 0.001, 0.999)
		sv := clamp(clip.Y/clip.W*0.5+0.5, 0.001, 0.999)

		geoZ := viewPos(s, p, su, sv).Z

		// Reject occlusion from geometry far outside the sampling radius
		// so distant silhouettes do not darken unrelated surfaces.
		depthDelta := math32.Abs(pos.Z - geoZ)
		if depthDelta < 0.0001 {
			depthDelta = 0.0001
		}
		rangeCheck := smoothstep(p.Radius / depthDelta)

		// View space looks down -Z: larger z means closer to the camera.
		if geoZ >= candidate.Z+p.Bias {
			occluded += rangeCheck
		}
	}

	return clamp(1-occluded/KernelSize, 0, 1)
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
