// Package ao holds the CPU side of the screen-space ambient occlusion
// pass: deterministic hemisphere-kernel generation and a reference
// evaluator of the per-pixel sampling algorithm. The GPU pass in
// internal/opengl uploads the kernel once and runs the same algorithm
// in a fragment program.
package ao

import (
	"ssao-pipeline/math"
)

const (
	// KernelSize is the number of hemisphere samples per pixel.
	KernelSize = 64
	// NoiseSize is the edge length of the square rotation-noise tile.
	NoiseSize = 4

	// Samples shorter than this are useless as occlusion probes.
	minSampleScale = 0.05
)

// Kernel is the immutable sampling data generated once at startup:
// KernelSize hemisphere sample vectors (z >= 0, length in (0,1]) and a
// NoiseSize x NoiseSize tile of unit 2D rotation vectors.
type Kernel struct {
	Samples [KernelSize]math.Vec3
	Noise   [NoiseSize * NoiseSize]math.Vec2
}

// pcgHash is a counter-based integer hash (PCG output permutation).
// Unlike math/rand it has no hidden stream state, so the kernel is a
// pure function of the seed and byte-identical across platforms.
func pcgHash(v uint32) uint32 {
	state := v*747796405 + 2891336453
	word := ((state >> ((state >> 28) + 4)) ^ state) * 277803737
	return (word >> 22) ^ word
}

// hashStream draws floats in [0,1) by hashing an incrementing counter.
type hashStream struct {
	seed uint32
	ctr  uint32
}

func (h *hashStream) next() float32 {
	h.ctr++
	// Top 24 bits so the float conversion is exact.
	return float32(pcgHash(h.seed^pcgHash(h.ctr))>>8) / float32(1<<24)
}

func (h *hashStream) nextSigned() float32 {
	return h.next()*2 - 1
}

// Generate builds the sample kernel and noise tile for the given seed.
// Identical seeds produce byte-identical kernels; the result is never
// regenerated per frame.
func Generate(seed uint32) Kernel {
	rng := hashStream{seed: seed}
	var k Kernel

	for i := 0; i < KernelSize; i++ {
		dir := math.Vec3{
			X: rng.nextSigned(),
			Y: rng.nextSigned(),
			Z: rng.next(), // hemisphere: non-negative z only
		}
		u := rng.next()

		if dir.LengthSqr() == 0 {
			dir = math.Vec3Front
		}
		dir = dir.Normalize()

		// Quadratic falloff clusters samples near the origin for better
		// contact occlusion; the extra random factor spreads them through
		// the hemisphere volume instead of its shell.
		t := float32(i) / KernelSize
		scale := (0.1 + 0.9*t*t) * u
		if scale < minSampleScale {
			scale = minSampleScale
		}

		k.Samples[i] = dir.Mul(scale)
	}

	for i := 0; i < NoiseSize*NoiseSize; i++ {
		rot := math.Vec2{X: rng.nextSigned(), Y: rng.nextSigned()}
		if rot.Length() == 0 {
			rot = math.Vec2{X: 1, Y: 0}
		}
		k.Noise[i] = rot.Normalize()
	}

	return k
}

// NoiseAt returns the rotation vector for a pixel, with the tile
// wrapped across the screen.
func (k *Kernel) NoiseAt(x, y int) math.Vec2 {
	if x < 0 {
		x = -x
	}
	if y < 0 {
		y = -y
	}
	return k.Noise[(y%NoiseSize)*NoiseSize+(x%NoiseSize)]
}
