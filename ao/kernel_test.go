package ao

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateDeterministic(t *testing.T) {
	a := Generate(42)
	b := Generate(42)
	assert.Equal(t, a, b, "same seed must produce byte-identical kernels")

	c := Generate(43)
	assert.NotEqual(t, a, c, "different seeds should produce different kernels")
}

func TestKernelSamplesInHemisphere(t *testing.T) {
	k := Generate(42)

	for i, s := range k.Samples {
		assert.GreaterOrEqual(t, s.Z, float32(0), "sample %d: z must be non-negative", i)

		length := s.Length()
		assert.GreaterOrEqual(t, length, float32(minSampleScale)-1e-5,
			"sample %d: scale clamped to the minimum", i)
		assert.LessOrEqual(t, length, float32(1)+1e-5,
			"sample %d: samples stay inside the unit hemisphere", i)
	}
}

func TestKernelNoiseUnitLength(t *testing.T) {
	k := Generate(7)

	for i, n := range k.Noise {
		assert.InDelta(t, 1.0, float64(n.Length()), 1e-5, "noise entry %d", i)
	}
}

func TestKernelFalloffMonotone(t *testing.T) {
	// The quadratic falloff should show up as non-decreasing mean
	// magnitude when samples are binned by index.
	k := Generate(42)

	const bins = 4
	const perBin = KernelSize / bins
	var means [bins]float32
	for b := 0; b < bins; b++ {
		sum := float32(0)
		for i := 0; i < perBin; i++ {
			sum += k.Samples[b*perBin+i].Length()
		}
		means[b] = sum / perBin
	}

	for b := 1; b < bins; b++ {
		assert.GreaterOrEqual(t, means[b], means[b-1],
			"bin %d mean magnitude should not decrease", b)
	}
}

func TestNoiseAtWraps(t *testing.T) {
	k := Generate(1)

	require.Equal(t, k.NoiseAt(0, 0), k.NoiseAt(NoiseSize, NoiseSize))
	require.Equal(t, k.NoiseAt(1, 2), k.NoiseAt(1+3*NoiseSize, 2+5*NoiseSize))
}

func TestHashStreamRange(t *testing.T) {
	rng := hashStream{seed: 99}
	for i := 0; i < 1000; i++ {
		v := rng.next()
		require.GreaterOrEqual(t, v, float32(0))
		require.Less(t, v, float32(1))
	}
}

func BenchmarkGenerate(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = Generate(uint32(i))
	}
}

// Guard against accidental float64 drift in the falloff computation.
func TestKernelScaleEnvelope(t *testing.T) {
	k := Generate(42)
	for i, s := range k.Samples {
		tt := float32(i) / KernelSize
		envelope := 0.1 + 0.9*tt*tt
		if envelope < minSampleScale {
			envelope = minSampleScale
		}
		assert.LessOrEqual(t, s.Length(), envelope+1e-5,
			"sample %d exceeds its falloff envelope", i)
	}
}
