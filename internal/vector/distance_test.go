package vector

import (
	"math"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDotProduct(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{4, 5, 6}
	assert.Equal(t, float32(1*4+2*5+3*6), DotProduct(a, b))
}

func TestDotProductUnrolledMatchesScalar(t *testing.T) {
	// 37 is not a multiple of 4 and exceeds the n<8 scalar fast path,
	// exercising both the unrolled loop and its scalar remainder.
	n := 37
	a := make([]float32, n)
	b := make([]float32, n)
	var want float32
	for i := range a {
		a[i] = float32(i) * 0.5
		b[i] = float32(n-i) * 0.25
		want += a[i] * b[i]
	}
	assert.InDelta(t, want, DotProduct(a, b), 1e-3)
}

func TestDotProductMismatchedLengths(t *testing.T) {
	assert.Equal(t, float32(0), DotProduct([]float32{1, 2}, []float32{1, 2, 3}))
}

func TestNormalizeL2UnitNorm(t *testing.T) {
	v := []float32{3, 4}
	NormalizeL2(v)
	norm := math.Hypot(float64(v[0]), float64(v[1]))
	assert.InDelta(t, 1.0, norm, 1e-6)
}

func TestNormalizeL2ZeroVectorUnchanged(t *testing.T) {
	v := []float32{0, 0, 0}
	NormalizeL2(v)
	assert.Equal(t, []float32{0, 0, 0}, v)
}

func TestNormalizedDoesNotMutateInput(t *testing.T) {
	v := []float32{3, 4}
	out := Normalized(v)
	require.Equal(t, []float32{3, 4}, v, "Normalized must not mutate its input")
	assert.NotEqual(t, v, out)
}

func TestCosineDistanceOfNormalizedSelfIsZero(t *testing.T) {
	v := Normalized([]float32{1, 2, 3, 4})
	assert.InDelta(t, 0, CosineDistance(v, v), 1e-5)
}

// Property: for any non-degenerate vector, normalizing twice is the
// same as normalizing once (idempotence of projection onto the unit
// sphere).
func TestNormalizeIdempotent(t *testing.T) {
	f := func(raw []float32) bool {
		if len(raw) == 0 {
			return true
		}
		once := Normalized(raw)
		twice := Normalized(once)
		for i := range once {
			if math.Abs(float64(once[i]-twice[i])) > 1e-3 {
				return false
			}
		}
		return true
	}
	require.NoError(t, quick.Check(f, &quick.Config{MaxCount: 100}))
}
