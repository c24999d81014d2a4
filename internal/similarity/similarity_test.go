package similarity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosine_SelfSimilarity(t *testing.T) {
	tests := []struct {
		name string
		vec  []float32
	}{
		{"unit axis", []float32{1, 0, 0, 0}},
		{"arbitrary", []float32{0.3, -1.7, 2.4, 0.01, -5}},
		{"tiny values", []float32{1e-4, 2e-4, -3e-4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, 1.0, Cosine(tt.vec, tt.vec), 1e-6)
		})
	}
}

func TestCosine_ZeroVectorDoesNotPanic(t *testing.T) {
	zero := make([]float32, 512)

	sim := Cosine(zero, zero)

	require.False(t, math.IsNaN(sim), "zero vector must not produce NaN")
	assert.Equal(t, 0.0, sim)
}

func TestCosine_OppositeAndOrthogonal(t *testing.T) {
	a := []float32{1, 0}
	assert.InDelta(t, -1.0, Cosine(a, []float32{-1, 0}), 1e-6)
	assert.InDelta(t, 0.0, Cosine(a, []float32{0, 1}), 1e-6)
}

func TestCosine_MismatchedLength(t *testing.T) {
	assert.Equal(t, 0.0, Cosine([]float32{1, 2}, []float32{1, 2, 3}))
	assert.Equal(t, 0.0, Cosine(nil, nil))
}

func TestCosine_ScaleInvariant(t *testing.T) {
	a := []float32{0.5, -0.25, 1.5}
	b := []float32{2, -1, 6} // a * 4

	assert.InDelta(t, 1.0, Cosine(a, b), 1e-6)
}

func TestCosineAll_PreservesRowOrder(t *testing.T) {
	query := []float32{1, 0, 0}
	refs := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{-1, 0, 0},
	}

	sims := CosineAll(query, refs)

	require.Len(t, sims, 3)
	assert.InDelta(t, 1.0, sims[0], 1e-6)
	assert.InDelta(t, 0.0, sims[1], 1e-6)
	assert.InDelta(t, -1.0, sims[2], 1e-6)
}

func TestCosineAll_PermutationEquivariant(t *testing.T) {
	query := []float32{0.2, 0.9, -0.3, 0.5}
	refs := [][]float32{
		{0.2, 0.9, -0.3, 0.5},
		{1, 1, 1, 1},
		{-0.4, 0.1, 0.7, 0},
	}

	original := CosineAll(query, refs)
	permuted := CosineAll(query, [][]float32{refs[2], refs[0], refs[1]})

	require.Len(t, permuted, 3)
	assert.Equal(t, original[2], permuted[0])
	assert.Equal(t, original[0], permuted[1])
	assert.Equal(t, original[1], permuted[2])
}

func TestBestMatch(t *testing.T) {
	query := []float32{1, 0}
	refs := [][]float32{
		{0, 1},
		{1, 0.1},
		{-1, 0},
	}

	idx, best := BestMatch(query, refs)

	assert.Equal(t, 1, idx)
	assert.Greater(t, best, 0.9)
}

func TestBestMatch_Empty(t *testing.T) {
	idx, best := BestMatch([]float32{1, 0}, nil)

	assert.Equal(t, -1, idx)
	assert.Equal(t, 0.0, best)
}

func TestNormalize(t *testing.T) {
	v := Normalize([]float32{3, 4})

	assert.InDelta(t, 0.6, float64(v[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(v[1]), 1e-6)

	// Zero vector passes through untouched
	zero := []float32{0, 0, 0}
	assert.Equal(t, zero, Normalize(zero))
}
