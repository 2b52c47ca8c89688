package knn

import (
	"math"
	"testing"

	"github.com/cuemby/vexdb/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestL1Distance(t *testing.T) {
	assert.Equal(t, 8.0, l1([]float64{1, 2, 3}, []float64{4, 0, 0}))
}

func TestL2SquaredAndL2(t *testing.T) {
	a := []float64{0, 0}
	b := []float64{3, 4}
	assert.Equal(t, 25.0, l2Squared(a, b))
	assert.Equal(t, 5.0, l2(a, b))
}

func TestChiSquaredSkipsZeroDenominator(t *testing.T) {
	got := chiSquared([]float64{0, 2}, []float64{0, 2})
	assert.Equal(t, 0.0, got)
}

func TestCosineIdenticalVectorsIsZero(t *testing.T) {
	v := []float64{1, 2, 3}
	assert.InDelta(t, 0.0, cosine(v, v), 1e-9)
}

func TestCosineOrthogonalVectorsIsOne(t *testing.T) {
	assert.InDelta(t, 1.0, cosine([]float64{1, 0}, []float64{0, 1}), 1e-9)
}

func TestCosineZeroVectorReturnsMaxDistance(t *testing.T) {
	assert.Equal(t, 1.0, cosine([]float64{0, 0}, []float64{1, 1}))
}

func TestHammingCountsMismatches(t *testing.T) {
	assert.Equal(t, 2.0, hamming([]float64{1, 0, 1, 0}, []float64{1, 1, 0, 0}))
}

func TestLookupKnownAndUnknownNames(t *testing.T) {
	f, ok := Lookup(L2)
	assert.True(t, ok)
	assert.Equal(t, 5.0, f([]float64{0, 0}, []float64{3, 4}))

	_, ok = Lookup(Name("nope"))
	assert.False(t, ok)
}

func TestToFloat64PromotesFloatVector(t *testing.T) {
	v := types.FloatVectorValue([]float32{1.5, 2.5})
	out, err := ToFloat64(v)
	assert.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1.5, 2.5}, out, 1e-6)
}

func TestToFloat64PassesThroughDoubleVector(t *testing.T) {
	v := types.DoubleVectorValue([]float64{1, 2, 3})
	out, err := ToFloat64(v)
	assert.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, out)
}

func TestToFloat64RejectsNonVectorType(t *testing.T) {
	_, err := ToFloat64(types.IntValue(1))
	assert.Error(t, err)
}

func TestL2SquaredIsNonNegative(t *testing.T) {
	got := l2Squared([]float64{-1, -2}, []float64{1, 2})
	assert.True(t, got >= 0 && !math.IsNaN(got))
}
