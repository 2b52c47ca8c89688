package knn

import (
	"math"

	"github.com/cuemby/vexdb/pkg/types"
)

// DistanceFunc computes a non-negative distance between two equal-length
// float64 vectors (callers promote float32 vectors before calling).
type DistanceFunc func(a, b []float64) float64

// Name enumerates the supported distance functions (spec §4.7 minimum
// set).
type Name string

const (
	L1         Name = "l1"
	L2         Name = "l2"
	L2Squared  Name = "l2_squared"
	ChiSquared Name = "chisquared"
	Cosine     Name = "cosine"
	Hamming    Name = "hamming"
)

var registry = map[Name]DistanceFunc{
	L1:         l1,
	L2:         l2,
	L2Squared:  l2Squared,
	ChiSquared: chiSquared,
	Cosine:     cosine,
	Hamming:    hamming,
}

// Lookup returns the distance function for name, or (nil, false) if
// unsupported.
func Lookup(name Name) (DistanceFunc, bool) {
	f, ok := registry[name]
	return f, ok
}

func l1(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += math.Abs(a[i] - b[i])
	}
	return sum
}

func l2Squared(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func l2(a, b []float64) float64 {
	return math.Sqrt(l2Squared(a, b))
}

func chiSquared(a, b []float64) float64 {
	var sum float64
	for i := range a {
		denom := a[i] + b[i]
		if denom == 0 {
			continue
		}
		d := a[i] - b[i]
		sum += (d * d) / denom
	}
	return sum
}

// cosine returns 1 - cosine similarity, so that 0 means identical
// direction and larger values mean more distant, matching the other
// distance functions' "smaller is closer" convention.
func cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 1
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return 1 - sim
}

func hamming(a, b []float64) float64 {
	var count float64
	for i := range a {
		if a[i] != b[i] {
			count++
		}
	}
	return count
}

// ToFloat64 promotes a vector-typed Value to []float64 for distance
// computation, or fails with TypeMismatch for non-numeric-vector types.
func ToFloat64(v types.Value) ([]float64, error) {
	switch v.Type {
	case types.ColumnTypeFloatVector:
		vec := v.FloatVector()
		out := make([]float64, len(vec))
		for i, e := range vec {
			out[i] = float64(e)
		}
		return out, nil
	case types.ColumnTypeDoubleVector:
		return v.DoubleVector(), nil
	default:
		return nil, types.NewError(types.ErrTypeMismatch, "kNN source column is not a numeric vector", nil)
	}
}
