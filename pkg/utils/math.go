package utils

import "math"

// Dot returns the dot product of a and b. For unit vectors this equals
// cosine similarity. Mismatched or empty slices yield 0.
func Dot(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// L2Norm returns the Euclidean norm of x.
func L2Norm(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// NormalizeL2 normalizes x in place to unit L2 norm.
// A zero vector is left unchanged.
func NormalizeL2(x []float64) {
	norm := L2Norm(x)
	if norm == 0 {
		return
	}
	inv := 1.0 / norm
	for i := range x {
		x[i] *= inv
	}
}
