// Package linalg provides the dense vector primitives used
// throughout the trainer.
//
// All vectors are plain []float64 slices of a fixed dimension.
// Mismatching dimensions are programmer errors and panic.
package linalg

import (
	"fmt"
	"math"
)

// Zeros creates a zero vector of dimension n.
func Zeros(n int) []float64 {
	return make([]float64, n)
}

// Clone copies a vector.
func Clone(v []float64) []float64 {
	res := make([]float64, len(v))
	copy(res, v)
	return res
}

// Add accumulates src into dst in place.
func Add(dst, src []float64) {
	checkDims(dst, src)
	for i, x := range src {
		dst[i] += x
	}
}

// Axpy accumulates a*x into dst in place.
func Axpy(dst []float64, a float64, x []float64) {
	checkDims(dst, x)
	for i, xi := range x {
		dst[i] += a * xi
	}
}

// Scale multiplies every component of v by a in place.
func Scale(v []float64, a float64) {
	for i := range v {
		v[i] *= a
	}
}

// Dot computes the inner product of two vectors.
func Dot(a, b []float64) float64 {
	checkDims(a, b)
	var res float64
	for i, x := range a {
		res += x * b[i]
	}
	return res
}

// Sum reduces a list of vectors to their component-wise sum.
//
// The fold is left-to-right over the list, so callers that
// fix the list order get a bit-reproducible result even
// though floating-point addition is not associative.
func Sum(vecs [][]float64) []float64 {
	if len(vecs) == 0 {
		panic("no vectors to sum")
	}
	res := Clone(vecs[0])
	for _, v := range vecs[1:] {
		Add(res, v)
	}
	return res
}

// CheckFinite returns an error naming the first NaN or Inf
// component of v, or nil if every component is finite.
func CheckFinite(v []float64) error {
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("component %d is %v", i, x)
		}
	}
	return nil
}

func checkDims(a, b []float64) {
	if len(a) != len(b) {
		panic("mismatching lengths")
	}
}
