// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package features

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// SparseVector holds non-zero TF-IDF weights keyed by vocabulary index.
// Indices are strictly ascending.
type SparseVector struct {
	Indices []int
	Values  []float64
}

// Len returns the number of non-zero entries.
func (v SparseVector) Len() int {
	return len(v.Indices)
}

// Dot returns the inner product of two sparse vectors.
func (v SparseVector) Dot(o SparseVector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(v.Indices) && j < len(o.Indices) {
		switch {
		case v.Indices[i] == o.Indices[j]:
			sum += v.Values[i] * o.Values[j]
			i++
			j++
		case v.Indices[i] < o.Indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// normalize scales v to unit L2 norm in place. Zero vectors are left as-is.
func (v SparseVector) normalize() {
	var sq float64
	for _, x := range v.Values {
		sq += x * x
	}
	if sq == 0 {
		return
	}
	inv := 1 / math.Sqrt(sq)
	for i := range v.Values {
		v.Values[i] *= inv
	}
}

// DenseCosine returns the cosine similarity of two dense vectors. It returns
// 0 for mismatched dimensions or zero vectors.
func DenseCosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(a, b) / (na * nb)
}

// toUnitFloat64 widens an embedding and scales it to unit length.
// It returns nil for empty or zero vectors.
func toUnitFloat64(v []float32) []float64 {
	if len(v) == 0 {
		return nil
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	n := floats.Norm(out, 2)
	if n == 0 {
		return nil
	}
	floats.Scale(1/n, out)
	return out
}
