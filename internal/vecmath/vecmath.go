/*------------------------------------------------------------------------------
* vecmath.go : dense vector kernels for the robust least-squares core
*
*          adapted from rtkcmn.c / common.go vector and matrix routines
*          (Copyright (C) 2007-2020 by T.TAKASU, Copyright (C) 2022-2025 by
*          feng xuebin), restated over gonum.org/v1/gonum/floats.
 */
package vecmath

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Copy writes src into dst. Both must have equal, positive length.
func Copy(dst, src []float64) {
	assertSameLen(dst, src)
	copy(dst, src)
}

// Copy3 is the 3-D specialization of Copy.
func Copy3(dst, src *[3]float64) {
	dst[0], dst[1], dst[2] = src[0], src[1], src[2]
}

// Add adds added into vec in place: vec[i] += added[i].
func Add(vec, added []float64) {
	assertSameLen(vec, added)
	floats.Add(vec, added)
}

// Add3 is the 3-D specialization of Add.
func Add3(vec, added *[3]float64) {
	vec[0] += added[0]
	vec[1] += added[1]
	vec[2] += added[2]
}

// Sub subtracts subtr from vec in place: vec[i] -= subtr[i].
func Sub(vec, subtr []float64) {
	assertSameLen(vec, subtr)
	floats.Sub(vec, subtr)
}

// Sub3 is the 3-D specialization of Sub.
func Sub3(vec, subtr *[3]float64) {
	vec[0] -= subtr[0]
	vec[1] -= subtr[1]
	vec[2] -= subtr[2]
}

// Sum writes v1+v2 into result, out of place.
func Sum(v1, v2, result []float64) {
	assertSameLen(v1, v2)
	assertSameLen(v1, result)
	floats.AddTo(result, v1, v2)
}

// Sum3 is the 3-D specialization of Sum.
func Sum3(v1, v2, result *[3]float64) {
	result[0] = v1[0] + v2[0]
	result[1] = v1[1] + v2[1]
	result[2] = v1[2] + v2[2]
}

// Diff writes v1-v2 into result, out of place.
func Diff(v1, v2, result []float64) {
	assertSameLen(v1, v2)
	assertSameLen(v1, result)
	floats.SubTo(result, v1, v2)
}

// Diff3 is the 3-D specialization of Diff.
func Diff3(v1, v2, result *[3]float64) {
	result[0] = v1[0] - v2[0]
	result[1] = v1[1] - v2[1]
	result[2] = v1[2] - v2[2]
}

// Dot returns the inner product of v1 and v2.
func Dot(v1, v2 []float64) float64 {
	assertSameLen(v1, v2)
	return floats.Dot(v1, v2)
}

// Dot3 is the 3-D specialization of Dot.
func Dot3(v1, v2 *[3]float64) float64 {
	return v1[0]*v2[0] + v1[1]*v2[1] + v1[2]*v2[2]
}

// Scale multiplies vec by c in place.
func Scale(c float64, vec []float64) {
	assertPositiveLen(vec)
	floats.Scale(c, vec)
}

// Scale3 is the 3-D specialization of Scale.
func Scale3(c float64, vec *[3]float64) {
	vec[0] *= c
	vec[1] *= c
	vec[2] *= c
}

// LinearCombination writes w1*v1 + w2*v2 into result.
func LinearCombination(w1 float64, v1 []float64, w2 float64, v2 []float64, result []float64) {
	assertSameLen(v1, v2)
	assertSameLen(v1, result)
	for i := range result {
		result[i] = w1*v1[i] + w2*v2[i]
	}
}

// LinearCombination3 is the 3-D specialization of LinearCombination.
func LinearCombination3(w1 float64, v1 *[3]float64, w2 float64, v2 *[3]float64, result *[3]float64) {
	result[0] = w1*v1[0] + w2*v2[0]
	result[1] = w1*v1[1] + w2*v2[1]
	result[2] = w1*v1[2] + w2*v2[2]
}

// Norm returns the Euclidean norm of vec.
func Norm(vec []float64) float64 {
	assertPositiveLen(vec)
	return floats.Norm(vec, 2)
}

// Norm3 is the 3-D specialization of Norm.
func Norm3(vec *[3]float64) float64 {
	return math.Sqrt(vec[0]*vec[0] + vec[1]*vec[1] + vec[2]*vec[2])
}

// Normalize3 writes the unit vector of src into dst, returning false when
// src has zero norm (mirrors NormV3 in common.go).
func Normalize3(src, dst *[3]float64) bool {
	r := Norm3(src)
	if r <= 0.0 {
		return false
	}
	dst[0] = src[0] / r
	dst[1] = src[1] / r
	dst[2] = src[2] / r
	return true
}

// RMS returns the root-mean-square of vec.
func RMS(vec []float64) float64 {
	assertPositiveLen(vec)
	return math.Sqrt(floats.Dot(vec, vec) / float64(len(vec)))
}

// RMS3 is the 3-D specialization of RMS.
func RMS3(vec *[3]float64) float64 {
	return math.Sqrt((vec[0]*vec[0] + vec[1]*vec[1] + vec[2]*vec[2]) / 3.0)
}

func assertSameLen(a, b []float64) {
	if a == nil || b == nil {
		panic("vecmath: nil vector argument")
	}
	if len(a) != len(b) {
		panic("vecmath: mismatched vector lengths")
	}
	if len(a) == 0 {
		panic("vecmath: zero-length vector argument")
	}
}

func assertPositiveLen(a []float64) {
	if a == nil {
		panic("vecmath: nil vector argument")
	}
	if len(a) == 0 {
		panic("vecmath: zero-length vector argument")
	}
}
