package vecmath_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mfkiwl/RTKLIB-1/internal/vecmath"
)

func Test_DotNorm(t *testing.T) {
	assert := assert.New(t)

	a := []float64{3, 4}
	assert.Equal(25.0, vecmath.Dot(a, a))
	assert.Equal(5.0, vecmath.Norm(a))
	assert.InDelta(math.Sqrt(12.5), vecmath.RMS(a), 1e-12)
}

func Test_AddSub(t *testing.T) {
	assert := assert.New(t)

	v := []float64{1, 2, 3}
	vecmath.Add(v, []float64{1, 1, 1})
	assert.Equal([]float64{2, 3, 4}, v)

	vecmath.Sub(v, []float64{2, 2, 2})
	assert.Equal([]float64{0, 1, 2}, v)
}

func Test_SumDiffOutOfPlace(t *testing.T) {
	assert := assert.New(t)

	v1 := []float64{1, 2, 3}
	v2 := []float64{4, 5, 6}
	result := make([]float64, 3)

	vecmath.Sum(v1, v2, result)
	assert.Equal([]float64{5, 7, 9}, result)
	assert.Equal([]float64{1, 2, 3}, v1) // v1 untouched

	vecmath.Diff(v2, v1, result)
	assert.Equal([]float64{3, 3, 3}, result)
}

func Test_LinearCombination(t *testing.T) {
	assert := assert.New(t)

	v1 := []float64{1, 0, 0}
	v2 := []float64{0, 1, 0}
	result := make([]float64, 3)

	vecmath.LinearCombination(2, v1, 3, v2, result)
	assert.Equal([]float64{2, 3, 0}, result)
}

func Test_Normalize3(t *testing.T) {
	assert := assert.New(t)

	src := [3]float64{3, 0, 4}
	var dst [3]float64
	ok := vecmath.Normalize3(&src, &dst)
	assert.True(ok)
	assert.InDelta(1.0, vecmath.Norm3(&dst), 1e-12)

	zero := [3]float64{0, 0, 0}
	ok = vecmath.Normalize3(&zero, &dst)
	assert.False(ok)
}

func Test_MismatchedLengthPanics(t *testing.T) {
	assert := assert.New(t)

	assert.Panics(func() {
		vecmath.Dot([]float64{1, 2}, []float64{1})
	})
	assert.Panics(func() {
		vecmath.Norm(nil)
	})
}

func Test_SolveNormalEquations_IdentitySystem(t *testing.T) {
	assert := assert.New(t)

	// A is the 3x3 identity stacked twice (6 measurements, 3 unknowns),
	// y is the known solution repeated twice -> x should recover it exactly.
	nu, nm := 3, 6
	A := make([]float64, nu*nm)
	for r := 0; r < nm; r++ {
		A[r*nu+(r%nu)] = 1.0
	}
	xTrue := []float64{1.5, -2.0, 0.25}
	y := make([]float64, nm)
	for r := 0; r < nm; r++ {
		y[r] = xTrue[r%nu]
	}

	x, variance, ok := vecmath.SolveNormalEquations(A, y, nu, nm)
	assert.True(ok)
	assert.NotNil(variance)
	for i := range xTrue {
		assert.InDelta(xTrue[i], x[i], 1e-9)
	}
}
