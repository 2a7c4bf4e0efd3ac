package ols_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mfkiwl/RTKLIB-1/internal/lsqcore"
	"github.com/mfkiwl/RTKLIB-1/internal/ols"
)

// Test_Solve_RecoversExactLine verifies property 1 of spec.md §8 (OLS
// correctness) for a noise-free problem: a straight line y = 2x + 1.
func Test_Solve_RecoversExactLine(t *testing.T) {
	assert := assert.New(t)

	p := lsqcore.NewProblem(2, 10)
	for i := 0; i < 10; i++ {
		x := float64(i)
		p.Append([]float64{x, 1}, 2*x+1)
	}
	sol := lsqcore.NewSolution(2, 10)

	ok := ols.Solve(p, sol)
	assert.True(ok)
	assert.InDelta(2.0, sol.X[0], 1e-9)
	assert.InDelta(1.0, sol.X[1], 1e-9)
	for i := 0; i < p.NMeasurements; i++ {
		assert.InDelta(0.0, sol.Residuals[i], 1e-9)
	}
}

func Test_Solve_ResidualsAreExact(t *testing.T) {
	assert := assert.New(t)

	p := lsqcore.NewProblem(1, 3)
	p.Append([]float64{1}, 1)
	p.Append([]float64{1}, 2)
	p.Append([]float64{1}, 3)
	sol := lsqcore.NewSolution(1, 3)

	ok := ols.Solve(p, sol)
	assert.True(ok)
	assert.InDelta(2.0, sol.X[0], 1e-12) // mean of 1,2,3

	want := make([]float64, 3)
	lsqcore.FindResiduals(p, sol.X, want)
	assert.Equal(want, sol.Residuals)
}
