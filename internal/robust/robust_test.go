package robust_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/stat"

	"github.com/mfkiwl/RTKLIB-1/internal/lsqcore"
	"github.com/mfkiwl/RTKLIB-1/internal/robust"
)

// residualRMS reports sqrt(mean(r_i^2)) over the live residuals, via
// gonum/stat rather than a hand-rolled accumulator.
func residualRMS(residuals []float64) float64 {
	squares := make([]float64, len(residuals))
	for i, r := range residuals {
		squares[i] = r * r
	}
	return math.Sqrt(stat.Mean(squares, nil))
}

func validOptions() robust.Options {
	return robust.Options{
		RansacMinSamples: 10,
		RansacMaxSamples: 50,
		IRLSMaxIter:      25,
		OutlierThres:     0.1,
		FineThres:        0.02,
		Precision:        0.001,
	}
}

func cleanLineProblem(n int) *lsqcore.Problem {
	p := lsqcore.NewProblem(2, n)
	for i := 0; i < n; i++ {
		x := float64(i)
		p.Append([]float64{x, 1}, 2*x+1)
	}
	return p
}

func Test_Solve_CleanDataSucceedsViaOLS(t *testing.T) {
	assert := assert.New(t)
	lsqcore.SeedDefault(1)

	p := cleanLineProblem(20)
	sol := lsqcore.NewSolution(2, 20)

	status, stats := robust.Solve(p, sol, validOptions())
	assert.Equal(robust.Succeed, status)
	assert.InDelta(2.0, sol.X[0], 1e-6)
	assert.InDelta(1.0, sol.X[1], 1e-6)
	assert.Less(residualRMS(sol.Residuals[:p.NMeasurements]), 0.02)
	assert.Zero(stats.IRLSIterations)
	assert.Zero(stats.RANSACTrials)
}

func Test_Solve_FallsBackToIRLSWithModerateOutliers(t *testing.T) {
	assert := assert.New(t)
	lsqcore.SeedDefault(2)

	p := lsqcore.NewProblem(2, 22)
	for i := 0; i < 20; i++ {
		x := float64(i)
		p.Append([]float64{x, 1}, 2*x+1)
	}
	p.Append([]float64{3, 1}, 500)
	p.Append([]float64{9, 1}, -500)
	sol := lsqcore.NewSolution(2, 22)

	status, stats := robust.Solve(p, sol, validOptions())
	assert.NotEqual(robust.Fail, status)
	assert.InDelta(2.0, sol.X[0], 0.2)
	assert.Greater(stats.IRLSIterations, 0)
}

func Test_Solve_FallsBackToRANSACWithHeavyOutliers(t *testing.T) {
	assert := assert.New(t)
	lsqcore.SeedDefault(3)

	p := lsqcore.NewProblem(2, 40)
	for i := 0; i < 25; i++ {
		x := float64(i)
		p.Append([]float64{x, 1}, 2*x+1)
	}
	for i := 0; i < 15; i++ {
		x := float64(i + 25)
		p.Append([]float64{x, 1}, -3000+float64(i)*13)
	}
	sol := lsqcore.NewSolution(2, 40)

	opts := validOptions()
	status, stats := robust.Solve(p, sol, opts)
	assert.NotEqual(robust.Fail, status)
	assert.InDelta(2.0, sol.X[0], 0.5)
	assert.Greater(stats.RANSACTrials, 0)
}

func Test_Solve_UnderDeterminedFails(t *testing.T) {
	assert := assert.New(t)
	lsqcore.SeedDefault(4)

	p := lsqcore.NewProblem(3, 3)
	p.Append([]float64{1, 0, 0}, 1)
	p.Append([]float64{0, 1, 0}, 2)
	sol := lsqcore.NewSolution(3, 3)

	status, _ := robust.Solve(p, sol, validOptions())
	assert.Equal(robust.Fail, status)
}

// Test_Solve_GreyBandYieldsNoisy exercises spec.md §8 scenario where the
// approximate solution lands with residuals in [FineThres, OutlierThres)
// but refinement cannot recover enough consensus to call it SUCCEED.
func Test_Solve_GreyBandYieldsNoisy(t *testing.T) {
	assert := assert.New(t)
	lsqcore.SeedDefault(5)

	p := lsqcore.NewProblem(2, 8)
	x := []float64{0, 1, 2, 3, 4, 5, 6, 7}
	noise := []float64{0.0, 0.03, -0.03, 0.04, -0.04, 0.035, -0.035, 0.03}
	for i := range x {
		p.Append([]float64{x[i], 1}, 2*x[i]+1+noise[i])
	}
	sol := lsqcore.NewSolution(2, 8)

	opts := validOptions()
	opts.RansacMinSamples = 2
	opts.RansacMaxSamples = 5
	status, _ := robust.Solve(p, sol, opts)
	assert.Equal(robust.Noisy, status)
}

// Test_Status_String covers the tri-state exhaustiveness of spec.md §8.
func Test_Status_String(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("FAIL", robust.Fail.String())
	assert.Equal("SUCCEED", robust.Succeed.String())
	assert.Equal("NOISY", robust.Noisy.String())
}

func Test_Options_IsValid(t *testing.T) {
	assert := assert.New(t)
	assert.True(validOptions().IsValid())

	bad := validOptions()
	bad.OutlierThres = 0
	assert.False(bad.IsValid())

	bad = validOptions()
	bad.RansacMinSamples = 100
	assert.False(bad.IsValid())
}

func Test_Solve_PanicsOnShapeMismatch(t *testing.T) {
	assert := assert.New(t)
	p := cleanLineProblem(10)
	sol := lsqcore.NewSolution(3, 10)

	assert.Panics(func() {
		_, _ = robust.Solve(p, sol, validOptions())
	})
}

func Test_Solve_ResidualsFiniteOnSuccess(t *testing.T) {
	assert := assert.New(t)
	lsqcore.SeedDefault(6)

	p := cleanLineProblem(15)
	sol := lsqcore.NewSolution(2, 15)

	status, _ := robust.Solve(p, sol, validOptions())
	assert.Equal(robust.Succeed, status)
	for _, r := range sol.Residuals {
		assert.False(math.IsNaN(r))
		assert.False(math.IsInf(r, 0))
	}
}
