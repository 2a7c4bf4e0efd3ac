package lsqcore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mfkiwl/RTKLIB-1/internal/lsqcore"
)

func buildProblem(t *testing.T, rows [][]float64, b []float64) *lsqcore.Problem {
	t.Helper()
	nu := len(rows[0])
	p := lsqcore.NewProblem(nu, len(rows)+2)
	for i, row := range rows {
		p.Append(row, b[i])
	}
	return p
}

func Test_AppendAndSwap(t *testing.T) {
	assert := assert.New(t)

	p := buildProblem(t, [][]float64{{1, 0}, {0, 1}, {1, 1}}, []float64{1, 2, 3})
	assert.Equal(3, p.NMeasurements)
	assert.Equal([]float64{1, 0}, p.Row(0))

	p.Swap(0, 2)
	assert.Equal([]float64{1, 1}, p.Row(0))
	assert.Equal(3.0, p.B[0])
	assert.Equal(1.0, p.B[2])

	p.Swap(1, 1) // no-op
	assert.Equal([]float64{0, 1}, p.Row(1))
}

func Test_AppendPastCapacityPanics(t *testing.T) {
	assert := assert.New(t)
	p := lsqcore.NewProblem(2, 2)
	p.Append([]float64{1, 1}, 1)
	p.Append([]float64{1, 1}, 1)
	assert.Panics(func() { p.Append([]float64{1, 1}, 1) })
}

func Test_CopyInto(t *testing.T) {
	assert := assert.New(t)

	src := buildProblem(t, [][]float64{{1, 2}, {3, 4}}, []float64{5, 6})
	dst := lsqcore.NewProblem(2, 5)

	lsqcore.CopyInto(src, dst)
	assert.Equal(2, dst.NMeasurements)
	assert.Equal([]float64{1, 2}, dst.Row(0))
	assert.Equal([]float64{3, 4}, dst.Row(1))

	// mutating dst must not affect src
	dst.Swap(0, 1)
	assert.Equal([]float64{1, 2}, src.Row(0))
}

func Test_TrimSamplesWithoutReplacementAndSizesCorrectly(t *testing.T) {
	assert := assert.New(t)
	lsqcore.SeedDefault(42)

	rows := make([][]float64, 20)
	b := make([]float64, 20)
	for i := range rows {
		rows[i] = []float64{float64(i), 1}
		b[i] = float64(i)
	}
	src := buildProblem(t, rows, b)
	dst := lsqcore.NewProblem(2, 20)

	lsqcore.Trim(src, dst, 5)
	assert.Equal(5, dst.NMeasurements)

	seen := make(map[float64]bool)
	for i := 0; i < 5; i++ {
		seen[dst.Row(i)[0]] = true
	}
	assert.Len(seen, 5) // sampled without replacement
}

func Test_FindResiduals(t *testing.T) {
	assert := assert.New(t)

	p := buildProblem(t, [][]float64{{1, 0}, {0, 1}}, []float64{2, 3})
	residuals := make([]float64, 2)
	lsqcore.FindResiduals(p, []float64{2, 3}, residuals)
	assert.InDeltaSlice([]float64{0, 0}, residuals, 1e-12)

	lsqcore.FindResiduals(p, []float64{0, 0}, residuals)
	assert.InDeltaSlice([]float64{2, 3}, residuals, 1e-12)
}

func Test_SolutionAgreement(t *testing.T) {
	assert := assert.New(t)

	p := buildProblem(t, [][]float64{{1, 0}, {0, 1}}, []float64{2, 3})
	good := lsqcore.NewSolution(2, 4)
	assert.True(good.InAgreementWith(p))

	wrongShape := lsqcore.NewSolution(3, 4)
	assert.False(wrongShape.InAgreementWith(p))
}
