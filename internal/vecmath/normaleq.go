package vecmath

import (
	"gonum.org/v1/gonum/mat"
)

// SolveNormalEquations forms N = AᵀA and g = Aᵀy for the row-major nm x nu
// design matrix A and measurement vector y, then returns x = N⁻¹g together
// with the variance matrix N⁻¹ (§4.A of the spec). The variance matrix is
// returned for completeness but the robust cascade never consumes it — see
// DESIGN.md. ok is false when N is singular to the working precision, which
// callers must treat as solver failure, never as a crash.
func SolveNormalEquations(A, y []float64, nu, nm int) (x, variance []float64, ok bool) {
	if nu <= 0 || nm <= 0 {
		panic("vecmath: non-positive dimension")
	}
	if len(A) != nu*nm {
		panic("vecmath: design matrix length mismatch")
	}
	if len(y) != nm {
		panic("vecmath: measurement vector length mismatch")
	}

	design := mat.NewDense(nm, nu, A)

	var normal mat.SymDense
	normal.SymOuterK(1, design.T())

	var g mat.VecDense
	g.MulVec(design.T(), mat.NewVecDense(nm, y))

	var chol mat.Cholesky
	ok = chol.Factorize(&normal)
	if !ok {
		// Fall back to a general solve: the normal matrix can be
		// ill-conditioned but non-singular (e.g. near-collinear rows).
		var lu mat.LU
		lu.Factorize(matFromSym(&normal, nu))
		if lu.Cond() > 1e14 {
			return nil, nil, false
		}
		var xVec mat.VecDense
		if err := lu.SolveVecTo(&xVec, false, &g); err != nil {
			return nil, nil, false
		}
		var invN mat.Dense
		if err := lu.InverseTo(&invN); err != nil {
			return nil, nil, false
		}
		return xVec.RawVector().Data, flatten(&invN, nu), true
	}

	var xVec mat.VecDense
	if err := chol.SolveVecTo(&xVec, &g); err != nil {
		return nil, nil, false
	}

	var invN mat.SymDense
	if err := chol.InverseTo(&invN); err != nil {
		return nil, nil, false
	}

	return xVec.RawVector().Data, flattenSym(&invN, nu), true
}

func matFromSym(s *mat.SymDense, n int) *mat.Dense {
	d := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			d.Set(i, j, s.At(i, j))
		}
	}
	return d
}

func flatten(d *mat.Dense, n int) []float64 {
	out := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out[i*n+j] = d.At(i, j)
		}
	}
	return out
}

func flattenSym(s *mat.SymDense, n int) []float64 {
	out := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out[i*n+j] = s.At(i, j)
		}
	}
	return out
}
