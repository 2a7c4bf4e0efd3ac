/*------------------------------------------------------------------------------
* ols.go : ordinary least squares solver
*
*          ported from lsq_ols_standard (original_source/src/math/lsq/ols.c)
 */
package ols

import (
	"github.com/mfkiwl/RTKLIB-1/internal/lsqcore"
	"github.com/mfkiwl/RTKLIB-1/internal/vecmath"
)

// Solve computes x via the normal-equation solver and populates sol's
// residuals against the full problem. Returns false when the normal matrix
// is singular; true otherwise. p must be ready for processing (nm >= nu)
// and sol must be shaped in agreement with p.
func Solve(p *lsqcore.Problem, sol *lsqcore.Solution) bool {
	if !p.IsReadyForProcessing() {
		panic("ols: problem not ready for processing")
	}
	if !sol.InAgreementWith(p) {
		panic("ols: solution shape disagrees with problem")
	}

	x, _, ok := vecmath.SolveNormalEquations(p.A[:p.NMeasurements*p.NUnknowns], p.B[:p.NMeasurements], p.NUnknowns, p.NMeasurements)
	if !ok {
		return false
	}

	copy(sol.X, x)
	lsqcore.FindResiduals(p, sol.X, sol.Residuals)
	return true
}
