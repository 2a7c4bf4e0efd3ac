/*------------------------------------------------------------------------------
* irls.go : iteratively reweighted least squares solver
*
*          ported from lsq_reweighted (original_source/src/math/lsq/irls.c).
*          Note the reweighting re-applies weights from the *original*
*          problem every iteration rather than accumulating them — this is
*          deliberate (spec.md §9) and must not be "fixed".
 */
package irls

import (
	"math"

	"github.com/mfkiwl/RTKLIB-1/internal/lsqcore"
	"github.com/mfkiwl/RTKLIB-1/internal/ols"
	"github.com/mfkiwl/RTKLIB-1/internal/vecmath"
)

// Options are the IRLS hyperparameters (spec.md §3).
type Options struct {
	MaxIter               int
	DownweightThres       float64
	MinInliersProportion  float64
	Precision             float64
}

// IsValid validates the closed set of constraints from spec.md §3.
func (o Options) IsValid() bool {
	if o.MaxIter < 1 {
		return false
	}
	if o.DownweightThres <= 0.0 {
		return false
	}
	if o.MinInliersProportion < 0.0 || o.MinInliersProportion > 1.0 {
		return false
	}
	if o.Precision <= 0.0 {
		return false
	}
	return true
}

// Solve runs the reweighting iteration of spec.md §4.D against a scratch
// copy of p, leaving p itself untouched. Returns true on early-success or
// convergence that clears the inlier-fraction floor, false on non-convergence
// or a final good-residual count below the floor. iterations is the number
// of reweighting iterations actually run, for callers reporting it as a
// metric (internal/lsqmetrics).
func Solve(p *lsqcore.Problem, sol *lsqcore.Solution, opts Options) (ok bool, iterations int) {
	if !p.IsReadyForProcessing() {
		panic("irls: problem not ready for processing")
	}
	if !sol.InAgreementWith(p) {
		panic("irls: solution shape disagrees with problem")
	}
	if !opts.IsValid() {
		panic("irls: invalid options")
	}

	nu := p.NUnknowns
	nm := p.NMeasurements

	weighted := lsqcore.NewProblem(nu, p.Capacity)
	lsqcore.CopyInto(p, weighted)

	prevX := make([]float64, nu)
	delta := make([]float64, nu)
	dwInv := 1.0 / opts.DownweightThres

	nGood := 0
	iter := 0
	ran := 0
	for ; iter < opts.MaxIter; iter++ {
		ran++
		copy(prevX, sol.X)

		if !ols.Solve(weighted, sol) {
			return false, ran
		}
		lsqcore.FindResiduals(p, sol.X, sol.Residuals)

		nGood = 0
		for i := 0; i < nm; i++ {
			if math.Abs(sol.Residuals[i]) < opts.DownweightThres {
				nGood++
			}
		}

		if nGood == nm {
			break
		}

		if iter > 0 {
			vecmath.Diff(prevX, sol.X, delta)
			if vecmath.Norm(delta) < opts.Precision {
				break
			}
		}

		for i := 0; i < nm; i++ {
			residualAbs := math.Abs(sol.Residuals[i])
			weight := 1.0
			if residualAbs > opts.DownweightThres {
				weight = math.Exp(-(residualAbs*dwInv + 1.0) / 2.0)
			}

			row := p.Row(i)
			wRow := weighted.Row(i)
			for k := 0; k < nu; k++ {
				wRow[k] = weight * row[k]
			}
			weighted.B[i] = weight * p.B[i]
		}
	}

	floor := opts.MinInliersProportion * float64(nm)
	if float64(nu+1) > floor {
		floor = float64(nu + 1)
	}

	if float64(nGood) < floor || iter >= opts.MaxIter {
		return false, ran
	}

	return true, ran
}
