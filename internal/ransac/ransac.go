/*------------------------------------------------------------------------------
* ransac.go : random sample consensus least squares solver
*
*          ported from lsq_ransac (original_source/src/math/lsq/ransac.c)
 */
package ransac

import (
	"math"

	"github.com/mfkiwl/RTKLIB-1/internal/lsqcore"
	"github.com/mfkiwl/RTKLIB-1/internal/ols"
)

// Options are the RANSAC hyperparameters (spec.md §3).
type Options struct {
	SampleSize       int
	MinConsensusSize int
	MinSamples       int
	MaxSamples       int
	OutlierThres     float64
}

// IsValid validates Options against the problem it will run on, per
// lsq_ransac_options_is_valid.
func (o Options) IsValid(p *lsqcore.Problem) bool {
	if !p.IsReadyForProcessing() {
		panic("ransac: problem not ready for processing")
	}
	if o.SampleSize < p.NUnknowns || o.SampleSize > p.NMeasurements {
		return false
	}
	if o.MinConsensusSize < p.NUnknowns || o.MinConsensusSize > p.NMeasurements {
		return false
	}
	if o.MinSamples < 1 || o.MinSamples > o.MaxSamples {
		return false
	}
	if o.OutlierThres <= 0.0 {
		return false
	}
	return true
}

// Consensus builds a sub-problem from the rows of p whose residual
// magnitude is below outlierThres (lsq_input_init_consensus).
func Consensus(p *lsqcore.Problem, residuals []float64, outlierThres float64) *lsqcore.Problem {
	if !p.IsReadyForProcessing() {
		panic("ransac: problem not ready for processing")
	}
	if outlierThres <= 0.0 {
		panic("ransac: non-positive outlier threshold")
	}

	out := lsqcore.NewProblem(p.NUnknowns, p.Capacity)
	for i := 0; i < p.NMeasurements; i++ {
		if math.Abs(residuals[i]) < outlierThres {
			out.Append(p.Row(i), p.B[i])
		}
	}
	return out
}

// Solve runs up to opts.MaxSamples random-minimal-sample trials, scoring
// each by (consensusSize, -consensusSqr), then refines twice around the
// best consensus (spec.md §4.E). Returns false when no trial reaches
// MinConsensusSize. trials is the number of minimal-sample draws actually
// attempted, for callers reporting it as a metric (internal/lsqmetrics).
func Solve(p *lsqcore.Problem, sol *lsqcore.Solution, opts Options) (ok bool, trials int) {
	if !p.IsReadyForProcessing() {
		panic("ransac: problem not ready for processing")
	}
	if !sol.InAgreementWith(p) {
		panic("ransac: solution shape disagrees with problem")
	}
	if !opts.IsValid(p) {
		panic("ransac: invalid options")
	}

	nu := p.NUnknowns
	nm := p.NMeasurements

	bestSize := 0
	bestSqr := 0.0
	bestX := make([]float64, nu)
	residuals := make([]float64, nm)
	trimmed := lsqcore.NewProblem(nu, p.Capacity)
	trialSol := lsqcore.NewSolution(nu, p.Capacity)

	ran := 0
	for i := 0; i < opts.MaxSamples; i++ {
		ran++
		lsqcore.Trim(p, trimmed, opts.SampleSize)
		if !ols.Solve(trimmed, trialSol) {
			continue
		}
		lsqcore.FindResiduals(p, trialSol.X, residuals)

		size := 0
		sqr := 0.0
		for j := 0; j < nm; j++ {
			if math.Abs(residuals[j]) < opts.OutlierThres {
				size++
				sqr += residuals[j] * residuals[j]
			}
		}

		if size > bestSize || (size == bestSize && sqr < bestSqr) {
			bestSize = size
			bestSqr = sqr
			copy(bestX, trialSol.X)
		}

		if (i+1) >= opts.MinSamples && bestSize >= opts.MinConsensusSize {
			break
		}
	}

	lsqcore.FindResiduals(p, bestX, residuals)

	if bestSize < opts.MinConsensusSize {
		return false, ran
	}

	consensus := Consensus(p, residuals, opts.OutlierThres)
	if !consensus.IsReadyForProcessing() {
		panic("ransac: consensus from best sample is smaller than MinConsensusSize")
	}
	refinedSol := lsqcore.NewSolution(nu, consensus.Capacity)
	if !ols.Solve(consensus, refinedSol) {
		return false, ran
	}
	lsqcore.FindResiduals(p, refinedSol.X, sol.Residuals)
	copy(sol.X, refinedSol.X)

	consensusRefined := Consensus(p, sol.Residuals, opts.OutlierThres)
	if consensusRefined.NMeasurements < opts.MinConsensusSize {
		return false, ran
	}
	finalSol := lsqcore.NewSolution(nu, consensusRefined.Capacity)
	if !ols.Solve(consensusRefined, finalSol) {
		return false, ran
	}

	copy(sol.X, finalSol.X)
	lsqcore.FindResiduals(p, sol.X, sol.Residuals)

	return true, ran
}
