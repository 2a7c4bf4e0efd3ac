/*------------------------------------------------------------------------------
* robust.go : robust least squares cascade (OLS -> IRLS -> RANSAC)
*
*          ported from lsq_robust (original_source/src/math/lsq/robust_lsq.c)
 */
package robust

import (
	"math"

	"github.com/mfkiwl/RTKLIB-1/internal/irls"
	"github.com/mfkiwl/RTKLIB-1/internal/lsqcore"
	"github.com/mfkiwl/RTKLIB-1/internal/ols"
	"github.com/mfkiwl/RTKLIB-1/internal/ransac"
)

// minInliersProportionForIRLS is the fixed 0.80 inlier-fraction floor the
// cascade always uses for its own internal IRLS calls (spec.md §6).
const minInliersProportionForIRLS = 0.80

// Status is the tri-state verdict of spec.md §3.
type Status int

const (
	Fail Status = iota
	Succeed
	Noisy
)

func (s Status) String() string {
	switch s {
	case Fail:
		return "FAIL"
	case Succeed:
		return "SUCCEED"
	case Noisy:
		return "NOISY"
	default:
		return "UNKNOWN"
	}
}

// Options are the robust-cascade hyperparameters (spec.md §3).
type Options struct {
	RansacMinSamples int
	RansacMaxSamples int
	IRLSMaxIter      int
	OutlierThres     float64
	FineThres        float64
	Precision        float64
}

// IsValid validates Options per lsq_robust_options_is_valid. Note there is
// no enforced ordering between FineThres and OutlierThres, but the cascade
// is only meaningful when FineThres <= OutlierThres (spec.md §3).
func (o Options) IsValid() bool {
	if o.RansacMinSamples < 1 || o.RansacMinSamples > o.RansacMaxSamples {
		return false
	}
	if o.IRLSMaxIter <= 0 {
		return false
	}
	if o.OutlierThres <= 0.0 {
		return false
	}
	if o.FineThres <= 0.0 {
		return false
	}
	if o.Precision < 0.0 {
		return false
	}
	return true
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Stats reports the work the cascade's IRLS/RANSAC stages actually
// performed across every stage of one Solve call, for callers exporting it
// as a metric (internal/lsqmetrics). A zero Stats means neither IRLS nor
// RANSAC ran: the cascade either resolved on the initial OLS pass or
// failed before reaching either fallback.
type Stats struct {
	IRLSIterations int
	RANSACTrials   int
}

func (s Stats) add(o Stats) Stats {
	return Stats{
		IRLSIterations: s.IRLSIterations + o.IRLSIterations,
		RANSACTrials:   s.RANSACTrials + o.RANSACTrials,
	}
}

func findApproximateSolution(p *lsqcore.Problem, sol *lsqcore.Solution, opts Options) (bool, Stats) {
	nu := p.NUnknowns
	nm := p.NMeasurements

	if nm <= nu {
		return false, Stats{}
	}

	if !ols.Solve(p, sol) {
		// OLS itself can only fail on a singular normal matrix; the
		// cascade still has IRLS/RANSAC to fall back on.
	} else {
		allGood := true
		for i := 0; i < nm; i++ {
			if math.Abs(sol.Residuals[i]) > opts.OutlierThres {
				allGood = false
				break
			}
		}
		if allGood {
			return true, Stats{}
		}
	}

	if nm <= nu+1 {
		return false, Stats{}
	}

	irlsOpts := irls.Options{
		MaxIter:              opts.IRLSMaxIter,
		DownweightThres:      opts.OutlierThres,
		MinInliersProportion: minInliersProportionForIRLS,
		Precision:            opts.Precision,
	}
	irlsOk, irlsIterations := irls.Solve(p, sol, irlsOpts)
	stats := Stats{IRLSIterations: irlsIterations}
	if irlsOk {
		lsqcore.FindResiduals(p, sol.X, sol.Residuals)
		return true, stats
	}

	// Sizing below follows robust_lsq.c's integer truncating division
	// exactly (the "⌈(nm+1)/2⌉" of spec.md §4.F is this idiom, not a
	// second ceiling layered on top of it).
	ransacOpts := ransac.Options{
		SampleSize:       maxInt((nm+1)/2, nu),
		MinConsensusSize: (nm + nu + 1) / 2,
		MinSamples:       opts.RansacMinSamples,
		MaxSamples:       opts.RansacMaxSamples,
		OutlierThres:     opts.OutlierThres,
	}
	ransacOk, ransacTrials := ransac.Solve(p, sol, ransacOpts)
	stats.RANSACTrials = ransacTrials
	return ransacOk, stats
}

// Solve runs the three-stage cascade of spec.md §4.F: an approximate
// solution via OLS/IRLS/RANSAC, a grey-band scan, and — when needed — a
// tightened refinement around the consensus inliers. The returned Stats
// sums the IRLS iterations and RANSAC trials spent across every stage.
func Solve(p *lsqcore.Problem, sol *lsqcore.Solution, opts Options) (Status, Stats) {
	// An under-determined problem (nm <= nu) is a Fail verdict, not a
	// precondition violation; findApproximateSolution rejects it.
	if !p.IsValid() {
		panic("robust: invalid problem")
	}
	if !sol.InAgreementWith(p) {
		panic("robust: solution shape disagrees with problem")
	}
	if !opts.IsValid() {
		panic("robust: invalid options")
	}

	nu := p.NUnknowns
	nm := p.NMeasurements

	approxOk, stats := findApproximateSolution(p, sol, opts)
	if !approxOk {
		return Fail, stats
	}

	needsRefinement := false
	for i := 0; i < nm; i++ {
		r := math.Abs(sol.Residuals[i])
		if r >= opts.FineThres && r < opts.OutlierThres {
			needsRefinement = true
			break
		}
	}
	if !needsRefinement {
		return Succeed, stats
	}

	approxX := make([]float64, nu)
	copy(approxX, sol.X)

	consensus := ransac.Consensus(p, sol.Residuals, opts.OutlierThres)
	nmConsensus := consensus.NMeasurements

	if nmConsensus <= nu+3 {
		copy(sol.X, approxX)
		lsqcore.FindResiduals(p, sol.X, sol.Residuals)
		return Noisy, stats
	}

	fineIRLSOpts := irls.Options{
		MaxIter:              opts.IRLSMaxIter,
		DownweightThres:      opts.FineThres,
		MinInliersProportion: minInliersProportionForIRLS,
		Precision:            opts.Precision,
	}
	fineIRLSOk, fineIRLSIterations := irls.Solve(consensus, sol, fineIRLSOpts)
	stats = stats.add(Stats{IRLSIterations: fineIRLSIterations})
	if fineIRLSOk {
		lsqcore.FindResiduals(p, sol.X, sol.Residuals)
		return Succeed, stats
	}

	fineRansacOpts := ransac.Options{
		SampleSize:       maxInt((nmConsensus+1)/2, nu+1),
		MinConsensusSize: (nmConsensus + nu + 1) / 2,
		MinSamples:       opts.RansacMinSamples,
		MaxSamples:       opts.RansacMaxSamples,
		OutlierThres:     opts.FineThres,
	}
	fineRansacOk, fineRansacTrials := ransac.Solve(p, sol, fineRansacOpts)
	stats = stats.add(Stats{RANSACTrials: fineRansacTrials})
	if fineRansacOk {
		return Succeed, stats
	}

	copy(sol.X, approxX)
	lsqcore.FindResiduals(p, sol.X, sol.Residuals)
	return Noisy, stats
}
