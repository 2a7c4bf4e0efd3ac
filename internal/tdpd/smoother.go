/*------------------------------------------------------------------------------
* smoother.go : position-domain carrier-smoothed single-point solution
*
*          ported from pntpos_position_domain_smoothing
*          (original_source/src/extensions/tdiff_phases/tdpd.c)
 */
package tdpd

import (
	"github.com/mfkiwl/RTKLIB-1/internal/robust"
	"github.com/mfkiwl/RTKLIB-1/internal/vecmath"
)

const (
	smoothingMaxExtrapolationTime  = 5.0  // seconds; spec.md §4.G, §6
	smoothingMaxExtrapolationDispl = 10.0 // metres
	smoothingMaxPointSolutionDelay = 10.0 // seconds
	smoothingMaxResidual           = 20.0 // metres
)

// PointSolution is one epoch's output from the external point-positioning
// filter, the `rtk->sol` half of pntpos_position_domain_smoothing's input.
type PointSolution struct {
	Time    Time
	Valid   bool // SOLQ_SINGLE or better; false means point-positioning failed
	Pos     [3]float64
	TT      float64 // time-to-previous-solution used to derive velocity from Δr
}

// Smoothed is the smoother's output: a position, its associated velocity
// estimate, and whether it reflects a fresh point-solution or a
// dead-reckoned repair.
type Smoothed struct {
	Pos          [3]float64
	Velocity     [3]float64
	DeadReckoned bool
}

// Smoother implements the position-domain carrier-smoothing state machine
// of spec.md §4.G: it blends point-solutions with TDPD-derived
// displacement to damp point-solution noise, and dead-reckons through
// point-solution outages using the last known-good velocity.
type Smoother struct {
	count              int
	posSmoothed        [3]float64
	velocityTDPD       [3]float64
	timeStart          Time
	timePrevTDPD       Time
	timePrevPointSol   Time
	smoothingWindow    float64
}

// NewSmoother creates an empty smoother. smoothingWindowSec is the age
// threshold (rtk->opt.smoothing_window) inside which a point-solution's
// residual against the extrapolated position is checked and the inlier
// count incremented.
func NewSmoother(smoothingWindowSec float64) *Smoother {
	return &Smoother{smoothingWindow: smoothingWindowSec}
}

// Update advances the smoother by one epoch given the current point
// solution, the TDPD displacement for the same epoch pair, and the TDPD
// status. It returns the blended/dead-reckoned position, the stored TDPD
// velocity when a displacement was available, and whether the position was
// dead-reckoned.
func (s *Smoother) Update(sol PointSolution, displacementTDPD [3]float64, tdpdStatus robust.Status) Smoothed {
	pntposOK := sol.Valid
	tdpdOK := tdpdStatus == robust.Succeed

	age := float64(sol.Time - s.timeStart)
	if age < 0 {
		age = -age
	}
	dt := float64(sol.Time - s.timePrevPointSol)
	isStale := absf(dt) > smoothingMaxPointSolutionDelay

	if tdpdOK && sol.TT != 0.0 {
		s.timePrevTDPD = sol.Time
		s.velocityTDPD = displacementTDPD
		vecmath.Scale3(1.0/sol.TT, &s.velocityTDPD)
	}

	dtExtrapolation := float64(sol.Time - s.timePrevTDPD)
	displExtrapolation := vecmath.Norm3(&s.velocityTDPD) * dtExtrapolation
	velocityStale := dtExtrapolation > smoothingMaxExtrapolationTime ||
		displExtrapolation > smoothingMaxExtrapolationDispl

	displacementAvailable := tdpdOK
	effectiveDisplacement := displacementTDPD
	if !tdpdOK && !velocityStale {
		effectiveDisplacement = s.velocityTDPD
		vecmath.Scale3(sol.TT, &effectiveDisplacement)
		displacementAvailable = true
	}

	posExtrapolated := [3]float64{
		s.posSmoothed[0] + effectiveDisplacement[0],
		s.posSmoothed[1] + effectiveDisplacement[1],
		s.posSmoothed[2] + effectiveDisplacement[2],
	}

	if displacementAvailable && pntposOK && s.count > 0 && !isStale && age <= s.smoothingWindow {
		residual := [3]float64{
			sol.Pos[0] - posExtrapolated[0],
			sol.Pos[1] - posExtrapolated[1],
			sol.Pos[2] - posExtrapolated[2],
		}
		if vecmath.Norm3(&residual) > smoothingMaxResidual {
			pntposOK = false
		}
	}

	isInit := s.count == 0 && pntposOK
	isReinit := (isStale || !displacementAvailable) && pntposOK

	actionsNeeded := dt != 0.0 || s.count == 0
	actionsImpossible := !displacementAvailable && !pntposOK

	deadReckoned := false

	if actionsNeeded && !actionsImpossible {
		switch {
		case isInit || isReinit:
			s.count = 1
			s.posSmoothed = sol.Pos
			s.timeStart = sol.Time
			s.timePrevPointSol = sol.Time

		case pntposOK:
			if age <= s.smoothingWindow && tdpdOK {
				s.count++
			}
			weight := 1.0 / float64(s.count)
			vecmath.LinearCombination3(weight, &sol.Pos, 1-weight, &posExtrapolated, &s.posSmoothed)
			s.timePrevPointSol = sol.Time

		case displacementAvailable:
			vecmath.Add3(&s.posSmoothed, &effectiveDisplacement)
			deadReckoned = true
		}
	}

	out := Smoothed{Pos: s.posSmoothed, DeadReckoned: deadReckoned}
	if displacementAvailable {
		out.Velocity = s.velocityTDPD
	}
	return out
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
