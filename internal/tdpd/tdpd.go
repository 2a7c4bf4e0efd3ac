/*------------------------------------------------------------------------------
* tdpd.go : time-differenced phase displacement (TDPD) estimator
*
*          ported from estimate_displacement_by_tdiff_phases and its
*          helpers (original_source/src/extensions/tdiff_phases/tdpd.c)
 */
package tdpd

import (
	"github.com/mfkiwl/RTKLIB-1/internal/lsqcore"
	"github.com/mfkiwl/RTKLIB-1/internal/robust"
	"github.com/mfkiwl/RTKLIB-1/internal/vecmath"
)

// Time is seconds on whatever epoch the caller's ephemeris and observation
// timestamps share; only differences between Time values are meaningful.
type Time float64

// Role distinguishes the receiver a TDPD estimate is being produced for.
// SNR masking differs between the rover and a reference/base station
// (verify_obs_data's rover_id), so it is threaded through explicitly.
type Role int

const (
	Rover Role = iota
	Base
)

const (
	nUnknowns   = 4
	maxEpochGap = 2.0 // seconds; spec.md §4.G step 1
)

// Observation is one satellite's per-epoch phase/pseudorange record, cut
// down to the fields TDPD actually consumes from ObsD.
type Observation struct {
	SatID int
	L0    float64 // carrier phase, cycles
	P0    float64 // pseudorange, metres
	SNR0  float64 // carrier-to-noise density, dB-Hz
	LLI0  uint8   // loss-of-lock indicator bits
}

// Epoch is one receiver observation epoch: a timestamp and the satellites
// observed in it.
type Epoch struct {
	Time Time
	Obs  []Observation
}

func (e Epoch) byID() map[int]Observation {
	m := make(map[int]Observation, len(e.Obs))
	for _, o := range e.Obs {
		m[o.SatID] = o
	}
	return m
}

// EphemerisProvider stands in for satposs: satellite position at a given
// time, or ok=false when the ephemeris cannot be evaluated.
type EphemerisProvider interface {
	PositionAt(satID int, t Time) (pos [3]float64, ok bool)
}

// SNRMask stands in for testsnr/SnrMask: whether a satellite's measured
// carrier-to-noise density clears the configured mask at its elevation,
// for the given receiver role and observation frequency.
type SNRMask interface {
	Passes(role Role, freqIdx int, elevationRad, snrDBHz float64) bool
}

// NavModel stands in for Nav: ephemeris plus per-satellite wavelengths.
type NavModel interface {
	EphemerisProvider
	Wavelength(satID int, freqIdx int) float64
}

// SatelliteStatus stands in for Rtk.Ssat[...].Azel: elevation lookups
// keyed by satellite ID, computed by the external positioning filter.
type SatelliteStatus interface {
	ElevationRad(satID int) float64
}

// Options are the TDPD estimator's fixed tuning knobs, separate from the
// robust-cascade options (which are hardwired per spec.md §4.G step 6).
type Options struct {
	MinElevationRad float64
}

// Estimator computes displacement and clock drift from two consecutive
// observation epochs via robust least squares on time-differenced phases.
type Estimator struct {
	opts    Options
	mask    SNRMask
	role    Role
	robustOpts robust.Options
}

// NewEstimator builds a TDPD estimator. The robust-cascade options are the
// fixed tuple from spec.md §6: (ransac_min=25, ransac_max=50,
// irls_max_iter=10, outlier=0.1, fine=0.02, precision=0.001).
func NewEstimator(opts Options, mask SNRMask, role Role) *Estimator {
	return &Estimator{
		opts: opts,
		mask: mask,
		role: role,
		robustOpts: robust.Options{
			RansacMinSamples: 25,
			RansacMaxSamples: 50,
			IRLSMaxIter:      10,
			OutlierThres:     0.1,
			FineThres:        0.02,
			Precision:        0.001,
		},
	}
}

// Result carries the TDPD displacement, clock shift, per-satellite
// residuals, and robust-cascade Stats of a successful or
// partially-successful estimate.
type Result struct {
	Status               robust.Status
	Displacement         [3]float64
	ClockShift           float64
	ResidualsBySatellite map[int]float64
	Stats                robust.Stats
}

// satGeometry holds the satellite position and line-of-sight vector shared
// by both epochs of a pair, since both are deliberately evaluated at the
// previous epoch's time (spec.md §9, "Open question — ephemeris time").
type satGeometry struct {
	pos [3]float64
	los [3]float64
}

func lineOfSight(satPos, approxPos [3]float64) [3]float64 {
	diff := [3]float64{satPos[0] - approxPos[0], satPos[1] - approxPos[1], satPos[2] - approxPos[2]}
	n := vecmath.Norm3(&diff)
	if n == 0 {
		return [3]float64{}
	}
	return [3]float64{diff[0] / n, diff[1] / n, diff[2] / n}
}

// geometryFor computes, for every satellite seen in either epoch, its
// ephemeris position and line-of-sight unit vector — both evaluated at
// curr/prev's *previous* timestamp, per define_satellites_geometry_tdpd.
// Because both calls use the same frozen ephemeris time, a satellite's
// current- and previous-epoch position and LOS are numerically identical;
// this is the source's intentional ephemeris-time bias, not a shortcut
// taken here.
func geometryFor(curr, prev Epoch, ephem EphemerisProvider, approxPos [3]float64) map[int]satGeometry {
	geom := make(map[int]satGeometry)
	seen := make(map[int]bool)
	for _, o := range curr.Obs {
		seen[o.SatID] = true
	}
	for _, o := range prev.Obs {
		seen[o.SatID] = true
	}
	for satID := range seen {
		pos, ok := ephem.PositionAt(satID, prev.Time)
		if !ok {
			continue
		}
		geom[satID] = satGeometry{pos: pos, los: lineOfSight(pos, approxPos)}
	}
	return geom
}

func (e *Estimator) obsValid(o Observation, elevationRad float64, satPos [3]float64) bool {
	if o.P0 == 0.0 {
		return false
	}
	if !e.mask.Passes(e.role, 0, elevationRad, o.SNR0) {
		return false
	}
	if elevationRad < e.opts.MinElevationRad {
		return false
	}
	if o.L0 == 0.0 {
		return false
	}
	if vecmath.Norm3(&satPos) <= 0.0 {
		return false
	}
	if o.LLI0&1 != 0 {
		return false
	}
	return true
}

// Estimate runs steps 1-7 of spec.md §4.G against a current/previous epoch
// pair. ok is false only for the epoch-gating rejection of step 1; a
// genuine robust-cascade failure is reported through Result.Status instead.
func (e *Estimator) Estimate(curr, prev Epoch, nav NavModel, status SatelliteStatus, approxPos [3]float64) (Result, bool) {
	result := Result{ResidualsBySatellite: make(map[int]float64)}

	if len(curr.Obs) == 0 || len(prev.Obs) == 0 {
		return result, false
	}
	if float64(curr.Time-prev.Time) > maxEpochGap {
		return result, false
	}

	geom := geometryFor(curr, prev, nav, approxPos)
	currByID := curr.byID()
	prevByID := prev.byID()

	type row struct {
		satID int
		a     [nUnknowns]float64
		y     float64
	}
	var rows []row

	for satID, co := range currByID {
		po, ok := prevByID[satID]
		if !ok {
			continue
		}
		g, ok := geom[satID]
		if !ok {
			continue
		}

		elev := status.ElevationRad(satID)
		if !e.obsValid(co, elev, g.pos) || !e.obsValid(po, elev, g.pos) {
			continue
		}

		lam := nav.Wavelength(satID, 0)
		u := g.los
		// geometry_adjustment and range_adjustment in the source both
		// difference a quantity against itself here, because sharing a
		// single frozen ephemeris time for both epochs makes u == u'
		// and s == s' (spec.md §9's ephemeris-time bias) — they vanish
		// rather than being dropped.
		y := (co.L0 - po.L0) * lam

		a := [nUnknowns]float64{-u[0], -u[1], -u[2], 1.0}
		rows = append(rows, row{satID: satID, a: a, y: y})
	}

	if len(rows) < nUnknowns+1 {
		result.Status = robust.Fail
		return result, true
	}

	problem := lsqcore.NewProblem(nUnknowns, len(rows))
	satIDs := make([]int, len(rows))
	for i, r := range rows {
		problem.Append(r.a[:], r.y)
		satIDs[i] = r.satID
	}

	sol := lsqcore.NewSolution(nUnknowns, len(rows))
	status2, stats := robust.Solve(problem, sol, e.robustOpts)

	result.Status = status2
	result.Stats = stats
	result.Displacement = [3]float64{sol.X[0], sol.X[1], sol.X[2]}
	result.ClockShift = sol.X[nUnknowns-1]
	for i, satID := range satIDs {
		result.ResidualsBySatellite[satID] = sol.Residuals[i]
	}

	return result, true
}
