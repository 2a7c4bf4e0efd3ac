/*------------------------------------------------------------------------------
* main.go : tdpdsolve command
*
*          a small command in the spirit of the teacher's app/rnx2rtkp and
*          app/plot, upgraded from their bespoke flag parsing to cobra per
*          the ecosystem-over-stdlib rule; reads JSON Lines epoch pairs,
*          runs the TDPD estimator and smoother over them, logs each
*          verdict, records solver metrics into in-process collectors
*          (they are not pushed or served), and tags every output record
*          with a per-run correlation ID.
 */
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mfkiwl/RTKLIB-1/internal/lsqmetrics"
	"github.com/mfkiwl/RTKLIB-1/internal/obslog"
	"github.com/mfkiwl/RTKLIB-1/internal/rlsqconfig"
	"github.com/mfkiwl/RTKLIB-1/internal/robust"
	"github.com/mfkiwl/RTKLIB-1/internal/tdpd"
)

// epochPairRecord is one line of the input file: a current/previous
// observation epoch pair plus the approximate receiver position to
// linearize around.
type epochPairRecord struct {
	ApproxPos    [3]float64            `json:"approx_pos"`
	Current      jsonEpoch             `json:"current"`
	Previous     jsonEpoch             `json:"previous"`
	Elevation    map[string]float64    `json:"elevation_rad"`
	SatPositions map[string][3]float64 `json:"sat_positions"`
}

type jsonEpoch struct {
	Time float64           `json:"time"`
	Obs  []jsonObservation `json:"obs"`
}

type jsonObservation struct {
	SatID int     `json:"sat_id"`
	L0    float64 `json:"l0"`
	P0    float64 `json:"p0"`
	SNR0  float64 `json:"snr0"`
	LLI0  uint8   `json:"lli0"`
}

func (r epochPairRecord) toEpochs() (tdpd.Epoch, tdpd.Epoch) {
	toObs := func(in []jsonObservation) []tdpd.Observation {
		out := make([]tdpd.Observation, len(in))
		for i, o := range in {
			out[i] = tdpd.Observation{SatID: o.SatID, L0: o.L0, P0: o.P0, SNR0: o.SNR0, LLI0: o.LLI0}
		}
		return out
	}
	curr := tdpd.Epoch{Time: tdpd.Time(r.Current.Time), Obs: toObs(r.Current.Obs)}
	prev := tdpd.Epoch{Time: tdpd.Time(r.Previous.Time), Obs: toObs(r.Previous.Obs)}
	return curr, prev
}

type passAllMask struct{}

func (passAllMask) Passes(role tdpd.Role, freqIdx int, elevationRad, snrDBHz float64) bool {
	return true
}

type staticElevation map[int]float64

func (s staticElevation) ElevationRad(satID int) float64 { return s[satID] }

// providedEphemeris resolves satellite positions from the input record's
// own sat_positions field, populated upstream by whatever ephemeris source
// produced the JSON Lines file (broadcast/precise propagation is out of
// scope here, spec.md §1).
type providedEphemeris map[int][3]float64

func (e providedEphemeris) PositionAt(satID int, t tdpd.Time) ([3]float64, bool) {
	pos, ok := e[satID]
	return pos, ok
}

func parseSatPositions(in map[string][3]float64) providedEphemeris {
	out := make(providedEphemeris, len(in))
	for k, v := range in {
		var satID int
		fmt.Sscanf(k, "%d", &satID)
		out[satID] = v
	}
	return out
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		envFile    string
		inputPath  string
		traceLevel int8
	)

	cmd := &cobra.Command{
		Use:   "tdpdsolve",
		Short: "Estimate receiver displacement from time-differenced carrier phases",
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := uuid.New().String()
			obslog.SetLevel(zerolog.Level(traceLevel))

			cfg, err := rlsqconfig.Load(configPath, envFile)
			if err != nil {
				return fmt.Errorf("tdpdsolve: %w", err)
			}

			metrics := lsqmetrics.New()

			var in *os.File
			if inputPath == "" || inputPath == "-" {
				in = os.Stdin
			} else {
				in, err = os.Open(inputPath)
				if err != nil {
					return fmt.Errorf("tdpdsolve: open input: %w", err)
				}
				defer in.Close()
			}

			estimator := tdpd.NewEstimator(cfg.TDPDOptions(), passAllMask{}, tdpd.Rover)
			smoother := tdpd.NewSmoother(cfg.TDPD.SmoothingWindow)

			scanner := bufio.NewScanner(in)
			enc := json.NewEncoder(os.Stdout)

			for scanner.Scan() {
				line := scanner.Bytes()
				if len(line) == 0 {
					continue
				}

				var rec epochPairRecord
				if err := json.Unmarshal(line, &rec); err != nil {
					return fmt.Errorf("tdpdsolve: decode record: %w", err)
				}

				curr, prev := rec.toEpochs()
				elev := make(staticElevation, len(rec.Elevation))
				for k, v := range rec.Elevation {
					var satID int
					fmt.Sscanf(k, "%d", &satID)
					elev[satID] = v
				}

				nav := epochNav{providedEphemeris: parseSatPositions(rec.SatPositions)}
				result, ok := estimator.Estimate(curr, prev, nav, elev, rec.ApproxPos)
				status := "GATED"
				if ok {
					status = result.Status.String()
					metrics.ObserveVerdict(status)
					metrics.ObserveSolverStats(result.Stats.IRLSIterations, result.Stats.RANSACTrials)
				}
				obslog.Solve("tdpdsolve", status, len(curr.Obs), 4)

				// No external point-positioning filter is wired here (it
				// is out of scope, spec.md §1), so the point-solution
				// validity fed to the smoother is approximated from the
				// TDPD outcome itself.
				smoothed := smoother.Update(tdpd.PointSolution{
					Time:  curr.Time,
					Valid: ok && result.Status != robust.Fail,
					Pos:   rec.ApproxPos,
					TT:    float64(curr.Time - prev.Time),
				}, result.Displacement, result.Status)

				out := map[string]interface{}{
					"run_id":       runID,
					"status":       status,
					"displacement": result.Displacement,
					"clock_shift":  result.ClockShift,
					"smoothed_pos": smoothed.Pos,
				}
				if err := enc.Encode(out); err != nil {
					return fmt.Errorf("tdpdsolve: encode output: %w", err)
				}
			}
			return scanner.Err()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML hyperparameter file")
	cmd.Flags().StringVar(&envFile, "env-file", "", "optional .env file for RLSQ_* overrides")
	cmd.Flags().StringVarP(&inputPath, "input", "i", "-", "JSON Lines file of epoch pairs, or - for stdin")
	cmd.Flags().Int8VarP(&traceLevel, "trace", "x", int8(zerolog.InfoLevel), "zerolog level (trace=-1, debug=0, info=1, ...)")

	return cmd
}

// epochNav pairs one record's providedEphemeris with the fixed L1
// wavelength; multi-frequency/multi-constellation wavelength tables are
// out of scope (spec.md §1).
type epochNav struct{ providedEphemeris }

func (epochNav) Wavelength(satID int, freqIdx int) float64 { return 0.1903 }

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
