/*------------------------------------------------------------------------------
* rlsqconfig.go : robust/IRLS/RANSAC/TDPD hyperparameter loading
*
*          replaces options.go's LoadOpts/SaveOpts ini-style parser: same
*          concern (externalize numeric options to a file), ecosystem
*          libraries instead of the teacher's hand-rolled key=value reader.
 */
package rlsqconfig

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mfkiwl/RTKLIB-1/internal/irls"
	"github.com/mfkiwl/RTKLIB-1/internal/robust"
	"github.com/mfkiwl/RTKLIB-1/internal/tdpd"
)

// Config is the full set of tunable numeric options across the robust
// cascade and the TDPD estimator, loaded from a YAML file with optional
// environment-variable overrides for container/CI deployment.
type Config struct {
	Robust struct {
		RansacMinSamples int     `yaml:"ransac_min_samples"`
		RansacMaxSamples int     `yaml:"ransac_max_samples"`
		IRLSMaxIter      int     `yaml:"irls_max_iter"`
		OutlierThres     float64 `yaml:"outlier_thres"`
		FineThres        float64 `yaml:"fine_thres"`
		Precision        float64 `yaml:"precision"`
	} `yaml:"robust"`

	IRLS struct {
		MinInliersProportion float64 `yaml:"min_inliers_proportion"`
	} `yaml:"irls"`

	TDPD struct {
		MinElevationRad float64 `yaml:"min_elevation_rad"`
		SmoothingWindow float64 `yaml:"smoothing_window_sec"`
	} `yaml:"tdpd"`
}

// Default mirrors the fixed TDPD tuple from spec.md §6:
// (25, 50, 10, 0.1, 0.02, 0.001), plus the 0.80 inlier floor from §4.F.
func Default() Config {
	var c Config
	c.Robust.RansacMinSamples = 25
	c.Robust.RansacMaxSamples = 50
	c.Robust.IRLSMaxIter = 10
	c.Robust.OutlierThres = 0.1
	c.Robust.FineThres = 0.02
	c.Robust.Precision = 0.001
	c.IRLS.MinInliersProportion = 0.80
	c.TDPD.MinElevationRad = 0.2618 // ~15 degrees
	c.TDPD.SmoothingWindow = 60.0
	return c
}

// Load reads a YAML config file, falling back to Default() for any field
// the file omits, then applies RLSQ_-prefixed environment overrides —
// loaded via godotenv from an optional .env file plus the real
// environment — so a container can tune thresholds without a rebuild.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("rlsqconfig: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("rlsqconfig: parse %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return cfg, fmt.Errorf("rlsqconfig: load env file %s: %w", envFile, err)
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideFloat("RLSQ_OUTLIER_THRES", &cfg.Robust.OutlierThres)
	overrideFloat("RLSQ_FINE_THRES", &cfg.Robust.FineThres)
	overrideFloat("RLSQ_PRECISION", &cfg.Robust.Precision)
	overrideInt("RLSQ_RANSAC_MIN_SAMPLES", &cfg.Robust.RansacMinSamples)
	overrideInt("RLSQ_RANSAC_MAX_SAMPLES", &cfg.Robust.RansacMaxSamples)
	overrideInt("RLSQ_IRLS_MAX_ITER", &cfg.Robust.IRLSMaxIter)
	overrideFloat("RLSQ_MIN_INLIERS_PROPORTION", &cfg.IRLS.MinInliersProportion)
	overrideFloat("RLSQ_TDPD_MIN_ELEVATION_RAD", &cfg.TDPD.MinElevationRad)
	overrideFloat("RLSQ_TDPD_SMOOTHING_WINDOW", &cfg.TDPD.SmoothingWindow)
}

func overrideFloat(key string, dst *float64) {
	if v, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = parsed
		}
	}
}

func overrideInt(key string, dst *int) {
	if v, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

// RobustOptions projects the robust-cascade fields into robust.Options.
func (c Config) RobustOptions() robust.Options {
	return robust.Options{
		RansacMinSamples: c.Robust.RansacMinSamples,
		RansacMaxSamples: c.Robust.RansacMaxSamples,
		IRLSMaxIter:      c.Robust.IRLSMaxIter,
		OutlierThres:     c.Robust.OutlierThres,
		FineThres:         c.Robust.FineThres,
		Precision:        c.Robust.Precision,
	}
}

// IRLSOptions builds a standalone irls.Options using the outlier
// threshold as the downweight threshold, for callers exercising IRLS on
// its own rather than through the robust cascade.
func (c Config) IRLSOptions() irls.Options {
	return irls.Options{
		MaxIter:              c.Robust.IRLSMaxIter,
		DownweightThres:      c.Robust.OutlierThres,
		MinInliersProportion: c.IRLS.MinInliersProportion,
		Precision:            c.Robust.Precision,
	}
}

// TDPDOptions projects the TDPD-specific fields into tdpd.Options.
func (c Config) TDPDOptions() tdpd.Options {
	return tdpd.Options{MinElevationRad: c.TDPD.MinElevationRad}
}
