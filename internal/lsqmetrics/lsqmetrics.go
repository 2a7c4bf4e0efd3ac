/*------------------------------------------------------------------------------
* lsqmetrics.go : Prometheus collectors for the robust-solver cascade
*
*          grounded on OutMetrics/OutSolMetrics (app/plot/plot.go), which
*          builds prometheus.GaugeVec collectors from solution data and
*          pushes them; here the same pattern reports solver verdicts
*          instead of receiver positions.
 */
package lsqmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Collectors bundles every metric the robust cascade and TDPD estimator
// report. Call New once per process and share it across solver instances;
// the solver core itself never touches these (spec.md §5), and neither does
// tdpd — only cmd/tdpdsolve records into them.
type Collectors struct {
	Verdicts       *prometheus.CounterVec
	IRLSIterations prometheus.Histogram
	RANSACTrials   prometheus.Histogram
}

// New builds a fresh set of collectors, unregistered with any registry.
func New() *Collectors {
	return &Collectors{
		Verdicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rlsq_robust_verdict_total",
				Help: "count of robust-cascade verdicts by status",
			},
			[]string{"status"},
		),
		IRLSIterations: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rlsq_irls_iterations",
				Help:    "number of reweighting iterations IRLS ran before exit",
				Buckets: prometheus.LinearBuckets(1, 2, 15),
			},
		),
		RANSACTrials: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rlsq_ransac_trials",
				Help:    "number of random-sample trials RANSAC ran before exit",
				Buckets: prometheus.LinearBuckets(1, 5, 20),
			},
		),
	}
}

// Collect returns every collector so callers can register them with a
// prometheus.Registerer, same shape as OutMetrics's []prometheus.Collector.
func (c *Collectors) Collect() []prometheus.Collector {
	return []prometheus.Collector{c.Verdicts, c.IRLSIterations, c.RANSACTrials}
}

// ObserveVerdict increments the counter for one robust-cascade outcome.
func (c *Collectors) ObserveVerdict(status string) {
	c.Verdicts.WithLabelValues(status).Inc()
}

// ObserveSolverStats records the IRLS iterations and RANSAC trials one
// robust-cascade run spent across all of its stages (robust.Stats).
func (c *Collectors) ObserveSolverStats(irlsIterations, ransacTrials int) {
	c.IRLSIterations.Observe(float64(irlsIterations))
	c.RANSACTrials.Observe(float64(ransacTrials))
}

// PushTo pushes a one-shot snapshot of the collectors to a Pushgateway,
// mirroring the teacher's push.New(...).Collector(...).Push() usage for
// ad-hoc/batch jobs rather than a scraped long-running server.
func PushTo(gatewayURL, jobName string, c *Collectors) error {
	pusher := push.New(gatewayURL, jobName)
	for _, collector := range c.Collect() {
		pusher = pusher.Collector(collector)
	}
	return pusher.Push()
}
