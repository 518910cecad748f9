package sweeper

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the sweeper's prometheus collectors.
type Metrics struct {
	runs     prometheus.Counter
	deleted  prometheus.Counter
	errors   prometheus.Counter
	current  prometheus.Gauge
	duration prometheus.Histogram
}

// NewMetrics creates the sweeper collectors and registers them on reg. A nil reg leaves
// them unregistered, which is what tests usually want.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transient_sweep_runs_total",
			Help: "Total number of retention sweeps performed.",
		}),
		deleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transient_files_deleted_total",
			Help: "Total number of transient files reclaimed by the sweeper.",
		}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transient_sweep_errors_total",
			Help: "Total number of list, stat or delete failures seen while sweeping.",
		}),
		current: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "transient_files_current",
			Help: "Number of transient files left after the last sweep.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "transient_sweep_duration_seconds",
			Help:    "Duration of retention sweeps.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.runs, m.deleted, m.errors, m.current, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
