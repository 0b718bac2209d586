package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's prometheus collectors
// A nil *Metrics records nothing
type Metrics struct {
	Ticks           prometheus.Counter
	ProcessDuration prometheus.Histogram
	Active          *prometheus.GaugeVec
	Clipped         prometheus.Counter
	Faults          prometheus.Counter
	Recordings      *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg when non-nil
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tickgraph_ticks_total",
			Help: "Total number of processed ticks",
		}),
		ProcessDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tickgraph_process_duration_seconds",
			Help:    "Time spent rendering one output-stream block",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 12),
		}),
		Active: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tickgraph_active_nodes",
				Help: "Number of active entries by set",
			},
			[]string{"set"},
		),
		Clipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tickgraph_clipped_samples_total",
			Help: "Total number of output samples hard clipped to [-1, 1]",
		}),
		Faults: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tickgraph_node_faults_total",
			Help: "Total number of isolated node evaluation failures",
		}),
		Recordings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tickgraph_recordings_total",
				Help: "Total number of finished recordings by outcome",
			},
			[]string{"outcome"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Ticks, m.ProcessDuration, m.Active, m.Clipped, m.Faults, m.Recordings)
	}
	return m
}

func (m *Metrics) observeProcess(ticks int, clipped int, d time.Duration) {
	if m == nil {
		return
	}
	m.Ticks.Add(float64(ticks))
	m.Clipped.Add(float64(clipped))
	m.ProcessDuration.Observe(d.Seconds())
}

func (m *Metrics) setActive(set string, n int) {
	if m == nil {
		return
	}
	m.Active.WithLabelValues(set).Set(float64(n))
}

func (m *Metrics) fault() {
	if m == nil {
		return
	}
	m.Faults.Inc()
}

func (m *Metrics) recording(outcome string) {
	if m == nil {
		return
	}
	m.Recordings.WithLabelValues(outcome).Inc()
}
