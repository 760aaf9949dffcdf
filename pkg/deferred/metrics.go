package deferred

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports pool and scheduler activity to Prometheus.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	workers      prometheus.Gauge
	queueDepth   prometheus.Gauge
	submitted    prometheus.Counter
	panicked     prometheus.Counter
	collected    *prometheus.CounterVec
	tickDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		workers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dancer",
			Subsystem: "pool",
			Name:      "workers",
			Help:      "Number of live worker goroutines",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dancer",
			Subsystem: "scheduler",
			Name:      "queue_depth",
			Help:      "Completed results waiting to be collected",
		}),
		submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dancer",
			Subsystem: "pool",
			Name:      "jobs_submitted_total",
			Help:      "Total jobs accepted by the worker pool",
		}),
		panicked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dancer",
			Subsystem: "pool",
			Name:      "jobs_panicked_total",
			Help:      "Total jobs that panicked",
		}),
		collected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dancer",
				Subsystem: "scheduler",
				Name:      "results_collected_total",
				Help:      "Total results handed to collectors",
			},
			[]string{"task"},
		),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dancer",
			Subsystem: "scheduler",
			Name:      "tick_duration_seconds",
			Help:      "Time spent draining results per tick",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}

	if reg != nil {
		reg.MustRegister(m.workers, m.queueDepth, m.submitted, m.panicked, m.collected, m.tickDuration)
	}
	return m
}

func (m *Metrics) setWorkers(n int) {
	if m == nil {
		return
	}
	m.workers.Set(float64(n))
}

func (m *Metrics) setQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

func (m *Metrics) jobSubmitted() {
	if m == nil {
		return
	}
	m.submitted.Inc()
}

func (m *Metrics) jobPanicked() {
	if m == nil {
		return
	}
	m.panicked.Inc()
}

func (m *Metrics) resultCollected(task string) {
	if m == nil {
		return
	}
	m.collected.WithLabelValues(task).Inc()
}

func (m *Metrics) observeTick(d time.Duration) {
	if m == nil {
		return
	}
	m.tickDuration.Observe(d.Seconds())
}
