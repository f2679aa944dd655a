package coordinator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// MetricsNamespace is the namespace for all crawldash metrics.
	MetricsNamespace = "crawldash"

	// MetricsSubsystem is the subsystem for coordinator metrics.
	MetricsSubsystem = "crawl"
)

// Metrics holds the Prometheus metrics of a Coordinator.
type Metrics struct {
	Started   prometheus.Counter
	Cancelled prometheus.Counter
	Settled   *prometheus.CounterVec
	InFlight  prometheus.Gauge
	Duration  *prometheus.HistogramVec
}

// NewMetrics creates the coordinator metrics and registers them with reg.
// A nil reg creates unregistered metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Started: factory.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "started_total",
			Help:      "Total number of crawl requests issued",
		}),
		Cancelled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "cancelled_total",
			Help:      "Total number of crawls cancelled by a toggle",
		}),
		Settled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "settlements_total",
			Help:      "Total number of crawl settlements by outcome",
		}, []string{"outcome"}),
		InFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "in_flight",
			Help:      "Number of crawl handles currently held",
		}),
		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "duration_seconds",
			Help:      "Time from crawl start to settlement in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"outcome"}),
	}
}
