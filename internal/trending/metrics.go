package trending

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for a Store. A nil *Metrics records nothing.
type Metrics struct {
	mutations       *prometheus.CounterVec
	topics          prometheus.Gauge
	refreshDuration prometheus.Histogram
	refreshFailures prometheus.Counter
}

// NewMetrics registers the store collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trendline",
			Subsystem: "trending",
			Name:      "mutations_total",
			Help:      "Successful trending store mutations by operation.",
		}, []string{"op"}),
		topics: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "trendline",
			Subsystem: "trending",
			Name:      "topics",
			Help:      "Number of topics currently held.",
		}),
		refreshDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "trendline",
			Subsystem: "trending",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of successful topic source fetches.",
			Buckets:   prometheus.DefBuckets,
		}),
		refreshFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "trendline",
			Subsystem: "trending",
			Name:      "refresh_failures_total",
			Help:      "Refreshes that failed or timed out.",
		}),
	}
}

func (m *Metrics) mutated(reason Reason, count int) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(string(reason)).Inc()
	m.topics.Set(float64(count))
}

func (m *Metrics) setTopics(count int) {
	if m == nil {
		return
	}
	m.topics.Set(float64(count))
}

func (m *Metrics) observeRefresh(d time.Duration) {
	if m == nil {
		return
	}
	m.refreshDuration.Observe(d.Seconds())
}

func (m *Metrics) refreshFailed() {
	if m == nil {
		return
	}
	m.refreshFailures.Inc()
}
