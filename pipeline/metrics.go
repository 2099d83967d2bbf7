package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"time"
)

// Metrics counts the work done by tagging pipelines. A nil *Metrics records nothing.
type Metrics struct {
	sentences prometheus.Counter
	tokens    prometheus.Counter
	failures  prometheus.Counter
	latency   prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		sentences: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "melt",
			Name:      "sentences_tagged_total",
			Help:      "Number of sentences tagged successfully.",
		}),
		tokens: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "melt",
			Name:      "tokens_tagged_total",
			Help:      "Number of tokens tagged.",
		}),
		failures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "melt",
			Name:      "sentence_failures_total",
			Help:      "Number of sentences that could not be tagged.",
		}),
		latency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "melt",
			Name:      "request_duration_seconds",
			Help:      "Time spent tagging one request.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
}

func (m *Metrics) sentenceTagged(tokens int) {
	if m == nil {
		return
	}
	m.sentences.Inc()
	m.tokens.Add(float64(tokens))
}

func (m *Metrics) sentenceFailed() {
	if m == nil {
		return
	}
	m.failures.Inc()
}

func (m *Metrics) requestDone(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.latency.Observe(elapsed.Seconds())
}
