// Package metrics exposes classification and judge counters on a dedicated
// Prometheus registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shamburg82/J-VIBE/internal/engine"
)

const namespace = "tlfmeta"

// Judge call outcomes.
const (
	JudgeOK      = "ok"
	JudgeError   = "error"
	JudgeTimeout = "timeout"
	JudgeSkipped = "skipped"
)

// Metrics holds the service's collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	records      *prometheus.CounterVec
	transitions  prometheus.Counter
	cacheHits    prometheus.Counter
	judgeCalls   *prometheus.CounterVec
	judgeLatency prometheus.Histogram
	jobs         *prometheus.CounterVec
	queueDepth   prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Classified chunks by inheritance decision.",
		}, []string{"decision"}),
		transitions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Committed TLF context transitions.",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "header_cache_hits_total",
			Help:      "Header chunks resolved from the header cache.",
		}),
		judgeCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "judge_calls_total",
			Help:      "External judge calls by outcome.",
		}, []string{"outcome"}),
		judgeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "judge_latency_seconds",
			Help:      "External judge call latency.",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Finished ingestion jobs by final status.",
		}, []string{"status"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Jobs waiting for a worker.",
		}),
	}
	m.registry.MustRegister(
		m.records, m.transitions, m.cacheHits,
		m.judgeCalls, m.judgeLatency, m.jobs, m.queueDepth,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveRecords counts decisions, transitions and cache hits in one
// classified document.
func (m *Metrics) ObserveRecords(recs []engine.Record) {
	if m == nil {
		return
	}
	// Early and late commits both grow the history.
	prev := 0
	for i := range recs {
		r := &recs[i]
		m.records.WithLabelValues(string(r.Decision)).Inc()
		if r.Transitions > prev {
			m.transitions.Add(float64(r.Transitions - prev))
			prev = r.Transitions
		}
		if r.FromCache() {
			m.cacheHits.Inc()
		}
	}
}

// ObserveJudge records one judge call. Latency is only observed for calls
// that reached the judge.
func (m *Metrics) ObserveJudge(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.judgeCalls.WithLabelValues(outcome).Inc()
	if outcome != JudgeSkipped {
		m.judgeLatency.Observe(took.Seconds())
	}
}

func (m *Metrics) ObserveJob(status string) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(status).Inc()
}

func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}
