// Package metrics exports Prometheus metrics for the decision engine and
// the audit log.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus instruments.
type Metrics struct {
	decisions        *prometheus.CounterVec
	decisionDuration prometheus.Histogram
	overlayDenials   *prometheus.CounterVec
	auditAppends     prometheus.Counter
	auditEvictions   prometheus.Counter
	chainCacheHits   prometheus.Counter
	chainCacheMisses prometheus.Counter
}

// New registers and returns the engine metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "polisgate_decisions_total",
			Help: "Total number of permission decisions by result",
		}, []string{"result"}),
		decisionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "polisgate_decision_duration_seconds",
			Help:    "Latency of permission evaluations",
			Buckets: prometheus.DefBuckets,
		}),
		overlayDenials: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "polisgate_overlay_denials_total",
			Help: "Total number of base-granted decisions denied by domain checks, by check",
		}, []string{"check"}),
		auditAppends: promauto.NewCounter(prometheus.CounterOpts{
			Name: "polisgate_audit_entries_total",
			Help: "Total number of audit entries appended",
		}),
		auditEvictions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "polisgate_audit_evictions_total",
			Help: "Total number of audit entries evicted from the in-memory buffer",
		}),
		chainCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "polisgate_chain_cache_hits_total",
			Help: "Total number of role chain resolution cache hits",
		}),
		chainCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "polisgate_chain_cache_misses_total",
			Help: "Total number of role chain resolution cache misses",
		}),
	}
}

// ObserveDecision records one completed evaluation.
func (m *Metrics) ObserveDecision(granted bool, duration time.Duration) {
	result := "denied"
	if granted {
		result = "granted"
	}
	m.decisions.WithLabelValues(result).Inc()
	m.decisionDuration.Observe(duration.Seconds())
}

// ObserveOverlayDenial records a domain check downgrading a grant.
func (m *Metrics) ObserveOverlayDenial(check string) {
	m.overlayDenials.WithLabelValues(check).Inc()
}

// ObserveAuditAppend records one audit entry append.
func (m *Metrics) ObserveAuditAppend() {
	m.auditAppends.Inc()
}

// ObserveAuditEviction records one FIFO eviction from the audit buffer.
func (m *Metrics) ObserveAuditEviction() {
	m.auditEvictions.Inc()
}

// ObserveChainCache records a chain cache lookup.
func (m *Metrics) ObserveChainCache(hit bool) {
	if hit {
		m.chainCacheHits.Inc()
	} else {
		m.chainCacheMisses.Inc()
	}
}
