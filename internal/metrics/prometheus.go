// Package metrics exposes Prometheus counters for site config writes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Write results.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// PrometheusMetrics holds the server's collectors.
type PrometheusMetrics struct {
	// ConfigWrites counts document writes by source (save, migrate, publish, reset) and result.
	ConfigWrites *prometheus.CounterVec
	// GlobalCache counts global document lookups by outcome (hit, miss, error).
	GlobalCache *prometheus.CounterVec
	// Uploads counts uploaded assets by storage backend.
	Uploads *prometheus.CounterVec
}

// NewPrometheusMetrics creates the collectors and registers them on reg.
func NewPrometheusMetrics(reg prometheus.Registerer) (*PrometheusMetrics, error) {
	m := &PrometheusMetrics{
		ConfigWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "site_config",
			Name:      "writes_total",
			Help:      "Appearance document writes by source and result.",
		}, []string{"source", "result"}),
		GlobalCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "site_config",
			Name:      "global_cache_total",
			Help:      "Global appearance document cache lookups by outcome.",
		}, []string{"outcome"}),
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "site_config",
			Name:      "uploads_total",
			Help:      "Uploaded media assets by storage backend.",
		}, []string{"backend"}),
	}

	for _, c := range []prometheus.Collector{m.ConfigWrites, m.GlobalCache, m.Uploads} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordWrite counts one document write. Safe on a nil receiver.
func (m *PrometheusMetrics) RecordWrite(source string, err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.ConfigWrites.WithLabelValues(source, result).Inc()
}

// RecordCache counts one global cache lookup.
func (m *PrometheusMetrics) RecordCache(outcome string) {
	if m == nil {
		return
	}
	m.GlobalCache.WithLabelValues(outcome).Inc()
}

// RecordUpload counts one stored upload.
func (m *PrometheusMetrics) RecordUpload(backend string) {
	if m == nil {
		return
	}
	m.Uploads.WithLabelValues(backend).Inc()
}
