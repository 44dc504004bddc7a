// Package metrics exposes prometheus counters for the decision pipeline.
package metrics

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const namespace = "screenwise"

// Registry bundles the counters recorded by the pipeline. A nil *Registry
// is valid and records nothing.
type Registry struct {
	reg       *prometheus.Registry
	fallbacks *prometheus.CounterVec
	loads     *prometheus.CounterVec
	clamped   *prometheus.CounterVec
	sources   *prometheus.CounterVec
}

// New creates a registry with all counters registered.
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallback_total",
			Help:      "Learned-model calls that fell back to rules, by call site and reason.",
		}, []string{"site", "reason"}),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_load_total",
			Help:      "Model artifact load attempts, by kind and result.",
		}, []string{"kind", "result"}),
		clamped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clamped_outputs_total",
			Help:      "Model outputs clamped into a valid enumeration, by call site.",
		}, []string{"site"}),
		sources: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Decisions served, by call site and source (learned or rules).",
		}, []string{"site", "source"}),
	}
	r.reg.MustRegister(r.fallbacks, r.loads, r.clamped, r.sources)
	return r
}

// Fallback records a fall-through to rules.
func (r *Registry) Fallback(site, reason string) {
	if r == nil {
		return
	}
	r.fallbacks.WithLabelValues(site, reason).Inc()
}

// ModelLoad records an artifact load attempt.
func (r *Registry) ModelLoad(kind, result string) {
	if r == nil {
		return
	}
	r.loads.WithLabelValues(kind, result).Inc()
}

// Clamped records a clamped model output.
func (r *Registry) Clamped(site string) {
	if r == nil {
		return
	}
	r.clamped.WithLabelValues(site).Inc()
}

// Decision records which path served a decision.
func (r *Registry) Decision(site, source string) {
	if r == nil {
		return
	}
	r.sources.WithLabelValues(site, source).Inc()
}

// Prometheus returns the underlying registry for exposition.
func (r *Registry) Prometheus() *prometheus.Registry {
	return r.reg
}

// WriteText writes every gathered family in the prometheus text
// exposition format. Vectors with no observed label set are not gathered,
// so untouched counters are left out.
func (r *Registry) WriteText(w io.Writer) error {
	if r == nil {
		return nil
	}
	families, err := r.reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}
