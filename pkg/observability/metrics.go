package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/core-tools/hsu-healthmon-go/pkg/monitoring"
)

// HealthMetrics holds the Prometheus instruments for probe results and
// target health. It registers on its own registry so tests never collide
// with the global default
type HealthMetrics struct {
	registry *prometheus.Registry

	probesTotal      *prometheus.CounterVec
	transitionsTotal *prometheus.CounterVec
	targetHealthy    *prometheus.GaugeVec
}

func NewHealthMetrics() (*HealthMetrics, error) {
	registry := prometheus.NewRegistry()

	metrics := &HealthMetrics{
		registry: registry,
		probesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "healthmon",
				Name:      "probes_total",
				Help:      "Total probes executed, by target and result.",
			},
			[]string{"target", "result"},
		),
		transitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "healthmon",
				Name:      "health_transitions_total",
				Help:      "Health state transitions, by target and destination state.",
			},
			[]string{"target", "to"},
		),
		targetHealthy: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "healthmon",
				Name:      "target_healthy",
				Help:      "Whether the target is currently healthy (1) or not (0).",
			},
			[]string{"target"},
		),
	}

	for _, collector := range []prometheus.Collector{
		metrics.probesTotal,
		metrics.transitionsTotal,
		metrics.targetHealthy,
	} {
		if err := registry.Register(collector); err != nil {
			return nil, err
		}
	}

	return metrics, nil
}

// Registry exposes the registry for the metrics HTTP handler
func (m *HealthMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveProbe records a single probe verdict
func (m *HealthMetrics) ObserveProbe(target string, healthy bool) {
	result := "unhealthy"
	if healthy {
		result = "healthy"
	}
	m.probesTotal.WithLabelValues(target, result).Inc()
}

// ObserveTransition records a health state transition and updates the
// per-target health gauge
func (m *HealthMetrics) ObserveTransition(target string, to monitoring.HealthCheckStatus) {
	m.transitionsTotal.WithLabelValues(target, string(to)).Inc()

	switch to {
	case monitoring.HealthCheckStatusHealthy:
		m.targetHealthy.WithLabelValues(target).Set(1)
	case monitoring.HealthCheckStatusUnhealthy, monitoring.HealthCheckStatusStopped:
		m.targetHealthy.WithLabelValues(target).Set(0)
	}
}
