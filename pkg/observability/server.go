package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/core-tools/hsu-healthmon-go/pkg/logging"
)

// MetricsServer serves the Prometheus metrics endpoint on its own port
type MetricsServer struct {
	server *http.Server
	logger logging.Logger
}

// NewMetricsServer creates a metrics HTTP server exposing the given
// metrics at /metrics
func NewMetricsServer(port int, metrics *HealthMetrics, logger logging.Logger) *MetricsServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))

	return &MetricsServer{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Start begins serving metrics in a blocking call. Returns
// http.ErrServerClosed on graceful shutdown
func (s *MetricsServer) Start() error {
	s.logger.Infof("Metrics server starting, addr: %s", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the metrics server
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
