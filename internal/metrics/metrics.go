package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curator_api_requests_total",
			Help: "Total number of upstream API requests executed",
		},
		[]string{"endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "curator_api_request_duration_seconds",
			Help:    "Duration of upstream API requests in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"endpoint"},
	)

	VideosResolvedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curator_videos_resolved_total",
			Help: "Detail lookups by outcome",
		},
		[]string{"result"},
	)

	ExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curator_exports_total",
			Help: "Report files written, by format and outcome",
		},
		[]string{"format", "result"},
	)
)

// RecordRequest updates request metrics. status is the HTTP status code, or
// 0 when the request failed before a response arrived.
func RecordRequest(endpoint string, status int, d time.Duration) {
	statusStr := "error"
	if status > 0 {
		statusStr = strconv.Itoa(status)
	}
	APIRequestsTotal.WithLabelValues(endpoint, statusStr).Inc()
	APIRequestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// RecordResolve counts one detail lookup.
func RecordResolve(ok bool) {
	result := "failed"
	if ok {
		result = "ok"
	}
	VideosResolvedTotal.WithLabelValues(result).Inc()
}

// RecordExport counts one export file write.
func RecordExport(format string, err error) {
	result := "ok"
	if err != nil {
		result = "failed"
	}
	ExportsTotal.WithLabelValues(format, result).Inc()
}

// Server encapsulates an HTTP server for Prometheus metrics.
type Server struct {
	srv *http.Server
}

// Start begins listening on the specified port and exposes /metrics.
func Start(port int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		// Suppress the error from intentional shutdown
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "addr", srv.Addr, "error", err)
		}
	}()

	return &Server{srv: srv}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
