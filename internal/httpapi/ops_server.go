package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/galemire/elevator-dispatch/internal/infra/health"
	"github.com/galemire/elevator-dispatch/internal/infra/logging"
)

// OpsServer exposes the read-only diagnostics surface described in
// SPEC_FULL.md §2: Prometheus metrics and the aggregate health check, each
// on its own independently toggleable port. Neither touches the UDP core;
// disabling both changes nothing about hall-call handling.
type OpsServer struct {
	metrics *http.Server
	health  *http.Server
}

// NewOpsServer builds whichever of /metrics and /health the config
// enables. A nil *http.Server field means that surface is disabled.
func NewOpsServer(metricsEnabled bool, metricsPort int, healthEnabled bool, healthPort int, healthSvc *health.HealthService) *OpsServer {
	ops := &OpsServer{}

	if metricsEnabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		ops.metrics = &http.Server{Addr: fmt.Sprintf(":%d", metricsPort), Handler: mux}
	}

	if healthEnabled {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = logging.GenerateCorrelationID()
			}
			ctx = logging.WithRequestID(ctx, requestID)
			ctx = logging.NewContextWithCorrelation(ctx)

			status, results := healthSvc.GetOverallStatus(ctx)

			slog.Info("health check served",
				slog.String("component", "ops-server"),
				slog.String("request_id", logging.GetRequestID(ctx)),
				slog.String("correlation_id", logging.GetCorrelationID(ctx)),
				slog.String("status", string(status)))

			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Request-ID", logging.GetRequestID(ctx))
			w.Header().Set("X-Correlation-ID", logging.GetCorrelationID(ctx))
			if status == health.StatusUnhealthy {
				w.WriteHeader(http.StatusServiceUnavailable)
			}
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"status": status,
				"checks": results,
			})
		})
		ops.health = &http.Server{Addr: fmt.Sprintf(":%d", healthPort), Handler: mux}
	}

	return ops
}

// Start launches whichever servers are enabled; each blocks in its own
// goroutine until Shutdown is called. Start errors are reported via the
// returned channel rather than blocking the caller.
func (s *OpsServer) Start() <-chan error {
	errCh := make(chan error, 2)
	if s.metrics != nil {
		go func() {
			if err := s.metrics.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}
	if s.health != nil {
		go func() {
			if err := s.health.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- fmt.Errorf("health server: %w", err)
			}
		}()
	}
	return errCh
}

// Shutdown gracefully stops whichever servers are enabled.
func (s *OpsServer) Shutdown(ctx context.Context) error {
	if s.metrics != nil {
		if err := s.metrics.Shutdown(ctx); err != nil {
			return err
		}
	}
	if s.health != nil {
		return s.health.Shutdown(ctx)
	}
	return nil
}
