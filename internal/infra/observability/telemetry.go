package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// TelemetryProvider hands out the tracer and meter used by the scheduler's
// assignment path and a car's movement path. When disabled it returns the
// otel package's own no-op implementations untouched.
type TelemetryProvider struct {
	config *Config
	logger *slog.Logger
	tracer trace.Tracer
	meter  metric.Meter
}

// NewTelemetryProvider acquires the global tracer/meter for the configured
// service name. No SDK or exporter is constructed here; that is the host
// process's concern.
func NewTelemetryProvider(config *Config, logger *slog.Logger) (*TelemetryProvider, error) {
	tp := &TelemetryProvider{config: config, logger: logger}
	if !config.Enabled {
		return tp, nil
	}

	tp.tracer = otel.Tracer(config.ServiceName)
	tp.meter = otel.Meter(config.ServiceName)

	tp.logger.Info("telemetry provider initialized", slog.String("service", config.ServiceName))
	return tp, nil
}

// Tracer returns the provider's tracer, or otel's default no-op tracer if
// observability is disabled.
func (tp *TelemetryProvider) Tracer() trace.Tracer {
	if tp.tracer == nil {
		return otel.Tracer("noop")
	}
	return tp.tracer
}

// Meter returns the provider's meter, or otel's default no-op meter if
// observability is disabled.
func (tp *TelemetryProvider) Meter() metric.Meter {
	if tp.meter == nil {
		return otel.Meter("noop")
	}
	return tp.meter
}

// StartSpan starts a named span under ctx using the provider's tracer.
func (tp *TelemetryProvider) StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return tp.Tracer().Start(ctx, name)
}
