// Package observability wires the dispatcher into OpenTelemetry's global
// tracer/meter providers. It deliberately does not configure an exporter:
// the process relies on whatever SDK/exporter is wired in by the host
// environment (or the otel no-op defaults in tests), and only ever touches
// the global otel.Tracer()/otel.Meter() accessors.
package observability

// Config controls whether tracing/metrics instrumentation is attached to
// the scheduler's assignment path and the car actors' movement path.
type Config struct {
	Enabled     bool   `env:"OBSERVABILITY_ENABLED" envDefault:"true"`
	ServiceName string `env:"OBSERVABILITY_SERVICE_NAME" envDefault:"elevator-dispatch"`
}
