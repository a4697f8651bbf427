// Package observability provides optional OpenTelemetry tracing. Spans
// flow to an OTLP HTTP collector; with no endpoint configured the setup
// is a no-op and the application runs untraced.
package observability

import (
	"context"
	"os"

	"github.com/firebase/genkit/go/core/tracing"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/koopa0/parley/internal/log"
)

// Config for trace export.
type Config struct {
	// Endpoint is the OTLP HTTP collector address (host:port). Empty
	// disables tracing entirely.
	Endpoint string
	// ServiceName is the name reported on spans. Empty means "parley".
	ServiceName string
	// Environment tags spans with a deployment environment.
	Environment string
}

// Setup registers an OTLP HTTP exporter with genkit's TracerProvider so
// flow and model spans are exported alongside our own. Returns a shutdown
// function that flushes pending spans; the function is always non-nil.
func Setup(ctx context.Context, cfg Config, logger log.Logger) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	if cfg.Endpoint == "" {
		logger.Debug("tracing disabled, no collector endpoint configured")
		return noop, nil
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "parley"
	}

	// Genkit's TracerProvider reads the standard OTEL variables for its
	// resource attributes.
	_ = os.Setenv("OTEL_SERVICE_NAME", cfg.ServiceName)
	if cfg.Environment != "" {
		_ = os.Setenv("OTEL_RESOURCE_ATTRIBUTES", "deployment.environment="+cfg.Environment)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.Endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		// A broken collector must not take the application down.
		logger.Warn("creating OTLP exporter failed, tracing disabled", "error", err)
		return noop, nil
	}

	processor := sdktrace.NewBatchSpanProcessor(exporter)
	tracing.TracerProvider().RegisterSpanProcessor(processor)

	logger.Debug("tracing enabled",
		"endpoint", cfg.Endpoint,
		"service", cfg.ServiceName,
		"environment", cfg.Environment,
	)
	return tracing.TracerProvider().Shutdown, nil
}
