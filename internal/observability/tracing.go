// Package observability sets up request tracing for the HTTP server.
package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"

	"github.com/abhisek/mathdrill/internal/config"
	"github.com/abhisek/mathdrill/internal/logging"
)

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(context.Context) error

func noop(context.Context) error { return nil }

type options struct {
	version string
	writer  io.Writer
	log     *logging.Logger
}

type Option func(*options)

func WithVersion(v string) Option { return func(o *options) { o.version = v } }

// WithWriter sets where the stdout exporter writes. Defaults to stderr.
func WithWriter(w io.Writer) Option { return func(o *options) { o.writer = w } }

func WithLogger(l *logging.Logger) Option { return func(o *options) { o.log = l } }

// Setup installs a global tracer provider when tracing is enabled and
// returns its shutdown function. When disabled the returned function does
// nothing.
func Setup(ctx context.Context, cfg config.TelemetryConfig, opts ...Option) (ShutdownFunc, error) {
	o := options{writer: os.Stderr}
	for _, fn := range opts {
		fn(&o)
	}
	log := logging.OrNop(o.log)

	if !cfg.Enabled {
		return noop, nil
	}

	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "mathdrill"
	}
	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceNameKey.String(name),
		semconv.ServiceVersionKey.String(o.version),
	))
	if err != nil {
		log.Warn("otel resource init failed (continuing)", "error", err)
	}

	exp, err := newExporter(ctx, cfg, o.writer)
	if err != nil {
		return noop, fmt.Errorf("trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info("otel tracing initialized", "service", name, "exporter", cfg.Exporter, "endpoint", cfg.Endpoint)
	return tp.Shutdown, nil
}

func newExporter(ctx context.Context, cfg config.TelemetryConfig, w io.Writer) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case "stdout":
		return stdouttrace.New(stdouttrace.WithWriter(w))
	case "otlp", "":
		var opts []otlptracehttp.Option
		if ep := strings.TrimSpace(cfg.Endpoint); ep != "" {
			if strings.HasPrefix(ep, "http://") || strings.HasPrefix(ep, "https://") {
				opts = append(opts, otlptracehttp.WithEndpointURL(ep))
			} else {
				opts = append(opts, otlptracehttp.WithEndpoint(ep))
			}
		}
		return otlptracehttp.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unknown exporter %q", cfg.Exporter)
	}
}
