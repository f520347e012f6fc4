package observability

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/abhisek/mathdrill/internal/config"
)

func TestSetup_Disabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.TelemetryConfig{Enabled: false, Exporter: "otlp"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetup_StdoutExporter(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := Setup(context.Background(),
		config.TelemetryConfig{Enabled: true, Exporter: "stdout", ServiceName: "mathdrill-test"},
		WithWriter(&buf), WithVersion("test"))
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "submit-answer")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "submit-answer")
	assert.Contains(t, buf.String(), "mathdrill-test")
}

func TestSetup_UnknownExporter(t *testing.T) {
	_, err := Setup(context.Background(), config.TelemetryConfig{Enabled: true, Exporter: "zipkin"})
	assert.Error(t, err)
}
