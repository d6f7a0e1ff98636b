package observability

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestStdoutTracerProvider_ExportsSpans(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var buf bytes.Buffer
	tp, err := NewStdoutTracerProvider("interpeer-test", "dev", &buf)
	require.NoError(t, err)

	_, span := StartSpan(context.Background(), "interpeer.route")
	span.SetAttributes(AttrAgent.String("codex_cli"))
	span.End()

	require.NoError(t, tp.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "interpeer.route")
	assert.Contains(t, buf.String(), "codex_cli")
}
