package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/run-bigpig/llm-guardrails/pkg/interfaces"
	"github.com/run-bigpig/llm-guardrails/pkg/llm"
	"github.com/run-bigpig/llm-guardrails/pkg/llm/mock"
	"github.com/run-bigpig/llm-guardrails/pkg/logging"
)

func TestMiddlewareRecordsSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tracer, err := NewOTelTracerWithExporter("test", exporter)
	require.NoError(t, err)
	defer func() { _ = tracer.Shutdown(context.Background()) }()

	wrapped := NewLLMOTelMiddleware(mock.New("answer"), tracer)
	ctx := logging.WithRunID(context.Background(), "run-1")

	resp, err := wrapped.Generate(ctx, "question", interfaces.WithModel("m"))
	require.NoError(t, err)
	assert.Equal(t, "answer", resp)

	_, err = wrapped.Chat(ctx, []llm.Message{{Role: "user", Content: "q"}}, nil)
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "llm.generate", spans[0].Name)
	assert.Equal(t, "llm.chat", spans[1].Name)

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "run-1", attrs["run_id"])
	assert.Equal(t, "mock", attrs["llm.provider"])
	assert.Equal(t, "8", attrs["prompt.length"])
}

func TestMiddlewareRecordsErrors(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tracer, err := NewOTelTracerWithExporter("test", exporter)
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = NewLLMOTelMiddleware(mock.NewWithError(boom), tracer).Generate(context.Background(), "q")
	assert.ErrorIs(t, err, boom)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	require.Len(t, spans[0].Events, 1)
	assert.Equal(t, "exception", spans[0].Events[0].Name)
}

func TestDisabledTracerIsNoop(t *testing.T) {
	tracer, err := NewOTelTracer(OTelConfig{Enabled: false})
	require.NoError(t, err)
	assert.False(t, tracer.Enabled())

	resp, err := NewLLMOTelMiddleware(mock.New("ok"), tracer).Generate(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
	assert.NoError(t, tracer.Shutdown(context.Background()))
}
