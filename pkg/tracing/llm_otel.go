package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/run-bigpig/llm-guardrails/pkg/interfaces"
	"github.com/run-bigpig/llm-guardrails/pkg/llm"
)

// LLMOTelMiddleware wraps an LLM with OpenTelemetry tracing
type LLMOTelMiddleware struct {
	llm    interfaces.LLM
	tracer *OTelTracer
}

// NewLLMOTelMiddleware creates a new LLMOTelMiddleware
func NewLLMOTelMiddleware(llm interfaces.LLM, tracer *OTelTracer) *LLMOTelMiddleware {
	return &LLMOTelMiddleware{
		llm:    llm,
		tracer: tracer,
	}
}

// Generate implements interfaces.LLM.Generate
func (m *LLMOTelMiddleware) Generate(ctx context.Context, prompt string, options ...interfaces.GenerateOption) (string, error) {
	params := interfaces.NewGenerateOptions(options...)
	attributes := map[string]string{
		"llm.provider":  m.llm.Name(),
		"prompt.length": fmt.Sprintf("%d", len(prompt)),
		"llm.model":     params.LLMConfig.Model,
		"llm.prefill":   fmt.Sprintf("%t", params.AssistantPrefill != ""),
	}

	ctx, span := m.tracer.StartSpan(ctx, "llm.generate", attributes)

	response, err := m.llm.Generate(ctx, prompt, options...)
	if err == nil {
		span.SetAttributes(attribute.Int("response.length", len(response)))
	}

	m.tracer.EndSpan(span, err)
	return response, err
}

// Chat implements interfaces.LLM.Chat
func (m *LLMOTelMiddleware) Chat(ctx context.Context, messages []llm.Message, params *llm.GenerateParams) (string, error) {
	attributes := map[string]string{
		"llm.provider":   m.llm.Name(),
		"messages.count": fmt.Sprintf("%d", len(messages)),
	}

	ctx, span := m.tracer.StartSpan(ctx, "llm.chat", attributes)

	response, err := m.llm.Chat(ctx, messages, params)
	if err == nil {
		span.SetAttributes(attribute.Int("response.length", len(response)))
	}

	m.tracer.EndSpan(span, err)
	return response, err
}

// Name implements interfaces.LLM.Name
func (m *LLMOTelMiddleware) Name() string {
	return m.llm.Name()
}
