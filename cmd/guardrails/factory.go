package main

import (
	"context"
	"fmt"

	"github.com/run-bigpig/llm-guardrails/pkg/config"
	"github.com/run-bigpig/llm-guardrails/pkg/interfaces"
	"github.com/run-bigpig/llm-guardrails/pkg/llm/anthropic"
	"github.com/run-bigpig/llm-guardrails/pkg/llm/mock"
	"github.com/run-bigpig/llm-guardrails/pkg/llm/openai"
	"github.com/run-bigpig/llm-guardrails/pkg/logging"
	"github.com/run-bigpig/llm-guardrails/pkg/prompts"
	"github.com/run-bigpig/llm-guardrails/pkg/tracing"
)

// newLLM builds the client for cfg.Provider, wrapped in tracing when
// enabled. The returned shutdown flushes pending spans.
func newLLM(cfg *config.Config, logger logging.Logger, scripted []string) (interfaces.LLM, func(context.Context) error, error) {
	var client interfaces.LLM

	switch cfg.Provider {
	case config.ProviderAnthropic:
		opts := []anthropic.Option{
			anthropic.WithModel(cfg.Model),
			anthropic.WithMaxTokens(cfg.MaxTokens),
			anthropic.WithLogger(logger),
			anthropic.WithRetry(cfg.Retry.Options()...),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
		}
		client = anthropic.NewClient(cfg.AnthropicAPIKey, opts...)
	case config.ProviderOpenAI:
		opts := []openai.Option{
			openai.WithModel(cfg.Model),
			openai.WithMaxTokens(cfg.MaxTokens),
			openai.WithLogger(logger),
			openai.WithRetry(cfg.Retry.Options()...),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		client = openai.NewClient(cfg.OpenAIAPIKey, opts...)
	case config.ProviderMock:
		if len(scripted) == 0 {
			scripted = []string{prompts.NoInformationPhrase}
		}
		client = mock.New(scripted...)
	default:
		return nil, nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}

	tracer, err := tracing.NewOTelTracer(tracing.OTelConfig{
		Enabled:           cfg.Tracing.Enabled,
		ServiceName:       cfg.Tracing.ServiceName,
		CollectorEndpoint: cfg.Tracing.Endpoint,
	})
	if err != nil {
		return nil, nil, err
	}
	if !tracer.Enabled() {
		return client, tracer.Shutdown, nil
	}

	return tracing.NewLLMOTelMiddleware(client, tracer), tracer.Shutdown, nil
}
