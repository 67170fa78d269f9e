package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/run-bigpig/llm-guardrails/pkg/config"
	"github.com/run-bigpig/llm-guardrails/pkg/guardrails"
	"github.com/run-bigpig/llm-guardrails/pkg/llm/anthropic"
	"github.com/run-bigpig/llm-guardrails/pkg/llm/mock"
	"github.com/run-bigpig/llm-guardrails/pkg/llm/openai"
	"github.com/run-bigpig/llm-guardrails/pkg/logging"
	"github.com/run-bigpig/llm-guardrails/pkg/prompts"
)

func TestNewLLMProviders(t *testing.T) {
	tests := []struct {
		provider string
		check    func(t *testing.T, v interface{})
	}{
		{provider: config.ProviderAnthropic, check: func(t *testing.T, v interface{}) { assert.IsType(t, &anthropic.AnthropicClient{}, v) }},
		{provider: config.ProviderOpenAI, check: func(t *testing.T, v interface{}) { assert.IsType(t, &openai.OpenAIClient{}, v) }},
		{provider: config.ProviderMock, check: func(t *testing.T, v interface{}) { assert.IsType(t, &mock.LLM{}, v) }},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			cfg := config.Default()
			cfg.Provider = tt.provider

			client, shutdown, err := newLLM(cfg, logging.Nop(), nil)
			require.NoError(t, err)
			tt.check(t, client)
			assert.NoError(t, shutdown(context.Background()))
		})
	}
}

func TestNewLLMUnknownProvider(t *testing.T) {
	cfg := config.Default()
	cfg.Provider = "bedrock"

	_, _, err := newLLM(cfg, logging.Nop(), nil)
	assert.Error(t, err)
}

func TestMockProviderDefaultsToFallback(t *testing.T) {
	cfg := config.Default()
	cfg.Provider = config.ProviderMock

	client, _, err := newLLM(cfg, logging.Nop(), nil)
	require.NoError(t, err)

	resp, err := client.Generate(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, prompts.NoInformationPhrase, resp)
}

func TestAppOptionsBuildsChecks(t *testing.T) {
	cfg := config.Default()
	cfg.Provider = config.ProviderMock
	cfg.RedactPII = true
	cfg.MaxQuestionWords = 3
	cfg.PromptsDir = t.TempDir()

	client, shutdown, err := newLLM(cfg, logging.Nop(), []string{"one", "two"})
	require.NoError(t, err)
	a := &app{cfg: cfg, logger: logging.Nop(), llm: client, shutdown: shutdown}

	opts, err := a.options()
	require.NoError(t, err)

	d, err := guardrails.NewResponder(client, opts...).Answer(context.Background(), "mail me at x@y.com now please", "ctx")
	require.NoError(t, err)
	assert.Equal(t, "one", d.Output)

	sent := client.(*mock.LLM).Calls()[0].Messages
	assert.Equal(t, "mail me at ...", sent[len(sent)-1].Content)
}

func TestCountFailed(t *testing.T) {
	assert.Equal(t, 1, countFailed(guardrails.Decision{State: guardrails.StateCallFailed}, nil))
	assert.Equal(t, 1, countFailed(guardrails.Decision{}, errors.Join(guardrails.ErrCallFailed)))
	assert.Equal(t, 0, countFailed(guardrails.Decision{State: guardrails.StateRejected}, guardrails.ErrBlocked))
}

func TestReadContext(t *testing.T) {
	_, err := readContext("")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "kb.txt")
	require.NoError(t, os.WriteFile(path, []byte("facts"), 0600))

	got, err := readContext(path)
	require.NoError(t, err)
	assert.Equal(t, "facts", got)
}
