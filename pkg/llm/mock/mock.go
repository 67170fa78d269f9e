// Package mock provides a deterministic LLM for tests and offline runs.
// Responses are scripted in order; every call is recorded.
package mock

import (
	"context"
	"errors"
	"sync"

	"github.com/run-bigpig/llm-guardrails/pkg/interfaces"
	"github.com/run-bigpig/llm-guardrails/pkg/llm"
)

// ErrExhausted is returned when more calls are made than responses scripted
var ErrExhausted = errors.New("mock LLM: no scripted response left")

// Response is one scripted reply
type Response struct {
	Text string
	Err  error
}

// Call records what a single invocation received
type Call struct {
	Messages []llm.Message
	Params   *llm.GenerateParams
}

// System returns the system message of the call, if any
func (c Call) System() string {
	for _, msg := range c.Messages {
		if msg.Role == llm.RoleSystem {
			return msg.Content
		}
	}
	return ""
}

// LLM replays scripted responses. When a single response is scripted it is
// returned for every call.
type LLM struct {
	mu        sync.Mutex
	responses []Response
	calls     []Call
}

// New creates a mock that replies with texts in order
func New(texts ...string) *LLM {
	m := &LLM{}
	for _, text := range texts {
		m.responses = append(m.responses, Response{Text: text})
	}
	return m
}

// NewWithError creates a mock whose every call fails with err
func NewWithError(err error) *LLM {
	return &LLM{responses: []Response{{Err: err}}}
}

// Then appends a scripted response
func (m *LLM) Then(text string, err error) *LLM {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, Response{Text: text, Err: err})
	return m
}

// Generate implements interfaces.LLM
func (m *LLM) Generate(ctx context.Context, prompt string, options ...interfaces.GenerateOption) (string, error) {
	params := interfaces.NewGenerateOptions(options...)

	messages := params.Messages(prompt)
	if params.SystemMessage != "" {
		messages = append([]llm.Message{{Role: llm.RoleSystem, Content: params.SystemMessage}}, messages...)
	}

	return m.Chat(ctx, messages, params.Params())
}

// Chat implements interfaces.LLM
func (m *LLM) Chat(ctx context.Context, messages []llm.Message, params *llm.GenerateParams) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	idx := len(m.calls)
	m.calls = append(m.calls, Call{Messages: messages, Params: params})

	switch {
	case len(m.responses) == 0:
		return "", ErrExhausted
	case len(m.responses) == 1:
		idx = 0
	case idx >= len(m.responses):
		return "", ErrExhausted
	}

	resp := m.responses[idx]
	return resp.Text, resp.Err
}

// Name implements interfaces.LLM
func (m *LLM) Name() string {
	return "mock"
}

// Calls returns a copy of the recorded calls
func (m *LLM) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}
