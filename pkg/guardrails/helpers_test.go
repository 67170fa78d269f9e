package guardrails

import (
	"context"

	"github.com/run-bigpig/llm-guardrails/pkg/interfaces"
	"github.com/run-bigpig/llm-guardrails/pkg/llm"
	"github.com/run-bigpig/llm-guardrails/pkg/llm/mock"
)

// stalledLLM never answers; every call waits for its context to end
type stalledLLM struct{}

func (stalledLLM) Generate(ctx context.Context, prompt string, options ...interfaces.GenerateOption) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (stalledLLM) Chat(ctx context.Context, messages []llm.Message, params *llm.GenerateParams) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (stalledLLM) Name() string {
	return "stalled"
}

const knowledgeBase = `
The official launch of Claude 4 Sonnet was in May 2025.
Anthropic is headquartered in San Francisco.
Anthropic's principal founder is Dario Amodei.
`

func userTurn(call mock.Call) string {
	for _, msg := range call.Messages {
		if msg.Role == llm.RoleUser {
			return msg.Content
		}
	}
	return ""
}

func lastMessage(call mock.Call) llm.Message {
	return call.Messages[len(call.Messages)-1]
}
