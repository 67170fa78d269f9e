package guardrails

import (
	"context"
	"fmt"
	"strings"

	"github.com/run-bigpig/llm-guardrails/pkg/interfaces"
)

// TokenLimitType is the Type of TokenLimit
const TokenLimitType = "token_limit"

// TruncateMode selects which part of an over-long text is kept
type TruncateMode string

const (
	TruncateEnd    TruncateMode = "end"
	TruncateStart  TruncateMode = "start"
	TruncateMiddle TruncateMode = "middle"
)

// TokenCounter counts tokens in text
type TokenCounter interface {
	CountTokens(text string) (int, error)
}

// WordCounter approximates tokens by whitespace-separated words
type WordCounter struct{}

// CountTokens implements TokenCounter
func (WordCounter) CountTokens(text string) (int, error) {
	return len(strings.Fields(text)), nil
}

// TokenLimit caps the length of questions sent to the model
type TokenLimit struct {
	maxTokens int
	counter   TokenCounter
	action    interfaces.GuardrailAction
	mode      TruncateMode
}

// NewTokenLimit creates a token limit. counter defaults to WordCounter and
// mode to TruncateEnd.
func NewTokenLimit(maxTokens int, counter TokenCounter, action interfaces.GuardrailAction, mode TruncateMode) *TokenLimit {
	if counter == nil {
		counter = WordCounter{}
	}
	if mode == "" {
		mode = TruncateEnd
	}

	return &TokenLimit{
		maxTokens: maxTokens,
		counter:   counter,
		action:    action,
		mode:      mode,
	}
}

// Type implements interfaces.Guardrail
func (t *TokenLimit) Type() string {
	return TokenLimitType
}

// CheckRequest implements interfaces.Guardrail
func (t *TokenLimit) CheckRequest(ctx context.Context, request string) (bool, string, error) {
	return t.check(request)
}

// CheckResponse implements interfaces.Guardrail
func (t *TokenLimit) CheckResponse(ctx context.Context, response string) (bool, string, error) {
	return t.check(response)
}

// Action implements interfaces.Guardrail
func (t *TokenLimit) Action() interfaces.GuardrailAction {
	return t.action
}

func (t *TokenLimit) check(text string) (bool, string, error) {
	tokens, err := t.counter.CountTokens(text)
	if err != nil {
		return false, text, fmt.Errorf("failed to count tokens: %w", err)
	}
	if tokens <= t.maxTokens {
		return false, text, nil
	}
	return true, t.truncate(text), nil
}

func (t *TokenLimit) truncate(text string) string {
	words := strings.Fields(text)
	if len(words) <= t.maxTokens {
		return text
	}

	switch t.mode {
	case TruncateStart:
		return strings.Join(words[len(words)-t.maxTokens:], " ")
	case TruncateMiddle:
		// head takes the odd word
		tail := t.maxTokens / 2
		out := strings.Join(words[:t.maxTokens-tail], " ") + " ..."
		if tail > 0 {
			out += " " + strings.Join(words[len(words)-tail:], " ")
		}
		return out
	default:
		return strings.Join(words[:t.maxTokens], " ") + " ..."
	}
}
