package guardrails

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/run-bigpig/llm-guardrails/pkg/interfaces"
	"github.com/run-bigpig/llm-guardrails/pkg/llm"
	"github.com/run-bigpig/llm-guardrails/pkg/logging"
	"github.com/run-bigpig/llm-guardrails/pkg/prompts"
)

// DefaultRefusalPhrases returns the phrases that mark a generation as an
// honest admission of missing information
func DefaultRefusalPhrases() []string {
	return []string{
		prompts.NoInformationPhrase,
		prompts.NotAddressedPhrase,
		"wasn't found",
		"was not found",
		"not found in the context",
		"no information",
	}
}

// pipeline holds what every guardrail pattern shares
type pipeline struct {
	name string
	llm  interfaces.LLM
	opts options
}

func newPipeline(name string, llm interfaces.LLM, opts []Option) pipeline {
	return pipeline{name: name, llm: llm, opts: newOptions(opts)}
}

// begin tags ctx with a run ID unless the caller already did
func (p *pipeline) begin(ctx context.Context) context.Context {
	if _, ok := logging.RunID(ctx); ok {
		return ctx
	}
	return logging.WithRunID(ctx, uuid.NewString())
}

func (p *pipeline) transition(ctx context.Context, state State, fields map[string]interface{}) {
	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields["pipeline"] = p.name
	fields["state"] = string(state)
	p.opts.logger.Debug(ctx, "Pipeline state", fields)
}

// call issues one bounded request to the model. A reply without a text
// block is not a failed call and comes back as llm.ErrNoTextContent.
func (p *pipeline) call(ctx context.Context, model string, maxTokens int, prompt string, extra ...interfaces.GenerateOption) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.opts.timeout)
	defer cancel()

	callOpts := append([]interfaces.GenerateOption{
		interfaces.WithModel(model),
		interfaces.WithMaxTokens(maxTokens),
	}, extra...)

	p.transition(ctx, StateCallIssued, map[string]interface{}{"model": model, "provider": p.llm.Name()})

	start := time.Now()
	text, err := p.llm.Generate(callCtx, prompt, callOpts...)
	if errors.Is(err, llm.ErrNoTextContent) {
		p.opts.logger.Warn(ctx, "Model returned no text block", map[string]interface{}{"pipeline": p.name, "model": model})
		p.transition(ctx, StateResponseReceived, map[string]interface{}{"duration_ms": time.Since(start).Milliseconds()})
		return "", err
	}
	if err != nil {
		p.opts.logger.Error(ctx, "Model call failed", map[string]interface{}{
			"pipeline": p.name,
			"model":    model,
			"error":    err.Error(),
		})
		p.transition(ctx, StateCallFailed, nil)
		return "", fmt.Errorf("%w: %w", ErrCallFailed, err)
	}

	p.transition(ctx, StateResponseReceived, map[string]interface{}{
		"duration_ms": time.Since(start).Milliseconds(),
		"length":      len(text),
	})
	return strings.TrimSpace(text), nil
}

// generate runs the generation call for bundle
func (p *pipeline) generate(ctx context.Context, bundle PromptBundle) (Generation, error) {
	text, err := p.call(ctx, p.opts.model, p.opts.maxTokens, bundle.Question,
		interfaces.WithSystemMessage(bundle.Instructions))
	if errors.Is(err, llm.ErrNoTextContent) {
		return Generation{}, nil
	}
	if err != nil {
		return Generation{}, err
	}
	return Generation{Text: text, IsRefusal: IsRefusal(text, p.opts.refusalPhrases)}, nil
}

// IsRefusal reports whether text contains one of phrases, ignoring case
func IsRefusal(text string, phrases []string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range phrases {
		if phrase != "" && strings.Contains(lower, strings.ToLower(phrase)) {
			return true
		}
	}
	return false
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
