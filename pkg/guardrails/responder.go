package guardrails

import (
	"context"
	"errors"

	"github.com/run-bigpig/llm-guardrails/pkg/interfaces"
	"github.com/run-bigpig/llm-guardrails/pkg/prompts"
)

// Responder answers questions strictly from a supplied knowledge context
type Responder struct {
	pipeline
	input *Chain
}

// NewResponder creates a responder over llm
func NewResponder(llm interfaces.LLM, opts ...Option) *Responder {
	r := &Responder{pipeline: newPipeline("grounded", llm, opts)}
	if len(r.opts.inputChecks) > 0 {
		r.input = NewChain(r.opts.logger, r.opts.inputChecks...)
	}
	return r
}

// Bundle builds the prompt for question over knowledge
func (r *Responder) Bundle(ctx context.Context, question, knowledge string) (PromptBundle, error) {
	instructions, err := r.opts.library.Render(ctx, prompts.GroundedAnswerID, map[string]interface{}{
		"Context":       knowledge,
		"NoInformation": prompts.NoInformationPhrase,
		"NotAddressed":  prompts.NotAddressedPhrase,
	})
	if err != nil {
		return PromptBundle{}, err
	}
	return PromptBundle{Instructions: instructions, Context: knowledge, Question: question}, nil
}

// Answer runs one grounded generation. The returned error is non-nil when
// the question is rejected before the call or the call itself fails; a
// REJECTED decision from the grounding check is not an error.
func (r *Responder) Answer(ctx context.Context, question, knowledge string) (Decision, error) {
	ctx = r.begin(ctx)

	if blank(question) {
		return rejected("", 0, ErrEmptyPrompt), ErrEmptyPrompt
	}

	if r.input != nil {
		guarded, err := r.input.ProcessInput(ctx, question)
		if err != nil {
			return rejected("", 0, err), err
		}
		question = guarded
	}

	bundle, err := r.Bundle(ctx, question, knowledge)
	if err != nil {
		return rejected("", 0, err), err
	}
	r.transition(ctx, StatePromptBuilt, nil)

	gen, err := r.generate(ctx, bundle)
	if err != nil {
		return failed(err), err
	}

	output := gen.Text
	if r.opts.groundingAction != "" {
		check := NewGroundingCheck(knowledge, r.opts.groundingAction, r.opts.refusalPhrases)
		output, err = NewChain(r.opts.logger, check).ProcessOutput(ctx, gen.Text)
		if errors.Is(err, ErrBlocked) {
			r.opts.logger.Warn(ctx, "Answer not supported by context", map[string]interface{}{
				"unsupported": check.Unsupported(gen.Text),
			})
			r.transition(ctx, StateRejected, nil)
			return rejected(prompts.NoInformationPhrase, 0, err), nil
		}
		if err != nil {
			return rejected("", 0, err), err
		}
	}

	r.transition(ctx, StateValidated, map[string]interface{}{"refusal": gen.IsRefusal})
	return validated(output, 0), nil
}
