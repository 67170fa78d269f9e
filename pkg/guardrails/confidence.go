package guardrails

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/tidwall/gjson"

	"github.com/run-bigpig/llm-guardrails/pkg/interfaces"
	"github.com/run-bigpig/llm-guardrails/pkg/jsonx"
	"github.com/run-bigpig/llm-guardrails/pkg/llm"
	"github.com/run-bigpig/llm-guardrails/pkg/prompts"
)

const (
	// EvaluatorPrefill seeds the evaluator's reply so it starts as JSON
	EvaluatorPrefill = `{"confidenceScore":`

	evaluatorInstruction = "Evaluate the GENERATED RESPONSE."
	evaluatorStop        = "}"

	explanationBadJSON = "Error in evaluator JSON formatting."
	explanationNoText  = "No text content found."
)

// RefusalMessage is shown instead of a generation that scored below threshold
func RefusalMessage(score int) string {
	return fmt.Sprintf("We're sorry, but this information could not be verified with a sufficient level of confidence: (%d%%).", score)
}

// ConfidenceGate generates an answer, has a second call score how well it
// is grounded, and withholds it below a threshold
type ConfidenceGate struct {
	pipeline
}

// NewConfidenceGate creates a gate over llm
func NewConfidenceGate(llm interfaces.LLM, opts ...Option) *ConfidenceGate {
	return &ConfidenceGate{pipeline: newPipeline("confidence", llm, opts)}
}

// Threshold returns the minimum accepted score
func (g *ConfidenceGate) Threshold() int {
	return g.opts.threshold
}

// Run generates, evaluates and gates. A failed call on either pass yields
// CALL_FAILED and never exposes the generation.
func (g *ConfidenceGate) Run(ctx context.Context, question, knowledge string) (Decision, error) {
	ctx = g.begin(ctx)

	if blank(question) {
		return rejected("", 0, ErrEmptyPrompt), ErrEmptyPrompt
	}

	gen, err := g.Generate(ctx, question, knowledge)
	if err != nil {
		return failed(err), err
	}

	eval, err := g.Evaluate(ctx, knowledge, gen.Text)
	if err != nil {
		return failed(err), err
	}

	d := g.Gate(gen, eval)
	g.opts.logger.Info(ctx, "Confidence gate decided", map[string]interface{}{
		"score":       eval.Score,
		"threshold":   g.opts.threshold,
		"explanation": eval.Explanation,
		"state":       string(d.State),
	})
	return d, nil
}

// Generate runs the first pass
func (g *ConfidenceGate) Generate(ctx context.Context, question, knowledge string) (Generation, error) {
	instructions, err := g.opts.library.Render(ctx, prompts.ConfidenceGenerationID, map[string]interface{}{
		"Context": knowledge,
	})
	if err != nil {
		return Generation{}, err
	}
	g.transition(ctx, StatePromptBuilt, nil)

	return g.generate(ctx, PromptBundle{Instructions: instructions, Context: knowledge, Question: question})
}

// Evaluate runs the second pass over generated. Unreadable evaluator output
// scores 0; only a failed call is an error.
func (g *ConfidenceGate) Evaluate(ctx context.Context, knowledge, generated string) (Evaluation, error) {
	system, err := g.opts.library.Render(ctx, prompts.ConfidenceEvaluationID, map[string]interface{}{
		"Context":  knowledge,
		"Response": generated,
	})
	if err != nil {
		return Evaluation{}, err
	}

	fragment, err := g.call(ctx, g.opts.evaluatorModel, g.opts.evaluatorMaxTokens, evaluatorInstruction,
		interfaces.WithSystemMessage(system),
		interfaces.WithAssistantPrefill(EvaluatorPrefill),
		interfaces.WithStopSequences(evaluatorStop),
	)
	if errors.Is(err, llm.ErrNoTextContent) {
		return Evaluation{Score: 0, Explanation: explanationNoText}, nil
	}
	if err != nil {
		return Evaluation{}, err
	}

	eval := ParseEvaluation(fragment)
	if !eval.Parsed {
		g.opts.logger.Warn(ctx, "Evaluator output unreadable", map[string]interface{}{
			"raw":         EvaluatorPrefill + fragment + evaluatorStop,
			"explanation": eval.Explanation,
		})
	}
	return eval, nil
}

// Gate turns an evaluation into a decision. It is pure: equal inputs give
// equal decisions.
func (g *ConfidenceGate) Gate(gen Generation, eval Evaluation) Decision {
	var d Decision
	if eval.Parsed && eval.Score >= g.opts.threshold {
		d = validated(gen.Text, eval.Score)
	} else {
		d = rejected(RefusalMessage(eval.Score), eval.Score, nil)
	}
	d.Explanation = eval.Explanation
	return d
}

// ParseEvaluation reads the evaluator's continuation of EvaluatorPrefill.
// The prefix and closing brace are restored first; if that does not yield
// a usable object, the first balanced object anywhere in fragment is tried,
// then fragment closed by the stop sequence for models that restate the
// prefix and are cut at the brace.
func ParseEvaluation(fragment string) Evaluation {
	candidates := []string{
		EvaluatorPrefill + fragment + evaluatorStop,
		fragment,
		fragment + evaluatorStop,
	}

	var firstErr error
	for _, candidate := range candidates {
		eval, err := parseCandidate(candidate)
		if err == nil {
			return eval
		}
		if firstErr == nil {
			firstErr = err
		}
	}

	return Evaluation{
		Score:       0,
		Explanation: fmt.Sprintf("%s (%v)", explanationBadJSON, firstErr),
	}
}

func parseCandidate(candidate string) (Evaluation, error) {
	obj, err := jsonx.ExtractObject(candidate)
	if err != nil {
		return Evaluation{}, err
	}
	return readEvaluation(obj)
}

func readEvaluation(obj string) (Evaluation, error) {
	if !gjson.Valid(obj) {
		return Evaluation{}, errors.New("invalid JSON")
	}

	score := gjson.Get(obj, "confidenceScore")
	if score.Type != gjson.Number {
		return Evaluation{}, fmt.Errorf("confidenceScore is %s, not a number", typeName(score))
	}

	explanation := gjson.Get(obj, "explanation")
	if explanation.Exists() && explanation.Type != gjson.String {
		return Evaluation{}, fmt.Errorf("explanation is %s, not a string", typeName(explanation))
	}

	value := int(math.Round(score.Float()))
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}

	return Evaluation{Score: value, Explanation: explanation.String(), Parsed: true}, nil
}

func typeName(r gjson.Result) string {
	if !r.Exists() {
		return "missing"
	}
	switch r.Type {
	case gjson.String:
		return "a string"
	case gjson.True, gjson.False:
		return "a boolean"
	case gjson.Null:
		return "null"
	case gjson.JSON:
		return "an object or array"
	}
	return r.Type.String()
}
