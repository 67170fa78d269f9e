package guardrails

import (
	"time"

	"github.com/run-bigpig/llm-guardrails/pkg/interfaces"
	"github.com/run-bigpig/llm-guardrails/pkg/logging"
	"github.com/run-bigpig/llm-guardrails/pkg/prompts"
)

const (
	DefaultModel              = "claude-sonnet-4-5"
	DefaultEvaluatorModel     = "claude-sonnet-4-5-20250929"
	DefaultMaxTokens          = 1024
	DefaultEvaluatorMaxTokens = 512
	DefaultThreshold          = 80
	DefaultTimeout            = 60 * time.Second
	DefaultMaxSummaryWords    = 50
)

// Option configures a pipeline
type Option func(*options)

type options struct {
	logger    logging.Logger
	library   *prompts.Library
	model     string
	maxTokens int
	timeout   time.Duration

	evaluatorModel     string
	evaluatorMaxTokens int
	threshold          int

	stripFences     bool
	maxSummaryWords int

	inputChecks     []interfaces.Guardrail
	groundingAction interfaces.GuardrailAction
	refusalPhrases  []string
}

func newOptions(opts []Option) options {
	o := options{
		logger:             logging.Nop(),
		model:              DefaultModel,
		maxTokens:          DefaultMaxTokens,
		timeout:            DefaultTimeout,
		evaluatorModel:     DefaultEvaluatorModel,
		evaluatorMaxTokens: DefaultEvaluatorMaxTokens,
		threshold:          DefaultThreshold,
		maxSummaryWords:    DefaultMaxSummaryWords,
		refusalPhrases:     DefaultRefusalPhrases(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.library == nil {
		o.library = prompts.NewLibrary(nil)
	}
	return o
}

// WithLogger sets the logger
func WithLogger(logger logging.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithPrompts sets the prompt library, e.g. one backed by a prompts directory
func WithPrompts(library *prompts.Library) Option {
	return func(o *options) {
		o.library = library
	}
}

// WithModel sets the generation model
func WithModel(model string) Option {
	return func(o *options) {
		o.model = model
	}
}

// WithMaxTokens sets the generation token cap
func WithMaxTokens(maxTokens int) Option {
	return func(o *options) {
		o.maxTokens = maxTokens
	}
}

// WithTimeout bounds every single call to the model
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

// WithEvaluatorModel sets the model used for the evaluation pass
func WithEvaluatorModel(model string) Option {
	return func(o *options) {
		o.evaluatorModel = model
	}
}

// WithEvaluatorMaxTokens sets the evaluation token cap
func WithEvaluatorMaxTokens(maxTokens int) Option {
	return func(o *options) {
		o.evaluatorMaxTokens = maxTokens
	}
}

// WithThreshold sets the minimum confidence score, 0 to 100
func WithThreshold(threshold int) Option {
	return func(o *options) {
		o.threshold = threshold
	}
}

// WithStripCodeFences makes the extractor remove markdown fences before parsing
func WithStripCodeFences(strip bool) Option {
	return func(o *options) {
		o.stripFences = strip
	}
}

// WithMaxSummaryWords sets the soft word bound on summaries
func WithMaxSummaryWords(words int) Option {
	return func(o *options) {
		o.maxSummaryWords = words
	}
}

// WithInputChecks runs checks over the question before it is sent
func WithInputChecks(checks ...interfaces.Guardrail) Option {
	return func(o *options) {
		o.inputChecks = append(o.inputChecks, checks...)
	}
}

// WithGroundingCheck verifies answers against the knowledge context
func WithGroundingCheck(action interfaces.GuardrailAction) Option {
	return func(o *options) {
		o.groundingAction = action
	}
}

// WithRefusalPhrases replaces the phrases that mark an answer as a refusal
func WithRefusalPhrases(phrases ...string) Option {
	return func(o *options) {
		o.refusalPhrases = phrases
	}
}
