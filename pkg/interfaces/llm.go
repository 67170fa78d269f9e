package interfaces

import (
	"context"

	"github.com/run-bigpig/llm-guardrails/pkg/llm"
)

// LLM represents a text-generation capability
type LLM interface {
	// Generate sends prompt as the user turn and returns the text of the
	// first text block of the response
	Generate(ctx context.Context, prompt string, options ...GenerateOption) (string, error)

	// Chat sends an ordered list of turns and returns the first text block
	Chat(ctx context.Context, messages []llm.Message, params *llm.GenerateParams) (string, error)

	// Name returns the name of the LLM provider
	Name() string
}

// GenerateOption represents options for text generation
type GenerateOption func(options *GenerateOptions)

// GenerateOptions contains configuration for text generation
type GenerateOptions struct {
	LLMConfig        *LLMConfig // LLM config for the generation
	SystemMessage    string     // System message for chat models
	AssistantPrefill string     // Seeds the assistant turn; the model continues from it
}

type LLMConfig struct {
	Model         string   // Overrides the client model when set
	MaxTokens     int      // Maximum output token budget
	Temperature   float64  // Temperature for the generation
	TopP          float64  // Top P for the generation
	StopSequences []string // Stop sequences for the generation
	JSONMode      bool     // Structured-output mode, where the provider has one
}

// NewGenerateOptions applies options over the defaults
func NewGenerateOptions(options ...GenerateOption) *GenerateOptions {
	params := &GenerateOptions{
		LLMConfig: &LLMConfig{},
	}
	for _, option := range options {
		if option != nil {
			option(params)
		}
	}
	return params
}

// Messages builds the turn list for prompt: the user turn, followed by the
// assistant prefill when one is set
func (o *GenerateOptions) Messages(prompt string) []llm.Message {
	messages := []llm.Message{{Role: llm.RoleUser, Content: prompt}}
	if o.AssistantPrefill != "" {
		messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: o.AssistantPrefill})
	}
	return messages
}

// Params converts the options into provider-neutral generation params
func (o *GenerateOptions) Params() *llm.GenerateParams {
	params := llm.DefaultGenerateParams()
	if o.LLMConfig == nil {
		return params
	}
	params.Model = o.LLMConfig.Model
	if o.LLMConfig.MaxTokens > 0 {
		params.MaxTokens = o.LLMConfig.MaxTokens
	}
	if o.LLMConfig.Temperature > 0 {
		params.Temperature = o.LLMConfig.Temperature
	}
	if o.LLMConfig.TopP > 0 {
		params.TopP = o.LLMConfig.TopP
	}
	params.StopSequences = o.LLMConfig.StopSequences
	params.JSONMode = o.LLMConfig.JSONMode
	return params
}

// WithSystemMessage sets the system message
func WithSystemMessage(systemMessage string) GenerateOption {
	return func(options *GenerateOptions) {
		options.SystemMessage = systemMessage
	}
}

// WithAssistantPrefill seeds the assistant turn with prefix
func WithAssistantPrefill(prefix string) GenerateOption {
	return func(options *GenerateOptions) {
		options.AssistantPrefill = prefix
	}
}

// WithModel overrides the model for a single call
func WithModel(model string) GenerateOption {
	return func(options *GenerateOptions) {
		options.LLMConfig.Model = model
	}
}

// WithMaxTokens sets the output token budget
func WithMaxTokens(maxTokens int) GenerateOption {
	return func(options *GenerateOptions) {
		options.LLMConfig.MaxTokens = maxTokens
	}
}

// WithTemperature sets the temperature
func WithTemperature(temperature float64) GenerateOption {
	return func(options *GenerateOptions) {
		options.LLMConfig.Temperature = temperature
	}
}

// WithStopSequences sets the stop sequences
func WithStopSequences(stopSequences ...string) GenerateOption {
	return func(options *GenerateOptions) {
		options.LLMConfig.StopSequences = stopSequences
	}
}

// WithJSONMode requests the provider's structured JSON output mode
func WithJSONMode() GenerateOption {
	return func(options *GenerateOptions) {
		options.LLMConfig.JSONMode = true
	}
}
