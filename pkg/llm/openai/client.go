package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"github.com/run-bigpig/llm-guardrails/pkg/interfaces"
	"github.com/run-bigpig/llm-guardrails/pkg/llm"
	"github.com/run-bigpig/llm-guardrails/pkg/logging"
	"github.com/run-bigpig/llm-guardrails/pkg/retry"
)

// OpenAIClient implements the LLM interface for OpenAI-compatible chat APIs
type OpenAIClient struct {
	Client        *openai.Client
	Model         string
	BaseURL       string
	MaxTokens     int
	logger        logging.Logger
	retryExecutor *retry.Executor
}

// Option represents an option for configuring the OpenAI client
type Option func(*OpenAIClient)

// WithModel sets the model for the OpenAI client
func WithModel(model string) Option {
	return func(c *OpenAIClient) {
		c.Model = model
	}
}

// WithMaxTokens sets the default output token budget
func WithMaxTokens(maxTokens int) Option {
	return func(c *OpenAIClient) {
		c.MaxTokens = maxTokens
	}
}

// WithLogger sets the logger for the OpenAI client
func WithLogger(logger logging.Logger) Option {
	return func(c *OpenAIClient) {
		c.logger = logger
	}
}

// WithRetry configures retry policy for the client
func WithRetry(opts ...retry.Option) Option {
	return func(c *OpenAIClient) {
		c.retryExecutor = retry.NewExecutor(retry.NewPolicy(opts...))
	}
}

// WithBaseURL points the client at an OpenAI-compatible endpoint
func WithBaseURL(baseURL string) Option {
	return func(c *OpenAIClient) {
		c.BaseURL = baseURL
	}
}

// NewClient creates a new OpenAI client
func NewClient(apiKey string, options ...Option) *OpenAIClient {
	client := &OpenAIClient{
		Model:     openai.GPT4oMini,
		MaxTokens: 1024,
		logger:    logging.New(),
	}

	for _, option := range options {
		option(client)
	}

	config := openai.DefaultConfig(apiKey)
	if client.BaseURL != "" {
		config.BaseURL = client.BaseURL
	}
	client.Client = openai.NewClientWithConfig(config)

	return client
}

// Generate generates text from a prompt
func (c *OpenAIClient) Generate(ctx context.Context, prompt string, options ...interfaces.GenerateOption) (string, error) {
	params := interfaces.NewGenerateOptions(options...)

	messages := params.Messages(prompt)
	if params.SystemMessage != "" {
		messages = append([]llm.Message{{Role: llm.RoleSystem, Content: params.SystemMessage}}, messages...)
	}

	return c.Chat(ctx, messages, params.Params())
}

// Chat sends the conversation to the chat completions endpoint
func (c *OpenAIClient) Chat(ctx context.Context, messages []llm.Message, params *llm.GenerateParams) (string, error) {
	if params == nil {
		params = llm.DefaultGenerateParams()
	}

	model := c.Model
	if params.Model != "" {
		model = params.Model
	}

	maxTokens := params.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.MaxTokens
	}

	req := openai.ChatCompletionRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: float32(params.Temperature),
		TopP:        float32(params.TopP),
		Stop:        params.StopSequences,
	}
	for _, msg := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	if params.JSONMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	var resp openai.ChatCompletionResponse
	operation := func() error {
		c.logger.Debug(ctx, "Executing OpenAI API request", map[string]interface{}{
			"model":          model,
			"max_tokens":     req.MaxTokens,
			"stop_sequences": req.Stop,
			"messages":       len(req.Messages),
			"json_mode":      params.JSONMode,
		})

		var err error
		resp, err = c.Client.CreateChatCompletion(ctx, req)
		if err != nil {
			c.logger.Warn(ctx, "Error from OpenAI API", map[string]interface{}{
				"error": err.Error(),
				"model": model,
			})
			return classify(err)
		}
		return nil
	}

	var err error
	if c.retryExecutor != nil {
		err = c.retryExecutor.Execute(ctx, operation)
	} else {
		err = operation()
	}
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", llm.ErrNoTextContent
	}

	return resp.Choices[0].Message.Content, nil
}

// Name implements interfaces.LLM.Name
func (c *OpenAIClient) Name() string {
	return "openai"
}

// statusError carries the HTTP status of a failed call so the retry executor
// can tell rate limits and outages from bad requests
type statusError struct {
	status int
	err    error
}

func (e *statusError) Error() string { return e.err.Error() }
func (e *statusError) Unwrap() error { return e.err }
func (e *statusError) Retryable() bool {
	return e.status == http.StatusTooManyRequests || e.status >= http.StatusInternalServerError
}

func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &statusError{status: apiErr.HTTPStatusCode, err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &statusError{status: reqErr.HTTPStatusCode, err: err}
	}
	return err
}
