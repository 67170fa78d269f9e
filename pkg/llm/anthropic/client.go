package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/run-bigpig/llm-guardrails/pkg/interfaces"
	"github.com/run-bigpig/llm-guardrails/pkg/llm"
	"github.com/run-bigpig/llm-guardrails/pkg/logging"
	"github.com/run-bigpig/llm-guardrails/pkg/retry"
)

// AnthropicClient implements the LLM interface for Anthropic
type AnthropicClient struct {
	APIKey        string
	Model         string
	BaseURL       string
	MaxTokens     int
	HTTPClient    *http.Client
	logger        logging.Logger
	retryExecutor *retry.Executor
}

// Option represents an option for configuring the Anthropic client
type Option func(*AnthropicClient)

// WithModel sets the model for the Anthropic client
func WithModel(model string) Option {
	return func(c *AnthropicClient) {
		c.Model = model
	}
}

// WithMaxTokens sets the default output token budget
func WithMaxTokens(maxTokens int) Option {
	return func(c *AnthropicClient) {
		c.MaxTokens = maxTokens
	}
}

// WithLogger sets the logger for the Anthropic client
func WithLogger(logger logging.Logger) Option {
	return func(c *AnthropicClient) {
		c.logger = logger
	}
}

// WithRetry configures retry policy for the client
func WithRetry(opts ...retry.Option) Option {
	return func(c *AnthropicClient) {
		c.retryExecutor = retry.NewExecutor(retry.NewPolicy(opts...))
	}
}

// WithBaseURL sets the base URL for the Anthropic API
func WithBaseURL(baseURL string) Option {
	return func(c *AnthropicClient) {
		c.BaseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client for the Anthropic client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *AnthropicClient) {
		c.HTTPClient = httpClient
	}
}

// NewClient creates a new Anthropic client
func NewClient(apiKey string, options ...Option) *AnthropicClient {
	client := &AnthropicClient{
		APIKey:     apiKey,
		Model:      ClaudeSonnet45,
		BaseURL:    "https://api.anthropic.com",
		MaxTokens:  1024,
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logging.New(),
	}

	for _, option := range options {
		option(client)
	}

	if client.Model == "" {
		client.logger.Warn(context.TODO(), "No model specified, model must be explicitly set with WithModel", nil)
	}

	return client
}

// ModelName constants for supported Anthropic models
const (
	ClaudeSonnet45         = "claude-sonnet-4-5"
	ClaudeSonnet45Snapshot = "claude-sonnet-4-5-20250929"
	Claude35Haiku          = "claude-3-5-haiku-latest"
)

const apiVersion = "2023-06-01"

// Message represents a message for Anthropic API
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest represents a request for Anthropic API
type CompletionRequest struct {
	Model         string    `json:"model"`
	Messages      []Message `json:"messages"`
	MaxTokens     int       `json:"max_tokens"`
	Temperature   float64   `json:"temperature,omitempty"`
	TopP          float64   `json:"top_p,omitempty"`
	StopSequences []string  `json:"stop_sequences,omitempty"`
	System        string    `json:"system,omitempty"`
}

// ContentBlock represents a content block in Anthropic API response
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// CompletionResponse represents a response from Anthropic API
type CompletionResponse struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Role         string         `json:"role"`
	Content      []ContentBlock `json:"content"`
	Model        string         `json:"model"`
	StopReason   string         `json:"stop_reason"`
	StopSequence string         `json:"stop_sequence"`
	Usage        Usage          `json:"usage"`
}

// Usage represents token usage information
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Blocks converts the response content into provider-neutral blocks
func (r *CompletionResponse) Blocks() []llm.ContentBlock {
	blocks := make([]llm.ContentBlock, len(r.Content))
	for i, block := range r.Content {
		blocks[i] = llm.ContentBlock{Type: block.Type, Text: block.Text}
	}
	return blocks
}

// Generate sends prompt as the user turn, followed by the assistant prefill
// when one is set, and returns the first text block
func (c *AnthropicClient) Generate(ctx context.Context, prompt string, options ...interfaces.GenerateOption) (string, error) {
	params := interfaces.NewGenerateOptions(options...)

	messages := params.Messages(prompt)
	if params.SystemMessage != "" {
		messages = append([]llm.Message{{Role: llm.RoleSystem, Content: params.SystemMessage}}, messages...)
	}

	return c.Chat(ctx, messages, params.Params())
}

// Chat uses the messages API to have a conversation with a model
func (c *AnthropicClient) Chat(ctx context.Context, messages []llm.Message, params *llm.GenerateParams) (string, error) {
	if params == nil {
		params = llm.DefaultGenerateParams()
	}

	model := c.Model
	if params.Model != "" {
		model = params.Model
	}
	if model == "" {
		return "", fmt.Errorf("model not specified: use WithModel option when creating the client")
	}

	maxTokens := params.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.MaxTokens
	}

	req := CompletionRequest{
		Model:         model,
		MaxTokens:     maxTokens,
		Temperature:   params.Temperature,
		TopP:          params.TopP,
		StopSequences: params.StopSequences,
	}

	// Anthropic takes the system prompt out of band
	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			req.System = msg.Content
		case llm.RoleUser, llm.RoleAssistant:
			req.Messages = append(req.Messages, Message{Role: msg.Role, Content: msg.Content})
		default:
			return "", fmt.Errorf("unsupported message role %q", msg.Role)
		}
	}
	if len(req.Messages) == 0 {
		return "", fmt.Errorf("no user or assistant messages")
	}

	resp, err := c.CreateMessage(ctx, req)
	if err != nil {
		return "", err
	}

	text, err := llm.FirstText(resp.Blocks())
	if err != nil {
		c.logger.Error(ctx, "Claude's response did not contain a text block", map[string]interface{}{
			"model":  model,
			"blocks": len(resp.Content),
		})
		return "", err
	}

	c.logger.Debug(ctx, "Successfully received response from Anthropic", map[string]interface{}{
		"model":         model,
		"stop_reason":   resp.StopReason,
		"input_tokens":  resp.Usage.InputTokens,
		"output_tokens": resp.Usage.OutputTokens,
	})

	return text, nil
}

// CreateMessage posts req to /v1/messages, retrying transient failures when
// a retry policy is configured
func (c *AnthropicClient) CreateMessage(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var resp CompletionResponse
	operation := func() error {
		c.logger.Debug(ctx, "Executing Anthropic API request", map[string]interface{}{
			"model":          req.Model,
			"max_tokens":     req.MaxTokens,
			"stop_sequences": req.StopSequences,
			"messages":       len(req.Messages),
			"system":         req.System != "",
		})

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/messages", bytes.NewReader(reqBody))
		if err != nil {
			return &permanentError{fmt.Errorf("failed to create request: %w", err)}
		}

		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("X-API-Key", c.APIKey)
		httpReq.Header.Set("Anthropic-Version", apiVersion)

		httpResp, err := c.HTTPClient.Do(httpReq)
		if err != nil {
			c.logger.Warn(ctx, "Error from Anthropic API", map[string]interface{}{
				"error": err.Error(),
				"model": req.Model,
			})
			return fmt.Errorf("failed to send request: %w", err)
		}
		defer func() {
			if closeErr := httpResp.Body.Close(); closeErr != nil {
				c.logger.Warn(ctx, "Failed to close response body", map[string]interface{}{
					"error": closeErr.Error(),
				})
			}
		}()

		respBody, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		if httpResp.StatusCode != http.StatusOK {
			apiErr := newAPIError(httpResp.StatusCode, respBody)
			c.logger.Warn(ctx, "Error from Anthropic API", map[string]interface{}{
				"status_code": httpResp.StatusCode,
				"error_type":  apiErr.Type,
				"model":       req.Model,
			})
			return apiErr
		}

		if err := json.Unmarshal(respBody, &resp); err != nil {
			return &permanentError{fmt.Errorf("failed to unmarshal response: %w", err)}
		}

		return nil
	}

	if c.retryExecutor != nil {
		err = c.retryExecutor.Execute(ctx, operation)
	} else {
		err = operation()
	}
	if err != nil {
		var perm *permanentError
		if errors.As(err, &perm) {
			return nil, perm.err
		}
		return nil, err
	}

	return &resp, nil
}

// Name implements interfaces.LLM.Name
func (c *AnthropicClient) Name() string {
	return "anthropic"
}

// permanentError marks local failures that a retry cannot fix
type permanentError struct {
	err error
}

func (e *permanentError) Error() string   { return e.err.Error() }
func (e *permanentError) Unwrap() error   { return e.err }
func (e *permanentError) Retryable() bool { return false }
