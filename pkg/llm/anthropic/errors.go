package anthropic

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// APIError is a non-200 answer from the Messages API
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func newAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode, Message: string(body)}

	var envelope struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Type != "" {
		apiErr.Type = envelope.Error.Type
		apiErr.Message = envelope.Error.Message
	}

	return apiErr
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("error from Anthropic API (%d %s): %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("error from Anthropic API (%d): %s", e.StatusCode, e.Message)
}

// IsAuthentication reports a rejected or missing API key
func (e *APIError) IsAuthentication() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsRateLimit reports a 429
func (e *APIError) IsRateLimit() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// Retryable is true for rate limits, overload (529) and server errors
func (e *APIError) Retryable() bool {
	return e.IsRateLimit() || e.StatusCode >= http.StatusInternalServerError
}
