package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	gopenai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/run-bigpig/llm-guardrails/pkg/interfaces"
	"github.com/run-bigpig/llm-guardrails/pkg/llm"
	"github.com/run-bigpig/llm-guardrails/pkg/llm/openai"
	"github.com/run-bigpig/llm-guardrails/pkg/logging"
	"github.com/run-bigpig/llm-guardrails/pkg/retry"
)

func completion(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(gopenai.ChatCompletionResponse{
		Choices: []gopenai.ChatCompletionChoice{
			{Message: gopenai.ChatCompletionMessage{Role: "assistant", Content: content}},
		},
	})
	require.NoError(t, err)
}

func TestGenerate(t *testing.T) {
	var reqBody gopenai.ChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		completion(t, w, `{"category":"Technology"}`)
	}))
	defer server.Close()

	client := openai.NewClient("test-key",
		openai.WithModel("gpt-4o"),
		openai.WithBaseURL(server.URL),
		openai.WithLogger(logging.Nop()),
	)

	resp, err := client.Generate(context.Background(), "analyze",
		interfaces.WithSystemMessage("json only"),
		interfaces.WithJSONMode(),
		interfaces.WithMaxTokens(256),
	)
	require.NoError(t, err)
	assert.Equal(t, `{"category":"Technology"}`, resp)

	assert.Equal(t, "gpt-4o", reqBody.Model)
	assert.Equal(t, 256, reqBody.MaxTokens)
	require.Len(t, reqBody.Messages, 2)
	assert.Equal(t, "system", reqBody.Messages[0].Role)
	assert.Equal(t, "json only", reqBody.Messages[0].Content)
	require.NotNil(t, reqBody.ResponseFormat)
	assert.Equal(t, gopenai.ChatCompletionResponseFormatTypeJSONObject, reqBody.ResponseFormat.Type)
}

func TestChatRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
			return
		}
		completion(t, w, "test response")
	}))
	defer server.Close()

	client := openai.NewClient("test-key",
		openai.WithBaseURL(server.URL),
		openai.WithLogger(logging.Nop()),
		openai.WithRetry(retry.WithInitialInterval(time.Millisecond), retry.WithMaxAttempts(2)),
	)

	resp, err := client.Chat(context.Background(), []llm.Message{{Role: "user", Content: "test message"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "test response", resp)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestChatDoesNotRetryBadRequest(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad model","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	client := openai.NewClient("test-key",
		openai.WithBaseURL(server.URL),
		openai.WithLogger(logging.Nop()),
		openai.WithRetry(retry.WithInitialInterval(time.Millisecond), retry.WithMaxAttempts(3)),
	)

	_, err := client.Generate(context.Background(), "hi")
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
