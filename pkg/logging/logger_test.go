package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerAddsRunID(t *testing.T) {
	var buf bytes.Buffer
	logger := New(WithOutput(&buf), WithLevel("debug"))

	ctx := WithRunID(context.Background(), "run-123")
	logger.Info(ctx, "generation done", map[string]interface{}{"score": 95})

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "run-123", line["run_id"])
	assert.Equal(t, "generation done", line["message"])
	assert.Equal(t, float64(95), line["score"])
}

func TestLoggerLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := New(WithOutput(&buf), WithLevel("warn"))

	logger.Debug(context.Background(), "hidden", nil)
	logger.Info(context.Background(), "hidden", nil)
	logger.Warn(context.Background(), "shown", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 1)
	assert.Contains(t, lines[0], "shown")
}

func TestRunIDMissing(t *testing.T) {
	_, ok := RunID(context.Background())
	assert.False(t, ok)
}
