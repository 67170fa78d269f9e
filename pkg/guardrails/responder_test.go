package guardrails

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/run-bigpig/llm-guardrails/pkg/interfaces"
	"github.com/run-bigpig/llm-guardrails/pkg/llm/mock"
	"github.com/run-bigpig/llm-guardrails/pkg/logging"
	"github.com/run-bigpig/llm-guardrails/pkg/prompts"
)

func TestResponderAnswersFromContext(t *testing.T) {
	m := mock.New("  Claude 4 Sonnet was launched in May 2025.\n")
	r := NewResponder(m, WithModel("test-model"))

	d, err := r.Answer(context.Background(), "When was Claude 4 Sonnet released?", knowledgeBase)
	require.NoError(t, err)
	assert.True(t, d.Accepted)
	assert.Equal(t, StateValidated, d.State)
	assert.Equal(t, "Claude 4 Sonnet was launched in May 2025.", d.Output)

	calls := m.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].System(), "<KNOWLEDGE_CONTEXT>\n"+knowledgeBase+"\n</KNOWLEDGE_CONTEXT>")
	assert.Contains(t, calls[0].System(), prompts.NoInformationPhrase)
	assert.Equal(t, "When was Claude 4 Sonnet released?", userTurn(calls[0]))
	assert.Equal(t, "test-model", calls[0].Params.Model)
	assert.Equal(t, DefaultMaxTokens, calls[0].Params.MaxTokens)
}

func TestResponderUnanswerableReturnsFallback(t *testing.T) {
	m := mock.New(prompts.NoInformationPhrase)
	r := NewResponder(m, WithGroundingCheck(interfaces.ActionBlock))

	d, err := r.Answer(context.Background(), "What did Ben Mann say about AI in 2026?", knowledgeBase)
	require.NoError(t, err)
	assert.Equal(t, StateValidated, d.State)
	assert.Equal(t, prompts.NoInformationPhrase, d.Output)
}

func TestResponderCallFailure(t *testing.T) {
	r := NewResponder(mock.NewWithError(errors.New("connection refused")))

	d, err := r.Answer(context.Background(), "Who founded Anthropic?", knowledgeBase)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCallFailed)
	assert.Equal(t, StateCallFailed, d.State)
	assert.False(t, d.Accepted)
	assert.Empty(t, d.Output)
	assert.True(t, d.State.Terminal())
}

func TestResponderGroundingCheckBlocksUnsupportedAnswer(t *testing.T) {
	m := mock.New("Co-founder Ben Mann said AI would be safe by 2026.")
	r := NewResponder(m, WithGroundingCheck(interfaces.ActionBlock))

	d, err := r.Answer(context.Background(), "What did Ben Mann say?", knowledgeBase)
	require.NoError(t, err)
	assert.Equal(t, StateRejected, d.State)
	assert.False(t, d.Accepted)
	assert.Equal(t, prompts.NoInformationPhrase, d.Output)
	assert.ErrorIs(t, d.Err, ErrBlocked)
}

func TestResponderGroundingCheckPassesSupportedAnswer(t *testing.T) {
	m := mock.New("Anthropic is headquartered in San Francisco.")
	r := NewResponder(m, WithGroundingCheck(interfaces.ActionBlock))

	d, err := r.Answer(context.Background(), "Where is Anthropic based?", knowledgeBase)
	require.NoError(t, err)
	assert.Equal(t, StateValidated, d.State)
	assert.Equal(t, "Anthropic is headquartered in San Francisco.", d.Output)
}

func TestResponderRejectsEmptyQuestion(t *testing.T) {
	m := mock.New("unused")
	r := NewResponder(m)

	d, err := r.Answer(context.Background(), "   ", knowledgeBase)
	assert.ErrorIs(t, err, ErrEmptyPrompt)
	assert.Equal(t, StateRejected, d.State)
	assert.Empty(t, m.Calls())
}

func TestResponderRedactsQuestionBeforeSending(t *testing.T) {
	m := mock.New(prompts.NotAddressedPhrase)
	r := NewResponder(m, WithInputChecks(NewPIIFilter(interfaces.ActionRedact)))

	_, err := r.Answer(context.Background(), "Mail jane@example.com the launch date", knowledgeBase)
	require.NoError(t, err)

	turn := userTurn(m.Calls()[0])
	assert.NotContains(t, turn, "jane@example.com")
	assert.Contains(t, turn, "[REDACTED email]")
}

func TestResponderBlockedQuestionIsNotSent(t *testing.T) {
	m := mock.New("unused")
	r := NewResponder(m, WithInputChecks(NewTokenLimit(3, nil, interfaces.ActionBlock, "")))

	d, err := r.Answer(context.Background(), "one two three four five", knowledgeBase)
	assert.ErrorIs(t, err, ErrBlocked)
	assert.Equal(t, StateRejected, d.State)
	assert.Empty(t, m.Calls())
}

func TestResponderLogsRunID(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.WithOutput(&buf), logging.WithLevel("debug"))
	r := NewResponder(mock.New("Dario Amodei."), WithLogger(logger))

	ctx := logging.WithRunID(context.Background(), "run-42")
	_, err := r.Answer(ctx, "Who is the founder?", knowledgeBase)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `"run_id":"run-42"`)
	assert.Contains(t, buf.String(), `"state":"VALIDATED"`)
}

func TestResponderCallTimeout(t *testing.T) {
	r := NewResponder(stalledLLM{}, WithTimeout(50*time.Millisecond))

	start := time.Now()
	d, err := r.Answer(context.Background(), "When was Claude 4 Sonnet released?", knowledgeBase)

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.ErrorIs(t, err, ErrCallFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateCallFailed, d.State)
	assert.False(t, d.Accepted)
	assert.Empty(t, d.Output)
}

func TestConfidenceGateEvaluatorTimeout(t *testing.T) {
	g := NewConfidenceGate(stalledLLM{}, WithTimeout(50*time.Millisecond))

	_, err := g.Evaluate(context.Background(), knowledgeBase, "May 2025.")
	assert.ErrorIs(t, err, ErrCallFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
