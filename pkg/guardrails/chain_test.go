package guardrails

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/run-bigpig/llm-guardrails/pkg/interfaces"
	"github.com/run-bigpig/llm-guardrails/pkg/prompts"
)

type failingCheck struct{}

func (failingCheck) Type() string { return "failing" }
func (failingCheck) CheckRequest(context.Context, string) (bool, string, error) {
	return false, "", errors.New("boom")
}
func (failingCheck) CheckResponse(context.Context, string) (bool, string, error) {
	return false, "", errors.New("boom")
}
func (failingCheck) Action() interfaces.GuardrailAction { return interfaces.ActionBlock }

func TestChainActions(t *testing.T) {
	ctx := context.Background()
	input := "write to bob@example.com please"

	logged, err := NewChain(nil, NewPIIFilter(interfaces.ActionLog)).ProcessInput(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, input, logged)

	redacted, err := NewChain(nil, NewPIIFilter(interfaces.ActionRedact)).ProcessInput(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "write to [REDACTED email] please", redacted)

	_, err = NewChain(nil, NewPIIFilter(interfaces.ActionBlock)).ProcessInput(ctx, input)
	assert.ErrorIs(t, err, ErrBlocked)
	assert.Contains(t, err.Error(), PIIFilterType)
}

func TestChainAppliesChecksInOrder(t *testing.T) {
	chain := NewChain(nil,
		NewPIIFilter(interfaces.ActionRedact),
		NewTokenLimit(4, nil, interfaces.ActionRedact, TruncateEnd),
	)
	assert.Equal(t, 2, chain.Len())

	out, err := chain.ProcessInput(context.Background(), "call 555-123-4567 about the launch today")
	require.NoError(t, err)
	assert.Equal(t, "call [REDACTED phone] about ...", out)
}

func TestChainPropagatesCheckErrors(t *testing.T) {
	_, err := NewChain(nil, failingCheck{}).ProcessOutput(context.Background(), "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrBlocked)
	assert.Contains(t, err.Error(), "failing check failed")
}

func TestPIIFilterPatterns(t *testing.T) {
	f := NewPIIFilter(interfaces.ActionRedact)
	ctx := context.Background()

	tests := []struct {
		input string
		want  string
	}{
		{input: "ssn 123-45-6789", want: "ssn [REDACTED ssn]"},
		{input: "card 4111 1111 1111 1111", want: "card [REDACTED credit_card]"},
		{input: "host 10.0.0.1", want: "host [REDACTED ip_address]"},
		{input: "nothing here", want: "nothing here"},
	}

	for _, tt := range tests {
		triggered, out, err := f.CheckRequest(ctx, tt.input)
		require.NoError(t, err)
		assert.Equal(t, tt.want, out)
		assert.Equal(t, tt.input != tt.want, triggered)
	}

	triggered, out, err := f.CheckResponse(ctx, "reach me at a.b@c.io")
	require.NoError(t, err)
	assert.True(t, triggered)
	assert.Equal(t, "reach me at [REDACTED email]", out)
}

func TestTokenLimitModes(t *testing.T) {
	ctx := context.Background()
	text := "one two three four five six"

	tests := []struct {
		mode TruncateMode
		want string
	}{
		{mode: TruncateEnd, want: "one two three four ..."},
		{mode: TruncateStart, want: "three four five six"},
		{mode: TruncateMiddle, want: "one two ... five six"},
	}

	for _, tt := range tests {
		triggered, out, err := NewTokenLimit(4, nil, interfaces.ActionRedact, tt.mode).CheckRequest(ctx, text)
		require.NoError(t, err)
		assert.True(t, triggered)
		assert.Equal(t, tt.want, out)
	}

	middle := []struct {
		max  int
		want string
	}{
		{max: 1, want: "one ..."},
		{max: 2, want: "one ... six"},
		{max: 3, want: "one two ... six"},
		{max: 5, want: "one two three ... five six"},
	}
	for _, tt := range middle {
		_, out, err := NewTokenLimit(tt.max, nil, interfaces.ActionRedact, TruncateMiddle).CheckRequest(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, tt.want, out, "max %d", tt.max)
	}

	triggered, out, err := NewTokenLimit(10, WordCounter{}, interfaces.ActionRedact, "").CheckResponse(ctx, text)
	require.NoError(t, err)
	assert.False(t, triggered)
	assert.Equal(t, text, out)
}

func TestGroundingCheck(t *testing.T) {
	check := NewGroundingCheck(knowledgeBase, interfaces.ActionBlock, DefaultRefusalPhrases())
	ctx := context.Background()

	tests := []struct {
		name        string
		answer      string
		unsupported []string
	}{
		{name: "grounded", answer: "Claude 4 Sonnet launched in May 2025.", unsupported: nil},
		{name: "grounded mid sentence", answer: "It was founded by Dario Amodei.", unsupported: nil},
		{name: "wrong year", answer: "Claude 4 Sonnet launched in June 2024.", unsupported: []string{"2024", "June"}},
		{name: "new person", answer: "The CEO is Daniela Amodei.", unsupported: []string{"CEO", "Daniela"}},
		{name: "refusal", answer: prompts.NoInformationPhrase + " about Ben Mann in 2026.", unsupported: nil},
		{name: "possessive", answer: "It was founded by Dario Amodei's team.", unsupported: nil},
		{name: "curly possessive", answer: "It is Anthropic’s model.", unsupported: nil},
		{name: "digits inside a context number", answer: "It launched in May 20.", unsupported: []string{"20"}},
		{name: "sentence starts are skipped", answer: "Yes. Anthropic is in San Francisco.", unsupported: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.unsupported, check.Unsupported(tt.answer))

			triggered, out, err := check.CheckResponse(ctx, tt.answer)
			require.NoError(t, err)
			assert.Equal(t, len(tt.unsupported) > 0, triggered)
			if triggered {
				assert.Equal(t, prompts.NoInformationPhrase, out)
			} else {
				assert.Equal(t, tt.answer, out)
			}
		})
	}

	triggered, _, err := check.CheckRequest(ctx, "Who is Ben Mann?")
	require.NoError(t, err)
	assert.False(t, triggered)
}

func TestGroundingCheckMatchesWholeWords(t *testing.T) {
	check := NewGroundingCheck("The team held a dance in Lisbon in 2019.", interfaces.ActionBlock, nil)

	assert.Equal(t, []string{"Dan"}, check.Unsupported("The host was Dan."))
	assert.Equal(t, []string{"201", "Lis"}, check.Unsupported("It was in Lis in 201."))
	assert.Empty(t, check.Unsupported("It was held in Lisbon in 2019."))
}

func TestIsRefusal(t *testing.T) {
	phrases := DefaultRefusalPhrases()
	assert.True(t, IsRefusal("i have no information about this in my provided context.", phrases))
	assert.True(t, IsRefusal("The CEO's name wasn't found in the context.", phrases))
	assert.False(t, IsRefusal("Dario Amodei.", phrases))
	assert.False(t, IsRefusal("anything", nil))
}

func TestStateTerminal(t *testing.T) {
	for _, s := range []State{StateValidated, StateRejected, StateCallFailed} {
		assert.True(t, s.Terminal(), s)
	}
	for _, s := range []State{StatePromptBuilt, StateCallIssued, StateResponseReceived} {
		assert.False(t, s.Terminal(), s)
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Fields: []FieldError{{Field: "relevanceScore", Message: "maximum"}, {Field: "summary", Message: "missing"}}}
	assert.Equal(t, "validation failed: relevanceScore: maximum; summary: missing", err.Error())
	assert.True(t, err.Has("summary"))
	assert.False(t, err.Has("category"))
}
