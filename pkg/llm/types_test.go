package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstText(t *testing.T) {
	text, err := FirstText([]ContentBlock{
		{Type: "thinking", Text: "hmm"},
		{Type: "text", Text: "first"},
		{Type: "text", Text: "second"},
	})
	require.NoError(t, err)
	assert.Equal(t, "first", text)

	_, err = FirstText([]ContentBlock{{Type: "tool_use"}})
	assert.ErrorIs(t, err, ErrNoTextContent)

	_, err = FirstText(nil)
	assert.ErrorIs(t, err, ErrNoTextContent)
}

func TestDefaultGenerateParams(t *testing.T) {
	params := DefaultGenerateParams()
	assert.Equal(t, 1024, params.MaxTokens)
	assert.Empty(t, params.StopSequences)
}
