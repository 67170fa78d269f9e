package llm

import "errors"

// ErrNoTextContent is returned when a response carries no text content block
var ErrNoTextContent = errors.New("no text content in response")

// Role names accepted by chat-style providers
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message represents a message in a chat conversation
type Message struct {
	Role    string // "system", "user", "assistant"
	Content string
}

// ContentBlock is one tagged block of a provider response
type ContentBlock struct {
	Type string
	Text string
}

// GenerateParams contains parameters for text generation
type GenerateParams struct {
	Model         string   // Overrides the client model when set
	MaxTokens     int      // Maximum output token budget
	Temperature   float64  // Controls randomness (0.0 to 1.0)
	TopP          float64  // Alternative to temperature for nucleus sampling
	StopSequences []string // Stop generation at these sequences
	JSONMode      bool     // Ask for a provider-level JSON object response where supported
}

// DefaultGenerateParams returns default generation parameters. Zero
// Temperature and TopP are omitted from requests.
func DefaultGenerateParams() *GenerateParams {
	return &GenerateParams{
		MaxTokens: 1024,
	}
}

// FirstText returns the text of the first block tagged "text".
// Later text blocks are ignored.
func FirstText(blocks []ContentBlock) (string, error) {
	for _, block := range blocks {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", ErrNoTextContent
}
