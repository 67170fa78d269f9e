package interfaces

import "context"

// Guardrails represents a system for ensuring safe and appropriate responses
type Guardrails interface {
	// ProcessInput processes user input before sending to the LLM
	ProcessInput(ctx context.Context, input string) (string, error)

	// ProcessOutput processes LLM output before returning to the user
	ProcessOutput(ctx context.Context, output string) (string, error)
}

// GuardrailAction is what happens when a check is triggered
type GuardrailAction string

const (
	// ActionLog records the violation and passes the text through unchanged
	ActionLog GuardrailAction = "log"
	// ActionRedact replaces the text with the check's modified version
	ActionRedact GuardrailAction = "redact"
	// ActionBlock stops processing
	ActionBlock GuardrailAction = "block"
)

// Guardrail is a single mechanical check applied on either side of a call
type Guardrail interface {
	// Type returns the name of the check
	Type() string

	// CheckRequest reports whether request violates the check, with a modified version
	CheckRequest(ctx context.Context, request string) (bool, string, error)

	// CheckResponse reports whether response violates the check, with a modified version
	CheckResponse(ctx context.Context, response string) (bool, string, error)

	// Action returns the action to take when triggered
	Action() GuardrailAction
}
