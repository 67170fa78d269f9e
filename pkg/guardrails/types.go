// Package guardrails implements the validated generation pipelines: a
// context-grounded responder, a two-pass confidence gate and a
// schema-constrained extractor, plus the mechanical checks they can run.
package guardrails

import (
	"errors"
	"fmt"
	"strings"
)

// State is a step of a single pipeline invocation
type State string

const (
	StatePromptBuilt      State = "PROMPT_BUILT"
	StateCallIssued       State = "CALL_ISSUED"
	StateResponseReceived State = "RESPONSE_RECEIVED"
	StateCallFailed       State = "CALL_FAILED"
	StateValidated        State = "VALIDATED"
	StateRejected         State = "REJECTED"
)

// Terminal reports whether no further transition follows s
func (s State) Terminal() bool {
	return s == StateValidated || s == StateRejected || s == StateCallFailed
}

var (
	// ErrCallFailed wraps any failure of the generative capability
	ErrCallFailed = errors.New("generation call failed")

	// ErrBlocked is returned when a blocking check is triggered
	ErrBlocked = errors.New("blocked by guardrail")

	// ErrEmptyPrompt is returned for a blank question or text
	ErrEmptyPrompt = errors.New("empty prompt")
)

// PromptBundle is everything one generation call is built from
type PromptBundle struct {
	Instructions string
	Context      string
	Question     string
}

// Generation is the trimmed text of one generation call
type Generation struct {
	Text      string
	IsRefusal bool
}

// Evaluation is the evaluator's verdict on a generation
type Evaluation struct {
	Score       int    `json:"confidenceScore"`
	Explanation string `json:"explanation"`
	// Parsed is false when the evaluator output could not be read
	Parsed bool `json:"-"`
}

// Decision is the outcome of a pipeline invocation
type Decision struct {
	Accepted bool
	Output   string
	State    State
	Score    int
	// Explanation is the evaluator's reason for Score, if one ran
	Explanation string
	Err         error
}

// Analysis is the record the extractor returns
type Analysis struct {
	Category       string `json:"category"`
	Summary        string `json:"summary"`
	RelevanceScore int    `json:"relevanceScore"`
}

// FieldError is one failed constraint of an extracted record
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every field an extracted record failed on
type ValidationError struct {
	Raw    string
	Fields []FieldError
	cause  error
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		if e.cause != nil {
			return fmt.Sprintf("validation failed: %v", e.cause)
		}
		return "validation failed"
	}

	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return e.cause
}

// Has reports whether field is among the failures
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

func failed(err error) Decision {
	return Decision{State: StateCallFailed, Err: err}
}

func rejected(output string, score int, err error) Decision {
	return Decision{State: StateRejected, Output: output, Score: score, Err: err}
}

func validated(output string, score int) Decision {
	return Decision{Accepted: true, State: StateValidated, Output: output, Score: score}
}
