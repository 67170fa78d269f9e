package guardrails

import (
	"context"
	"regexp"

	"github.com/run-bigpig/llm-guardrails/pkg/interfaces"
)

// PIIFilterType is the Type of PIIFilter
const PIIFilterType = "pii_filter"

// PIIFilter redacts personal data so it never reaches the model
type PIIFilter struct {
	names    []string
	patterns map[string]*regexp.Regexp
	action   interfaces.GuardrailAction
}

// NewPIIFilter creates a new PII filter
func NewPIIFilter(action interfaces.GuardrailAction) *PIIFilter {
	patterns := map[string]*regexp.Regexp{
		"email":       regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		"ssn":         regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
		"credit_card": regexp.MustCompile(`\b\d{4}[- ]?\d{4}[- ]?\d{4}[- ]?\d{4}\b`),
		"phone":       regexp.MustCompile(`\b(\+\d{1,2}\s)?\(?\d{3}\)?[\s.-]?\d{3}[\s.-]?\d{4}\b`),
		"ip_address":  regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`),
	}

	// Specific patterns run first so a card number is not half-eaten as a phone
	names := []string{"email", "ssn", "credit_card", "phone", "ip_address"}

	return &PIIFilter{
		names:    names,
		patterns: patterns,
		action:   action,
	}
}

// Type implements interfaces.Guardrail
func (p *PIIFilter) Type() string {
	return PIIFilterType
}

// CheckRequest implements interfaces.Guardrail
func (p *PIIFilter) CheckRequest(ctx context.Context, request string) (bool, string, error) {
	triggered, modified := p.redact(request)
	return triggered, modified, nil
}

// CheckResponse implements interfaces.Guardrail
func (p *PIIFilter) CheckResponse(ctx context.Context, response string) (bool, string, error) {
	triggered, modified := p.redact(response)
	return triggered, modified, nil
}

// Action implements interfaces.Guardrail
func (p *PIIFilter) Action() interfaces.GuardrailAction {
	return p.action
}

func (p *PIIFilter) redact(text string) (bool, string) {
	triggered := false
	for _, name := range p.names {
		pattern := p.patterns[name]
		if pattern.MatchString(text) {
			triggered = true
			text = pattern.ReplaceAllString(text, "[REDACTED "+name+"]")
		}
	}
	return triggered, text
}
