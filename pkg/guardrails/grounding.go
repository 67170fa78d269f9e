package guardrails

import (
	"context"
	"regexp"
	"strings"

	"github.com/run-bigpig/llm-guardrails/pkg/interfaces"
	"github.com/run-bigpig/llm-guardrails/pkg/prompts"
)

// GroundingCheckType is the Type of GroundingCheck
const GroundingCheckType = "grounding_check"

var (
	numberPattern = regexp.MustCompile(`\d+(?:[.,]\d+)*`)
	entityPattern = regexp.MustCompile(`[A-Z][A-Za-z0-9]*(?:[-'’][A-Za-z0-9]+)*`)
)

// GroundingCheck is a mechanical verifier for answers: every number and
// every capitalised word that does not open a sentence must occur in the
// knowledge context. Refusals always pass.
type GroundingCheck struct {
	knowledge      string
	action         interfaces.GuardrailAction
	refusalPhrases []string
}

// NewGroundingCheck creates a check bound to one knowledge context
func NewGroundingCheck(knowledge string, action interfaces.GuardrailAction, refusalPhrases []string) *GroundingCheck {
	return &GroundingCheck{
		knowledge:      strings.ToLower(knowledge),
		action:         action,
		refusalPhrases: refusalPhrases,
	}
}

// Type implements interfaces.Guardrail
func (g *GroundingCheck) Type() string {
	return GroundingCheckType
}

// CheckRequest implements interfaces.Guardrail. Questions are never checked.
func (g *GroundingCheck) CheckRequest(ctx context.Context, request string) (bool, string, error) {
	return false, request, nil
}

// CheckResponse implements interfaces.Guardrail. The modified text is the
// fallback phrase.
func (g *GroundingCheck) CheckResponse(ctx context.Context, response string) (bool, string, error) {
	if len(g.Unsupported(response)) == 0 {
		return false, response, nil
	}
	return true, prompts.NoInformationPhrase, nil
}

// Action implements interfaces.Guardrail
func (g *GroundingCheck) Action() interfaces.GuardrailAction {
	return g.action
}

// Unsupported returns the terms of answer missing from the knowledge context
func (g *GroundingCheck) Unsupported(answer string) []string {
	if IsRefusal(answer, g.refusalPhrases) {
		return nil
	}

	var missing []string
	seen := map[string]bool{}
	add := func(term string) {
		key := strings.ToLower(trimPossessive(term))
		if seen[key] || containsWord(g.knowledge, key) {
			return
		}
		seen[key] = true
		missing = append(missing, term)
	}

	for _, n := range numberPattern.FindAllString(answer, -1) {
		add(n)
	}

	for _, loc := range entityPattern.FindAllStringIndex(answer, -1) {
		if loc[0] > 0 && isWordByte(answer[loc[0]-1]) || sentenceStart(answer, loc[0]) {
			continue
		}
		add(answer[loc[0]:loc[1]])
	}

	return missing
}

// containsWord reports whether word occurs in text with no letter or digit
// directly before or after it
func containsWord(text, word string) bool {
	if word == "" {
		return false
	}
	for offset := 0; ; {
		i := strings.Index(text[offset:], word)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(word)
		if (start == 0 || !isWordByte(text[start-1])) && (end == len(text) || !isWordByte(text[end])) {
			return true
		}
		offset = start + 1
	}
}

func trimPossessive(term string) string {
	for _, suffix := range []string{"'s", "’s"} {
		if trimmed, ok := strings.CutSuffix(term, suffix); ok && trimmed != "" {
			return trimmed
		}
	}
	return term
}

// sentenceStart reports whether the word at i opens a sentence or line
func sentenceStart(text string, i int) bool {
	prev := strings.TrimRight(text[:i], " \t\"'(*-")
	if prev == "" {
		return true
	}
	switch prev[len(prev)-1] {
	case '.', '!', '?', ':', '\n':
		return true
	}
	return false
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
