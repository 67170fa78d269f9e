package prompts

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
)

// Template IDs used by the guardrail pipelines
const (
	GroundedAnswerID       = "grounded_answer"
	ConfidenceGenerationID = "confidence_generation"
	ConfidenceEvaluationID = "confidence_evaluation"
	StructuredAnalysisID   = "structured_analysis"
)

// Fallback phrases the grounded prompt tells the model to use
const (
	NoInformationPhrase = "I have no information about this in my provided context"
	NotAddressedPhrase  = "The knowledge context does not address this question."
)

const groundedAnswer = `You are a factual and cautious AI assistant.
Your prime directive is to NEVER MAKE UP INFORMATION.

You must respond strictly based on the 'KNOWLEDGE CONTEXT' provided below.

<KNOWLEDGE_CONTEXT>
{{.Context}}
</KNOWLEDGE_CONTEXT>

GUARDRAIL RULES:
1. Knowledge Restriction: Use ONLY the text within <KNOWLEDGE_CONTEXT>.
2. Hallucination Prevention: If the answer to the user's question cannot be
fully supported by the KNOWLEDGE CONTEXT, you must respond with a phrase that
indicates uncertainty or lack of information, such as: "{{.NoInformation}}" or
"{{.NotAddressed}}"
3. Format: Answer clearly and concisely.
`

const confidenceGeneration = `You are an AI assistant whose job it is to answer the user's question.
Your sole source of truth is the CONTEXT provided below.

<CONTEXT>
{{.Context}}
</CONTEXT>

If the answer isn't in the CONTEXT, respond concisely by stating that the information wasn't found.
Your response should be the answer text ONLY, without any introductions.
`

const confidenceEvaluation = `You are an AI guardrail evaluator. Your task is to determine the factual reliability of the 'GENERATED RESPONSE' by strictly comparing it to the 'KNOWLEDGE CONTEXT'.

1. If the RESPONSE is 100% grounded in the CONTEXT, the reliability is 100.
2. If the RESPONSE contains information not in the CONTEXT (hallucination), the reliability is 0.
3. If the RESPONSE honestly admits missing information (as instructed), the reliability is 95.

<KNOWLEDGE_CONTEXT>
{{.Context}}
</KNOWLEDGE_CONTEXT>

<GENERATED_RESPONSE>
{{.Response}}
</GENERATED_RESPONSE>

Respond ONLY with a JSON object of this shape:
{
  "confidenceScore": integer from 0 to 100,
  "explanation": string, a brief explanation of the score
}
`

const structuredAnalysis = `You are a content analysis assistant.
You must parse the text provided by the user and generate a JSON object that ONLY contains the following keys and formats:
<json_schema>
{
"category": "string (e.g., 'Technology', 'News', 'Sports')",
"summary": "string (a concise summary with a maximum of {{.MaxSummaryWords}} words)",
"relevanceScore": "number (an integer EXCLUSIVELY between {{.MinRelevance}} and {{.MaxRelevance}}, where {{.MaxRelevance}} is the most relevant)"
}
</json_schema>

Your response MUST be the JSON object only. Do not include explanatory text, comments, or anything else besides the JSON.
Return ONLY a valid JSON object, without markdown formatting.
Do not include ` + "```json or ```" + ` markers.
Return the raw JSON only.
`

func builtins() map[string]*Template {
	return map[string]*Template{
		GroundedAnswerID: New(GroundedAnswerID, "Grounded answer", groundedAnswer,
			WithDescription("Answer strictly from the supplied knowledge context"),
			WithTags("guardrail", "grounding")),
		ConfidenceGenerationID: New(ConfidenceGenerationID, "Confidence gate generation", confidenceGeneration,
			WithDescription("First pass of the confidence gate"),
			WithTags("guardrail", "confidence")),
		ConfidenceEvaluationID: New(ConfidenceEvaluationID, "Confidence gate evaluation", confidenceEvaluation,
			WithDescription("Second pass: score grounding of a generated response"),
			WithTags("guardrail", "confidence", "evaluator")),
		StructuredAnalysisID: New(StructuredAnalysisID, "Structured analysis", structuredAnalysis,
			WithDescription("Schema-constrained JSON extraction"),
			WithTags("guardrail", "extraction")),
	}
}

// Library resolves guardrail prompts, preferring overrides from a store
type Library struct {
	mu       sync.Mutex
	store    TemplateStore
	builtins map[string]*Template
}

// NewLibrary creates a library. store may be nil.
func NewLibrary(store TemplateStore) *Library {
	return &Library{
		store:    store,
		builtins: builtins(),
	}
}

// Get returns the highest stored version of id, or the built-in template
func (l *Library) Get(ctx context.Context, id string) (*Template, error) {
	if l.store != nil {
		templates, err := l.store.List(ctx, Filter{ID: id})
		if err != nil {
			return nil, err
		}
		if len(templates) > 0 {
			return slices.MaxFunc(templates, func(a, b *Template) int {
				return CompareVersions(a.Version, b.Version)
			}), nil
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	tmpl, ok := l.builtins[id]
	if !ok {
		return nil, fmt.Errorf("template not found: %s", id)
	}
	return tmpl, nil
}

// Render resolves id and renders it with data
func (l *Library) Render(ctx context.Context, id string, data map[string]interface{}) (string, error) {
	tmpl, err := l.Get(ctx, id)
	if err != nil {
		return "", err
	}

	// Render caches the parsed template on the shared built-in
	l.mu.Lock()
	defer l.mu.Unlock()
	return tmpl.Render(data)
}

// Export writes every built-in template to store
func (l *Library) Export(ctx context.Context, store TemplateStore) error {
	ids := make([]string, 0, len(l.builtins))
	for id := range l.builtins {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		src := l.builtins[id]
		copied := New(src.ID, src.Name, src.Content,
			WithVersion(src.Version),
			WithDescription(src.Description),
			WithTags(src.Tags...))
		if err := store.Save(ctx, copied); err != nil {
			return fmt.Errorf("failed to export %s: %w", id, err)
		}
	}
	return nil
}
