package guardrails

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"github.com/tidwall/gjson"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/run-bigpig/llm-guardrails/pkg/interfaces"
	"github.com/run-bigpig/llm-guardrails/pkg/jsonx"
	"github.com/run-bigpig/llm-guardrails/pkg/llm"
	"github.com/run-bigpig/llm-guardrails/pkg/prompts"
)

const (
	MinRelevance = 1
	MaxRelevance = 10

	analysisSchemaURL = "analysis.json"
)

// AnalysisSchema is the JSON Schema every extracted record must satisfy
var AnalysisSchema = fmt.Sprintf(`{
	"type": "object",
	"required": ["category", "summary", "relevanceScore"],
	"properties": {
		"category": {"type": "string"},
		"summary": {"type": "string"},
		"relevanceScore": {"type": "integer", "minimum": %d, "maximum": %d}
	}
}`, MinRelevance, MaxRelevance)

var printer = message.NewPrinter(language.English)

// Extractor asks the model for an Analysis record and validates it
type Extractor struct {
	pipeline
	schema *jsonschema.Schema
}

// NewExtractor creates an extractor over llm
func NewExtractor(llm interfaces.LLM, opts ...Option) (*Extractor, error) {
	schema, err := compileSchema(AnalysisSchema)
	if err != nil {
		return nil, err
	}
	return &Extractor{pipeline: newPipeline("extract", llm, opts), schema: schema}, nil
}

func compileSchema(src string) (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("schema unmarshal error: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(analysisSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("schema compile error: %w", err)
	}
	sch, err := c.Compile(analysisSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("schema compile error: %w", err)
	}
	return sch, nil
}

// Extract analyses text. On any validation failure no record is returned
// and the error is a *ValidationError.
func (e *Extractor) Extract(ctx context.Context, text string) (*Analysis, Decision, error) {
	ctx = e.begin(ctx)

	if blank(text) {
		return nil, rejected("", 0, ErrEmptyPrompt), ErrEmptyPrompt
	}

	system, err := e.opts.library.Render(ctx, prompts.StructuredAnalysisID, map[string]interface{}{
		"MaxSummaryWords": e.opts.maxSummaryWords,
		"MinRelevance":    MinRelevance,
		"MaxRelevance":    MaxRelevance,
	})
	if err != nil {
		return nil, rejected("", 0, err), err
	}
	e.transition(ctx, StatePromptBuilt, nil)

	raw, err := e.call(ctx, e.opts.model, e.opts.maxTokens, `Analyze the following text: "`+text+`"`,
		interfaces.WithSystemMessage(system),
		interfaces.WithJSONMode(),
	)
	if errors.Is(err, llm.ErrNoTextContent) {
		verr := &ValidationError{Fields: []FieldError{{Field: "$", Message: "no text content"}}, cause: err}
		return nil, rejected("", 0, verr), verr
	}
	if err != nil {
		return nil, failed(err), err
	}

	analysis, err := e.Validate(ctx, raw)
	if err != nil {
		e.opts.logger.Error(ctx, "Extracted record failed validation", map[string]interface{}{
			"raw":   raw,
			"error": err.Error(),
		})
		e.transition(ctx, StateRejected, nil)
		return nil, rejected("", 0, err), err
	}

	e.transition(ctx, StateValidated, nil)
	return analysis, validated(strings.TrimSpace(raw), analysis.RelevanceScore), nil
}

// Validate parses and checks raw model output. It is deterministic and
// makes no calls.
func (e *Extractor) Validate(ctx context.Context, raw string) (*Analysis, error) {
	raw = strings.TrimSpace(raw)
	if e.opts.stripFences {
		raw = jsonx.StripFences(raw)
	}

	if !json.Valid([]byte(raw)) {
		msg := "not valid JSON"
		if jsonx.HasFence(raw) {
			msg = "not valid JSON (wrapped in a code fence)"
		}
		return nil, &ValidationError{Raw: raw, Fields: []FieldError{{Field: "$", Message: msg}}}
	}

	inst, err := jsonschema.UnmarshalJSON(strings.NewReader(raw))
	if err != nil {
		return nil, &ValidationError{Raw: raw, Fields: []FieldError{{Field: "$", Message: "not valid JSON"}}, cause: err}
	}

	if err := e.schema.Validate(inst); err != nil {
		verr := &ValidationError{Raw: raw, cause: err}
		var serr *jsonschema.ValidationError
		if errors.As(err, &serr) {
			verr.Fields = fieldErrors(serr)
		}
		return nil, verr
	}

	analysis := &Analysis{
		Category:       gjson.Get(raw, "category").String(),
		Summary:        gjson.Get(raw, "summary").String(),
		RelevanceScore: int(gjson.Get(raw, "relevanceScore").Int()),
	}

	if words := len(strings.Fields(analysis.Summary)); e.opts.maxSummaryWords > 0 && words > e.opts.maxSummaryWords {
		e.opts.logger.Warn(ctx, "Summary exceeds word limit", map[string]interface{}{
			"words": words,
			"limit": e.opts.maxSummaryWords,
		})
	}

	return analysis, nil
}

// fieldErrors flattens the leaves of a schema validation error
func fieldErrors(v *jsonschema.ValidationError) []FieldError {
	if len(v.Causes) > 0 {
		var out []FieldError
		for _, cause := range v.Causes {
			out = append(out, fieldErrors(cause)...)
		}
		return out
	}

	if req, ok := v.ErrorKind.(*kind.Required); ok {
		out := make([]FieldError, 0, len(req.Missing))
		for _, name := range req.Missing {
			out = append(out, FieldError{Field: name, Message: "missing"})
		}
		return out
	}

	field := strings.Join(v.InstanceLocation, "/")
	if field == "" {
		field = "$"
	}
	return []FieldError{{Field: field, Message: v.ErrorKind.LocalizedString(printer)}}
}
