package prompts

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"text/template"
	"time"
)

// DefaultVersion is assigned to templates created without WithVersion
const DefaultVersion = "1.0.0"

// Template is a versioned guardrail prompt
type Template struct {
	ID          string
	Version     string
	Name        string
	Description string
	Tags        []string
	Metadata    map[string]string
	Content     string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	parsed *template.Template
}

// Filter selects templates from a store. Empty fields match everything.
type Filter struct {
	ID  string
	Tag string
}

// Match reports whether tmpl satisfies every set field of f
func (f Filter) Match(tmpl *Template) bool {
	if f.ID != "" && tmpl.ID != f.ID {
		return false
	}
	if f.Tag != "" && !slices.Contains(tmpl.Tags, f.Tag) {
		return false
	}
	return true
}

// TemplateStore persists prompt overrides
type TemplateStore interface {
	// Get retrieves one version of a template
	Get(ctx context.Context, id string, version string) (*Template, error)

	// List returns every stored template matching filter
	List(ctx context.Context, filter Filter) ([]*Template, error)

	Save(ctx context.Context, tmpl *Template) error
}

// TemplateOption configures a template
type TemplateOption func(*Template)

// WithVersion sets the template version
func WithVersion(version string) TemplateOption {
	return func(t *Template) {
		t.Version = version
	}
}

// WithDescription sets the template description
func WithDescription(description string) TemplateOption {
	return func(t *Template) {
		t.Description = description
	}
}

// WithTags sets the template tags
func WithTags(tags ...string) TemplateOption {
	return func(t *Template) {
		t.Tags = tags
	}
}

// WithMetadata adds a free-form key to the template header
func WithMetadata(key, value string) TemplateOption {
	return func(t *Template) {
		t.Metadata[key] = value
	}
}

// New creates a template at DefaultVersion unless an option overrides it
func New(id string, name string, content string, options ...TemplateOption) *Template {
	now := time.Now().UTC()
	tmpl := &Template{
		ID:        id,
		Version:   DefaultVersion,
		Name:      name,
		Content:   content,
		Metadata:  map[string]string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, option := range options {
		option(tmpl)
	}
	return tmpl
}

// Render executes the template against data. Missing keys are an error.
func (t *Template) Render(data map[string]interface{}) (string, error) {
	if t.parsed == nil {
		parsed, err := template.New(t.ID).Option("missingkey=error").Parse(t.Content)
		if err != nil {
			return "", fmt.Errorf("parse template %s: %w", t.ID, err)
		}
		t.parsed = parsed
	}

	var buf bytes.Buffer
	if err := t.parsed.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template %s: %w", t.ID, err)
	}
	return buf.String(), nil
}

// CompareVersions orders dotted versions part by part, returning -1, 0 or 1.
// Numeric parts compare as integers so 1.10.0 sorts after 1.9.0. Missing
// parts count as zero and a leading "v" is ignored.
func CompareVersions(a, b string) int {
	pa := strings.Split(strings.TrimPrefix(a, "v"), ".")
	pb := strings.Split(strings.TrimPrefix(b, "v"), ".")

	for i := 0; i < max(len(pa), len(pb)); i++ {
		x, y := versionPart(pa, i), versionPart(pb, i)
		xi, errX := strconv.Atoi(x)
		yi, errY := strconv.Atoi(y)
		if errX == nil && errY == nil {
			if xi != yi {
				if xi < yi {
					return -1
				}
				return 1
			}
			continue
		}
		if c := strings.Compare(x, y); c != 0 {
			return c
		}
	}
	return 0
}

func versionPart(parts []string, i int) string {
	if i >= len(parts) || parts[i] == "" {
		return "0"
	}
	return parts[i]
}
