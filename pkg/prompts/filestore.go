package prompts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	templateExt = ".tmpl"
	frontMatter = "---\n"
)

var errBadTemplateFile = errors.New("template file has no front matter")

// header is the YAML front matter written above each template body
type header struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description,omitempty"`
	Tags        []string          `yaml:"tags,omitempty"`
	Metadata    map[string]string `yaml:"metadata,omitempty"`
	CreatedAt   time.Time         `yaml:"created_at,omitempty"`
	UpdatedAt   time.Time         `yaml:"updated_at,omitempty"`
}

// FileStore keeps one "<id>_<version>.tmpl" file per template version
type FileStore struct {
	basePath string
}

// NewFileStore creates basePath if needed
func NewFileStore(basePath string) (*FileStore, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve prompts dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0750); err != nil {
		return nil, fmt.Errorf("create prompts dir: %w", err)
	}
	return &FileStore{basePath: abs}, nil
}

// Get reads one template version
func (s *FileStore) Get(ctx context.Context, id string, version string) (*Template, error) {
	path, err := s.path(id, version)
	if err != nil {
		return nil, err
	}
	return s.read(path, filepath.Base(id), filepath.Base(version))
}

// List decodes every template file and keeps those matching filter.
// Unreadable files are skipped.
func (s *FileStore) List(ctx context.Context, filter Filter) ([]*Template, error) {
	files, err := filepath.Glob(filepath.Join(s.basePath, "*"+templateExt))
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	var templates []*Template
	for _, file := range files {
		// IDs may contain underscores, versions do not
		name := strings.TrimSuffix(filepath.Base(file), templateExt)
		idx := strings.LastIndex(name, "_")
		if idx <= 0 {
			continue
		}
		tmpl, err := s.read(file, name[:idx], name[idx+1:])
		if err != nil {
			continue
		}
		if filter.Match(tmpl) {
			templates = append(templates, tmpl)
		}
	}
	return templates, nil
}

// Save writes tmpl, replacing any file for the same id and version
func (s *FileStore) Save(ctx context.Context, tmpl *Template) error {
	path, err := s.path(tmpl.ID, tmpl.Version)
	if err != nil {
		return err
	}
	tmpl.UpdatedAt = time.Now().UTC()

	data, err := encodeTemplate(tmpl)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write template %s: %w", tmpl.ID, err)
	}
	return nil
}

// path maps id and version to a file inside basePath
func (s *FileStore) path(id, version string) (string, error) {
	id, version = filepath.Base(id), filepath.Base(version)
	if id == "." || version == "." || strings.Contains(version, "_") {
		return "", fmt.Errorf("invalid template key %q@%q", id, version)
	}

	path := filepath.Join(s.basePath, id+"_"+version+templateExt)
	if !strings.HasPrefix(path, s.basePath+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid template path %q", path)
	}
	return path, nil
}

func (s *FileStore) read(path, id, version string) (*Template, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path is built by FileStore.path or globbed under basePath
	if err != nil {
		return nil, fmt.Errorf("read template %s@%s: %w", id, version, err)
	}
	tmpl, err := decodeTemplate(data, id, version)
	if err != nil {
		return nil, fmt.Errorf("decode template %s@%s: %w", id, version, err)
	}
	return tmpl, nil
}

func encodeTemplate(tmpl *Template) ([]byte, error) {
	head, err := yaml.Marshal(header{
		Name:        tmpl.Name,
		Description: tmpl.Description,
		Tags:        tmpl.Tags,
		Metadata:    tmpl.Metadata,
		CreatedAt:   tmpl.CreatedAt,
		UpdatedAt:   tmpl.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("encode template header: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(frontMatter)
	buf.Write(head)
	buf.WriteString(frontMatter)
	buf.WriteString(tmpl.Content)
	return buf.Bytes(), nil
}

func decodeTemplate(data []byte, id, version string) (*Template, error) {
	rest, ok := bytes.CutPrefix(data, []byte(frontMatter))
	if !ok {
		return nil, errBadTemplateFile
	}
	head, body, ok := bytes.Cut(rest, []byte("\n"+frontMatter))
	if !ok {
		return nil, errBadTemplateFile
	}

	var h header
	if err := yaml.Unmarshal(head, &h); err != nil {
		return nil, err
	}
	if h.Name == "" {
		h.Name = id
	}

	tmpl := New(id, h.Name, string(body), WithVersion(version), WithDescription(h.Description), WithTags(h.Tags...))
	for k, v := range h.Metadata {
		tmpl.Metadata[k] = v
	}
	if !h.CreatedAt.IsZero() {
		tmpl.CreatedAt = h.CreatedAt
	}
	if !h.UpdatedAt.IsZero() {
		tmpl.UpdatedAt = h.UpdatedAt
	}
	return tmpl, nil
}
