// Package config loads guardrail settings from defaults, an optional YAML
// file, a .env file and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/run-bigpig/llm-guardrails/pkg/retry"
)

// Providers accepted in Config.Provider
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderMock      = "mock"
)

// Config holds everything the CLI and example programs need to build pipelines
type Config struct {
	Provider string `yaml:"provider" env:"GUARDRAILS_PROVIDER" validate:"oneof=anthropic openai mock"`
	BaseURL  string `yaml:"base_url" env:"GUARDRAILS_BASE_URL" validate:"omitempty,url"`

	AnthropicAPIKey string `yaml:"-" env:"ANTHROPIC_API_KEY"`
	OpenAIAPIKey    string `yaml:"-" env:"OPENAI_API_KEY"`

	Model              string `yaml:"model" env:"GUARDRAILS_MODEL" validate:"required"`
	EvaluatorModel     string `yaml:"evaluator_model" env:"GUARDRAILS_EVALUATOR_MODEL" validate:"required"`
	MaxTokens          int    `yaml:"max_tokens" env:"GUARDRAILS_MAX_TOKENS" validate:"gt=0"`
	EvaluatorMaxTokens int    `yaml:"evaluator_max_tokens" env:"GUARDRAILS_EVALUATOR_MAX_TOKENS" validate:"gt=0"`

	Threshold int           `yaml:"threshold" env:"GUARDRAILS_THRESHOLD" validate:"min=0,max=100"`
	Timeout   time.Duration `yaml:"timeout" env:"GUARDRAILS_TIMEOUT" validate:"gt=0"`

	Retry retry.Policy `yaml:"retry" env:"-"`

	LogLevel string `yaml:"log_level" env:"GUARDRAILS_LOG_LEVEL" validate:"oneof=debug info warn error disabled"`

	PromptsDir       string `yaml:"prompts_dir" env:"GUARDRAILS_PROMPTS_DIR"`
	StripCodeFences  bool   `yaml:"strip_code_fences" env:"GUARDRAILS_STRIP_CODE_FENCES"`
	GroundingCheck   bool   `yaml:"grounding_check" env:"GUARDRAILS_GROUNDING_CHECK"`
	MaxQuestionWords int    `yaml:"max_question_words" env:"GUARDRAILS_MAX_QUESTION_WORDS" validate:"min=0"`
	RedactPII        bool   `yaml:"redact_pii" env:"GUARDRAILS_REDACT_PII"`

	Tracing Tracing `yaml:"tracing"`
}

// Tracing configures the OpenTelemetry exporter
type Tracing struct {
	Enabled     bool   `yaml:"enabled" env:"GUARDRAILS_TRACING_ENABLED"`
	Endpoint    string `yaml:"endpoint" env:"GUARDRAILS_TRACING_ENDPOINT" validate:"required_if=Enabled true"`
	ServiceName string `yaml:"service_name" env:"GUARDRAILS_TRACING_SERVICE_NAME"`
}

// Default returns the built-in settings
func Default() *Config {
	return &Config{
		Provider:           ProviderAnthropic,
		Model:              "claude-sonnet-4-5",
		EvaluatorModel:     "claude-sonnet-4-5-20250929",
		MaxTokens:          1024,
		EvaluatorMaxTokens: 512,
		Threshold:          80,
		Timeout:            60 * time.Second,
		Retry:              *retry.NewPolicy(),
		LogLevel:           "info",
		Tracing: Tracing{
			Endpoint:    "localhost:4317",
			ServiceName: "llm-guardrails",
		},
	}
}

// Load builds a Config. path may be empty; a missing .env file is ignored.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	// env does not descend into nested structs
	for _, target := range []interface{}{cfg, &cfg.Tracing} {
		if err := env.Parse(target); err != nil {
			return nil, fmt.Errorf("failed to parse environment: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	if !isValidFilePath(path) {
		return fmt.Errorf("invalid config file path")
	}

	data, err := os.ReadFile(path) // #nosec G304 - Path is validated with isValidFilePath() before use
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return nil
}

var validate = validator.New()

// Validate checks field ranges and that the selected provider has a key
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	switch c.Provider {
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("invalid configuration: ANTHROPIC_API_KEY is required for provider %q", c.Provider)
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("invalid configuration: OPENAI_API_KEY is required for provider %q", c.Provider)
		}
	}

	return nil
}

// isValidFilePath rejects empty paths, traversal and kernel pseudo-filesystems
func isValidFilePath(filePath string) bool {
	if filePath == "" {
		return false
	}

	cleanPath := filepath.Clean(filePath)
	if strings.Contains(cleanPath, "..") {
		return false
	}

	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return false
	}

	return !strings.HasPrefix(absPath, "/proc") && !strings.HasPrefix(absPath, "/sys")
}
