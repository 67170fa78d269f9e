package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/run-bigpig/llm-guardrails/pkg/config"
	"github.com/run-bigpig/llm-guardrails/pkg/guardrails"
	"github.com/run-bigpig/llm-guardrails/pkg/interfaces"
	"github.com/run-bigpig/llm-guardrails/pkg/logging"
	"github.com/run-bigpig/llm-guardrails/pkg/prompts"
)

var (
	configPath    string
	provider      string
	logLevel      string
	mockResponses []string
)

var rootCmd = &cobra.Command{
	Use:   "guardrails",
	Short: "Guardrail patterns around a hosted LLM",
	Long: `Run questions and texts through validated generation pipelines.

  grounded    answer strictly from a knowledge context, or admit missing information
  confidence  generate, score the answer with a second call, withhold it below a threshold
  extract     request a JSON analysis record and validate it against a schema

Configuration is read from --config, a .env file and GUARDRAILS_* variables.
ANTHROPIC_API_KEY (or OPENAI_API_KEY with --provider openai) is required unless
--provider mock is used.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "Model provider: anthropic, openai or mock")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error, disabled")
	rootCmd.PersistentFlags().StringArrayVar(&mockResponses, "mock-response", nil, "Scripted reply for --provider mock, repeatable")
}

// Execute runs the root command
func Execute() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error:"), err)
		os.Exit(1)
	}
}

// app is everything a subcommand needs, built from flags and config
type app struct {
	cfg      *config.Config
	logger   logging.Logger
	llm      interfaces.LLM
	shutdown func(context.Context) error
}

func setup() (*app, error) {
	if provider != "" {
		_ = os.Setenv("GUARDRAILS_PROVIDER", provider)
	}
	if logLevel != "" {
		_ = os.Setenv("GUARDRAILS_LOG_LEVEL", logLevel)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger := logging.New(logging.WithLevel(cfg.LogLevel))

	client, shutdown, err := newLLM(cfg, logger, mockResponses)
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, llm: client, shutdown: shutdown}, nil
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.shutdown(ctx); err != nil {
		a.logger.Warn(ctx, "Failed to flush traces", map[string]interface{}{"error": err.Error()})
	}
}

// options maps config onto pipeline options
func (a *app) options() ([]guardrails.Option, error) {
	opts := []guardrails.Option{
		guardrails.WithLogger(a.logger),
		guardrails.WithModel(a.cfg.Model),
		guardrails.WithMaxTokens(a.cfg.MaxTokens),
		guardrails.WithTimeout(a.cfg.Timeout),
		guardrails.WithEvaluatorModel(a.cfg.EvaluatorModel),
		guardrails.WithEvaluatorMaxTokens(a.cfg.EvaluatorMaxTokens),
		guardrails.WithThreshold(a.cfg.Threshold),
		guardrails.WithStripCodeFences(a.cfg.StripCodeFences),
	}

	if a.cfg.PromptsDir != "" {
		store, err := prompts.NewFileStore(a.cfg.PromptsDir)
		if err != nil {
			return nil, err
		}
		opts = append(opts, guardrails.WithPrompts(prompts.NewLibrary(store)))
	}

	if a.cfg.RedactPII {
		opts = append(opts, guardrails.WithInputChecks(guardrails.NewPIIFilter(interfaces.ActionRedact)))
	}
	if a.cfg.MaxQuestionWords > 0 {
		opts = append(opts, guardrails.WithInputChecks(
			guardrails.NewTokenLimit(a.cfg.MaxQuestionWords, nil, interfaces.ActionRedact, guardrails.TruncateEnd)))
	}
	if a.cfg.GroundingCheck {
		opts = append(opts, guardrails.WithGroundingCheck(interfaces.ActionBlock))
	}

	return opts, nil
}

// exitError reports a failed call after the output was printed
type exitError struct {
	failed int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("%d call(s) failed", e.failed)
}

func countFailed(d guardrails.Decision, err error) int {
	if d.State == guardrails.StateCallFailed || errors.Is(err, guardrails.ErrCallFailed) {
		return 1
	}
	return 0
}

func readContext(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("--context-file is required unless --demo is set")
	}
	data, err := os.ReadFile(path) // #nosec G304 - user-supplied input file
	if err != nil {
		return "", fmt.Errorf("failed to read context file: %w", err)
	}
	return string(data), nil
}
