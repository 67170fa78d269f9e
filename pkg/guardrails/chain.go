package guardrails

import (
	"context"
	"fmt"

	"github.com/run-bigpig/llm-guardrails/pkg/interfaces"
	"github.com/run-bigpig/llm-guardrails/pkg/logging"
)

// Chain applies checks in order and implements interfaces.Guardrails
type Chain struct {
	checks []interfaces.Guardrail
	logger logging.Logger
}

// NewChain creates a chain. logger may be nil.
func NewChain(logger logging.Logger, checks ...interfaces.Guardrail) *Chain {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Chain{checks: checks, logger: logger}
}

// Len returns the number of checks
func (c *Chain) Len() int {
	return len(c.checks)
}

// ProcessInput runs every check's CheckRequest over input
func (c *Chain) ProcessInput(ctx context.Context, input string) (string, error) {
	return c.process(ctx, "input", input, func(g interfaces.Guardrail, text string) (bool, string, error) {
		return g.CheckRequest(ctx, text)
	})
}

// ProcessOutput runs every check's CheckResponse over output
func (c *Chain) ProcessOutput(ctx context.Context, output string) (string, error) {
	return c.process(ctx, "output", output, func(g interfaces.Guardrail, text string) (bool, string, error) {
		return g.CheckResponse(ctx, text)
	})
}

func (c *Chain) process(ctx context.Context, side, text string, check func(interfaces.Guardrail, string) (bool, string, error)) (string, error) {
	for _, g := range c.checks {
		triggered, modified, err := check(g, text)
		if err != nil {
			return "", fmt.Errorf("%s check failed: %w", g.Type(), err)
		}
		if !triggered {
			continue
		}

		fields := map[string]interface{}{
			"guardrail": g.Type(),
			"side":      side,
			"action":    string(g.Action()),
		}

		switch g.Action() {
		case interfaces.ActionBlock:
			c.logger.Warn(ctx, "Guardrail blocked text", fields)
			return "", fmt.Errorf("%w: %s", ErrBlocked, g.Type())
		case interfaces.ActionRedact:
			c.logger.Info(ctx, "Guardrail modified text", fields)
			text = modified
		default:
			c.logger.Warn(ctx, "Guardrail triggered", fields)
		}
	}
	return text, nil
}
