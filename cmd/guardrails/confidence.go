package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/run-bigpig/llm-guardrails/pkg/guardrails"
	"github.com/run-bigpig/llm-guardrails/pkg/scenarios"
)

var (
	confidenceContextFile string
	confidenceThreshold   int
	confidenceDemo        bool
)

var confidenceCmd = &cobra.Command{
	Use:   "confidence [question]",
	Short: "Generate, self-evaluate and gate an answer",
	Long: `Generate an answer from --context-file, ask a second call to score how well
the answer is grounded in the context (0 to 100) and show it only when the score
reaches --threshold. Below the threshold a fixed refusal is shown instead.

Examples:
  guardrails confidence --context-file kb.txt "Who founded the company?"
  guardrails confidence --demo --threshold 90`,
	Args: func(cmd *cobra.Command, args []string) error {
		if confidenceDemo {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: runConfidence,
}

func init() {
	rootCmd.AddCommand(confidenceCmd)
	confidenceCmd.Flags().StringVar(&confidenceContextFile, "context-file", "", "File holding the knowledge context")
	confidenceCmd.Flags().IntVar(&confidenceThreshold, "threshold", -1, "Minimum confidence score (default from config, 80)")
	confidenceCmd.Flags().BoolVar(&confidenceDemo, "demo", false, "Run the built-in scenarios")
}

func runConfidence(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	if confidenceThreshold >= 0 {
		if confidenceThreshold > 100 {
			return fmt.Errorf("--threshold must be between 0 and 100")
		}
		a.cfg.Threshold = confidenceThreshold
	}

	opts, err := a.options()
	if err != nil {
		return err
	}
	gate := guardrails.NewConfidenceGate(a.llm, opts...)

	knowledge, cases, err := confidenceInputs(args)
	if err != nil {
		return err
	}

	failed := 0
	for _, sc := range cases {
		printHeader(fmt.Sprintf("%s (threshold %d)", sc.Title, gate.Threshold()))
		printQuestion(sc.Question)

		d, err := gate.Run(context.Background(), sc.Question, knowledge)
		failed += countFailed(d, err)
		for _, line := range evaluationLines(d) {
			fmt.Println(mutedStyle.Render(line))
		}
		printDecision(d)
	}

	if failed > 0 {
		return &exitError{failed: failed}
	}
	return nil
}

// evaluationLines describes the evaluator verdict behind d
func evaluationLines(d guardrails.Decision) []string {
	if d.State == guardrails.StateCallFailed {
		return nil
	}
	lines := []string{fmt.Sprintf("Confidence score: %d / 100", d.Score)}
	if d.Explanation != "" {
		lines = append(lines, "Evaluator: "+d.Explanation)
	}
	return lines
}

func confidenceInputs(args []string) (string, []scenarios.Scenario, error) {
	if confidenceDemo {
		return scenarios.ConfidenceKnowledge, scenarios.Confidence(), nil
	}
	knowledge, err := readContext(confidenceContextFile)
	if err != nil {
		return "", nil, err
	}
	return knowledge, []scenarios.Scenario{{Title: "Question:", Question: args[0]}}, nil
}
