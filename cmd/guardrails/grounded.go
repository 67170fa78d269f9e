package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/run-bigpig/llm-guardrails/pkg/guardrails"
	"github.com/run-bigpig/llm-guardrails/pkg/scenarios"
)

var (
	groundedContextFile string
	groundedDemo        bool
)

var groundedCmd = &cobra.Command{
	Use:   "grounded [question]",
	Short: "Answer strictly from a knowledge context",
	Long: `Answer a question using only the text of --context-file. When the context
does not contain the answer the model is instructed to say so instead of guessing.

Examples:
  guardrails grounded --context-file kb.txt "Where is the headquarters?"
  guardrails grounded --demo`,
	Args: func(cmd *cobra.Command, args []string) error {
		if groundedDemo {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: runGrounded,
}

func init() {
	rootCmd.AddCommand(groundedCmd)
	groundedCmd.Flags().StringVar(&groundedContextFile, "context-file", "", "File holding the knowledge context")
	groundedCmd.Flags().BoolVar(&groundedDemo, "demo", false, "Run the built-in scenarios")
}

func runGrounded(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	opts, err := a.options()
	if err != nil {
		return err
	}
	responder := guardrails.NewResponder(a.llm, opts...)

	knowledge, cases, err := groundedInputs(args)
	if err != nil {
		return err
	}

	failed := 0
	for _, sc := range cases {
		printHeader(sc.Title)
		printQuestion(sc.Question)

		d, err := responder.Answer(context.Background(), sc.Question, knowledge)
		failed += countFailed(d, err)
		printDecision(d)
	}

	if failed > 0 {
		return &exitError{failed: failed}
	}
	return nil
}

func groundedInputs(args []string) (string, []scenarios.Scenario, error) {
	if groundedDemo {
		return scenarios.GroundedKnowledge, scenarios.Grounded(), nil
	}
	knowledge, err := readContext(groundedContextFile)
	if err != nil {
		return "", nil, err
	}
	return knowledge, []scenarios.Scenario{{Title: "Question:", Question: args[0]}}, nil
}
