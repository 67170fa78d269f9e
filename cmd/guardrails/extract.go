package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/run-bigpig/llm-guardrails/pkg/guardrails"
	"github.com/run-bigpig/llm-guardrails/pkg/scenarios"
)

var extractDemo bool

var extractCmd = &cobra.Command{
	Use:   "extract [text]",
	Short: "Extract a validated JSON analysis of a text",
	Long: `Ask the model for a {category, summary, relevanceScore} record describing the
text and validate it against a JSON Schema. Records that fail validation are
never printed.

Examples:
  guardrails extract "Apple's new M4 processor promises faster rendering."
  guardrails extract --demo`,
	Args: func(cmd *cobra.Command, args []string) error {
		if extractDemo {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().BoolVar(&extractDemo, "demo", false, "Analyze the built-in sample text")
}

func runExtract(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	opts, err := a.options()
	if err != nil {
		return err
	}
	extractor, err := guardrails.NewExtractor(a.llm, opts...)
	if err != nil {
		return err
	}

	text := scenarios.AnalysisText
	if !extractDemo {
		text = args[0]
	}

	printHeader("Text:")
	printQuestion(text)

	analysis, d, err := extractor.Extract(context.Background(), text)
	printDecision(d)

	var verr *guardrails.ValidationError
	switch {
	case errors.As(err, &verr):
		for _, f := range verr.Fields {
			fmt.Println(mutedStyle.Render(fmt.Sprintf("  %s: %s", f.Field, f.Message)))
		}
		return nil
	case countFailed(d, err) > 0:
		return &exitError{failed: 1}
	case err != nil:
		return err
	}

	fmt.Println()
	fmt.Println(headerStyle.Render("Structured result:"))
	fmt.Println(answerStyle.Render(fmt.Sprintf("Category:        %s", analysis.Category)))
	fmt.Println(answerStyle.Render(fmt.Sprintf("Summary:         %s", analysis.Summary)))
	fmt.Println(answerStyle.Render(fmt.Sprintf("Relevance score: %d", analysis.RelevanceScore)))
	return nil
}
