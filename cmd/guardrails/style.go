package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/run-bigpig/llm-guardrails/pkg/guardrails"
)

var (
	headerColor   = lipgloss.Color("#F780FF")
	questionColor = lipgloss.Color("#8BE9FD")
	answerColor   = lipgloss.Color("#E9E9F4")
	mutedColor    = lipgloss.Color("#6272A4")
	errorColor    = lipgloss.Color("#FF5555")
	successColor  = lipgloss.Color("#50FA7B")

	headerStyle   = lipgloss.NewStyle().Foreground(headerColor).Bold(true)
	questionStyle = lipgloss.NewStyle().Foreground(questionColor).Italic(true)
	answerStyle   = lipgloss.NewStyle().Foreground(answerColor)
	mutedStyle    = lipgloss.NewStyle().Foreground(mutedColor).Italic(true)
	errorStyle    = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	successStyle  = lipgloss.NewStyle().Foreground(successColor).Bold(true)
)

func printHeader(title string) {
	fmt.Println()
	fmt.Println(headerStyle.Render(title))
}

func printQuestion(question string) {
	fmt.Println(questionStyle.Render(question))
	fmt.Println()
}

func printDecision(d guardrails.Decision) {
	switch d.State {
	case guardrails.StateValidated:
		fmt.Println(successStyle.Render("✓ " + string(d.State)))
	case guardrails.StateCallFailed:
		fmt.Println(errorStyle.Render("✗ " + string(d.State)))
		if d.Err != nil {
			fmt.Println(mutedStyle.Render(d.Err.Error()))
		}
		return
	default:
		fmt.Println(errorStyle.Render("✗ " + string(d.State)))
	}
	if d.Output != "" {
		fmt.Println(answerStyle.Render(d.Output))
	}
}
