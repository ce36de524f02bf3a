package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/newthinker/llmlab/internal/llm"
	"github.com/newthinker/llmlab/internal/usage"
)

// Shared color printers for command output.
var (
	colorBold   = color.New(color.Bold)
	colorCyan   = color.New(color.FgCyan)
	colorGreen  = color.New(color.FgGreen)
	colorYellow = color.New(color.FgYellow)
	colorDim    = color.New(color.Faint)
)

// roleLabel colors a chat role label.
func roleLabel(r llm.Role) string {
	switch r {
	case llm.RoleSystem:
		return colorYellow.Sprintf("%s:", r)
	case llm.RoleUser:
		return colorCyan.Sprintf("%s:", r)
	case llm.RoleAssistant:
		return colorGreen.Sprintf("%s:", r)
	default:
		return fmt.Sprintf("%s:", r)
	}
}

// printUsage writes the token accounting line of one call.
func printUsage(w io.Writer, rec usage.Record, finish llm.FinishReason) {
	_, _ = colorDim.Fprintf(w, "[%s %s] prompt=%d completion=%d total=%d finish=%s elapsed=%s\n",
		rec.Model, rec.Sampling,
		rec.PromptTokens, rec.CompletionTokens, rec.TotalTokens,
		finish, rec.Elapsed.Round(1e6))
}
