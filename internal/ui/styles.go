// Package ui renders sessions, messages and status lines for the terminal.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorPrimary = lipgloss.Color("#7C71F9")
	colorSuccess = lipgloss.Color("#34D399")
	colorError   = lipgloss.Color("#F87171")
	colorWarning = lipgloss.Color("#FBBF24")
	colorDim     = lipgloss.Color("#6B7280")
	colorAccent  = lipgloss.Color("#60A5FA")
)

var (
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
	styleError   = lipgloss.NewStyle().Foreground(colorError)
	styleSuccess = lipgloss.NewStyle().Foreground(colorSuccess)
	styleWarning = lipgloss.NewStyle().Foreground(colorWarning)
	styleInfo    = lipgloss.NewStyle().Foreground(colorAccent)
	styleHeader  = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)

	styleUserPrompt  = lipgloss.NewStyle().Bold(true).Foreground(colorSuccess)
	styleModelPrompt = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)

	styleLabel = styleDim
	styleValue = lipgloss.NewStyle()
)

// Rule separates blocks of output
var Rule = strings.Repeat("-", 60)

func Success(msg string) string { return styleSuccess.Render(msg) }
func Warn(msg string) string    { return styleWarning.Render(msg) }
func Info(msg string) string    { return styleInfo.Render(msg) }
func Dim(msg string) string     { return styleDim.Render(msg) }

// Header renders a section title as "=== title ==="
func Header(title string) string {
	return styleHeader.Render("=== " + title + " ===")
}

// Error renders msg with optional dimmed hint lines
func Error(msg string, hints ...string) string {
	out := styleError.Render(msg)
	for _, h := range hints {
		out += "\n  " + styleDim.Render(h)
	}
	return out
}

// UserPrompt is shown before reading a chat line
func UserPrompt() string {
	return styleUserPrompt.Render("[You]: ")
}

// ModelPrompt prefixes a model reply
func ModelPrompt(name string) string {
	return styleModelPrompt.Render("[" + name + "]: ")
}

// KV renders an indented "key: value" line
func KV(key, value string) string {
	return fmt.Sprintf("  %s %s", styleLabel.Render(key+":"), styleValue.Render(value))
}
