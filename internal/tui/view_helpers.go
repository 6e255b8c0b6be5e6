package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const dividerWidth = 54

// renderPage lays out a simple framed page: title, divider, indented body,
// divider and a hotkey line that always ends with the global quit key.
func renderPage(title, body, hotKeys string) string {
	divider := helpStyle.Render(strings.Repeat("─", dividerWidth))

	lines := []string{title, divider, ""}
	if strings.TrimSpace(body) == "" {
		lines = append(lines, "-")
	} else {
		lines = append(lines, strings.Split(body, "\n")...)
	}
	lines = append(lines, "", divider)

	help := "ctrl+c: quit"
	if strings.TrimSpace(hotKeys) != "" {
		help = hotKeys + " • " + help
	}
	lines = append(lines, helpStyle.Render(help))

	return lipgloss.NewStyle().PaddingLeft(2).Render(strings.Join(lines, "\n"))
}

// fitText truncates v to max runes, marking the cut with an ellipsis.
func fitText(v string, max int) string {
	r := []rune(v)
	if max <= 0 || len(r) <= max {
		return v
	}
	if max <= 1 {
		return string(r[:max])
	}
	return string(r[:max-1]) + "…"
}
