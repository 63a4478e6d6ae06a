package main

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor = lipgloss.Color("#7D56F4")
	successColor = lipgloss.Color("#04B575")
	errorColor   = lipgloss.Color("#FF4B4B")
	warningColor = lipgloss.Color("#FFA500")
	mutedColor   = lipgloss.Color("#666666")

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	okStyle     = lipgloss.NewStyle().Foreground(successColor)
	failStyle   = lipgloss.NewStyle().Bold(true).Foreground(errorColor)
	freeStyle   = lipgloss.NewStyle().Foreground(successColor)
	allocStyle  = lipgloss.NewStyle().Foreground(warningColor)
	mutedStyle  = lipgloss.NewStyle().Foreground(mutedColor)
)

// paint renders text with s unless --no-color is set.
func paint(s lipgloss.Style, text string) string {
	if noColor {
		return text
	}
	return s.Render(text)
}
