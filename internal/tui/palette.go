package tui

import "github.com/charmbracelet/lipgloss"

var (
	ColorInk       = lipgloss.Color("#E5E9F0")
	ColorDim       = lipgloss.Color("#7A8291")
	ColorAccent    = lipgloss.Color("#88C0D0")
	ColorAccentAlt = lipgloss.Color("#81A1C1")
	ColorSuccess   = lipgloss.Color("#A3BE8C")
	ColorWarn      = lipgloss.Color("#EBCB8B")
	ColorError     = lipgloss.Color("#BF616A")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	labelStyle   = lipgloss.NewStyle().Foreground(ColorInk)
	barStyle     = lipgloss.NewStyle().Foreground(ColorAccentAlt)
	fileBarStyle = lipgloss.NewStyle().Foreground(ColorAccent)
	dimStyle     = lipgloss.NewStyle().Foreground(ColorDim)
	savedStyle   = lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)
	valueStyle   = lipgloss.NewStyle().Foreground(ColorInk).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(ColorWarn)
	errorStyle   = lipgloss.NewStyle().Foreground(ColorError)
)

func errorCountStyle(n int) lipgloss.Style {
	if n > 0 {
		return errorStyle
	}
	return dimStyle
}
