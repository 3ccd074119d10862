package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Direction colors
	DirectionLongStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")).Bold(true)
	DirectionShortStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)

	// Confidence colors
	ConfidenceGoodStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	ConfidenceOkStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00"))
	ConfidenceBadStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))

	// General styles
	HeaderStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA"))
	SubtextStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	ErrorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	SelectedStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))
	NoticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true)
)
