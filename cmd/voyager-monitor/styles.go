package main

import "github.com/charmbracelet/lipgloss"

// Color palette, the single source of truth for voyager-monitor's colors.
var (
	accent   = lipgloss.Color("#A8E6CF")
	warn     = lipgloss.Color("#FFB3BA")
	muted    = lipgloss.Color("#6B7280")
	brightFg = lipgloss.Color("#F9FAFB")
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(muted).
			Padding(0, 1)

	panelTitleStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true).
			Padding(0, 1)

	failedStyle = lipgloss.NewStyle().
			Foreground(warn)

	okStyle = lipgloss.NewStyle().
		Foreground(accent)

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(muted)

	previewStyle = lipgloss.NewStyle().
			Foreground(brightFg)
)
