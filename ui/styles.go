package ui

import "github.com/charmbracelet/lipgloss"

var (
	mintGreen = lipgloss.AdaptiveColor{Light: "#89F0CB", Dark: "#89F0CB"}
	darkGreen = lipgloss.AdaptiveColor{Light: "#1C8760", Dark: "#1C8760"}
	faintFg   = lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"}
	warnFg    = lipgloss.AdaptiveColor{Light: "#D7005F", Dark: "#FF5F87"}

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(darkGreen).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Foreground(faintFg).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(mintGreen).
			Bold(true)

	kindStyle = lipgloss.NewStyle().
			Foreground(faintFg).
			Width(7)

	textStyle = lipgloss.NewStyle().Foreground(faintFg)

	mutedStyle = lipgloss.NewStyle().Foreground(warnFg).Bold(true)

	messageStyle = lipgloss.NewStyle().
			Foreground(mintGreen).
			Padding(0, 1)

	helpViewStyle = lipgloss.NewStyle().Padding(1, 1, 0, 1)
)
