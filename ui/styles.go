package ui

import "github.com/charmbracelet/lipgloss"

const ellipsis = "…"

var (
	fuchsia   = lipgloss.Color("#EE6FF8")
	yellow    = lipgloss.AdaptiveColor{Light: "#A88B00", Dark: "#ECFD65"}
	red       = lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#ED567A"}
	mintGreen = lipgloss.AdaptiveColor{Light: "#89F0CB", Dark: "#89F0CB"}
	darkGreen = lipgloss.AdaptiveColor{Light: "#1C8760", Dark: "#1C8760"}
	gray      = lipgloss.AdaptiveColor{Light: "#909090", Dark: "#626262"}
	midGray   = lipgloss.AdaptiveColor{Light: "#B2B2B2", Dark: "#4A4A4A"}

	statusBarNoteFg = lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"}
	statusBarBg     = lipgloss.AdaptiveColor{Light: "#E6E6E6", Dark: "#242424"}

	logoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ECFD65")).
			Background(fuchsia).
			Bold(true).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(fuchsia).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(gray).
			Render

	faintStyle = lipgloss.NewStyle().
			Foreground(midGray).
			Render

	styleTagStyle = lipgloss.NewStyle().
			Foreground(yellow).
			Render

	errorStyle = lipgloss.NewStyle().
			Foreground(red).
			Render

	staleStyle = lipgloss.NewStyle().
			Foreground(yellow).
			Render

	statusBarNoteStyle = lipgloss.NewStyle().
				Foreground(statusBarNoteFg).
				Background(statusBarBg).
				Render

	statusBarMessageStyle = lipgloss.NewStyle().
				Foreground(mintGreen).
				Background(darkGreen).
				Render

	helpViewStyle = lipgloss.NewStyle().
			Foreground(statusBarNoteFg).
			Render
)
