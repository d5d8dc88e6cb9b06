package ui

import (
	lipgloss "github.com/charmbracelet/lipgloss"
)

// Theme holds the monitor's styles
type Theme struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Status  lipgloss.Style
	Error   lipgloss.Style
	Dim     lipgloss.Style
	Help    lipgloss.Style
	Spinner lipgloss.Style
}

// DefaultTheme uses adaptive colors so it reads on light and dark terminals
func DefaultTheme() Theme {
	accent := lipgloss.AdaptiveColor{Light: "#005F87", Dark: "#5FD7FF"}
	dim := lipgloss.AdaptiveColor{Light: "#6C6C6C", Dark: "#8A8A8A"}

	return Theme{
		Title:   lipgloss.NewStyle().Foreground(accent).Bold(true),
		Label:   lipgloss.NewStyle().Foreground(dim),
		Status:  lipgloss.NewStyle().Bold(true),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F")).Bold(true),
		Dim:     lipgloss.NewStyle().Foreground(dim),
		Help:    lipgloss.NewStyle().Foreground(dim).Italic(true),
		Spinner: lipgloss.NewStyle().Foreground(accent),
	}
}
