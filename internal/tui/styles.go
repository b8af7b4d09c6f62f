package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/JPM1118/spritegif/internal/notify"
	"github.com/JPM1118/spritegif/internal/player"
)

var (
	// Colors
	colorPlaying = lipgloss.Color("2")  // green
	colorPaused  = lipgloss.Color("3")  // yellow
	colorStopped = lipgloss.Color("8")  // dim gray
	colorError   = lipgloss.Color("1")  // red
	colorHeader  = lipgloss.Color("12") // bright blue
	colorMuted   = lipgloss.Color("8")  // dim
	colorValue   = lipgloss.Color("6")  // cyan

	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorHeader)

	subheaderStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	valueStyle = lipgloss.NewStyle().
			Foreground(colorValue).
			Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	notificationBarStyle = lipgloss.NewStyle().
				Foreground(colorMuted).
				Italic(true)

	errorBarStyle = lipgloss.NewStyle().
			Foreground(colorError)

	badgeStyle = lipgloss.NewStyle().
			Foreground(colorPaused).
			Bold(true)
)

// stateStyle returns the style for a player state badge.
func stateStyle(s player.State) lipgloss.Style {
	switch s {
	case player.Playing:
		return lipgloss.NewStyle().Foreground(colorPlaying).Bold(true)
	case player.Paused:
		return lipgloss.NewStyle().Foreground(colorPaused)
	default:
		return lipgloss.NewStyle().Foreground(colorStopped)
	}
}

// stateLabel returns the display text for a player state.
func stateLabel(s player.State) string {
	switch s {
	case player.Playing:
		return "▶ PLAYING"
	case player.Paused:
		return "‖ PAUSED"
	default:
		return "■ STOPPED"
	}
}

// barStyle picks the notification bar style for the newest entry.
func barStyle(bar *notify.Bar) lipgloss.Style {
	if n, ok := bar.Latest(); ok && n.Kind.Failure() {
		return errorBarStyle
	}
	return notificationBarStyle
}
