// Package ui provides the visual styling and dialog components for the opsdeck terminal UI.
// Uses a light/dark palette selected from the terminal environment.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	// Light Mode Colors (Default)
	LightBackground = lipgloss.Color("#f4f5f6")
	LightForeground = lipgloss.Color("#1b2330")
	LightPrimary    = lipgloss.Color("#1b2330")
	LightAccent     = lipgloss.Color("#3f7fbf")
	LightMuted      = lipgloss.Color("#8a93a0")
	LightBorder     = lipgloss.Color("#cfd5dc")
	LightCard       = lipgloss.Color("#ffffff")

	// Dark Mode Colors
	DarkBackground = lipgloss.Color("#12161d")
	DarkForeground = lipgloss.Color("#eceff3")
	DarkPrimary    = lipgloss.Color("#7fb2e5")
	DarkAccent     = lipgloss.Color("#7fb2e5")
	DarkMuted      = lipgloss.Color("#5c6673")
	DarkBorder     = lipgloss.Color("#2c3440")
	DarkCard       = lipgloss.Color("#1a2029")

	// Semantic Colors (same in both modes)
	Destructive = lipgloss.Color("#e53935")
	Success     = lipgloss.Color("#8BC34A")
	Warning     = lipgloss.Color("#FFC107")
)

// Theme holds the current color scheme
type Theme struct {
	Background lipgloss.Color
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	Card       lipgloss.Color
	IsDark     bool
}

// LightTheme returns the light mode theme
func LightTheme() Theme {
	return Theme{
		Background: LightBackground,
		Foreground: LightForeground,
		Primary:    LightPrimary,
		Accent:     LightAccent,
		Muted:      LightMuted,
		Border:     LightBorder,
		Card:       LightCard,
	}
}

// DarkTheme returns the dark mode theme
func DarkTheme() Theme {
	return Theme{
		Background: DarkBackground,
		Foreground: DarkForeground,
		Primary:    DarkPrimary,
		Accent:     DarkAccent,
		Muted:      DarkMuted,
		Border:     DarkBorder,
		Card:       DarkCard,
		IsDark:     true,
	}
}

// DetectTheme picks the theme from OPSDECK_DARK_MODE ("1" dark, "0" light),
// falling back to the terminal background reported by lipgloss.
func DetectTheme() Theme {
	switch os.Getenv("OPSDECK_DARK_MODE") {
	case "1":
		return DarkTheme()
	case "0":
		return LightTheme()
	}
	if lipgloss.HasDarkBackground() {
		return DarkTheme()
	}
	return LightTheme()
}

// Styles holds all the styled components
type Styles struct {
	Theme Theme

	// Text
	Title lipgloss.Style
	Muted lipgloss.Style

	// Tables
	TableHeader lipgloss.Style
	TableCell   lipgloss.Style

	// Status
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style

	// Dialog
	Overlay        lipgloss.Style
	Dialog         lipgloss.Style
	DialogTitle    lipgloss.Style
	DialogBody     lipgloss.Style
	Button         lipgloss.Style
	ButtonFocused  lipgloss.Style
	ButtonDanger   lipgloss.Style
	ButtonDisabled lipgloss.Style
	Spinner        lipgloss.Style
}

// NewStyles creates a new Styles instance with the given theme
func NewStyles(theme Theme) Styles {
	button := lipgloss.NewStyle().
		Padding(0, 2).
		Foreground(theme.Foreground).
		Border(lipgloss.NormalBorder()).
		BorderForeground(theme.Border)

	return Styles{
		Theme: theme,

		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		TableHeader: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Bold(true).
			PaddingRight(2),

		TableCell: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			PaddingRight(2),

		Success: lipgloss.NewStyle().
			Foreground(Success).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(Destructive).
			Bold(true),

		Warning: lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true),

		Overlay: lipgloss.NewStyle().
			Background(theme.Background),

		Dialog: lipgloss.NewStyle().
			Background(theme.Card).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Destructive).
			Padding(1, 2),

		DialogTitle: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true).
			MarginBottom(1),

		DialogBody: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			MarginBottom(1),

		Button: button,

		ButtonFocused: button.
			BorderForeground(theme.Accent).
			Bold(true),

		ButtonDanger: button.
			Foreground(Destructive).
			BorderForeground(Destructive),

		ButtonDisabled: button.
			Foreground(theme.Muted).
			BorderForeground(theme.Muted).
			Faint(true),

		Spinner: lipgloss.NewStyle().
			Foreground(theme.Accent),
	}
}

// DefaultStyles returns styles for the detected theme
func DefaultStyles() Styles {
	return NewStyles(DetectTheme())
}
