package render

import "github.com/charmbracelet/lipgloss"

// Theme defines colors, icons and the coverage bar for terminal rendering.
type Theme struct {
	Name    string
	Primary lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
	Bold    lipgloss.Style
	Icons   ThemeIcons
	Bar     BarStyle
}

// ThemeIcons defines the icon set for a theme.
type ThemeIcons struct {
	Matched string
	Empty   string
	Problem string
	Bullet  string
}

// BarStyle configures the coverage bar.
type BarStyle struct {
	Color string // solid fill color; empty renders without color
	Full  rune
	Empty rune
}

// DefaultTheme returns a color theme.
func DefaultTheme() Theme {
	return Theme{
		Name:    "default",
		Primary: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),  // blue
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("34")),  // green
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // orange
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")), // red
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("242")), // gray
		Bold:    lipgloss.NewStyle().Bold(true),
		Icons: ThemeIcons{
			Matched: "✓",
			Empty:   "○",
			Problem: "✗",
			Bullet:  "·",
		},
		Bar: BarStyle{Color: "#00af00", Full: '█', Empty: '░'},
	}
}

// MonoTheme returns a monochrome theme (no colors, ASCII only).
func MonoTheme() Theme {
	return Theme{
		Name:    "mono",
		Primary: lipgloss.NewStyle(),
		Success: lipgloss.NewStyle(),
		Warning: lipgloss.NewStyle(),
		Error:   lipgloss.NewStyle(),
		Muted:   lipgloss.NewStyle(),
		Bold:    lipgloss.NewStyle(),
		Icons: ThemeIcons{
			Matched: "+",
			Empty:   "-",
			Problem: "x",
			Bullet:  "-",
		},
		Bar: BarStyle{Full: '#', Empty: '.'},
	}
}

// ThemeByName returns a theme by name, defaulting to DefaultTheme.
func ThemeByName(name string) Theme {
	if name == "mono" {
		return MonoTheme()
	}
	return DefaultTheme()
}
