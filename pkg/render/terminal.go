package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"

	"github.com/dkoosis/shotlink/pkg/correlate"
)

const (
	maxBarWidth  = 40
	maxNameWidth = 60
)

// Terminal renders summaries as styled terminal output via lipgloss.
type Terminal struct {
	theme Theme
	width int
}

// NewTerminal creates a terminal renderer with the given theme.
func NewTerminal(theme Theme, width int) *Terminal {
	if width <= 0 {
		width = 80
	}
	return &Terminal{theme: theme, width: width}
}

// Render formats s for terminal display.
func (t *Terminal) Render(s *Summary) string {
	var sb strings.Builder
	sb.WriteString(t.theme.Bold.Render(fmt.Sprintf("shotlink: %d cases in %d suites", s.Cases, s.Suites)))
	sb.WriteString("\n")
	if s.Cases > 0 {
		sb.WriteString("  ")
		sb.WriteString(t.bar(s.Coverage()))
		sb.WriteString(t.theme.Muted.Render(fmt.Sprintf(" %d of %d with screenshots, %d files", s.Matched(), s.Cases, s.Files)))
		sb.WriteString("\n")
	}
	sb.WriteString(t.renderStatuses(s.Statuses))
	if s.Duplicates > 0 {
		sb.WriteString("  ")
		sb.WriteString(t.theme.Warning.Render(fmt.Sprintf("%s %d duplicate case(s) replaced", t.theme.Icons.Problem, s.Duplicates)))
		sb.WriteString("\n")
	}
	sb.WriteString(t.renderIssues(s.Issues))
	if s.Manifest != "" {
		sb.WriteString(t.theme.Muted.Render("manifest: " + s.Manifest))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (t *Terminal) bar(ratio float64) string {
	width := t.width / 2
	if width > maxBarWidth {
		width = maxBarWidth
	}
	opts := []progress.Option{
		progress.WithWidth(width),
		progress.WithoutPercentage(),
		progress.WithFillCharacters(t.theme.Bar.Full, t.theme.Bar.Empty),
	}
	if t.theme.Bar.Color != "" {
		opts = append(opts, progress.WithSolidFill(t.theme.Bar.Color))
	} else {
		opts = append(opts, progress.WithColorProfile(termenv.Ascii))
	}
	return progress.New(opts...).ViewAs(ratio) + fmt.Sprintf(" %3.0f%%", ratio*100)
}

func (t *Terminal) renderStatuses(counts []StatusCount) string {
	maxLabel := 0
	for _, c := range counts {
		if w := runewidth.StringWidth(c.Status); w > maxLabel {
			maxLabel = w
		}
	}
	var sb strings.Builder
	for _, c := range counts {
		icon, style := t.statusIconStyle(c.Status)
		sb.WriteString("  ")
		sb.WriteString(style.Render(icon + " " + runewidth.FillRight(c.Status, maxLabel)))
		sb.WriteString(fmt.Sprintf("  %d\n", c.Count))
	}
	return sb.String()
}

func (t *Terminal) renderIssues(issues []Issue) string {
	if len(issues) == 0 {
		return ""
	}
	maxName := 0
	for _, is := range issues {
		if w := runewidth.StringWidth(is.Case); w > maxName {
			maxName = w
		}
	}
	if maxName > maxNameWidth {
		maxName = maxNameWidth
	}

	var sb strings.Builder
	sb.WriteString(t.theme.Bold.Render(fmt.Sprintf("Issues (%d)", len(issues))))
	sb.WriteString("\n")
	class := ""
	for _, is := range issues {
		if is.Class != class {
			class = is.Class
			sb.WriteString("  ")
			sb.WriteString(t.theme.Primary.Render(class))
			sb.WriteString("\n")
		}
		icon, style := t.statusIconStyle(is.Status)
		name := runewidth.Truncate(is.Case, maxName, "...")
		sb.WriteString("    ")
		sb.WriteString(style.Render(icon + " "))
		sb.WriteString(runewidth.FillRight(name, maxName))
		sb.WriteString("  ")
		sb.WriteString(style.Render(is.Status))
		if is.Message != "" {
			sb.WriteString("\n      ")
			sb.WriteString(t.theme.Muted.Render(firstLine(is.Message)))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (t *Terminal) statusIconStyle(status string) (string, lipgloss.Style) {
	switch correlate.Status(status) {
	case correlate.StatusMatched:
		return t.theme.Icons.Matched, t.theme.Success
	case correlate.StatusNoMatch:
		return t.theme.Icons.Empty, t.theme.Muted
	case correlate.StatusNameMismatch, correlate.StatusLogMismatch:
		return t.theme.Icons.Problem, t.theme.Warning
	default:
		return t.theme.Icons.Problem, t.theme.Error
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
