package render

import (
	"fmt"
	"strings"
)

// Text renders summaries as terse plain text: no ANSI codes, stable order,
// one issue per line.
type Text struct{}

// NewText creates a plain text renderer.
func NewText() *Text {
	return &Text{}
}

// Render formats s as plain text.
func (x *Text) Render(s *Summary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SHOTLINK: %d cases, %d suites, %d files, %d matched\n",
		s.Cases, s.Suites, s.Files, s.Matched())
	fmt.Fprintf(&sb, "OUTCOMES: passed=%d failed=%d skipped=%d\n", s.Passed, s.Failed, s.Skipped)

	if len(s.Statuses) > 0 {
		parts := make([]string, 0, len(s.Statuses))
		for _, st := range s.Statuses {
			parts = append(parts, fmt.Sprintf("%s=%d", st.Status, st.Count))
		}
		sb.WriteString("STATUS: " + strings.Join(parts, " ") + "\n")
	}
	if s.Duplicates > 0 {
		fmt.Fprintf(&sb, "DUPLICATES: %d\n", s.Duplicates)
	}
	for _, is := range s.Issues {
		fmt.Fprintf(&sb, "  %s %s/%s/%s", is.Status, is.Package, is.Class, is.Case)
		if is.Message != "" {
			sb.WriteString(": " + firstLine(is.Message))
		}
		sb.WriteString("\n")
	}
	if s.Manifest != "" {
		sb.WriteString("MANIFEST: " + s.Manifest + "\n")
	}
	return sb.String()
}
