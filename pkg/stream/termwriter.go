// Package stream draws live correlation progress on a terminal: finished
// cases scroll above a footer that tracks the pass as a whole.
package stream

import (
	"fmt"
	"io"

	"github.com/mattn/go-runewidth"
)

// termWriter is the only writer to the terminal while a pass is live.
// It owns the footer region at the bottom of the screen.
type termWriter struct {
	out         io.Writer
	width       int
	height      int
	footerLines int
}

func newTermWriter(out io.Writer, width, height int) *termWriter {
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 24
	}
	return &termWriter{out: out, width: width, height: height}
}

// PrintLine writes one line into the scrolling region above the footer.
func (w *termWriter) PrintLine(s string) {
	fmt.Fprintln(w.out, s)
}

// Fit truncates plain text to the terminal width. Apply it before styling;
// escape sequences would be counted as visible.
func (w *termWriter) Fit(s string) string {
	return runewidth.Truncate(s, w.width, "...")
}

// EraseFooter removes the current footer. No-op without one.
func (w *termWriter) EraseFooter() {
	if w.footerLines == 0 {
		return
	}
	for i := 0; i < w.footerLines; i++ {
		fmt.Fprint(w.out, "\033[1A\r\033[2K")
	}
	w.footerLines = 0
}

// DrawFooter prints lines below the scrolling region, at most a third of
// the screen (minimum 3 lines). Lines should already be Fit.
func (w *termWriter) DrawFooter(lines []string) {
	limit := max(3, w.height/3)
	if len(lines) > limit {
		lines = lines[:limit]
	}
	for _, line := range lines {
		fmt.Fprintln(w.out, line)
	}
	w.footerLines = len(lines)
}
