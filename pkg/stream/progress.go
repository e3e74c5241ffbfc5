package stream

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/muesli/termenv"

	"github.com/dkoosis/shotlink/pkg/correlate"
)

// LineKind identifies the type of output line for styling.
type LineKind int

const (
	KindMatched LineKind = iota
	KindNoMatch
	KindProblem
	KindFooter
)

// StyleFunc formats a line with colors/symbols.
// If nil, no styling is applied.
type StyleFunc func(kind LineKind, text string) string

// Progress is a correlate.Observer that prints each finished case and
// keeps a progress footer current. Safe for concurrent use.
type Progress struct {
	mu    sync.Mutex
	tw    *termWriter
	style StyleFunc
	bar   progress.Model
	start time.Time

	total    int
	done     int
	matched  int
	problems int
	quiet    bool // only problems scroll by
}

// Option configures a Progress.
type Option func(*Progress)

// WithStyle sets the line styler.
func WithStyle(fn StyleFunc) Option {
	return func(p *Progress) { p.style = fn }
}

// Quiet suppresses matched and no-match lines; problems still print.
func Quiet() Option {
	return func(p *Progress) { p.quiet = true }
}

// New returns a Progress drawing to out, a terminal of the given size.
func New(out io.Writer, width, height int, opts ...Option) *Progress {
	tw := newTermWriter(out, width, height)
	p := &Progress{
		tw: tw,
		bar: progress.New(
			progress.WithWidth(min(30, tw.width/3)),
			progress.WithoutPercentage(),
			progress.WithFillCharacters('=', ' '),
			progress.WithColorProfile(termenv.Ascii),
		),
		start: time.Now(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var _ correlate.Observer = (*Progress)(nil)

// Start resets the counters for a pass over total cases.
func (p *Progress) Start(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total = total
	p.done, p.matched, p.problems = 0, 0, 0
	p.start = time.Now()
	p.redrawFooter()
}

// CaseDone prints r and advances the footer.
func (p *Progress) CaseDone(r correlate.CaseReport) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++

	var kind LineKind
	var line string
	switch {
	case r.Status == correlate.StatusMatched:
		p.matched++
		kind = KindMatched
		line = fmt.Sprintf("  ✓ %s  %s  (%d)", shortClass(r.Class), r.Case, len(r.Files))
	case r.Failed():
		p.problems++
		kind = KindProblem
		line = fmt.Sprintf("  ✗ %s  %s  %s", shortClass(r.Class), r.Case, r.Status)
	default:
		kind = KindNoMatch
		line = fmt.Sprintf("  ○ %s  %s", shortClass(r.Class), r.Case)
	}

	p.tw.EraseFooter()
	if kind == KindProblem || !p.quiet {
		p.tw.PrintLine(p.styleLine(kind, p.tw.Fit(line)))
	}
	p.redrawFooter()
}

// Finish erases the footer so a summary can follow.
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tw.EraseFooter()
}

func (p *Progress) redrawFooter() {
	if p.total == 0 {
		return
	}
	ratio := float64(p.done) / float64(p.total)
	status := fmt.Sprintf("  [%s] %d/%d cases  %d matched  %d problems  %.1fs",
		p.bar.ViewAs(ratio), p.done, p.total, p.matched, p.problems, time.Since(p.start).Seconds())
	p.tw.DrawFooter([]string{p.styleLine(KindFooter, p.tw.Fit(status))})
}

func (p *Progress) styleLine(kind LineKind, text string) string {
	if p.style != nil {
		return p.style(kind, text)
	}
	return text
}

// shortClass returns the last segment of a dotted or slashed class name.
func shortClass(class string) string {
	if i := strings.LastIndexAny(class, "./"); i >= 0 && i < len(class)-1 {
		return class[i+1:]
	}
	return class
}
