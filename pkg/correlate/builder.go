// Package correlate joins test results with the screenshots they produced.
//
// For every case it parses capabilities out of the case name, classifies
// the outcome, finds the suite's run directory in its captured output, and
// copies matching screenshots into <storage>/<package>/<class>/<case>/.
// A failure on one case never stops the others.
package correlate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dkoosis/shotlink/pkg/capability"
	"github.com/dkoosis/shotlink/pkg/diagnostics"
	"github.com/dkoosis/shotlink/pkg/index"
	"github.com/dkoosis/shotlink/pkg/logpath"
	"github.com/dkoosis/shotlink/pkg/manifest"
	"github.com/dkoosis/shotlink/pkg/screenshot"
	"github.com/dkoosis/shotlink/pkg/testresult"
)

// Builder runs correlation passes. It is safe to reuse across runs.
type Builder struct {
	scanner  *screenshot.Scanner
	storage  string
	marker   string
	workers  int
	logger   *zap.Logger
	observer Observer
}

// Observer is told how many cases a pass will scan, then about each case
// as it finishes. CaseDone is called from worker goroutines.
type Observer interface {
	Start(total int)
	CaseDone(r CaseReport)
}

// Option configures a Builder.
type Option func(*Builder)

// WithWorkers bounds the number of cases scanned concurrently.
func WithWorkers(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.workers = n
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithMarker overrides the log marker that precedes the result path.
func WithMarker(marker string) Option {
	return func(b *Builder) {
		if marker != "" {
			b.marker = marker
		}
	}
}

// WithObserver reports progress to o.
func WithObserver(o Observer) Option {
	return func(b *Builder) {
		b.observer = o
	}
}

// New returns a Builder reading screenshots under artifactRoot and writing
// copies and the manifest under storageRoot.
func New(artifactRoot, storageRoot string, opts ...Option) *Builder {
	b := &Builder{
		scanner: screenshot.NewScanner(artifactRoot),
		storage: storageRoot,
		marker:  logpath.DefaultMarker,
		workers: runtime.GOMAXPROCS(0),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// job is one case queued for scanning.
type job struct {
	c      testresult.Case
	token  string
	tokErr error
	caps   capability.Capabilities
	attrs  map[string]string
	base   string
	baseOK bool
	dest   string
}

// Build correlates every case in suites. Per-case problems are recorded in
// the Result; the only error is ctx cancellation.
func (b *Builder) Build(ctx context.Context, suites []testresult.Suite) (*Result, error) {
	jobs := b.plan(suites)
	jobs, dups := b.dedupe(jobs)

	if b.observer != nil {
		b.observer.Start(len(jobs))
	}

	reports := make([]CaseReport, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			reports[i] = b.scan(jobs[i])
			if b.observer != nil {
				b.observer.CaseDone(reports[i])
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("correlation cancelled: %w", err)
	}

	tree := index.New()
	for i, j := range jobs {
		node, _ := tree.Case(j.c.Package, j.c.Class, j.c.Name)
		node.Files = reports[i].Files
		node.Attributes = j.attrs
		b.logReport(reports[i])
	}

	b.logger.Info("correlation complete",
		zap.Int("suites", len(suites)),
		zap.Int("cases", len(jobs)),
		zap.Int("files", tree.FileCount()),
		zap.Int("duplicates", dups))

	return &Result{Tree: tree, Cases: reports, Duplicates: dups}, nil
}

// Publish runs Build and writes the manifest into the storage root. A
// manifest write failure is the only error that fails the run.
func (b *Builder) Publish(ctx context.Context, suites []testresult.Suite) (*Result, error) {
	res, err := b.Build(ctx, suites)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(b.storage, manifest.FileName)
	if err := manifest.Write(path, res.Tree); err != nil {
		return res, err
	}
	b.logger.Debug("manifest written", zap.String("path", path))
	return res, nil
}

// plan parses everything that does not touch the filesystem. The log token
// is extracted once per suite.
func (b *Builder) plan(suites []testresult.Suite) []job {
	jobs := make([]job, 0, testresult.CountCases(suites))
	for _, s := range suites {
		if len(s.Cases) == 0 {
			continue
		}
		token, tokErr := logpath.ExtractAfter(s.Stdout, b.marker)
		if tokErr != nil {
			b.logger.Warn("no artifact directory in suite output; its cases get no screenshots",
				zap.String("suite", s.Name), zap.Error(tokErr))
		}
		for _, c := range s.Cases {
			parsed := capability.Parse(c.Name)
			for _, tok := range parsed.Malformed {
				b.logger.Warn("skipping malformed capability",
					zap.String("case", c.Name), zap.String("token", tok))
			}
			attrs := make(map[string]string, len(parsed.Caps)+2)
			for k, v := range parsed.Caps {
				attrs[k] = v
			}
			for k, v := range diagnostics.Extract(c.Outcome, c.StackTrace).Attributes() {
				attrs[k] = v
			}
			base, ok := parsed.Base, parsed.Matched
			if !ok {
				base, ok = capability.BaseName(c.Name)
			}
			jobs = append(jobs, job{
				c:      c,
				token:  token,
				tokErr: tokErr,
				caps:   parsed.Caps,
				attrs:  attrs,
				base:   base,
				baseOK: ok,
				dest:   filepath.Join(b.storage, filepath.FromSlash(index.CaseDir(c.Package, c.Class, c.Name))),
			})
		}
	}
	return jobs
}

// dedupe keeps the last job for each storage directory, in the position
// of that last occurrence. Identical (package, class, case) keys share a
// directory, and so do distinct names that sanitize to the same path.
func (b *Builder) dedupe(jobs []job) ([]job, int) {
	last := make(map[string]int, len(jobs))
	for i, j := range jobs {
		last[j.dest] = i
	}
	if len(last) == len(jobs) {
		return jobs, 0
	}
	kept := make([]job, 0, len(last))
	for i, j := range jobs {
		winner := last[j.dest]
		if winner == i {
			kept = append(kept, j)
			continue
		}
		fields := []zap.Field{
			zap.String("package", j.c.Package),
			zap.String("class", j.c.Class),
			zap.String("case", j.c.Name),
		}
		if w := jobs[winner].c; w.Package == j.c.Package && w.Class == j.c.Class && w.Name == j.c.Name {
			b.logger.Warn("duplicate test case; keeping the later one", fields...)
		} else {
			b.logger.Warn("case names collide in storage; keeping the later one",
				append(fields, zap.String("kept", w.Name), zap.String("dir", j.dest))...)
		}
	}
	return kept, len(jobs) - len(kept)
}

func (b *Builder) scan(j job) CaseReport {
	r := CaseReport{
		Package: j.c.Package,
		Class:   j.c.Class,
		Case:    j.c.Name,
		Outcome: j.c.Outcome,
		Files:   []string{},
	}
	if err := os.MkdirAll(j.dest, 0o755); err != nil {
		r.Status, r.Err = StatusCopyError, fmt.Errorf("creating case directory: %w", err)
		return r
	}
	if !j.baseOK {
		r.Status, r.Err = StatusNameMismatch, ErrNameMismatch
		return r
	}
	if j.tokErr != nil {
		r.Status, r.Err = StatusLogMismatch, j.tokErr
		return r
	}

	r.Pattern = screenshot.Pattern(j.base, j.caps)
	files, err := b.scanner.Collect(j.token, r.Pattern, j.dest)
	r.Files = files
	switch {
	case errors.Is(err, screenshot.ErrArtifactDirMissing):
		r.Status, r.Err = StatusMissingDir, err
	case errors.Is(err, screenshot.ErrTokenOutsideRoot):
		r.Status, r.Err = StatusLogMismatch, err
	case err != nil:
		r.Status, r.Err = StatusCopyError, err
	case len(files) == 0:
		r.Status = StatusNoMatch
	default:
		r.Status = StatusMatched
	}
	return r
}

func (b *Builder) logReport(r CaseReport) {
	fields := []zap.Field{
		zap.String("package", r.Package),
		zap.String("class", r.Class),
		zap.String("case", r.Case),
	}
	switch r.Status {
	case StatusMatched, StatusNoMatch:
		b.logger.Debug("scanned", append(fields,
			zap.String("pattern", r.Pattern), zap.Int("files", len(r.Files)))...)
	case StatusNameMismatch:
		b.logger.Info("case name carries no capabilities; not scanned", fields...)
	case StatusLogMismatch:
		if errors.Is(r.Err, screenshot.ErrTokenOutsideRoot) {
			b.logger.Warn("artifact directory escapes the artifact root; not scanned", append(fields, zap.Error(r.Err))...)
			return
		}
		b.logger.Debug("suite has no artifact directory; not scanned", fields...)
	default:
		b.logger.Warn("screenshot collection failed", append(fields,
			zap.String("status", string(r.Status)), zap.Error(r.Err))...)
	}
}
