package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/dkoosis/shotlink/internal/config"
	"github.com/dkoosis/shotlink/internal/detect"
	"github.com/dkoosis/shotlink/internal/logging"
	"github.com/dkoosis/shotlink/pkg/correlate"
	"github.com/dkoosis/shotlink/pkg/index"
	"github.com/dkoosis/shotlink/pkg/junitxml"
	"github.com/dkoosis/shotlink/pkg/manifest"
	"github.com/dkoosis/shotlink/pkg/render"
	"github.com/dkoosis/shotlink/pkg/stream"
	"github.com/dkoosis/shotlink/pkg/testjson"
	"github.com/dkoosis/shotlink/pkg/testresult"
)

const stdinArg = "-"

func newCorrelateCmd(opts *options, stdin io.Reader) *cobra.Command {
	return &cobra.Command{
		Use:   "correlate [reports...]",
		Short: "Match results to screenshots and write result.js (default command)",
		Long: "Reports are JUnit XML files, directories of them, go test -json files,\n" +
			"or - for stdin. Without arguments the configured reports are used, then stdin.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCorrelate(cmd, opts, args, stdin)
		},
	}
}

func runCorrelate(cmd *cobra.Command, opts *options, args []string, stdin io.Reader) error {
	cfg, err := resolveConfig(cmd, opts, args)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	suites, err := ingest(cfg, stdin, logger)
	if err != nil {
		return err
	}
	return correlateOnce(cmd.Context(), cfg, suites, opts.list, cmd.OutOrStdout(), logger)
}

func newLogger(cfg *config.Config, w io.Writer) (*zap.Logger, error) {
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, w)
	if err != nil {
		return nil, usageError("%w", err)
	}
	return logger.With(zap.String("run", uuid.NewString())), nil
}

// correlateOnce builds the index, writes the manifest and prints the
// summary. Only a manifest failure is returned.
func correlateOnce(ctx context.Context, cfg *config.Config, suites []testresult.Suite, list bool, stdout io.Writer, logger *zap.Logger) error {
	storage := cfg.Resolve(cfg.StorageRoot)
	mode := resolveFormat(cfg.Format, stdout)
	opts := []correlate.Option{
		correlate.WithWorkers(cfg.Workers),
		correlate.WithMarker(cfg.Marker),
		correlate.WithLogger(logger),
	}
	var live *stream.Progress
	if mode == "terminal" && !list && isTTYWriter(stdout) {
		width, height := termSize(stdout)
		live = stream.New(stdout, width, height, stream.Quiet(), stream.WithStyle(streamStyle(themeFor(cfg.Theme))))
		opts = append(opts, correlate.WithObserver(live))
	}

	res, pubErr := correlate.New(cfg.Resolve(cfg.ArtifactRoot), storage, opts...).Publish(ctx, suites)
	if live != nil {
		live.Finish()
	}
	if res == nil {
		return fatalError(pubErr)
	}
	if list {
		for _, p := range res.Tree.Attachments(index.RunNode()) {
			fmt.Fprintln(stdout, p)
		}
	} else {
		manifestPath := ""
		if pubErr == nil {
			manifestPath = filepath.Join(storage, manifest.FileName)
		}
		summary := render.NewSummary(suites, res, manifestPath)
		fmt.Fprint(stdout, selectRenderer(mode, cfg.Theme, stdout).Render(summary))
	}
	if pubErr != nil {
		return fatalError(pubErr)
	}
	return nil
}

// ingest reads every report source. Configured report paths are resolved
// against the workspace; no reports at all means stdin.
func ingest(cfg *config.Config, stdin io.Reader, logger *zap.Logger) ([]testresult.Suite, error) {
	reports := make([]string, 0, len(cfg.Reports))
	for _, r := range cfg.Reports {
		if r == stdinArg {
			reports = append(reports, r)
			continue
		}
		reports = append(reports, cfg.Resolve(r))
	}
	if len(reports) == 0 {
		if isTTYReader(stdin) {
			return nil, usageError("no reports given and stdin is a terminal")
		}
		reports = []string{stdinArg}
	}

	var suites []testresult.Suite
	var xmlPaths []string
	for _, r := range reports {
		switch {
		case r == stdinArg:
			s, err := readStdin(stdin, logger)
			if err != nil {
				return nil, err
			}
			suites = append(suites, s...)
		case strings.EqualFold(filepath.Ext(r), ".json"):
			s, err := readTestJSON(r, logger)
			if err != nil {
				return nil, err
			}
			suites = append(suites, s...)
		default:
			xmlPaths = append(xmlPaths, r)
		}
	}
	if len(xmlPaths) > 0 {
		s, err := junitxml.ReadPaths(xmlPaths)
		if err != nil {
			return nil, fatalError(err)
		}
		suites = append(suites, s...)
	}
	logger.Debug("reports ingested", zap.Int("suites", len(suites)), zap.Int("cases", testresult.CountCases(suites)))
	return suites, nil
}

func readStdin(stdin io.Reader, logger *zap.Logger) ([]testresult.Suite, error) {
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fatalError(fmt.Errorf("reading stdin: %w", err))
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, usageError("no input on stdin")
	}
	switch detect.Sniff(data) {
	case detect.JUnitXML:
		suites, err := junitxml.Read(bytes.NewReader(data))
		if err != nil {
			return nil, fatalError(err)
		}
		return suites, nil
	case detect.GoTestJSON:
		suites, malformed, err := testjson.ParseBytes(data)
		if err != nil {
			return nil, fatalError(fmt.Errorf("parsing go test -json: %w", err))
		}
		warnMalformed(logger, "stdin", malformed)
		return suites, nil
	default:
		return nil, fatalError(fmt.Errorf("unrecognized input format on stdin (expected JUnit XML or go test -json)"))
	}
}

func readTestJSON(path string, logger *zap.Logger) ([]testresult.Suite, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fatalError(fmt.Errorf("opening report: %w", err))
	}
	defer f.Close()
	suites, malformed, err := testjson.ParseStream(f)
	if err != nil {
		return nil, fatalError(fmt.Errorf("parsing %s: %w", path, err))
	}
	warnMalformed(logger, path, malformed)
	return suites, nil
}

func warnMalformed(logger *zap.Logger, source string, n int) {
	if n > 0 {
		logger.Warn("malformed go test -json lines skipped", zap.String("source", source), zap.Int("lines", n))
	}
}

func selectRenderer(mode, themeName string, w io.Writer) render.Renderer {
	switch mode {
	case "json":
		return render.NewJSON()
	case "text":
		return render.NewText()
	default:
		width, _ := termSize(w)
		return render.NewTerminal(themeFor(themeName), width)
	}
}

// themeFor honors NO_COLOR over the configured theme.
func themeFor(name string) render.Theme {
	if os.Getenv("NO_COLOR") != "" {
		return render.MonoTheme()
	}
	return render.ThemeByName(name)
}

func streamStyle(theme render.Theme) stream.StyleFunc {
	return func(kind stream.LineKind, text string) string {
		switch kind {
		case stream.KindMatched:
			return theme.Success.Render(text)
		case stream.KindProblem:
			return theme.Error.Render(text)
		default:
			return theme.Muted.Render(text)
		}
	}
}

func resolveFormat(format string, w io.Writer) string {
	if format != config.DefaultFormat {
		return format
	}
	if isTTYWriter(w) {
		return "terminal"
	}
	return "text"
}

// isTTYWriter reports whether w is a terminal.
func isTTYWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func isTTYReader(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// termSize returns the terminal dimensions for w, defaulting to 80x24.
func termSize(w io.Writer) (width, height int) {
	width, height = 80, 24
	if f, ok := w.(*os.File); ok {
		if tw, th, err := term.GetSize(int(f.Fd())); err == nil {
			if tw > 0 {
				width = tw
			}
			if th > 0 {
				height = th
			}
		}
	}
	return width, height
}
