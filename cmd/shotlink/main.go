// shotlink correlates test results with the screenshots the tests saved,
// copies the matches into per-case storage and writes the result.js
// manifest read by the report viewer.
//
// Usage:
//
//	shotlink build/test-results/
//	shotlink correlate --artifacts results --storage report TEST-*.xml
//	go test -json ./... | shotlink -
//	shotlink watch build/test-results/
//
// Output modes (auto-detected):
//
//	terminal  styled summary (default when TTY)
//	text      plain summary (default when piped)
//	json      structured summary for automation
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/dkoosis/shotlink/internal/config"
	"github.com/dkoosis/shotlink/internal/version"
)

// Exit codes.
const (
	exitOK    = 0
	exitFatal = 1 // manifest write or ingest failure
	exitUsage = 2 // bad flags, config or missing input
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return runContext(ctx, args, stdin, stdout, stderr)
}

func runContext(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd(stdin)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	fmt.Fprintf(stderr, "shotlink: %v\n", err)
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	// Anything cobra rejects before RunE is a usage problem.
	return exitUsage
}

// exitError carries the process exit code for err.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usageError(format string, args ...any) error {
	return &exitError{code: exitUsage, err: fmt.Errorf(format, args...)}
}

func fatalError(err error) error {
	return &exitError{code: exitFatal, err: err}
}

// options are the flags shared by correlate and watch.
type options struct {
	configPath string
	flags      config.Flags
	list       bool
}

func newRootCmd(stdin io.Reader) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "shotlink [reports...]",
		Short: "Correlate test results with their screenshots",
		Long: "shotlink matches JUnit XML or go test -json results against the screenshots\n" +
			"each test saved, copies them into per-case storage and writes result.js.",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCorrelate(cmd, opts, args, stdin)
		},
	}
	bindFlags(root, opts)

	root.AddCommand(
		newCorrelateCmd(opts, stdin),
		newWatchCmd(opts),
		newVersionCmd(),
	)
	return root
}

func bindFlags(root *cobra.Command, o *options) {
	f := root.PersistentFlags()
	f.StringVar(&o.configPath, "config", "", "Config file (default: ./"+config.FileName+" then the user config dir)")
	f.StringVar(&o.flags.Workspace, config.FlagWorkspace, ".", "Directory relative paths are resolved against")
	f.StringVar(&o.flags.ArtifactRoot, config.FlagArtifacts, config.DefaultArtifactRoot, "Root of the screenshot run directories")
	f.StringVar(&o.flags.StorageRoot, config.FlagStorage, config.DefaultStorageRoot, "Directory receiving copies and result.js")
	f.IntVar(&o.flags.Workers, config.FlagWorkers, 0, "Concurrent scan/copy workers (default: GOMAXPROCS)")
	f.StringVar(&o.flags.Marker, config.FlagMarker, "", "Log marker preceding the result path")
	f.StringVar(&o.flags.Format, config.FlagFormat, config.DefaultFormat, "Output format: auto, terminal, text, json")
	f.StringVar(&o.flags.Theme, config.FlagTheme, config.DefaultTheme, "Theme: default, mono")
	f.StringVar(&o.flags.LogLevel, config.FlagLogLevel, config.DefaultLogLevel, "Log level: debug, info, warn, error")
	f.StringVar(&o.flags.LogFormat, config.FlagLogFormat, config.DefaultLogFormat, "Log format: console, json")
	f.BoolVar(&o.list, "list", false, "Print every attachment path instead of the summary")
}

// resolveConfig merges file, environment and the flags the user set.
func resolveConfig(cmd *cobra.Command, o *options, args []string) (*config.Config, error) {
	flags := o.flags
	flags.Reports = args
	flags.Set = make(map[string]bool)
	for _, name := range []string{
		config.FlagWorkspace, config.FlagArtifacts, config.FlagStorage, config.FlagWorkers,
		config.FlagMarker, config.FlagFormat, config.FlagTheme, config.FlagLogLevel, config.FlagLogFormat,
	} {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			flags.Set[name] = true
		}
	}
	cfg, err := config.Resolve(o.configPath, flags, os.LookupEnv)
	if err != nil {
		return nil, usageError("%w", err)
	}
	return cfg, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
