package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dkoosis/shotlink/internal/config"
)

const defaultDebounce = 500 * time.Millisecond

func newWatchCmd(opts *options) *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch [reports...]",
		Short: "Re-run correlate whenever a report is written",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, opts, args)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			return watch(cmd.Context(), cfg, opts.list, debounce, cmd.OutOrStdout(), logger)
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", defaultDebounce, "Quiet period after the last write before re-running")
	return cmd
}

// watch runs correlate once, then again after each burst of report writes,
// until ctx is done. Correlation failures are logged, not fatal.
func watch(ctx context.Context, cfg *config.Config, list bool, debounce time.Duration, stdout io.Writer, logger *zap.Logger) error {
	if len(cfg.Reports) == 0 {
		return usageError("watch needs at least one report path")
	}
	reports := make([]string, 0, len(cfg.Reports))
	for _, r := range cfg.Reports {
		if r == stdinArg {
			return usageError("watch cannot read stdin")
		}
		reports = append(reports, cfg.Resolve(r))
	}
	dirs, err := watchDirs(reports)
	if err != nil {
		return usageError("%w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fatalError(fmt.Errorf("starting watcher: %w", err))
	}
	defer w.Close()
	for _, d := range dirs {
		if err := w.Add(d); err != nil {
			return fatalError(fmt.Errorf("watching %s: %w", d, err))
		}
	}
	logger.Info("watching reports", zap.Strings("dirs", dirs))

	rerun := func() {
		suites, err := ingest(cfg, nil, logger)
		if err == nil {
			err = correlateOnce(ctx, cfg, suites, list, stdout, logger)
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("correlation failed", zap.Error(err))
		}
	}
	rerun()

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("watch stopped")
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if relevant(ev) {
				logger.Debug("report changed", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
				timer.Reset(debounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", zap.Error(err))
		case <-timer.C:
			rerun()
		}
	}
}

// watchDirs returns the directories to watch for reports: each directory
// report itself, or the parent of each file report.
func watchDirs(reports []string) ([]string, error) {
	var dirs []string
	for _, r := range reports {
		info, err := os.Stat(r)
		if err != nil {
			return nil, fmt.Errorf("report path: %w", err)
		}
		d := r
		if !info.IsDir() {
			d = filepath.Dir(r)
		}
		if !slices.Contains(dirs, d) {
			dirs = append(dirs, d)
		}
	}
	return dirs, nil
}

func relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return false
	}
	ext := strings.ToLower(filepath.Ext(ev.Name))
	return ext == ".xml" || ext == ".json"
}
