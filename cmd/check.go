// File: cmd/check.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagecomp/internal/pagedef"
	"github.com/xkilldash9x/pagecomp/internal/reporting"
	"github.com/xkilldash9x/pagecomp/internal/runner"
)

// ErrChecksFailed is returned by the check command when any check failed. The
// report has already been written by then.
var ErrChecksFailed = errors.New("checks failed")

// shutdownTimeout bounds how long the backend gets to close its sessions.
const shutdownTimeout = 30 * time.Second

// newCheckCmd creates and configures the `check` command.
func newCheckCmd(st *cliState) *cobra.Command {
	checkCmd := &cobra.Command{
		Use:   "check [files or directories...]",
		Short: "Runs the checks of one or more page definition files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, st, args)
		},
	}

	flags := checkCmd.Flags()
	flags.StringP("format", "f", "text", "report format: text or junit")
	flags.StringP("output", "o", "", "report file (default is stdout)")
	flags.Int("concurrency", 2, "number of pages checked at once")
	flags.Duration("page-timeout", 2*time.Minute, "time limit for all checks of one page")
	flags.String("backend", "cdp", "browser backend: cdp, selenium or playwright")
	flags.Bool("headless", true, "run the browser without a window")
	flags.Bool("no-color", false, "disable coloured text output")

	// Bind flags to their corresponding Viper keys so they override values
	// from the config file and environment variables.
	for key, flag := range map[string]string{
		"runner.format":       "format",
		"runner.output":       "output",
		"runner.concurrency":  "concurrency",
		"runner.page_timeout": "page-timeout",
		"runner.no_color":     "no-color",
		"browser.backend":     "backend",
		"browser.headless":    "headless",
	} {
		_ = st.v.BindPFlag(key, flags.Lookup(flag))
	}
	return checkCmd
}

func runCheck(cmd *cobra.Command, st *cliState, args []string) error {
	ctx := cmd.Context()
	logger := st.logger

	defs, err := loadDefinitions(args)
	if err != nil {
		return err
	}
	logger.Info("Loaded page definitions", zap.Int("pages", len(defs)))

	rc := st.cfg.Runner()
	var reporter reporting.Reporter
	if rc.Output == "" {
		opts := reporting.Options{NoColor: rc.NoColor || color.NoColor}
		reporter, err = reporting.NewWithWriter(rc.Format, reporting.NopCloser(cmd.OutOrStdout()), opts)
	} else {
		reporter, err = reporting.New(rc.Format, rc.Output, reporting.Options{NoColor: true})
	}
	if err != nil {
		return err
	}

	mgr, err := newBrowserManager(ctx, logger, st.cfg.Browser())
	if err != nil {
		_ = reporter.Close()
		return fmt.Errorf("failed to start %s backend: %w", st.cfg.Browser().Backend, err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if serr := mgr.Shutdown(sctx); serr != nil {
			logger.Warn("Backend shutdown failed", zap.Error(serr))
		}
	}()

	r, err := runner.New(mgr, st.cfg, logger)
	if err != nil {
		_ = reporter.Close()
		return err
	}
	results, runErr := r.Run(ctx, defs)

	var reportErr error
	for _, res := range results {
		reportErr = multierr.Append(reportErr, reporter.Write(res))
	}
	reportErr = multierr.Append(reportErr, reporter.Close())
	if reportErr != nil {
		return fmt.Errorf("failed to write report: %w", reportErr)
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			logger.Warn("Run aborted gracefully")
		}
		return runErr
	}
	if failed := runner.Failed(results); failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrChecksFailed, failed, len(results))
	}
	return nil
}

// loadDefinitions loads every file named in args. Directories contribute
// their .yaml and .yml files in name order. All load errors are reported
// together.
func loadDefinitions(args []string) ([]*pagedef.Definition, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to read page definition: %w", err)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", arg, err)
		}
		var found []string
		for _, e := range entries {
			ext := strings.ToLower(filepath.Ext(e.Name()))
			if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
				found = append(found, filepath.Join(arg, e.Name()))
			}
		}
		slices.Sort(found)
		paths = append(paths, found...)
	}
	if len(paths) == 0 {
		return nil, errors.New("no page definition files found")
	}

	var defs []*pagedef.Definition
	var errs error
	for _, p := range paths {
		def, err := pagedef.Load(p)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		defs = append(defs, def)
	}
	if errs != nil {
		return nil, errs
	}
	return defs, nil
}
