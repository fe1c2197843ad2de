// File: internal/runner/runner.go
// Description: Executes page definitions against live browser sessions. Each
// definition gets its own session; definitions run concurrently up to the
// configured limit and every check is reported, whether or not earlier ones
// passed.

package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/pagecomp/internal/config"
	"github.com/xkilldash9x/pagecomp/internal/pagedef"
	"github.com/xkilldash9x/pagecomp/pkg/driver"
	"github.com/xkilldash9x/pagecomp/pkg/pom"
)

// SessionFactory opens browser sessions. The backend managers implement it.
type SessionFactory interface {
	NewSession(ctx context.Context) (driver.Session, error)
}

// CheckResult is the outcome of one check.
type CheckResult struct {
	RunID string
	Page  string
	// Path is the dotted component path, empty for page-level failures.
	Path   string
	Passed bool
	// Report holds the state report lines of a failed expectation.
	Report   []string
	Err      error
	Duration time.Duration
}

// Failed counts the results that did not pass.
func Failed(results []CheckResult) int {
	n := 0
	for _, r := range results {
		if !r.Passed {
			n++
		}
	}
	return n
}

// Runner runs page definitions.
type Runner struct {
	factory    SessionFactory
	cfg        config.Interface
	logger     *zap.Logger
	conditions *pom.Registry
}

// Option configures a Runner.
type Option func(*Runner)

// WithConditions sets the condition registry pages are created with.
func WithConditions(r *pom.Registry) Option {
	return func(rn *Runner) { rn.conditions = r }
}

// New creates a Runner.
func New(factory SessionFactory, cfg config.Interface, logger *zap.Logger, opts ...Option) (*Runner, error) {
	if factory == nil || cfg == nil || logger == nil {
		return nil, errors.New("cannot initialize runner with nil dependencies")
	}
	r := &Runner{
		factory:    factory,
		cfg:        cfg,
		logger:     logger.Named("runner"),
		conditions: pom.DefaultConditions,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run executes every definition and returns the results in definition order.
// The error is non-nil only when ctx ends before the run completes; results
// gathered up to that point are still returned.
func (r *Runner) Run(ctx context.Context, defs []*pagedef.Definition) ([]CheckResult, error) {
	runID := uuid.NewString()
	rc := r.cfg.Runner()
	logger := r.logger.With(zap.String("run_id", runID))
	logger.Info("Starting run.", zap.Int("pages", len(defs)), zap.Int("concurrency", rc.Concurrency))
	start := time.Now()

	perPage := make([][]CheckResult, len(defs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(rc.Concurrency, 1))
	for i, def := range defs {
		g.Go(func() error {
			perPage[i] = r.runPage(gctx, logger, runID, def)
			return nil
		})
	}
	_ = g.Wait()

	var results []CheckResult
	for _, page := range perPage {
		results = append(results, page...)
	}
	logger.Info("Run finished.",
		zap.Int("checks", len(results)),
		zap.Int("failed", Failed(results)),
		zap.Duration("duration", time.Since(start)))
	return results, ctx.Err()
}

func (r *Runner) runPage(ctx context.Context, logger *zap.Logger, runID string, def *pagedef.Definition) []CheckResult {
	logger = logger.With(zap.String("page", def.Name))
	if timeout := r.cfg.Runner().PageTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	session, err := r.factory.NewSession(ctx)
	if err != nil {
		logger.Error("Failed to open session.", zap.Error(err))
		return failAll(runID, def, fmt.Errorf("open session: %w", err))
	}
	if c, ok := session.(driver.Closer); ok {
		defer func() {
			if err := c.Close(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("Failed to close session.", zap.Error(err))
			}
		}()
	}

	wait := r.cfg.Wait()
	page := def.Page(session,
		pom.WithLogger(logger),
		pom.WithWaitDefaults(wait.Timeout, wait.PollInterval),
		pom.WithConditions(r.conditions))

	if def.URL != "" {
		if err := page.Navigate(ctx, def.URL); err != nil {
			logger.Error("Navigation failed.", zap.String("url", def.URL), zap.Error(err))
			return failAll(runID, def, fmt.Errorf("navigate to %s: %w", def.URL, err))
		}
	}

	results := make([]CheckResult, 0, len(def.Checks))
	for _, check := range def.Checks {
		res := runCheck(ctx, def, page, check)
		res.RunID = runID
		if res.Passed {
			logger.Debug("Check passed.", zap.String("path", check.Path), zap.Duration("duration", res.Duration))
		} else {
			logger.Warn("Check failed.", zap.String("path", check.Path), zap.Strings("report", res.Report), zap.Error(res.Err))
		}
		results = append(results, res)
	}
	return results
}

func runCheck(ctx context.Context, def *pagedef.Definition, page *pom.Page, check pagedef.CheckDef) CheckResult {
	start := time.Now()
	res := CheckResult{Page: def.Name, Path: check.Path}
	res.Passed, res.Report, res.Err = execute(ctx, def, page, check)
	res.Duration = time.Since(start)
	return res
}

func execute(ctx context.Context, def *pagedef.Definition, page *pom.Page, check pagedef.CheckDef) (bool, []string, error) {
	b, err := def.Resolve(page, check.Path)
	if err != nil {
		return false, nil, err
	}

	if w := check.Wait; w != nil {
		cond := pom.ConditionName(w.Condition)
		if w.Not {
			err = b.WaitUntilNot(ctx, cond, w.Options()...)
		} else {
			err = b.WaitUntil(ctx, cond, w.Options()...)
		}
		if err != nil {
			return false, nil, err
		}
	}

	if check.Set != nil {
		if err := b.Set(ctx, *check.Set); err != nil {
			return false, nil, fmt.Errorf("set %s: %w", check.Path, err)
		}
	}

	if len(check.Expect) == 0 {
		return true, nil, nil
	}
	st := check.Expect.State()
	ok, err := st.Compare(ctx, b)
	if err != nil {
		return false, nil, err
	}
	return ok, st.Report(), nil
}

// failAll marks every check of def as failed with err. A definition without
// checks still yields one page-level result so the failure is reported.
func failAll(runID string, def *pagedef.Definition, err error) []CheckResult {
	if len(def.Checks) == 0 {
		return []CheckResult{{RunID: runID, Page: def.Name, Err: err}}
	}
	results := make([]CheckResult, len(def.Checks))
	for i, c := range def.Checks {
		results[i] = CheckResult{RunID: runID, Page: def.Name, Path: c.Path, Err: err}
	}
	return results
}
