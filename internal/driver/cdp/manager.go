// internal/driver/cdp/manager.go
package cdp

import (
	"context"
	"fmt"
	goruntime "runtime"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagecomp/internal/config"
	"github.com/xkilldash9x/pagecomp/pkg/driver"
)

// Manager owns a browser process and hands out one tab per session.
type Manager struct {
	logger *zap.Logger
	cfg    config.BrowserConfig

	// allocatorCtx manages the entire browser process. All session contexts are derived from this.
	allocatorCtx    context.Context
	allocatorCancel context.CancelFunc
	browserCtx      context.Context
	browserCancel   context.CancelFunc

	// wg tracks open sessions for a graceful shutdown.
	wg sync.WaitGroup
}

// NewManager launches the browser and checks that it responds.
func NewManager(ctx context.Context, logger *zap.Logger, cfg config.BrowserConfig) (*Manager, error) {
	m := &Manager{
		logger: logger.Named("cdp_manager"),
		cfg:    cfg,
	}
	if err := m.launchBrowser(ctx); err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	return m, nil
}

func (m *Manager) launchBrowser(ctx context.Context) error {
	m.logger.Info("Initializing browser allocator...")

	// The allocator outlives ctx; it is torn down by Shutdown.
	allocCtx, cancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), m.buildAllocatorOptions()...)
	m.allocatorCtx = allocCtx
	m.allocatorCancel = cancel

	// The first tab owns the browser process; sessions open further tabs next to it.
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	m.browserCtx = browserCtx
	m.browserCancel = browserCancel

	startup := m.cfg.StartupTimeout
	if startup <= 0 {
		startup = 30 * time.Second
	}
	// The first Run allocates the browser, so it gets the uncancelled browser
	// context; the startup deadline applies to the responsiveness check.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		cancel()
		return fmt.Errorf("browser failed to start: %w", err)
	}
	startCtx, cancelStart := context.WithTimeout(ctx, startup)
	defer cancelStart()

	if err := NewExecutor(browserCtx).Run(startCtx, chromedp.Navigate("about:blank")); err != nil {
		browserCancel()
		cancel()
		return fmt.Errorf("browser failed to start or respond: %w", err)
	}

	m.logger.Info("Browser launched successfully and is responsive.")
	return nil
}

// buildAllocatorOptions assembles the flags for the browser process.
func (m *Manager) buildAllocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption(nil), chromedp.DefaultExecAllocatorOptions[:]...)

	opts = append(opts,
		chromedp.Flag("headless", m.cfg.Headless),
		chromedp.Flag("ignore-certificate-errors", m.cfg.IgnoreTLSErrors),
		chromedp.Flag("disable-gpu", m.cfg.Headless),
	)
	if m.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(m.cfg.ExecPath))
	}
	if m.cfg.ViewportWidth > 0 && m.cfg.ViewportHeight > 0 {
		opts = append(opts, chromedp.WindowSize(m.cfg.ViewportWidth, m.cfg.ViewportHeight))
	}

	for _, arg := range m.cfg.Args {
		name, value, hasValue := strings.Cut(arg, "=")
		name = strings.TrimPrefix(name, "--")
		if hasValue {
			opts = append(opts, chromedp.Flag(name, value))
		} else {
			opts = append(opts, chromedp.Flag(name, true))
		}
	}

	// Flags required for running inside containers.
	if goruntime.GOOS == "linux" {
		opts = append(opts,
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-setuid-sandbox", true),
		)
	}
	return opts
}

// NewSession opens a tab. The session must be closed by the caller.
func (m *Manager) NewSession(ctx context.Context) (driver.Session, error) {
	tabCtx, cancel := chromedp.NewContext(m.browserCtx)
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open tab: %w", err)
	}
	exec := NewExecutor(tabCtx)

	actions := []chromedp.Action{chromedp.Navigate("about:blank")}
	if m.cfg.ViewportWidth > 0 && m.cfg.ViewportHeight > 0 {
		actions = append(actions, emulation.SetDeviceMetricsOverride(int64(m.cfg.ViewportWidth), int64(m.cfg.ViewportHeight), 1, false))
	}
	if err := exec.Run(ctx, actions...); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to prepare tab: %w", err)
	}

	id := uuid.NewString()
	m.wg.Add(1)
	closer := func() error {
		defer m.wg.Done()
		cancel()
		return nil
	}
	m.logger.Debug("Session opened.", zap.String("session_id", id))
	return NewSession(id, exec, m.logger, closer), nil
}

// Shutdown waits for open sessions to close, respecting the caller's
// deadline, then terminates the browser.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("Browser manager shutdown initiated. Waiting for active sessions to complete...")

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("All sessions have completed.")
	case <-ctx.Done():
		m.logger.Warn("Shutdown deadline exceeded. Forcing browser termination.", zap.Error(ctx.Err()))
	}

	if m.allocatorCancel != nil {
		m.browserCancel()
		m.allocatorCancel()
		<-m.allocatorCtx.Done()
	}
	return nil
}
