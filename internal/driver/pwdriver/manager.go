// internal/driver/pwdriver/manager.go
package pwdriver

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagecomp/internal/config"
	"github.com/xkilldash9x/pagecomp/pkg/driver"
)

// Manager owns the Playwright driver and one browser; each session gets its
// own browser context and page.
type Manager struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	logger  *zap.Logger
	cfg     config.BrowserConfig

	wg sync.WaitGroup
}

// NewManager starts Playwright and launches the configured browser type.
func NewManager(ctx context.Context, logger *zap.Logger, cfg config.BrowserConfig) (*Manager, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m := &Manager{logger: logger.Named("playwright_manager"), cfg: cfg}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright driver: %w", err)
	}
	browserType, err := m.browserType(pw)
	if err != nil {
		_ = pw.Stop()
		return nil, err
	}
	b, err := browserType.Launch(m.LaunchOptions())
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch browser instance: %w", err)
	}
	m.pw, m.browser = pw, b
	m.logger.Info("Browser launched.", zap.String("browser_version", b.Version()))
	return m, nil
}

func (m *Manager) browserType(pw *playwright.Playwright) (playwright.BrowserType, error) {
	switch strings.ToLower(m.cfg.BrowserName) {
	case "", "chrome", "chromium":
		return pw.Chromium, nil
	case "firefox":
		return pw.Firefox, nil
	case "webkit", "safari":
		return pw.WebKit, nil
	}
	return nil, fmt.Errorf("unsupported playwright browser %q", m.cfg.BrowserName)
}

// LaunchOptions maps the browser settings onto Playwright launch options.
func (m *Manager) LaunchOptions() playwright.BrowserTypeLaunchOptions {
	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(m.cfg.Headless),
		Args:     append([]string(nil), m.cfg.Args...),
	}
	if m.cfg.ExecPath != "" {
		opts.ExecutablePath = playwright.String(m.cfg.ExecPath)
	}
	if m.cfg.StartupTimeout > 0 {
		opts.Timeout = playwright.Float(float64(m.cfg.StartupTimeout.Milliseconds()))
	}
	return opts
}

// ContextOptions maps the browser settings onto per-session context options.
func (m *Manager) ContextOptions() playwright.BrowserNewContextOptions {
	opts := playwright.BrowserNewContextOptions{
		IgnoreHttpsErrors: playwright.Bool(m.cfg.IgnoreTLSErrors),
	}
	if m.cfg.ViewportWidth > 0 && m.cfg.ViewportHeight > 0 {
		opts.Viewport = &playwright.Size{Width: m.cfg.ViewportWidth, Height: m.cfg.ViewportHeight}
	}
	return opts
}

// NewSession opens an isolated browser context with a single page.
func (m *Manager) NewSession(ctx context.Context) (driver.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bctx, err := m.browser.NewContext(m.ContextOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}
	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	id := uuid.NewString()
	m.wg.Add(1)
	onClose := func() {
		defer m.wg.Done()
		if err := bctx.Close(); err != nil {
			m.logger.Warn("Failed to close browser context.", zap.String("session_id", id), zap.Error(err))
		}
	}
	m.logger.Debug("Session opened.", zap.String("session_id", id))
	return NewSession(id, page, m.logger, onClose), nil
}

// Shutdown waits for open sessions, up to the caller's deadline, then closes
// the browser and stops the driver.
func (m *Manager) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		m.logger.Info("All sessions closed gracefully.")
	case <-ctx.Done():
		m.logger.Warn("Timeout waiting for sessions to close. Proceeding with forceful shutdown.", zap.Error(ctx.Err()))
	}

	var shutdownErr error
	if err := m.browser.Close(); err != nil {
		shutdownErr = fmt.Errorf("failed to close browser: %w", err)
	}
	if err := m.pw.Stop(); err != nil && shutdownErr == nil {
		shutdownErr = fmt.Errorf("failed to stop playwright driver: %w", err)
	}
	return shutdownErr
}
