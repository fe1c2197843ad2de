// internal/driver/webdriver/manager.go
package webdriver

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagecomp/internal/config"
	"github.com/xkilldash9x/pagecomp/pkg/driver"
)

// RemoteFunc opens a remote session. It matches selenium.NewRemote.
type RemoteFunc func(caps selenium.Capabilities, urlPrefix string) (selenium.WebDriver, error)

// Manager opens WebDriver sessions against one remote end.
type Manager struct {
	logger *zap.Logger
	cfg    config.BrowserConfig
	remote RemoteFunc

	wg sync.WaitGroup
}

// NewManager returns a Manager for cfg.WebDriverURL. remote defaults to
// selenium.NewRemote.
func NewManager(logger *zap.Logger, cfg config.BrowserConfig, remote RemoteFunc) *Manager {
	if remote == nil {
		remote = selenium.NewRemote
	}
	return &Manager{logger: logger.Named("webdriver_manager"), cfg: cfg, remote: remote}
}

// Capabilities builds the session capabilities from the browser settings.
func (m *Manager) Capabilities() selenium.Capabilities {
	name := m.cfg.BrowserName
	if name == "" {
		name = "chrome"
	}
	caps := selenium.Capabilities{"browserName": name}
	if m.cfg.IgnoreTLSErrors {
		caps["acceptInsecureCerts"] = true
	}

	if strings.EqualFold(name, "chrome") {
		args := append([]string(nil), m.cfg.Args...)
		if m.cfg.Headless {
			args = append(args, "--headless=new", "--disable-gpu")
		}
		if m.cfg.ViewportWidth > 0 && m.cfg.ViewportHeight > 0 {
			args = append(args, fmt.Sprintf("--window-size=%d,%d", m.cfg.ViewportWidth, m.cfg.ViewportHeight))
		}
		caps.AddChrome(chrome.Capabilities{Args: args, Path: m.cfg.ExecPath})
	}
	return caps
}

// NewSession opens a remote session.
func (m *Manager) NewSession(ctx context.Context) (driver.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	wd, err := m.remote(m.Capabilities(), m.cfg.WebDriverURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create webdriver session: %w", err)
	}

	id := wd.SessionID()
	m.wg.Add(1)
	m.logger.Debug("Session opened.", zap.String("session_id", id))
	logger := m.logger.With(zap.String("session_id", id))
	return NewSession(wd, logger, m.wg.Done), nil
}

// Shutdown waits for open sessions to quit, up to the caller's deadline.
func (m *Manager) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		m.logger.Warn("Shutdown deadline exceeded with sessions still open.", zap.Error(ctx.Err()))
		return ctx.Err()
	}
}
