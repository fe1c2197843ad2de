// File: cmd/backend.go
package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/pagecomp/internal/config"
	"github.com/xkilldash9x/pagecomp/internal/driver/cdp"
	"github.com/xkilldash9x/pagecomp/internal/driver/pwdriver"
	"github.com/xkilldash9x/pagecomp/internal/driver/webdriver"
	"github.com/xkilldash9x/pagecomp/internal/runner"
)

// browserManager is what the check command needs from a backend.
type browserManager interface {
	runner.SessionFactory
	Shutdown(ctx context.Context) error
}

// newBrowserManager is a variable so tests can substitute a fake backend.
var newBrowserManager = startBrowserManager

func startBrowserManager(ctx context.Context, logger *zap.Logger, cfg config.BrowserConfig) (browserManager, error) {
	switch cfg.Backend {
	case config.BackendCDP:
		m, err := cdp.NewManager(ctx, logger, cfg)
		if err != nil {
			return nil, err
		}
		return m, nil
	case config.BackendSelenium:
		return webdriver.NewManager(logger, cfg, nil), nil
	case config.BackendPlaywright:
		m, err := pwdriver.NewManager(ctx, logger, cfg)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}
