// File: internal/config/config_test.go
package config

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger().Level)
	assert.Equal(t, "pagecomp", cfg.Logger().ServiceName)
	assert.Equal(t, BackendCDP, cfg.Browser().Backend)
	assert.True(t, cfg.Browser().Headless)
	assert.Equal(t, 30*time.Second, cfg.Browser().StartupTimeout)
	assert.Equal(t, 10*time.Second, cfg.Wait().Timeout)
	assert.Equal(t, 100*time.Millisecond, cfg.Wait().PollInterval)
	assert.Equal(t, 2, cfg.Runner().Concurrency)
	assert.Equal(t, "text", cfg.Runner().Format)
	assert.NoError(t, cfg.Validate())
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"unknown backend", func(c *Config) { c.BrowserCfg.Backend = "netscape" }, `unknown backend "netscape"`},
		{"selenium without url", func(c *Config) {
			c.BrowserCfg.Backend = BackendSelenium
			c.BrowserCfg.WebDriverURL = ""
		}, "webdriver_url is required"},
		{"negative viewport", func(c *Config) { c.BrowserCfg.ViewportWidth = -1 }, "viewport dimensions"},
		{"zero timeout", func(c *Config) { c.WaitCfg.Timeout = 0 }, "wait.timeout must be a positive duration"},
		{"poll exceeds timeout", func(c *Config) { c.WaitCfg.PollInterval = time.Minute }, "must not exceed wait.timeout"},
		{"zero concurrency", func(c *Config) { c.SetRunnerConcurrency(0) }, "runner.concurrency must be a positive integer"},
		{"bad format", func(c *Config) { c.SetRunnerFormat("html") }, `runner.format must be one of text, junit (got "html")`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}

	t.Run("selenium with url", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.SetBrowserBackend(BackendSelenium)
		assert.NoError(t, cfg.Validate())
	})
}

// -- Factory Function Tests --

func TestNewConfigFromViper(t *testing.T) {
	t.Run("Successful Load from YAML", func(t *testing.T) {
		yamlBytes := []byte(`
browser:
  backend: playwright
  browser_name: firefox
  args: ["--lang=en-US"]
wait:
  timeout: 3s
runner:
  concurrency: 4
  format: junit
`)
		v := viper.New()
		SetDefaults(v)
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(bytes.NewBuffer(yamlBytes)))

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, BackendPlaywright, cfg.Browser().Backend)
		assert.Equal(t, "firefox", cfg.Browser().BrowserName)
		assert.Equal(t, []string{"--lang=en-US"}, cfg.Browser().Args)
		assert.Equal(t, 3*time.Second, cfg.Wait().Timeout)
		assert.Equal(t, 4, cfg.Runner().Concurrency)
		assert.Equal(t, "junit", cfg.Runner().Format)
		// Check a default value was also loaded
		assert.Equal(t, 100*time.Millisecond, cfg.Wait().PollInterval)
	})

	t.Run("Validation Failure", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("runner.concurrency", 0) // Intentionally invalid

		cfg, err := NewConfigFromViper(v)
		assert.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "invalid configuration")
		assert.Contains(t, err.Error(), "runner.concurrency must be a positive integer")
	})

	t.Run("Environment Variable Binding", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		BindEnv(v)

		yamlConfig := []byte(`
browser:
  backend: cdp
`)
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(bytes.NewBuffer(yamlConfig)))

		t.Setenv("PAGECOMP_BROWSER_BACKEND", "selenium")
		t.Setenv("PAGECOMP_WAIT_TIMEOUT", "45s")

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		// The env var overrides the value from the config buffer.
		assert.Equal(t, BackendSelenium, cfg.Browser().Backend)
		assert.Equal(t, 45*time.Second, cfg.Wait().Timeout)
	})

	t.Run("Home Expansion", func(t *testing.T) {
		home, err := homedir.Dir()
		require.NoError(t, err)

		v := viper.New()
		SetDefaults(v)
		v.Set("runner.output", "~/reports/junit.xml")

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, "reports", "junit.xml"), cfg.Runner().Output)
	})
}
