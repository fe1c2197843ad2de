// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable override, e.g.
// PAGECOMP_BROWSER_BACKEND=selenium.
const EnvPrefix = "PAGECOMP"

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Browser() BrowserConfig
	Wait() WaitConfig
	Runner() RunnerConfig

	// Browser Setters
	SetBrowserBackend(Backend)
	SetBrowserHeadless(bool)

	// Runner Setters
	SetRunnerConcurrency(int)
	SetRunnerFormat(string)
	SetRunnerOutput(string)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	BrowserCfg BrowserConfig `mapstructure:"browser" yaml:"browser"`
	WaitCfg    WaitConfig    `mapstructure:"wait" yaml:"wait"`
	RunnerCfg  RunnerConfig  `mapstructure:"runner" yaml:"runner"`
}

var _ Interface = (*Config)(nil)

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig   { return c.LoggerCfg }
func (c *Config) Browser() BrowserConfig { return c.BrowserCfg }
func (c *Config) Wait() WaitConfig       { return c.WaitCfg }
func (c *Config) Runner() RunnerConfig   { return c.RunnerCfg }

// --- Interface Method Implementations (Setters) ---

// Browser Setters
func (c *Config) SetBrowserBackend(b Backend) { c.BrowserCfg.Backend = b }
func (c *Config) SetBrowserHeadless(b bool)   { c.BrowserCfg.Headless = b }

// Runner Setters
func (c *Config) SetRunnerConcurrency(n int)  { c.RunnerCfg.Concurrency = n }
func (c *Config) SetRunnerFormat(f string)    { c.RunnerCfg.Format = f }
func (c *Config) SetRunnerOutput(path string) { c.RunnerCfg.Output = path }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// Backend selects the browser automation library sessions are created with.
type Backend string

const (
	BackendCDP        Backend = "cdp"
	BackendSelenium   Backend = "selenium"
	BackendPlaywright Backend = "playwright"
)

// BrowserConfig holds settings for launching or connecting to browsers.
type BrowserConfig struct {
	Backend         Backend  `mapstructure:"backend" yaml:"backend"`
	Headless        bool     `mapstructure:"headless" yaml:"headless"`
	IgnoreTLSErrors bool     `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	Args            []string `mapstructure:"args" yaml:"args"`
	// ExecPath overrides the browser binary (cdp and playwright backends).
	ExecPath string `mapstructure:"exec_path" yaml:"exec_path"`
	// WebDriverURL is the remote end the selenium backend connects to.
	WebDriverURL string `mapstructure:"webdriver_url" yaml:"webdriver_url"`
	// BrowserName is the WebDriver browserName capability, or the playwright
	// browser type (chromium, firefox, webkit).
	BrowserName    string `mapstructure:"browser_name" yaml:"browser_name"`
	ViewportWidth  int    `mapstructure:"viewport_width" yaml:"viewport_width"`
	ViewportHeight int    `mapstructure:"viewport_height" yaml:"viewport_height"`
	// StartupTimeout bounds browser launch and the first responsive check.
	StartupTimeout time.Duration `mapstructure:"startup_timeout" yaml:"startup_timeout"`
}

// WaitConfig holds the page-level wait defaults.
type WaitConfig struct {
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
}

// RunnerConfig controls how page checks are executed and reported.
type RunnerConfig struct {
	Concurrency int           `mapstructure:"concurrency" yaml:"concurrency"`
	PageTimeout time.Duration `mapstructure:"page_timeout" yaml:"page_timeout"`
	Format      string        `mapstructure:"format" yaml:"format"`
	Output      string        `mapstructure:"output" yaml:"output"`
	NoColor     bool          `mapstructure:"no_color" yaml:"no_color"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "pagecomp")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.backend", string(BackendCDP))
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.webdriver_url", "http://localhost:4444/wd/hub")
	v.SetDefault("browser.browser_name", "chrome")
	v.SetDefault("browser.viewport_width", 1280)
	v.SetDefault("browser.viewport_height", 800)
	v.SetDefault("browser.startup_timeout", "30s")

	// -- Wait --
	v.SetDefault("wait.timeout", "10s")
	v.SetDefault("wait.poll_interval", "100ms")

	// -- Runner --
	v.SetDefault("runner.concurrency", 2)
	v.SetDefault("runner.page_timeout", "2m")
	v.SetDefault("runner.format", "text")
	v.SetDefault("runner.output", "")
	v.SetDefault("runner.no_color", false)
}

// BindEnv makes every key overridable through PAGECOMP_* variables.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// expandPaths resolves a leading ~ in file system settings.
func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.LoggerCfg.LogFile, &c.BrowserCfg.ExecPath, &c.RunnerCfg.Output} {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("expanding %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.BrowserCfg.Validate(); err != nil {
		return fmt.Errorf("browser configuration invalid: %w", err)
	}
	if c.WaitCfg.Timeout <= 0 {
		return fmt.Errorf("wait.timeout must be a positive duration")
	}
	if c.WaitCfg.PollInterval <= 0 {
		return fmt.Errorf("wait.poll_interval must be a positive duration")
	}
	if c.WaitCfg.PollInterval > c.WaitCfg.Timeout {
		return fmt.Errorf("wait.poll_interval must not exceed wait.timeout")
	}
	if c.RunnerCfg.Concurrency <= 0 {
		return fmt.Errorf("runner.concurrency must be a positive integer")
	}
	switch c.RunnerCfg.Format {
	case "text", "junit":
	default:
		return fmt.Errorf("runner.format must be one of text, junit (got %q)", c.RunnerCfg.Format)
	}
	return nil
}

// Validate checks the browser settings for the selected backend.
func (b *BrowserConfig) Validate() error {
	switch b.Backend {
	case BackendCDP, BackendPlaywright:
	case BackendSelenium:
		if b.WebDriverURL == "" {
			return fmt.Errorf("webdriver_url is required for the selenium backend")
		}
	default:
		return fmt.Errorf("unknown backend %q (want cdp, selenium or playwright)", b.Backend)
	}
	if b.ViewportWidth < 0 || b.ViewportHeight < 0 {
		return fmt.Errorf("viewport dimensions must not be negative")
	}
	return nil
}
