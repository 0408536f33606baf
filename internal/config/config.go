// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig      `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig     `mapstructure:"browser" yaml:"browser"`
	Runner  RunnerConfig      `mapstructure:"runner" yaml:"runner"`
	Inputs  map[string]string `mapstructure:"inputs" yaml:"inputs"`
	Scrape  ScrapeConfig      `mapstructure:"scrape" yaml:"scrape"`
}

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

// ColorConfig defines the color names used for each log level in console output.
type ColorConfig struct {
	Debug string `mapstructure:"debug" yaml:"debug"`
	Info  string `mapstructure:"info" yaml:"info"`
	Warn  string `mapstructure:"warn" yaml:"warn"`
	Error string `mapstructure:"error" yaml:"error"`
	Fatal string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the Chrome instance that backs a session.
type BrowserConfig struct {
	Headless        bool `mapstructure:"headless" yaml:"headless"`
	IgnoreTLSErrors bool `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	// RemoteURL points at an already running DevTools endpoint (ws://host:9222/...).
	// When empty a local Chrome process is started.
	RemoteURL    string   `mapstructure:"remote_url" yaml:"remote_url"`
	ExecPath     string   `mapstructure:"exec_path" yaml:"exec_path"`
	Args         []string `mapstructure:"args" yaml:"args"`
	WindowWidth  int      `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight int      `mapstructure:"window_height" yaml:"window_height"`
	UserAgent    string   `mapstructure:"user_agent" yaml:"user_agent"`
	// LaunchTimeout bounds how long starting the browser and opening a tab may take.
	LaunchTimeout time.Duration `mapstructure:"launch_timeout" yaml:"launch_timeout"`
}

// RunnerConfig controls how flows are executed.
type RunnerConfig struct {
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	// ElementTimeout is how long element actions wait for their selector before
	// failing with an element-not-found error.
	ElementTimeout time.Duration `mapstructure:"element_timeout" yaml:"element_timeout"`
	OutputDir      string        `mapstructure:"output_dir" yaml:"output_dir"`
	CloseTimeout   time.Duration `mapstructure:"close_timeout" yaml:"close_timeout"`
}

// ScrapeConfig configures the documentation sample scraper.
type ScrapeConfig struct {
	URL             string        `mapstructure:"url" yaml:"url"`
	Base            string        `mapstructure:"base" yaml:"base"`
	Output          string        `mapstructure:"output" yaml:"output"`
	MenuSelector    string        `mapstructure:"menu_selector" yaml:"menu_selector"`
	ContentSelector string        `mapstructure:"content_selector" yaml:"content_selector"`
	SampleSelector  string        `mapstructure:"sample_selector" yaml:"sample_selector"`
	Concurrency     int           `mapstructure:"concurrency" yaml:"concurrency"`
	RateLimit       float64       `mapstructure:"rate_limit" yaml:"rate_limit"`
	Timeout         time.Duration `mapstructure:"timeout" yaml:"timeout"`
	UserAgent       string        `mapstructure:"user_agent" yaml:"user_agent"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "uiflow")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 20)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.remote_url", "")
	v.SetDefault("browser.window_width", 1366)
	v.SetDefault("browser.window_height", 768)
	v.SetDefault("browser.launch_timeout", "60s")

	// -- Runner --
	v.SetDefault("runner.navigation_timeout", "60s")
	v.SetDefault("runner.element_timeout", "10s")
	v.SetDefault("runner.output_dir", "")
	v.SetDefault("runner.close_timeout", "10s")

	// -- Scrape --
	v.SetDefault("scrape.url", "https://nightwatchjs.org/guide/writing-tests/introduction.html")
	v.SetDefault("scrape.base", "https://nightwatchjs.org")
	v.SetDefault("scrape.output", "scraping/write_test.json")
	v.SetDefault("scrape.menu_selector", "div#writing-tests-collapse")
	v.SetDefault("scrape.content_selector", "div.page-content")
	v.SetDefault("scrape.sample_selector", "div.sample-test")
	v.SetDefault("scrape.concurrency", 4)
	v.SetDefault("scrape.rate_limit", 2.0)
	v.SetDefault("scrape.timeout", "30s")
	v.SetDefault("scrape.user_agent", "uiflow-scraper/1.0")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Remote endpoints often carry credentials in the URL, so allow a dedicated variable.
	_ = v.BindEnv("browser.remote_url", "UIFLOW_REMOTE_URL")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if cfg.Browser.ExecPath == "" {
		cfg.Browser.ExecPath = os.Getenv("CHROME_PATH")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if c.Runner.NavigationTimeout <= 0 {
		return fmt.Errorf("runner.navigation_timeout must be a positive duration")
	}
	if c.Runner.ElementTimeout <= 0 {
		return fmt.Errorf("runner.element_timeout must be a positive duration")
	}
	if c.Browser.WindowWidth < 0 || c.Browser.WindowHeight < 0 {
		return fmt.Errorf("browser window size cannot be negative")
	}
	if err := c.Scrape.Validate(); err != nil {
		return fmt.Errorf("scrape configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the scraper settings.
func (s *ScrapeConfig) Validate() error {
	if s.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be a positive integer")
	}
	if s.RateLimit < 0 {
		return fmt.Errorf("rate_limit cannot be negative")
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("timeout must be a positive duration")
	}
	return nil
}
