package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the downloader
type Config struct {
	// Image board connection settings
	Board BoardConfig `yaml:"board" json:"board"`

	// Listing crawl settings
	Crawl CrawlConfig `yaml:"crawl" json:"crawl"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Request pacing
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Retry policy for failed requests
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Terminal output preferences
	UI UIConfig `yaml:"ui" json:"ui"`
}

// BoardConfig holds settings for talking to the image board
type BoardConfig struct {
	BaseURL        string        `yaml:"base_url" json:"base_url"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// CrawlConfig holds listing crawl configuration
type CrawlConfig struct {
	ParallelPages int  `yaml:"parallel_pages" json:"parallel_pages"`
	PreferQuality bool `yaml:"prefer_quality" json:"prefer_quality"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	ConcurrentDownloads int           `yaml:"concurrent_downloads" json:"concurrent_downloads"`
	DownloadTimeout     time.Duration `yaml:"download_timeout" json:"download_timeout"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory     string `yaml:"base_directory" json:"base_directory"`
	OverwriteExisting bool   `yaml:"overwrite_existing" json:"overwrite_existing"`
}

// RateLimitConfig holds request pacing configuration.
// A RequestsPerMinute of 0 disables pacing.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int `yaml:"burst_size" json:"burst_size"`
}

// RetryConfig holds retry configuration. MaxAttempts of 0 means failures are
// reported without being retried.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// UIConfig holds terminal output preferences
type UIConfig struct {
	ColorEnabled    bool `yaml:"color_enabled" json:"color_enabled"`
	ProgressEnabled bool `yaml:"progress_enabled" json:"progress_enabled"`
	Report          bool `yaml:"report" json:"report"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Board: BoardConfig{
			BaseURL:        "https://yande.re",
			UserAgent:      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			RequestTimeout: 30 * time.Second,
		},
		Crawl: CrawlConfig{
			ParallelPages: 1,
			PreferQuality: false,
		},
		Download: DownloadConfig{
			ConcurrentDownloads: 4,
			DownloadTimeout:     5 * time.Minute,
		},
		Output: OutputConfig{
			BaseDirectory:     "./output",
			OverwriteExisting: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 0,
			BurstSize:         1,
		},
		Retry: RetryConfig{
			MaxAttempts: 0,
			BaseDelay:   time.Second,
			MaxDelay:    30 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
		UI: UIConfig{
			ColorEnabled:    true,
			ProgressEnabled: true,
			Report:          false,
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if baseURL := os.Getenv("YANDL_BASE_URL"); baseURL != "" {
		c.Board.BaseURL = baseURL
	}
	if userAgent := os.Getenv("YANDL_USER_AGENT"); userAgent != "" {
		c.Board.UserAgent = userAgent
	}

	if outputDir := os.Getenv("YANDL_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}

	if concurrent := os.Getenv("YANDL_PARALLEL_DOWNLOADS"); concurrent != "" {
		var val int
		fmt.Sscanf(concurrent, "%d", &val)
		if val > 0 {
			c.Download.ConcurrentDownloads = val
		}
	}
	if pages := os.Getenv("YANDL_PARALLEL_PAGES"); pages != "" {
		var val int
		fmt.Sscanf(pages, "%d", &val)
		if val > 0 {
			c.Crawl.ParallelPages = val
		}
	}

	if rpm := os.Getenv("YANDL_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val >= 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}

	if preferPNG := os.Getenv("YANDL_PREFER_PNG"); preferPNG != "" {
		c.Crawl.PreferQuality = strings.ToLower(preferPNG) == "true"
	}

	if logLevel := os.Getenv("YANDL_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	for _, loc := range SearchPaths() {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// SearchPaths lists the config file locations checked when no path is given,
// in order of precedence.
func SearchPaths() []string {
	home := os.Getenv("HOME")
	return []string{
		".yandl.yaml",
		".yandl.yml",
		filepath.Join(home, ".config", "yandl", "config.yaml"),
		filepath.Join(home, ".config", "yandl", "config.yml"),
		filepath.Join(home, ".yandl.yaml"),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Board.BaseURL == "" {
		errs = append(errs, errors.New("board base URL is required"))
	} else if u, err := url.Parse(c.Board.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("board base URL %q is not an absolute URL", c.Board.BaseURL))
	}
	if c.Board.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	if c.Crawl.ParallelPages <= 0 {
		errs = append(errs, errors.New("parallel pages must be positive"))
	}
	if c.Crawl.ParallelPages > 10 {
		errs = append(errs, errors.New("parallel pages should not exceed 10"))
	}

	if c.Download.ConcurrentDownloads <= 0 {
		errs = append(errs, errors.New("concurrent downloads must be positive"))
	}
	if c.Download.ConcurrentDownloads > 32 {
		errs = append(errs, errors.New("concurrent downloads should not exceed 32"))
	}
	if c.Download.DownloadTimeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	if c.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}
	if c.RateLimit.RequestsPerMinute > 0 && c.RateLimit.BurstSize <= 0 {
		errs = append(errs, errors.New("burst size must be positive when rate limiting is enabled"))
	}

	if c.Retry.MaxAttempts < 0 || c.Retry.MaxAttempts > 10 {
		errs = append(errs, errors.New("retry max attempts must be between 0 and 10"))
	}
	if c.Retry.MaxAttempts > 0 && c.Retry.BaseDelay <= 0 {
		errs = append(errs, errors.New("retry base delay must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in the map are applied. Numbers are taken as given so
// Validate rejects out-of-range flags.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if concurrent, ok := flags["parallel-downloads"].(int); ok {
		c.Download.ConcurrentDownloads = concurrent
	}
	if pages, ok := flags["parallel-pages"].(int); ok {
		c.Crawl.ParallelPages = pages
	}
	if preferPNG, ok := flags["prefer-png"].(bool); ok {
		c.Crawl.PreferQuality = preferPNG
	}
	if force, ok := flags["force"].(bool); ok {
		c.Output.OverwriteExisting = force
	}
	if report, ok := flags["report"].(bool); ok {
		c.UI.Report = report
	}
	if noColor, ok := flags["no-color"].(bool); ok && noColor {
		c.UI.ColorEnabled = false
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".yandl.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
