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

const (
	// DefaultBaseURL is the exercises folder of the free-exercise-db dataset
	DefaultBaseURL = "https://raw.githubusercontent.com/yuhonas/free-exercise-db/main/exercises"
	// DefaultUserAgent is sent on every request; the upstream rejects requests without one
	DefaultUserAgent = "Mozilla/5.0"
)

// Config holds all configuration options for the asset fetcher
type Config struct {
	// Upstream dataset settings
	Source SourceConfig `yaml:"source" json:"source"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Mapping table override
	Catalog CatalogConfig `yaml:"catalog" json:"catalog"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SourceConfig describes where assets are fetched from
type SourceConfig struct {
	BaseURL        string `yaml:"base_url" json:"base_url"`
	UserAgent      string `yaml:"user_agent" json:"user_agent"`
	PrimaryFormat  string `yaml:"primary_format" json:"primary_format"`
	FallbackFormat string `yaml:"fallback_format" json:"fallback_format"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	Directory string `yaml:"directory" json:"directory"`
	Extension string `yaml:"extension" json:"extension"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	// Timeout of 0 means no timeout
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// CatalogConfig points at an optional YAML mapping table
type CatalogConfig struct {
	File string `yaml:"file" json:"file"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance matching the stock exercise download
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			BaseURL:        DefaultBaseURL,
			UserAgent:      DefaultUserAgent,
			PrimaryFormat:  "jpg",
			FallbackFormat: "gif",
		},
		Output: OutputConfig{
			Directory: filepath.Join("assets", "exercises"),
			Extension: "gif",
		},
		Download: DownloadConfig{
			Timeout: 0,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if baseURL := os.Getenv("ASSETFETCH_BASE_URL"); baseURL != "" {
		c.Source.BaseURL = baseURL
	}
	if userAgent := os.Getenv("ASSETFETCH_USER_AGENT"); userAgent != "" {
		c.Source.UserAgent = userAgent
	}

	if outputDir := os.Getenv("ASSETFETCH_OUTPUT_DIR"); outputDir != "" {
		c.Output.Directory = outputDir
	}

	if catalogFile := os.Getenv("ASSETFETCH_CATALOG_FILE"); catalogFile != "" {
		c.Catalog.File = catalogFile
	}

	if timeout := os.Getenv("ASSETFETCH_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid ASSETFETCH_TIMEOUT %q: %w", timeout, err)
		}
		c.Download.Timeout = d
	}

	if logLevel := os.Getenv("ASSETFETCH_LOG_LEVEL"); logLevel != "" {
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
			return nil // No config file found, not an error
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
	home := os.Getenv("HOME")
	locations := []string{
		".assetfetch.yaml",
		".assetfetch.yml",
		filepath.Join(home, ".config", "assetfetch", "config.yaml"),
		filepath.Join(home, ".config", "assetfetch", "config.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.Source.BaseURL)
	if c.Source.BaseURL == "" || err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, fmt.Errorf("base URL must be an absolute http(s) URL, got %q", c.Source.BaseURL))
	}
	if strings.TrimSpace(c.Source.UserAgent) == "" {
		errs = append(errs, errors.New("user agent is required"))
	}
	if c.Source.PrimaryFormat == "" {
		errs = append(errs, errors.New("primary format is required"))
	}
	if c.Source.FallbackFormat == "" {
		errs = append(errs, errors.New("fallback format is required"))
	}
	if c.Source.PrimaryFormat != "" && strings.EqualFold(c.Source.PrimaryFormat, c.Source.FallbackFormat) {
		errs = append(errs, errors.New("primary and fallback formats must differ"))
	}

	if c.Output.Directory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Output.Extension == "" {
		errs = append(errs, errors.New("output extension is required"))
	}

	if c.Download.Timeout < 0 {
		errs = append(errs, errors.New("download timeout cannot be negative"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
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
// Only flags the user actually set should be present in the map.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["base-url"].(string); ok && v != "" {
		c.Source.BaseURL = v
	}
	if v, ok := flags["user-agent"].(string); ok && v != "" {
		c.Source.UserAgent = v
	}
	if v, ok := flags["primary"].(string); ok && v != "" {
		c.Source.PrimaryFormat = v
	}
	if v, ok := flags["fallback"].(string); ok && v != "" {
		c.Source.FallbackFormat = v
	}
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Output.Directory = v
	}
	if v, ok := flags["extension"].(string); ok && v != "" {
		c.Output.Extension = v
	}
	if v, ok := flags["catalog"].(string); ok && v != "" {
		c.Catalog.File = v
	}
	if v, ok := flags["timeout"].(time.Duration); ok {
		c.Download.Timeout = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".assetfetch.env"))

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
