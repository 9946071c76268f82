// Package config loads service configuration from a JSON or YAML file,
// environment overrides and built-in defaults.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Duration is a time.Duration that reads "30s"-style strings from JSON and YAML.
type Duration time.Duration

// UnmarshalJSON accepts a duration string or a number of seconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	return d.set(raw)
}

// UnmarshalYAML accepts a duration string or a number of seconds.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	return d.set(raw)
}

func (d *Duration) set(raw any) error {
	switch v := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		*d = Duration(parsed)
	case float64:
		*d = Duration(v * float64(time.Second))
	case int:
		*d = Duration(time.Duration(v) * time.Second)
	default:
		return fmt.Errorf("invalid duration %v", raw)
	}
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the service configuration.
type Config struct {
	Port      int    `json:"port,omitempty" yaml:"port,omitempty"`
	PublicDir string `json:"public_dir,omitempty" yaml:"public_dir,omitempty"` // Static files, must contain index.html
	DataDir   string `json:"data_dir,omitempty" yaml:"data_dir,omitempty"`     // Counter and saved-link storage

	StoreBackend string `json:"store_backend,omitempty" yaml:"store_backend,omitempty"` // json or sqlite

	APIKey          string   `json:"api_key,omitempty" yaml:"api_key,omitempty"` // Gemini API key
	Model           string   `json:"model,omitempty" yaml:"model,omitempty"`     // Overrides the standard-tier model
	GenerateTimeout Duration `json:"generate_timeout,omitempty" yaml:"generate_timeout,omitempty"`

	ProxyURL     string   `json:"proxy_url,omitempty" yaml:"proxy_url,omitempty"`
	FetchTimeout Duration `json:"fetch_timeout,omitempty" yaml:"fetch_timeout,omitempty"`
	UserAgent    string   `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	// Outbound requests per second to any one host; 0 disables spacing.
	HostRate  float64 `json:"host_rate,omitempty" yaml:"host_rate,omitempty"`
	HostBurst int     `json:"host_burst,omitempty" yaml:"host_burst,omitempty"`

	LogLevel  string `json:"log_level,omitempty" yaml:"log_level,omitempty"`
	LogFormat string `json:"log_format,omitempty" yaml:"log_format,omitempty"` // json or console
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Port:            8080,
		PublicDir:       "public",
		DataDir:         "data",
		StoreBackend:    BackendJSON,
		GenerateTimeout: Duration(60 * time.Second),
		ProxyURL:        "https://r.jina.ai/",
		FetchTimeout:    Duration(30 * time.Second),
		HostRate:        2,
		HostBurst:       4,
		LogLevel:        "info",
		LogFormat:       "json",
	}
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by extension.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := decodeFile(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	if path == "" {
		return fmt.Errorf("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}
	return nil
}

// Load layers the optional file at path and then the environment over
// Defaults, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	merged := cfg.MergeWithDefaults(Defaults())
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// ApplyEnv overrides fields from environment variables that are set.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT: %w", err)
		}
		c.Port = port
	}
	setString(&c.APIKey, "GEMINI_API_KEY")
	setString(&c.PublicDir, "JOBPREP_PUBLIC_DIR")
	setString(&c.DataDir, "JOBPREP_DATA_DIR")
	setString(&c.StoreBackend, "JOBPREP_STORE_BACKEND")
	setString(&c.ProxyURL, "JOBPREP_PROXY_URL")
	setString(&c.Model, "JOBPREP_MODEL")
	setString(&c.LogLevel, "LOG_LEVEL")

	if err := setDuration(&c.FetchTimeout, "JOBPREP_FETCH_TIMEOUT"); err != nil {
		return err
	}
	return setDuration(&c.GenerateTimeout, "JOBPREP_GENERATE_TIMEOUT")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = Duration(d)
	return nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 1 and 65535, got %d", c.Port)
	}

	switch c.StoreBackend {
	case BackendJSON, BackendSQLite:
	default:
		return fmt.Errorf("config error: unknown 'store_backend' %q", c.StoreBackend)
	}

	if c.FetchTimeout <= 0 {
		return fmt.Errorf("config error: 'fetch_timeout' must be positive")
	}
	if c.GenerateTimeout <= 0 {
		return fmt.Errorf("config error: 'generate_timeout' must be positive")
	}
	if c.HostRate < 0 || c.HostBurst < 0 {
		return fmt.Errorf("config error: 'host_rate' and 'host_burst' must be non-negative")
	}

	if c.ProxyURL != "" {
		u, err := url.Parse(c.ProxyURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("config error: 'proxy_url' must be an http(s) URL: %s", c.ProxyURL)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with zero fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.PublicDir == "" {
		result.PublicDir = defaults.PublicDir
	}
	if result.DataDir == "" {
		result.DataDir = defaults.DataDir
	}
	if result.StoreBackend == "" {
		result.StoreBackend = defaults.StoreBackend
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.Model == "" {
		result.Model = defaults.Model
	}
	if result.GenerateTimeout == 0 {
		result.GenerateTimeout = defaults.GenerateTimeout
	}
	if result.ProxyURL == "" {
		result.ProxyURL = defaults.ProxyURL
	}
	if result.FetchTimeout == 0 {
		result.FetchTimeout = defaults.FetchTimeout
	}
	if result.UserAgent == "" {
		result.UserAgent = defaults.UserAgent
	}
	// A zero host rate is a valid setting, so only the burst is filled.
	if result.HostBurst == 0 {
		result.HostBurst = defaults.HostBurst
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}
	if result.LogFormat == "" {
		result.LogFormat = defaults.LogFormat
	}

	return result
}
