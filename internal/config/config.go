// Package config loads the incidentwatch configuration: YAML file first,
// environment variable overrides second, flag values on top of that in the
// command layer.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variable overrides. Each one, when set, wins over the YAML
// file value.
const (
	EnvAPIURL      = "INCIDENTWATCH_API_URL"
	EnvFeedURL     = "INCIDENTWATCH_FEED_URL"
	EnvLogLevel    = "INCIDENTWATCH_LOG_LEVEL"
	EnvMaxAttempts = "INCIDENTWATCH_MAX_ATTEMPTS"
)

// Config is the incidentwatch configuration loaded from YAML.
type Config struct {
	// APIURL is the incident backend base URL, e.g. "https://incidents.internal/api"
	APIURL string `yaml:"api_url"`

	// FeedURL is the live event feed base URL (ws:// or wss://).
	// Empty means: derive from APIURL by swapping the scheme.
	FeedURL string `yaml:"feed_url,omitempty"`

	// PollInterval is the status polling cadence, e.g. "3s"
	PollInterval string `yaml:"poll_interval,omitempty"`

	// MaxAttempts is the polling attempt ceiling before a watch times out
	MaxAttempts int `yaml:"max_attempts,omitempty"`

	// RequestTimeout bounds each backend HTTP request, e.g. "10s"
	RequestTimeout string `yaml:"request_timeout,omitempty"`

	// RequestsPerSecond rate-limits backend requests
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty"`

	// EventBufferSize is the live event ring capacity
	EventBufferSize int `yaml:"event_buffer_size,omitempty"`

	// LogLevel is one of debug, info, warn, error
	LogLevel string `yaml:"log_level,omitempty"`
}

// DefaultConfig returns the defaults applied under any missing YAML keys.
func DefaultConfig() *Config {
	return &Config{
		APIURL:            "http://localhost:8080/api",
		PollInterval:      "3s",
		MaxAttempts:       40,
		RequestTimeout:    "10s",
		RequestsPerSecond: 10,
		EventBufferSize:   200,
		LogLevel:          "info",
	}
}

// Load reads the configuration from a YAML file and applies environment
// overrides. A missing file is not an error: defaults plus environment
// apply. Path "" skips the file entirely.
func Load(path string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parsing YAML: %w", err)
		}
	}

	applyEnv(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func applyEnv(config *Config) {
	if v := os.Getenv(EnvAPIURL); v != "" {
		config.APIURL = v
	}
	if v := os.Getenv(EnvFeedURL); v != "" {
		config.FeedURL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		config.LogLevel = v
	}
	if v := os.Getenv(EnvMaxAttempts); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.MaxAttempts = n
		}
	}
}

// Validate checks value ranges. Called by Load; exported for configs built
// in code.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("api_url must not be empty")
	}
	if _, err := c.ParsePollInterval(); err != nil {
		return err
	}
	if _, err := c.ParseRequestTimeout(); err != nil {
		return err
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests_per_second must be positive, got %v", c.RequestsPerSecond)
	}
	if c.EventBufferSize < 1 {
		return fmt.Errorf("event_buffer_size must be at least 1, got %d", c.EventBufferSize)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level: %q", c.LogLevel)
	}
	return nil
}

// ParsePollInterval returns the polling cadence as a duration.
func (c *Config) ParsePollInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.PollInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid poll_interval %q: %w", c.PollInterval, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}
	return d, nil
}

// ParseRequestTimeout returns the per-request timeout as a duration.
func (c *Config) ParseRequestTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid request_timeout %q: %w", c.RequestTimeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}
	return d, nil
}

// ResolveFeedURL returns the event feed base URL, deriving it from the API
// URL when no explicit feed_url is configured.
func (c *Config) ResolveFeedURL() string {
	if c.FeedURL != "" {
		return c.FeedURL
	}
	url := c.APIURL
	switch {
	case len(url) > 8 && url[:8] == "https://":
		return "wss://" + url[8:]
	case len(url) > 7 && url[:7] == "http://":
		return "ws://" + url[7:]
	}
	return url
}

// SaveDefaultConfig writes the default configuration to a file, for
// `incidentwatch init`-style bootstrapping.
func SaveDefaultConfig(path string) error {
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
