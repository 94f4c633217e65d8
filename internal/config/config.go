// Package config loads client settings from a YAML file, an optional .env
// file and FINSYNC_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/iudanet/finsync/internal/client/retry"
	"github.com/iudanet/finsync/internal/logging"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FINSYNC_"

// Config is the client configuration
type Config struct {
	Remote RemoteConfig `yaml:"remote"`
	Store  StoreConfig  `yaml:"store"`
	Log    LogConfig    `yaml:"log"`
	Retry  RetryConfig  `yaml:"retry"`
	Sync   SyncConfig   `yaml:"sync"`
}

// RemoteConfig points at the document store
type RemoteConfig struct {
	BaseURL string        `yaml:"base_url"`
	Project string        `yaml:"project"`
	Timeout time.Duration `yaml:"timeout"`
}

// StoreConfig holds local file paths
type StoreConfig struct {
	Path     string `yaml:"path"`
	AuthPath string `yaml:"auth_path"`
}

// SyncConfig tunes the protocol and the scheduler
type SyncConfig struct {
	Interval          time.Duration `yaml:"interval"`
	RecurringInterval time.Duration `yaml:"recurring_interval"`
	PushLimit         int           `yaml:"push_limit"`
	PullLimit         int           `yaml:"pull_limit"`
	// DeadLetterAfter 0 означает бесконечные повторы
	DeadLetterAfter int  `yaml:"dead_letter_after"`
	CompactLedger   bool `yaml:"compact_ledger"`
	RunOnStart      bool `yaml:"run_on_start"`
}

// RetryConfig mirrors retry.Policy
type RetryConfig struct {
	BaseDelay  time.Duration `yaml:"base_delay"`
	MaxDelay   time.Duration `yaml:"max_delay"`
	Multiplier float64       `yaml:"multiplier"`
	MaxRetries int           `yaml:"max_retries"`
	Jitter     bool          `yaml:"jitter"`
}

// LogConfig selects level and handler
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration
func Default() *Config {
	p := retry.DefaultPolicy()
	return &Config{
		Remote: RemoteConfig{
			BaseURL: "http://localhost:8080",
			Timeout: 30 * time.Second,
		},
		Store: StoreConfig{
			Path:     "finsync.db",
			AuthPath: "finsync-auth.db",
		},
		Sync: SyncConfig{
			Interval:          15 * time.Minute,
			RecurringInterval: 60 * time.Minute,
			PushLimit:         100,
			PullLimit:         50,
			RunOnStart:        true,
		},
		Retry: RetryConfig{
			BaseDelay:  p.BaseDelay,
			MaxDelay:   p.MaxDelay,
			Multiplier: p.Multiplier,
			MaxRetries: p.MaxRetries,
			Jitter:     p.Jitter,
		},
		Log: LogConfig{
			Level:  "info",
			Format: logging.FormatText,
		},
	}
}

// Load reads and validates the configuration.
func Load(path, envFile string) (*Config, error) {
	cfg, err := Read(path, envFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read builds the configuration without validating it, so callers can
// apply flag overrides first. path may be empty; a missing .env is not an
// error, a missing explicit path is.
func Read(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Remote.BaseURL, "BASE_URL")
	setString(&c.Remote.Project, "PROJECT")
	setString(&c.Store.Path, "DB")
	setString(&c.Store.AuthPath, "AUTH_DB")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")

	durations := []struct {
		dst *time.Duration
		key string
	}{
		{&c.Remote.Timeout, "TIMEOUT"},
		{&c.Sync.Interval, "SYNC_INTERVAL"},
		{&c.Sync.RecurringInterval, "RECURRING_INTERVAL"},
		{&c.Retry.BaseDelay, "RETRY_BASE_DELAY"},
		{&c.Retry.MaxDelay, "RETRY_MAX_DELAY"},
	}
	for _, d := range durations {
		if err := setDuration(d.dst, d.key); err != nil {
			return err
		}
	}

	ints := []struct {
		dst *int
		key string
	}{
		{&c.Sync.PushLimit, "PUSH_LIMIT"},
		{&c.Sync.PullLimit, "PULL_LIMIT"},
		{&c.Sync.DeadLetterAfter, "DEAD_LETTER_AFTER"},
		{&c.Retry.MaxRetries, "RETRY_MAX_RETRIES"},
	}
	for _, i := range ints {
		if err := setInt(i.dst, i.key); err != nil {
			return err
		}
	}

	if err := setBool(&c.Sync.CompactLedger, "COMPACT_LEDGER"); err != nil {
		return err
	}
	return setBool(&c.Retry.Jitter, "RETRY_JITTER")
}

// Validate checks required fields and ranges
func (c *Config) Validate() error {
	if c.Remote.BaseURL == "" {
		return errors.New("remote.base_url is required")
	}
	if c.Remote.Project == "" {
		return errors.New("remote.project is required")
	}
	if c.Store.Path == "" {
		return errors.New("store.path is required")
	}
	if c.Store.AuthPath == "" {
		return errors.New("store.auth_path is required")
	}
	if c.Sync.Interval <= 0 || c.Sync.RecurringInterval <= 0 {
		return errors.New("sync intervals must be positive")
	}
	if c.Sync.PushLimit <= 0 || c.Sync.PullLimit <= 0 {
		return errors.New("sync limits must be positive")
	}
	if c.Sync.DeadLetterAfter < 0 {
		return errors.New("sync.dead_letter_after must not be negative")
	}
	if err := c.RetryPolicy().Validate(); err != nil {
		return fmt.Errorf("invalid retry policy: %w", err)
	}
	if _, err := logging.New(logging.Options{Level: c.Log.Level, Format: c.Log.Format}); err != nil {
		return fmt.Errorf("invalid log settings: %w", err)
	}
	return nil
}

// RetryPolicy converts the retry section
func (c *Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		BaseDelay:  c.Retry.BaseDelay,
		MaxDelay:   c.Retry.MaxDelay,
		Multiplier: c.Retry.Multiplier,
		MaxRetries: c.Retry.MaxRetries,
		Jitter:     c.Retry.Jitter,
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(EnvPrefix + key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s%s format: %w", EnvPrefix, key, err)
	}
	*dst = d
	return nil
}

func setInt(dst *int, key string) error {
	v := os.Getenv(EnvPrefix + key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(EnvPrefix + key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
	}
	*dst = b
	return nil
}
