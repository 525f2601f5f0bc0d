// Package config loads the hwalias daemon configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/k8snetworkplumbingwg/hwalias/pkg/alias"
	"github.com/k8snetworkplumbingwg/hwalias/pkg/utils"
	"github.com/tailscale/hujson"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/yaml"
)

const (
	// DefaultStoragePath is the default location of the storage image.
	DefaultStoragePath = "/var/lib/hwalias/nvram.img"
	// DefaultMetricsAddress is the default listen address of the metrics endpoint.
	DefaultMetricsAddress = ":9091"
	// DefaultLockTimeout is how long opening a store waits for another owner
	// of the image to let go.
	DefaultLockTimeout = time.Second
	// DefaultSyncInterval is the default period between local interface imports.
	DefaultSyncInterval = 30 * time.Second
	// MaxCapacity is the largest configurable table capacity.
	MaxCapacity = 255
)

// ErrInvalidConfig is wrapped by every configuration error.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the daemon configuration
type Config struct {
	Storage  StorageConfig `json:"storage"`
	Capacity int           `json:"capacity"`
	Metrics  MetricsConfig `json:"metrics"`
	Sync     SyncConfig    `json:"sync"`
	Retry    RetryConfig   `json:"retry"`
}

// StorageConfig locates the alias table block
type StorageConfig struct {
	Path        string          `json:"path"`
	Offset      int64           `json:"offset"`
	LockTimeout metav1.Duration `json:"lockTimeout"`
}

// MetricsConfig configures the Prometheus endpoint
type MetricsConfig struct {
	Address string `json:"address"`
}

// SyncConfig configures the periodic import of local interfaces
type SyncConfig struct {
	Enabled  bool            `json:"enabled"`
	Interval metav1.Duration `json:"interval"`
}

// RetryConfig configures retries of transient storage errors
type RetryConfig struct {
	MaxAttempts int             `json:"maxAttempts"`
	BackoffBase metav1.Duration `json:"backoffBase"`
	MaxBackoff  metav1.Duration `json:"maxBackoff"`
}

// Default returns the default configuration
func Default() *Config {
	retry := utils.DefaultRetryConfig()
	return &Config{
		Storage: StorageConfig{
			Path:        DefaultStoragePath,
			LockTimeout: metav1.Duration{Duration: DefaultLockTimeout},
		},
		Capacity: alias.MaxAliasNum,
		Metrics:  MetricsConfig{Address: DefaultMetricsAddress},
		Sync: SyncConfig{
			Enabled:  true,
			Interval: metav1.Duration{Duration: DefaultSyncInterval},
		},
		Retry: RetryConfig{
			MaxAttempts: retry.MaxAttempts,
			BackoffBase: metav1.Duration{Duration: retry.BackoffBase},
			MaxBackoff:  metav1.Duration{Duration: retry.MaxBackoff},
		},
	}
}

// Load reads a YAML, JSON or JSONC configuration file. Fields missing from
// the file keep their defaults.
func Load(path string) (*Config, error) {
	// Expand home directory
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is intentionally user-controlled
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes configuration data. ext selects the format: ".json" and
// ".jsonc" are standardized from JSONC first, anything else is YAML.
func Parse(data []byte, ext string) (*Config, error) {
	switch strings.ToLower(ext) {
	case ".json", ".jsonc":
		standardized, err := hujson.Standardize(data)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid JSONC: %v", ErrInvalidConfig, err)
		}
		data = standardized
	}

	cfg := Default()
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field ranges
func (c *Config) Validate() error {
	var errs []error
	if c.Storage.Path == "" {
		errs = append(errs, errors.New("storage.path must not be empty"))
	}
	if c.Storage.Offset < 0 {
		errs = append(errs, fmt.Errorf("storage.offset must not be negative, got %d", c.Storage.Offset))
	}
	if c.Storage.LockTimeout.Duration < 0 {
		errs = append(errs, fmt.Errorf("storage.lockTimeout must not be negative, got %s", c.Storage.LockTimeout.Duration))
	}
	if c.Capacity < 1 || c.Capacity > MaxCapacity {
		errs = append(errs, fmt.Errorf("capacity must be in [1, %d], got %d", MaxCapacity, c.Capacity))
	}
	if c.Sync.Enabled && c.Sync.Interval.Duration <= 0 {
		errs = append(errs, fmt.Errorf("sync.interval must be positive, got %s", c.Sync.Interval.Duration))
	}
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("retry.maxAttempts must be at least 1, got %d", c.Retry.MaxAttempts))
	}
	if c.Retry.BackoffBase.Duration < 0 || c.Retry.MaxBackoff.Duration < c.Retry.BackoffBase.Duration {
		errs = append(errs, errors.New("retry backoff must satisfy 0 <= backoffBase <= maxBackoff"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// RetryPolicy converts the retry settings for the storage layer.
func (c *Config) RetryPolicy() utils.RetryConfig {
	return utils.RetryConfig{
		MaxAttempts: c.Retry.MaxAttempts,
		BackoffBase: c.Retry.BackoffBase.Duration,
		MaxBackoff:  c.Retry.MaxBackoff.Duration,
	}
}
