package shared

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// UnifiedConfiguration holds the tuning parameters of the engine and its HTTP surface
type UnifiedConfiguration struct {
	Service ServiceConfig `yaml:"service" json:"service"`
	Beacon  BeaconConfig  `yaml:"beacon" json:"beacon"`
	Batch   BatchConfig   `yaml:"batch" json:"batch"`
	Cache   CacheConfig   `yaml:"cache" json:"cache"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ServiceConfig holds backend client configuration
type ServiceConfig struct {
	BaseURL string `yaml:"base_url" json:"base_url"`
	// HTTPRequestTimeout applies to snapshot reads; negative means no deadline
	HTTPRequestTimeout time.Duration `yaml:"http_timeout" json:"http_timeout"`
	// CheckTimeout applies to allotment checks; zero keeps the transport default (none)
	CheckTimeout     time.Duration `yaml:"check_timeout" json:"check_timeout"`
	RequestRateLimit time.Duration `yaml:"rate_limit" json:"rate_limit"`
	MaxRetryAttempts int           `yaml:"max_retries" json:"max_retries"`
	RetryBackoff     time.Duration `yaml:"retry_backoff" json:"retry_backoff"`
}

// BeaconConfig holds the fire-and-forget reporter configuration
type BeaconConfig struct {
	QueueSize int           `yaml:"queue_size" json:"queue_size"`
	Workers   int           `yaml:"workers" json:"workers"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
}

// BatchConfig holds snapshot refresh configuration
type BatchConfig struct {
	MaxConcurrency  int    `yaml:"max_concurrency" json:"max_concurrency"`
	RefreshSchedule string `yaml:"refresh_schedule" json:"refresh_schedule"`
	CleanupSchedule string `yaml:"cleanup_schedule" json:"cleanup_schedule"`
}

// CacheConfig holds snapshot cache configuration
type CacheConfig struct {
	DefaultTTL time.Duration `yaml:"default_ttl" json:"default_ttl"`
	MaxSize    int           `yaml:"max_size" json:"max_size"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" json:"level"`
	Format      string `yaml:"format" json:"format"`
	ServiceName string `yaml:"service_name" json:"service_name"`
}

// NewDefaultUnifiedConfiguration returns production-ready default configuration
func NewDefaultUnifiedConfiguration() *UnifiedConfiguration {
	return &UnifiedConfiguration{
		Service: ServiceConfig{
			BaseURL:            "http://localhost:3000/api",
			HTTPRequestTimeout: 30 * time.Second,
			RequestRateLimit:   0,
			MaxRetryAttempts:   2,
			RetryBackoff:       500 * time.Millisecond,
		},
		Beacon: BeaconConfig{
			QueueSize: 256,
			Workers:   2,
			Timeout:   10 * time.Second,
		},
		Batch: BatchConfig{
			MaxConcurrency:  5,
			RefreshSchedule: "@every 5m",
			CleanupSchedule: "@every 30m",
		},
		Cache: CacheConfig{
			DefaultTTL: 5 * time.Minute,
			MaxSize:    1000,
		},
		Logging: LoggingConfig{
			Level:       "info",
			Format:      "text",
			ServiceName: "ipo-insights",
		},
	}
}

// ValidateAndApplyDefaults validates configuration and applies defaults for invalid values
func (c *UnifiedConfiguration) ValidateAndApplyDefaults() {
	logger := logrus.WithField("component", "UnifiedConfiguration")
	defaults := NewDefaultUnifiedConfiguration()

	if c.Service.BaseURL == "" {
		c.Service.BaseURL = defaults.Service.BaseURL
		logger.Debug("Applied default Service.BaseURL")
	}

	if c.Service.HTTPRequestTimeout == 0 {
		c.Service.HTTPRequestTimeout = defaults.Service.HTTPRequestTimeout
		logger.Debug("Applied default Service.HTTPRequestTimeout")
	}

	if c.Service.CheckTimeout < 0 {
		c.Service.CheckTimeout = 0
	}

	if c.Service.RequestRateLimit < 0 {
		c.Service.RequestRateLimit = 0
	}

	if c.Service.MaxRetryAttempts < 0 {
		c.Service.MaxRetryAttempts = defaults.Service.MaxRetryAttempts
		logger.Debug("Applied default Service.MaxRetryAttempts")
	}

	if c.Service.RetryBackoff <= 0 {
		c.Service.RetryBackoff = defaults.Service.RetryBackoff
		logger.Debug("Applied default Service.RetryBackoff")
	}

	if c.Beacon.QueueSize <= 0 {
		c.Beacon.QueueSize = defaults.Beacon.QueueSize
		logger.Debug("Applied default Beacon.QueueSize")
	}

	if c.Beacon.Workers <= 0 {
		c.Beacon.Workers = defaults.Beacon.Workers
		logger.Debug("Applied default Beacon.Workers")
	}

	if c.Beacon.Timeout <= 0 {
		c.Beacon.Timeout = defaults.Beacon.Timeout
		logger.Debug("Applied default Beacon.Timeout")
	}

	if c.Batch.MaxConcurrency <= 0 {
		c.Batch.MaxConcurrency = defaults.Batch.MaxConcurrency
		logger.Debug("Applied default Batch.MaxConcurrency")
	}

	if c.Batch.RefreshSchedule == "" {
		c.Batch.RefreshSchedule = defaults.Batch.RefreshSchedule
	}

	if c.Batch.CleanupSchedule == "" {
		c.Batch.CleanupSchedule = defaults.Batch.CleanupSchedule
	}

	if c.Cache.DefaultTTL <= 0 {
		c.Cache.DefaultTTL = defaults.Cache.DefaultTTL
		logger.Debug("Applied default Cache.DefaultTTL")
	}

	if c.Cache.MaxSize <= 0 {
		c.Cache.MaxSize = defaults.Cache.MaxSize
		logger.Debug("Applied default Cache.MaxSize")
	}

	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}

	if c.Logging.Format == "" {
		c.Logging.Format = defaults.Logging.Format
	}

	if c.Logging.ServiceName == "" {
		c.Logging.ServiceName = defaults.Logging.ServiceName
	}
}

// LoadFromYAML overlays YAML data on the configuration and re-applies defaults
func (c *UnifiedConfiguration) LoadFromYAML(data []byte) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	c.ValidateAndApplyDefaults()
	return nil
}

// LoadFromFile reads a YAML tuning file
func (c *UnifiedConfiguration) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read configuration file %s: %w", path, err)
	}
	return c.LoadFromYAML(data)
}

// ToYAML serializes the configuration
func (c *UnifiedConfiguration) ToYAML() ([]byte, error) {
	return yaml.Marshal(c)
}
