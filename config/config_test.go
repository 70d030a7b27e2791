package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fenilmodi00/ipo-insights/shared"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCacheTTL(t *testing.T) {
	assert.Equal(t, 5*time.Minute, (&Config{}).GetCacheTTL())
	assert.Equal(t, 12*time.Minute, (&Config{CacheTTLMinutes: "12"}).GetCacheTTL())
	assert.Equal(t, 5*time.Minute, (&Config{CacheTTLMinutes: "-1"}).GetCacheTTL())
	assert.Equal(t, 5*time.Minute, (&Config{CacheTTLMinutes: "soon"}).GetCacheTTL())
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.example/api")
	t.Setenv("ADMIN_TOKEN", "secret")
	t.Setenv("MARKET_TIMEZONE", "Asia/Kolkata")

	cfg := LoadConfig()
	assert.Equal(t, "https://api.example/api", cfg.APIBaseURL)
	assert.Equal(t, "secret", cfg.AdminToken)
	assert.Equal(t, "Asia/Kolkata", cfg.MarketTimezone)
}

func TestEngineLayersYAMLAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
service:
  base_url: https://from-yaml.example
  check_timeout: 20s
cache:
  default_ttl: 2m
batch:
  max_concurrency: 9
logging:
  level: debug
`), 0o600))

	cfg := &Config{
		APIBaseURL:   "https://from-env.example",
		EngineConfig: path,
	}

	engine, err := cfg.Engine()
	require.NoError(t, err)

	assert.Equal(t, "https://from-env.example", engine.Service.BaseURL)
	assert.Equal(t, 20*time.Second, engine.Service.CheckTimeout)
	assert.Equal(t, 9, engine.Batch.MaxConcurrency)
	assert.Equal(t, "debug", engine.Logging.Level)

	// without CACHE_TTL_MINUTES in the environment the file wins
	if _, set := os.LookupEnv("CACHE_TTL_MINUTES"); !set {
		assert.Equal(t, 2*time.Minute, engine.Cache.DefaultTTL)
	}
}

func TestEngineMissingFile(t *testing.T) {
	_, err := (&Config{EngineConfig: filepath.Join(t.TempDir(), "nope.yaml")}).Engine()
	assert.Error(t, err)
}

func TestSetupLogging(t *testing.T) {
	defer logrus.SetLevel(logrus.InfoLevel)
	defer logrus.SetFormatter(&logrus.TextFormatter{})

	SetupLogging(shared.LoggingConfig{Level: "debug", Format: "json"})
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	_, isJSON := logrus.StandardLogger().Formatter.(*logrus.JSONFormatter)
	assert.True(t, isJSON)

	SetupLogging(shared.LoggingConfig{Level: "verbose", Format: "text"})
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
}
