package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fenilmodi00/ipo-insights/shared"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	ServerPort      string
	APIBaseURL      string
	AdminToken      string
	CacheTTLMinutes string
	LogLevel        string
	LogFormat       string
	MarketTimezone  string
	EngineConfig    string
}

// GetCacheTTL returns the snapshot cache TTL from environment or default
func (c *Config) GetCacheTTL() time.Duration {
	if c.CacheTTLMinutes == "" {
		return 5 * time.Minute
	}

	minutes, err := strconv.Atoi(c.CacheTTLMinutes)
	if err != nil || minutes <= 0 {
		logrus.Warnf("Invalid CACHE_TTL_MINUTES value: %s, using default 5 minutes", c.CacheTTLMinutes)
		return 5 * time.Minute
	}

	return time.Duration(minutes) * time.Minute
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		logrus.Debug("No .env file loaded, using system environment variables")
	}

	return &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		APIBaseURL:      getEnv("API_BASE_URL", "http://localhost:3000/api"),
		AdminToken:      getEnv("ADMIN_TOKEN", ""),
		CacheTTLMinutes: getEnv("CACHE_TTL_MINUTES", "5"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "text"),
		MarketTimezone:  getEnv("MARKET_TIMEZONE", "Asia/Kolkata"),
		EngineConfig:    getEnv("ENGINE_CONFIG_FILE", ""),
	}
}

// Engine builds the tuning configuration: defaults, then the YAML file when
// configured, then environment overrides.
func (c *Config) Engine() (*shared.UnifiedConfiguration, error) {
	engine := shared.NewDefaultUnifiedConfiguration()
	if c.EngineConfig != "" {
		if err := engine.LoadFromFile(c.EngineConfig); err != nil {
			return nil, err
		}
	}

	if c.APIBaseURL != "" {
		engine.Service.BaseURL = c.APIBaseURL
	}
	if _, set := os.LookupEnv("CACHE_TTL_MINUTES"); set || c.EngineConfig == "" {
		engine.Cache.DefaultTTL = c.GetCacheTTL()
	}
	if c.LogLevel != "" {
		engine.Logging.Level = c.LogLevel
	}
	if c.LogFormat != "" {
		engine.Logging.Format = c.LogFormat
	}

	engine.ValidateAndApplyDefaults()
	return engine, nil
}

// SetupLogging configures the global logrus logger
func SetupLogging(cfg shared.LoggingConfig) {
	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if strings.EqualFold(cfg.Format, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
