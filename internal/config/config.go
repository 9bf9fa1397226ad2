// Package config loads linkpulse configuration from YAML with environment
// variable overrides.
package config

import (
	"fmt"
	"time"
)

// Default configuration values.
const (
	defaultServiceName = "linkpulse"
	defaultVersion     = "0.1.0"
	defaultServicePort = 8095

	defaultDBHost    = "localhost"
	defaultDBPort    = 5432
	defaultDBUser    = "postgres"
	defaultDBName    = "linkpulse"
	defaultDBSSLMode = "disable"

	defaultURLsTable   = "urls"
	defaultClicksTable = "clicks"
	defaultTrendsTable = "trends"

	defaultModel      = "claude-3-5-haiku-latest"
	defaultLLMTimeout = 60 * time.Second

	defaultClassifyLimit    = 50
	defaultClassifyBatch    = 15
	defaultClassifyInterval = 5 * time.Minute

	defaultTrendPeriod   = "1h"
	defaultTrendInterval = time.Hour

	defaultLogLevel  = "info"
	defaultLogFormat = "json"
)

// Config holds the application configuration.
type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Database DatabaseConfig `yaml:"database"`
	Tables   TablesConfig   `yaml:"tables"`
	LLM      LLMConfig      `yaml:"llm"`
	Classify ClassifyConfig `yaml:"classification"`
	Trends   TrendsConfig   `yaml:"trends"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Port    int    `env:"LINKPULSE_PORT" yaml:"port"`
	Debug   bool   `env:"APP_DEBUG"      yaml:"debug"`
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string `env:"POSTGRES_HOST"     yaml:"host"`
	Port     int    `env:"POSTGRES_PORT"     yaml:"port"`
	User     string `env:"POSTGRES_USER"     yaml:"user"`
	Password string `env:"POSTGRES_PASSWORD" yaml:"password"`
	Database string `env:"POSTGRES_DB"       yaml:"database"`
	SSLMode  string `env:"POSTGRES_SSLMODE"  yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// TablesConfig holds the configurable table names.
type TablesConfig struct {
	URLs   string `env:"URLS_TABLE"   yaml:"urls"`
	Clicks string `env:"CLICKS_TABLE" yaml:"clicks"`
	Trends string `env:"TRENDS_TABLE" yaml:"trends"`
}

// LLMConfig holds completion API configuration. An empty APIKey degrades
// the model classifier and summarizer to their fallback paths instead of
// failing runs.
type LLMConfig struct {
	APIKey  string        `env:"ANTHROPIC_API_KEY" yaml:"api_key"`
	Model   string        `env:"LLM_MODEL"         yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// ClassifyConfig holds classification run configuration.
type ClassifyConfig struct {
	Limit     int           `env:"CLASSIFY_LIMIT" yaml:"limit"`
	BatchSize int           `env:"LLM_BATCH_SIZE" yaml:"batch_size"`
	Interval  time.Duration `yaml:"interval"`
}

// TrendsConfig holds trend run configuration.
type TrendsConfig struct {
	DefaultPeriod string        `env:"DEFAULT_PERIOD" yaml:"default_period"`
	Interval      time.Duration `yaml:"interval"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL"  yaml:"level"`
	Format string `env:"LOG_FORMAT" yaml:"format"`
}

// Load loads configuration from the specified path.
func Load(path string) (*Config, error) {
	return load(path)
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	svc := &cfg.Service
	if svc.Name == "" {
		svc.Name = defaultServiceName
	}
	if svc.Version == "" {
		svc.Version = defaultVersion
	}
	if svc.Port == 0 {
		svc.Port = defaultServicePort
	}

	db := &cfg.Database
	if db.Host == "" {
		db.Host = defaultDBHost
	}
	if db.Port == 0 {
		db.Port = defaultDBPort
	}
	if db.User == "" {
		db.User = defaultDBUser
	}
	if db.Database == "" {
		db.Database = defaultDBName
	}
	if db.SSLMode == "" {
		db.SSLMode = defaultDBSSLMode
	}

	tables := &cfg.Tables
	if tables.URLs == "" {
		tables.URLs = defaultURLsTable
	}
	if tables.Clicks == "" {
		tables.Clicks = defaultClicksTable
	}
	if tables.Trends == "" {
		tables.Trends = defaultTrendsTable
	}

	if cfg.LLM.Model == "" {
		cfg.LLM.Model = defaultModel
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = defaultLLMTimeout
	}

	classify := &cfg.Classify
	if classify.Limit == 0 {
		classify.Limit = defaultClassifyLimit
	}
	if classify.BatchSize == 0 {
		classify.BatchSize = defaultClassifyBatch
	}
	if classify.Interval == 0 {
		classify.Interval = defaultClassifyInterval
	}

	trends := &cfg.Trends
	if trends.DefaultPeriod == "" {
		trends.DefaultPeriod = defaultTrendPeriod
	}
	if trends.Interval == 0 {
		trends.Interval = defaultTrendInterval
	}

	logging := &cfg.Logging
	if logging.Level == "" {
		logging.Level = defaultLogLevel
	}
	if logging.Format == "" {
		logging.Format = defaultLogFormat
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return fmt.Errorf("service.port: must be between 1 and 65535, got %d", c.Service.Port)
	}
	if c.Classify.Limit < 1 {
		return fmt.Errorf("classification.limit: must be positive, got %d", c.Classify.Limit)
	}
	if c.Classify.BatchSize < 1 {
		return fmt.Errorf("classification.batch_size: must be positive, got %d", c.Classify.BatchSize)
	}
	if c.Trends.DefaultPeriod == "" {
		return fmt.Errorf("trends.default_period: is required")
	}
	return nil
}
