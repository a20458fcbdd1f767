package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig
	Stedi       StediConfig
	Eligibility EligibilityConfig
	Catalog     CatalogConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	OTEL        OTELConfig
	Log         LogConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

// StediConfig holds the upstream eligibility API configuration.
// It is read once at startup and never mutated afterwards.
type StediConfig struct {
	APIKey    string
	BaseURL   string
	PayerID   string
	Timeout   time.Duration
	RateLimit float64
	RateBurst int
	MockMode  bool
}

// EligibilityConfig holds aggregation engine tuning
type EligibilityConfig struct {
	MaxConcurrency int
}

// CatalogConfig holds procedure catalog source configuration
type CatalogConfig struct {
	Source string // "file" or "postgres"
	Path   string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// LogConfig holds logger configuration
type LogConfig struct {
	Env   string
	Level string
}

const (
	CatalogSourceFile     = "file"
	CatalogSourcePostgres = "postgres"

	DefaultStediBaseURL = "https://healthcare.us.stedi.com/2024-04-01/change/medicalnetwork"
	DefaultStediPayerID = "62308"
)

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
		},
		Stedi: StediConfig{
			APIKey:    getEnv("STEDI_API_KEY", ""),
			BaseURL:   getEnv("STEDI_BASE_URL", DefaultStediBaseURL),
			PayerID:   getEnv("STEDI_PAYER_ID", DefaultStediPayerID),
			Timeout:   getEnvAsDuration("STEDI_TIMEOUT", 15*time.Second),
			RateLimit: getEnvAsFloat("STEDI_RATE_LIMIT", 10),
			RateBurst: getEnvAsInt("STEDI_RATE_BURST", 10),
			MockMode:  getEnvAsBool("STEDI_MOCK_MODE", false),
		},
		Eligibility: EligibilityConfig{
			MaxConcurrency: getEnvAsInt("ELIGIBILITY_MAX_CONCURRENCY", 4),
		},
		Catalog: CatalogConfig{
			Source: strings.ToLower(getEnv("CATALOG_SOURCE", CatalogSourceFile)),
			Path:   getEnv("CATALOG_PATH", "data/dental_cdt_codes.json"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "pm_bdm"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "pm-bdm-eligibility"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		Log: LogConfig{
			Env:   getEnv("APP_ENV", "development"),
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if cfg.Catalog.Source != CatalogSourceFile && cfg.Catalog.Source != CatalogSourcePostgres {
		return nil, fmt.Errorf("unsupported CATALOG_SOURCE %q", cfg.Catalog.Source)
	}
	if cfg.Eligibility.MaxConcurrency < 1 {
		cfg.Eligibility.MaxConcurrency = 1
	}

	return cfg, nil
}

// HasCredentials reports whether the upstream API key is configured
func (c *StediConfig) HasCredentials() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
