package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Ollama    OllamaConfig
	Leads     LeadsConfig
	Dashboard DashboardConfig
	Log       LogConfig
	OTEL      OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	SSEPort        int
	AllowedOrigins string
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
	Host     string
	Port     int
	Password string
	DB       int
}

// OllamaConfig holds the local text-generation backend configuration.
type OllamaConfig struct {
	BaseURL         string
	GenerateTimeout time.Duration
	WarmupTimeout   time.Duration
	RateLimitRPM    int
	RateLimitBurst  int
}

// LeadsConfig holds lead generation policy.
type LeadsConfig struct {
	// ProtectWorked skips regeneration when the existing lead has left the open status.
	ProtectWorked  bool
	MinLeadScore   float64
	BackfillModel  string
	BackfillWorker int
}

// DashboardConfig holds dashboard metrics settings
type DashboardConfig struct {
	CacheTTL time.Duration
}

// LogConfig holds logger settings
type LogConfig struct {
	Env   string
	Level string
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// DefaultOllamaBaseURL is used when OLLAMA_BASE_URL is unset.
const DefaultOllamaBaseURL = "http://localhost:11434"

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("BACKEND_PORT", 3001),
			SSEPort:        getEnvAsInt("SSE_PORT", 3002),
			AllowedOrigins: getEnv("ALLOWED_ORIGINS", "*"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "transcript_triage"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Ollama: OllamaConfig{
			BaseURL:         getEnv("OLLAMA_BASE_URL", DefaultOllamaBaseURL),
			GenerateTimeout: getEnvAsDuration("OLLAMA_GENERATE_TIMEOUT", 30*time.Second),
			WarmupTimeout:   getEnvAsDuration("OLLAMA_WARMUP_TIMEOUT", 60*time.Second),
			RateLimitRPM:    getEnvAsInt("OLLAMA_RATE_LIMIT_RPM", 120),
			RateLimitBurst:  getEnvAsInt("OLLAMA_RATE_LIMIT_BURST", 4),
		},
		Leads: LeadsConfig{
			ProtectWorked:  getEnvAsBool("LEADS_PROTECT_WORKED", false),
			MinLeadScore:   getEnvAsFloat("LEADS_MIN_SCORE", 0.2),
			BackfillModel:  getEnv("LEADS_BACKFILL_MODEL", "qwen2.5:1.5b"),
			BackfillWorker: getEnvAsInt("LEADS_BACKFILL_WORKERS", 2),
		},
		Dashboard: DashboardConfig{
			CacheTTL: getEnvAsDuration("DASHBOARD_CACHE_TTL", 30*time.Second),
		},
		Log: LogConfig{
			Env:   getEnv("APP_ENV", "development"),
			Level: getEnv("LOG_LEVEL", "info"),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "transcript-triage"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	if cfg.Ollama.GenerateTimeout <= 0 || cfg.Ollama.WarmupTimeout <= 0 {
		return nil, fmt.Errorf("ollama timeouts must be positive")
	}

	return cfg, nil
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
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

// getEnvAsDuration accepts Go duration strings ("45s") or bare milliseconds ("45000").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}
