package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	LLM      LLMConfig
	Extract  ExtractConfig
	LogLevel string
}

// DatabaseConfig holds extraction-history storage configuration
type DatabaseConfig struct {
	Driver          string // sqlite | postgres | none
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// ServerConfig holds listener addresses and upload limits
type ServerConfig struct {
	HTTPAddr     string
	GRPCAddr     string
	MaxUploadMB  int64
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// LLMConfig holds provider configuration
type LLMConfig struct {
	Provider    string // http | sdk
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float64
	Timeout     time.Duration
}

// ExtractConfig holds extraction behaviour
type ExtractConfig struct {
	Mode       string // tool | prompt
	SchemaFile string
	MaxPages   int
	Workers    int
	QueueSize  int
}

// LoadDotEnv loads variables from .env files when present. Variables already set in
// the process environment win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Database: DatabaseConfig{
			Driver:          strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
			DSN:             getEnv("DB_URL", "file:docextract.db?_pragma=busy_timeout(5000)"),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Server: ServerConfig{
			HTTPAddr:     getEnv("HTTP_ADDR", ":8000"),
			GRPCAddr:     getEnv("GRPC_ADDR", ":8081"),
			MaxUploadMB:  int64(getEnvAsInt("MAX_UPLOAD_MB", 20)),
			ReadTimeout:  getEnvAsDuration("HTTP_READ_TIMEOUT", 60*time.Second),
			WriteTimeout: getEnvAsDuration("HTTP_WRITE_TIMEOUT", 90*time.Second),
		},
		LLM: LLMConfig{
			Provider:    strings.ToLower(getEnv("LLM_PROVIDER", "http")),
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", ""),
			Temperature: getEnvAsFloat64("OPENAI_TEMPERATURE", 0.7),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 30*time.Second),
		},
		Extract: ExtractConfig{
			Mode:       strings.ToLower(getEnv("EXTRACT_MODE", "tool")),
			SchemaFile: getEnv("SCHEMA_FILE", ""),
			MaxPages:   getEnvAsInt("MAX_PAGES", 0),
			Workers:    getEnvAsInt("BATCH_WORKERS", 4),
			QueueSize:  getEnvAsInt("BATCH_QUEUE_SIZE", 64),
		},
	}
}

// Helper functions for environment variable parsing
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

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks the loaded configuration. The API key is not checked here; a
// missing key surfaces as a configuration error when the provider is built.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
		if c.Database.DSN == "" {
			return NewAppError(CodeConfig, "DB_URL is required", ErrInvalidInput)
		}
	case "none":
	default:
		return NewAppError(CodeConfig, fmt.Sprintf("unknown DB_DRIVER %q", c.Database.Driver), ErrInvalidInput)
	}
	switch c.LLM.Provider {
	case "http", "sdk":
	default:
		return NewAppError(CodeConfig, fmt.Sprintf("unknown LLM_PROVIDER %q", c.LLM.Provider), ErrInvalidInput)
	}
	switch c.Extract.Mode {
	case "tool", "prompt":
	default:
		return NewAppError(CodeConfig, fmt.Sprintf("unknown EXTRACT_MODE %q", c.Extract.Mode), ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError(CodeConfig, "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Server.MaxUploadMB <= 0 {
		return NewAppError(CodeConfig, "MAX_UPLOAD_MB must be positive", ErrInvalidInput)
	}
	if c.LLM.Timeout <= 0 {
		return NewAppError(CodeConfig, "OPENAI_TIMEOUT must be positive", ErrInvalidInput)
	}
	return nil
}
