package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"erpdash/internal/logger"
)

type Config struct {
	// ERPNext Configuration
	ERPNextBaseURL  string
	ERPNextUser     string
	ERPNextPassword string
	VerifySSL       bool
	PageSize        int

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		ERPNextBaseURL:  strings.TrimRight(getEnv("ERPNEXT_BASE_URL", ""), "/"),
		ERPNextUser:     getEnv("ERPNEXT_USER", ""),
		ERPNextPassword: getEnv("ERPNEXT_PASSWORD", ""),
		VerifySSL:       getEnvBool("ERPNEXT_VERIFY_SSL", true),
		PageSize:        getEnvInt("ERPNEXT_PAGE_SIZE", 1000),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:   getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:       getEnv("LOG_OUTPUT", "stderr"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.ERPNextBaseURL == "" {
		return fmt.Errorf("ERPNEXT_BASE_URL is required")
	}
	if c.ERPNextUser == "" {
		return fmt.Errorf("ERPNEXT_USER is required")
	}
	if c.ERPNextPassword == "" {
		return fmt.Errorf("ERPNEXT_PASSWORD is required")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("ERPNEXT_PAGE_SIZE must be positive")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
