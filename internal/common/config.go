package common

import (
	"os"
	"strconv"
	"time"
)

// DefaultBaseURL is the hardcoded development fallback for the backend.
const DefaultBaseURL = "http://localhost:5000"

// Config holds all application configuration
type Config struct {
	Backend BackendConfig
	Cache   CacheConfig
}

// BackendConfig holds backend REST client configuration
type BackendConfig struct {
	BaseURL        string
	RequestTimeout time.Duration // JSON requests (save, laporan, delete)
	UploadTimeout  time.Duration // multipart process uploads
}

// CacheConfig holds local session cache configuration
type CacheConfig struct {
	Dir     string
	Enabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL:        getEnv("FAKTUR_API_URL", DefaultBaseURL),
			RequestTimeout: getEnvAsDuration("FAKTUR_REQUEST_TIMEOUT", 20*time.Second),
			UploadTimeout:  getEnvAsDuration("FAKTUR_UPLOAD_TIMEOUT", 300*time.Second),
		},
		Cache: CacheConfig{
			Dir:     getEnv("FAKTUR_CACHE_DIR", ""),
			Enabled: getEnvAsBool("FAKTUR_CACHE_ENABLED", true),
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
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// ValidateConfig validates the loaded configuration
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return NewAppError("CONFIG_ERROR", "FAKTUR_API_URL is required", ErrInvalidInput)
	}
	if c.Backend.RequestTimeout <= 0 || c.Backend.UploadTimeout <= 0 {
		return NewAppError("CONFIG_ERROR", "timeouts must be positive", ErrInvalidInput)
	}
	return nil
}
