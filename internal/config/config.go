package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Gemini AI
	GeminiAPIKey         string
	GeminiModel          string
	GeminiConcurrentReqs int
	UpstreamTimeout      time.Duration

	// Logging
	LogLevel string

	// Frontend
	FrontendURL string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                 getEnvOrDefault("PORT", "8080"),
		Env:                  getEnvOrDefault("ENV", "development"),
		GeminiAPIKey:         os.Getenv("GEMINI_API_KEY"),
		GeminiModel:          getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiConcurrentReqs: getEnvAsIntOrDefault("GEMINI_CONCURRENT_REQUESTS", 5),
		UpstreamTimeout:      getEnvAsDurationOrDefault("UPSTREAM_TIMEOUT", 60*time.Second),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		FrontendURL:          getEnvOrDefault("FRONTEND_URL", "*"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.GeminiAPIKey == "" {
		result = multierror.Append(result, fmt.Errorf("required environment variable GEMINI_API_KEY is not set"))
	}
	if c.GeminiConcurrentReqs < 1 {
		result = multierror.Append(result, fmt.Errorf("GEMINI_CONCURRENT_REQUESTS must be at least 1, got %d", c.GeminiConcurrentReqs))
	}
	if c.UpstreamTimeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("UPSTREAM_TIMEOUT must be positive, got %s", c.UpstreamTimeout))
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		result = multierror.Append(result, fmt.Errorf("PORT must be numeric, got %q", c.Port))
	}

	return result.ErrorOrNil()
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// WriteTimeout leaves room for the slowest upstream call plus encoding.
func (c *Config) WriteTimeout() time.Duration {
	return c.UpstreamTimeout + 10*time.Second
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
