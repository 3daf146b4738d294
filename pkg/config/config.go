// Package config loads application configuration from environment
// variables, with .env support for local development.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Paths   PathsConfig
	Report  ReportConfig
	Analyze AnalyzeConfig
}

type ServerConfig struct {
	Host               string
	Port               int
	RateLimitPerSecond int
	RateLimitBurst     int
	MetricsEnabled     bool
}

type PathsConfig struct {
	UploadsDir string
	DataDir    string
}

type ReportConfig struct {
	ResendAPIKey string
	FromEmail    string
}

type AnalyzeConfig struct {
	// CronSpec re-runs extraction on a schedule; empty disables the job.
	CronSpec string
}

// Load reads configuration from the environment, consulting a .env file
// when one is present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:               getEnv("SERVER_HOST", "localhost"),
			Port:               getEnvAsInt("SERVER_PORT", 8080),
			RateLimitPerSecond: getEnvAsInt("SERVER_RATE_LIMIT_PER_SECOND", 50),
			RateLimitBurst:     getEnvAsInt("SERVER_RATE_LIMIT_BURST", 100),
			MetricsEnabled:     getEnvAsBool("METRICS_ENABLED", true),
		},
		Paths: PathsConfig{
			UploadsDir: getEnv("UPLOADS_DIR", "./uploads"),
			DataDir:    getEnv("DATA_DIR", "./data"),
		},
		Report: ReportConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			FromEmail:    getEnv("FROM_EMAIL", "onboarding@resend.dev"),
		},
		Analyze: AnalyzeConfig{
			CronSpec: getEnv("ANALYZE_CRON", ""),
		},
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}
