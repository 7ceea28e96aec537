// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/mkarlis/riskfolio/internal/utils"
)

// Config holds application configuration.
type Config struct {
	DataDir  string // base directory for all databases, always absolute
	Port     int
	LogLevel string
	DevMode  bool

	// Risk analytics defaults, overridable per request where endpoints
	// accept parameters.
	MarketSymbol    string
	RiskFreeRate    float64
	ConfidenceLevel float64

	// Quote stream endpoint; empty disables the stream. When no symbols
	// are configured the stream follows the current holdings.
	QuoteStreamURL     string
	QuoteStreamSymbols []string
	// Historical index source; empty uses the public default.
	MarketDataURL string

	Backup *BackupConfig
}

// BackupConfig holds cloud backup settings. Backups are disabled when
// the bucket is empty.
type BackupConfig struct {
	Endpoint      string
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	RetentionDays int
}

// Load reads configuration from the environment, with a .env file as an
// optional source.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dataDir := getEnv("RISKFOLIO_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:            absDataDir,
		Port:               getEnvAsInt("PORT", 8001),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DevMode:            getEnvAsBool("DEV_MODE", false),
		MarketSymbol:       getEnv("MARKET_SYMBOL", "^GSPC"),
		RiskFreeRate:       getEnvAsFloat("RISK_FREE_RATE", 0.02),
		ConfidenceLevel:    getEnvAsFloat("CONFIDENCE_LEVEL", 0.05),
		QuoteStreamURL:     getEnv("QUOTE_STREAM_URL", ""),
		QuoteStreamSymbols: utils.ParseCSV(getEnv("QUOTE_STREAM_SYMBOLS", "")),
		MarketDataURL:      getEnv("MARKET_DATA_URL", ""),
		Backup: &BackupConfig{
			Endpoint:      getEnv("BACKUP_S3_ENDPOINT", ""),
			Region:        getEnv("BACKUP_S3_REGION", "auto"),
			Bucket:        getEnv("BACKUP_S3_BUCKET", ""),
			AccessKey:     getEnv("BACKUP_S3_ACCESS_KEY", ""),
			SecretKey:     getEnv("BACKUP_S3_SECRET_KEY", ""),
			RetentionDays: getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that configured values are usable.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.ConfidenceLevel <= 0 || c.ConfidenceLevel >= 1 {
		return fmt.Errorf("confidence level must be in (0, 1), got %v", c.ConfidenceLevel)
	}
	return nil
}

// BackupEnabled reports whether cloud backups are configured.
func (c *Config) BackupEnabled() bool {
	return c.Backup != nil && c.Backup.Bucket != ""
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
