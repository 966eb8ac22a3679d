// Package config reads runtime settings from the environment.
package config

import (
	"os"
	"strconv"
)

type Config struct {
	LogLevel     string
	CatalogPath  string // JSON catalog override, empty for the built-in tables
	HistoryDSN   string // sqlite DSN, empty disables history
	HistoryLimit int
	MetricsAddr  string // e.g. ":9464", empty disables the metrics endpoint
}

func Load() *Config {
	return &Config{
		LogLevel:     getEnv("AREA_MCP_LOG_LEVEL", "info"),
		CatalogPath:  getEnv("AREA_MCP_CATALOG", ""),
		HistoryDSN:   getEnv("AREA_MCP_HISTORY_DB", ""),
		HistoryLimit: getEnvAsInt("AREA_MCP_HISTORY_LIMIT", 20),
		MetricsAddr:  getEnv("AREA_MCP_METRICS_ADDR", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
