package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"gate-validator/utils"
)

type Config struct {
	// Server configuration
	Port        string
	Environment string

	// Redis configuration (local cache persistence)
	RedisURL string

	// Ticket store configuration
	StoreDSN     string
	StoreTimeout time.Duration

	// Device identity
	DeviceID string

	// Sync configuration
	SyncInterval  time.Duration
	ProbeInterval time.Duration

	// Write-through backoff
	WriteThroughBaseDelay time.Duration
	WriteThroughMaxDelay  time.Duration

	// Monitoring
	EnableMetrics bool
	MetricsPort   string
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	return &Config{
		// Server
		Port:        getEnv("PORT", "8091"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// Redis
		RedisURL: getEnv("REDIS_URL", "localhost:6379"),

		// Ticket store
		StoreDSN:     getEnv("STORE_DSN", "postgres://localhost:5432/tickets?sslmode=disable"),
		StoreTimeout: getEnvAsDuration("STORE_TIMEOUT", "10s"),

		// Device
		DeviceID: getEnv("DEVICE_ID", defaultDeviceID()),

		// Sync
		SyncInterval:  getEnvAsDuration("SYNC_INTERVAL", "2m"),
		ProbeInterval: getEnvAsDuration("PROBE_INTERVAL", "15s"),

		// Write-through backoff
		WriteThroughBaseDelay: getEnvAsDuration("WRITE_THROUGH_BASE_DELAY", "2s"),
		WriteThroughMaxDelay:  getEnvAsDuration("WRITE_THROUGH_MAX_DELAY", "1m"),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
		MetricsPort:   getEnv("METRICS_PORT", "9090"),
	}
}

// defaultDeviceID falls back to the hostname so the cache key stays
// stable across restarts on an unconfigured device.
func defaultDeviceID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return utils.GenerateDeviceID()
	}
	return "gate-" + host
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
