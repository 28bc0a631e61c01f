package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// Local cache
	DataDir string

	// AWS / remote store configuration
	AWSRegion        string
	PatientsTable    string
	AttendanceTable  string
	PatientIndexName string

	// Sync engine
	SyncEnabled      bool
	SyncQueueSize    int
	SyncOpTimeout    time.Duration
	FeedPollInterval time.Duration

	// Logging and features
	LogLevel   string
	EnableCORS bool

	// Rate limiting
	RateLimitEnabled bool
	RateLimitBurst   int
	RateLimitRefill  time.Duration
}

// LoadConfig loads configuration from the environment, reading a .env file
// first when one exists
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		DataDir: getEnv("DATA_DIR", "./data"),

		AWSRegion:        getEnv("AWS_REGION", "us-west-2"),
		PatientsTable:    getEnv("PATIENTS_TABLE", "consultorio-patients"),
		AttendanceTable:  getEnv("ATTENDANCE_TABLE", "consultorio-attendance"),
		PatientIndexName: getEnv("PATIENT_INDEX_NAME", "patient_id-index"),

		SyncEnabled:      getEnvBool("SYNC_ENABLED", true),
		SyncQueueSize:    getEnvInt("SYNC_QUEUE_SIZE", 1024),
		SyncOpTimeout:    time.Duration(getEnvInt("SYNC_OP_TIMEOUT_MS", 10000)) * time.Millisecond,
		FeedPollInterval: time.Duration(getEnvInt("FEED_POLL_INTERVAL_MS", 3000)) * time.Millisecond,

		LogLevel:   getEnv("LOG_LEVEL", "info"),
		EnableCORS: getEnvBool("ENABLE_CORS", true),

		RateLimitEnabled: getEnvBool("RATE_LIMIT_ENABLED", true),
		RateLimitBurst:   getEnvInt("RATE_LIMIT_BURST", 120),
		RateLimitRefill:  time.Duration(getEnvInt("RATE_LIMIT_REFILL_MS", 500)) * time.Millisecond,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	if c.SyncEnabled {
		if c.PatientsTable == "" {
			return fmt.Errorf("PATIENTS_TABLE is required when sync is enabled")
		}
		if c.AttendanceTable == "" {
			return fmt.Errorf("ATTENDANCE_TABLE is required when sync is enabled")
		}
	}
	if c.SyncQueueSize <= 0 {
		return fmt.Errorf("SYNC_QUEUE_SIZE must be positive")
	}
	if c.RateLimitEnabled && c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be positive when rate limiting is enabled")
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
