package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the service configuration read from the environment
type Config struct {
	Port      string
	JWTSecret string

	// Hours between completing an appointment and the follow-up trigger
	FollowUpDelayHours float64

	// Client-side bound on the fire-and-forget relay call
	RelayTimeout time.Duration

	// How long an execution may sit PENDING without a dispatch attempt
	// before the sweeper re-enqueues it
	SweepAfter    time.Duration
	SweepInterval time.Duration
}

// Load reads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		FollowUpDelayHours: getEnvAsFloat("FOLLOW_UP_DELAY_HOURS", 24),
		RelayTimeout:       getEnvAsDuration("RELAY_TIMEOUT", 5*time.Second),
		SweepAfter:         getEnvAsDuration("DISPATCH_SWEEP_AFTER", 2*time.Minute),
		SweepInterval:      getEnvAsDuration("DISPATCH_SWEEP_INTERVAL", time.Minute),
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
