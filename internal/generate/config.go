package generate

import (
	"os"
	"time"
)

// DefaultTimeout bounds a single call to the generation endpoint.
const DefaultTimeout = 60 * time.Second

// DefaultEndpoint is where `coursegen serve` listens by default.
const DefaultEndpoint = "http://localhost:8080/api/generate"

// Config holds pipeline settings.
type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// DefaultConfig returns the local endpoint with the default timeout.
func DefaultConfig() Config {
	return Config{
		Endpoint: DefaultEndpoint,
		Timeout:  DefaultTimeout,
	}
}

// ConfigFromEnv reads COURSEGEN_ENDPOINT and COURSEGEN_TIMEOUT over the defaults.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if v := os.Getenv("COURSEGEN_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if d, err := time.ParseDuration(os.Getenv("COURSEGEN_TIMEOUT")); err == nil && d > 0 {
		cfg.Timeout = d
	}
	return cfg
}
