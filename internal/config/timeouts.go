package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds all configurable timeout and retry values.
// These values can be customized via environment variables.
type Timeouts struct {
	Create            time.Duration // Per-entity budget for a create-or-update to complete
	Delete            time.Duration // Per-entity budget for a delete to complete
	PollInterval      time.Duration // Delay between re-applications of a pending entity
	RetryMaxAttempts  int           // Maximum number of retry attempts after a failure
	RetryInitialDelay time.Duration // Initial delay between retries
	RetryMaxDelay     time.Duration // Upper bound for the backoff delay
	RetryMultiplier   float64       // Growth factor of the backoff delay
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - FLEETSTACK_TIMEOUT_CREATE (default: 10m)
//   - FLEETSTACK_TIMEOUT_DELETE (default: 5m)
//   - FLEETSTACK_POLL_INTERVAL (default: 5s)
//   - FLEETSTACK_RETRY_MAX_ATTEMPTS (default: 5)
//   - FLEETSTACK_RETRY_INITIAL_DELAY (default: 1s)
//   - FLEETSTACK_RETRY_MAX_DELAY (default: 30s)
//   - FLEETSTACK_RETRY_MULTIPLIER (default: 2)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		Create:            parseDuration("FLEETSTACK_TIMEOUT_CREATE", 10*time.Minute),
		Delete:            parseDuration("FLEETSTACK_TIMEOUT_DELETE", 5*time.Minute),
		PollInterval:      parseDuration("FLEETSTACK_POLL_INTERVAL", 5*time.Second),
		RetryMaxAttempts:  parseInt("FLEETSTACK_RETRY_MAX_ATTEMPTS", 5),
		RetryInitialDelay: parseDuration("FLEETSTACK_RETRY_INITIAL_DELAY", 1*time.Second),
		RetryMaxDelay:     parseDuration("FLEETSTACK_RETRY_MAX_DELAY", 30*time.Second),
		RetryMultiplier:   parseFloat("FLEETSTACK_RETRY_MULTIPLIER", 2),
	}
}

// FastTimeouts returns timeouts suitable for in-process materializers and
// tests, where remote operations complete immediately.
func FastTimeouts() *Timeouts {
	return &Timeouts{
		Create:            5 * time.Second,
		Delete:            5 * time.Second,
		PollInterval:      time.Millisecond,
		RetryMaxAttempts:  3,
		RetryInitialDelay: time.Millisecond,
		RetryMaxDelay:     5 * time.Millisecond,
		RetryMultiplier:   2,
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}

// parseFloat parses a factor of at least 1 from an environment variable.
// If the variable is not set, invalid or below 1, the default value is
// returned.
func parseFloat(envVar string, defaultVal float64) float64 {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	f, err := strconv.ParseFloat(val, 64)
	if err != nil || f < 1 {
		return defaultVal
	}

	return f
}
