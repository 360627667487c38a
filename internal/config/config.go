package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

type (
	// Config holds configuration settings for the orchestrator
	Config struct {
		// API server
		APIHost  string
		APIPort  int
		LogLevel string

		// Orchestrator timing
		TickInterval time.Duration
		InitDelay    time.Duration
		ReportDelay  time.Duration

		// Scan backend delays by method
		SlowScanDelay       time.Duration
		NormalScanDelay     time.Duration
		AggressiveScanDelay time.Duration

		// Progress ticking ceiling before a step's work completes
		TickCeiling int

		ShutdownTimeout time.Duration
	}
)

const (
	DefaultAPIHost = "0.0.0.0"
	DefaultAPIPort = 8080
	MaxTCPPort     = 65535

	DefaultTickInterval = 500 * time.Millisecond
	DefaultInitDelay    = time.Second
	DefaultReportDelay  = time.Second

	DefaultSlowScanDelay       = 5 * time.Second
	DefaultNormalScanDelay     = 2 * time.Second
	DefaultAggressiveScanDelay = time.Second

	DefaultTickCeiling = 95
	MaxTickCeiling     = 99

	DefaultShutdownTimeout = 10 * time.Second

	maxDelayMillis = int64(time.Hour / time.Millisecond)
)

var (
	ErrInvalidAPIPort      = errors.New("invalid API port")
	ErrInvalidTickInterval = errors.New("tick interval must be positive")
	ErrInvalidTickCeiling  = errors.New("tick ceiling out of range")
	ErrInvalidScanDelay    = errors.New("scan delay must be positive")
)

// NewDefaultConfig creates a configuration with sensible defaults for the
// API server and orchestrator timing
func NewDefaultConfig() *Config {
	return &Config{
		APIHost:             DefaultAPIHost,
		APIPort:             DefaultAPIPort,
		LogLevel:            "info",
		TickInterval:        DefaultTickInterval,
		InitDelay:           DefaultInitDelay,
		ReportDelay:         DefaultReportDelay,
		SlowScanDelay:       DefaultSlowScanDelay,
		NormalScanDelay:     DefaultNormalScanDelay,
		AggressiveScanDelay: DefaultAggressiveScanDelay,
		TickCeiling:         DefaultTickCeiling,
		ShutdownTimeout:     DefaultShutdownTimeout,
	}
}

// LoadFromEnv populates configuration values from environment variables.
// Returns an error if any env var cannot be parsed
func (c *Config) LoadFromEnv() error {
	if apiHost := os.Getenv("API_HOST"); apiHost != "" {
		c.APIHost = apiHost
	}
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.LogLevel = logLevel
	}

	if err := loadEnvInt("API_PORT", &c.APIPort, 0, MaxTCPPort); err != nil {
		return err
	}
	if err := loadEnvInt(
		"TICK_CEILING", &c.TickCeiling, 0, MaxTickCeiling,
	); err != nil {
		return err
	}

	durations := map[string]*time.Duration{
		"TICK_INTERVAL_MS":         &c.TickInterval,
		"INIT_DELAY_MS":            &c.InitDelay,
		"REPORT_DELAY_MS":          &c.ReportDelay,
		"SLOW_SCAN_DELAY_MS":       &c.SlowScanDelay,
		"NORMAL_SCAN_DELAY_MS":     &c.NormalScanDelay,
		"AGGRESSIVE_SCAN_DELAY_MS": &c.AggressiveScanDelay,
		"SHUTDOWN_TIMEOUT_MS":      &c.ShutdownTimeout,
	}
	for key, dst := range durations {
		if err := loadEnvMillis(key, dst); err != nil {
			return err
		}
	}

	return nil
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.APIPort <= 0 || c.APIPort > MaxTCPPort {
		return fmt.Errorf("%w: %d", ErrInvalidAPIPort, c.APIPort)
	}

	if c.TickInterval <= 0 {
		return ErrInvalidTickInterval
	}

	if c.TickCeiling <= 0 || c.TickCeiling > MaxTickCeiling {
		return fmt.Errorf("%w: %d", ErrInvalidTickCeiling, c.TickCeiling)
	}

	for _, d := range []time.Duration{
		c.SlowScanDelay, c.NormalScanDelay, c.AggressiveScanDelay,
	} {
		if d <= 0 {
			return ErrInvalidScanDelay
		}
	}

	return nil
}

// loadEnvInt reads key from the environment, parses it as an integer, and
// sets *dst if the value is in the range (min, max). Returns an error if
// the value cannot be parsed or falls outside the valid range
func loadEnvInt(key string, dst *int, min, max int) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, s)
	}
	if v <= min || v > max {
		return fmt.Errorf("invalid %s: %d out of range [%d, %d]",
			key, v, min+1, max)
	}
	*dst = v
	return nil
}

// loadEnvMillis reads key as a millisecond count and sets *dst
func loadEnvMillis(key string, dst *time.Duration) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, s)
	}
	if v <= 0 || v > maxDelayMillis {
		return fmt.Errorf("invalid %s: %d out of range [1, %d]",
			key, v, maxDelayMillis)
	}
	*dst = time.Duration(v) * time.Millisecond
	return nil
}
