package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"
)

const appName = "cachekit-bench"

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigPath  string
	Policy      string
	MaxSize     int
	TTL         time.Duration
	Workers     int
	Keyspace    int
	Duration    time.Duration
	MetricsPort int
	LogLevel    string
	LogFormat   string
	ShowHelp    bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	// Define flags with environment variable fallback
	flag.StringVar(&cfg.ConfigPath, "config",
		getEnv("CACHEKIT_CONFIG", ""),
		"Path to cache configuration JSON; overrides policy flags (env: CACHEKIT_CONFIG)")

	flag.StringVar(&cfg.Policy, "policy",
		getEnv("CACHEKIT_POLICY", "lru"),
		"Eviction policy: lru, lfu, fifo, simple (env: CACHEKIT_POLICY)")

	flag.IntVar(&cfg.MaxSize, "max-size",
		getEnvInt("CACHEKIT_MAX_SIZE", 10000),
		"Cache capacity for bounded policies (env: CACHEKIT_MAX_SIZE)")

	flag.DurationVar(&cfg.TTL, "ttl",
		getEnvDuration("CACHEKIT_TTL", 0),
		"Default entry TTL, 0 disables expiration (env: CACHEKIT_TTL)")

	flag.IntVar(&cfg.Workers, "workers",
		getEnvInt("CACHEKIT_WORKERS", 4),
		"Concurrent workload goroutines (env: CACHEKIT_WORKERS)")

	flag.IntVar(&cfg.Keyspace, "keyspace",
		getEnvInt("CACHEKIT_KEYSPACE", 100000),
		"Number of distinct keys in the workload (env: CACHEKIT_KEYSPACE)")

	flag.DurationVar(&cfg.Duration, "duration",
		getEnvDuration("CACHEKIT_DURATION", 0),
		"How long to run, 0 runs until interrupted (env: CACHEKIT_DURATION)")

	flag.IntVar(&cfg.MetricsPort, "metrics-port",
		getEnvInt("CACHEKIT_METRICS_PORT", 9090),
		"Prometheus metrics port, 0 to disable (env: CACHEKIT_METRICS_PORT)")

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("CACHEKIT_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: CACHEKIT_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("CACHEKIT_LOG_FORMAT", "text"),
		"Log format: json, text (env: CACHEKIT_LOG_FORMAT)")

	flag.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	flag.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")

	flag.Usage = func() {
		printDetailedHelp()
	}

	flag.Parse()

	return cfg
}

func validateFlags(cfg *CLIConfig) error {
	if cfg.ShowHelp {
		return nil
	}

	if cfg.ConfigPath != "" {
		if _, err := os.Stat(cfg.ConfigPath); err != nil {
			return fmt.Errorf("config file not found: %s", cfg.ConfigPath)
		}
	}

	validPolicies := []string{"lru", "lfu", "fifo", "simple"}
	if !contains(validPolicies, cfg.Policy) {
		return fmt.Errorf("invalid policy: %s", cfg.Policy)
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}

	validFormats := []string{"json", "text"}
	if !contains(validFormats, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	if cfg.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", cfg.Workers)
	}
	if cfg.Keyspace < 1 {
		return fmt.Errorf("keyspace must be at least 1, got %d", cfg.Keyspace)
	}
	if cfg.MetricsPort < 0 || cfg.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", cfg.MetricsPort)
	}

	return nil
}

func printDetailedHelp() {
	_, _ = fmt.Fprintf(os.Stderr, `%s - cache workload driver

Usage: %s [options]

Options:
`, appName, os.Args[0])
	flag.PrintDefaults()
	_, _ = fmt.Fprintf(os.Stderr, `
Examples:
  # Drive an LFU cache with 8 workers for a minute
  %s --policy=lfu --max-size=50000 --workers=8 --duration=1m

  # Use a configuration file and watch metrics
  %s --config=configs/cache.json --metrics-port=9090

  # Run with environment variables
  export CACHEKIT_POLICY=fifo
  export CACHEKIT_TTL=30s
  %s
`, os.Args[0], os.Args[0], os.Args[0])
}

// Environment variable helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Utility function to check if slice contains string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
