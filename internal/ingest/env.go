package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// ServiceConfig holds the collector's runtime configuration loaded from
// environment variables.
type ServiceConfig struct {
	// Port to listen on (from PORT, default 3000)
	Port int

	// Secret expected in the x-api-key header (from INGEST_SECRET). Empty
	// rejects every append.
	Secret string

	// CSVPath is CSV_DIR joined with CSV_FILE (defaults "data" and
	// "responses.csv"). Empty CSV_FILE disables the CSV sink when a
	// database is configured.
	CSVPath string

	// DatabaseURL enables the Postgres sink (from DATABASE_URL)
	DatabaseURL string

	// RateLimit is accepted appends per second (from RATE_LIMIT, 0 = off)
	RateLimit float64
	RateBurst int
}

// LoadServiceConfig reads and validates configuration from environment
// variables.
func LoadServiceConfig() (*ServiceConfig, error) {
	cfg, err := ReadServiceConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReadServiceConfig parses the environment without validating, so callers
// can apply overrides first.
func ReadServiceConfig() (*ServiceConfig, error) {
	cfg := &ServiceConfig{
		Port:        3000,
		Secret:      os.Getenv("INGEST_SECRET"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RateBurst:   10,
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("failed to parse PORT: %w", err)
		}
		cfg.Port = port
	}

	dir := envOr("CSV_DIR", "data")
	file, set := os.LookupEnv("CSV_FILE")
	if !set {
		file = "responses.csv"
	}
	if file != "" {
		cfg.CSVPath = filepath.Join(dir, file)
	}

	if v := os.Getenv("RATE_LIMIT"); v != "" {
		limit, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse RATE_LIMIT: %w", err)
		}
		cfg.RateLimit = limit
	}
	if v := os.Getenv("RATE_BURST"); v != "" {
		burst, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("failed to parse RATE_BURST: %w", err)
		}
		cfg.RateBurst = burst
	}
	return cfg, nil
}

// Validate checks the configuration is usable.
func (c *ServiceConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.CSVPath == "" && c.DatabaseURL == "" {
		return fmt.Errorf("either CSV_FILE or DATABASE_URL must be set")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("RATE_LIMIT must not be negative")
	}
	return nil
}

// Addr is the listen address.
func (c *ServiceConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// OpenSink creates the configured sinks: CSV, Postgres, or both behind a Tee.
func (c *ServiceConfig) OpenSink(ctx context.Context) (Sink, error) {
	var sinks Tee
	if c.CSVPath != "" {
		csv, err := NewCSVSink(c.CSVPath)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, csv)
	}
	if c.DatabaseURL != "" {
		pg, err := NewPostgresSink(ctx, c.DatabaseURL)
		if err != nil {
			sinks.Close()
			return nil, err
		}
		sinks = append(sinks, pg)
	}
	if len(sinks) == 1 {
		return sinks[0], nil
	}
	return sinks, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
