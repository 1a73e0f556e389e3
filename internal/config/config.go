package config

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/anime-shed/rgd-inspector-go/internal/analyzer"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	MaxBatchSize       int
	Workers            int
	LogLevel           string

	// AnalysisProfile is the optional YAML file the options were read from
	AnalysisProfile string
	Analysis        analyzer.AnalysisOptions
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// LoadFromEnv reads configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment variables win.
func LoadFromEnv() (*Config, error) {
	_ = godotenv.Load()

	// Set defaults
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 10*1024*1024), // 10MB
		MaxBatchSize:       int(parseIntOrDefault("MAX_BATCH_SIZE", 32)),
		Workers:            int(parseIntOrDefault("WORKERS", int64(runtime.NumCPU()))),
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
		AnalysisProfile:    strings.TrimSpace(os.Getenv("ANALYSIS_PROFILE")),
		Analysis:           analyzer.DefaultOptions(),
	}

	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("REQUEST_TIMEOUT must be > 0 (got %s)", cfg.RequestTimeout)
	}
	if cfg.MaxBatchSize <= 0 {
		return nil, fmt.Errorf("MAX_BATCH_SIZE must be > 0 (got %d)", cfg.MaxBatchSize)
	}
	if cfg.Workers <= 0 {
		return nil, fmt.Errorf("WORKERS must be > 0 (got %d)", cfg.Workers)
	}

	if cfg.AnalysisProfile != "" {
		opts, err := LoadAnalysisProfile(cfg.AnalysisProfile)
		if err != nil {
			return nil, err
		}
		cfg.Analysis = opts
	}
	if err := cfg.Analysis.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis options: %w", err)
	}
	return cfg, nil
}

// LoadAnalysisProfile reads analysis options from a YAML file. Keys missing
// from the file keep their defaults; unknown keys are an error.
func LoadAnalysisProfile(path string) (analyzer.AnalysisOptions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return analyzer.AnalysisOptions{}, fmt.Errorf("read analysis profile: %w", err)
	}
	return ParseAnalysisProfile(data)
}

// ParseAnalysisProfile decodes YAML analysis options on top of the defaults
func ParseAnalysisProfile(data []byte) (analyzer.AnalysisOptions, error) {
	opts := analyzer.DefaultOptions()
	if len(bytes.TrimSpace(data)) == 0 {
		return opts, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&opts); err != nil {
		return analyzer.AnalysisOptions{}, fmt.Errorf("decode analysis profile: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return analyzer.AnalysisOptions{}, fmt.Errorf("invalid analysis profile: %w", err)
	}
	return opts, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
