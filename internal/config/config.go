// Package config centralizes how the server reads environment variables and
// how the CLI reads its optional config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the server's runtime configuration.
type Config struct {
	Address         string
	DatabaseURL     string
	AuthIssuer      string
	AuthClientID    string
	AnalyzerTimeout time.Duration
	ReaperInterval  time.Duration
	ProcessingTTL   time.Duration
}

const (
	defaultAddress         = ":8080"
	defaultAnalyzerTimeout = 2 * time.Minute
	defaultReaperInterval  = time.Minute
	defaultProcessingTTL   = 10 * time.Minute
)

// Load reads the server configuration from environment variables. Missing
// required values fail closed here, before any store or issuer is touched.
func Load() (*Config, error) {
	cfg := &Config{
		Address:         readEnv("CLIPFORGE_ADDRESS", defaultAddress),
		DatabaseURL:     readEnv("CLIPFORGE_DATABASE_URL", ""),
		AuthIssuer:      readEnv("CLIPFORGE_AUTH_ISSUER", ""),
		AuthClientID:    readEnv("CLIPFORGE_AUTH_CLIENT_ID", ""),
		AnalyzerTimeout: parseDuration("CLIPFORGE_ANALYZER_TIMEOUT", defaultAnalyzerTimeout),
		ReaperInterval:  parseDuration("CLIPFORGE_REAPER_INTERVAL", defaultReaperInterval),
		ProcessingTTL:   parseDuration("CLIPFORGE_PROCESSING_TTL", defaultProcessingTTL),
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("CLIPFORGE_DATABASE_URL is required")
	}
	if cfg.AuthIssuer == "" {
		return nil, errors.New("CLIPFORGE_AUTH_ISSUER is required")
	}
	return cfg, nil
}

// ClientConfig holds CLI defaults; flags override file values.
type ClientConfig struct {
	APIURL string `yaml:"api_url"`
	Token  string `yaml:"token"`
}

// LoadClient reads a YAML client config file. A missing file is not an error;
// the CLI then relies entirely on flags.
func LoadClient(path string) (*ClientConfig, error) {
	cfg := &ClientConfig{}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("open config file %s: %w", path, err)
	}
	defer f.Close()
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}
	return cfg, nil
}

func readEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func parseDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := time.ParseDuration(v); err == nil && parsed > 0 {
			return parsed
		}
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return def
}
