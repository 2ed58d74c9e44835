// Package config loads runtime settings from the environment, optionally
// seeded from a dotenv-style file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/dshills/baozi-order/internal/completion"
	"github.com/dshills/baozi-order/internal/session"
)

// Environment variable names
const (
	EnvAPIKey       = "DEEPSEEK_API_KEY"
	EnvProvider     = "BAOZI_PROVIDER"
	EnvModel        = "BAOZI_MODEL"
	EnvBaseURL      = "BAOZI_BASE_URL"
	EnvTemperature  = "BAOZI_TEMPERATURE"
	EnvMaxTokens    = "BAOZI_MAX_TOKENS"
	EnvTimeout      = "BAOZI_TIMEOUT"
	EnvMaxAttempts  = "BAOZI_MAX_ATTEMPTS"
	EnvDBPath       = "BAOZI_DB_PATH"
	EnvSessionLimit = "BAOZI_SESSION_LIMIT"
	EnvHTTPAddr     = "BAOZI_HTTP_ADDR"
	EnvLogLevel     = "BAOZI_LOG_LEVEL"
)

// Defaults not owned by another package
const (
	DefaultDBPath   = "~/.baozi/orders.db"
	DefaultHTTPAddr = ":8080"
)

// ErrMissingAPIKey is returned by Validate when no API key is configured
var ErrMissingAPIKey = errors.New(EnvAPIKey + " is not set")

// Config holds all runtime configuration
type Config struct {
	APIKey       string
	Provider     string
	Model        string
	BaseURL      string
	Temperature  float64
	MaxTokens    int
	Timeout      time.Duration
	MaxAttempts  int // total tries per turn, first one included
	DBPath       string
	SessionLimit int
	HTTPAddr     string
	LogLevel     string // empty selects the run mode default
}

// Default returns the configuration used when no variable is set
func Default() *Config {
	return &Config{
		Provider:     completion.ProviderDeepSeek,
		Model:        completion.DefaultModel,
		BaseURL:      completion.DefaultBaseURL,
		Temperature:  completion.DefaultTemperature,
		MaxTokens:    completion.DefaultMaxTokens,
		Timeout:      completion.DefaultTimeout,
		MaxAttempts:  completion.DefaultMaxAttempts,
		DBPath:       DefaultDBPath,
		SessionLimit: session.DefaultLimit,
		HTTPAddr:     DefaultHTTPAddr,
	}
}

// Load reads the configuration from the environment. A non-empty envFile is
// loaded first; variables already present in the environment win over it.
// A missing envFile is not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := LoadEnvFile(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment
func FromEnv() (*Config, error) {
	cfg := Default()

	cfg.APIKey = strings.TrimSpace(os.Getenv(EnvAPIKey))
	setString(&cfg.Provider, EnvProvider)
	setString(&cfg.Model, EnvModel)
	setString(&cfg.BaseURL, EnvBaseURL)
	setString(&cfg.DBPath, EnvDBPath)
	setString(&cfg.HTTPAddr, EnvHTTPAddr)
	setString(&cfg.LogLevel, EnvLogLevel)

	if v, ok := lookup(EnvTemperature); ok {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value: %w", EnvTemperature, err)
		}
		cfg.Temperature = t
	}
	if err := setInt(&cfg.MaxTokens, EnvMaxTokens); err != nil {
		return nil, err
	}
	if err := setInt(&cfg.MaxAttempts, EnvMaxAttempts); err != nil {
		return nil, err
	}
	if err := setInt(&cfg.SessionLimit, EnvSessionLimit); err != nil {
		return nil, err
	}
	if v, ok := lookup(EnvTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value: %w", EnvTimeout, err)
		}
		cfg.Timeout = d
	}

	return cfg, nil
}

// Validate checks the configuration before any session starts
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.Temperature < 0 || c.Temperature > 1 {
		return fmt.Errorf("%w: got %v", completion.ErrTemperatureInRange, c.Temperature)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("%s must be positive, got %d", EnvMaxTokens, c.MaxTokens)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%s must be positive, got %s", EnvTimeout, c.Timeout)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("%s must be at least 1, got %d", EnvMaxAttempts, c.MaxAttempts)
	}
	if c.SessionLimit <= 0 {
		return fmt.Errorf("%s must be positive, got %d", EnvSessionLimit, c.SessionLimit)
	}
	return nil
}

// Completion returns the client configuration
func (c *Config) Completion() completion.Config {
	retry := completion.DefaultRetryConfig()
	retry.MaxAttempts = c.MaxAttempts
	return completion.Config{
		Provider: c.Provider,
		APIKey:   c.APIKey,
		BaseURL:  c.BaseURL,
		Timeout:  c.Timeout,
		Retry:    retry,
	}
}

// Params returns the sampling parameters
func (c *Config) Params() completion.Params {
	return completion.Params{
		Model:       c.Model,
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
	}
}

// ResolveDBPath expands a leading ~ and creates the parent directory.
// ":memory:" is returned unchanged.
func (c *Config) ResolveDBPath() (string, error) {
	path := c.DBPath
	if path == ":memory:" {
		return path, nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}
	return path, nil
}

// LoadEnvFile exports the variables of a dotenv file. Variables already
// present in the environment are left untouched.
func LoadEnvFile(filename string) error {
	if err := godotenv.Load(filename); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", filename, err)
	}
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func setString(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s value: %w", key, err)
	}
	*dst = n
	return nil
}
