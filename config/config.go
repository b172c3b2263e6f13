package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/you/subwayviz/repository"
)

// Config holds all configuration for the subwayviz server
type Config struct {
	// HTTP server
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	// Seoul open data API
	SeoulAPIBaseURL string `yaml:"seoul_api_base_url"`
	SeoulAPIKey     string `yaml:"seoul_api_key"`

	// Handoff store
	HandoffStore      repository.Store `yaml:"handoff_store"`
	SQLitePath        string           `yaml:"sqlite_database"`
	DatabaseURL       string           `yaml:"database_url"`
	HandoffTTLMinutes int              `yaml:"handoff_ttl_minutes"`

	// Logging
	LogFormat string `yaml:"log_format"`
	LogLevel  string `yaml:"log_level"`
}

// Defaults returns the configuration used when nothing is set
func Defaults() *Config {
	return &Config{
		Port:              "8081",
		AllowedOrigins:    []string{"http://localhost:5173"},
		SeoulAPIBaseURL:   "http://swopenAPI.seoul.go.kr/api/subway",
		HandoffStore:      repository.StoreMemory,
		SQLitePath:        "./data/handoffs.db",
		HandoffTTLMinutes: 30,
		LogFormat:         "console",
		LogLevel:          "info",
	}
}

// Load builds the configuration: defaults, then the YAML file named by
// CONFIG_FILE (if any), then environment variables
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.AllowedOrigins = getEnvList("ALLOWED_ORIGINS", cfg.AllowedOrigins)
	cfg.SeoulAPIBaseURL = getEnv("SEOUL_API_BASE_URL", cfg.SeoulAPIBaseURL)
	cfg.SeoulAPIKey = getEnv("SEOUL_API_KEY", cfg.SeoulAPIKey)
	cfg.HandoffStore = repository.Store(strings.ToLower(getEnv("HANDOFF_STORE", string(cfg.HandoffStore))))
	cfg.SQLitePath = getEnv("SQLITE_DATABASE", cfg.SQLitePath)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.HandoffTTLMinutes = getEnvInt("HANDOFF_TTL_MINUTES", cfg.HandoffTTLMinutes)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate rejects settings the server cannot start with
func (c *Config) Validate() error {
	switch c.HandoffStore {
	case repository.StoreMemory, repository.StoreSQLite:
	case repository.StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when HANDOFF_STORE=postgres")
		}
	default:
		return fmt.Errorf("unknown HANDOFF_STORE %q (want memory, sqlite or postgres)", c.HandoffStore)
	}

	if c.HandoffStore == repository.StoreSQLite && c.SQLitePath == "" {
		return errors.New("SQLITE_DATABASE is required when HANDOFF_STORE=sqlite")
	}
	if c.HandoffTTLMinutes <= 0 {
		return fmt.Errorf("HANDOFF_TTL_MINUTES must be positive, got %d", c.HandoffTTLMinutes)
	}
	if c.Port == "" {
		return errors.New("PORT cannot be empty")
	}
	return nil
}

// HandoffTTL is how long a query result stays available for visualization
func (c *Config) HandoffTTL() time.Duration {
	return time.Duration(c.HandoffTTLMinutes) * time.Minute
}

// RepositoryOptions maps the store settings for repository.Open
func (c *Config) RepositoryOptions() repository.Options {
	return repository.Options{
		Store:       c.HandoffStore,
		SQLitePath:  c.SQLitePath,
		DatabaseURL: c.DatabaseURL,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
