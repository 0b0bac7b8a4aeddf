package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"redirsync/pkg/logger"
)

// Config holds all configuration options for the redirect sync tool
type Config struct {
	// Remote API settings
	API APIConfig `yaml:"api" json:"api"`

	// Export settings
	Export ExportConfig `yaml:"export" json:"export"`

	// Import/delete settings
	Import ImportConfig `yaml:"import" json:"import"`

	// Retry and restart policy
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Checkpoint persistence
	Checkpoint CheckpointConfig `yaml:"checkpoint" json:"checkpoint"`

	// Logging configuration
	Logging logger.Config `yaml:"logging" json:"logging"`
}

// APIConfig holds remote endpoint settings
type APIConfig struct {
	BaseURL           string        `yaml:"base_url" json:"base_url"`
	Account           string        `yaml:"account" json:"account"`
	Workspace         string        `yaml:"workspace" json:"workspace"`
	RequestTimeout    time.Duration `yaml:"request_timeout" json:"request_timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// ExportConfig holds export-specific knobs
type ExportConfig struct {
	// Concurrency bounds how many fetched pages may be queued but not
	// yet drained to the output file
	Concurrency int `yaml:"concurrency" json:"concurrency"`
	// WriteBatchSize groups rows per file write, for I/O efficiency only
	WriteBatchSize int `yaml:"write_batch_size" json:"write_batch_size"`
	// FetchTimeout is the hard wall-clock limit on one page fetch
	// including its retries
	FetchTimeout time.Duration `yaml:"fetch_timeout" json:"fetch_timeout"`
}

// ImportConfig holds import/delete batching knobs
type ImportConfig struct {
	BatchSize   int `yaml:"batch_size" json:"batch_size"`
	Concurrency int `yaml:"concurrency" json:"concurrency"`
}

// RetryConfig holds the per-call retry policy and the whole-operation
// restart budget
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
	MaxRestarts int           `yaml:"max_restarts" json:"max_restarts"`
}

// CheckpointConfig holds checkpoint file settings
type CheckpointConfig struct {
	Path string `yaml:"path" json:"path"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			RequestTimeout:    30 * time.Second,
			RequestsPerMinute: 120,
		},
		Export: ExportConfig{
			Concurrency:    5,
			WriteBatchSize: 100,
			FetchTimeout:   60 * time.Second,
		},
		Import: ImportConfig{
			BatchSize:   10,
			Concurrency: 1,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   1 * time.Second,
			MaxDelay:    60 * time.Second,
			MaxRestarts: 3,
		},
		Checkpoint: CheckpointConfig{
			Path: "",
		},
		Logging: logger.Config{
			Level: "info",
		},
	}
}

// LoadFromEnv overlays configuration from environment variables
func (c *Config) LoadFromEnv() {
	if url := os.Getenv("REDIRSYNC_API_URL"); url != "" {
		c.API.BaseURL = url
	}
	if account := os.Getenv("REDIRSYNC_ACCOUNT"); account != "" {
		c.API.Account = account
	}
	if workspace := os.Getenv("REDIRSYNC_WORKSPACE"); workspace != "" {
		c.API.Workspace = workspace
	}
	if v := envInt("REDIRSYNC_CONCURRENCY"); v > 0 {
		c.Export.Concurrency = v
	}
	if v := envInt("REDIRSYNC_WRITE_BATCH"); v > 0 {
		c.Export.WriteBatchSize = v
	}
	if level := os.Getenv("REDIRSYNC_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

func envInt(name string) int {
	raw := os.Getenv(name)
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// LoadFromFile overlays configuration from a YAML file. A missing file
// at the default location is not an error.
func (c *Config) LoadFromFile(path string) error {
	explicit := path != ""
	if path == "" {
		path = defaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func defaultConfigPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home + "/.redirsync.yaml"
	}
	return ".redirsync.yaml"
}

// ApplyFlags overlays values collected from command-line flags. Flags
// have the highest precedence.
func (c *Config) ApplyFlags(flags map[string]interface{}) {
	for name, value := range flags {
		switch name {
		case "base-url":
			c.API.BaseURL = value.(string)
		case "account":
			c.API.Account = value.(string)
		case "workspace":
			c.API.Workspace = value.(string)
		case "concurrency":
			c.Import.Concurrency = value.(int)
		case "batch-size":
			c.Import.BatchSize = value.(int)
		case "max-retries":
			c.Retry.MaxAttempts = value.(int)
		case "log-level":
			c.Logging.Level = value.(string)
		case "checkpoint-path":
			c.Checkpoint.Path = value.(string)
		}
	}
}

// Load builds the effective configuration: defaults, then config file,
// then environment, then flags.
func Load(configFile string, flags map[string]interface{}) (*Config, error) {
	// A .env alongside the invocation is honored if present
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if err := cfg.LoadFromFile(configFile); err != nil {
		return nil, err
	}
	cfg.LoadFromEnv()
	cfg.ApplyFlags(flags)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with
func (c *Config) Validate() error {
	if c.Export.Concurrency < 1 {
		return fmt.Errorf("export concurrency must be at least 1, got %d", c.Export.Concurrency)
	}
	if c.Export.WriteBatchSize < 1 {
		return fmt.Errorf("export write batch size must be at least 1, got %d", c.Export.WriteBatchSize)
	}
	if c.Import.BatchSize < 1 {
		return fmt.Errorf("import batch size must be at least 1, got %d", c.Import.BatchSize)
	}
	if c.Import.Concurrency < 1 {
		return fmt.Errorf("import concurrency must be at least 1, got %d", c.Import.Concurrency)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry max attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	return nil
}
