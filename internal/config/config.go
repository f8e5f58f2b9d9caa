// Package config provides configuration loading and validation for the
// screener CLI, HTTP server and queue worker.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config represents the screener configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults, and environment
// variables override file values (see ApplyEnv).
type Config struct {
	// Extraction
	MaxFileSizeMB    int    `json:"max_file_size_mb,omitempty"`  // Resumes larger than this are not read
	MaxPages         int    `json:"max_pages,omitempty"`         // PDF pages read per resume
	SkillsDictionary string `json:"skills_dictionary,omitempty"` // Path to a skill dictionary; empty uses the embedded one

	// Storage
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL

	// HTTP
	Port string `json:"port,omitempty"` // Port the API listens on

	// Queue
	RabbitMQURL   string `json:"rabbitmq_url,omitempty"`
	QueueName     string `json:"queue_name,omitempty"`     // Submissions queue
	EventExchange string `json:"event_exchange,omitempty"` // Exchange for screening events
	Workers       int    `json:"workers,omitempty"`        // Concurrent queue consumers

	// Object storage
	S3Bucket   string `json:"s3_bucket,omitempty"`
	S3Endpoint string `json:"s3_endpoint,omitempty"` // Custom endpoint for S3 compatible stores
	S3Region   string `json:"s3_region,omitempty"`

	// Credentials are only read from the environment.
	S3AccessKey string `json:"-"`
	S3SecretKey string `json:"-"`

	// Batch
	BatchConcurrency int `json:"batch_concurrency,omitempty"` // Files screened at once by the batch command

	Verbose bool `json:"verbose,omitempty"` // Print detailed debug information
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		MaxFileSizeMB:    10,
		MaxPages:         20,
		Port:             "8080",
		QueueName:        "resume_submissions",
		EventExchange:    "application_events",
		Workers:          2,
		S3Region:         "auto",
		BatchConcurrency: 4,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Load builds the effective configuration: the file at path (if any),
// merged with Defaults and overridden by the environment.
func Load(path string) (Config, error) {
	cfg := &Config{}
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return Config{}, err
		}
		cfg = loaded
	}

	merged := cfg.MergeWithDefaults(Defaults())
	if err := merged.ApplyEnv(); err != nil {
		return Config{}, err
	}
	if err := merged.Validate(); err != nil {
		return Config{}, err
	}
	return merged, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	// Validate numeric ranges
	if c.MaxFileSizeMB < 0 {
		return fmt.Errorf("config error: 'max_file_size_mb' must be non-negative")
	}
	if c.MaxPages < 0 {
		return fmt.Errorf("config error: 'max_pages' must be non-negative")
	}
	if c.Workers < 0 {
		return fmt.Errorf("config error: 'workers' must be non-negative")
	}
	if c.BatchConcurrency < 0 {
		return fmt.Errorf("config error: 'batch_concurrency' must be non-negative")
	}
	if c.Port != "" {
		if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("config error: 'port' must be a number between 1 and 65535, got %q", c.Port)
		}
	}

	// Validate file paths exist (if specified)
	if c.SkillsDictionary != "" {
		if _, err := os.Stat(c.SkillsDictionary); os.IsNotExist(err) {
			return fmt.Errorf("config error: skills dictionary not found: %s", c.SkillsDictionary)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.SkillsDictionary == "" {
		result.SkillsDictionary = defaults.SkillsDictionary
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.Port == "" {
		result.Port = defaults.Port
	}
	if result.RabbitMQURL == "" {
		result.RabbitMQURL = defaults.RabbitMQURL
	}
	if result.QueueName == "" {
		result.QueueName = defaults.QueueName
	}
	if result.EventExchange == "" {
		result.EventExchange = defaults.EventExchange
	}
	if result.S3Bucket == "" {
		result.S3Bucket = defaults.S3Bucket
	}
	if result.S3Endpoint == "" {
		result.S3Endpoint = defaults.S3Endpoint
	}
	if result.S3Region == "" {
		result.S3Region = defaults.S3Region
	}

	// Int fields: use default if zero
	if result.MaxFileSizeMB == 0 {
		result.MaxFileSizeMB = defaults.MaxFileSizeMB
	}
	if result.MaxPages == 0 {
		result.MaxPages = defaults.MaxPages
	}
	if result.Workers == 0 {
		result.Workers = defaults.Workers
	}
	if result.BatchConcurrency == 0 {
		result.BatchConcurrency = defaults.BatchConcurrency
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// ApplyEnv overrides fields from environment variables that are set.
func (c *Config) ApplyEnv() error {
	strs := []struct {
		key string
		dst *string
	}{
		{"SKILLS_DICTIONARY", &c.SkillsDictionary},
		{"DATABASE_URL", &c.DatabaseURL},
		{"PORT", &c.Port},
		{"RABBITMQ_URL", &c.RabbitMQURL},
		{"QUEUE_NAME", &c.QueueName},
		{"EVENT_EXCHANGE", &c.EventExchange},
		{"S3_BUCKET", &c.S3Bucket},
		{"S3_ENDPOINT", &c.S3Endpoint},
		{"AWS_REGION", &c.S3Region},
		{"S3_ACCESS_KEY", &c.S3AccessKey},
		{"S3_SECRET_KEY", &c.S3SecretKey},
	}
	for _, s := range strs {
		if v := os.Getenv(s.key); v != "" {
			*s.dst = v
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"MAX_FILE_SIZE_MB", &c.MaxFileSizeMB},
		{"MAX_PAGES", &c.MaxPages},
		{"WORKERS", &c.Workers},
		{"BATCH_CONCURRENCY", &c.BatchConcurrency},
	}
	for _, i := range ints {
		v := os.Getenv(i.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %v", i.key, err)
		}
		*i.dst = n
	}

	return nil
}

// MaxFileSizeBytes returns the file size limit in bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}
