package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the scanning worker
type Config struct {
	// Threads caps how many probes run at once.
	Threads int `yaml:"threads"`

	// DatabaseURL locates the catalog database.
	DatabaseURL string `yaml:"database_url"`

	// Timeout bounds one probe attempt end to end.
	Timeout time.Duration `yaml:"timeout"`

	// ScanPort is probed on every address the feed produces.
	ScanPort int `yaml:"scan_port"`

	// CIDRs, when set, makes the worker sweep these blocks once instead
	// of sampling random public addresses forever.
	CIDRs []string `yaml:"cidrs"`

	// ExhaustedWait, when positive, makes the worker wait and re-poll an
	// exhausted feed instead of shutting down.
	ExhaustedWait time.Duration `yaml:"exhausted_wait"`

	BatchSize     int           `yaml:"batch_size"`
	MaxBatchBytes int           `yaml:"max_batch_bytes"`
	FlushInterval time.Duration `yaml:"flush_interval"`

	// RecordFailures persists unreachable/timeout/protocol-error results
	// as last-seen status updates on known servers.
	RecordFailures bool `yaml:"record_failures"`

	// DeepProbe enables the follow-up login attempt on reachable servers.
	DeepProbe bool `yaml:"deep_probe"`

	// RevisitInterval controls how often known servers are re-probed to
	// refresh status and player samples. Zero disables the revisit pass.
	RevisitInterval time.Duration `yaml:"revisit_interval"`
	RevisitLimit    int           `yaml:"revisit_limit"`

	// ReportDir, when set, receives periodic discovery reports.
	ReportDir string `yaml:"report_dir"`

	// PruneAfterDays removes servers unseen for this long.
	PruneAfterDays int `yaml:"prune_after_days"`

	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Threads:         150,
		DatabaseURL:     "mcscanner.db",
		Timeout:         5 * time.Second,
		ScanPort:        25565,
		BatchSize:       64,
		MaxBatchBytes:   1 << 20,
		FlushInterval:   5 * time.Second,
		RecordFailures:  true,
		RevisitInterval: 10 * time.Minute,
		RevisitLimit:    500,
		PruneAfterDays:  30,
		LogLevel:        "info",
	}
}

// ApplyFile overlays configuration from a yaml file. An empty path is a
// no-op.
func (c *Config) ApplyFile(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Threads <= 0 {
		return fmt.Errorf("threads must be positive")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("database url cannot be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.ScanPort <= 0 || c.ScanPort > 65535 {
		return fmt.Errorf("scan port must be between 1 and 65535")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.FlushInterval <= 0 {
		return fmt.Errorf("flush interval must be positive")
	}
	if c.RevisitInterval < 0 {
		return fmt.Errorf("revisit interval cannot be negative")
	}
	if c.PruneAfterDays <= 0 {
		return fmt.Errorf("prune age must be positive")
	}
	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}
