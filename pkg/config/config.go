// Package config loads the epaudit configuration document.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/newtron-network/epaudit/pkg/util"
)

// DefaultPath is the configuration document read when --config is not given.
const DefaultPath = "config.yaml"

// Output and input file names inside the configured directories.
const (
	ListFileName      = "list.txt"
	InventoryFileName = "BBP.csv"
	FailedFileName    = "BBP_failed.txt"
	ChangeLogFileName = "change-log.txt"
	AuditLogFileName  = "audit.log"
)

// DefaultLatestSoftware is the release recorded in the Latest_Software
// column when the document does not override it.
const DefaultLatestSoftware = "ce 9.15.3"

// Config is the parsed configuration document. It is read-only once Load
// returns.
type Config struct {
	BasicAuth      BasicAuth     `yaml:"basic_auth"`
	HostVarsPath   string        `yaml:"host_vars_path"`
	OutputPath     string        `yaml:"output_path"`
	ListPath       string        `yaml:"path"`
	LatestSoftware string        `yaml:"latest_software"`
	Timeouts       Timeouts      `yaml:"timeouts"`
	Logging        LoggingConfig `yaml:"logging"`
	AuditLog       string        `yaml:"audit_log"`
	MetricsFile    string        `yaml:"metrics_file"`
	Redis          RedisConfig   `yaml:"redis"`
}

// BasicAuth holds the HTTP Basic credentials shared by every endpoint.
type BasicAuth struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Timeouts bounds each request. Read applies to polling; Write applies to
// compliance writes and their verification re-fetch.
type Timeouts struct {
	Read  time.Duration `yaml:"read"`
	Write time.Duration `yaml:"write"`
}

// LoggingConfig configures the diagnostic log.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // text or json
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// RedisConfig enables the inventory mirror when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Load reads, decodes and validates the document at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a configuration document. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", util.ErrInvalidConfig)
		}
		return nil, fmt.Errorf("%w: %v", util.ErrInvalidConfig, err)
	}

	setDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.LatestSoftware == "" {
		cfg.LatestSoftware = DefaultLatestSoftware
	}
	if cfg.Timeouts.Read == 0 {
		cfg.Timeouts.Read = 3 * time.Second
	}
	if cfg.Timeouts.Write == 0 {
		cfg.Timeouts.Write = 5 * time.Second
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.MaxSizeMB == 0 {
		cfg.Logging.MaxSizeMB = 10
	}
	if cfg.Logging.MaxBackups == 0 {
		cfg.Logging.MaxBackups = 3
	}
	if cfg.Logging.MaxAgeDays == 0 {
		cfg.Logging.MaxAgeDays = 28
	}
}

func validate(cfg *Config) error {
	var vb util.ValidationBuilder
	vb.Add(cfg.BasicAuth.Username != "", "basic_auth.username is required")
	vb.Add(cfg.HostVarsPath != "", "host_vars_path is required")
	vb.Add(cfg.OutputPath != "", "output_path is required")
	vb.Add(cfg.ListPath != "", "path is required")
	if cfg.Timeouts.Read < 0 {
		vb.AddErrorf("timeouts.read must be positive, got %s", cfg.Timeouts.Read)
	}
	if cfg.Timeouts.Write < 0 {
		vb.AddErrorf("timeouts.write must be positive, got %s", cfg.Timeouts.Write)
	}
	if f := cfg.Logging.Format; f != "" && f != "text" && f != "json" {
		vb.AddErrorf("logging.format must be text or json, got %q", f)
	}
	if cfg.Redis.DB < 0 {
		vb.AddErrorf("redis.db must not be negative, got %d", cfg.Redis.DB)
	}
	return vb.Build()
}

// ListFile is the endpoint list read at the start of a run.
func (c *Config) ListFile() string {
	return filepath.Join(c.ListPath, ListFileName)
}

// InventoryFile is the CSV inventory produced by a run.
func (c *Config) InventoryFile() string {
	return filepath.Join(c.OutputPath, InventoryFileName)
}

// FailedFile lists the endpoints whose requests failed.
func (c *Config) FailedFile() string {
	return filepath.Join(c.OutputPath, FailedFileName)
}

// ChangeLogFile records every compliance correction applied.
func (c *Config) ChangeLogFile() string {
	return filepath.Join(c.OutputPath, ChangeLogFileName)
}

// AuditLogFile is the persistent JSON-lines audit log. Unlike the run
// outputs it accumulates across runs.
func (c *Config) AuditLogFile() string {
	if c.AuditLog != "" {
		return c.AuditLog
	}
	return filepath.Join(c.OutputPath, AuditLogFileName)
}
