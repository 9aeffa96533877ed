// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config represents the main configuration
type Config struct {
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
	Indexer IndexerConfig `yaml:"indexer" toml:"indexer"`
	Source  SourceConfig  `yaml:"source" toml:"source"`
	Cache   CacheConfig   `yaml:"cache" toml:"cache"`
	Batch   BatchConfig   `yaml:"batch" toml:"batch"`
}

// LoggingConfig contains logger configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`   // "debug", "info", "warn", "error"
	Format string `yaml:"format" toml:"format"` // "json" or "text"
}

// IndexerConfig seeds the settings store and holds static extractor values.
type IndexerConfig struct {
	// SettingsFile is an optional TOML settings file. Its values win over
	// the seeds below.
	SettingsFile  string   `yaml:"settings_file" toml:"settings_file"`
	Enabled       []string `yaml:"enabled" toml:"enabled"`
	MaxFileSize   string   `yaml:"max_file_size" toml:"max_file_size"`
	MaxTextLength string   `yaml:"max_text_length" toml:"max_text_length"`
	// Extra lists extractor ids appended to the default registry order,
	// e.g. "html" or "pdfcpu".
	Extra []string `yaml:"extra" toml:"extra"`
	// Extractors seeds per-extractor settings keyed by extractor id.
	Extractors map[string]map[string]string `yaml:"extractors" toml:"extractors"`
	// Static holds values only this file may set, keyed by extractor id.
	Static map[string]map[string]string `yaml:"static" toml:"static"`
}

// SourceConfig contains file source configuration
type SourceConfig struct {
	Type       string `yaml:"type" toml:"type"` // "filesystem" (default), "memory" or "s3"
	BaseDir    string `yaml:"base_dir" toml:"base_dir"`
	S3Bucket   string `yaml:"s3_bucket" toml:"s3_bucket"`
	S3Region   string `yaml:"s3_region" toml:"s3_region"`
	S3Prefix   string `yaml:"s3_prefix" toml:"s3_prefix"`
	S3Endpoint string `yaml:"s3_endpoint" toml:"s3_endpoint"` // for MinIO and other S3-compatible stores
}

// CacheConfig contains extraction result cache configuration
type CacheConfig struct {
	Type string `yaml:"type" toml:"type"` // "none" (default), "memory", "sqlite" or "postgres"
	Path string `yaml:"path" toml:"path"` // sqlite database file
	DSN  string `yaml:"dsn" toml:"dsn"`   // postgres connection string
}

// BatchConfig contains batch runner configuration
type BatchConfig struct {
	Workers int `yaml:"workers" toml:"workers"`
	// RateLimit caps extractions per second, 0 means unlimited.
	RateLimit float64 `yaml:"rate_limit" toml:"rate_limit"`
	// Output is the JSON lines result file, "-" for stdout.
	Output string `yaml:"output" toml:"output"`
	// Debounce is the watch mode quiet period, e.g. "500ms".
	Debounce string `yaml:"debounce" toml:"debounce"`
}

// DebounceDuration parses Debounce, falling back to 500ms.
func (b BatchConfig) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(b.Debounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

// Load loads configuration from a YAML or TOML file, chosen by extension
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	default:
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	return &cfg, nil
}

// Default returns default configuration
func Default() *Config {
	var cfg Config
	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg
}

// applyEnv overrides file values with environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("FILEINDEXER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("FILEINDEXER_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("FILEINDEXER_SETTINGS_FILE"); v != "" {
		cfg.Indexer.SettingsFile = v
	}
	if v := os.Getenv("PDFTOTEXT_BINARY"); v != "" {
		if cfg.Indexer.Static == nil {
			cfg.Indexer.Static = make(map[string]map[string]string)
		}
		if cfg.Indexer.Static["pdf_to_text"] == nil {
			cfg.Indexer.Static["pdf_to_text"] = make(map[string]string)
		}
		cfg.Indexer.Static["pdf_to_text"]["binary"] = v
	}

	// Source env overrides
	if v := os.Getenv("S3_BUCKET"); v != "" {
		cfg.Source.S3Bucket = v
		cfg.Source.Type = "s3"
	}
	if v := os.Getenv("S3_ENDPOINT"); v != "" {
		cfg.Source.S3Endpoint = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" && cfg.Source.S3Region == "" {
		cfg.Source.S3Region = v
	}

	// Cache env overrides
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Cache.DSN = v
		cfg.Cache.Type = "postgres"
	}

	if v := os.Getenv("FILEINDEXER_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Batch.Workers = n
		}
	}
}

func applyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applySourceDefaults(&cfg.Source)
	applyCacheDefaults(&cfg.Cache)
	applyBatchDefaults(&cfg.Batch)
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Format == "" {
		cfg.Format = "text"
	}
}

func applySourceDefaults(cfg *SourceConfig) {
	if cfg.Type == "" {
		cfg.Type = "filesystem"
	}
	if cfg.Type == "filesystem" && cfg.BaseDir == "" {
		cfg.BaseDir = "."
	}
}

func applyCacheDefaults(cfg *CacheConfig) {
	if cfg.Type == "" {
		cfg.Type = "none"
	}
	if cfg.Type == "sqlite" && cfg.Path == "" {
		cfg.Path = "fileindexer.db"
	}
}

func applyBatchDefaults(cfg *BatchConfig) {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Output == "" {
		cfg.Output = "-"
	}
}
