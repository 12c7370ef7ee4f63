// Package config loads codetree settings from defaults, an optional config
// file and CODETREE_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override (CODETREE_CACHE_DIR, ...)
const EnvPrefix = "CODETREE"

// Config holds all settings
type Config struct {
	Cache  CacheConfig  `mapstructure:"cache"`
	Parser ParserConfig `mapstructure:"parser"`
	Scan   ScanConfig   `mapstructure:"scan"`
	Output OutputConfig `mapstructure:"output"`
	Log    LogConfig    `mapstructure:"log"`
}

// CacheConfig controls where and how function tables are persisted
type CacheConfig struct {
	Dir           string `mapstructure:"dir"`
	Backend       string `mapstructure:"backend"`        // sqlite | blob
	Key           string `mapstructure:"key"`            // path | fingerprint
	MemoryEntries int    `mapstructure:"memory_entries"` // in-process LRU size for the server
}

// ParserConfig selects the extraction engine and its time budget
type ParserConfig struct {
	Engine       string        `mapstructure:"engine"` // regex | treesitter
	MatchTimeout time.Duration `mapstructure:"match_timeout"`
}

// ScanConfig controls file discovery
type ScanConfig struct {
	Extensions []string `mapstructure:"extensions"`
}

// OutputConfig controls specimen file output
type OutputConfig struct {
	Dir     string `mapstructure:"dir"`
	Workers int    `mapstructure:"workers"`
}

// LogConfig controls logging
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text | json
}

// DefaultConfig returns the built-in settings
func DefaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{
			Dir:           ".cache",
			Backend:       "sqlite",
			Key:           "path",
			MemoryEntries: 16,
		},
		Parser: ParserConfig{
			Engine:       "regex",
			MatchTimeout: time.Second,
		},
		Scan: ScanConfig{
			Extensions: []string{".c", ".h"},
		},
		Output: OutputConfig{
			Dir:     "out",
			Workers: 8,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("cache.dir", d.Cache.Dir)
	v.SetDefault("cache.backend", d.Cache.Backend)
	v.SetDefault("cache.key", d.Cache.Key)
	v.SetDefault("cache.memory_entries", d.Cache.MemoryEntries)
	v.SetDefault("parser.engine", d.Parser.Engine)
	v.SetDefault("parser.match_timeout", d.Parser.MatchTimeout)
	v.SetDefault("scan.extensions", d.Scan.Extensions)
	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.workers", d.Output.Workers)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Load reads configuration. An explicit configFile must exist; otherwise
// codetree.{yaml,json,toml} is looked up in the working directory and in
// ~/.codetree, and a missing file falls back to defaults.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("codetree")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".codetree"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated values and limits
func (c *Config) Validate() error {
	if err := oneOf("cache.backend", c.Cache.Backend, "sqlite", "blob"); err != nil {
		return err
	}
	if err := oneOf("cache.key", c.Cache.Key, "path", "fingerprint"); err != nil {
		return err
	}
	if err := oneOf("parser.engine", c.Parser.Engine, "regex", "treesitter"); err != nil {
		return err
	}
	if err := oneOf("log.format", c.Log.Format, "text", "json"); err != nil {
		return err
	}
	if c.Cache.Dir == "" {
		return &ConfigError{Field: "cache.dir", Message: "must not be empty"}
	}
	if c.Parser.MatchTimeout <= 0 {
		return &ConfigError{Field: "parser.match_timeout", Message: "must be positive"}
	}
	if len(c.Scan.Extensions) == 0 {
		return &ConfigError{Field: "scan.extensions", Message: "at least one extension is required"}
	}
	if c.Output.Workers <= 0 {
		return &ConfigError{Field: "output.workers", Message: "must be positive"}
	}
	return nil
}

func oneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return nil
		}
	}
	return &ConfigError{
		Field:   field,
		Message: fmt.Sprintf("%q is not one of %s", value, strings.Join(allowed, ", ")),
	}
}

// ConfigError represents an invalid configuration value
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
