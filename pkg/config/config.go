// Package config loads and validates memvaultd's static configuration:
// logging, telemetry, the capsule-store and blob-store backends, the API
// server, and metrics. Dynamic state (capsules, memories, shares) lives in
// the stores themselves, not in this file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/memvault/memvault/internal/bytesize"
)

// Config is memvaultd's static configuration.
//
// Configuration sources, in order of precedence:
//  1. Environment variables (MEMVAULT_*)
//  2. Configuration file (YAML)
//  3. Default values
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// ShutdownTimeout bounds how long the daemon waits for in-flight
	// requests to drain before a forced exit.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	API     APIConfig     `mapstructure:"api" yaml:"api"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	CapsuleStore CapsuleStoreConfig `mapstructure:"capsule_store" yaml:"capsule_store"`
	BlobStore    BlobStoreConfig    `mapstructure:"blob_store" yaml:"blob_store"`

	Upload UploadConfig `mapstructure:"upload" yaml:"upload"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format is "text" or "json".
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output is "stdout", "stderr", or a file path.
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
type TelemetryConfig struct {
	Enabled    bool            `mapstructure:"enabled" yaml:"enabled"`
	Endpoint   string          `mapstructure:"endpoint" yaml:"endpoint"`
	Insecure   bool            `mapstructure:"insecure" yaml:"insecure"`
	SampleRate float64         `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`
	Profiling  ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	Enabled      bool     `mapstructure:"enabled" yaml:"enabled"`
	Endpoint     string   `mapstructure:"endpoint" yaml:"endpoint"`
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// APIConfig configures the REST API server.
type APIConfig struct {
	Host         string        `mapstructure:"host" yaml:"host"`
	Port         int           `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// CapsuleStoreConfig selects and configures the capsule/memory catalog
// backend.
type CapsuleStoreConfig struct {
	// Backend is "memory", "badger", or "postgres".
	Backend string `mapstructure:"backend" validate:"required,oneof=memory badger postgres" yaml:"backend"`

	// InlineBudget is CAPSULE_INLINE_BUDGET in bytes.
	InlineBudget bytesize.ByteSize `mapstructure:"inline_budget" yaml:"inline_budget"`

	Badger   BadgerConfig   `mapstructure:"badger" yaml:"badger"`
	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres"`
}

// BadgerConfig configures the BadgerDB-backed capsule store.
type BadgerConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// PostgresConfig configures the GORM-backed capsule store. Type selects
// "sqlite" (single-node default) or "postgres" (HA-capable) within pgstore.
type PostgresConfig struct {
	Type     string `mapstructure:"type" yaml:"type"`
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`

	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Database string `mapstructure:"database" yaml:"database"`
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`
	SSLMode  string `mapstructure:"ssl_mode" yaml:"ssl_mode"`

	MaxOpenConns int `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns int `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
}

// BlobStoreConfig selects and configures the blob region backend.
type BlobStoreConfig struct {
	// Backend is "memory", "fs", or "s3".
	Backend string `mapstructure:"backend" validate:"required,oneof=memory fs s3" yaml:"backend"`

	FS FSBlobConfig `mapstructure:"fs" yaml:"fs"`
	S3 S3BlobConfig `mapstructure:"s3" yaml:"s3"`
}

// FSBlobConfig configures the filesystem-backed blob region.
type FSBlobConfig struct {
	// BasePath is the path to the single pre-allocated backing file.
	BasePath string `mapstructure:"base_path" yaml:"base_path"`

	// RegionSize is the backing file's pre-allocated size.
	RegionSize bytesize.ByteSize `mapstructure:"region_size" yaml:"region_size"`
}

// S3BlobConfig configures the S3-backed blob region.
type S3BlobConfig struct {
	Bucket     string `mapstructure:"bucket" yaml:"bucket"`
	Region     string `mapstructure:"region" yaml:"region"`
	Prefix     string `mapstructure:"prefix" yaml:"prefix,omitempty"`
	Endpoint   string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	MaxRetries int    `mapstructure:"max_retries" yaml:"max_retries"`
}

// UploadConfig tunes upload-session bookkeeping that isn't a protocol
// invariant (chunk size and hard limits stay fixed in pkg/upload).
type UploadConfig struct {
	// SessionTTL is how long an inactive session may sit idle before
	// TickTTL reaps it.
	SessionTTL time.Duration `mapstructure:"session_ttl" yaml:"session_ttl"`

	// TTLSweepInterval is how often the daemon invokes TickTTL.
	TTLSweepInterval time.Duration `mapstructure:"ttl_sweep_interval" yaml:"ttl_sweep_interval"`
}

// Load loads configuration from file, environment, and defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !configFileFound {
		return GetDefaultConfig(), nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages when the file is
// missing at the given (or default) path.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  memvaultctl init\n\n"+
				"Or specify a custom config file:\n"+
				"  memvaultd --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s\n\n"+
			"Please create the configuration file:\n"+
			"  memvaultctl init --config %s",
			configPath, configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfig saves the configuration to the specified file path in YAML.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("MEMVAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		configDir := getConfigDir()
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
	)
}

// byteSizeDecodeHook converts strings and numbers to bytesize.ByteSize, so
// config files can use human-readable sizes like "10Mi" or plain numbers.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// durationDecodeHook converts strings to time.Duration, so config files can
// use human-readable durations like "30s" or "5m".
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "memvault")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "memvault")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether a config file exists at the default
// location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}
