package config

import (
	"strings"
	"time"

	"github.com/memvault/memvault/internal/bytesize"
)

// GetDefaultConfig returns a complete, valid Config with every field
// defaulted. Used when no config file is found.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills in zero-valued fields of cfg with sensible defaults.
// Called after unmarshaling a config file, so user-supplied values are
// always preserved and only genuinely unset fields are touched.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}

	applyAPIDefaults(&cfg.API)
	applyMetricsDefaults(&cfg.Metrics)
	applyCapsuleStoreDefaults(&cfg.CapsuleStore)
	applyBlobStoreDefaults(&cfg.BlobStore)
	applyUploadDefaults(&cfg.Upload)
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)
	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 0.1
	}
	applyProfilingDefaults(&cfg.Profiling)
}

func applyProfilingDefaults(cfg *ProfilingConfig) {
	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = []string{"cpu", "alloc_objects", "alloc_space"}
	}
}

func applyAPIDefaults(cfg *APIConfig) {
	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 60 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 120 * time.Second
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
}

func applyCapsuleStoreDefaults(cfg *CapsuleStoreConfig) {
	if cfg.Backend == "" {
		cfg.Backend = "memory"
	}
	if cfg.InlineBudget == 0 {
		cfg.InlineBudget = 2 * bytesize.MiB
	}

	if cfg.Backend == "badger" && cfg.Badger.Path == "" {
		cfg.Badger.Path = "/var/lib/memvault/catalog"
	}

	applyPostgresDefaults(&cfg.Postgres)
}

func applyPostgresDefaults(cfg *PostgresConfig) {
	if cfg.Type == "" {
		cfg.Type = "sqlite"
	}
	if cfg.Type == "sqlite" && cfg.SQLitePath == "" {
		cfg.SQLitePath = "/var/lib/memvault/catalog.db"
	}
	if cfg.Type == "postgres" {
		if cfg.Port == 0 {
			cfg.Port = 5432
		}
		if cfg.SSLMode == "" {
			cfg.SSLMode = "disable"
		}
	}
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 25
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 5
	}
}

func applyBlobStoreDefaults(cfg *BlobStoreConfig) {
	if cfg.Backend == "" {
		cfg.Backend = "memory"
	}
	if cfg.Backend == "fs" && cfg.FS.BasePath == "" {
		cfg.FS.BasePath = "/var/lib/memvault/blobs.region"
	}
	if cfg.Backend == "fs" && cfg.FS.RegionSize == 0 {
		cfg.FS.RegionSize = bytesize.ByteSize(64 * 1024 * 1024 * 1024)
	}
	if cfg.Backend == "s3" && cfg.S3.MaxRetries == 0 {
		cfg.S3.MaxRetries = 3
	}
}

func applyUploadDefaults(cfg *UploadConfig) {
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.TTLSweepInterval == 0 {
		cfg.TTLSweepInterval = 5 * time.Minute
	}
}
