package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// configTemplate is the scaffold written by InitConfig / InitConfigToPath.
// It documents every section with its default value so operators can see
// what they're overriding, except that it turns metrics on.
const configTemplate = `# Memvault Configuration File
#
# This file configures memvaultd. Uncomment and adjust values as needed;
# anything left commented falls back to its default.

logging:
  level: "INFO"      # DEBUG, INFO, WARN, ERROR
  format: "text"      # text, json
  output: "stdout"    # stdout, stderr, or a file path

telemetry:
  enabled: false
  endpoint: ""
  insecure: false
  sample_rate: 0.1
  profiling:
    enabled: false
    endpoint: ""

shutdown_timeout: 30s

api:
  host: "0.0.0.0"
  port: 8080
  read_timeout: 30s
  write_timeout: 60s
  idle_timeout: 120s

metrics:
  enabled: true
  port: 9090

capsule_store:
  backend: memory   # memory, badger, postgres
  inline_budget: 2Mi
  badger:
    path: "/var/lib/memvault/catalog"
  postgres:
    type: sqlite    # sqlite, postgres
    sqlite_path: "/var/lib/memvault/catalog.db"

blob_store:
  backend: memory   # memory, fs, s3
  fs:
    base_path: "/var/lib/memvault/blobs.region"
  s3:
    bucket: ""
    region: ""

upload:
  session_ttl: 24h
  ttl_sweep_interval: 5m
`

// InitConfig writes a scaffold config file to the default location.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes a scaffold config file to path. It refuses to
// overwrite an existing file unless force is true.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
