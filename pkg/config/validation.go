package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks a fully-defaulted Config for structural correctness.
// Load calls this after ApplyDefaults, so validation tags only need to
// guard values a user can actually get wrong in a config file.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(verrs)
		}
		return err
	}
	if err := validateTelemetry(&cfg.Telemetry); err != nil {
		return err
	}
	return validateCapsuleStore(&cfg.CapsuleStore)
}

func validateTelemetry(cfg *TelemetryConfig) error {
	if cfg.Enabled && cfg.Endpoint == "" {
		return fmt.Errorf("telemetry.endpoint is required when telemetry is enabled")
	}
	return nil
}

func formatValidationErrors(verrs validator.ValidationErrors) error {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q validation", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}

func validateCapsuleStore(cfg *CapsuleStoreConfig) error {
	switch cfg.Backend {
	case "badger":
		if cfg.Badger.Path == "" {
			return fmt.Errorf("capsule_store.badger.path is required when backend is badger")
		}
	case "postgres":
		switch cfg.Postgres.Type {
		case "sqlite":
			if cfg.Postgres.SQLitePath == "" {
				return fmt.Errorf("capsule_store.postgres.sqlite_path is required when postgres.type is sqlite")
			}
		case "postgres":
			if cfg.Postgres.Host == "" || cfg.Postgres.Database == "" {
				return fmt.Errorf("capsule_store.postgres.host and database are required when postgres.type is postgres")
			}
		default:
			return fmt.Errorf("capsule_store.postgres.type must be sqlite or postgres, got %q", cfg.Postgres.Type)
		}
	}
	return nil
}
