package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Load merges defaults, the YAML config file, and ESC_* env overrides,
// then validates the result. A missing config file is not an error; an
// unreadable or malformed one is.
func Load() (*Config, error) {
	cfg := Default()

	path := os.Getenv("ESC_CONFIG")
	if path == "" {
		path = "config.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	} else if os.Getenv("ESC_CONFIG") != "" {
		// An explicitly named file must exist.
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides applies ESC_* environment variables to cfg.
// Unparseable values are ignored in favor of the current setting.
func applyEnvOverrides(cfg *Config) {
	setString(&cfg.Server.Addr, "ESC_ADDR")
	setInt(&cfg.Server.ReadTimeoutSec, "ESC_READ_TIMEOUT_SEC")
	setInt(&cfg.Server.IdleTimeoutSec, "ESC_IDLE_TIMEOUT_SEC")
	setInt(&cfg.Server.ShutdownTimeoutSec, "ESC_SHUTDOWN_TIMEOUT_SEC")

	setString(&cfg.Auth.Mode, "ESC_AUTH_MODE")
	setString(&cfg.Auth.HS256Secret, "ESC_AUTH_HS256_SECRET")
	setString(&cfg.Auth.PublicKeyFile, "ESC_AUTH_PUBLIC_KEY_FILE")

	setString(&cfg.Platform.Driver, "ESC_PLATFORM_DRIVER")
	setInt(&cfg.Platform.LinkPollSec, "ESC_LINK_POLL_SEC")
	setString(&cfg.Platform.Modbus.Endpoint, "ESC_MODBUS_ENDPOINT")
	setInt(&cfg.Platform.Modbus.TimeoutMs, "ESC_MODBUS_TIMEOUT_MS")
	if val := os.Getenv("ESC_MODBUS_UNIT_ID"); val != "" {
		if id, err := strconv.ParseUint(val, 10, 8); err == nil {
			cfg.Platform.Modbus.UnitID = uint8(id)
		}
	}

	setInt(&cfg.Telemetry.BufferSize, "ESC_TELEMETRY_BUFFER")
	setInt(&cfg.Telemetry.HeartbeatSec, "ESC_TELEMETRY_HEARTBEAT_SEC")

	setString(&cfg.Audit.Dir, "ESC_AUDIT_DIR")
	setInt(&cfg.Audit.MaxSizeMB, "ESC_AUDIT_MAX_SIZE_MB")
	setInt(&cfg.Audit.MaxBackups, "ESC_AUDIT_MAX_BACKUPS")
	setInt(&cfg.Audit.MaxAgeDays, "ESC_AUDIT_MAX_AGE_DAYS")

	setString(&cfg.Logging.Level, "ESC_LOG_LEVEL")
}

func setString(dst *string, key string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func setInt(dst *int, key string) {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
		}
	}
}
