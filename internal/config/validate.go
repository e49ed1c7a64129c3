package config

import "fmt"

// Validate checks the merged configuration for internally consistent
// values before any component is constructed from it.
func Validate(cfg *Config) error {
	if cfg.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if cfg.Server.ReadTimeoutSec <= 0 {
		return fmt.Errorf("server.readTimeoutSec must be positive, got %d", cfg.Server.ReadTimeoutSec)
	}
	if cfg.Server.ShutdownTimeoutSec <= 0 {
		return fmt.Errorf("server.shutdownTimeoutSec must be positive, got %d", cfg.Server.ShutdownTimeoutSec)
	}

	switch cfg.Auth.Mode {
	case "none":
	case "hs256":
		if cfg.Auth.HS256Secret == "" {
			return fmt.Errorf("auth.hs256Secret is required for hs256 mode")
		}
	case "rs256":
		if cfg.Auth.PublicKeyFile == "" {
			return fmt.Errorf("auth.publicKeyFile is required for rs256 mode")
		}
	default:
		return fmt.Errorf("auth.mode must be none, hs256, or rs256, got %q", cfg.Auth.Mode)
	}

	switch cfg.Platform.Driver {
	case "sim":
	case "modbus":
		if cfg.Platform.Modbus.Endpoint == "" {
			return fmt.Errorf("platform.modbus.endpoint is required for modbus driver")
		}
		if cfg.Platform.Modbus.TimeoutMs <= 0 {
			return fmt.Errorf("platform.modbus.timeoutMs must be positive, got %d", cfg.Platform.Modbus.TimeoutMs)
		}
	default:
		return fmt.Errorf("platform.driver must be sim or modbus, got %q", cfg.Platform.Driver)
	}

	if cfg.Platform.LinkPollSec <= 0 {
		return fmt.Errorf("platform.linkPollSec must be positive, got %d", cfg.Platform.LinkPollSec)
	}

	if cfg.Telemetry.BufferSize <= 0 {
		return fmt.Errorf("telemetry.bufferSize must be positive, got %d", cfg.Telemetry.BufferSize)
	}
	if cfg.Telemetry.HeartbeatSec <= 0 {
		return fmt.Errorf("telemetry.heartbeatSec must be positive, got %d", cfg.Telemetry.HeartbeatSec)
	}

	if cfg.Audit.Dir == "" {
		return fmt.Errorf("audit.dir must not be empty")
	}

	return nil
}
