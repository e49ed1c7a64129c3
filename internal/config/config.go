package config

import "time"

// Config is the complete container configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Platform  PlatformConfig  `yaml:"platform"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Audit     AuditConfig     `yaml:"audit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds the maintenance API server settings.
type ServerConfig struct {
	Addr               string `yaml:"addr"`
	ReadTimeoutSec     int    `yaml:"readTimeoutSec"`
	IdleTimeoutSec     int    `yaml:"idleTimeoutSec"`
	ShutdownTimeoutSec int    `yaml:"shutdownTimeoutSec"`
}

// AuthConfig holds bearer token verification settings.
// Mode is one of "hs256", "rs256", or "none" (bench only).
type AuthConfig struct {
	Mode          string `yaml:"mode"`
	HS256Secret   string `yaml:"hs256Secret"`
	PublicKeyFile string `yaml:"publicKeyFile"`
}

// PlatformConfig selects and configures the hardware hook driver.
// Driver is "sim" or "modbus".
type PlatformConfig struct {
	Driver      string       `yaml:"driver"`
	LinkPollSec int          `yaml:"linkPollSec"`
	Modbus      ModbusConfig `yaml:"modbus"`
}

// ModbusConfig holds the I/O concentrator endpoint settings.
type ModbusConfig struct {
	Endpoint  string `yaml:"endpoint"`
	UnitID    uint8  `yaml:"unitId"`
	TimeoutMs int    `yaml:"timeoutMs"`
}

// TelemetryConfig holds SSE hub settings.
type TelemetryConfig struct {
	BufferSize   int `yaml:"bufferSize"`
	HeartbeatSec int `yaml:"heartbeatSec"`
}

// AuditConfig holds the rotating action log settings.
type AuditConfig struct {
	Dir        string `yaml:"dir"`
	MaxSizeMB  int    `yaml:"maxSizeMb"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
}

// LoggingConfig holds application log settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

// Default returns the built-in baseline configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:               ":8000",
			ReadTimeoutSec:     30,
			IdleTimeoutSec:     120,
			ShutdownTimeoutSec: 30,
		},
		Auth: AuthConfig{
			Mode: "none",
		},
		Platform: PlatformConfig{
			Driver:      "sim",
			LinkPollSec: 5,
			Modbus: ModbusConfig{
				Endpoint:  "127.0.0.1:1502",
				UnitID:    1,
				TimeoutMs: 1000,
			},
		},
		Telemetry: TelemetryConfig{
			BufferSize:   64,
			HeartbeatSec: 15,
		},
		Audit: AuditConfig{
			Dir:        "logs",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
		},
	}
}

// ReadTimeout returns the server read timeout as a duration.
func (c *ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSec) * time.Second
}

// IdleTimeout returns the server idle timeout as a duration.
func (c *ServerConfig) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutSec) * time.Second
}

// ShutdownTimeout returns the graceful shutdown budget as a duration.
func (c *ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSec) * time.Second
}

// LinkPollInterval returns the link monitor poll period.
func (c *PlatformConfig) LinkPollInterval() time.Duration {
	return time.Duration(c.LinkPollSec) * time.Second
}

// Timeout returns the modbus transport timeout.
func (c *ModbusConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// HeartbeatInterval returns the SSE heartbeat period.
func (c *TelemetryConfig) HeartbeatInterval() time.Duration {
	return time.Duration(c.HeartbeatSec) * time.Second
}
