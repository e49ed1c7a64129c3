// Package config loads the supervision container configuration.
//
// Precedence, lowest to highest: built-in defaults, the YAML config file
// (ESC_CONFIG or ./config.yaml), then ESC_* environment overrides. The
// merged result is validated before use.
package config
