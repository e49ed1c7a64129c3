// Package api implements the maintenance HTTP surface: alert status and
// control, radio control, the SSE telemetry stream, health, and metrics.
// Every response uses the unified envelope from response.go.
package api
