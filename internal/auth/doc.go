// Package auth implements bearer token verification for the maintenance
// API. Two roles exist: viewer (read-only status and telemetry) and
// controller (viewer plus alert and radio control actions). Tokens are
// JWTs signed with HS256 or RS256; mode "none" disables verification for
// bench deployments.
package auth
