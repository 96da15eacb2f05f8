// Package logging provides structured logging for the Gray Logic bridges.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the entire application.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Security
//
// Never log cloud passwords, access tokens, refresh tokens, or API keys.
// Use Redact when a token needs to be correlated across log lines:
//
//	logger.Debug("token refreshed", "access_token", logging.Redact(tok))
package logging
