// Package logger provides structured logging for redikv.
//
// It wraps the standard library log/slog:
//
//   - logger.go: handler setup, level control and the process-wide default
//   - context.go: loggers carried in a context, connection id enrichment
//   - redact.go: masking of stored values and secrets in log attributes
//
// The level lives in a shared slog.LevelVar so it can be changed at runtime,
// for example when the config file is edited.
package logger
