// Package logger provides structured logging for lexdesk.
//
//   - logger.go: slog-based Logger with a process-wide dynamic level
//   - context.go: request ID propagation
//   - redact.go: masking of bearer tokens, JWTs and credential fields
//
// Every handler created by New runs attributes through the redactor, so a
// token or password passed as a log argument never reaches the output.
package logger
