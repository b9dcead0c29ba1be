// Package logger provides structured logging for the application.
//
// It builds on Go's standard library log/slog package to emit structured JSON
// logs with a configurable level, and carries request-scoped loggers through
// context.Context so handlers and services share correlation attributes.
package logger
