// Package logger builds the structured slog loggers shared by both nodes.
// Records carry the deployment environment and the emitting service, and are
// written as text in development and as JSON in production.
package logger
