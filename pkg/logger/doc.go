// Package logger builds the service's slog.Logger: text output for local
// environments, JSON in prod, every record tagged with the environment.
package logger
