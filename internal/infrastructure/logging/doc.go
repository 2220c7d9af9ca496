// Package logging provides structured logging for Measurand.
//
// It wraps log/slog with service defaults so every line carries the
// service name and version alongside handler-specific attributes.
package logging
