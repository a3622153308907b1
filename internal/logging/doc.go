// Package logging assembles the structured slog loggers used across Cadence.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and defines the standard field names so renderer stages tag log
// lines consistently (episode, chunk, stage). The package also provides a
// no-op logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits data with the same shape.
package logging
