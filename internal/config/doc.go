// Package config loads, normalizes, and validates Cadence configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob
// the renderer and CLI need: synthesis backend selection, mastering
// parameters, alignment thresholds, and subtitle display limits.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical backend names, and clear validation errors.
package config
