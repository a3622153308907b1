// Package ffprobe provides a typed wrapper around ffprobe JSON output for
// audio files.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Prober: injectable duration-measurement function used by higher layers
//
// Primary entry point:
//   - Inspect: executes ffprobe and returns a parsed Result
//
// The renderer only needs durations and sample rates, so the stream model is
// audio-focused.
package ffprobe
