// Package master assembles synthesized chunks into the delivered episode
// audio. It concatenates chunks in chunk-id order (with an optional
// crossfade), trims edge silence, applies two-pass loudness normalization,
// encodes the delivery file, and derives the coarse timing table from
// measured chunk durations. Every ffmpeg sub-step degrades to a simpler
// strategy on failure instead of aborting the episode.
package master
