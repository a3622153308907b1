// Package pipeline orchestrates a full episode render: script chunking,
// sequential synthesis through the chunk store, mastering, transcription
// alignment, subtitle optimization, and the manifest record. Per-chunk and
// per-stage failures degrade locally; only a run that produces no audio at
// all fails the episode.
package pipeline
