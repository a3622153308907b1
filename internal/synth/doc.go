// Package synth turns one normalized text chunk into one audio file through a
// configured voice engine backend.
//
// Three interchangeable backends implement the Engine interface: a local
// VOICEVOX server, a cloud TTS API with key rotation and request pacing, and
// a basic cloud fallback. The backend is selected once at startup; the rest
// of the renderer is engine-agnostic. Every failure is reported as a typed
// ChunkError so one bad chunk never aborts an episode.
package synth
