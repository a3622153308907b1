// Package chunkstore manages the on-disk lifecycle of synthesized audio
// chunks for one episode. A chunk whose file already exists with non-zero
// size is never re-synthesized, which makes interrupted renders resumable.
// A shared content-addressed cache lets identical text/voice pairs reuse
// audio across episodes.
package chunkstore
