// Package stt turns mastered episode audio into timestamped transcription
// tokens via a whisper command-line invocation. The aligner consumes the
// tokens; it never cares which model produced them.
package stt
