package stt

import "context"

// Token is one timestamped transcription unit, word-level when the engine
// provides word timings and segment-level otherwise.
type Token struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Transcriber produces timestamped tokens for an audio file. An empty token
// list is a valid result meaning the engine heard nothing usable.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, workDir string) ([]Token, error)
}
