// Package textnorm rewrites raw dialogue text into a form the voice engine
// pronounces correctly and splits overlong lines into bounded chunks.
//
// Normalization decodes HTML entities, substitutes symbols with spoken words,
// and converts known English terms to katakana via dictionary lookup. Unknown
// words are left untouched rather than guessed at. Normalize is idempotent so
// already-normalized text passes through unchanged.
//
// Canonical produces the stripped-down comparison form shared by synthesis
// and transcription alignment.
package textnorm
