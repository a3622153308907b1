// Package textmatch scores how closely two strings resemble each other. The
// aligner uses it to compare canonicalized transcription windows against
// script lines.
package textmatch
