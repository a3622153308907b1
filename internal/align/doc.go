// Package align reconciles the mastered audio against the script by fuzzy
// matching a transcription back onto the dialogue lines. The search cursor
// only moves forward through the transcription, which keeps matches monotonic
// even when the script repeats a phrase. Lines that fail to match still get a
// segment, placed by a reading-rate estimate with zero confidence.
package align
