package master

import (
	"cadence/internal/script"
	"cadence/internal/timing"
)

// DeriveCoarse accumulates measured chunk durations into per-line timing
// segments. Chunks must already be in ascending chunk-id order; consecutive
// chunks of the same line merge into one segment carrying the line's
// original text. Crossfaded joins overlap in real time, so the overlap is
// subtracted before the next chunk starts. Timestamps are never rescaled to
// a separately measured total.
func DeriveCoarse(chunks []ChunkArtifact, lines []script.Line, crossfadeSeconds float64) []timing.Segment {
	var segments []timing.Segment
	current := 0.0
	lastLine := -1

	for i, chunk := range chunks {
		start := current
		end := start + chunk.DurationSeconds

		if chunk.LineIndex == lastLine && len(segments) > 0 {
			segments[len(segments)-1].End = end
		} else {
			segment := timing.Segment{Speaker: chunk.Speaker, Start: start, End: end}
			if chunk.LineIndex >= 0 && chunk.LineIndex < len(lines) {
				segment.Text = lines[chunk.LineIndex].Text
				segment.Speaker = lines[chunk.LineIndex].Speaker
			}
			segments = append(segments, segment)
			lastLine = chunk.LineIndex
		}

		current = end
		if i < len(chunks)-1 {
			current -= crossfadeSeconds
		}
	}
	return segments
}
