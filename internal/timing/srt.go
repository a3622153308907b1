package timing

import (
	"fmt"
	"io"
	"math"
	"strings"
	"unicode/utf8"

	"cadence/internal/textnorm"
)

// DisplayLimits control how segment text is broken into on-screen lines.
type DisplayLimits struct {
	MaxCharsPerLine int
	MaxLines        int
}

// WriteSRT serializes segments as SubRip text. Segments are written in slice
// order with 1-based cue indices.
func WriteSRT(w io.Writer, segments []Segment, display DisplayLimits) error {
	for i, seg := range segments {
		lines := SplitDisplayLines(seg.Text, display)
		_, err := fmt.Fprintf(w, "%d\n%s --> %s\n%s\n\n",
			i+1, srtTimestamp(seg.Start), srtTimestamp(seg.End), strings.Join(lines, "\n"))
		if err != nil {
			return fmt.Errorf("write srt cue %d: %w", i+1, err)
		}
	}
	return nil
}

// SplitDisplayLines breaks subtitle text into display lines, preferring
// punctuation boundaries. Text past the line budget is truncated with an
// ellipsis marker.
func SplitDisplayLines(text string, display DisplayLimits) []string {
	if display.MaxCharsPerLine <= 0 || utf8.RuneCountInString(text) <= display.MaxCharsPerLine {
		return []string{text}
	}
	lines := textnorm.SplitChunks(text, display.MaxCharsPerLine, 0)
	if display.MaxLines > 0 && len(lines) > display.MaxLines {
		lines = lines[:display.MaxLines]
		lines[len(lines)-1] += "..."
	}
	return lines
}

// srtTimestamp renders seconds as HH:MM:SS,mmm.
func srtTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	totalMillis := int64(math.Round(seconds * 1000))
	hours := totalMillis / 3_600_000
	totalMillis -= hours * 3_600_000
	minutes := totalMillis / 60_000
	totalMillis -= minutes * 60_000
	secs := totalMillis / 1000
	millis := totalMillis - secs*1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}
