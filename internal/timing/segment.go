package timing

import (
	"unicode/utf8"

	"cadence/internal/script"
)

// Segment is one entry in the subtitle timing table. Text carries the
// original authored wording; the phonetic form used for synthesis never
// reaches subtitles.
type Segment struct {
	Speaker script.Role `json:"speaker"`
	Text    string      `json:"text"`
	Start   float64     `json:"start"`
	End     float64     `json:"end"`

	// Confidence is the transcription match score in [0,1]. Zero means the
	// segment was placed by estimate, not matched against a transcription.
	Confidence float64 `json:"confidence"`
}

// Duration returns the display duration in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// CharsPerSecond returns the implied reading speed. A floor on the duration
// keeps degenerate segments from producing infinities.
func (s Segment) CharsPerSecond() float64 {
	duration := s.Duration()
	if duration < 0.1 {
		duration = 0.1
	}
	return float64(utf8.RuneCountInString(s.Text)) / duration
}

// TotalEnd returns the end time of the last segment, or zero for an empty
// table.
func TotalEnd(segments []Segment) float64 {
	if len(segments) == 0 {
		return 0
	}
	return segments[len(segments)-1].End
}
