package timing

// Comfortable Japanese reading speed bottoms out around 15 chars/sec; slower
// segments are only worth a warning, never an adjustment.
const minComfortableCharsPerSecond = 15.0

// Report summarizes subtitle quality for logging after optimization.
type Report struct {
	TotalSegments      int
	TooFast            int
	TooSlow            int
	TooShort           int
	TooLong            int
	LowConfidence      int
	AvgCharsPerSecond  float64
	AvgDurationSeconds float64
}

// Passed reports whether no segment violates a hard constraint. Slow and
// long segments are soft warnings and do not fail the report.
func (r Report) Passed() bool {
	return r.TooFast == 0 && r.TooShort == 0
}

// Inspect scores a timing table against the display limits. Segments with
// confidence below lowConfidence count toward LowConfidence; pass a negative
// threshold to skip that check when no alignment ran.
func Inspect(segments []Segment, limits Limits, lowConfidence float64) Report {
	report := Report{TotalSegments: len(segments)}
	if len(segments) == 0 {
		return report
	}

	var totalDuration, totalSpeed float64
	for _, seg := range segments {
		duration := seg.Duration()
		speed := seg.CharsPerSecond()
		totalDuration += duration
		totalSpeed += speed

		if limits.MaxCharsPerSecond > 0 && speed > limits.MaxCharsPerSecond {
			report.TooFast++
		} else if speed < minComfortableCharsPerSecond {
			report.TooSlow++
		}
		if duration < limits.MinDisplaySeconds {
			report.TooShort++
		} else if limits.MaxDisplaySeconds > 0 && duration > limits.MaxDisplaySeconds {
			report.TooLong++
		}
		if lowConfidence >= 0 && seg.Confidence < lowConfidence {
			report.LowConfidence++
		}
	}

	report.AvgCharsPerSecond = totalSpeed / float64(len(segments))
	report.AvgDurationSeconds = totalDuration / float64(len(segments))
	return report
}
