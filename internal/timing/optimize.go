package timing

import (
	"sort"
	"unicode/utf8"

	"cadence/internal/textnorm"
)

// Limits are the display constraints the optimizer enforces.
type Limits struct {
	MinDisplaySeconds  float64
	MaxDisplaySeconds  float64
	MaxCharsPerSegment int
	MaxCharsPerSecond  float64
	OverlapGapSeconds  float64
}

// Optimize produces the final renderer-facing table: overlong text is split
// into sequential segments, every segment's duration is forced into the
// [min, max] display window, implied reading speed is capped by extending end
// times, and a left-to-right sweep removes overlaps. Start times are never
// moved backward. The result is sorted by start.
func Optimize(segments []Segment, limits Limits) []Segment {
	out := make([]Segment, 0, len(segments))
	for _, seg := range segments {
		if limits.MaxCharsPerSegment > 0 && utf8.RuneCountInString(seg.Text) > limits.MaxCharsPerSegment {
			out = append(out, splitLong(seg, limits)...)
			continue
		}
		out = append(out, boundDuration(seg, limits))
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return fixOverlaps(out, limits)
}

// boundDuration extends end for the display floor and the reading-speed cap,
// then clips to the display ceiling. Start is left alone.
func boundDuration(seg Segment, limits Limits) Segment {
	duration := seg.End - seg.Start
	if duration < limits.MinDisplaySeconds {
		duration = limits.MinDisplaySeconds
	}
	if limits.MaxCharsPerSecond > 0 {
		if needed := float64(utf8.RuneCountInString(seg.Text)) / limits.MaxCharsPerSecond; needed > duration {
			duration = needed
		}
	}
	if limits.MaxDisplaySeconds > 0 && duration > limits.MaxDisplaySeconds {
		duration = limits.MaxDisplaySeconds
	}
	seg.End = seg.Start + duration
	return seg
}

// splitLong cuts an overlong segment at sentence boundaries and distributes
// the original duration proportionally by character count. Each piece is then
// bounded on its own, so the combined span can grow past the original when
// the floor kicks in.
func splitLong(seg Segment, limits Limits) []Segment {
	pieces := textnorm.SplitChunks(seg.Text, limits.MaxCharsPerSegment, 0)
	if len(pieces) <= 1 {
		return []Segment{boundDuration(seg, limits)}
	}

	total := 0
	for _, piece := range pieces {
		total += utf8.RuneCountInString(piece)
	}

	duration := seg.End - seg.Start
	out := make([]Segment, 0, len(pieces))
	current := seg.Start
	for _, piece := range pieces {
		share := duration * float64(utf8.RuneCountInString(piece)) / float64(total)
		sub := boundDuration(Segment{
			Speaker:    seg.Speaker,
			Text:       piece,
			Start:      current,
			End:        current + share,
			Confidence: seg.Confidence,
		}, limits)
		out = append(out, sub)
		current = sub.End
	}
	return out
}

// fixOverlaps pushes each segment's start past its predecessor's end, with a
// small gap, and re-floors any duration the push shortened.
func fixOverlaps(segments []Segment, limits Limits) []Segment {
	for i := 1; i < len(segments); i++ {
		prevEnd := segments[i-1].End
		if segments[i].Start < prevEnd {
			segments[i].Start = prevEnd + limits.OverlapGapSeconds
		}
		if segments[i].End-segments[i].Start < limits.MinDisplaySeconds {
			segments[i].End = segments[i].Start + limits.MinDisplaySeconds
		}
	}
	return segments
}
