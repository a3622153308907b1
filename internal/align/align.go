package align

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"cadence/internal/config"
	"cadence/internal/logging"
	"cadence/internal/script"
	"cadence/internal/stt"
	"cadence/internal/textmatch"
	"cadence/internal/textnorm"
	"cadence/internal/timing"
)

// Aligner fuzzy-matches dialogue lines onto a timestamped transcription.
type Aligner struct {
	cfg    config.Align
	logger *slog.Logger
}

// New builds an Aligner with the configured thresholds.
func New(cfg config.Align, logger *slog.Logger) *Aligner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Aligner{cfg: cfg, logger: logging.WithComponent(logger, "align")}
}

// candidate is one transcription token with its precomputed canonical form.
type candidate struct {
	canon string
	start float64
	end   float64
}

// Align matches each line in document order against a growing window of
// transcription tokens, scored by sequence similarity on the shared canonical
// form. The window never starts before the cursor left by the previous
// match, so segment starts are non-decreasing even when the script repeats a
// phrase. Returns nil when the transcription is empty, which tells the
// caller to keep the coarse timing.
func (a *Aligner) Align(lines []script.Line, tokens []stt.Token) []timing.Segment {
	candidates := canonicalize(tokens)
	if len(candidates) == 0 {
		a.logger.Info("empty transcription, keeping coarse timing")
		return nil
	}

	segments := make([]timing.Segment, 0, len(lines))
	cursor := 0
	prevEnd := 0.0
	matched := 0
	totalConfidence := 0.0

	for _, line := range lines {
		lineCanon := textnorm.Canonical(line.Text)
		best, ok := a.search(lineCanon, candidates, cursor)
		if !ok {
			segment := a.placeholder(line, lineCanon, prevEnd)
			segments = append(segments, segment)
			prevEnd = segment.End
			continue
		}

		segment := timing.Segment{
			Speaker:    line.Speaker,
			Text:       line.Text,
			Start:      candidates[best.startIdx].start,
			End:        candidates[best.endIdx].end,
			Confidence: best.score,
		}
		// A placeholder's estimated end can run past the next line's true
		// token start. Clamp so starts stay non-decreasing without
		// depending on the downstream optimizer's sort.
		if segment.Start < prevEnd {
			segment.Start = prevEnd
		}
		if segment.End <= segment.Start {
			segment.End = segment.Start + a.estimateDuration(lineCanon)
		}
		segments = append(segments, segment)

		cursor = best.endIdx + 1
		prevEnd = segment.End
		matched++
		totalConfidence += best.score
	}

	if matched > 0 {
		average := totalConfidence / float64(matched)
		a.logger.Info("alignment complete",
			"lines", len(lines), "matched", matched, "average_confidence", average)
		if average < a.cfg.LowConfidenceReport {
			a.logger.Warn("low average alignment confidence", "average_confidence", average)
		}
	} else {
		a.logger.Warn("no line matched the transcription")
	}
	return segments
}

type match struct {
	startIdx int
	endIdx   int
	score    float64
}

// search scans token windows beginning at or after the cursor, within the
// lookahead bound, and returns the best-scoring window. Windows more than
// twice the line length stop growing since the ratio can only fall from
// there. A score at or above the confident threshold returns immediately.
func (a *Aligner) search(lineCanon string, candidates []candidate, cursor int) (match, bool) {
	if lineCanon == "" || cursor >= len(candidates) {
		return match{}, false
	}

	limit := len(candidates)
	if a.cfg.LookaheadTokens > 0 && cursor+a.cfg.LookaheadTokens < limit {
		limit = cursor + a.cfg.LookaheadTokens
	}
	maxWindow := 2 * utf8.RuneCountInString(lineCanon)

	best := match{startIdx: -1}
	for start := cursor; start < limit; start++ {
		var window strings.Builder
		for end := start; end < limit; end++ {
			window.WriteString(candidates[end].canon)
			score := textmatch.Ratio(lineCanon, window.String())
			if score > best.score {
				best = match{startIdx: start, endIdx: end, score: score}
			}
			if score >= a.cfg.ConfidentThreshold {
				return best, true
			}
			if utf8.RuneCountInString(window.String()) > maxWindow {
				break
			}
		}
	}

	if best.startIdx < 0 || best.score < a.cfg.AcceptThreshold {
		return best, false
	}
	return best, true
}

// placeholder places an unmatched line right after the previous segment at
// an estimated reading duration so no line is ever left without timing.
func (a *Aligner) placeholder(line script.Line, lineCanon string, prevEnd float64) timing.Segment {
	start := prevEnd + a.cfg.SegmentGapSeconds
	return timing.Segment{
		Speaker:    line.Speaker,
		Text:       line.Text,
		Start:      start,
		End:        start + a.estimateDuration(lineCanon),
		Confidence: 0.0,
	}
}

func (a *Aligner) estimateDuration(lineCanon string) float64 {
	chars := utf8.RuneCountInString(lineCanon)
	if chars == 0 || a.cfg.ReadingCharsPerSec <= 0 {
		return 0.5
	}
	duration := float64(chars) / a.cfg.ReadingCharsPerSec
	if duration < 0.5 {
		duration = 0.5
	}
	return duration
}

func canonicalize(tokens []stt.Token) []candidate {
	candidates := make([]candidate, 0, len(tokens))
	for _, token := range tokens {
		canon := textnorm.Canonical(token.Text)
		if canon == "" {
			continue
		}
		candidates = append(candidates, candidate{canon: canon, start: token.Start, end: token.End})
	}
	return candidates
}
