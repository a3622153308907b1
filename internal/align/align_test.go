package align

import (
	"math"
	"testing"

	"cadence/internal/config"
	"cadence/internal/script"
	"cadence/internal/stt"
)

func testAlignConfig() config.Align {
	return config.Align{
		Enabled:             true,
		AcceptThreshold:     0.4,
		ConfidentThreshold:  0.85,
		LookaheadTokens:     200,
		SegmentGapSeconds:   0.2,
		ReadingCharsPerSec:  7.0,
		LowConfidenceReport: 0.5,
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAlignMatchesLinesInOrder(t *testing.T) {
	lines := []script.Line{
		{Speaker: script.RolePrimary, Text: "こんにちは"},
		{Speaker: script.RoleSecondary, Text: "はい"},
	}
	tokens := []stt.Token{
		{Text: "こんにちは", Start: 0.0, End: 1.1},
		{Text: "はい", Start: 1.3, End: 1.8},
	}

	segments := New(testAlignConfig(), nil).Align(lines, tokens)
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if !almostEqual(segments[0].Start, 0.0) || !almostEqual(segments[0].End, 1.1) {
		t.Errorf("first segment mistimed: %+v", segments[0])
	}
	if segments[0].Confidence < 0.85 {
		t.Errorf("exact match should be high confidence, got %v", segments[0].Confidence)
	}
	if segments[0].Text != "こんにちは" {
		t.Errorf("segment must carry the original text, got %q", segments[0].Text)
	}
}

func TestAlignForwardOnlyWithRepeatedPhrase(t *testing.T) {
	lines := []script.Line{
		{Speaker: script.RoleSecondary, Text: "はい"},
		{Speaker: script.RolePrimary, Text: "こんにちは"},
		{Speaker: script.RoleSecondary, Text: "はい"},
	}
	tokens := []stt.Token{
		{Text: "はい", Start: 0.0, End: 0.5},
		{Text: "こんにちは", Start: 1.0, End: 2.0},
		{Text: "はい", Start: 3.0, End: 3.5},
	}

	segments := New(testAlignConfig(), nil).Align(lines, tokens)
	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segments))
	}
	// The cursor has passed the first occurrence, so the repeated line must
	// bind to the later one.
	if !almostEqual(segments[2].Start, 3.0) {
		t.Errorf("repeated phrase matched backward: %+v", segments[2])
	}
	for i := 1; i < len(segments); i++ {
		if segments[i].Start < segments[i-1].Start {
			t.Errorf("segment %d: starts must be non-decreasing", i)
		}
	}
}

func TestAlignPlaceholderBelowAcceptThreshold(t *testing.T) {
	lines := []script.Line{
		{Speaker: script.RolePrimary, Text: "こんにちは"},
		{Speaker: script.RoleSecondary, Text: "まったくちがうないよう"},
	}
	tokens := []stt.Token{
		{Text: "こんにちは", Start: 0.0, End: 1.0},
		{Text: "あれれ", Start: 1.0, End: 1.4},
	}

	segments := New(testAlignConfig(), nil).Align(lines, tokens)
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}

	placeholder := segments[1]
	if placeholder.Confidence != 0.0 {
		t.Errorf("placeholder must be zero confidence, got %v", placeholder.Confidence)
	}
	if !almostEqual(placeholder.Start, 1.2) {
		t.Errorf("placeholder should start at previous end plus gap, got %v", placeholder.Start)
	}
	// 11 canonical chars at 7 chars/sec.
	if !almostEqual(placeholder.End, 1.2+11.0/7.0) {
		t.Errorf("placeholder duration should follow the reading rate, got %v", placeholder.End-placeholder.Start)
	}
}

func TestAlignClampsMatchAfterPlaceholder(t *testing.T) {
	lines := []script.Line{
		{Speaker: script.RolePrimary, Text: "こんにちは"},
		{Speaker: script.RoleSecondary, Text: "まったくちがうないよう"},
		{Speaker: script.RolePrimary, Text: "今日は天気です"},
	}
	// The third line's token starts before the placeholder's estimated end.
	tokens := []stt.Token{
		{Text: "こんにちは", Start: 0.0, End: 1.0},
		{Text: "今日は天気です", Start: 1.1, End: 2.3},
	}

	segments := New(testAlignConfig(), nil).Align(lines, tokens)
	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segments))
	}

	placeholder := segments[1]
	if placeholder.Confidence != 0.0 {
		t.Fatalf("middle line should be a placeholder, got %+v", placeholder)
	}

	matched := segments[2]
	if matched.Confidence < 0.85 {
		t.Fatalf("third line should match its token, got %+v", matched)
	}
	if !almostEqual(matched.Start, placeholder.End) {
		t.Errorf("match overlapping a placeholder must start at its end, got %v want %v", matched.Start, placeholder.End)
	}
	// 7 canonical chars at 7 chars/sec once the token span collapses.
	if !almostEqual(matched.End, matched.Start+1.0) {
		t.Errorf("clamped match should fall back to the reading-rate duration, got %+v", matched)
	}
	for i := 1; i < len(segments); i++ {
		if segments[i].Start < segments[i-1].Start {
			t.Errorf("segment %d: starts must be non-decreasing", i)
		}
	}
}

func TestAlignEmptyTranscriptionReturnsNil(t *testing.T) {
	lines := []script.Line{{Speaker: script.RolePrimary, Text: "こんにちは"}}
	if segments := New(testAlignConfig(), nil).Align(lines, nil); segments != nil {
		t.Errorf("expected nil for empty transcription, got %+v", segments)
	}
}

func TestAlignBridgesWidthVariants(t *testing.T) {
	lines := []script.Line{{Speaker: script.RolePrimary, Text: "ＡＩの未来"}}
	tokens := []stt.Token{
		{Text: "AI", Start: 0.0, End: 0.4},
		{Text: "の未来", Start: 0.4, End: 1.2},
	}

	segments := New(testAlignConfig(), nil).Align(lines, tokens)
	if len(segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segments))
	}
	if segments[0].Confidence < 0.85 {
		t.Errorf("width variants should canonicalize to an exact match, got confidence %v", segments[0].Confidence)
	}
	if !almostEqual(segments[0].End, 1.2) {
		t.Errorf("segment should span both tokens, got %+v", segments[0])
	}
}
