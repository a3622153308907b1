package timing

import (
	"math"
	"strings"
	"testing"

	"cadence/internal/script"
)

func testLimits() Limits {
	return Limits{
		MinDisplaySeconds:  1.0,
		MaxDisplaySeconds:  7.0,
		MaxCharsPerSegment: 40,
		MaxCharsPerSecond:  25,
		OverlapGapSeconds:  0.1,
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestOptimizeExtendsShortSegment(t *testing.T) {
	got := Optimize([]Segment{
		{Speaker: script.RoleSecondary, Text: "短い", Start: 3.0, End: 3.2},
	}, testLimits())

	if len(got) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(got))
	}
	if !almostEqual(got[0].Start, 3.0) {
		t.Errorf("start moved: %v", got[0].Start)
	}
	if !almostEqual(got[0].End, 4.0) {
		t.Errorf("expected end floored to 4.0, got %v", got[0].End)
	}
}

func TestOptimizeSlowsFastReadingSpeed(t *testing.T) {
	text := strings.Repeat("あ", 30)
	got := Optimize([]Segment{
		{Speaker: script.RolePrimary, Text: text, Start: 2.0, End: 2.5},
	}, testLimits())

	// 30 chars at 25 chars/sec needs 1.2s, longer than the 1.0s floor.
	if !almostEqual(got[0].End, 3.2) {
		t.Errorf("expected end 3.2, got %v", got[0].End)
	}
}

func TestOptimizeCapsLongDisplay(t *testing.T) {
	got := Optimize([]Segment{
		{Speaker: script.RolePrimary, Text: "ながいま", Start: 0, End: 20},
	}, testLimits())

	if !almostEqual(got[0].End, 7.0) {
		t.Errorf("expected end capped to 7.0, got %v", got[0].End)
	}
}

func TestOptimizeSplitsOverlongText(t *testing.T) {
	text := strings.Repeat("あ", 90)
	got := Optimize([]Segment{
		{Speaker: script.RolePrimary, Text: text, Start: 0, End: 9, Confidence: 0.8},
	}, testLimits())

	if len(got) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(got))
	}
	var rebuilt strings.Builder
	for _, seg := range got {
		rebuilt.WriteString(seg.Text)
		if seg.Confidence != 0.8 {
			t.Errorf("confidence not carried to split: %v", seg.Confidence)
		}
	}
	if rebuilt.String() != text {
		t.Error("split pieces do not reconstruct the original text")
	}
	// Duration splits proportionally to character count: 40/40/10 over 9s.
	wantEnds := []float64{4.0, 8.0, 9.0}
	for i, want := range wantEnds {
		if !almostEqual(got[i].End, want) {
			t.Errorf("segment %d: expected end %v, got %v", i, want, got[i].End)
		}
	}
}

func TestOptimizeRemovesOverlap(t *testing.T) {
	got := Optimize([]Segment{
		{Speaker: script.RolePrimary, Text: "こんにちは", Start: 0, End: 2},
		{Speaker: script.RoleSecondary, Text: "はい", Start: 1.0, End: 1.2},
	}, testLimits())

	if !almostEqual(got[1].Start, 2.1) {
		t.Errorf("expected second start pushed to 2.1, got %v", got[1].Start)
	}
	if !almostEqual(got[1].End, 3.1) {
		t.Errorf("expected second end re-floored to 3.1, got %v", got[1].End)
	}
}

func TestOptimizeOutputInvariants(t *testing.T) {
	limits := testLimits()

	// Deliberately messy input: overlaps, zero durations, reversed order,
	// text lengths straddling the split budget.
	var input []Segment
	for i := 0; i < 25; i++ {
		start := float64((i * 3) % 11)
		input = append(input, Segment{
			Speaker: script.RolePrimary,
			Text:    strings.Repeat("か", 1+(i*7)%60),
			Start:   start,
			End:     start + float64(i%4)*0.4,
		})
	}

	got := Optimize(input, limits)
	if len(got) == 0 {
		t.Fatal("expected output segments")
	}
	for i, seg := range got {
		duration := seg.End - seg.Start
		if duration < limits.MinDisplaySeconds-1e-9 || duration > limits.MaxDisplaySeconds+1e-9 {
			t.Errorf("segment %d: duration %v outside display bounds", i, duration)
		}
		if i == 0 {
			continue
		}
		if seg.Start < got[i-1].Start {
			t.Errorf("segment %d: starts not sorted", i)
		}
		if seg.Start < got[i-1].End {
			t.Errorf("segment %d: overlaps previous (%v < %v)", i, seg.Start, got[i-1].End)
		}
	}
}

func TestInspectCountsViolations(t *testing.T) {
	segments := []Segment{
		{Text: strings.Repeat("あ", 40), Start: 0, End: 2, Confidence: 0.9},
		{Text: strings.Repeat("あ", 30), Start: 2, End: 3, Confidence: 0.5},
		{Text: "はい", Start: 3, End: 3.5, Confidence: 0.0},
	}

	report := Inspect(segments, testLimits(), 0.4)
	if report.TotalSegments != 3 {
		t.Fatalf("expected 3 segments, got %d", report.TotalSegments)
	}
	if report.TooFast != 1 {
		t.Errorf("expected 1 too-fast segment, got %d", report.TooFast)
	}
	if report.TooSlow != 1 {
		t.Errorf("expected 1 too-slow segment, got %d", report.TooSlow)
	}
	if report.TooShort != 1 {
		t.Errorf("expected 1 too-short segment, got %d", report.TooShort)
	}
	if report.LowConfidence != 1 {
		t.Errorf("expected 1 low-confidence segment, got %d", report.LowConfidence)
	}
	if report.Passed() {
		t.Error("report with fast and short segments should not pass")
	}
}

func TestInspectSkipsConfidenceWhenDisabled(t *testing.T) {
	segments := []Segment{{Text: strings.Repeat("あ", 20), Start: 0, End: 1.5}}
	report := Inspect(segments, testLimits(), -1)
	if report.LowConfidence != 0 {
		t.Errorf("expected no confidence counting, got %d", report.LowConfidence)
	}
}
