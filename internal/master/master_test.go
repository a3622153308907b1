package master

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"cadence/internal/config"
	"cadence/internal/script"
	"cadence/internal/stage"
)

func testAudioConfig() config.Audio {
	return config.Audio{
		CrossfadeMillis:    200,
		MaxCrossfadeChunks: 50,
		SilenceThresholdDB: -40,
		TargetLUFS:         -16,
		SampleRate:         24000,
		OutputBitrate:      "192k",
		DriftWarnSeconds:   1.0,
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

type recordedCall struct {
	name string
	args []string
}

// recordingRunner captures every ffmpeg invocation and answers from fail and
// output rules keyed on an argument substring.
type recordingRunner struct {
	calls   []recordedCall
	failOn  []string
	outputs map[string]string
}

func (r *recordingRunner) run(_ context.Context, name string, args ...string) ([]byte, error) {
	r.calls = append(r.calls, recordedCall{name: name, args: args})
	joined := strings.Join(args, " ")
	for _, marker := range r.failOn {
		if strings.Contains(joined, marker) {
			return nil, fmt.Errorf("stub failure for %q", marker)
		}
	}
	for marker, output := range r.outputs {
		if strings.Contains(joined, marker) {
			return []byte(output), nil
		}
	}
	return nil, nil
}

func (r *recordingRunner) callsContaining(marker string) []recordedCall {
	var matched []recordedCall
	for _, c := range r.calls {
		if strings.Contains(strings.Join(c.args, " "), marker) {
			matched = append(matched, c)
		}
	}
	return matched
}

const pass1Output = "[Parsed_loudnorm_0 @ 0x1] \n{\n" +
	"\t\"input_i\" : \"-23.50\",\n" +
	"\t\"input_tp\" : \"-4.20\",\n" +
	"\t\"input_lra\" : \"6.10\",\n" +
	"\t\"input_thresh\" : \"-33.90\"\n}\n"

func newTestMasterer(t *testing.T, runner *recordingRunner, duration float64) *Masterer {
	t.Helper()
	m := New(testAudioConfig(), "ffmpeg", nil, func(context.Context, string) (float64, error) {
		return duration, nil
	})
	m.run = runner.run
	return m
}

func testChunks() []ChunkArtifact {
	return []ChunkArtifact{
		{ChunkID: 0, LineIndex: 0, Speaker: script.RolePrimary, Path: "/audio/chunk_0000.wav", DurationSeconds: 1.0},
		{ChunkID: 1, LineIndex: 1, Speaker: script.RoleSecondary, Path: "/audio/chunk_0001.wav", DurationSeconds: 0.5},
		{ChunkID: 2, LineIndex: 2, Speaker: script.RolePrimary, Path: "/audio/chunk_0002.wav", DurationSeconds: 1.2},
	}
}

func testLines() []script.Line {
	return []script.Line{
		{Speaker: script.RolePrimary, Text: "こんにちは"},
		{Speaker: script.RoleSecondary, Text: "はい"},
		{Speaker: script.RolePrimary, Text: "今日は天気です"},
	}
}

func TestMasterTwoPassHappyPath(t *testing.T) {
	runner := &recordingRunner{outputs: map[string]string{"print_format=json": pass1Output}}
	m := newTestMasterer(t, runner, 2.3)

	result, err := m.Master(context.Background(), t.TempDir(), testChunks(), testLines())
	if err != nil {
		t.Fatalf("Master: %v", err)
	}
	if !result.CrossfadeApplied {
		t.Error("expected crossfade path")
	}
	if filepath.Base(result.AudioPath) != "episode.mp3" {
		t.Errorf("unexpected output path %q", result.AudioPath)
	}
	if !almostEqual(result.DurationSeconds, 2.3) {
		t.Errorf("unexpected duration %v", result.DurationSeconds)
	}

	if calls := runner.callsContaining("-filter_complex"); len(calls) != 1 {
		t.Fatalf("expected 1 crossfade call, got %d", len(calls))
	}
	secondPass := runner.callsContaining("measured_I=-23.50")
	if len(secondPass) != 1 {
		t.Fatalf("expected 1 second-pass loudnorm call, got %d", len(secondPass))
	}
	if !strings.Contains(strings.Join(secondPass[0].args, " "), "linear=true") {
		t.Error("second pass missing linear mode")
	}
	if calls := runner.callsContaining("libmp3lame"); len(calls) != 1 {
		t.Fatalf("expected 1 encode call, got %d", len(calls))
	}

	// Crossfaded chunks overlap by 0.2s: 0-1.0, 0.8-1.3, 1.1-2.3.
	if len(result.Coarse) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(result.Coarse))
	}
	if !almostEqual(result.Coarse[1].Start, 0.8) || !almostEqual(result.Coarse[2].End, 2.3) {
		t.Errorf("unexpected coarse timing: %+v", result.Coarse)
	}
}

func TestMasterCrossfadeFallsBackToSimpleConcat(t *testing.T) {
	runner := &recordingRunner{
		failOn:  []string{"-filter_complex"},
		outputs: map[string]string{"print_format=json": pass1Output},
	}
	m := newTestMasterer(t, runner, 2.7)

	result, err := m.Master(context.Background(), t.TempDir(), testChunks(), testLines())
	if err != nil {
		t.Fatalf("Master: %v", err)
	}
	if result.CrossfadeApplied {
		t.Error("crossfade should have been abandoned")
	}
	if calls := runner.callsContaining("-f concat"); len(calls) != 1 {
		t.Fatalf("expected concat demuxer fallback, got %d calls", len(calls))
	}

	// Timing reflects the concat actually used: back to back, no overlap.
	want := [][2]float64{{0, 1.0}, {1.0, 1.5}, {1.5, 2.7}}
	for i, w := range want {
		if !almostEqual(result.Coarse[i].Start, w[0]) || !almostEqual(result.Coarse[i].End, w[1]) {
			t.Errorf("segment %d: got (%v,%v), want (%v,%v)",
				i, result.Coarse[i].Start, result.Coarse[i].End, w[0], w[1])
		}
	}
}

func TestMasterTrimFailureKeepsUntrimmedAudio(t *testing.T) {
	runner := &recordingRunner{
		failOn:  []string{"silenceremove"},
		outputs: map[string]string{"print_format=json": pass1Output},
	}
	m := newTestMasterer(t, runner, 2.3)

	if _, err := m.Master(context.Background(), t.TempDir(), testChunks(), testLines()); err != nil {
		t.Fatalf("Master: %v", err)
	}

	// Loudness analysis runs on the concat output, not the missing trim.
	analysis := runner.callsContaining("print_format=json")
	if len(analysis) != 1 {
		t.Fatalf("expected 1 analysis call, got %d", len(analysis))
	}
	input := argAfter(t, analysis[0].args, "-i")
	if filepath.Base(input) != "concat.wav" {
		t.Errorf("analysis input should be concat.wav, got %q", input)
	}
}

func TestMasterUnparsableAnalysisFallsBackToSinglePass(t *testing.T) {
	runner := &recordingRunner{
		outputs: map[string]string{"print_format=json": "no stats here"},
	}
	m := newTestMasterer(t, runner, 2.3)

	if _, err := m.Master(context.Background(), t.TempDir(), testChunks(), testLines()); err != nil {
		t.Fatalf("Master: %v", err)
	}
	if calls := runner.callsContaining("measured_I"); len(calls) != 0 {
		t.Errorf("expected no two-pass call, got %d", len(calls))
	}
	// Single-pass application still targets the configured loudness.
	applications := runner.callsContaining("loudnorm=I=-16")
	if len(applications) != 2 {
		t.Errorf("expected analysis plus single-pass application, got %d calls", len(applications))
	}
}

func TestMasterClampsOnlyLastSegmentOnDrift(t *testing.T) {
	runner := &recordingRunner{outputs: map[string]string{"print_format=json": pass1Output}}
	m := newTestMasterer(t, runner, 4.5)
	m.cfg.CrossfadeMillis = 0

	result, err := m.Master(context.Background(), t.TempDir(), testChunks(), testLines())
	if err != nil {
		t.Fatalf("Master: %v", err)
	}
	if !almostEqual(result.Coarse[2].End, 4.5) {
		t.Errorf("expected last end clamped to 4.5, got %v", result.Coarse[2].End)
	}
	if !almostEqual(result.Coarse[0].End, 1.0) || !almostEqual(result.Coarse[1].End, 1.5) {
		t.Errorf("interior segments must stay untouched: %+v", result.Coarse)
	}
}

func TestMasterSingleChunkCopies(t *testing.T) {
	dir := t.TempDir()
	chunkPath := filepath.Join(dir, "chunk_0000.wav")
	if err := os.WriteFile(chunkPath, []byte("RIFFdata"), 0o644); err != nil {
		t.Fatal(err)
	}

	runner := &recordingRunner{outputs: map[string]string{"print_format=json": pass1Output}}
	m := newTestMasterer(t, runner, 1.0)

	chunks := []ChunkArtifact{{ChunkID: 0, LineIndex: 0, Path: chunkPath, DurationSeconds: 1.0}}
	if _, err := m.Master(context.Background(), dir, chunks, testLines()[:1]); err != nil {
		t.Fatalf("Master: %v", err)
	}
	if calls := runner.callsContaining("-filter_complex"); len(calls) != 0 {
		t.Error("single chunk must not crossfade")
	}
	if calls := runner.callsContaining("-f concat"); len(calls) != 0 {
		t.Error("single chunk must not run the concat demuxer")
	}
}

func TestMasterNoChunksIsFatal(t *testing.T) {
	runner := &recordingRunner{}
	m := newTestMasterer(t, runner, 0)

	_, err := m.Master(context.Background(), t.TempDir(), nil, nil)
	if !errors.Is(err, stage.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestDeriveCoarseMatchesChunkDurations(t *testing.T) {
	segments := DeriveCoarse(testChunks(), testLines(), 0)
	want := [][2]float64{{0, 1.0}, {1.0, 1.5}, {1.5, 2.7}}
	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segments))
	}
	for i, w := range want {
		if !almostEqual(segments[i].Start, w[0]) || !almostEqual(segments[i].End, w[1]) {
			t.Errorf("segment %d: got (%v,%v), want (%v,%v)", i, segments[i].Start, segments[i].End, w[0], w[1])
		}
	}
	if segments[0].Text != "こんにちは" || segments[2].Text != "今日は天気です" {
		t.Errorf("segments must carry the original line text: %+v", segments)
	}
}

func TestDeriveCoarseSubtractsCrossfadeOverlap(t *testing.T) {
	crossfade := 0.2
	segments := DeriveCoarse(testChunks(), testLines(), crossfade)
	durations := []float64{1.0, 0.5, 1.2}
	for i := 1; i < len(segments); i++ {
		gap := segments[i].Start - segments[i-1].Start
		if !almostEqual(gap, durations[i-1]-crossfade) {
			t.Errorf("segment %d: start delta %v, want %v", i, gap, durations[i-1]-crossfade)
		}
		if segments[i].Start < segments[i-1].Start {
			t.Errorf("segment %d: starts must be non-decreasing", i)
		}
	}
}

func TestDeriveCoarseMergesChunksOfOneLine(t *testing.T) {
	chunks := []ChunkArtifact{
		{ChunkID: 0, LineIndex: 0, Speaker: script.RolePrimary, DurationSeconds: 1.0},
		{ChunkID: 1, LineIndex: 0, Speaker: script.RolePrimary, DurationSeconds: 0.8},
		{ChunkID: 2, LineIndex: 1, Speaker: script.RoleSecondary, DurationSeconds: 0.5},
	}
	lines := []script.Line{
		{Speaker: script.RolePrimary, Text: "とても長い台詞です"},
		{Speaker: script.RoleSecondary, Text: "はい"},
	}

	segments := DeriveCoarse(chunks, lines, 0)
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if !almostEqual(segments[0].Start, 0) || !almostEqual(segments[0].End, 1.8) {
		t.Errorf("merged segment should span both chunks: %+v", segments[0])
	}
	if !almostEqual(segments[1].Start, 1.8) {
		t.Errorf("second line should start after merged span: %+v", segments[1])
	}
}

func TestCrossfadeFilterGraph(t *testing.T) {
	filter, label := crossfadeFilter(3, 0.2)
	want := "[0][1]acrossfade=d=0.2:c1=tri:c2=tri[a01];[a01][2]acrossfade=d=0.2:c1=tri:c2=tri[a02]"
	if filter != want {
		t.Errorf("filter mismatch:\n got %q\nwant %q", filter, want)
	}
	if label != "[a02]" {
		t.Errorf("unexpected output label %q", label)
	}
}

func TestParseLoudness(t *testing.T) {
	measured, err := parseLoudness([]byte(pass1Output))
	if err != nil {
		t.Fatalf("parseLoudness: %v", err)
	}
	if measured.InputI != "-23.50" || measured.InputThresh != "-33.90" {
		t.Errorf("unexpected measurement: %+v", measured)
	}

	if _, err := parseLoudness([]byte("nothing useful")); err == nil {
		t.Error("expected error for output without stats")
	}
	if _, err := parseLoudness([]byte("{}")); err == nil {
		t.Error("expected error for stats missing input_i")
	}
}

func TestEscapeConcatPath(t *testing.T) {
	got := escapeConcatPath("/tmp/o'clock.wav")
	if got != `/tmp/o'\''clock.wav` {
		t.Errorf("unexpected escaping %q", got)
	}
}

func argAfter(t *testing.T, args []string, flag string) string {
	t.Helper()
	i := slices.Index(args, flag)
	if i < 0 || i+1 >= len(args) {
		t.Fatalf("flag %q not found in %v", flag, args)
	}
	return args[i+1]
}
