package master

import (
	"context"
	"fmt"
	"os"
	"strings"

	"cadence/internal/fileutil"
	"cadence/internal/stage"
)

// concatenateCrossfade joins chunks with a pairwise acrossfade filter graph.
// Each join overlaps by seconds with a symmetric triangular fade on both
// sides.
func (m *Masterer) concatenateCrossfade(ctx context.Context, chunks []ChunkArtifact, outputPath string, seconds float64) error {
	args := []string{"-y", "-hide_banner", "-loglevel", "error"}
	for _, chunk := range chunks {
		args = append(args, "-i", chunk.Path)
	}
	filter, label := crossfadeFilter(len(chunks), seconds)
	args = append(args, "-filter_complex", filter, "-map", label, "-c:a", "pcm_s16le", outputPath)

	if _, err := m.run(ctx, m.binary, args...); err != nil {
		return stage.Wrap(stage.ErrExternalTool, "master", "crossfade", "concatenate chunks", err)
	}
	return nil
}

// crossfadeFilter builds the chained acrossfade graph for n inputs and
// returns it with the final output label.
func crossfadeFilter(n int, seconds float64) (string, string) {
	var b strings.Builder
	previous := "0"
	for i := 1; i < n; i++ {
		if i > 1 {
			b.WriteString(";")
		}
		label := fmt.Sprintf("a%02d", i)
		fmt.Fprintf(&b, "[%s][%d]acrossfade=d=%g:c1=tri:c2=tri[%s]", previous, i, seconds, label)
		previous = label
	}
	return b.String(), "[" + previous + "]"
}

// concatenateSimple joins chunks back to back via the concat demuxer. A
// single chunk is copied as-is.
func (m *Masterer) concatenateSimple(ctx context.Context, chunks []ChunkArtifact, outputPath string) error {
	if len(chunks) == 1 {
		if err := fileutil.CopyFile(chunks[0].Path, outputPath); err != nil {
			return stage.Wrap(stage.ErrExternalTool, "master", "concat", "copy single chunk", err)
		}
		return nil
	}

	listPath := outputPath + ".list"
	var b strings.Builder
	for _, chunk := range chunks {
		fmt.Fprintf(&b, "file '%s'\n", escapeConcatPath(chunk.Path))
	}
	if err := os.WriteFile(listPath, []byte(b.String()), 0o644); err != nil {
		return stage.Wrap(stage.ErrExternalTool, "master", "concat", "write concat list", err)
	}
	defer os.Remove(listPath)

	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-f", "concat", "-safe", "0", "-i", listPath,
		"-c", "copy", outputPath,
	}
	if _, err := m.run(ctx, m.binary, args...); err != nil {
		return stage.Wrap(stage.ErrExternalTool, "master", "concat", "concatenate chunks", err)
	}
	return nil
}

// escapeConcatPath quotes a path for the concat demuxer list format, which
// wraps entries in single quotes.
func escapeConcatPath(path string) string {
	return strings.ReplaceAll(path, "'", `'\''`)
}

// trimSilence removes leading and trailing silence below the configured
// threshold. The track is reversed so the same leading-silence filter can
// strip the tail.
func (m *Masterer) trimSilence(ctx context.Context, inputPath, outputPath string) error {
	remove := fmt.Sprintf("silenceremove=start_periods=1:start_silence=0.1:start_threshold=%gdB", m.cfg.SilenceThresholdDB)
	filter := remove + ",areverse," + remove + ",areverse"

	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", inputPath, "-af", filter, outputPath,
	}
	if _, err := m.run(ctx, m.binary, args...); err != nil {
		return stage.Wrap(stage.ErrExternalTool, "master", "trim", "trim edge silence", err)
	}
	return nil
}
