package master

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"cadence/internal/config"
	"cadence/internal/logging"
	"cadence/internal/media/ffprobe"
	"cadence/internal/script"
	"cadence/internal/stage"
	"cadence/internal/timing"
)

// commandRunner abstracts ffmpeg invocation so tests can stub the toolchain.
// The returned bytes are the combined output; loudness analysis parses the
// stats ffmpeg prints to stderr.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("%s failed: %w: %s", name, err, truncateOutput(output))
	}
	return output, nil
}

func truncateOutput(output []byte) string {
	trimmed := bytes.TrimSpace(output)
	if len(trimmed) > 400 {
		trimmed = trimmed[:400]
	}
	return string(trimmed)
}

// ChunkArtifact pairs one synthesized chunk file with its script position and
// measured duration.
type ChunkArtifact struct {
	ChunkID         int
	LineIndex       int
	Speaker         script.Role
	Path            string
	DurationSeconds float64
}

// Result describes a mastered episode.
type Result struct {
	AudioPath        string
	DurationSeconds  float64
	Coarse           []timing.Segment
	CrossfadeApplied bool
}

// Masterer drives the ffmpeg mastering chain for one episode.
type Masterer struct {
	cfg    config.Audio
	binary string
	logger *slog.Logger
	run    commandRunner
	probe  ffprobe.Prober
}

// New builds a Masterer invoking the given ffmpeg binary. The prober measures
// the final duration for drift detection.
func New(cfg config.Audio, binary string, logger *slog.Logger, probe ffprobe.Prober) *Masterer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Masterer{
		cfg:    cfg,
		binary: binary,
		logger: logging.WithComponent(logger, "master"),
		run:    runCommand,
		probe:  probe,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (m *Masterer) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) ([]byte, error)) {
	m.run = runner
}

// Master concatenates the chunks, trims edge silence, normalizes loudness,
// encodes the delivery file under workDir, and derives coarse timing from the
// measured chunk durations. Trim and normalization failures degrade to the
// previous intermediate; a crossfade failure retries as a simple concat.
// Only the complete absence of chunks or a failed final encode is fatal.
func (m *Masterer) Master(ctx context.Context, workDir string, chunks []ChunkArtifact, lines []script.Line) (*Result, error) {
	if len(chunks) == 0 {
		return nil, stage.Wrap(stage.ErrValidation, "master", "concat", "no audio chunks could be synthesized", nil)
	}

	ordered := make([]ChunkArtifact, len(chunks))
	copy(ordered, chunks)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ChunkID < ordered[j].ChunkID })

	concatPath := filepath.Join(workDir, "concat.wav")
	crossfade := m.crossfadeSeconds(len(ordered))
	if crossfade > 0 {
		if err := m.concatenateCrossfade(ctx, ordered, concatPath, crossfade); err != nil {
			m.logger.Warn("crossfade concat failed, retrying with simple concat", "error", err)
			crossfade = 0
		}
	}
	if crossfade == 0 {
		if err := m.concatenateSimple(ctx, ordered, concatPath); err != nil {
			return nil, err
		}
	}

	workingPath := concatPath
	trimmedPath := filepath.Join(workDir, "trimmed.wav")
	if err := m.trimSilence(ctx, workingPath, trimmedPath); err != nil {
		m.logger.Warn("silence trim failed, keeping untrimmed audio", "error", err)
	} else {
		workingPath = trimmedPath
	}

	normalizedPath := filepath.Join(workDir, "normalized.wav")
	if err := m.normalizeLoudness(ctx, workingPath, normalizedPath); err != nil {
		m.logger.Warn("loudness normalization failed, keeping unnormalized audio", "error", err)
	} else {
		workingPath = normalizedPath
	}

	finalPath := filepath.Join(workDir, "episode.mp3")
	if err := m.encode(ctx, workingPath, finalPath); err != nil {
		return nil, err
	}

	duration, err := m.probe(ctx, finalPath)
	if err != nil {
		return nil, stage.Wrap(stage.ErrExternalTool, "master", "probe", "measure mastered duration", err)
	}

	coarse := DeriveCoarse(ordered, lines, crossfade)
	derived := timing.TotalEnd(coarse)
	if diff := math.Abs(duration - derived); diff > m.cfg.DriftWarnSeconds {
		m.logger.Warn("mastered duration drifts from derived timing",
			"measured_seconds", duration, "derived_seconds", derived)
		// Trimming removes time from the edges, not uniformly, so rescaling
		// interior timestamps would desynchronize them. Only the final end
		// is clamped to the true duration.
		if n := len(coarse); n > 0 && duration > coarse[n-1].Start {
			coarse[n-1].End = duration
		}
	}

	m.removeIntermediates(concatPath, trimmedPath, normalizedPath)

	m.logger.Info("episode mastered",
		"chunks", len(ordered), "duration_seconds", duration, "crossfade_seconds", crossfade)
	return &Result{
		AudioPath:        finalPath,
		DurationSeconds:  duration,
		Coarse:           coarse,
		CrossfadeApplied: crossfade > 0,
	}, nil
}

// crossfadeSeconds returns the per-join overlap, or zero when crossfading is
// disabled or the chunk count makes the pairwise filter graph too expensive.
func (m *Masterer) crossfadeSeconds(chunkCount int) float64 {
	if m.cfg.CrossfadeMillis <= 0 || chunkCount < 2 {
		return 0
	}
	if m.cfg.MaxCrossfadeChunks > 0 && chunkCount > m.cfg.MaxCrossfadeChunks {
		return 0
	}
	return float64(m.cfg.CrossfadeMillis) / 1000.0
}

func (m *Masterer) encode(ctx context.Context, inputPath, outputPath string) error {
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", inputPath,
		"-c:a", "libmp3lame", "-b:a", m.cfg.OutputBitrate,
		outputPath,
	}
	if _, err := m.run(ctx, m.binary, args...); err != nil {
		return stage.Wrap(stage.ErrExternalTool, "master", "encode", "encode delivery audio", err)
	}
	return nil
}

func (m *Masterer) removeIntermediates(paths ...string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			m.logger.Warn("remove intermediate failed", "path", path, "error", err)
		}
	}
}
