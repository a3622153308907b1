package synth

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"cadence/internal/config"
	"cadence/internal/fileutil"
	"cadence/internal/logging"
	"cadence/internal/media/ffprobe"
	"cadence/internal/script"
	"cadence/internal/stage"
)

// Artifact describes one successfully synthesized chunk file.
type Artifact struct {
	Path            string
	DurationSeconds float64
}

// Engine synthesizes one chunk of text into one audio file. Implementations
// write exactly one file at outputPath on success and clean up on failure.
type Engine interface {
	Name() string
	// Probe checks reachability once at startup. Backends that retry per
	// request still implement it so misconfiguration surfaces early.
	Probe(ctx context.Context) error
	Synthesize(ctx context.Context, text string, role script.Role, outputPath string) (Artifact, error)
}

// ChunkError carries the chunk that failed and why. Mastering continues with
// the remaining chunks; the manifest records the loss.
type ChunkError struct {
	ChunkID int
	Cause   error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %d: %v", e.ChunkID, e.Cause)
}

func (e *ChunkError) Unwrap() error {
	return e.Cause
}

// New selects the configured backend. The prober is injected so tests can
// avoid a real ffprobe binary.
func New(cfg *config.Config, logger *slog.Logger, prober ffprobe.Prober) (Engine, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if prober == nil {
		prober = ffprobe.Duration(cfg.FFprobeBinary())
	}
	timeout := time.Duration(cfg.Engine.RequestTimeoutSeconds) * time.Second

	switch cfg.Engine.Backend {
	case "voicevox":
		return newVoicevoxEngine(cfg, logger, prober, timeout), nil
	case "cloud":
		return newCloudEngine(cfg, logger, prober, timeout)
	case "fallback":
		return newFallbackEngine(cfg, logger, prober, timeout), nil
	default:
		return nil, stage.Wrap(stage.ErrConfiguration, "synth", "new", fmt.Sprintf("unknown backend %q", cfg.Engine.Backend), nil)
	}
}

// writeChunk lands audio bytes at outputPath through a temp-file rename. A
// process killed mid-write must never leave a partial file at the chunk
// path, since resumed runs treat any non-empty chunk file as finished.
func writeChunk(outputPath string, audio []byte) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return stage.Wrap(stage.ErrExternalTool, "synth", "write", "create chunk directory", err)
	}
	if err := fileutil.WriteFileAtomic(outputPath, audio, 0o644); err != nil {
		return stage.Wrap(stage.ErrExternalTool, "synth", "write", "write chunk file", err)
	}
	return nil
}

// measure confirms the written file has a usable duration. A zero or
// unreadable duration counts as a synthesis failure.
func measure(ctx context.Context, prober ffprobe.Prober, path string) (Artifact, error) {
	seconds, err := prober(ctx, path)
	if err != nil {
		return Artifact{}, stage.Wrap(stage.ErrExternalTool, "synth", "measure", "duration probe failed", err)
	}
	return Artifact{Path: path, DurationSeconds: seconds}, nil
}
