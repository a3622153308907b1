package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"cadence/internal/align"
	"cadence/internal/chunkstore"
	"cadence/internal/config"
	"cadence/internal/fileutil"
	"cadence/internal/logging"
	"cadence/internal/manifest"
	"cadence/internal/master"
	"cadence/internal/media/ffprobe"
	"cadence/internal/script"
	"cadence/internal/stage"
	"cadence/internal/stt"
	"cadence/internal/synth"
	"cadence/internal/timing"
)

// Options configures a Renderer. Config is required; every other field has a
// production default and exists for tests to substitute.
type Options struct {
	Config      *config.Config
	Logger      *slog.Logger
	Engine      synth.Engine
	Prober      ffprobe.Prober
	Masterer    *master.Masterer
	Transcriber stt.Transcriber
	Ledger      *manifest.Store
}

// Renderer runs complete episode renders.
type Renderer struct {
	cfg         *config.Config
	logger      *slog.Logger
	engine      synth.Engine
	prober      ffprobe.Prober
	masterer    *master.Masterer
	transcriber stt.Transcriber
	aligner     *align.Aligner
	ledger      *manifest.Store
}

// Result is what one completed render produced.
type Result struct {
	AudioPath  string
	TimingPath string
	SRTPath    string
	Segments   []timing.Segment
	Manifest   *manifest.Manifest
	Metrics    Metrics
}

// New wires a Renderer from configuration, building production defaults for
// any collaborator not supplied.
func New(opts Options) (*Renderer, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, stage.Wrap(stage.ErrConfiguration, "pipeline", "new", "config required", nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	prober := opts.Prober
	if prober == nil {
		prober = ffprobe.Duration(cfg.FFprobeBinary())
	}

	engine := opts.Engine
	if engine == nil {
		built, err := synth.New(cfg, logger, prober)
		if err != nil {
			return nil, err
		}
		engine = built
	}

	masterer := opts.Masterer
	if masterer == nil {
		masterer = master.New(cfg.Audio, cfg.FFmpegBinary(), logger, prober)
	}

	transcriber := opts.Transcriber
	if transcriber == nil && cfg.Align.Enabled {
		transcriber = stt.NewWhisper(cfg.Align, logger)
	}

	return &Renderer{
		cfg:         cfg,
		logger:      logging.WithComponent(logger, "pipeline"),
		engine:      engine,
		prober:      prober,
		masterer:    masterer,
		transcriber: transcriber,
		aligner:     align.New(cfg.Align, logger),
		ledger:      opts.Ledger,
	}, nil
}

// Render produces the mastered audio, timing table, SRT, and manifest for
// one episode. Already-synthesized chunks in the episode directory are
// reused, which makes re-running a crashed or partially failed episode
// resume instead of restarting.
func (r *Renderer) Render(ctx context.Context, episodeID string, s *script.Script) (*Result, error) {
	if episodeID == "" {
		return nil, stage.Wrap(stage.ErrValidation, "pipeline", "render", "episode id required", nil)
	}
	if s == nil || len(s.Lines) == 0 {
		return nil, stage.Wrap(stage.ErrValidation, "pipeline", "render", "script has no lines", nil)
	}

	started := time.Now()
	logger := r.logger.With(logging.FieldEpisode, episodeID)

	episodeDir := filepath.Join(r.cfg.Paths.OutputDir, episodeID)
	if err := os.MkdirAll(episodeDir, 0o755); err != nil {
		return nil, stage.Wrap(stage.ErrConfiguration, "pipeline", "render", "create episode directory", err)
	}

	lock := flock.New(filepath.Join(episodeDir, ".cadence.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, stage.Wrap(stage.ErrConfiguration, "pipeline", "lock", "acquire episode lock", err)
	}
	if !locked {
		return nil, stage.Wrap(stage.ErrValidation, "pipeline", "lock", "episode is already being rendered", nil)
	}
	defer func() { _ = lock.Unlock() }()

	var record *manifest.Record
	if r.ledger != nil {
		record, err = r.ledger.StartRun(ctx, episodeID, s.Title)
		if err != nil {
			return nil, err
		}
	}

	result, err := r.render(ctx, logger, episodeDir, episodeID, s, record, started)
	if err != nil {
		r.failRun(ctx, logger, record, err)
		return nil, err
	}
	return result, nil
}

func (r *Renderer) render(ctx context.Context, logger *slog.Logger, episodeDir, episodeID string, s *script.Script, record *manifest.Record, started time.Time) (*Result, error) {
	chunks := buildChunks(s.Lines, r.cfg.Chunking)
	if len(chunks) == 0 {
		return nil, stage.Wrap(stage.ErrValidation, "pipeline", "chunk", "script has no speakable text", nil)
	}
	logger.Info("render started", "lines", len(s.Lines), "chunks", len(chunks), "engine", r.engine.Name())

	if err := r.engine.Probe(ctx); err != nil {
		return nil, stage.Wrap(stage.ErrUnavailable, "pipeline", "probe", "no synthesis backend available", err)
	}

	store, err := chunkstore.New(chunkstore.Options{
		Dir:              filepath.Join(episodeDir, "chunks"),
		CacheDir:         r.cfg.Paths.CacheDir,
		Engine:           r.engine,
		Prober:           r.prober,
		Logger:           logger,
		VoiceFingerprint: voiceFingerprint(r.cfg.Engine),
	})
	if err != nil {
		return nil, stage.Wrap(stage.ErrConfiguration, "pipeline", "chunkstore", "initialize chunk store", err)
	}

	artifacts, chunkRecords, metrics := r.synthesizeAll(ctx, logger, store, chunks)
	if len(artifacts) == 0 {
		return nil, stage.Wrap(stage.ErrUnavailable, "pipeline", "synthesize", "no audio chunks could be synthesized", nil)
	}

	mastered, err := r.masterer.Master(ctx, episodeDir, artifacts, s.Lines)
	if err != nil {
		return nil, err
	}

	segments := mastered.Coarse
	aligned := false
	if r.cfg.Align.Enabled && r.transcriber != nil {
		if refined := r.alignTimings(ctx, logger, episodeDir, mastered.AudioPath, s.Lines); refined != nil {
			segments = refined
			aligned = true
		}
	}

	limits := timing.Limits{
		MinDisplaySeconds:  r.cfg.Subtitles.MinDisplaySeconds,
		MaxDisplaySeconds:  r.cfg.Subtitles.MaxDisplaySeconds,
		MaxCharsPerSegment: r.cfg.Subtitles.MaxCharsPerSegment,
		MaxCharsPerSecond:  r.cfg.Subtitles.MaxCharsPerSecond,
		OverlapGapSeconds:  r.cfg.Subtitles.OverlapGapSeconds,
	}
	final := timing.Optimize(segments, limits)

	lowConfidence := -1.0
	if aligned {
		lowConfidence = r.cfg.Align.LowConfidenceReport
	}
	report := timing.Inspect(final, limits, lowConfidence)
	logger.Info("subtitle quality",
		"segments", report.TotalSegments,
		"too_fast", report.TooFast, "too_slow", report.TooSlow,
		"too_short", report.TooShort, "too_long", report.TooLong,
		"low_confidence", report.LowConfidence,
		"avg_chars_per_second", report.AvgCharsPerSecond)

	timingPath := filepath.Join(episodeDir, "timing.json")
	if err := timing.WriteJSON(timingPath, final); err != nil {
		return nil, err
	}
	srtPath := filepath.Join(episodeDir, "episode.srt")
	if err := r.writeSRT(srtPath, final); err != nil {
		return nil, err
	}

	failedIDs := failedChunkIDs(chunkRecords)
	renderSeconds := time.Since(started).Seconds()

	m := &manifest.Manifest{
		EpisodeID:       episodeID,
		Title:           s.Title,
		AudioPath:       mastered.AudioPath,
		DurationSeconds: mastered.DurationSeconds,
		SegmentCount:    len(final),
		ChunkCount:      len(chunks),
		FailedChunks:    failedIDs,
		CacheHits:       metrics.CacheHits,
		RenderSeconds:   renderSeconds,
		Chunks:          chunkRecords,
		CreatedAt:       time.Now().UTC(),
	}
	if record != nil {
		m.RunID = record.RunID
		record.AudioPath = mastered.AudioPath
		record.ChunkCount = len(chunks)
		record.FailedChunks = failedIDs
		record.CacheHits = metrics.CacheHits
		record.DurationSeconds = mastered.DurationSeconds
		record.RenderSeconds = renderSeconds
		if err := r.ledger.CompleteRun(ctx, record); err != nil {
			logger.Warn("ledger update failed", "error", err)
		}
	}
	if err := manifest.WriteManifest(episodeDir, m); err != nil {
		return nil, err
	}

	logger.Info("render complete",
		"audio", mastered.AudioPath,
		"duration_seconds", mastered.DurationSeconds,
		"failed_chunks", len(failedIDs),
		"render_seconds", renderSeconds)

	return &Result{
		AudioPath:  mastered.AudioPath,
		TimingPath: timingPath,
		SRTPath:    srtPath,
		Segments:   final,
		Manifest:   m,
		Metrics:    metrics,
	}, nil
}

// synthesizeAll walks the chunks sequentially. The local engine is assumed
// single-threaded and cloud backends are paced, so there is nothing to gain
// from parallel calls. A failed chunk is recorded and skipped; mastering
// proceeds with whatever survived.
func (r *Renderer) synthesizeAll(ctx context.Context, logger *slog.Logger, store *chunkstore.Store, chunks []script.Chunk) ([]master.ChunkArtifact, []manifest.ChunkRecord, Metrics) {
	metrics := Metrics{TotalChunks: len(chunks)}
	artifacts := make([]master.ChunkArtifact, 0, len(chunks))
	records := make([]manifest.ChunkRecord, 0, len(chunks))
	var latencies []float64

	for _, chunk := range chunks {
		chunkRecord := manifest.ChunkRecord{
			ChunkID:     chunk.ID,
			LineIndex:   chunk.LineIndex,
			Speaker:     string(chunk.Speaker),
			ContentHash: store.ContentHash(chunk),
		}

		synthStart := time.Now()
		artifact, reused, err := store.GetOrSynthesize(ctx, chunk)
		if err != nil {
			logger.Error("chunk synthesis failed", logging.FieldChunk, chunk.ID, "error", err)
			chunkRecord.Failed = true
			records = append(records, chunkRecord)
			metrics.FailedChunks++
			continue
		}

		if reused {
			metrics.CacheHits++
		} else {
			latencies = append(latencies, time.Since(synthStart).Seconds())
		}
		chunkRecord.CacheHit = reused
		chunkRecord.DurationSeconds = artifact.DurationSeconds
		records = append(records, chunkRecord)
		metrics.SuccessfulChunks++

		artifacts = append(artifacts, master.ChunkArtifact{
			ChunkID:         chunk.ID,
			LineIndex:       chunk.LineIndex,
			Speaker:         chunk.Speaker,
			Path:            artifact.Path,
			DurationSeconds: artifact.DurationSeconds,
		})
	}

	metrics.synthLatencies(latencies)
	logger.Info("synthesis finished",
		"succeeded", metrics.SuccessfulChunks,
		"failed", metrics.FailedChunks,
		"cache_hits", metrics.CacheHits,
		"p50_seconds", metrics.P50SynthSeconds,
		"p95_seconds", metrics.P95SynthSeconds)
	return artifacts, records, metrics
}

// alignTimings runs transcription alignment, returning nil whenever the
// refined table is unusable. Alignment is a soft dependency: it improves
// timing when it works and is silently skipped when it does not.
func (r *Renderer) alignTimings(ctx context.Context, logger *slog.Logger, episodeDir, audioPath string, lines []script.Line) []timing.Segment {
	tokens, err := r.transcriber.Transcribe(ctx, audioPath, filepath.Join(episodeDir, "stt"))
	if err != nil {
		logger.Warn("transcription failed, keeping coarse timing", "error", err)
		return nil
	}
	return r.aligner.Align(lines, tokens)
}

func (r *Renderer) writeSRT(path string, segments []timing.Segment) error {
	var b strings.Builder
	display := timing.DisplayLimits{
		MaxCharsPerLine: r.cfg.Subtitles.MaxCharsPerLine,
		MaxLines:        r.cfg.Subtitles.MaxLines,
	}
	if err := timing.WriteSRT(&b, segments, display); err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write srt: %w", err)
	}
	return nil
}

// CleanupChunks removes the per-chunk intermediates for an episode. Called
// explicitly, never as part of a render, so failed runs stay resumable.
func (r *Renderer) CleanupChunks(episodeID string) error {
	store, err := chunkstore.New(chunkstore.Options{
		Dir:              filepath.Join(r.cfg.Paths.OutputDir, episodeID, "chunks"),
		Engine:           r.engine,
		Prober:           r.prober,
		Logger:           r.logger,
		VoiceFingerprint: voiceFingerprint(r.cfg.Engine),
	})
	if err != nil {
		return err
	}
	return store.Cleanup()
}

func (r *Renderer) failRun(ctx context.Context, logger *slog.Logger, record *manifest.Record, renderErr error) {
	if r.ledger == nil || record == nil {
		return
	}
	if err := r.ledger.FailRun(ctx, record.RunID, renderErr.Error()); err != nil {
		logger.Warn("ledger update failed", "error", err)
	}
}

func failedChunkIDs(records []manifest.ChunkRecord) []int {
	ids := make([]int, 0)
	for _, record := range records {
		if record.Failed {
			ids = append(ids, record.ChunkID)
		}
	}
	return ids
}
