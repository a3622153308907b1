package chunkstore

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"cadence/internal/fileutil"
	"cadence/internal/logging"
	"cadence/internal/media/ffprobe"
	"cadence/internal/script"
	"cadence/internal/synth"
)

// Store resolves chunk requests against the episode directory, then the
// shared cache, and only then the synthesis engine.
type Store struct {
	dir      string
	cacheDir string
	engine   synth.Engine
	prober   ffprobe.Prober
	logger   *slog.Logger

	// voice parameters participate in the cache key so a config change
	// never serves stale audio
	voiceFingerprint string
}

// Options configures a Store.
type Options struct {
	Dir              string
	CacheDir         string
	Engine           synth.Engine
	Prober           ffprobe.Prober
	Logger           *slog.Logger
	VoiceFingerprint string
}

// New creates a Store rooted at opts.Dir. CacheDir may be empty to disable
// the cross-episode cache.
func New(opts Options) (*Store, error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("chunkstore: episode directory required")
	}
	if opts.Engine == nil {
		return nil, fmt.Errorf("chunkstore: engine required")
	}
	if opts.Prober == nil {
		return nil, fmt.Errorf("chunkstore: prober required")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("chunkstore: create episode directory: %w", err)
	}
	if opts.CacheDir != "" {
		if err := os.MkdirAll(opts.CacheDir, 0o755); err != nil {
			return nil, fmt.Errorf("chunkstore: create cache directory: %w", err)
		}
	}
	return &Store{
		dir:              opts.Dir,
		cacheDir:         opts.CacheDir,
		engine:           opts.Engine,
		prober:           opts.Prober,
		logger:           logging.WithComponent(opts.Logger, "chunkstore"),
		voiceFingerprint: opts.VoiceFingerprint,
	}, nil
}

// ChunkPath returns the canonical file location for a chunk ID.
func (s *Store) ChunkPath(id int) string {
	return filepath.Join(s.dir, fmt.Sprintf("chunk_%04d.wav", id))
}

// GetOrSynthesize returns the audio artifact for the chunk, synthesizing only
// when no usable file exists. The bool reports whether synthesis was skipped.
func (s *Store) GetOrSynthesize(ctx context.Context, chunk script.Chunk) (synth.Artifact, bool, error) {
	path := s.ChunkPath(chunk.ID)

	if fileutil.NonEmptyFile(path) {
		artifact, err := s.measured(ctx, path)
		if err == nil {
			s.logger.Debug("chunk reused", "chunk", chunk.ID)
			return artifact, true, nil
		}
		// Unreadable leftover from a crashed run: discard and regenerate.
		s.logger.Warn("discarding unreadable chunk file", "chunk", chunk.ID, "error", err)
		os.Remove(path)
	}

	if cached := s.cachePath(chunk); cached != "" && fileutil.NonEmptyFile(cached) {
		if err := fileutil.CopyFileAtomic(cached, path); err == nil {
			if artifact, err := s.measured(ctx, path); err == nil {
				s.logger.Debug("chunk from cache", "chunk", chunk.ID)
				return artifact, true, nil
			}
			os.Remove(path)
		}
	}

	artifact, err := s.engine.Synthesize(ctx, chunk.Text, chunk.Speaker, path)
	if err != nil {
		return synth.Artifact{}, false, &synth.ChunkError{ChunkID: chunk.ID, Cause: err}
	}

	if cached := s.cachePath(chunk); cached != "" {
		if err := fileutil.CopyFileAtomic(path, cached); err != nil {
			s.logger.Warn("cache write failed", "chunk", chunk.ID, "error", err)
		}
	}
	return artifact, false, nil
}

// Cleanup removes the per-chunk intermediates after a successful master. The
// shared cache is left alone.
func (s *Store) Cleanup() error {
	matches, err := filepath.Glob(filepath.Join(s.dir, "chunk_*.wav"))
	if err != nil {
		return err
	}
	for _, path := range matches {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("remove %s: %w", path, err)
		}
	}
	return nil
}

func (s *Store) measured(ctx context.Context, path string) (synth.Artifact, error) {
	seconds, err := s.prober(ctx, path)
	if err != nil {
		return synth.Artifact{}, err
	}
	return synth.Artifact{Path: path, DurationSeconds: seconds}, nil
}

// ContentHash returns the content key for a chunk, derived from its text,
// speaker, and the active voice parameters. The manifest records it so cache
// hits can be traced back to their source.
func (s *Store) ContentHash(chunk script.Chunk) string {
	sum := sha256.Sum256([]byte(chunk.Text + "|" + string(chunk.Speaker) + "|" + s.voiceFingerprint))
	return fmt.Sprintf("%x", sum[:8])
}

// cachePath derives the content-addressed cache location for a chunk. Empty
// when caching is disabled.
func (s *Store) cachePath(chunk script.Chunk) string {
	if s.cacheDir == "" {
		return ""
	}
	return filepath.Join(s.cacheDir, s.ContentHash(chunk)+".wav")
}
