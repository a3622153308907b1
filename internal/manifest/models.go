package manifest

import "time"

// Status is the lifecycle state of one render run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Record is one render run as stored in the ledger.
type Record struct {
	RunID           string
	EpisodeID       string
	Title           string
	Status          Status
	AudioPath       string
	ChunkCount      int
	FailedChunks    []int
	CacheHits       int
	DurationSeconds float64
	RenderSeconds   float64
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ChunkRecord describes one chunk in the per-episode manifest.
type ChunkRecord struct {
	ChunkID         int     `json:"chunk_id"`
	LineIndex       int     `json:"line_index"`
	Speaker         string  `json:"speaker"`
	ContentHash     string  `json:"content_hash,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	CacheHit        bool    `json:"cache_hit,omitempty"`
	Failed          bool    `json:"failed,omitempty"`
}

// Manifest is the per-episode run summary written next to the audio.
type Manifest struct {
	RunID           string        `json:"run_id"`
	EpisodeID       string        `json:"episode_id"`
	Title           string        `json:"title,omitempty"`
	AudioPath       string        `json:"audio_path"`
	DurationSeconds float64       `json:"duration_seconds"`
	SegmentCount    int           `json:"segment_count"`
	ChunkCount      int           `json:"chunk_count"`
	FailedChunks    []int         `json:"failed_chunks"`
	CacheHits       int           `json:"cache_hits"`
	RenderSeconds   float64       `json:"render_seconds"`
	Chunks          []ChunkRecord `json:"chunks,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}
