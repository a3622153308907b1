package manifest

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenPath(filepath.Join(t.TempDir(), "manifest.db"))
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRunLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	record, err := store.StartRun(ctx, "ep-001", "天気の話")
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if record.RunID == "" {
		t.Fatal("expected a generated run id")
	}
	if record.Status != StatusRunning {
		t.Errorf("expected running status, got %s", record.Status)
	}

	record.AudioPath = "/out/ep-001/episode.mp3"
	record.ChunkCount = 12
	record.FailedChunks = []int{7}
	record.CacheHits = 3
	record.DurationSeconds = 95.4
	record.RenderSeconds = 41.2
	if err := store.CompleteRun(ctx, record); err != nil {
		t.Fatalf("CompleteRun: %v", err)
	}

	got, err := store.LatestRun(ctx, "ep-001")
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Errorf("expected completed status, got %s", got.Status)
	}
	if len(got.FailedChunks) != 1 || got.FailedChunks[0] != 7 {
		t.Errorf("failed chunk list not preserved: %v", got.FailedChunks)
	}
	if got.DurationSeconds != 95.4 || got.CacheHits != 3 {
		t.Errorf("summary fields not preserved: %+v", got)
	}
	if got.UpdatedAt.Before(got.CreatedAt) {
		t.Error("updated_at should not precede created_at")
	}
}

func TestFailRunRecordsMessage(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	record, err := store.StartRun(ctx, "ep-002", "")
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if err := store.FailRun(ctx, record.RunID, "no audio chunks could be synthesized"); err != nil {
		t.Fatalf("FailRun: %v", err)
	}

	got, err := store.LatestRun(ctx, "ep-002")
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if got.Status != StatusFailed {
		t.Errorf("expected failed status, got %s", got.Status)
	}
	if got.ErrorMessage == "" {
		t.Error("expected the fatal message to be recorded")
	}
}

func TestRetryCreatesFreshRecord(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first, err := store.StartRun(ctx, "ep-003", "")
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if err := store.FailRun(ctx, first.RunID, "engine unreachable"); err != nil {
		t.Fatalf("FailRun: %v", err)
	}

	second, err := store.StartRun(ctx, "ep-003", "")
	if err != nil {
		t.Fatalf("StartRun retry: %v", err)
	}
	if second.RunID == first.RunID {
		t.Error("retry must get a fresh run id")
	}

	latest, err := store.LatestRun(ctx, "ep-003")
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if latest.RunID != second.RunID {
		t.Errorf("latest run should be the retry, got %s", latest.RunID)
	}
}

func TestListRecentOrdersNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"ep-a", "ep-b", "ep-c"} {
		if _, err := store.StartRun(ctx, id, ""); err != nil {
			t.Fatalf("StartRun %s: %v", id, err)
		}
	}

	records, err := store.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].EpisodeID != "ep-c" || records[1].EpisodeID != "ep-b" {
		t.Errorf("unexpected order: %s, %s", records[0].EpisodeID, records[1].EpisodeID)
	}
}

func TestLatestRunMissingEpisode(t *testing.T) {
	store := openTestStore(t)
	_, err := store.LatestRun(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateUnknownRun(t *testing.T) {
	store := openTestStore(t)
	if err := store.FailRun(context.Background(), "missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestManifestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	m := &Manifest{
		RunID:           "run-1",
		EpisodeID:       "ep-001",
		AudioPath:       "/out/ep-001/episode.mp3",
		DurationSeconds: 95.4,
		SegmentCount:    30,
		ChunkCount:      12,
		CacheHits:       3,
		RenderSeconds:   41.2,
		Chunks: []ChunkRecord{
			{ChunkID: 0, LineIndex: 0, Speaker: "primary", ContentHash: "ab12cd34ef56ab12", DurationSeconds: 1.5},
			{ChunkID: 1, LineIndex: 1, Speaker: "secondary", Failed: true},
		},
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}

	if err := WriteManifest(dir, m); err != nil {
		t.Fatalf("WriteManifest: %v", err)
	}
	got, err := ReadManifest(dir)
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if got.RunID != "run-1" || got.ChunkCount != 12 {
		t.Errorf("manifest fields not preserved: %+v", got)
	}
	if got.FailedChunks == nil {
		t.Error("failed chunk list should serialize as an empty array")
	}
	if len(got.Chunks) != 2 || !got.Chunks[1].Failed {
		t.Errorf("chunk records not preserved: %+v", got.Chunks)
	}
}
