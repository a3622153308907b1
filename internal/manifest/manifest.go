package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"cadence/internal/fileutil"
)

const manifestFile = "manifest.json"

// WriteManifest persists the per-episode summary into the episode directory.
func WriteManifest(episodeDir string, m *Manifest) error {
	if m.FailedChunks == nil {
		m.FailedChunks = []int{}
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	data = append(data, '\n')
	if err := fileutil.WriteFileAtomic(filepath.Join(episodeDir, manifestFile), data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// ReadManifest loads the summary written by a previous run.
func ReadManifest(episodeDir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(episodeDir, manifestFile))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &m, nil
}
