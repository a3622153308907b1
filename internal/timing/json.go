package timing

import (
	"encoding/json"
	"fmt"
	"os"

	"cadence/internal/fileutil"
)

// WriteJSON persists the timing table atomically. The file is the renderer
// contract alongside the SRT, so a partial write must never be observable.
func WriteJSON(path string, segments []Segment) error {
	data, err := json.MarshalIndent(segments, "", "  ")
	if err != nil {
		return fmt.Errorf("encode timing table: %w", err)
	}
	data = append(data, '\n')
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write timing table: %w", err)
	}
	return nil
}

// ReadJSON loads a previously written timing table.
func ReadJSON(path string) ([]Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read timing table: %w", err)
	}
	var segments []Segment
	if err := json.Unmarshal(data, &segments); err != nil {
		return nil, fmt.Errorf("decode timing table: %w", err)
	}
	return segments, nil
}
