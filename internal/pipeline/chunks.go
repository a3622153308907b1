package pipeline

import (
	"fmt"
	"strings"

	"cadence/internal/config"
	"cadence/internal/script"
	"cadence/internal/textnorm"
)

// buildChunks normalizes each line for pronunciation and splits it into
// synthesis-sized chunks. Chunk ids are assigned in document order and are
// the sole ordering key for reassembly. Whitespace-only lines are dropped.
func buildChunks(lines []script.Line, chunking config.Chunking) []script.Chunk {
	var chunks []script.Chunk
	nextID := 0
	for lineIndex, line := range lines {
		if strings.TrimSpace(line.Text) == "" {
			continue
		}
		normalized := textnorm.Normalize(line.Text)
		for _, piece := range textnorm.SplitChunks(normalized, chunking.MaxChars, chunking.MinChars) {
			chunks = append(chunks, script.Chunk{
				ID:        nextID,
				LineIndex: lineIndex,
				Speaker:   line.Speaker,
				Text:      piece,
			})
			nextID++
		}
	}
	return chunks
}

// voiceFingerprint keys the shared synthesis cache on everything that
// changes how a chunk sounds.
func voiceFingerprint(engine config.Engine) string {
	return fmt.Sprintf("%s|%d|%d|%g|%g|%g|%g|%s|%s",
		engine.Backend,
		engine.VoicevoxPrimarySpeaker, engine.VoicevoxSecondSpeaker,
		engine.SpeedScale, engine.PitchScale, engine.IntonationScale, engine.VolumeScale,
		engine.CloudPrimaryVoice, engine.CloudSecondaryVoice)
}
