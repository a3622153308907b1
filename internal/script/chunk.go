package script

// Chunk is one synthesizable unit of text, split from a dialogue line when it
// exceeds the character budget. IDs are assigned in document order and are
// the sole ordering key for reassembly.
type Chunk struct {
	ID        int    `json:"chunk_id"`
	LineIndex int    `json:"line_index"`
	Speaker   Role   `json:"speaker"`
	Text      string `json:"text"`
}
