package textnorm

import "strings"

const (
	sentenceEnders = "。！？!?"
	clauseBreaks   = "、,；;"
)

// SplitChunks splits text into synthesis-sized pieces of at most maxChars
// runes. Splits happen at sentence-ending punctuation first, then clause
// punctuation, then a hard character boundary as the last resort. Every chunk
// is non-empty and concatenating the chunks in order reproduces the input
// exactly. Chunks shorter than minChars merge into a neighbor when the result
// still fits the budget.
func SplitChunks(text string, maxChars, minChars int) []string {
	if text == "" {
		return nil
	}
	if maxChars <= 0 || len([]rune(text)) <= maxChars {
		return []string{text}
	}

	var chunks []string
	for _, sentence := range splitAfterAny(text, sentenceEnders) {
		if runeLen(sentence) <= maxChars {
			chunks = appendPacked(chunks, sentence, maxChars)
			continue
		}
		for _, clause := range splitAfterAny(sentence, clauseBreaks) {
			if runeLen(clause) <= maxChars {
				chunks = appendPacked(chunks, clause, maxChars)
				continue
			}
			chunks = append(chunks, hardSplit(clause, maxChars)...)
		}
	}

	return mergeShort(chunks, maxChars, minChars)
}

// appendPacked greedily extends the last chunk while it stays within budget.
func appendPacked(chunks []string, piece string, maxChars int) []string {
	if n := len(chunks); n > 0 && runeLen(chunks[n-1])+runeLen(piece) <= maxChars {
		chunks[n-1] += piece
		return chunks
	}
	return append(chunks, piece)
}

// splitAfterAny cuts text after each occurrence of any rune in seps, keeping
// the separator attached to the preceding piece.
func splitAfterAny(text string, seps string) []string {
	var pieces []string
	start := 0
	for i, r := range text {
		if strings.ContainsRune(seps, r) {
			end := i + len(string(r))
			pieces = append(pieces, text[start:end])
			start = end
		}
	}
	if start < len(text) {
		pieces = append(pieces, text[start:])
	}
	return pieces
}

func hardSplit(text string, maxChars int) []string {
	runes := []rune(text)
	var pieces []string
	for len(runes) > maxChars {
		pieces = append(pieces, string(runes[:maxChars]))
		runes = runes[maxChars:]
	}
	if len(runes) > 0 {
		pieces = append(pieces, string(runes))
	}
	return pieces
}

// mergeShort folds sub-minimum chunks into a neighbor where the combined
// chunk still fits. A short chunk that cannot merge is kept as-is; the size
// floor is best effort, the ceiling is not.
func mergeShort(chunks []string, maxChars, minChars int) []string {
	if minChars <= 0 || len(chunks) < 2 {
		return chunks
	}
	out := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if n := len(out); n > 0 && runeLen(chunk) < minChars && runeLen(out[n-1])+runeLen(chunk) <= maxChars {
			out[n-1] += chunk
			continue
		}
		out = append(out, chunk)
	}
	// A short leading chunk merges forward instead.
	if len(out) >= 2 && runeLen(out[0]) < minChars && runeLen(out[0])+runeLen(out[1]) <= maxChars {
		out[1] = out[0] + out[1]
		out = out[1:]
	}
	return out
}

func runeLen(s string) int {
	return len([]rune(s))
}
