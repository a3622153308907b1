package textnorm

import (
	"html"
	"regexp"
	"strings"
	"unicode"
)

// wordPattern matches Latin word tokens, including digit-bearing ones like
// fp64 or 5g, without touching surrounding Japanese text.
var wordPattern = regexp.MustCompile(`[0-9]*[a-zA-Z][a-zA-Z0-9]*`)

// Normalize rewrites raw dialogue text into the form handed to the voice
// engine. The result is stable under repeated application, and non-empty
// whenever the input holds anything beyond whitespace.
func Normalize(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return strings.TrimSpace(raw)
	}

	text := html.UnescapeString(raw)

	for symbol, spoken := range symbolWords {
		text = strings.ReplaceAll(text, symbol, spoken)
	}

	text = wordPattern.ReplaceAllStringFunc(text, replaceWord)

	text = strings.TrimSpace(text)
	if text == "" {
		return strings.TrimSpace(raw)
	}
	return text
}

func replaceWord(word string) string {
	lower := strings.ToLower(word)
	if reading, ok := katakanaWords[lower]; ok {
		return reading
	}
	if isAcronym(word) {
		return spellOut(lower)
	}
	// Unknown word: leave untouched rather than guess a reading.
	return word
}

// isAcronym reports tokens like "HTTP" or "GPT5" that the engine would
// otherwise read as gibberish. Mixed-case words are likely real words.
func isAcronym(word string) bool {
	runes := []rune(word)
	if len(runes) < 2 || len(runes) > 6 {
		return false
	}
	for _, r := range runes {
		if unicode.IsLetter(r) && !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

func spellOut(lower string) string {
	var b strings.Builder
	for _, r := range lower {
		if reading, ok := letterReadings[r]; ok {
			b.WriteString(reading)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
