package script

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Role identifies which of the two configured voices speaks a line.
type Role string

const (
	RolePrimary   Role = "primary"
	RoleSecondary Role = "secondary"
)

// Line is one authored utterance. Text keeps the original wording for
// subtitles; spoken form is derived later and never stored back here.
type Line struct {
	Speaker Role   `json:"speaker"`
	Text    string `json:"text"`
}

// Script is an ordered, immutable list of dialogue lines.
type Script struct {
	Title string `json:"title,omitempty"`
	Lines []Line `json:"lines"`
}

// NormalizeRole maps a free-form source label onto one of the two renderer
// roles. Unknown labels fall back to the primary voice.
func NormalizeRole(label string) Role {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "sub", "b", "female", "woman", "assistant", "secondary", "host b", "女性":
		return RoleSecondary
	default:
		return RolePrimary
	}
}

type jsonLine struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

type jsonScript struct {
	Title     string     `json:"title"`
	Dialogues []jsonLine `json:"dialogues"`
	Lines     []jsonLine `json:"lines"`
}

// ParseJSON reads a script from JSON. Both a bare array of line objects and a
// wrapper object with a "dialogues" (or "lines") array are accepted.
func ParseJSON(r io.Reader) (*Script, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}

	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, fmt.Errorf("script is empty")
	}

	var raw []jsonLine
	var title string
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
			return nil, fmt.Errorf("parse script array: %w", err)
		}
	} else {
		var wrapper jsonScript
		if err := json.Unmarshal([]byte(trimmed), &wrapper); err != nil {
			return nil, fmt.Errorf("parse script object: %w", err)
		}
		title = wrapper.Title
		raw = wrapper.Dialogues
		if len(raw) == 0 {
			raw = wrapper.Lines
		}
	}

	s := &Script{Title: title}
	for _, entry := range raw {
		text := strings.TrimSpace(entry.Text)
		if text == "" {
			continue
		}
		s.Lines = append(s.Lines, Line{Speaker: NormalizeRole(entry.Speaker), Text: text})
	}
	if len(s.Lines) == 0 {
		return nil, fmt.Errorf("script contains no usable lines")
	}
	return s, nil
}

// ParseScenario reads a plain text scenario. Each non-empty row is either
// "Speaker: text" (half or full width colon) or a continuation of the previous
// speaker's line. Markdown bold markers around speaker names are stripped.
func ParseScenario(r io.Reader) (*Script, error) {
	s := &Script{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	current := RolePrimary
	for scanner.Scan() {
		row := strings.TrimSpace(scanner.Text())
		if row == "" || strings.HasPrefix(row, "#") {
			continue
		}

		label, text, ok := splitSpeaker(row)
		if ok {
			current = NormalizeRole(label)
			if text == "" {
				continue
			}
			s.Lines = append(s.Lines, Line{Speaker: current, Text: text})
			continue
		}

		// Continuation row: append to the previous line when one exists.
		if n := len(s.Lines); n > 0 && s.Lines[n-1].Speaker == current {
			s.Lines[n-1].Text += row
			continue
		}
		s.Lines = append(s.Lines, Line{Speaker: current, Text: row})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	if len(s.Lines) == 0 {
		return nil, fmt.Errorf("scenario contains no usable lines")
	}
	return s, nil
}

// splitSpeaker splits "A: こんにちは" style rows. The label must be short;
// otherwise a colon inside dialogue text would be mistaken for a separator.
func splitSpeaker(row string) (label, text string, ok bool) {
	idx := strings.IndexAny(row, ":：")
	if idx <= 0 {
		return "", "", false
	}
	label = strings.TrimSpace(row[:idx])
	label = strings.Trim(label, "*")
	if label == "" || len([]rune(label)) > 12 {
		return "", "", false
	}
	sep := 1
	if row[idx] != ':' {
		sep = len("：")
	}
	return label, strings.TrimSpace(row[idx+sep:]), true
}
