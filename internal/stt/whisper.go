package stt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"cadence/internal/config"
	"cadence/internal/logging"
	"cadence/internal/stage"
)

// Whisper runs a local whisper CLI and parses its JSON output.
type Whisper struct {
	binary        string
	model         string
	language      string
	logger        *slog.Logger
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewWhisper builds a Whisper transcriber from the alignment configuration.
func NewWhisper(cfg config.Align, logger *slog.Logger) *Whisper {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Whisper{
		binary:   cfg.WhisperBinary,
		model:    cfg.WhisperModel,
		language: cfg.Language,
		logger:   logging.WithComponent(logger, "stt"),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (w *Whisper) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	w.commandRunner = runner
}

// Transcribe invokes whisper on audioPath, writing its output files under
// workDir, and flattens the result to word-level tokens. Segments without
// word timings contribute one segment-level token instead.
func (w *Whisper) Transcribe(ctx context.Context, audioPath, workDir string) ([]Token, error) {
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, stage.Wrap(stage.ErrExternalTool, "align", "transcribe", "ensure work dir", err)
	}

	args := []string{
		audioPath,
		"--model", w.model,
		"--language", w.language,
		"--output_dir", workDir,
		"--output_format", "json",
		"--word_timestamps", "True",
		"--verbose", "False",
	}
	if err := w.run(ctx, w.binary, args...); err != nil {
		return nil, stage.Wrap(stage.ErrExternalTool, "align", "transcribe", "run whisper", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	jsonPath := filepath.Join(workDir, baseName+".json")
	tokens, err := loadTokens(jsonPath)
	if err != nil {
		return nil, stage.Wrap(stage.ErrExternalTool, "align", "transcribe", "parse whisper output", err)
	}

	w.logger.Info("transcription complete", "tokens", len(tokens))
	return tokens, nil
}

func (w *Whisper) run(ctx context.Context, name string, args ...string) error {
	if w.commandRunner != nil {
		return w.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

type whisperWord struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type whisperSegment struct {
	Text  string        `json:"text"`
	Start float64       `json:"start"`
	End   float64       `json:"end"`
	Words []whisperWord `json:"words"`
}

type whisperPayload struct {
	Segments []whisperSegment `json:"segments"`
}

func loadTokens(jsonPath string) ([]Token, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	var payload whisperPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse whisper json: %w", err)
	}

	var tokens []Token
	for _, segment := range payload.Segments {
		if len(segment.Words) == 0 {
			if text := strings.TrimSpace(segment.Text); text != "" {
				tokens = append(tokens, Token{Text: text, Start: segment.Start, End: segment.End})
			}
			continue
		}
		for _, word := range segment.Words {
			if text := strings.TrimSpace(word.Word); text != "" {
				tokens = append(tokens, Token{Text: text, Start: word.Start, End: word.End})
			}
		}
	}
	return tokens, nil
}
