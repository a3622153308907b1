package master

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"cadence/internal/stage"
)

// loudnessMeasurement holds the first-pass loudnorm statistics. ffmpeg
// reports the numeric fields as JSON strings.
type loudnessMeasurement struct {
	InputI      string `json:"input_i"`
	InputTP     string `json:"input_tp"`
	InputLRA    string `json:"input_lra"`
	InputThresh string `json:"input_thresh"`
}

// normalizeLoudness applies two-pass loudness normalization toward the
// configured target. When the first-pass statistics cannot be obtained a
// single-pass normalization runs instead, trading precision for a completed
// episode.
func (m *Masterer) normalizeLoudness(ctx context.Context, inputPath, outputPath string) error {
	measured, err := m.analyzeLoudness(ctx, inputPath)
	if err != nil {
		m.logger.Warn("loudness analysis failed, applying single-pass normalization", "error", err)
		measured = nil
	}
	return m.applyLoudnorm(ctx, inputPath, outputPath, measured)
}

func (m *Masterer) analyzeLoudness(ctx context.Context, inputPath string) (*loudnessMeasurement, error) {
	args := []string{
		"-hide_banner",
		"-i", inputPath,
		"-af", m.loudnormBase() + ":print_format=json",
		"-f", "null", "-",
	}
	output, err := m.run(ctx, m.binary, args...)
	if err != nil {
		return nil, err
	}
	return parseLoudness(output)
}

// parseLoudness extracts the stats block loudnorm prints to stderr, using the
// last brace pair so stray braces earlier in the log do not confuse it.
func parseLoudness(output []byte) (*loudnessMeasurement, error) {
	start := bytes.LastIndexByte(output, '{')
	end := bytes.LastIndexByte(output, '}')
	if start < 0 || end < start {
		return nil, errors.New("no loudnorm stats in ffmpeg output")
	}
	var measured loudnessMeasurement
	if err := json.Unmarshal(output[start:end+1], &measured); err != nil {
		return nil, fmt.Errorf("parse loudnorm stats: %w", err)
	}
	if measured.InputI == "" {
		return nil, errors.New("loudnorm stats missing input_i")
	}
	return &measured, nil
}

func (m *Masterer) applyLoudnorm(ctx context.Context, inputPath, outputPath string, measured *loudnessMeasurement) error {
	filter := m.loudnormBase()
	if measured != nil {
		filter += fmt.Sprintf(":measured_I=%s:measured_TP=%s:measured_LRA=%s:measured_thresh=%s:linear=true",
			measured.InputI, measured.InputTP, measured.InputLRA, measured.InputThresh)
	}

	// loudnorm upsamples internally; -ar restores the delivery sample rate.
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", inputPath,
		"-af", filter,
		"-ar", strconv.Itoa(m.cfg.SampleRate),
		outputPath,
	}
	if _, err := m.run(ctx, m.binary, args...); err != nil {
		return stage.Wrap(stage.ErrExternalTool, "master", "loudnorm", "normalize loudness", err)
	}
	return nil
}

func (m *Masterer) loudnormBase() string {
	return fmt.Sprintf("loudnorm=I=%g:TP=-1.5:LRA=11", m.cfg.TargetLUFS)
}
