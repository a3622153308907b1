package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Prober measures the duration of an audio file in seconds. Production code
// uses Duration; tests substitute a fixed-value implementation.
type Prober func(ctx context.Context, path string) (float64, error)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	Duration   string `json:"duration"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
	BitRate    string `json:"bit_rate"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
	FormatName string `json:"format_name"`
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(string(output)))
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// Duration returns a Prober backed by the given ffprobe binary. A zero or
// unreadable duration is reported as an error so callers treat it like any
// other synthesis failure.
func Duration(binary string) Prober {
	return func(ctx context.Context, path string) (float64, error) {
		result, err := Inspect(ctx, binary, path)
		if err != nil {
			return 0, err
		}
		seconds := result.DurationSeconds()
		if math.IsNaN(seconds) || seconds <= 0 {
			return 0, fmt.Errorf("ffprobe duration: no usable duration for %s", path)
		}
		return seconds, nil
	}
}

// AudioStreamCount returns the number of audio streams discovered.
func (r Result) AudioStreamCount() int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			count++
		}
	}
	return count
}

// DurationSeconds returns the container duration in seconds, falling back to
// the first audio stream's duration when the container omits one.
func (r Result) DurationSeconds() float64 {
	if seconds := parseFloat(r.Format.Duration); seconds > 0 || math.IsNaN(seconds) {
		return seconds
	}
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			if seconds := parseFloat(stream.Duration); seconds > 0 {
				return seconds
			}
		}
	}
	return 0
}

// SampleRate returns the first audio stream's sample rate in Hz, or 0.
func (r Result) SampleRate() int {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			rate := parseFloat(stream.SampleRate)
			if !math.IsNaN(rate) && rate > 0 {
				return int(rate)
			}
		}
	}
	return 0
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
