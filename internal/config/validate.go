package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate reports configuration combinations that cannot work at runtime.
func (c *Config) Validate() error {
	var problems []string

	switch c.Engine.Backend {
	case "voicevox":
		if c.Engine.VoicevoxURL == "" {
			problems = append(problems, "engine.voicevox_url is required for backend \"voicevox\"")
		}
	case "cloud":
		if c.Engine.CloudURL == "" {
			problems = append(problems, "engine.cloud_url is required for backend \"cloud\"")
		}
		if len(c.Engine.CloudAPIKeys) == 0 {
			problems = append(problems, "engine.cloud_api_keys must contain at least one key for backend \"cloud\"")
		}
	case "fallback":
		if c.Engine.FallbackURL == "" {
			problems = append(problems, "engine.fallback_url is required for backend \"fallback\"")
		}
	default:
		problems = append(problems, fmt.Sprintf("engine.backend: unsupported value %q", c.Engine.Backend))
	}

	if c.Chunking.MinChars >= c.Chunking.MaxChars {
		problems = append(problems, fmt.Sprintf(
			"chunking.min_chars (%d) must be below chunking.max_chars (%d)",
			c.Chunking.MinChars, c.Chunking.MaxChars))
	}
	if c.Audio.CrossfadeMillis < 0 {
		problems = append(problems, "audio.crossfade_ms must not be negative")
	}
	if c.Audio.SilenceThresholdDB >= 0 {
		problems = append(problems, "audio.silence_threshold_db must be negative")
	}
	if c.Audio.TargetLUFS >= 0 {
		problems = append(problems, "audio.target_lufs must be negative")
	}
	if c.Align.AcceptThreshold >= c.Align.ConfidentThreshold {
		problems = append(problems, fmt.Sprintf(
			"align.accept_threshold (%.2f) must be below align.confident_threshold (%.2f)",
			c.Align.AcceptThreshold, c.Align.ConfidentThreshold))
	}
	if c.Subtitles.MinDisplaySeconds >= c.Subtitles.MaxDisplaySeconds {
		problems = append(problems, fmt.Sprintf(
			"subtitles.min_display_seconds (%.1f) must be below subtitles.max_display_seconds (%.1f)",
			c.Subtitles.MinDisplaySeconds, c.Subtitles.MaxDisplaySeconds))
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format: unsupported value %q", c.Logging.Format))
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
