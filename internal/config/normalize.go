package config

import (
	"fmt"
	"strings"
)

// normalize expands path fields and fills empty values with defaults so the
// rest of the program never has to re-check them.
func (c *Config) normalize() error {
	var err error
	if c.Paths.OutputDir, err = expandPath(valueOr(c.Paths.OutputDir, defaultOutputDir)); err != nil {
		return fmt.Errorf("normalize output dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(valueOr(c.Paths.LogDir, defaultLogDir)); err != nil {
		return fmt.Errorf("normalize log dir: %w", err)
	}
	if c.Paths.CacheDir, err = expandPath(valueOr(c.Paths.CacheDir, defaultCacheDir)); err != nil {
		return fmt.Errorf("normalize cache dir: %w", err)
	}

	c.Engine.Backend = strings.ToLower(strings.TrimSpace(valueOr(c.Engine.Backend, defaultBackend)))
	c.Engine.VoicevoxURL = strings.TrimRight(strings.TrimSpace(valueOr(c.Engine.VoicevoxURL, defaultVoicevoxURL)), "/")
	c.Engine.CloudURL = strings.TrimSpace(c.Engine.CloudURL)
	c.Engine.FallbackURL = strings.TrimSpace(c.Engine.FallbackURL)
	if c.Engine.SpeedScale == 0 {
		c.Engine.SpeedScale = defaultSpeedScale
	}
	if c.Engine.IntonationScale == 0 {
		c.Engine.IntonationScale = defaultIntonationScale
	}
	if c.Engine.VolumeScale == 0 {
		c.Engine.VolumeScale = defaultVolumeScale
	}
	if c.Engine.CloudMaxRetries <= 0 {
		c.Engine.CloudMaxRetries = defaultCloudMaxRetries
	}
	if c.Engine.RequestTimeoutSeconds <= 0 {
		c.Engine.RequestTimeoutSeconds = defaultRequestTimeout
	}

	keys := make([]string, 0, len(c.Engine.CloudAPIKeys))
	for _, key := range c.Engine.CloudAPIKeys {
		if trimmed := strings.TrimSpace(key); trimmed != "" {
			keys = append(keys, trimmed)
		}
	}
	c.Engine.CloudAPIKeys = keys

	if c.Audio.OutputBitrate == "" {
		c.Audio.OutputBitrate = defaultOutputBitrate
	}
	if c.Audio.SampleRate <= 0 {
		c.Audio.SampleRate = defaultSampleRate
	}
	if c.Audio.MaxCrossfadeChunks <= 0 {
		c.Audio.MaxCrossfadeChunks = defaultMaxCrossfadeChunks
	}
	if c.Audio.DriftWarnSeconds <= 0 {
		c.Audio.DriftWarnSeconds = defaultDriftWarnSeconds
	}

	if c.Chunking.MaxChars <= 0 {
		c.Chunking.MaxChars = defaultMaxChunkChars
	}
	if c.Chunking.MinChars <= 0 {
		c.Chunking.MinChars = defaultMinChunkChars
	}

	c.Align.WhisperBinary = valueOr(strings.TrimSpace(c.Align.WhisperBinary), defaultWhisperBinary)
	c.Align.WhisperModel = valueOr(strings.TrimSpace(c.Align.WhisperModel), defaultWhisperModel)
	c.Align.Language = valueOr(strings.TrimSpace(c.Align.Language), defaultAlignLanguage)
	if c.Align.AcceptThreshold <= 0 {
		c.Align.AcceptThreshold = defaultAcceptThreshold
	}
	if c.Align.ConfidentThreshold <= 0 {
		c.Align.ConfidentThreshold = defaultConfidentThreshold
	}
	if c.Align.LookaheadTokens <= 0 {
		c.Align.LookaheadTokens = defaultLookaheadTokens
	}
	if c.Align.SegmentGapSeconds <= 0 {
		c.Align.SegmentGapSeconds = defaultSegmentGapSeconds
	}
	if c.Align.ReadingCharsPerSec <= 0 {
		c.Align.ReadingCharsPerSec = defaultReadingCharsPerSec
	}
	if c.Align.LowConfidenceReport <= 0 {
		c.Align.LowConfidenceReport = defaultLowConfidence
	}

	if c.Subtitles.MinDisplaySeconds <= 0 {
		c.Subtitles.MinDisplaySeconds = defaultMinDisplaySeconds
	}
	if c.Subtitles.MaxDisplaySeconds <= 0 {
		c.Subtitles.MaxDisplaySeconds = defaultMaxDisplaySeconds
	}
	if c.Subtitles.MaxCharsPerSegment <= 0 {
		c.Subtitles.MaxCharsPerSegment = defaultMaxCharsPerSegment
	}
	if c.Subtitles.MaxCharsPerSecond <= 0 {
		c.Subtitles.MaxCharsPerSecond = defaultMaxCharsPerSecond
	}
	if c.Subtitles.MaxCharsPerLine <= 0 {
		c.Subtitles.MaxCharsPerLine = defaultMaxCharsPerLine
	}
	if c.Subtitles.MaxLines <= 0 {
		c.Subtitles.MaxLines = defaultMaxLines
	}
	if c.Subtitles.OverlapGapSeconds <= 0 {
		c.Subtitles.OverlapGapSeconds = defaultOverlapGapSeconds
	}

	c.Logging.Format = strings.ToLower(valueOr(strings.TrimSpace(c.Logging.Format), defaultLogFormat))
	c.Logging.Level = strings.ToLower(valueOr(strings.TrimSpace(c.Logging.Level), defaultLogLevel))

	return nil
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
