package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
	CacheDir  string `toml:"cache_dir"`
}

// Engine contains voice synthesis backend configuration. Backend selects the
// implementation at startup; the rest of the pipeline is engine-agnostic.
type Engine struct {
	// Backend is one of "voicevox", "cloud", or "fallback".
	Backend string `toml:"backend"`

	VoicevoxURL            string  `toml:"voicevox_url"`
	VoicevoxPrimarySpeaker int     `toml:"voicevox_primary_speaker"`
	VoicevoxSecondSpeaker  int     `toml:"voicevox_secondary_speaker"`
	SpeedScale             float64 `toml:"speed_scale"`
	PitchScale             float64 `toml:"pitch_scale"`
	IntonationScale        float64 `toml:"intonation_scale"`
	VolumeScale            float64 `toml:"volume_scale"`

	CloudURL            string   `toml:"cloud_url"`
	CloudAPIKeys        []string `toml:"cloud_api_keys"`
	CloudPrimaryVoice   string   `toml:"cloud_primary_voice"`
	CloudSecondaryVoice string   `toml:"cloud_secondary_voice"`
	CloudPacingMillis   int      `toml:"cloud_pacing_ms"`
	CloudMaxRetries     int      `toml:"cloud_max_retries"`

	FallbackURL string `toml:"fallback_url"`

	RequestTimeoutSeconds int `toml:"request_timeout_seconds"`
}

// Audio contains mastering configuration.
type Audio struct {
	CrossfadeMillis    int     `toml:"crossfade_ms"`
	MaxCrossfadeChunks int     `toml:"max_crossfade_chunks"`
	SilenceThresholdDB float64 `toml:"silence_threshold_db"`
	TargetLUFS         float64 `toml:"target_lufs"`
	SampleRate         int     `toml:"sample_rate"`
	OutputBitrate      string  `toml:"output_bitrate"`
	DriftWarnSeconds   float64 `toml:"drift_warn_seconds"`
}

// Chunking contains text splitting limits for synthesis input.
type Chunking struct {
	MaxChars int `toml:"max_chars"`
	MinChars int `toml:"min_chars"`
}

// Align contains transcription-based alignment configuration.
type Align struct {
	Enabled             bool    `toml:"enabled"`
	WhisperBinary       string  `toml:"whisper_binary"`
	WhisperModel        string  `toml:"whisper_model"`
	Language            string  `toml:"language"`
	AcceptThreshold     float64 `toml:"accept_threshold"`
	ConfidentThreshold  float64 `toml:"confident_threshold"`
	LookaheadTokens     int     `toml:"lookahead_tokens"`
	SegmentGapSeconds   float64 `toml:"segment_gap_seconds"`
	ReadingCharsPerSec  float64 `toml:"reading_chars_per_sec"`
	LowConfidenceReport float64 `toml:"low_confidence_report"`
}

// Subtitles contains display constraints applied by the timing optimizer.
type Subtitles struct {
	MinDisplaySeconds  float64 `toml:"min_display_seconds"`
	MaxDisplaySeconds  float64 `toml:"max_display_seconds"`
	MaxCharsPerSegment int     `toml:"max_chars_per_segment"`
	MaxCharsPerSecond  float64 `toml:"max_chars_per_second"`
	MaxCharsPerLine    int     `toml:"max_chars_per_line"`
	MaxLines           int     `toml:"max_lines"`
	OverlapGapSeconds  float64 `toml:"overlap_gap_seconds"`
}

// Logging contains log output configuration.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Cadence.
//
// Sections by subsystem:
//   - Paths: episode output, log, and synthesis cache directories
//   - Engine: voice synthesis backend selection and parameters
//   - Audio: concatenation, loudness, and encoding settings
//   - Chunking: text splitting limits
//   - Align: transcription verification thresholds
//   - Subtitles: display-duration and length constraints
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Engine    Engine    `toml:"engine"`
	Audio     Audio     `toml:"audio"`
	Chunking  Chunking  `toml:"chunking"`
	Align     Align     `toml:"align"`
	Subtitles Subtitles `toml:"subtitles"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/cadence/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized. The bool reports whether a file
// was found at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("cadence.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories Cadence writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.LogDir, c.Paths.CacheDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name used for mastering.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for duration measurement.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
