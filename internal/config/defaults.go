package config

const (
	defaultOutputDir = "~/.local/share/cadence/episodes"
	defaultLogDir    = "~/.local/share/cadence/logs"
	defaultCacheDir  = "~/.cache/cadence/voice"

	defaultBackend          = "voicevox"
	defaultVoicevoxURL      = "http://127.0.0.1:50021"
	defaultPrimarySpeaker   = 20
	defaultSecondarySpeaker = 2
	defaultSpeedScale       = 1.15
	defaultIntonationScale  = 1.0
	defaultVolumeScale      = 1.0
	defaultCloudPacingMS    = 500
	defaultCloudMaxRetries  = 3
	defaultRequestTimeout   = 120

	defaultCrossfadeMillis    = 200
	defaultMaxCrossfadeChunks = 50
	defaultSilenceThresholdDB = -40.0
	defaultTargetLUFS         = -16.0
	defaultSampleRate         = 24000
	defaultOutputBitrate      = "192k"
	defaultDriftWarnSeconds   = 1.0

	defaultMaxChunkChars = 80
	defaultMinChunkChars = 20

	defaultWhisperBinary      = "whisper"
	defaultWhisperModel       = "base"
	defaultAlignLanguage      = "ja"
	defaultAcceptThreshold    = 0.4
	defaultConfidentThreshold = 0.85
	defaultLookaheadTokens    = 200
	defaultSegmentGapSeconds  = 0.2
	defaultReadingCharsPerSec = 7.0
	defaultLowConfidence      = 0.5

	defaultMinDisplaySeconds  = 1.0
	defaultMaxDisplaySeconds  = 7.0
	defaultMaxCharsPerSegment = 80
	defaultMaxCharsPerSecond  = 25.0
	defaultMaxCharsPerLine    = 26
	defaultMaxLines           = 2
	defaultOverlapGapSeconds  = 0.1

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
			CacheDir:  defaultCacheDir,
		},
		Engine: Engine{
			Backend:                defaultBackend,
			VoicevoxURL:            defaultVoicevoxURL,
			VoicevoxPrimarySpeaker: defaultPrimarySpeaker,
			VoicevoxSecondSpeaker:  defaultSecondarySpeaker,
			SpeedScale:             defaultSpeedScale,
			PitchScale:             0,
			IntonationScale:        defaultIntonationScale,
			VolumeScale:            defaultVolumeScale,
			CloudPacingMillis:      defaultCloudPacingMS,
			CloudMaxRetries:        defaultCloudMaxRetries,
			RequestTimeoutSeconds:  defaultRequestTimeout,
		},
		Audio: Audio{
			CrossfadeMillis:    defaultCrossfadeMillis,
			MaxCrossfadeChunks: defaultMaxCrossfadeChunks,
			SilenceThresholdDB: defaultSilenceThresholdDB,
			TargetLUFS:         defaultTargetLUFS,
			SampleRate:         defaultSampleRate,
			OutputBitrate:      defaultOutputBitrate,
			DriftWarnSeconds:   defaultDriftWarnSeconds,
		},
		Chunking: Chunking{
			MaxChars: defaultMaxChunkChars,
			MinChars: defaultMinChunkChars,
		},
		Align: Align{
			Enabled:             true,
			WhisperBinary:       defaultWhisperBinary,
			WhisperModel:        defaultWhisperModel,
			Language:            defaultAlignLanguage,
			AcceptThreshold:     defaultAcceptThreshold,
			ConfidentThreshold:  defaultConfidentThreshold,
			LookaheadTokens:     defaultLookaheadTokens,
			SegmentGapSeconds:   defaultSegmentGapSeconds,
			ReadingCharsPerSec:  defaultReadingCharsPerSec,
			LowConfidenceReport: defaultLowConfidence,
		},
		Subtitles: Subtitles{
			MinDisplaySeconds:  defaultMinDisplaySeconds,
			MaxDisplaySeconds:  defaultMaxDisplaySeconds,
			MaxCharsPerSegment: defaultMaxCharsPerSegment,
			MaxCharsPerSecond:  defaultMaxCharsPerSecond,
			MaxCharsPerLine:    defaultMaxCharsPerLine,
			MaxLines:           defaultMaxLines,
			OverlapGapSeconds:  defaultOverlapGapSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
