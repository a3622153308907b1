package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"cadence/internal/config"
)

func TestLoadDefaultsAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantOutput := filepath.Join(tempHome, ".local", "share", "cadence", "episodes")
	if cfg.Paths.OutputDir != wantOutput {
		t.Fatalf("unexpected output dir: got %q want %q", cfg.Paths.OutputDir, wantOutput)
	}
	if cfg.Paths.CacheDir != filepath.Join(tempHome, ".cache", "cadence", "voice") {
		t.Fatalf("unexpected cache dir: %q", cfg.Paths.CacheDir)
	}
	if cfg.Engine.Backend != "voicevox" {
		t.Fatalf("unexpected default backend: %q", cfg.Engine.Backend)
	}
	if cfg.Engine.VoicevoxURL != "http://127.0.0.1:50021" {
		t.Fatalf("unexpected VOICEVOX url: %q", cfg.Engine.VoicevoxURL)
	}
	if cfg.Audio.CrossfadeMillis != 200 {
		t.Fatalf("unexpected crossfade: %d", cfg.Audio.CrossfadeMillis)
	}
	if cfg.Audio.TargetLUFS != -16.0 {
		t.Fatalf("unexpected target loudness: %v", cfg.Audio.TargetLUFS)
	}
	if cfg.Align.AcceptThreshold != 0.4 || cfg.Align.ConfidentThreshold != 0.85 {
		t.Fatalf("unexpected alignment thresholds: %v/%v", cfg.Align.AcceptThreshold, cfg.Align.ConfidentThreshold)
	}
	if !cfg.Align.Enabled {
		t.Fatal("expected alignment enabled by default")
	}
	if cfg.Subtitles.MaxCharsPerSegment != 80 {
		t.Fatalf("unexpected subtitle char limit: %d", cfg.Subtitles.MaxCharsPerSegment)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.OutputDir, cfg.Paths.LogDir, cfg.Paths.CacheDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "cadence.toml")

	type payload struct {
		Engine struct {
			Backend                string `toml:"backend"`
			VoicevoxURL            string `toml:"voicevox_url"`
			VoicevoxPrimarySpeaker int    `toml:"voicevox_primary_speaker"`
		} `toml:"engine"`
		Audio struct {
			MaxCrossfadeChunks int `toml:"max_crossfade_chunks"`
		} `toml:"audio"`
	}
	custom := payload{}
	custom.Engine.Backend = "VOICEVOX"
	custom.Engine.VoicevoxURL = "http://tts.local:50021/"
	custom.Engine.VoicevoxPrimarySpeaker = 8
	custom.Audio.MaxCrossfadeChunks = 25

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Engine.Backend != "voicevox" {
		t.Fatalf("expected backend lowered, got %q", cfg.Engine.Backend)
	}
	if cfg.Engine.VoicevoxURL != "http://tts.local:50021" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Engine.VoicevoxURL)
	}
	if cfg.Engine.VoicevoxPrimarySpeaker != 8 {
		t.Fatalf("unexpected primary speaker: %d", cfg.Engine.VoicevoxPrimarySpeaker)
	}
	if cfg.Audio.MaxCrossfadeChunks != 25 {
		t.Fatalf("unexpected crossfade limit: %d", cfg.Audio.MaxCrossfadeChunks)
	}
	if cfg.Audio.CrossfadeMillis != 200 {
		t.Fatalf("expected defaults for unset fields, got crossfade %d", cfg.Audio.CrossfadeMillis)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		toml string
		want string
	}{
		{
			name: "unknown backend",
			toml: "[engine]\nbackend = \"espeak\"\n",
			want: "engine.backend",
		},
		{
			name: "cloud without keys",
			toml: "[engine]\nbackend = \"cloud\"\ncloud_url = \"https://tts.example.com\"\n",
			want: "cloud_api_keys",
		},
		{
			name: "positive silence threshold",
			toml: "[audio]\nsilence_threshold_db = 3.0\n",
			want: "silence_threshold_db",
		},
		{
			name: "inverted alignment thresholds",
			toml: "[align]\naccept_threshold = 0.9\nconfident_threshold = 0.5\n",
			want: "accept_threshold",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "cadence.toml")
			if err := os.WriteFile(configPath, []byte(tc.toml), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := config.Load(configPath)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	samplePath := filepath.Join(t.TempDir(), "config", "config.toml")
	if err := config.CreateSample(samplePath); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	cfg, _, exists, err := config.Load(samplePath)
	if err != nil {
		t.Fatalf("Load of sample failed: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to exist")
	}
	if cfg.Engine.Backend != config.Default().Engine.Backend {
		t.Fatalf("sample backend diverges from default: %q", cfg.Engine.Backend)
	}
	if cfg.Audio.SampleRate != config.Default().Audio.SampleRate {
		t.Fatalf("sample rate diverges from default: %d", cfg.Audio.SampleRate)
	}
}
