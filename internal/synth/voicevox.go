package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"cadence/internal/config"
	"cadence/internal/logging"
	"cadence/internal/media/ffprobe"
	"cadence/internal/script"
	"cadence/internal/stage"
)

// voicevoxEngine talks to a local VOICEVOX server. Synthesis is a two-step
// exchange: POST /audio_query builds a mutable query payload, voice
// parameters are applied to it, then POST /synthesis renders the audio.
type voicevoxEngine struct {
	baseURL          string
	primarySpeaker   int
	secondarySpeaker int
	speedScale       float64
	pitchScale       float64
	intonationScale  float64
	volumeScale      float64
	client           *http.Client
	logger           *slog.Logger
	prober           ffprobe.Prober
}

func newVoicevoxEngine(cfg *config.Config, logger *slog.Logger, prober ffprobe.Prober, timeout time.Duration) *voicevoxEngine {
	return &voicevoxEngine{
		baseURL:          cfg.Engine.VoicevoxURL,
		primarySpeaker:   cfg.Engine.VoicevoxPrimarySpeaker,
		secondarySpeaker: cfg.Engine.VoicevoxSecondSpeaker,
		speedScale:       cfg.Engine.SpeedScale,
		pitchScale:       cfg.Engine.PitchScale,
		intonationScale:  cfg.Engine.IntonationScale,
		volumeScale:      cfg.Engine.VolumeScale,
		client:           &http.Client{Timeout: timeout},
		logger:           logging.WithComponent(logger, "synth"),
		prober:           prober,
	}
}

func (e *voicevoxEngine) Name() string { return "voicevox" }

// Probe checks the server version endpoint. The local engine is assumed
// always-or-never-available, so there is no per-request retry loop.
func (e *voicevoxEngine) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/version", nil)
	if err != nil {
		return stage.Wrap(stage.ErrUnavailable, "synth", "probe", "build request", err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return stage.Wrap(stage.ErrUnavailable, "synth", "probe", "voicevox not reachable", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return stage.Wrap(stage.ErrUnavailable, "synth", "probe", fmt.Sprintf("voicevox returned %d", resp.StatusCode), nil)
	}
	return nil
}

func (e *voicevoxEngine) speakerID(role script.Role) int {
	if role == script.RoleSecondary {
		return e.secondarySpeaker
	}
	return e.primarySpeaker
}

func (e *voicevoxEngine) Synthesize(ctx context.Context, text string, role script.Role, outputPath string) (Artifact, error) {
	speaker := e.speakerID(role)

	query, err := e.audioQuery(ctx, text, speaker)
	if err != nil {
		return Artifact{}, err
	}

	query["speedScale"] = e.speedScale
	query["pitchScale"] = e.pitchScale
	query["intonationScale"] = e.intonationScale
	query["volumeScale"] = e.volumeScale

	audio, err := e.render(ctx, query, speaker)
	if err != nil {
		return Artifact{}, err
	}

	if err := writeChunk(outputPath, audio); err != nil {
		return Artifact{}, err
	}

	artifact, err := measure(ctx, e.prober, outputPath)
	if err != nil {
		os.Remove(outputPath)
		return Artifact{}, err
	}
	e.logger.Debug("chunk synthesized", "speaker", speaker, "duration", artifact.DurationSeconds)
	return artifact, nil
}

func (e *voicevoxEngine) audioQuery(ctx context.Context, text string, speaker int) (map[string]any, error) {
	endpoint := fmt.Sprintf("%s/audio_query?text=%s&speaker=%d", e.baseURL, url.QueryEscape(text), speaker)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, stage.Wrap(stage.ErrTransient, "synth", "audio_query", "build request", err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, stage.Wrap(stage.ErrUnavailable, "synth", "audio_query", "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, stage.Wrap(stage.ErrTransient, "synth", "audio_query", "read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, stage.Wrap(stage.ErrTransient, "synth", "audio_query", fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(body)), nil)
	}

	var query map[string]any
	if err := json.Unmarshal(body, &query); err != nil {
		return nil, stage.Wrap(stage.ErrTransient, "synth", "audio_query", "parse response", err)
	}
	return query, nil
}

func (e *voicevoxEngine) render(ctx context.Context, query map[string]any, speaker int) ([]byte, error) {
	payload, err := json.Marshal(query)
	if err != nil {
		return nil, stage.Wrap(stage.ErrTransient, "synth", "synthesis", "marshal query", err)
	}

	endpoint := e.baseURL + "/synthesis?speaker=" + strconv.Itoa(speaker)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, stage.Wrap(stage.ErrTransient, "synth", "synthesis", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, stage.Wrap(stage.ErrUnavailable, "synth", "synthesis", "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, stage.Wrap(stage.ErrTransient, "synth", "synthesis", "read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, stage.Wrap(stage.ErrTransient, "synth", "synthesis", fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(body)), nil)
	}
	if len(body) == 0 {
		return nil, stage.Wrap(stage.ErrTransient, "synth", "synthesis", "empty audio response", nil)
	}
	return body, nil
}

func truncate(body []byte) string {
	const limit = 200
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
