package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"cadence/internal/config"
	"cadence/internal/logging"
	"cadence/internal/media/ffprobe"
	"cadence/internal/script"
	"cadence/internal/stage"
)

// fallbackEngine is the simplest backend: one POST, raw audio bytes back.
// No keys, no pacing, no voice parameters beyond the role name. It exists so
// an episode can still render when the primary engines are down.
type fallbackEngine struct {
	apiURL string
	client *http.Client
	logger *slog.Logger
	prober ffprobe.Prober
}

func newFallbackEngine(cfg *config.Config, logger *slog.Logger, prober ffprobe.Prober, timeout time.Duration) *fallbackEngine {
	return &fallbackEngine{
		apiURL: cfg.Engine.FallbackURL,
		client: &http.Client{Timeout: timeout},
		logger: logging.WithComponent(logger, "synth"),
		prober: prober,
	}
}

func (e *fallbackEngine) Name() string { return "fallback" }

func (e *fallbackEngine) Probe(ctx context.Context) error {
	if e.apiURL == "" {
		return stage.Wrap(stage.ErrConfiguration, "synth", "probe", "fallback url not configured", nil)
	}
	return nil
}

func (e *fallbackEngine) Synthesize(ctx context.Context, text string, role script.Role, outputPath string) (Artifact, error) {
	payload, err := json.Marshal(map[string]string{"text": text, "voice": string(role)})
	if err != nil {
		return Artifact{}, stage.Wrap(stage.ErrValidation, "synth", "fallback", "marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.apiURL, bytes.NewReader(payload))
	if err != nil {
		return Artifact{}, stage.Wrap(stage.ErrValidation, "synth", "fallback", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return Artifact{}, stage.Wrap(stage.ErrUnavailable, "synth", "fallback", "request failed", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return Artifact{}, stage.Wrap(stage.ErrTransient, "synth", "fallback", "read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Artifact{}, stage.Wrap(stage.ErrTransient, "synth", "fallback", fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(audio)), nil)
	}
	if len(audio) == 0 {
		return Artifact{}, stage.Wrap(stage.ErrTransient, "synth", "fallback", "empty audio response", nil)
	}

	if err := writeChunk(outputPath, audio); err != nil {
		return Artifact{}, err
	}

	artifact, err := measure(ctx, e.prober, outputPath)
	if err != nil {
		os.Remove(outputPath)
		return Artifact{}, err
	}
	return artifact, nil
}
