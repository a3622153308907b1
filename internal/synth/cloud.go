package synth

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"cadence/internal/config"
	"cadence/internal/logging"
	"cadence/internal/media/ffprobe"
	"cadence/internal/script"
	"cadence/internal/stage"
)

// cloudEngine calls a remote TTS API that returns base64 audio in a JSON
// envelope. Requests are paced through a rate limiter and retried with
// exponential backoff up to maxRetries attempts; a 429 puts the active key on
// cooldown and the next attempt rotates to another one.
type cloudEngine struct {
	apiURL         string
	primaryVoice   string
	secondaryVoice string
	sampleRate     int
	maxRetries     int
	pool           *keyPool
	limiter        *rate.Limiter
	client         *http.Client
	logger         *slog.Logger
	prober         ffprobe.Prober
}

type cloudRequest struct {
	Text       string  `json:"text"`
	Voice      string  `json:"voice"`
	Encoding   string  `json:"encoding"`
	SampleRate int     `json:"sample_rate"`
	SpeedRatio float64 `json:"speed_ratio"`
}

type cloudResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

func newCloudEngine(cfg *config.Config, logger *slog.Logger, prober ffprobe.Prober, timeout time.Duration) (*cloudEngine, error) {
	if len(cfg.Engine.CloudAPIKeys) == 0 {
		return nil, stage.Wrap(stage.ErrConfiguration, "synth", "new", "cloud backend requires api keys", nil)
	}

	pacing := time.Duration(cfg.Engine.CloudPacingMillis) * time.Millisecond
	limiter := rate.NewLimiter(rate.Inf, 1)
	if pacing > 0 {
		limiter = rate.NewLimiter(rate.Every(pacing), 1)
	}

	return &cloudEngine{
		apiURL:         cfg.Engine.CloudURL,
		primaryVoice:   cfg.Engine.CloudPrimaryVoice,
		secondaryVoice: cfg.Engine.CloudSecondaryVoice,
		sampleRate:     cfg.Audio.SampleRate,
		maxRetries:     cfg.Engine.CloudMaxRetries,
		pool:           newKeyPool(cfg.Engine.CloudAPIKeys),
		limiter:        limiter,
		client:         &http.Client{Timeout: timeout},
		logger:         logging.WithComponent(logger, "synth"),
		prober:         prober,
	}, nil
}

func (e *cloudEngine) Name() string { return "cloud" }

// Probe verifies configuration only. Cloud reachability is established per
// request; a startup round trip would spend quota for nothing.
func (e *cloudEngine) Probe(ctx context.Context) error {
	if e.apiURL == "" {
		return stage.Wrap(stage.ErrConfiguration, "synth", "probe", "cloud url not configured", nil)
	}
	if e.pool.size() == 0 {
		return stage.Wrap(stage.ErrConfiguration, "synth", "probe", "no cloud api keys", nil)
	}
	return nil
}

func (e *cloudEngine) voice(role script.Role) string {
	if role == script.RoleSecondary && e.secondaryVoice != "" {
		return e.secondaryVoice
	}
	return e.primaryVoice
}

func (e *cloudEngine) Synthesize(ctx context.Context, text string, role script.Role, outputPath string) (Artifact, error) {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(e.maxRetries-1)), ctx)

	var audio []byte
	operation := func() error {
		if err := e.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		data, err := e.request(ctx, text, role)
		if err != nil {
			if !stage.Retryable(err) {
				return backoff.Permanent(err)
			}
			e.logger.Warn("cloud synthesis attempt failed", "error", err)
			return err
		}
		audio = data
		return nil
	}
	if err := backoff.Retry(operation, policy); err != nil {
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
	return artifact, nil
}

func (e *cloudEngine) request(ctx context.Context, text string, role script.Role) ([]byte, error) {
	key := e.pool.acquire()

	payload, err := json.Marshal(cloudRequest{
		Text:       text,
		Voice:      e.voice(role),
		Encoding:   "wav",
		SampleRate: e.sampleRate,
		SpeedRatio: 1.0,
	})
	if err != nil {
		return nil, stage.Wrap(stage.ErrValidation, "synth", "cloud", "marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, stage.Wrap(stage.ErrValidation, "synth", "cloud", "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, stage.Wrap(stage.ErrUnavailable, "synth", "cloud", "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, stage.Wrap(stage.ErrTransient, "synth", "cloud", "read response", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		e.pool.markRateLimited(key)
		return nil, stage.Wrap(stage.ErrTransient, "synth", "cloud", "rate limited", nil)
	case resp.StatusCode >= 500:
		return nil, stage.Wrap(stage.ErrTransient, "synth", "cloud", fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(body)), nil)
	case resp.StatusCode != http.StatusOK:
		return nil, stage.Wrap(stage.ErrValidation, "synth", "cloud", fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(body)), nil)
	}

	var parsed cloudResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, stage.Wrap(stage.ErrTransient, "synth", "cloud", "parse response", err)
	}
	if parsed.Code != 0 && parsed.Code != http.StatusOK {
		return nil, stage.Wrap(stage.ErrTransient, "synth", "cloud", fmt.Sprintf("api error %d: %s", parsed.Code, parsed.Message), nil)
	}
	if parsed.Data == "" {
		return nil, stage.Wrap(stage.ErrTransient, "synth", "cloud", "no audio data in response", nil)
	}

	audio, err := base64.StdEncoding.DecodeString(parsed.Data)
	if err != nil {
		return nil, stage.Wrap(stage.ErrTransient, "synth", "cloud", "decode audio data", err)
	}
	return audio, nil
}
