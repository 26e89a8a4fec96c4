package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/smallbiznis/scriba/internal/stt/domain"
	"go.uber.org/zap"
)

// DeepgramConfig configures the synchronous Deepgram adapter.
type DeepgramConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Deepgram transcribes via a single synchronous HTTP call.
type Deepgram struct {
	cfg    DeepgramConfig
	client *http.Client
	log    *zap.Logger
}

var deepgramFormats = []string{"mp3", "wav", "m4a", "flac", "ogg", "aac", "opus", "webm", "mp4", "mov", "avi"}

const deepgramMaxFileSize = 2 << 30 // 2 GiB

func NewDeepgram(cfg DeepgramConfig, log *zap.Logger) *Deepgram {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.deepgram.com/v1/listen"
	}
	if cfg.Model == "" {
		cfg.Model = "nova-2"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	return &Deepgram{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log.Named("stt.deepgram"),
	}
}

func (d *Deepgram) Name() string { return "deepgram" }

func (d *Deepgram) IsReady() bool { return strings.TrimSpace(d.cfg.APIKey) != "" }

func (d *Deepgram) SupportedFormats() []string {
	out := make([]string, len(deepgramFormats))
	copy(out, deepgramFormats)
	return out
}

func (d *Deepgram) MaxFileSize() int64 { return deepgramMaxFileSize }

type deepgramResponse struct {
	Metadata struct {
		RequestID string  `json:"request_id"`
		Duration  float64 `json:"duration"`
	} `json:"metadata"`
	Results struct {
		Channels []struct {
			DetectedLanguage string `json:"detected_language"`
			Alternatives     []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

func (d *Deepgram) Transcribe(ctx context.Context, job domain.Job) domain.Result {
	start := time.Now()
	if !d.IsReady() {
		return failedResult(d.Name(), start, domain.ErrProviderNotReady)
	}
	if err := validateJob(d.Name(), job, deepgramFormats, deepgramMaxFileSize); err != nil {
		return failedResult(d.Name(), start, err)
	}

	params := url.Values{}
	params.Set("model", d.cfg.Model)
	params.Set("smart_format", "true")
	params.Set("punctuate", "true")
	if job.Options["diarize"] == "true" {
		params.Set("diarize", "true")
	}
	if lang := strings.TrimSpace(job.Language); lang != "" {
		params.Set("language", lang)
	} else {
		params.Set("detect_language", "true")
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.BaseURL+"?"+params.Encode(), bytes.NewReader(job.Audio))
	if err != nil {
		return failedResult(d.Name(), start, err)
	}
	req.Header.Set("Authorization", "Token "+d.cfg.APIKey)
	req.Header.Set("Content-Type", contentTypeFor(job.Filename))

	resp, err := d.client.Do(req)
	if err != nil {
		return failedResult(d.Name(), start, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return failedResult(d.Name(), start, err)
	}
	if resp.StatusCode != http.StatusOK {
		d.log.Warn("transcription rejected",
			zap.Int("status", resp.StatusCode),
			zap.Int("body_bytes", len(body)),
		)
		return failedResult(d.Name(), start, fmt.Errorf("status %d", resp.StatusCode))
	}

	var parsed deepgramResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return failedResult(d.Name(), start, fmt.Errorf("decode response: %w", err))
	}
	if len(parsed.Results.Channels) == 0 || len(parsed.Results.Channels[0].Alternatives) == 0 {
		return failedResult(d.Name(), start, fmt.Errorf("empty result set"))
	}

	channel := parsed.Results.Channels[0]
	alt := channel.Alternatives[0]
	language := channel.DetectedLanguage
	if language == "" {
		language = job.Language
	}

	return domain.Result{
		Provider:         d.Name(),
		Text:             alt.Transcript,
		Confidence:       alt.Confidence,
		DetectedLanguage: language,
		DurationSeconds:  parsed.Metadata.Duration,
		ProviderJobID:    parsed.Metadata.RequestID,
		RawResponse:      body,
		Elapsed:          time.Since(start),
	}
}
