package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/smallbiznis/scriba/internal/stt/domain"
	"go.uber.org/zap"
)

// DagloConfig configures the asynchronous Daglo adapter.
type DagloConfig struct {
	APIKey         string
	BaseURL        string
	SubmitTimeout  time.Duration
	PollTimeout    time.Duration
	PollInterval   time.Duration
	MaxPollRetries int
}

// Daglo submits a multipart job and polls the returned rid until terminal.
type Daglo struct {
	cfg    DagloConfig
	client *http.Client
	log    *zap.Logger
}

var dagloFormats = []string{"mp3", "wav", "m4a", "ogg", "flac", "3gp", "3gpp", "ac3", "aac", "aiff", "amr", "au", "opus", "ra"}

const (
	dagloMaxFileSize       = 100 << 20 // 100 MiB
	dagloDefaultConfidence = 0.8
)

func NewDaglo(cfg DagloConfig, log *zap.Logger) *Daglo {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://apis.daglo.ai/stt/v1/async/transcripts"
	}
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = 60 * time.Second
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 30 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}
	if cfg.MaxPollRetries <= 0 {
		cfg.MaxPollRetries = 30
	}
	return &Daglo{
		cfg:    cfg,
		client: &http.Client{},
		log:    log.Named("stt.daglo"),
	}
}

func (d *Daglo) Name() string { return "daglo" }

func (d *Daglo) IsReady() bool { return strings.TrimSpace(d.cfg.APIKey) != "" }

func (d *Daglo) SupportedFormats() []string {
	out := make([]string, len(dagloFormats))
	copy(out, dagloFormats)
	return out
}

func (d *Daglo) MaxFileSize() int64 { return dagloMaxFileSize }

type dagloSubmitResponse struct {
	RID string `json:"rid"`
}

type dagloTranscript struct {
	RID    string `json:"rid"`
	Status string `json:"status"`
	Audio  struct {
		Duration float64 `json:"duration"`
	} `json:"audio"`
	STTResults []struct {
		Transcript string `json:"transcript"`
	} `json:"sttResults"`
}

func (d *Daglo) Transcribe(ctx context.Context, job domain.Job) domain.Result {
	start := time.Now()
	if !d.IsReady() {
		return failedResult(d.Name(), start, domain.ErrProviderNotReady)
	}
	if err := validateJob(d.Name(), job, dagloFormats, dagloMaxFileSize); err != nil {
		return failedResult(d.Name(), start, err)
	}

	rid, err := d.submit(ctx, job)
	if err != nil {
		return failedResult(d.Name(), start, err)
	}
	d.log.Debug("job submitted", zap.String("rid", rid))

	for attempt := 0; attempt < d.cfg.MaxPollRetries; attempt++ {
		if err := pollWait(ctx, d.cfg.PollInterval); err != nil {
			return failedResult(d.Name(), start, err)
		}

		transcript, err := d.poll(ctx, rid)
		if err != nil {
			return failedResult(d.Name(), start, err)
		}

		switch transcript.Status {
		case "transcribed":
			text := ""
			if len(transcript.STTResults) > 0 {
				text = transcript.STTResults[0].Transcript
			}
			raw, _ := json.Marshal(transcript)
			return domain.Result{
				Provider:         d.Name(),
				Text:             text,
				Confidence:       dagloDefaultConfidence,
				DetectedLanguage: job.Language,
				DurationSeconds:  transcript.Audio.Duration,
				ProviderJobID:    rid,
				RawResponse:      raw,
				Elapsed:          time.Since(start),
			}
		case "failed", "error":
			return failedResult(d.Name(), start, fmt.Errorf("job %s terminal status %q", rid, transcript.Status))
		}
	}

	return failedResult(d.Name(), start, fmt.Errorf("job %s: polling exhausted after %d attempts: %w",
		rid, d.cfg.MaxPollRetries, domain.ErrProviderTimeout))
}

func (d *Daglo) submit(ctx context.Context, job domain.Job) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", job.Filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(job.Audio); err != nil {
		return "", err
	}
	if job.Options["diarize"] == "true" {
		sttConfig, _ := json.Marshal(map[string]any{
			"speakerDiarization": map[string]any{"enable": true},
		})
		if err := writer.WriteField("sttConfig", string(sttConfig)); err != nil {
			return "", err
		}
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.SubmitTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.BaseURL, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+d.cfg.APIKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := d.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("submit status %d", resp.StatusCode)
	}

	var parsed dagloSubmitResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode submit response: %w", err)
	}
	if strings.TrimSpace(parsed.RID) == "" {
		return "", fmt.Errorf("submit response missing rid")
	}
	return parsed.RID, nil
}

func (d *Daglo) poll(ctx context.Context, rid string) (*dagloTranscript, error) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.PollTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(d.cfg.BaseURL, "/")+"/"+rid, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+d.cfg.APIKey)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("poll status %d", resp.StatusCode)
	}

	var parsed dagloTranscript
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode poll response: %w", err)
	}
	return &parsed, nil
}
