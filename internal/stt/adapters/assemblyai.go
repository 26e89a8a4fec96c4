package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/smallbiznis/scriba/internal/stt/domain"
	"go.uber.org/zap"
)

// AssemblyAIConfig configures the three-phase AssemblyAI adapter.
type AssemblyAIConfig struct {
	APIKey         string
	BaseURL        string
	SubmitTimeout  time.Duration
	PollTimeout    time.Duration
	PollInterval   time.Duration
	MaxPollRetries int
}

// AssemblyAI uploads the payload, submits a transcript job for the returned
// URL, then polls the transcript id until terminal.
type AssemblyAI struct {
	cfg    AssemblyAIConfig
	client *http.Client
	log    *zap.Logger
}

var assemblyFormats = []string{"mp3", "wav", "m4a", "flac", "ogg", "aac", "aiff", "au", "opus"}

const assemblyMaxFileSize = 5 << 30 // 5 GiB

func NewAssemblyAI(cfg AssemblyAIConfig, log *zap.Logger) *AssemblyAI {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.assemblyai.com/v2"
	}
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = 120 * time.Second
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 30 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.MaxPollRetries <= 0 {
		cfg.MaxPollRetries = 120
	}
	return &AssemblyAI{
		cfg:    cfg,
		client: &http.Client{},
		log:    log.Named("stt.assemblyai"),
	}
}

func (a *AssemblyAI) Name() string { return "assemblyai" }

func (a *AssemblyAI) IsReady() bool { return strings.TrimSpace(a.cfg.APIKey) != "" }

func (a *AssemblyAI) SupportedFormats() []string {
	out := make([]string, len(assemblyFormats))
	copy(out, assemblyFormats)
	return out
}

func (a *AssemblyAI) MaxFileSize() int64 { return assemblyMaxFileSize }

type assemblyTranscript struct {
	ID           string  `json:"id"`
	Status       string  `json:"status"`
	Text         string  `json:"text"`
	Confidence   float64 `json:"confidence"`
	LanguageCode string  `json:"language_code"`
	Error        string  `json:"error"`
}

func (a *AssemblyAI) Transcribe(ctx context.Context, job domain.Job) domain.Result {
	start := time.Now()
	if !a.IsReady() {
		return failedResult(a.Name(), start, domain.ErrProviderNotReady)
	}
	if err := validateJob(a.Name(), job, assemblyFormats, assemblyMaxFileSize); err != nil {
		return failedResult(a.Name(), start, err)
	}

	uploadURL, err := a.upload(ctx, job.Audio)
	if err != nil {
		return failedResult(a.Name(), start, err)
	}

	transcriptID, err := a.submit(ctx, uploadURL, job)
	if err != nil {
		return failedResult(a.Name(), start, err)
	}
	a.log.Debug("job submitted", zap.String("transcript_id", transcriptID))

	for attempt := 0; attempt < a.cfg.MaxPollRetries; attempt++ {
		if err := pollWait(ctx, a.cfg.PollInterval); err != nil {
			return failedResult(a.Name(), start, err)
		}

		transcript, raw, err := a.poll(ctx, transcriptID)
		if err != nil {
			return failedResult(a.Name(), start, err)
		}

		switch transcript.Status {
		case "completed":
			language := transcript.LanguageCode
			if language == "" {
				language = job.Language
			}
			return domain.Result{
				Provider:         a.Name(),
				Text:             transcript.Text,
				Confidence:       transcript.Confidence,
				DetectedLanguage: language,
				ProviderJobID:    transcript.ID,
				RawResponse:      raw,
				Elapsed:          time.Since(start),
			}
		case "error":
			return failedResult(a.Name(), start, fmt.Errorf("job %s failed: %s", transcriptID, transcript.Error))
		}
	}

	return failedResult(a.Name(), start, fmt.Errorf("job %s: polling exhausted after %d attempts: %w",
		transcriptID, a.cfg.MaxPollRetries, domain.ErrProviderTimeout))
}

func (a *AssemblyAI) upload(ctx context.Context, audio []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.SubmitTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/upload", bytes.NewReader(audio))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", a.cfg.APIKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upload status %d", resp.StatusCode)
	}

	var parsed struct {
		UploadURL string `json:"upload_url"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if strings.TrimSpace(parsed.UploadURL) == "" {
		return "", fmt.Errorf("upload response missing url")
	}
	return parsed.UploadURL, nil
}

func (a *AssemblyAI) submit(ctx context.Context, audioURL string, job domain.Job) (string, error) {
	payload := map[string]any{
		"audio_url": audioURL,
	}
	if lang := strings.TrimSpace(job.Language); lang != "" {
		payload["language_code"] = lang
	} else {
		payload["language_detection"] = true
	}
	if job.Options["diarize"] == "true" {
		payload["speaker_labels"] = true
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.SubmitTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/transcript", bytes.NewReader(encoded))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", a.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("submit status %d", resp.StatusCode)
	}

	var parsed assemblyTranscript
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode submit response: %w", err)
	}
	if strings.TrimSpace(parsed.ID) == "" {
		return "", fmt.Errorf("submit response missing id")
	}
	return parsed.ID, nil
}

func (a *AssemblyAI) poll(ctx context.Context, transcriptID string) (*assemblyTranscript, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.PollTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.BaseURL+"/transcript/"+transcriptID, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", a.cfg.APIKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("poll status %d", resp.StatusCode)
	}

	var parsed assemblyTranscript
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, nil, fmt.Errorf("decode poll response: %w", err)
	}
	return &parsed, body, nil
}
