package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/smallbiznis/scriba/internal/stt/domain"
	"go.uber.org/zap"
)

// WhisperConfig configures the local inference adapter.
type WhisperConfig struct {
	BinaryPath string
	ModelPath  string
	Timeout    time.Duration
}

// Whisper shells out to a local whisper.cpp-style binary. No network.
type Whisper struct {
	cfg WhisperConfig
	log *zap.Logger
}

var whisperFormats = []string{"mp3", "wav", "m4a", "flac", "ogg"}

const (
	whisperMaxFileSize       = 500 << 20 // 500 MiB
	whisperDefaultConfidence = 0.9
)

// NewWhisper verifies the binary and model exist before returning the adapter.
func NewWhisper(cfg WhisperConfig, log *zap.Logger) (*Whisper, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Minute
	}
	if _, err := os.Stat(cfg.BinaryPath); err != nil {
		return nil, fmt.Errorf("whisper binary %q: %w", cfg.BinaryPath, err)
	}
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("whisper model %q: %w", cfg.ModelPath, err)
	}
	return &Whisper{
		cfg: cfg,
		log: log.Named("stt.whisper"),
	}, nil
}

func (w *Whisper) Name() string { return "whisper" }

func (w *Whisper) IsReady() bool {
	if _, err := os.Stat(w.cfg.BinaryPath); err != nil {
		return false
	}
	_, err := os.Stat(w.cfg.ModelPath)
	return err == nil
}

func (w *Whisper) SupportedFormats() []string {
	out := make([]string, len(whisperFormats))
	copy(out, whisperFormats)
	return out
}

func (w *Whisper) MaxFileSize() int64 { return whisperMaxFileSize }

func (w *Whisper) Transcribe(ctx context.Context, job domain.Job) domain.Result {
	start := time.Now()
	if !w.IsReady() {
		return failedResult(w.Name(), start, domain.ErrProviderNotReady)
	}
	if err := validateJob(w.Name(), job, whisperFormats, whisperMaxFileSize); err != nil {
		return failedResult(w.Name(), start, err)
	}

	tmpDir, err := os.MkdirTemp("", "scriba-whisper-*")
	if err != nil {
		return failedResult(w.Name(), start, err)
	}
	defer os.RemoveAll(tmpDir)

	inputPath := filepath.Join(tmpDir, "input."+domain.FileExtension(job.Filename))
	if err := os.WriteFile(inputPath, job.Audio, 0o600); err != nil {
		return failedResult(w.Name(), start, err)
	}

	ctx, cancel := context.WithTimeout(ctx, w.cfg.Timeout)
	defer cancel()

	args := []string{
		"-m", w.cfg.ModelPath,
		"-f", inputPath,
		"-nt",
	}
	if lang := strings.TrimSpace(job.Language); lang != "" {
		args = append(args, "-l", lang)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, w.cfg.BinaryPath, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return failedResult(w.Name(), start, ctx.Err())
		}
		w.log.Warn("inference failed",
			zap.Error(err),
			zap.Int("stderr_bytes", stderr.Len()),
		)
		return failedResult(w.Name(), start, fmt.Errorf("inference: %v", err))
	}

	text := strings.TrimSpace(stdout.String())
	if text == "" {
		return failedResult(w.Name(), start, fmt.Errorf("empty transcript"))
	}

	// stdout is plain text; the response column expects JSON.
	raw, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return failedResult(w.Name(), start, err)
	}

	return domain.Result{
		Provider:         w.Name(),
		Text:             text,
		Confidence:       whisperDefaultConfidence,
		DetectedLanguage: job.Language,
		DurationSeconds:  domain.EstimateDurationSeconds(job.Filename, int64(len(job.Audio))),
		RawResponse:      raw,
		Elapsed:          time.Since(start),
	}
}
