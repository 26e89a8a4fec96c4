package domain

import (
	"context"
	"time"
)

// Job carries one audio payload through an adapter.
type Job struct {
	Audio    []byte
	Filename string
	Language string
	Options  map[string]string
}

// Result is the outcome of a single adapter call. Err carries the failure
// instead of a second return value so a partial result can travel with it.
type Result struct {
	Provider         string
	Text             string
	Confidence       float64
	DetectedLanguage string
	DurationSeconds  float64
	ProviderJobID    string
	RawResponse      []byte
	Elapsed          time.Duration
	Err              error
}

// Ok reports whether the call produced a usable transcript.
func (r Result) Ok() bool {
	return r.Err == nil
}

// WordCount counts whitespace-separated tokens in the transcript.
func (r Result) WordCount() int {
	count := 0
	inWord := false
	for _, ch := range r.Text {
		switch ch {
		case ' ', '\t', '\n', '\r':
			inWord = false
		default:
			if !inWord {
				count++
			}
			inWord = true
		}
	}
	return count
}

// Adapter is a transcription backend. Implementations are stateless and
// must not panic past this boundary.
type Adapter interface {
	Name() string
	IsReady() bool
	SupportedFormats() []string
	MaxFileSize() int64
	Transcribe(ctx context.Context, job Job) Result
}

// Service orchestrates adapters with provider selection and fallback.
type Service interface {
	AvailableProviders() []string
	DefaultProvider() string
	SupportedFormats(provider string) ([]string, error)
	AllSupportedFormats() []string
	MaxFileSize(provider string) (int64, error)
	IsFormatSupported(filename, provider string) bool
	TranscribeWithProvider(ctx context.Context, provider string, job Job) Result
	TranscribeWithFallback(ctx context.Context, job Job, preferred string) Result
}
