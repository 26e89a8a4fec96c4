package adapters

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/smallbiznis/scriba/internal/stt/domain"
)

var contentTypes = map[string]string{
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"m4a":  "audio/mp4",
	"flac": "audio/flac",
	"ogg":  "audio/ogg",
	"aac":  "audio/aac",
	"opus": "audio/opus",
	"webm": "audio/webm",
	"aiff": "audio/aiff",
	"au":   "audio/basic",
	"amr":  "audio/amr",
	"ac3":  "audio/ac3",
	"ra":   "audio/vnd.rn-realaudio",
	"3gp":  "audio/3gpp",
	"3gpp": "audio/3gpp",
	"mp4":  "video/mp4",
	"mov":  "video/quicktime",
	"avi":  "video/x-msvideo",
}

func contentTypeFor(filename string) string {
	if ct, ok := contentTypes[domain.FileExtension(filename)]; ok {
		return ct
	}
	return "application/octet-stream"
}

// providerErr classifies an adapter failure as timeout or generic provider
// error and tags it with the provider name.
func providerErr(provider string, err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%s: %v: %w", provider, err, domain.ErrProviderTimeout)
	}
	if errors.Is(err, domain.ErrProviderTimeout) || errors.Is(err, domain.ErrProviderFailed) {
		return err
	}
	return fmt.Errorf("%s: %v: %w", provider, err, domain.ErrProviderFailed)
}

func failedResult(provider string, start time.Time, err error) domain.Result {
	return domain.Result{
		Provider: provider,
		Elapsed:  time.Since(start),
		Err:      providerErr(provider, err),
	}
}

func validateJob(provider string, job domain.Job, formats []string, maxSize int64) error {
	if len(job.Audio) == 0 {
		return fmt.Errorf("%s: %w", provider, domain.ErrEmptyAudio)
	}
	if int64(len(job.Audio)) > maxSize {
		return fmt.Errorf("%s: payload %d bytes: %w", provider, len(job.Audio), domain.ErrFileTooLarge)
	}
	ext := domain.FileExtension(job.Filename)
	for _, f := range formats {
		if f == ext {
			return nil
		}
	}
	return fmt.Errorf("%s: %q: %w", provider, ext, domain.ErrUnsupportedFormat)
}

// pollWait sleeps for interval or returns early when ctx is done.
func pollWait(ctx context.Context, interval time.Duration) error {
	timer := time.NewTimer(interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
