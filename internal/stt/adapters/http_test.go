package adapters

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/smallbiznis/scriba/internal/stt/domain"
	"github.com/stretchr/testify/assert"
)

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "audio/mpeg", contentTypeFor("talk.mp3"))
	assert.Equal(t, "audio/wav", contentTypeFor("talk.WAV"))
	assert.Equal(t, "video/mp4", contentTypeFor("clip.mp4"))
	assert.Equal(t, "application/octet-stream", contentTypeFor("talk.xyz"))
	assert.Equal(t, "application/octet-stream", contentTypeFor("noextension"))
}

func TestProviderErr(t *testing.T) {
	assert.NoError(t, providerErr("deepgram", nil))

	err := providerErr("deepgram", context.DeadlineExceeded)
	assert.ErrorIs(t, err, domain.ErrProviderTimeout)

	err = providerErr("deepgram", errors.New("connection refused"))
	assert.ErrorIs(t, err, domain.ErrProviderFailed)
	assert.Contains(t, err.Error(), "deepgram")

	// already-classified errors pass through untouched
	tagged := fmt.Errorf("daglo: %w", domain.ErrProviderTimeout)
	assert.Equal(t, tagged, providerErr("daglo", tagged))
}

func TestValidateJob(t *testing.T) {
	formats := []string{"mp3", "wav"}

	assert.NoError(t, validateJob("deepgram", domain.Job{Filename: "a.mp3", Audio: []byte("x")}, formats, 10))

	err := validateJob("deepgram", domain.Job{Filename: "a.mp3"}, formats, 10)
	assert.ErrorIs(t, err, domain.ErrEmptyAudio)

	err = validateJob("deepgram", domain.Job{Filename: "a.mp3", Audio: []byte("0123456789ab")}, formats, 10)
	assert.ErrorIs(t, err, domain.ErrFileTooLarge)

	err = validateJob("deepgram", domain.Job{Filename: "a.xyz", Audio: []byte("x")}, formats, 10)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestPollWaitHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, pollWait(ctx, time.Minute), context.Canceled)

	assert.NoError(t, pollWait(context.Background(), time.Millisecond))
}
