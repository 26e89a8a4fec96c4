package service

import (
	"context"
	"testing"

	"github.com/smallbiznis/scriba/internal/stt/adapters"
	"github.com/smallbiznis/scriba/internal/stt/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAdapter struct {
	name    string
	formats []string
	maxSize int64
	result  domain.Result
	calls   int
}

func (f *fakeAdapter) Name() string               { return f.name }
func (f *fakeAdapter) IsReady() bool              { return true }
func (f *fakeAdapter) SupportedFormats() []string { return f.formats }
func (f *fakeAdapter) MaxFileSize() int64         { return f.maxSize }

func (f *fakeAdapter) Transcribe(ctx context.Context, job domain.Job) domain.Result {
	f.calls++
	result := f.result
	result.Provider = f.name
	return result
}

func okAdapter(name string) *fakeAdapter {
	return &fakeAdapter{
		name:    name,
		formats: []string{"mp3", "wav"},
		maxSize: 1 << 20,
		result:  domain.Result{Text: "hello from " + name, Confidence: 0.9},
	}
}

func failingAdapter(name string) *fakeAdapter {
	return &fakeAdapter{
		name:    name,
		formats: []string{"mp3"},
		maxSize: 1 << 20,
		result:  domain.Result{Err: domain.ErrProviderFailed},
	}
}

func newTestService(defaultProvider string, list ...domain.Adapter) domain.Service {
	return NewService(adapters.NewRegistry(list...), defaultProvider, zap.NewNop(), nil)
}

func TestFallbackPrefersRequestedProvider(t *testing.T) {
	first := okAdapter("deepgram")
	second := okAdapter("daglo")
	svc := newTestService("deepgram", first, second)

	result := svc.TranscribeWithFallback(context.Background(), domain.Job{Filename: "a.mp3"}, "daglo")
	require.True(t, result.Ok())
	assert.Equal(t, "daglo", result.Provider)
	assert.Equal(t, 0, first.calls)
	assert.Equal(t, 1, second.calls)
}

func TestFallbackShortCircuitsOnFirstSuccess(t *testing.T) {
	first := okAdapter("deepgram")
	second := okAdapter("daglo")
	third := okAdapter("assemblyai")
	svc := newTestService("deepgram", first, second, third)

	result := svc.TranscribeWithFallback(context.Background(), domain.Job{Filename: "a.mp3"}, "")
	require.True(t, result.Ok())
	assert.Equal(t, "deepgram", result.Provider)
	assert.Equal(t, 0, second.calls)
	assert.Equal(t, 0, third.calls)
}

func TestFallbackWalksChainInOrder(t *testing.T) {
	first := failingAdapter("deepgram")
	second := failingAdapter("daglo")
	third := okAdapter("assemblyai")
	svc := newTestService("deepgram", first, second, third)

	result := svc.TranscribeWithFallback(context.Background(), domain.Job{Filename: "a.mp3"}, "")
	require.True(t, result.Ok())
	assert.Equal(t, "assemblyai", result.Provider)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
	assert.Equal(t, 1, third.calls)
}

func TestFallbackAllProvidersFail(t *testing.T) {
	first := failingAdapter("deepgram")
	second := failingAdapter("daglo")
	svc := newTestService("deepgram", first, second)

	result := svc.TranscribeWithFallback(context.Background(), domain.Job{Filename: "a.mp3"}, "")
	require.False(t, result.Ok())
	assert.ErrorIs(t, result.Err, domain.ErrAllProvidersFailed)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
}

func TestFallbackUnknownPreferredFallsThrough(t *testing.T) {
	only := okAdapter("deepgram")
	svc := newTestService("deepgram", only)

	result := svc.TranscribeWithFallback(context.Background(), domain.Job{Filename: "a.mp3"}, "nope")
	require.True(t, result.Ok())
	assert.Equal(t, "deepgram", result.Provider)
}

func TestFallbackNoProviders(t *testing.T) {
	svc := newTestService("deepgram")

	result := svc.TranscribeWithFallback(context.Background(), domain.Job{Filename: "a.mp3"}, "")
	assert.ErrorIs(t, result.Err, domain.ErrNoProviders)
}

func TestFallbackStopsWhenContextCanceled(t *testing.T) {
	first := okAdapter("deepgram")
	svc := newTestService("deepgram", first)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := svc.TranscribeWithFallback(ctx, domain.Job{Filename: "a.mp3"}, "")
	require.False(t, result.Ok())
	assert.ErrorIs(t, result.Err, domain.ErrAllProvidersFailed)
	assert.Contains(t, result.Err.Error(), context.Canceled.Error())
	// no provider was tried, so none should be named
	assert.NotContains(t, result.Err.Error(), "last provider")
	assert.Equal(t, 0, first.calls)
}

func TestTranscribeWithProviderUnknown(t *testing.T) {
	svc := newTestService("deepgram", okAdapter("deepgram"))

	result := svc.TranscribeWithProvider(context.Background(), "whisper", domain.Job{Filename: "a.mp3"})
	assert.ErrorIs(t, result.Err, domain.ErrProviderNotFound)
}

func TestDefaultProviderFallsBackToFirstRegistered(t *testing.T) {
	svc := newTestService("missing", okAdapter("daglo"), okAdapter("assemblyai"))
	assert.Equal(t, "daglo", svc.DefaultProvider())
}

func TestIsFormatSupported(t *testing.T) {
	deepgram := okAdapter("deepgram") // mp3, wav
	daglo := failingAdapter("daglo")  // mp3 only
	svc := newTestService("deepgram", deepgram, daglo)

	assert.True(t, svc.IsFormatSupported("audio.MP3", ""))
	assert.True(t, svc.IsFormatSupported("audio.wav", "deepgram"))
	assert.False(t, svc.IsFormatSupported("audio.wav", "daglo"))
	assert.False(t, svc.IsFormatSupported("audio.xyz", ""))
	assert.False(t, svc.IsFormatSupported("noextension", ""))
}

func TestAllSupportedFormatsSortedUnion(t *testing.T) {
	svc := newTestService("deepgram", okAdapter("deepgram"), failingAdapter("daglo"))
	assert.Equal(t, []string{"mp3", "wav"}, svc.AllSupportedFormats())
}
