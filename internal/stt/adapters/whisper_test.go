package adapters

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/smallbiznis/scriba/internal/stt/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newFakeWhisper(t *testing.T, script string) *Whisper {
	t.Helper()
	dir := t.TempDir()

	bin := filepath.Join(dir, "whisper")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	model := filepath.Join(dir, "model.bin")
	require.NoError(t, os.WriteFile(model, []byte("weights"), 0o600))

	adapter, err := NewWhisper(WhisperConfig{BinaryPath: bin, ModelPath: model}, zap.NewNop())
	require.NoError(t, err)
	return adapter
}

func TestWhisperTranscribe(t *testing.T) {
	adapter := newFakeWhisper(t, `echo "hello from whisper"`)

	result := adapter.Transcribe(context.Background(), domain.Job{
		Filename: "talk.mp3",
		Audio:    []byte("audio-bytes"),
	})
	require.True(t, result.Ok())

	assert.Equal(t, "whisper", result.Provider)
	assert.Equal(t, "hello from whisper", result.Text)
	assert.Equal(t, whisperDefaultConfidence, result.Confidence)
	assert.Greater(t, result.DurationSeconds, 0.0)
}

func TestWhisperRawResponseIsJSON(t *testing.T) {
	adapter := newFakeWhisper(t, `echo "plain stdout"`)

	result := adapter.Transcribe(context.Background(), domain.Job{
		Filename: "talk.wav",
		Audio:    []byte("audio-bytes"),
	})
	require.True(t, result.Ok())

	require.True(t, json.Valid(result.RawResponse))
	var envelope map[string]string
	require.NoError(t, json.Unmarshal(result.RawResponse, &envelope))
	assert.Equal(t, "plain stdout", envelope["text"])
}

func TestWhisperEmptyTranscript(t *testing.T) {
	adapter := newFakeWhisper(t, `true`)

	result := adapter.Transcribe(context.Background(), domain.Job{
		Filename: "talk.mp3",
		Audio:    []byte("audio-bytes"),
	})
	require.False(t, result.Ok())
	assert.Contains(t, result.Err.Error(), "empty transcript")
}

func TestNewWhisperMissingPaths(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "model.bin")
	require.NoError(t, os.WriteFile(model, []byte("weights"), 0o600))

	_, err := NewWhisper(WhisperConfig{BinaryPath: filepath.Join(dir, "absent"), ModelPath: model}, zap.NewNop())
	assert.Error(t, err)

	bin := filepath.Join(dir, "whisper")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755))
	_, err = NewWhisper(WhisperConfig{BinaryPath: bin, ModelPath: filepath.Join(dir, "absent")}, zap.NewNop())
	assert.Error(t, err)
}
