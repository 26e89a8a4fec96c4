package adapters

import (
	"context"
	"testing"

	"github.com/smallbiznis/scriba/internal/stt/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAdapter struct {
	name string
}

func (s stubAdapter) Name() string               { return s.name }
func (s stubAdapter) IsReady() bool              { return true }
func (s stubAdapter) SupportedFormats() []string { return []string{"mp3"} }
func (s stubAdapter) MaxFileSize() int64         { return 1 << 20 }
func (s stubAdapter) Transcribe(context.Context, domain.Job) domain.Result {
	return domain.Result{Provider: s.name}
}

func TestRegistryPreservesOrder(t *testing.T) {
	registry := NewRegistry(
		stubAdapter{name: "Deepgram"},
		stubAdapter{name: "daglo"},
		stubAdapter{name: "assemblyai"},
	)

	assert.Equal(t, []string{"deepgram", "daglo", "assemblyai"}, registry.Names())
	assert.Equal(t, 3, registry.Len())
}

func TestRegistryNormalizesLookups(t *testing.T) {
	registry := NewRegistry(stubAdapter{name: "Deepgram"})

	assert.True(t, registry.Exists("deepgram"))
	assert.True(t, registry.Exists(" DEEPGRAM "))

	adapter, err := registry.Get("DeepGram")
	require.NoError(t, err)
	assert.Equal(t, "Deepgram", adapter.Name())
}

func TestRegistrySkipsDuplicatesAndNils(t *testing.T) {
	registry := NewRegistry(
		stubAdapter{name: "daglo"},
		nil,
		stubAdapter{name: "Daglo"},
		stubAdapter{name: ""},
	)

	assert.Equal(t, []string{"daglo"}, registry.Names())
}

func TestRegistryUnknownProvider(t *testing.T) {
	registry := NewRegistry(stubAdapter{name: "daglo"})

	_, err := registry.Get("whisper")
	assert.ErrorIs(t, err, domain.ErrProviderNotFound)
}
