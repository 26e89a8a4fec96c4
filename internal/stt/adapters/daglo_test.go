package adapters

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smallbiznis/scriba/internal/stt/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newDagloTestServer(t *testing.T, pollsUntilDone int32) *httptest.Server {
	t.Helper()
	var polls int32
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
			require.NoError(t, r.ParseMultipartForm(1<<20))
			_, header, err := r.FormFile("file")
			require.NoError(t, err)
			assert.Equal(t, "meeting.mp3", header.Filename)
			json.NewEncoder(w).Encode(map[string]string{"rid": "rid-42"})
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/rid-42"):
			status := "transcribing"
			if atomic.AddInt32(&polls, 1) >= pollsUntilDone {
				status = "transcribed"
			}
			json.NewEncoder(w).Encode(map[string]any{
				"rid":        "rid-42",
				"status":     status,
				"audio":      map[string]any{"duration": 12.0},
				"sttResults": []map[string]string{{"transcript": "annyeong"}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
}

func newTestDaglo(baseURL string) *Daglo {
	return NewDaglo(DagloConfig{
		APIKey:       "key",
		BaseURL:      baseURL,
		PollInterval: time.Millisecond,
	}, zap.NewNop())
}

func TestDagloSubmitAndPoll(t *testing.T) {
	srv := newDagloTestServer(t, 3)
	defer srv.Close()

	adapter := newTestDaglo(srv.URL)
	result := adapter.Transcribe(context.Background(), domain.Job{
		Filename: "meeting.mp3",
		Audio:    []byte("audio-bytes"),
		Language: "ko",
	})
	require.True(t, result.Ok())

	assert.Equal(t, "daglo", result.Provider)
	assert.Equal(t, "annyeong", result.Text)
	assert.Equal(t, dagloDefaultConfidence, result.Confidence)
	assert.Equal(t, "ko", result.DetectedLanguage)
	assert.Equal(t, 12.0, result.DurationSeconds)
	assert.Equal(t, "rid-42", result.ProviderJobID)
}

func TestDagloTerminalFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(map[string]string{"rid": "rid-9"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"rid": "rid-9", "status": "failed"})
	}))
	defer srv.Close()

	adapter := newTestDaglo(srv.URL)
	result := adapter.Transcribe(context.Background(), domain.Job{Filename: "a.mp3", Audio: []byte("x")})

	require.False(t, result.Ok())
	assert.ErrorIs(t, result.Err, domain.ErrProviderFailed)
	assert.Contains(t, result.Err.Error(), "rid-9")
}

func TestDagloPollingExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(map[string]string{"rid": "rid-1"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"rid": "rid-1", "status": "transcribing"})
	}))
	defer srv.Close()

	adapter := NewDaglo(DagloConfig{
		APIKey:         "key",
		BaseURL:        srv.URL,
		PollInterval:   time.Millisecond,
		MaxPollRetries: 2,
	}, zap.NewNop())

	result := adapter.Transcribe(context.Background(), domain.Job{Filename: "a.mp3", Audio: []byte("x")})
	assert.ErrorIs(t, result.Err, domain.ErrProviderTimeout)
}

func TestDagloSubmitMissingRID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	adapter := newTestDaglo(srv.URL)
	result := adapter.Transcribe(context.Background(), domain.Job{Filename: "a.mp3", Audio: []byte("x")})

	require.False(t, result.Ok())
	assert.Contains(t, result.Err.Error(), "missing rid")
}
