package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	accountdomain "github.com/smallbiznis/scriba/internal/account/domain"
	sttdomain "github.com/smallbiznis/scriba/internal/stt/domain"
	transcriptdomain "github.com/smallbiznis/scriba/internal/transcript/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stubSTTService struct{}

func (stubSTTService) AvailableProviders() []string { return []string{"deepgram"} }
func (stubSTTService) DefaultProvider() string      { return "deepgram" }
func (stubSTTService) SupportedFormats(string) ([]string, error) {
	return []string{"mp3"}, nil
}
func (stubSTTService) AllSupportedFormats() []string         { return []string{"mp3"} }
func (stubSTTService) MaxFileSize(string) (int64, error)     { return 1 << 20, nil }
func (stubSTTService) IsFormatSupported(string, string) bool { return true }
func (stubSTTService) TranscribeWithProvider(context.Context, string, sttdomain.Job) sttdomain.Result {
	return sttdomain.Result{Err: sttdomain.ErrProviderFailed}
}
func (stubSTTService) TranscribeWithFallback(context.Context, sttdomain.Job, string) sttdomain.Result {
	return sttdomain.Result{Err: sttdomain.ErrProviderFailed}
}

// replayTranscriptService simulates a request id already owned by ownerID.
type replayTranscriptService struct {
	ownerID snowflake.ID
}

func (s replayTranscriptService) CreateRequest(context.Context, *transcriptdomain.TranscriptionRequest) error {
	return gorm.ErrDuplicatedKey
}

func (s replayTranscriptService) GetWithResponse(_ context.Context, requestID string) (*transcriptdomain.RequestWithResponse, error) {
	return &transcriptdomain.RequestWithResponse{
		Request: transcriptdomain.TranscriptionRequest{
			RequestID: requestID,
			UserID:    s.ownerID,
			Status:    transcriptdomain.RequestStatusCompleted,
		},
		Response: &transcriptdomain.TranscriptionResponse{
			RequestID: requestID,
			Text:      "stored transcript",
		},
	}, nil
}

func (replayTranscriptService) MarkCompleted(context.Context, string, string, float64) error {
	return nil
}

func (replayTranscriptService) MarkFailed(context.Context, string, string, string) error {
	return nil
}

func (replayTranscriptService) SaveResponse(context.Context, *transcriptdomain.TranscriptionResponse) error {
	return nil
}

func (replayTranscriptService) ListByUser(context.Context, snowflake.ID, int) ([]transcriptdomain.TranscriptionRequest, error) {
	return nil, nil
}

func newReplayTestRouter(t *testing.T, caller *accountdomain.Account, ownerID snowflake.ID) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	srv := &Server{
		genID:         node,
		log:           zap.NewNop(),
		sttSvc:        stubSTTService{},
		transcriptSvc: replayTranscriptService{ownerID: ownerID},
	}

	r := gin.New()
	r.Use(ErrorHandlingMiddleware())
	r.POST("/v1/transcriptions", func(c *gin.Context) {
		c.Set(contextAccountKey, caller)
		srv.CreateTranscription(c)
	})
	return r
}

func transcriptionForm(t *testing.T, requestID string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "meeting.mp3")
	require.NoError(t, err)
	_, err = part.Write([]byte("audio-bytes"))
	require.NoError(t, err)
	require.NoError(t, w.WriteField("request_id", requestID))
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestCreateTranscriptionReplayRejectsForeignRequestID(t *testing.T) {
	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	owner := node.Generate()
	caller := &accountdomain.Account{ID: node.Generate()}

	r := newReplayTestRouter(t, caller, owner)

	body, contentType := transcriptionForm(t, "req-foreign")
	req := httptest.NewRequest(http.MethodPost, "/v1/transcriptions", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotContains(t, w.Body.String(), "stored transcript")
}

func TestCreateTranscriptionReplayReturnsOwnRecord(t *testing.T) {
	node, err := snowflake.NewNode(3)
	require.NoError(t, err)
	caller := &accountdomain.Account{ID: node.Generate()}

	r := newReplayTestRouter(t, caller, caller.ID)

	body, contentType := transcriptionForm(t, "req-own")
	req := httptest.NewRequest(http.MethodPost, "/v1/transcriptions", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var record transcriptdomain.RequestWithResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
	assert.Equal(t, "req-own", record.Request.RequestID)
	assert.Equal(t, "stored transcript", record.Response.Text)
}

func TestCreateTranscriptionReplayAllowsAdmin(t *testing.T) {
	node, err := snowflake.NewNode(4)
	require.NoError(t, err)
	owner := node.Generate()
	admin := &accountdomain.Account{ID: node.Generate(), IsAdmin: true}

	r := newReplayTestRouter(t, admin, owner)

	body, contentType := transcriptionForm(t, "req-admin")
	req := httptest.NewRequest(http.MethodPost, "/v1/transcriptions", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
