package server

import (
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	quotadomain "github.com/smallbiznis/scriba/internal/quota/domain"
	sttdomain "github.com/smallbiznis/scriba/internal/stt/domain"
	transcriptdomain "github.com/smallbiznis/scriba/internal/transcript/domain"
	"github.com/smallbiznis/scriba/pkg/db"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type transcriptionResponse struct {
	RequestID        string  `json:"request_id"`
	Provider         string  `json:"provider"`
	Text             string  `json:"text"`
	Summary          string  `json:"summary,omitempty"`
	Confidence       float64 `json:"confidence"`
	Language         string  `json:"language,omitempty"`
	DurationSeconds  float64 `json:"duration_seconds"`
	BilledMinutes    float64 `json:"billed_minutes"`
	RemainingMinutes float64 `json:"remaining_minutes"`
	WordCount        int     `json:"word_count"`
	ChargeStatus     string  `json:"charge_status"`
	ProcessingTime   float64 `json:"processing_time_seconds"`
}

// CreateTranscription accepts a multipart audio upload, orchestrates the
// providers and charges the account's quota for the billed minutes. The
// charge is keyed by request id so a client retry never double-bills.
func (s *Server) CreateTranscription(c *gin.Context) {
	acct := currentAccount(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		AbortWithError(c, newValidationError("file", "required", "audio file is required"))
		return
	}

	provider := strings.ToLower(strings.TrimSpace(c.PostForm("provider")))
	if provider != "" {
		if _, err := s.sttSvc.SupportedFormats(provider); err != nil {
			AbortWithError(c, err)
			return
		}
	}

	// Reject unsupported formats before any provider is called.
	if !s.sttSvc.IsFormatSupported(fileHeader.Filename, provider) {
		AbortWithError(c, sttdomain.ErrUnsupportedFormat)
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		AbortWithError(c, err)
		return
	}
	audio, err := io.ReadAll(src)
	src.Close()
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if len(audio) == 0 {
		AbortWithError(c, sttdomain.ErrEmptyAudio)
		return
	}

	requestID := strings.TrimSpace(c.PostForm("request_id"))
	if requestID == "" {
		requestID = strings.TrimSpace(c.GetHeader("X-Request-ID"))
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}

	request := &transcriptdomain.TranscriptionRequest{
		ID:        s.genID.Generate(),
		RequestID: requestID,
		UserID:    acct.ID,
		Filename:  fileHeader.Filename,
		SizeBytes: int64(len(audio)),
		Extension: sttdomain.FileExtension(fileHeader.Filename),
		Provider:  provider,
		Status:    transcriptdomain.RequestStatusProcessing,
	}
	if err := s.transcriptSvc.CreateRequest(c.Request.Context(), request); err != nil {
		// A replay of an already-submitted request id returns the stored
		// outcome instead of transcribing again.
		if db.IsDuplicateKeyErr(err) {
			existing, lookupErr := s.transcriptSvc.GetWithResponse(c.Request.Context(), requestID)
			if lookupErr != nil {
				AbortWithError(c, lookupErr)
				return
			}
			// The stored request id belongs to another account; never
			// replay someone else's transcript.
			if existing.Request.UserID != acct.ID && !acct.IsAdmin {
				AbortWithError(c, ErrInvalidRequest)
				return
			}
			c.JSON(http.StatusOK, existing)
			return
		}
		AbortWithError(c, err)
		return
	}

	job := sttdomain.Job{
		Audio:    audio,
		Filename: fileHeader.Filename,
		Language: strings.TrimSpace(c.PostForm("language")),
		Options:  map[string]string{},
	}
	if c.PostForm("diarize") == "true" {
		job.Options["diarize"] = "true"
	}
	if model := strings.TrimSpace(c.PostForm("model")); model != "" {
		job.Options["model"] = model
	}

	started := time.Now()
	var result sttdomain.Result
	if c.PostForm("fallback") == "false" && provider != "" {
		result = s.sttSvc.TranscribeWithProvider(c.Request.Context(), provider, job)
	} else {
		result = s.sttSvc.TranscribeWithFallback(c.Request.Context(), job, provider)
	}
	processing := time.Since(started).Seconds()

	if !result.Ok() {
		if markErr := s.transcriptSvc.MarkFailed(c.Request.Context(), requestID, result.Provider, result.Err.Error()); markErr != nil {
			s.log.Warn("mark request failed", zap.String("request_id", requestID), zap.Error(markErr))
		}
		AbortWithError(c, result.Err)
		return
	}

	duration := result.DurationSeconds
	if duration <= 0 {
		duration = sttdomain.EstimateDurationSeconds(fileHeader.Filename, int64(len(audio)))
	}
	billedMinutes := billableMinutes(duration)

	chargeStatus := "charged"
	remaining, chargeErr := s.quotaSvc.Charge(c.Request.Context(), acct.ID, requestID, result.Provider, billedMinutes)
	quotaRejected := errors.Is(chargeErr, quotadomain.ErrInsufficientBalance) ||
		errors.Is(chargeErr, quotadomain.ErrNoActiveQuota)
	if chargeErr != nil {
		if quotaRejected {
			chargeStatus = "rejected"
		} else {
			chargeStatus = "error"
			s.log.Error("quota charge failed",
				zap.String("request_id", requestID),
				zap.Error(chargeErr),
			)
		}
	}

	summary := ""
	if c.PostForm("summarize") == "true" && !quotaRejected {
		summary, err = s.summarizer.Summarize(c.Request.Context(), result.Text)
		if err != nil {
			s.log.Warn("summarizer failed", zap.String("request_id", requestID), zap.Error(err))
			summary = ""
		}
	}

	language := result.DetectedLanguage
	if language == "" {
		language = job.Language
	}

	if err := s.transcriptSvc.SaveResponse(c.Request.Context(), &transcriptdomain.TranscriptionResponse{
		ID:              s.genID.Generate(),
		RequestID:       requestID,
		Text:            result.Text,
		Summary:         summary,
		Confidence:      result.Confidence,
		Language:        language,
		DurationSeconds: duration,
		BilledMinutes:   billedMinutes,
		WordCount:       result.WordCount(),
		RawResponse:     datatypes.JSON(result.RawResponse),
	}); err != nil {
		s.log.Warn("save response failed", zap.String("request_id", requestID), zap.Error(err))
	}
	if err := s.transcriptSvc.MarkCompleted(c.Request.Context(), requestID, result.Provider, processing); err != nil {
		s.log.Warn("mark request completed", zap.String("request_id", requestID), zap.Error(err))
	}

	status := http.StatusOK
	if quotaRejected {
		// The transcript was produced but the account has no balance left;
		// return it anyway so the work is not lost.
		status = http.StatusPaymentRequired
	}
	c.JSON(status, transcriptionResponse{
		RequestID:        requestID,
		Provider:         result.Provider,
		Text:             result.Text,
		Summary:          summary,
		Confidence:       result.Confidence,
		Language:         language,
		DurationSeconds:  duration,
		BilledMinutes:    billedMinutes,
		RemainingMinutes: remaining,
		WordCount:        result.WordCount(),
		ChargeStatus:     chargeStatus,
		ProcessingTime:   processing,
	})
}

func (s *Server) GetTranscription(c *gin.Context) {
	requestID := c.Param("request_id")

	record, err := s.transcriptSvc.GetWithResponse(c.Request.Context(), requestID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	acct := currentAccount(c)
	if record.Request.UserID != acct.ID && !acct.IsAdmin {
		AbortWithError(c, ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s *Server) ListTranscriptions(c *gin.Context) {
	acct := currentAccount(c)

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			AbortWithError(c, newValidationError("limit", "invalid_limit", "limit must be between 1 and 500"))
			return
		}
		limit = parsed
	}

	requests, err := s.transcriptSvc.ListByUser(c.Request.Context(), acct.ID, limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// billableMinutes converts an audio duration to billed minutes, rounded up
// to a tenth of a minute.
func billableMinutes(durationSeconds float64) float64 {
	if durationSeconds <= 0 {
		return 0.1
	}
	return math.Ceil(durationSeconds/60*10) / 10
}
