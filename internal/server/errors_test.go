package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	accountdomain "github.com/smallbiznis/scriba/internal/account/domain"
	billingdomain "github.com/smallbiznis/scriba/internal/billing/domain"
	quotadomain "github.com/smallbiznis/scriba/internal/quota/domain"
	sttdomain "github.com/smallbiznis/scriba/internal/stt/domain"
	transcriptdomain "github.com/smallbiznis/scriba/internal/transcript/domain"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"nil", nil, http.StatusInternalServerError, "internal_error"},
		{"invalid api key", accountdomain.ErrInvalidAPIKey, http.StatusUnauthorized, "unauthorized"},
		{"forbidden", ErrForbidden, http.StatusForbidden, "forbidden"},
		{"empty audio", sttdomain.ErrEmptyAudio, http.StatusBadRequest, "validation_error"},
		{"unsupported format", sttdomain.ErrUnsupportedFormat, http.StatusUnsupportedMediaType, "unsupported_format"},
		{"file too large", sttdomain.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "file_too_large"},
		{"no active quota", quotadomain.ErrNoActiveQuota, http.StatusPaymentRequired, "quota_exceeded"},
		{"insufficient balance", quotadomain.ErrInsufficientBalance, http.StatusPaymentRequired, "quota_exceeded"},
		{"period not billed", billingdomain.ErrPeriodNotBilled, http.StatusConflict, "period_not_billed"},
		{"request not found", transcriptdomain.ErrRequestNotFound, http.StatusNotFound, "not_found"},
		{"gorm not found", gorm.ErrRecordNotFound, http.StatusNotFound, "not_found"},
		{"provider timeout", sttdomain.ErrProviderTimeout, http.StatusGatewayTimeout, "provider_timeout"},
		{"all providers failed", sttdomain.ErrAllProvidersFailed, http.StatusBadGateway, "provider_error"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, payload := mapError(tc.err)
			assert.Equal(t, tc.wantStatus, status)
			assert.Equal(t, tc.wantType, payload.Type)
		})
	}
}

func TestMapErrorUnwrapsCause(t *testing.T) {
	status, payload := mapError(fmt.Errorf("deepgram: %w", sttdomain.ErrProviderTimeout))
	assert.Equal(t, http.StatusGatewayTimeout, status)
	assert.Equal(t, "provider_timeout", payload.Type)
}

func TestMapErrorValidation(t *testing.T) {
	status, payload := mapError(newValidationError("year", "required", "year is required"))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", payload.Type)
	assert.Len(t, payload.Errors, 1)
	assert.Equal(t, "year", payload.Errors[0].Field)
}

func TestBillableMinutes(t *testing.T) {
	cases := []struct {
		durationSeconds float64
		want            float64
	}{
		{0, 0.1},
		{-3, 0.1},
		{1, 0.1},
		{6, 0.1},
		{7, 0.2},
		{60, 1},
		{61, 1.1},
		{90, 1.5},
		{3600, 60},
	}
	for _, tc := range cases {
		assert.InDelta(t, tc.want, billableMinutes(tc.durationSeconds), 0.0001, "duration %v", tc.durationSeconds)
	}
}
