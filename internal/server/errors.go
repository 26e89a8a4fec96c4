package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	accountdomain "github.com/smallbiznis/scriba/internal/account/domain"
	billingdomain "github.com/smallbiznis/scriba/internal/billing/domain"
	quotadomain "github.com/smallbiznis/scriba/internal/quota/domain"
	sttdomain "github.com/smallbiznis/scriba/internal/stt/domain"
	subscriptiondomain "github.com/smallbiznis/scriba/internal/subscription/domain"
	transcriptdomain "github.com/smallbiznis/scriba/internal/transcript/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, accountdomain.ErrInvalidAPIKey):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, sttdomain.ErrEmptyAudio),
		errors.Is(err, quotadomain.ErrInvalidCharge),
		errors.Is(err, billingdomain.ErrInvalidPeriod):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	case errors.Is(err, sttdomain.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType, errorPayload{
			Type:    "unsupported_format",
			Message: "file format not supported by the selected provider",
		}
	case errors.Is(err, sttdomain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, errorPayload{
			Type:    "file_too_large",
			Message: "file exceeds the provider size limit",
		}
	case errors.Is(err, quotadomain.ErrNoActiveQuota),
		errors.Is(err, quotadomain.ErrInsufficientBalance):
		return http.StatusPaymentRequired, errorPayload{
			Type:    "quota_exceeded",
			Message: err.Error(),
		}
	case errors.Is(err, billingdomain.ErrPeriodNotBilled):
		return http.StatusConflict, errorPayload{
			Type:    "period_not_billed",
			Message: "billing has not run for the requested period",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, sttdomain.ErrProviderTimeout):
		return http.StatusGatewayTimeout, errorPayload{
			Type:    "provider_timeout",
			Message: "transcription provider timed out",
		}
	case errors.Is(err, sttdomain.ErrAllProvidersFailed),
		errors.Is(err, sttdomain.ErrProviderFailed),
		errors.Is(err, sttdomain.ErrProviderNotReady),
		errors.Is(err, sttdomain.ErrNoProviders):
		return http.StatusBadGateway, errorPayload{
			Type:    "provider_error",
			Message: "transcription providers unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, sttdomain.ErrProviderNotFound),
		errors.Is(err, billingdomain.ErrBillingNotFound),
		errors.Is(err, transcriptdomain.ErrRequestNotFound),
		errors.Is(err, subscriptiondomain.ErrPlanNotFound),
		errors.Is(err, subscriptiondomain.ErrSubscriptionNotFound),
		errors.Is(err, accountdomain.ErrAccountNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}
