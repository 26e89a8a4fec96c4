package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// RequestWithResponse pairs a request with its transcript, when present.
type RequestWithResponse struct {
	Request  TranscriptionRequest   `json:"request"`
	Response *TranscriptionResponse `json:"response,omitempty"`
}

type Service interface {
	CreateRequest(ctx context.Context, request *TranscriptionRequest) error
	MarkCompleted(ctx context.Context, requestID, provider string, processingTime float64) error
	MarkFailed(ctx context.Context, requestID, provider, errorMessage string) error
	SaveResponse(ctx context.Context, response *TranscriptionResponse) error
	GetWithResponse(ctx context.Context, requestID string) (*RequestWithResponse, error)
	ListByUser(ctx context.Context, userID snowflake.ID, limit int) ([]TranscriptionRequest, error)
}
