package service

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/scriba/internal/clock"
	transcriptdomain "github.com/smallbiznis/scriba/internal/transcript/domain"
	"gorm.io/gorm"
)

type service struct {
	db    *gorm.DB
	clock clock.Clock
	genID *snowflake.Node
}

func NewService(conn *gorm.DB, clk clock.Clock, genID *snowflake.Node) transcriptdomain.Service {
	return &service{db: conn, clock: clk, genID: genID}
}

func (s *service) CreateRequest(ctx context.Context, request *transcriptdomain.TranscriptionRequest) error {
	if request.ID == 0 {
		request.ID = s.genID.Generate()
	}
	if request.Status == "" {
		request.Status = transcriptdomain.RequestStatusProcessing
	}
	if request.CreatedAt.IsZero() {
		request.CreatedAt = s.clock.Now()
	}
	request.UpdatedAt = s.clock.Now()
	return s.db.WithContext(ctx).Create(request).Error
}

func (s *service) MarkCompleted(ctx context.Context, requestID, provider string, processingTime float64) error {
	return s.updateStatus(ctx, requestID, map[string]any{
		"status":          transcriptdomain.RequestStatusCompleted,
		"provider":        provider,
		"processing_time": processingTime,
		"updated_at":      s.clock.Now(),
	})
}

func (s *service) MarkFailed(ctx context.Context, requestID, provider, errorMessage string) error {
	return s.updateStatus(ctx, requestID, map[string]any{
		"status":        transcriptdomain.RequestStatusFailed,
		"provider":      provider,
		"error_message": errorMessage,
		"updated_at":    s.clock.Now(),
	})
}

func (s *service) updateStatus(ctx context.Context, requestID string, updates map[string]any) error {
	result := s.db.WithContext(ctx).
		Model(&transcriptdomain.TranscriptionRequest{}).
		Where("request_id = ?", requestID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return transcriptdomain.ErrRequestNotFound
	}
	return nil
}

func (s *service) SaveResponse(ctx context.Context, response *transcriptdomain.TranscriptionResponse) error {
	if response.ID == 0 {
		response.ID = s.genID.Generate()
	}
	if response.CreatedAt.IsZero() {
		response.CreatedAt = s.clock.Now()
	}
	return s.db.WithContext(ctx).Create(response).Error
}

func (s *service) GetWithResponse(ctx context.Context, requestID string) (*transcriptdomain.RequestWithResponse, error) {
	var request transcriptdomain.TranscriptionRequest
	err := s.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		First(&request).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, transcriptdomain.ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}

	out := &transcriptdomain.RequestWithResponse{Request: request}
	var response transcriptdomain.TranscriptionResponse
	err = s.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		First(&response).Error
	if err == nil {
		out.Response = &response
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return out, nil
}

func (s *service) ListByUser(ctx context.Context, userID snowflake.ID, limit int) ([]transcriptdomain.TranscriptionRequest, error) {
	if limit <= 0 {
		limit = 50
	}
	var requests []transcriptdomain.TranscriptionRequest
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&requests).Error
	return requests, err
}
