package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	quotadomain "github.com/smallbiznis/scriba/internal/quota/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() quotadomain.Repository {
	return &repo{}
}

func (r *repo) FindToken(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*quotadomain.ServiceToken, error) {
	var token quotadomain.ServiceToken
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *repo) FindActiveTokenForUpdate(ctx context.Context, db *gorm.DB, userID snowflake.ID, now time.Time) (*quotadomain.ServiceToken, error) {
	stmt := db.WithContext(ctx)
	// sqlite serializes writers on its own and rejects FOR UPDATE
	if db.Dialector.Name() != "sqlite" {
		stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var token quotadomain.ServiceToken
	err := stmt.
		Where("user_id = ? AND status = ? AND expiry_date > ?", userID, quotadomain.TokenStatusActive, now).
		First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *repo) SaveToken(ctx context.Context, db *gorm.DB, token *quotadomain.ServiceToken) error {
	return db.WithContext(ctx).Save(token).Error
}

func (r *repo) InsertUsage(ctx context.Context, db *gorm.DB, record *quotadomain.UsageRecord) error {
	return db.WithContext(ctx).Create(record).Error
}

func (r *repo) FindUsageByRequestID(ctx context.Context, db *gorm.DB, requestID string) (*quotadomain.UsageRecord, error) {
	var record quotadomain.UsageRecord
	err := db.WithContext(ctx).
		Where("request_id = ?", requestID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repo) ListUsage(ctx context.Context, db *gorm.DB, userID snowflake.ID, limit int) ([]quotadomain.UsageRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []quotadomain.UsageRecord
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

func (r *repo) ListUsageInPeriod(ctx context.Context, db *gorm.DB, userID snowflake.ID, from, to time.Time) ([]quotadomain.UsageRecord, error) {
	var records []quotadomain.UsageRecord
	err := db.WithContext(ctx).
		Where("user_id = ? AND created_at >= ? AND created_at <= ?", userID, from, to).
		Order("created_at ASC").
		Find(&records).Error
	return records, err
}

func (r *repo) SumUsageInPeriod(ctx context.Context, db *gorm.DB, userID snowflake.ID, from, to time.Time) (float64, error) {
	var total *float64
	err := db.WithContext(ctx).
		Model(&quotadomain.UsageRecord{}).
		Select("SUM(charged_minutes)").
		Where("user_id = ? AND created_at >= ? AND created_at <= ?", userID, from, to).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}
