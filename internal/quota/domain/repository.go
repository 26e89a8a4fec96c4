package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindToken(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*ServiceToken, error)
	FindActiveTokenForUpdate(ctx context.Context, db *gorm.DB, userID snowflake.ID, now time.Time) (*ServiceToken, error)
	SaveToken(ctx context.Context, db *gorm.DB, token *ServiceToken) error
	InsertUsage(ctx context.Context, db *gorm.DB, record *UsageRecord) error
	FindUsageByRequestID(ctx context.Context, db *gorm.DB, requestID string) (*UsageRecord, error)
	ListUsage(ctx context.Context, db *gorm.DB, userID snowflake.ID, limit int) ([]UsageRecord, error)
	ListUsageInPeriod(ctx context.Context, db *gorm.DB, userID snowflake.ID, from, to time.Time) ([]UsageRecord, error)
	SumUsageInPeriod(ctx context.Context, db *gorm.DB, userID snowflake.ID, from, to time.Time) (float64, error)
}
