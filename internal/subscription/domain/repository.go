package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindPlanByCode(ctx context.Context, db *gorm.DB, planCode string) (*SubscriptionPlan, error)
	ListPlans(ctx context.Context, db *gorm.DB) ([]SubscriptionPlan, error)
	UpsertPlan(ctx context.Context, db *gorm.DB, plan *SubscriptionPlan) error

	FindActiveByUserID(ctx context.Context, db *gorm.DB, userID snowflake.ID, at time.Time) (*Subscription, error)
	ListActive(ctx context.Context, db *gorm.DB, at time.Time) ([]Subscription, error)
	Insert(ctx context.Context, db *gorm.DB, subscription *Subscription) error
}
