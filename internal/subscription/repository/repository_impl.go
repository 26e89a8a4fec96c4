package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	subscriptiondomain "github.com/smallbiznis/scriba/internal/subscription/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() subscriptiondomain.Repository {
	return &repo{}
}

func (r *repo) FindPlanByCode(ctx context.Context, db *gorm.DB, planCode string) (*subscriptiondomain.SubscriptionPlan, error) {
	var plan subscriptiondomain.SubscriptionPlan
	err := db.WithContext(ctx).
		Where("plan_code = ?", planCode).
		First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *repo) ListPlans(ctx context.Context, db *gorm.DB) ([]subscriptiondomain.SubscriptionPlan, error) {
	var plans []subscriptiondomain.SubscriptionPlan
	err := db.WithContext(ctx).
		Order("monthly_price ASC").
		Find(&plans).Error
	return plans, err
}

func (r *repo) UpsertPlan(ctx context.Context, db *gorm.DB, plan *subscriptiondomain.SubscriptionPlan) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "plan_code"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "monthly_price", "monthly_granted_minutes", "per_minute_rate", "overage_per_minute_rate", "updated_at"}),
		}).
		Create(plan).Error
}

func (r *repo) FindActiveByUserID(ctx context.Context, db *gorm.DB, userID snowflake.ID, at time.Time) (*subscriptiondomain.Subscription, error) {
	var subscription subscriptiondomain.Subscription
	err := db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND start_date <= ? AND (end_date IS NULL OR end_date >= ?)",
			userID, subscriptiondomain.SubscriptionStatusActive, at, at).
		First(&subscription).Error
	if err != nil {
		return nil, err
	}
	return &subscription, nil
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB, at time.Time) ([]subscriptiondomain.Subscription, error) {
	var subscriptions []subscriptiondomain.Subscription
	err := db.WithContext(ctx).
		Where("status = ? AND start_date <= ? AND (end_date IS NULL OR end_date >= ?)",
			subscriptiondomain.SubscriptionStatusActive, at, at).
		Order("user_id ASC").
		Find(&subscriptions).Error
	return subscriptions, err
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, subscription *subscriptiondomain.Subscription) error {
	return db.WithContext(ctx).Create(subscription).Error
}
