package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	subscriptiondomain "github.com/smallbiznis/scriba/internal/subscription/domain"
	"gorm.io/gorm"
)

type service struct {
	db   *gorm.DB
	repo subscriptiondomain.Repository
}

func NewService(conn *gorm.DB, repo subscriptiondomain.Repository) subscriptiondomain.Service {
	return &service{db: conn, repo: repo}
}

func (s *service) ListActive(ctx context.Context, at time.Time) ([]subscriptiondomain.Subscription, error) {
	return s.repo.ListActive(ctx, s.db, at)
}

func (s *service) GetActiveByUser(ctx context.Context, userID snowflake.ID, at time.Time) (*subscriptiondomain.Subscription, error) {
	subscription, err := s.repo.FindActiveByUserID(ctx, s.db, userID, at)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, subscriptiondomain.ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, err
	}
	return subscription, nil
}

func (s *service) PlanFor(ctx context.Context, subscription subscriptiondomain.Subscription) (*subscriptiondomain.SubscriptionPlan, error) {
	plan, err := s.repo.FindPlanByCode(ctx, s.db, subscription.PlanCode)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, subscriptiondomain.ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *service) ListPlans(ctx context.Context) ([]subscriptiondomain.SubscriptionPlan, error) {
	return s.repo.ListPlans(ctx, s.db)
}
