package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Service exposes read access to plans and active subscriptions. The
// billing aggregator treats this data as read-only.
type Service interface {
	ListActive(ctx context.Context, at time.Time) ([]Subscription, error)
	GetActiveByUser(ctx context.Context, userID snowflake.ID, at time.Time) (*Subscription, error)
	PlanFor(ctx context.Context, subscription Subscription) (*SubscriptionPlan, error)
	ListPlans(ctx context.Context) ([]SubscriptionPlan, error)
}
