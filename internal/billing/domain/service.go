package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Service is the billing aggregator. Both batch operations are idempotent
// per (user, year, month) and safe to re-run.
type Service interface {
	// GenerateMonthlyBilling aggregates usage for every active subscription
	// into one MonthlyBilling row per user for the given month.
	GenerateMonthlyBilling(ctx context.Context, year, month int) (*RunReport, error)

	// RenewSubscriptions records the cycle's subscription payments and
	// resets quotas. It refuses periods whose billing has not run.
	RenewSubscriptions(ctx context.Context, year, month int) (*RunReport, error)

	Summary(ctx context.Context, year, month int) (*MonthlySummary, error)
	GetBilling(ctx context.Context, id snowflake.ID) (*MonthlyBilling, error)
	ListBillings(ctx context.Context, year, month int) ([]MonthlyBilling, error)
}
