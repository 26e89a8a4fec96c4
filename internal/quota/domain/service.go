package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Service is the quota ledger. Charge is atomic and idempotent on request id.
type Service interface {
	// Charge debits minutes from the user's active token and records the
	// usage keyed by requestID. A repeated requestID is a no-op that
	// returns the current balance.
	Charge(ctx context.Context, userID snowflake.ID, requestID, provider string, minutes float64) (remaining float64, err error)

	Balance(ctx context.Context, userID snowflake.ID) (*ServiceToken, error)
	History(ctx context.Context, userID snowflake.ID, limit int) ([]UsageRecord, error)
	UsageInPeriod(ctx context.Context, userID snowflake.ID, from, to time.Time) ([]UsageRecord, error)

	// ResetForNewCycle grants a fresh quota and zeroes usage. Called by the
	// billing renewal only, after the closed cycle has been captured.
	ResetForNewCycle(ctx context.Context, userID snowflake.ID, grantedMinutes float64, expiry time.Time) error
}
