package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/scriba/internal/clock"
	"github.com/smallbiznis/scriba/internal/config"
	"github.com/smallbiznis/scriba/internal/observability/metrics"
	quotadomain "github.com/smallbiznis/scriba/internal/quota/domain"
	"github.com/smallbiznis/scriba/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const chargeBackoffBase = 100 * time.Millisecond

type service struct {
	db         *gorm.DB
	repo       quotadomain.Repository
	billingCfg *config.BillingConfigHolder
	clock      clock.Clock
	genID      *snowflake.Node
	log        *zap.Logger
	metrics    *metrics.Metrics
}

func NewService(
	conn *gorm.DB,
	repo quotadomain.Repository,
	billingCfg *config.BillingConfigHolder,
	clk clock.Clock,
	genID *snowflake.Node,
	log *zap.Logger,
	m *metrics.Metrics,
) quotadomain.Service {
	return &service{
		db:         conn,
		repo:       repo,
		billingCfg: billingCfg,
		clock:      clk,
		genID:      genID,
		log:        log.Named("quota"),
		metrics:    m,
	}
}

// Charge debits minutes inside a row-locked transaction, retrying the whole
// transaction on contention. The request id makes it idempotent: a repeat
// returns the current balance without mutating anything.
func (s *service) Charge(ctx context.Context, userID snowflake.ID, requestID, provider string, minutes float64) (float64, error) {
	if requestID == "" || minutes <= 0 {
		return 0, quotadomain.ErrInvalidCharge
	}

	// Fast path: the request was already charged.
	if existing, err := s.repo.FindUsageByRequestID(ctx, s.db, requestID); err == nil && existing != nil {
		s.metrics.RecordChargeOutcome("idempotent_hit")
		return s.currentRemaining(ctx, userID)
	}

	maxAttempts := s.billingCfg.Get().ChargeMaxAttempts
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			s.metrics.RecordChargeRetry()
			if err := s.backoff(ctx, attempt); err != nil {
				return 0, fmt.Errorf("charge %s: %v: %w", requestID, err, quotadomain.ErrChargeFailed)
			}
		}

		remaining, err := s.chargeOnce(ctx, userID, requestID, provider, minutes)
		if err == nil {
			s.metrics.RecordChargeOutcome("ok")
			return remaining, nil
		}
		if errors.Is(err, quotadomain.ErrNoActiveQuota) || errors.Is(err, quotadomain.ErrInsufficientBalance) {
			s.metrics.RecordChargeOutcome("rejected")
			return 0, err
		}

		// A duplicate key on the usage insert means a concurrent retry of
		// the same request won the race; report its success.
		if db.IsDuplicateKeyErr(err) {
			if existing, ferr := s.repo.FindUsageByRequestID(ctx, s.db, requestID); ferr == nil && existing != nil {
				s.metrics.RecordChargeOutcome("idempotent_hit")
				return s.currentRemaining(ctx, userID)
			}
		}

		if !db.IsConflictErr(err) {
			lastErr = err
			break
		}
		lastErr = err
		s.log.Warn("charge transaction conflicted, retrying",
			zap.String("request_id", requestID),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}

	s.metrics.RecordChargeOutcome("failed")
	return 0, fmt.Errorf("charge %s: %v: %w", requestID, lastErr, quotadomain.ErrChargeFailed)
}

func (s *service) chargeOnce(ctx context.Context, userID snowflake.ID, requestID, provider string, minutes float64) (float64, error) {
	var remaining float64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		token, err := s.repo.FindActiveTokenForUpdate(ctx, tx, userID, s.clock.Now())
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return quotadomain.ErrNoActiveQuota
			}
			return err
		}

		// Idempotency re-check under the row lock.
		if existing, err := s.repo.FindUsageByRequestID(ctx, tx, requestID); err != nil {
			return err
		} else if existing != nil {
			remaining = token.Remaining()
			return nil
		}

		if token.Remaining() < minutes {
			return quotadomain.ErrInsufficientBalance
		}

		token.UsedMinutes += minutes
		token.UpdatedAt = s.clock.Now()
		if err := s.repo.SaveToken(ctx, tx, token); err != nil {
			return err
		}

		if err := s.repo.InsertUsage(ctx, tx, &quotadomain.UsageRecord{
			ID:             s.genID.Generate(),
			UserID:         userID,
			RequestID:      requestID,
			Provider:       provider,
			ChargedMinutes: minutes,
			CreatedAt:      s.clock.Now(),
		}); err != nil {
			return err
		}

		remaining = token.Remaining()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

// backoff sleeps 2^attempt times the base plus random jitter, honoring ctx.
func (s *service) backoff(ctx context.Context, attempt int) error {
	delay := chargeBackoffBase*time.Duration(1<<attempt) + time.Duration(rand.Int63n(int64(chargeBackoffBase)))
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *service) currentRemaining(ctx context.Context, userID snowflake.ID) (float64, error) {
	token, err := s.repo.FindToken(ctx, s.db, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, quotadomain.ErrNoActiveQuota
		}
		return 0, err
	}
	return token.Remaining(), nil
}

func (s *service) Balance(ctx context.Context, userID snowflake.ID) (*quotadomain.ServiceToken, error) {
	token, err := s.repo.FindToken(ctx, s.db, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, quotadomain.ErrNoActiveQuota
		}
		return nil, err
	}
	return token, nil
}

func (s *service) History(ctx context.Context, userID snowflake.ID, limit int) ([]quotadomain.UsageRecord, error) {
	return s.repo.ListUsage(ctx, s.db, userID, limit)
}

func (s *service) UsageInPeriod(ctx context.Context, userID snowflake.ID, from, to time.Time) ([]quotadomain.UsageRecord, error) {
	return s.repo.ListUsageInPeriod(ctx, s.db, userID, from, to)
}

// ResetForNewCycle grants a fresh quota after the billing run has captured
// the closed cycle. Creates the token when the user has none yet.
func (s *service) ResetForNewCycle(ctx context.Context, userID snowflake.ID, grantedMinutes float64, expiry time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		token, err := s.repo.FindToken(ctx, tx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.repo.SaveToken(ctx, tx, &quotadomain.ServiceToken{
				ID:           s.genID.Generate(),
				UserID:       userID,
				QuotaMinutes: grantedMinutes,
				UsedMinutes:  0,
				ExpiryDate:   expiry,
				Status:       quotadomain.TokenStatusActive,
				CreatedAt:    s.clock.Now(),
				UpdatedAt:    s.clock.Now(),
			})
		}
		if err != nil {
			return err
		}

		token.QuotaMinutes = grantedMinutes
		token.UsedMinutes = 0
		token.ExpiryDate = expiry
		token.Status = quotadomain.TokenStatusActive
		token.UpdatedAt = s.clock.Now()
		return s.repo.SaveToken(ctx, tx, token)
	})
}
