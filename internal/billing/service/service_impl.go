package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	billingdomain "github.com/smallbiznis/scriba/internal/billing/domain"
	"github.com/smallbiznis/scriba/internal/clock"
	"github.com/smallbiznis/scriba/internal/config"
	"github.com/smallbiznis/scriba/internal/observability/metrics"
	quotadomain "github.com/smallbiznis/scriba/internal/quota/domain"
	subscriptiondomain "github.com/smallbiznis/scriba/internal/subscription/domain"
	"github.com/smallbiznis/scriba/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type service struct {
	db              *gorm.DB
	repo            billingdomain.Repository
	quotaRepo       quotadomain.Repository
	quotaSvc        quotadomain.Service
	subscriptionSvc subscriptiondomain.Service
	billingCfg      *config.BillingConfigHolder
	clock           clock.Clock
	genID           *snowflake.Node
	log             *zap.Logger
	metrics         *metrics.Metrics
}

func NewService(
	conn *gorm.DB,
	repo billingdomain.Repository,
	quotaRepo quotadomain.Repository,
	quotaSvc quotadomain.Service,
	subscriptionSvc subscriptiondomain.Service,
	billingCfg *config.BillingConfigHolder,
	clk clock.Clock,
	genID *snowflake.Node,
	log *zap.Logger,
	m *metrics.Metrics,
) billingdomain.Service {
	return &service{
		db:              conn,
		repo:            repo,
		quotaRepo:       quotaRepo,
		quotaSvc:        quotaSvc,
		subscriptionSvc: subscriptionSvc,
		billingCfg:      billingCfg,
		clock:           clk,
		genID:           genID,
		log:             log.Named("billing"),
		metrics:         m,
	}
}

// periodBounds returns the first and last instant of the calendar month.
func periodBounds(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return start, end
}

func validPeriod(year, month int) bool {
	return year >= 2000 && year <= 9999 && month >= 1 && month <= 12
}

func (s *service) GenerateMonthlyBilling(ctx context.Context, year, month int) (*billingdomain.RunReport, error) {
	if !validPeriod(year, month) {
		return nil, billingdomain.ErrInvalidPeriod
	}
	periodStart, periodEnd := periodBounds(year, month)

	subscriptions, err := s.subscriptionSvc.ListActive(ctx, periodEnd)
	if err != nil {
		return nil, fmt.Errorf("list active subscriptions: %w", err)
	}

	report := &billingdomain.RunReport{Year: year, Month: month}
	var runErr error
	for _, subscription := range subscriptions {
		exists, err := s.repo.BillingExists(ctx, s.db, subscription.UserID, year, month)
		if err != nil {
			report.Failed++
			runErr = errors.Join(runErr, err)
			continue
		}
		if exists {
			report.Skipped++
			s.metrics.RecordBillingRow("skipped")
			continue
		}

		if err := s.billSubscription(ctx, subscription, year, month, periodStart, periodEnd); err != nil {
			// A duplicate key under a concurrent run means the row landed
			// already; count it as skipped.
			if db.IsDuplicateKeyErr(err) {
				report.Skipped++
				s.metrics.RecordBillingRow("skipped")
				continue
			}
			report.Failed++
			s.metrics.RecordBillingRow("failed")
			runErr = errors.Join(runErr, err)
			s.log.Error("billing row failed",
				zap.String("user_id", subscription.UserID.String()),
				zap.Int("year", year),
				zap.Int("month", month),
				zap.Error(err),
			)
			continue
		}
		report.Created++
		s.metrics.RecordBillingRow("created")
	}

	s.log.Info("monthly billing generated",
		zap.Int("year", year),
		zap.Int("month", month),
		zap.Int("created", report.Created),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
	)
	return report, runErr
}

func (s *service) billSubscription(ctx context.Context, subscription subscriptiondomain.Subscription, year, month int, periodStart, periodEnd time.Time) error {
	plan, err := s.subscriptionSvc.PlanFor(ctx, subscription)
	if err != nil {
		return err
	}

	usedMinutes, err := s.quotaRepo.SumUsageInPeriod(ctx, s.db, subscription.UserID, periodStart, periodEnd)
	if err != nil {
		return err
	}

	includedMinutes := subscription.GrantedMinutes(*plan)
	if token, err := s.quotaRepo.FindToken(ctx, s.db, subscription.UserID); err == nil {
		includedMinutes = token.QuotaMinutes
	}

	cfg := s.billingCfg.Get()
	excessMinutes := math.Max(0, usedMinutes-includedMinutes)
	baseFee := subscription.BaseAmount(*plan)
	overageFee := int64(math.Round(excessMinutes * float64(plan.OveragePerMinuteRate)))
	subtotal := baseFee + overageFee
	vat := int64(math.Round(float64(subtotal) * cfg.VATRate))
	total := subtotal + vat

	now := s.clock.Now()
	billing := &billingdomain.MonthlyBilling{
		ID:              s.genID.Generate(),
		UserID:          subscription.UserID,
		BillingYear:     year,
		BillingMonth:    month,
		PlanCode:        subscription.PlanCode,
		UsageMinutes:    usedMinutes,
		IncludedMinutes: includedMinutes,
		ExcessMinutes:   excessMinutes,
		BaseFee:         baseFee,
		OverageFee:      overageFee,
		Subtotal:        subtotal,
		VATAmount:       vat,
		TotalAmount:     total,
		Status:          billingdomain.BillingStatusPending,
		PeriodStart:     periodStart,
		PeriodEnd:       periodEnd,
		DueDate:         now.AddDate(0, 0, cfg.PaymentDueDays),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.InsertBilling(ctx, tx, billing); err != nil {
			return err
		}
		if excessMinutes <= 0 {
			return nil
		}

		payment := &billingdomain.Payment{
			ID:        s.genID.Generate(),
			PaymentID: uuid.NewString(),
			UserID:    subscription.UserID,
			BillingID: billing.ID,
			Type:      billingdomain.PaymentTypeOverage,
			Amount:    overageFee,
			Status:    billingdomain.BillingStatusPending,
			CreatedAt: now,
		}
		if err := s.repo.InsertPayment(ctx, tx, payment); err != nil {
			return err
		}
		return s.repo.InsertOveragePayment(ctx, tx, &billingdomain.OveragePayment{
			ID:            s.genID.Generate(),
			PaymentID:     payment.PaymentID,
			BillingID:     billing.ID,
			ExcessMinutes: excessMinutes,
			RatePerMinute: plan.OveragePerMinuteRate,
			Amount:        overageFee,
			CreatedAt:     now,
		})
	})
}

// RenewSubscriptions records the cycle's subscription payments and resets
// quotas for the following month. The billing run for the period must have
// happened first.
func (s *service) RenewSubscriptions(ctx context.Context, year, month int) (*billingdomain.RunReport, error) {
	if !validPeriod(year, month) {
		return nil, billingdomain.ErrInvalidPeriod
	}
	_, periodEnd := periodBounds(year, month)

	billed, err := s.repo.AnyBillingForPeriod(ctx, s.db, year, month)
	if err != nil {
		return nil, err
	}
	if !billed {
		return nil, billingdomain.ErrPeriodNotBilled
	}

	subscriptions, err := s.subscriptionSvc.ListActive(ctx, periodEnd)
	if err != nil {
		return nil, fmt.Errorf("list active subscriptions: %w", err)
	}

	// The fresh cycle runs through the following month.
	nextStart := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	nextExpiry := nextStart.AddDate(0, 1, 0).Add(-time.Nanosecond)

	report := &billingdomain.RunReport{Year: year, Month: month}
	var runErr error
	for _, subscription := range subscriptions {
		exists, err := s.repo.SubscriptionPaymentExists(ctx, s.db, subscription.ID, year, month)
		if err != nil {
			report.Failed++
			runErr = errors.Join(runErr, err)
			continue
		}
		if exists {
			report.Skipped++
			continue
		}

		if err := s.renewOne(ctx, subscription, year, month, nextExpiry); err != nil {
			if db.IsDuplicateKeyErr(err) {
				report.Skipped++
				continue
			}
			report.Failed++
			runErr = errors.Join(runErr, err)
			s.log.Error("subscription renewal failed",
				zap.String("subscription_id", subscription.ID.String()),
				zap.Error(err),
			)
			continue
		}
		report.Created++
	}

	s.log.Info("subscriptions renewed",
		zap.Int("year", year),
		zap.Int("month", month),
		zap.Int("created", report.Created),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
	)
	return report, runErr
}

func (s *service) renewOne(ctx context.Context, subscription subscriptiondomain.Subscription, year, month int, expiry time.Time) error {
	plan, err := s.subscriptionSvc.PlanFor(ctx, subscription)
	if err != nil {
		return err
	}

	if err := s.repo.InsertSubscriptionPayment(ctx, s.db, &billingdomain.SubscriptionPayment{
		ID:             s.genID.Generate(),
		SubscriptionID: subscription.ID,
		BillingYear:    year,
		BillingMonth:   month,
		UserID:         subscription.UserID,
		Amount:         subscription.BaseAmount(*plan),
		Status:         billingdomain.BillingStatusPending,
		CreatedAt:      s.clock.Now(),
	}); err != nil {
		return err
	}

	return s.quotaSvc.ResetForNewCycle(ctx, subscription.UserID, subscription.GrantedMinutes(*plan), expiry)
}

func (s *service) Summary(ctx context.Context, year, month int) (*billingdomain.MonthlySummary, error) {
	if !validPeriod(year, month) {
		return nil, billingdomain.ErrInvalidPeriod
	}
	return s.repo.SummarizeMonth(ctx, s.db, year, month)
}

func (s *service) GetBilling(ctx context.Context, id snowflake.ID) (*billingdomain.MonthlyBilling, error) {
	return s.repo.FindBillingByID(ctx, s.db, id)
}

func (s *service) ListBillings(ctx context.Context, year, month int) ([]billingdomain.MonthlyBilling, error) {
	if !validPeriod(year, month) {
		return nil, billingdomain.ErrInvalidPeriod
	}
	return s.repo.ListBillings(ctx, s.db, year, month)
}
