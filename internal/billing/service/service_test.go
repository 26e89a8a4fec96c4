package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	billingdomain "github.com/smallbiznis/scriba/internal/billing/domain"
	billingrepository "github.com/smallbiznis/scriba/internal/billing/repository"
	"github.com/smallbiznis/scriba/internal/clock"
	"github.com/smallbiznis/scriba/internal/config"
	quotadomain "github.com/smallbiznis/scriba/internal/quota/domain"
	quotarepository "github.com/smallbiznis/scriba/internal/quota/repository"
	quotaservice "github.com/smallbiznis/scriba/internal/quota/service"
	subscriptiondomain "github.com/smallbiznis/scriba/internal/subscription/domain"
	subscriptionrepository "github.com/smallbiznis/scriba/internal/subscription/repository"
	subscriptionservice "github.com/smallbiznis/scriba/internal/subscription/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type billingFixture struct {
	svc    billingdomain.Service
	db     *gorm.DB
	clk    *clock.FakeClock
	node   *snowflake.Node
	userID snowflake.ID
	subID  snowflake.ID
}

func setupBillingService(t *testing.T) *billingFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&quotadomain.ServiceToken{},
		&quotadomain.UsageRecord{},
		&subscriptiondomain.SubscriptionPlan{},
		&subscriptiondomain.Subscription{},
		&billingdomain.MonthlyBilling{},
		&billingdomain.Payment{},
		&billingdomain.OveragePayment{},
		&billingdomain.SubscriptionPayment{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, 4, 2, 3, 0, 0, 0, time.UTC))
	holder := config.NewStaticBillingConfigHolder(config.DefaultBillingConfig())
	log := zap.NewNop()

	quotaRepo := quotarepository.Provide()
	quotaSvc := quotaservice.NewService(db, quotaRepo, holder, clk, node, log, nil)
	subscriptionSvc := subscriptionservice.NewService(db, subscriptionrepository.Provide())

	svc := NewService(db, billingrepository.Provide(), quotaRepo, quotaSvc, subscriptionSvc, holder, clk, node, log, nil)

	fx := &billingFixture{
		svc:    svc,
		db:     db,
		clk:    clk,
		node:   node,
		userID: node.Generate(),
		subID:  node.Generate(),
	}

	require.NoError(t, db.Create(&subscriptiondomain.SubscriptionPlan{
		ID:                    node.Generate(),
		PlanCode:              "pro",
		Name:                  "Pro",
		MonthlyPrice:          100000,
		MonthlyGrantedMinutes: 100,
		PerMinuteRate:         1000,
		OveragePerMinuteRate:  50,
	}).Error)
	require.NoError(t, db.Create(&subscriptiondomain.Subscription{
		ID:        fx.subID,
		UserID:    fx.userID,
		PlanCode:  "pro",
		Quantity:  1,
		Status:    subscriptiondomain.SubscriptionStatusActive,
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}).Error)

	return fx
}

func (fx *billingFixture) seedUsage(t *testing.T, minutes float64, at time.Time) {
	t.Helper()
	require.NoError(t, fx.db.Create(&quotadomain.UsageRecord{
		ID:             fx.node.Generate(),
		UserID:         fx.userID,
		RequestID:      fx.node.Generate().String(),
		Provider:       "deepgram",
		ChargedMinutes: minutes,
		CreatedAt:      at,
	}).Error)
}

func (fx *billingFixture) seedToken(t *testing.T, quota, used float64) {
	t.Helper()
	require.NoError(t, fx.db.Create(&quotadomain.ServiceToken{
		ID:           fx.node.Generate(),
		UserID:       fx.userID,
		QuotaMinutes: quota,
		UsedMinutes:  used,
		ExpiryDate:   time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC),
		Status:       quotadomain.TokenStatusActive,
	}).Error)
}

func TestGenerateMonthlyBillingWithOverage(t *testing.T) {
	fx := setupBillingService(t)
	fx.seedToken(t, 100, 130)
	fx.seedUsage(t, 80, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	fx.seedUsage(t, 50, time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC))
	// outside the period, must not count
	fx.seedUsage(t, 999, time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC))

	report, err := fx.svc.GenerateMonthlyBilling(context.Background(), 2026, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 0, report.Skipped)
	assert.Equal(t, 0, report.Failed)

	var billing billingdomain.MonthlyBilling
	require.NoError(t, fx.db.Where("user_id = ?", fx.userID).First(&billing).Error)
	assert.InDelta(t, 130, billing.UsageMinutes, 0.001)
	assert.InDelta(t, 100, billing.IncludedMinutes, 0.001)
	assert.InDelta(t, 30, billing.ExcessMinutes, 0.001)
	assert.Equal(t, int64(100000), billing.BaseFee)
	assert.Equal(t, int64(1500), billing.OverageFee)
	assert.Equal(t, int64(101500), billing.Subtotal)
	assert.Equal(t, int64(10150), billing.VATAmount)
	assert.Equal(t, int64(111650), billing.TotalAmount)
	assert.Equal(t, billingdomain.BillingStatusPending, billing.Status)
	assert.WithinDuration(t, fx.clk.Now().AddDate(0, 0, 14), billing.DueDate, time.Second)

	var payment billingdomain.Payment
	require.NoError(t, fx.db.Where("billing_id = ?", billing.ID).First(&payment).Error)
	assert.Equal(t, billingdomain.PaymentTypeOverage, payment.Type)
	assert.Equal(t, int64(1500), payment.Amount)

	var overage billingdomain.OveragePayment
	require.NoError(t, fx.db.Where("billing_id = ?", billing.ID).First(&overage).Error)
	assert.InDelta(t, 30, overage.ExcessMinutes, 0.001)
	assert.Equal(t, int64(50), overage.RatePerMinute)
}

func TestGenerateMonthlyBillingWithoutOverage(t *testing.T) {
	fx := setupBillingService(t)
	fx.seedToken(t, 100, 40)
	fx.seedUsage(t, 40, time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC))

	report, err := fx.svc.GenerateMonthlyBilling(context.Background(), 2026, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)

	var billing billingdomain.MonthlyBilling
	require.NoError(t, fx.db.Where("user_id = ?", fx.userID).First(&billing).Error)
	assert.InDelta(t, 0, billing.ExcessMinutes, 0.001)
	assert.Equal(t, int64(0), billing.OverageFee)
	assert.Equal(t, int64(100000), billing.Subtotal)

	var count int64
	require.NoError(t, fx.db.Model(&billingdomain.Payment{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestGenerateMonthlyBillingIdempotent(t *testing.T) {
	fx := setupBillingService(t)
	fx.seedToken(t, 100, 10)
	fx.seedUsage(t, 10, time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC))

	first, err := fx.svc.GenerateMonthlyBilling(context.Background(), 2026, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Created)

	second, err := fx.svc.GenerateMonthlyBilling(context.Background(), 2026, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 1, second.Skipped)

	var count int64
	require.NoError(t, fx.db.Model(&billingdomain.MonthlyBilling{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGenerateMonthlyBillingInvalidPeriod(t *testing.T) {
	fx := setupBillingService(t)

	_, err := fx.svc.GenerateMonthlyBilling(context.Background(), 2026, 13)
	assert.ErrorIs(t, err, billingdomain.ErrInvalidPeriod)

	_, err = fx.svc.GenerateMonthlyBilling(context.Background(), 1999, 1)
	assert.ErrorIs(t, err, billingdomain.ErrInvalidPeriod)
}

func TestRenewRequiresBilledPeriod(t *testing.T) {
	fx := setupBillingService(t)

	_, err := fx.svc.RenewSubscriptions(context.Background(), 2026, 3)
	assert.ErrorIs(t, err, billingdomain.ErrPeriodNotBilled)
}

func TestRenewResetsQuotaAndIsIdempotent(t *testing.T) {
	fx := setupBillingService(t)
	fx.seedToken(t, 100, 77)
	fx.seedUsage(t, 77, time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC))

	_, err := fx.svc.GenerateMonthlyBilling(context.Background(), 2026, 3)
	require.NoError(t, err)

	report, err := fx.svc.RenewSubscriptions(context.Background(), 2026, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)

	var token quotadomain.ServiceToken
	require.NoError(t, fx.db.Where("user_id = ?", fx.userID).First(&token).Error)
	assert.InDelta(t, 100, token.QuotaMinutes, 0.001)
	assert.InDelta(t, 0, token.UsedMinutes, 0.001)
	// fresh cycle runs through the end of the following month
	wantExpiry := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)
	assert.WithinDuration(t, wantExpiry, token.ExpiryDate, time.Second)

	var payment billingdomain.SubscriptionPayment
	require.NoError(t, fx.db.Where("subscription_id = ?", fx.subID).First(&payment).Error)
	assert.Equal(t, int64(100000), payment.Amount)
	assert.Equal(t, 2026, payment.BillingYear)
	assert.Equal(t, 3, payment.BillingMonth)

	again, err := fx.svc.RenewSubscriptions(context.Background(), 2026, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Created)
	assert.Equal(t, 1, again.Skipped)

	var count int64
	require.NoError(t, fx.db.Model(&billingdomain.SubscriptionPayment{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSummaryAggregatesMonth(t *testing.T) {
	fx := setupBillingService(t)
	fx.seedToken(t, 100, 130)
	fx.seedUsage(t, 130, time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC))

	_, err := fx.svc.GenerateMonthlyBilling(context.Background(), 2026, 3)
	require.NoError(t, err)

	summary, err := fx.svc.Summary(context.Background(), 2026, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.BillingCount)
	assert.Equal(t, int64(1500), summary.TotalOverageFee)
	assert.Equal(t, 1, summary.StatusCounts[billingdomain.BillingStatusPending])
}
