package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/smallbiznis/scriba/internal/billing/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() billingdomain.Repository {
	return &repo{}
}

func (r *repo) InsertBilling(ctx context.Context, db *gorm.DB, billing *billingdomain.MonthlyBilling) error {
	return db.WithContext(ctx).Create(billing).Error
}

func (r *repo) BillingExists(ctx context.Context, db *gorm.DB, userID snowflake.ID, year, month int) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&billingdomain.MonthlyBilling{}).
		Where("user_id = ? AND billing_year = ? AND billing_month = ?", userID, year, month).
		Count(&count).Error
	return count > 0, err
}

func (r *repo) AnyBillingForPeriod(ctx context.Context, db *gorm.DB, year, month int) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&billingdomain.MonthlyBilling{}).
		Where("billing_year = ? AND billing_month = ?", year, month).
		Count(&count).Error
	return count > 0, err
}

func (r *repo) FindBillingByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*billingdomain.MonthlyBilling, error) {
	var billing billingdomain.MonthlyBilling
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&billing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, billingdomain.ErrBillingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &billing, nil
}

func (r *repo) ListBillings(ctx context.Context, db *gorm.DB, year, month int) ([]billingdomain.MonthlyBilling, error) {
	var billings []billingdomain.MonthlyBilling
	err := db.WithContext(ctx).
		Where("billing_year = ? AND billing_month = ?", year, month).
		Order("user_id ASC").
		Find(&billings).Error
	return billings, err
}

func (r *repo) SummarizeMonth(ctx context.Context, db *gorm.DB, year, month int) (*billingdomain.MonthlySummary, error) {
	type row struct {
		Status     billingdomain.BillingStatus
		Count      int64
		Total      int64
		OverageFee int64
	}
	var rows []row
	err := db.WithContext(ctx).
		Model(&billingdomain.MonthlyBilling{}).
		Select("status, COUNT(*) AS count, SUM(total_amount) AS total, SUM(overage_fee) AS overage_fee").
		Where("billing_year = ? AND billing_month = ?", year, month).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	summary := &billingdomain.MonthlySummary{
		Year:         year,
		Month:        month,
		StatusCounts: map[billingdomain.BillingStatus]int{},
	}
	for _, r := range rows {
		summary.BillingCount += r.Count
		summary.TotalAmount += r.Total
		summary.TotalOverageFee += r.OverageFee
		summary.StatusCounts[r.Status] = int(r.Count)
	}
	return summary, nil
}

func (r *repo) InsertPayment(ctx context.Context, db *gorm.DB, payment *billingdomain.Payment) error {
	return db.WithContext(ctx).Create(payment).Error
}

func (r *repo) InsertOveragePayment(ctx context.Context, db *gorm.DB, payment *billingdomain.OveragePayment) error {
	return db.WithContext(ctx).Create(payment).Error
}

func (r *repo) InsertSubscriptionPayment(ctx context.Context, db *gorm.DB, payment *billingdomain.SubscriptionPayment) error {
	return db.WithContext(ctx).Create(payment).Error
}

func (r *repo) SubscriptionPaymentExists(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID, year, month int) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&billingdomain.SubscriptionPayment{}).
		Where("subscription_id = ? AND billing_year = ? AND billing_month = ?", subscriptionID, year, month).
		Count(&count).Error
	return count > 0, err
}
