package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertBilling(ctx context.Context, db *gorm.DB, billing *MonthlyBilling) error
	BillingExists(ctx context.Context, db *gorm.DB, userID snowflake.ID, year, month int) (bool, error)
	AnyBillingForPeriod(ctx context.Context, db *gorm.DB, year, month int) (bool, error)
	FindBillingByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*MonthlyBilling, error)
	ListBillings(ctx context.Context, db *gorm.DB, year, month int) ([]MonthlyBilling, error)
	SummarizeMonth(ctx context.Context, db *gorm.DB, year, month int) (*MonthlySummary, error)

	InsertPayment(ctx context.Context, db *gorm.DB, payment *Payment) error
	InsertOveragePayment(ctx context.Context, db *gorm.DB, payment *OveragePayment) error
	InsertSubscriptionPayment(ctx context.Context, db *gorm.DB, payment *SubscriptionPayment) error
	SubscriptionPaymentExists(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID, year, month int) (bool, error)
}
