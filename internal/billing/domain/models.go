// Package domain contains persistence models for monthly billing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// BillingStatus represents lifecycle states for a monthly billing row.
type BillingStatus string

const (
	BillingStatusPending BillingStatus = "pending"
	BillingStatusBilled  BillingStatus = "billed"
	BillingStatusPaid    BillingStatus = "paid"
	BillingStatusOverdue BillingStatus = "overdue"
)

// MonthlyBilling is one user's aggregated invoice for a calendar month.
// The (user_id, billing_year, billing_month) unique index is the safety net
// under concurrent aggregator runs.
type MonthlyBilling struct {
	ID              snowflake.ID  `gorm:"primaryKey"`
	UserID          snowflake.ID  `gorm:"not null;uniqueIndex:idx_billing_user_period"`
	BillingYear     int           `gorm:"not null;uniqueIndex:idx_billing_user_period"`
	BillingMonth    int           `gorm:"not null;uniqueIndex:idx_billing_user_period"`
	PlanCode        string        `gorm:"type:text;not null"`
	UsageMinutes    float64       `gorm:"type:decimal(12,2);not null"`
	IncludedMinutes float64       `gorm:"type:decimal(12,2);not null"`
	ExcessMinutes   float64       `gorm:"type:decimal(12,2);not null"`
	BaseFee         int64         `gorm:"not null"`
	OverageFee      int64         `gorm:"not null"`
	Subtotal        int64         `gorm:"not null"`
	VATAmount       int64         `gorm:"not null"`
	TotalAmount     int64         `gorm:"not null"`
	Status          BillingStatus `gorm:"type:text;not null;default:'pending'"`
	PeriodStart     time.Time     `gorm:"not null"`
	PeriodEnd       time.Time     `gorm:"not null"`
	DueDate         time.Time     `gorm:"not null"`
	CreatedAt       time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (MonthlyBilling) TableName() string { return "monthly_billings" }

// PaymentType distinguishes overage charges from subscription renewals.
type PaymentType string

const (
	PaymentTypeOverage      PaymentType = "overage"
	PaymentTypeSubscription PaymentType = "subscription"
)

// Payment is the money-side record created for a billing row.
type Payment struct {
	ID        snowflake.ID  `gorm:"primaryKey"`
	PaymentID string        `gorm:"type:text;not null;uniqueIndex"`
	UserID    snowflake.ID  `gorm:"not null;index"`
	BillingID snowflake.ID  `gorm:"not null;index"`
	Type      PaymentType   `gorm:"type:text;not null"`
	Amount    int64         `gorm:"not null"`
	Status    BillingStatus `gorm:"type:text;not null;default:'pending'"`
	CreatedAt time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }

// OveragePayment details the excess-minutes portion of a payment.
type OveragePayment struct {
	ID            snowflake.ID `gorm:"primaryKey"`
	PaymentID     string       `gorm:"type:text;not null;index"`
	BillingID     snowflake.ID `gorm:"not null;index"`
	ExcessMinutes float64      `gorm:"type:decimal(12,2);not null"`
	RatePerMinute int64        `gorm:"not null"`
	Amount        int64        `gorm:"not null"`
	CreatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (OveragePayment) TableName() string { return "overage_payments" }

// SubscriptionPayment is the renewal record that accompanies a quota reset.
// Unique per subscription and cycle.
type SubscriptionPayment struct {
	ID             snowflake.ID  `gorm:"primaryKey"`
	SubscriptionID snowflake.ID  `gorm:"not null;uniqueIndex:idx_subpay_period"`
	BillingYear    int           `gorm:"not null;uniqueIndex:idx_subpay_period"`
	BillingMonth   int           `gorm:"not null;uniqueIndex:idx_subpay_period"`
	UserID         snowflake.ID  `gorm:"not null;index"`
	Amount         int64         `gorm:"not null"`
	Status         BillingStatus `gorm:"type:text;not null;default:'pending'"`
	CreatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (SubscriptionPayment) TableName() string { return "subscription_payments" }

// RunReport summarizes one aggregator pass.
type RunReport struct {
	Year    int `json:"year"`
	Month   int `json:"month"`
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// MonthlySummary aggregates a month's billing rows.
type MonthlySummary struct {
	Year            int                   `json:"year"`
	Month           int                   `json:"month"`
	BillingCount    int64                 `json:"billing_count"`
	TotalAmount     int64                 `json:"total_amount"`
	TotalOverageFee int64                 `json:"total_overage_fee"`
	StatusCounts    map[BillingStatus]int `json:"status_counts"`
}
