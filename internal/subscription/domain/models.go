// Package domain contains persistence models for plans and subscriptions.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// SubscriptionStatus represents lifecycle states for a subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPaused   SubscriptionStatus = "paused"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

// SubscriptionPlan is reference pricing data. Amounts are in currency minor
// units, minutes are decimal.
type SubscriptionPlan struct {
	ID                    snowflake.ID `gorm:"primaryKey"`
	PlanCode              string       `gorm:"type:text;not null;uniqueIndex"`
	Name                  string       `gorm:"type:text;not null"`
	MonthlyPrice          int64        `gorm:"not null"`
	MonthlyGrantedMinutes float64      `gorm:"type:decimal(12,2);not null"`
	PerMinuteRate         int64        `gorm:"not null"`
	OveragePerMinuteRate  int64        `gorm:"not null"`
	CreatedAt             time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt             time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (SubscriptionPlan) TableName() string { return "subscription_plans" }

// Subscription binds a user to a plan with a seat count.
type Subscription struct {
	ID        snowflake.ID       `gorm:"primaryKey"`
	UserID    snowflake.ID       `gorm:"not null;index"`
	PlanCode  string             `gorm:"type:text;not null;index"`
	Quantity  int                `gorm:"not null;default:1"`
	Status    SubscriptionStatus `gorm:"type:text;not null"`
	StartDate time.Time          `gorm:"not null"`
	EndDate   *time.Time         `gorm:""`
	CreatedAt time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }

// BaseAmount is the subscription's monthly fee for the given plan.
func (s Subscription) BaseAmount(plan SubscriptionPlan) int64 {
	quantity := s.Quantity
	if quantity < 1 {
		quantity = 1
	}
	return plan.MonthlyPrice * int64(quantity)
}

// GrantedMinutes is the quota the subscription earns each cycle.
func (s Subscription) GrantedMinutes(plan SubscriptionPlan) float64 {
	quantity := s.Quantity
	if quantity < 1 {
		quantity = 1
	}
	return plan.MonthlyGrantedMinutes * float64(quantity)
}
