// Package domain contains persistence models for the quota ledger.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// TokenStatus represents lifecycle states for a service token.
type TokenStatus string

const (
	TokenStatusActive    TokenStatus = "active"
	TokenStatusExpired   TokenStatus = "expired"
	TokenStatusSuspended TokenStatus = "suspended"
)

// ServiceToken is a user's quota bucket for the current billing cycle.
// One row per user; mutated only by Charge and the cycle reset.
type ServiceToken struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	UserID       snowflake.ID `gorm:"not null;uniqueIndex"`
	QuotaMinutes float64      `gorm:"type:decimal(12,2);not null"`
	UsedMinutes  float64      `gorm:"type:decimal(12,2);not null;default:0"`
	ExpiryDate   time.Time    `gorm:"not null"`
	Status       TokenStatus  `gorm:"type:text;not null;default:'active'"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (ServiceToken) TableName() string { return "service_tokens" }

// Remaining returns the balance left on the token.
func (t ServiceToken) Remaining() float64 {
	return t.QuotaMinutes - t.UsedMinutes
}

// UsageRecord is the append-only charge history. RequestID is the
// idempotency key.
type UsageRecord struct {
	ID             snowflake.ID `gorm:"primaryKey"`
	UserID         snowflake.ID `gorm:"not null;index"`
	RequestID      string       `gorm:"type:text;not null;uniqueIndex"`
	Provider       string       `gorm:"type:text"`
	ChargedMinutes float64      `gorm:"type:decimal(12,2);not null"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP;index"`
}

// TableName sets the database table name.
func (UsageRecord) TableName() string { return "usage_records" }
