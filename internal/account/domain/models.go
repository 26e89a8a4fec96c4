// Package domain contains persistence models for API accounts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// AccountStatus represents lifecycle states for an account.
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "active"
	AccountStatusSuspended AccountStatus = "suspended"
)

// Account is an API consumer. Keys are stored hashed; issuance happens out
// of band.
type Account struct {
	ID         snowflake.ID  `gorm:"primaryKey"`
	Email      string        `gorm:"type:text;not null;uniqueIndex"`
	Name       string        `gorm:"type:text"`
	APIKeyHash string        `gorm:"type:text;not null;uniqueIndex"`
	Status     AccountStatus `gorm:"type:text;not null;default:'active'"`
	IsAdmin    bool          `gorm:"not null;default:false"`
	CreatedAt  time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Account) TableName() string { return "accounts" }
