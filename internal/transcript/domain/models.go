// Package domain contains persistence models for transcription requests.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// RequestStatus represents lifecycle states for a transcription request.
type RequestStatus string

const (
	RequestStatusProcessing RequestStatus = "processing"
	RequestStatusCompleted  RequestStatus = "completed"
	RequestStatusFailed     RequestStatus = "failed"
)

// TranscriptionRequest tracks one inbound audio file through the gateway.
// RequestID doubles as the quota charge idempotency key.
type TranscriptionRequest struct {
	ID             snowflake.ID  `gorm:"primaryKey"`
	RequestID      string        `gorm:"type:text;not null;uniqueIndex"`
	UserID         snowflake.ID  `gorm:"not null;index"`
	Filename       string        `gorm:"type:text;not null"`
	SizeBytes      int64         `gorm:"not null"`
	Extension      string        `gorm:"type:text;not null"`
	Provider       string        `gorm:"type:text"`
	Status         RequestStatus `gorm:"type:text;not null;default:'processing'"`
	ProcessingTime float64       `gorm:"type:decimal(12,3);not null;default:0"`
	ErrorMessage   string        `gorm:"type:text"`
	CreatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP;index"`
	UpdatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (TranscriptionRequest) TableName() string { return "transcription_requests" }

// TranscriptionResponse stores the transcript produced for a request.
type TranscriptionResponse struct {
	ID              snowflake.ID   `gorm:"primaryKey"`
	RequestID       string         `gorm:"type:text;not null;uniqueIndex"`
	Text            string         `gorm:"type:text;not null"`
	Summary         string         `gorm:"type:text"`
	Confidence      float64        `gorm:"type:decimal(5,4);not null;default:0"`
	Language        string         `gorm:"type:text"`
	DurationSeconds float64        `gorm:"type:decimal(12,2);not null;default:0"`
	BilledMinutes   float64        `gorm:"type:decimal(12,2);not null;default:0"`
	WordCount       int            `gorm:"not null;default:0"`
	RawResponse     datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt       time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (TranscriptionResponse) TableName() string { return "transcription_responses" }
