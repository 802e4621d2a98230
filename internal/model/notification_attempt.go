package model

import (
	"time"

	"gorm.io/gorm"
)

type NotificationStatus string

const (
	NotificationPending   NotificationStatus = "PENDING"
	NotificationSent      NotificationStatus = "SENT"
	NotificationFailed    NotificationStatus = "FAILED"
	NotificationExhausted NotificationStatus = "EXHAUSTED"
)

// Notification types used across the workflow.
const (
	NotifyReviewNeeded   = "REVIEW_NEEDED"
	NotifyGradePublished = "GRADE_PUBLISHED"
	NotifyAppealResolved = "APPEAL_RESOLVED"
)

// NotificationAttempt is one retryable unit of outbound user messaging.
// SENT and EXHAUSTED are terminal; AttemptCount never exceeds the
// configured maximum.
type NotificationAttempt struct {
	ID               uint               `gorm:"primarykey" json:"id"`
	UserID           uint               `json:"user_id" gorm:"not null;index"`
	User             User               `json:"user,omitempty" gorm:"foreignKey:UserID"`
	NotificationType string             `json:"notification_type" gorm:"not null"`
	ReferenceID      uint               `json:"reference_id" gorm:"not null"` // submission or appeal id
	Message          string             `json:"message" gorm:"type:text;not null"`
	Status           NotificationStatus `json:"status" gorm:"not null;default:'PENDING';index"`
	AttemptCount     int                `json:"attempt_count" gorm:"not null;default:0"`
	ErrorMessage     *string            `json:"error_message,omitempty" gorm:"type:text"`
	LastAttemptAt    *time.Time         `json:"last_attempt_at,omitempty"`
	NextRetryAt      *time.Time         `json:"next_retry_at,omitempty" gorm:"index"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
	DeletedAt        gorm.DeletedAt     `gorm:"index" json:"-"`
}
