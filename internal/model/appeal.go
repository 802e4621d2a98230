package model

import (
	"time"

	"gorm.io/gorm"
)

type AppealStatus string

const (
	AppealPending   AppealStatus = "PENDING"
	AppealReviewing AppealStatus = "REVIEWING"
	AppealApproved  AppealStatus = "APPROVED"
	AppealRejected  AppealStatus = "REJECTED"
	AppealClosed    AppealStatus = "CLOSED"
)

// Terminal reports whether the appeal has been resolved; resolved appeals
// cannot be resolved again.
func (s AppealStatus) Terminal() bool {
	return s == AppealApproved || s == AppealRejected || s == AppealClosed
}

// Appeal is a student-initiated request to re-examine a published grade.
type Appeal struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	SubmissionID uint           `json:"submission_id" gorm:"not null;index"`
	Submission   Submission     `json:"submission,omitempty" gorm:"foreignKey:SubmissionID"`
	StudentID    uint           `json:"student_id" gorm:"not null;index"`
	Student      User           `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	Reason       string         `json:"reason" gorm:"type:text;not null"`
	Status       AppealStatus   `json:"status" gorm:"not null;default:'PENDING';index"`
	Resolution   string         `json:"resolution,omitempty" gorm:"type:text"`
	ResolvedByID *uint          `json:"resolved_by_id,omitempty"`
	ResolvedBy   *User          `json:"resolved_by,omitempty" gorm:"foreignKey:ResolvedByID"`
	ResolvedAt   *time.Time     `json:"resolved_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}
