package dto

import (
	"encoding/json"
	"time"
)

type UserResponse struct {
	ID       uint   `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type SubmissionResponse struct {
	ID               uint          `json:"id"`
	StudentID        uint          `json:"student_id"`
	Student          *UserResponse `json:"student,omitempty"`
	AssignmentID     uint          `json:"assignment_id"`
	OriginalFileName string        `json:"original_file_name,omitempty"`
	FileType         string        `json:"file_type,omitempty"`
	Status           string        `json:"status"`
	ProcessingError  *string       `json:"processing_error,omitempty"`
	RedactionCount   int           `json:"redaction_count,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

type GradeResponse struct {
	ID              uint            `json:"id"`
	SubmissionID    uint            `json:"submission_id"`
	AIScore         float64         `json:"ai_score"`
	AIConfidence    float64         `json:"ai_confidence"`
	TeacherScore    *float64        `json:"teacher_score,omitempty"`
	AIFeedback      json.RawMessage `json:"ai_feedback,omitempty"`
	TeacherComments string          `json:"teacher_comments,omitempty"`
	Status          string          `json:"status"`
	ReviewedAt      *time.Time      `json:"reviewed_at,omitempty"`
	PublishedAt     *time.Time      `json:"published_at,omitempty"`
}

type SnapshotResponse struct {
	ID                uint            `json:"id"`
	SubmissionID      uint            `json:"submission_id"`
	FinalScore        float64         `json:"final_score"`
	Feedback          string          `json:"feedback,omitempty"`
	DetailedBreakdown json.RawMessage `json:"detailed_breakdown,omitempty"`
	VersionNumber     int             `json:"version_number"`
	PublishNotes      string          `json:"publish_notes,omitempty"`
	SnapshotAt        time.Time       `json:"snapshot_at"`
}

type AppealResponse struct {
	ID           uint       `json:"id"`
	SubmissionID uint       `json:"submission_id"`
	StudentID    uint       `json:"student_id"`
	Reason       string     `json:"reason"`
	Status       string     `json:"status"`
	Resolution   string     `json:"resolution,omitempty"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type NotificationResponse struct {
	ID               uint       `json:"id"`
	NotificationType string     `json:"notification_type"`
	ReferenceID      uint       `json:"reference_id"`
	Message          string     `json:"message"`
	Status           string     `json:"status"`
	AttemptCount     int        `json:"attempt_count"`
	LastAttemptAt    *time.Time `json:"last_attempt_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
