package model

import (
	"time"

	"gorm.io/gorm"
)

type SubmissionStatus string

const (
	SubmissionUploaded      SubmissionStatus = "UPLOADED"
	SubmissionOCRProcessing SubmissionStatus = "OCR_PROCESSING"
	SubmissionAnonymizing   SubmissionStatus = "ANONYMIZING"
	SubmissionScoring       SubmissionStatus = "SCORING"
	SubmissionScored        SubmissionStatus = "SCORED"
	SubmissionNeedsReview   SubmissionStatus = "NEEDS_REVIEW"
	SubmissionReviewed      SubmissionStatus = "REVIEWED"
	SubmissionPublished     SubmissionStatus = "PUBLISHED"
	SubmissionFailed        SubmissionStatus = "FAILED" // terminal, absorbing
)

// Submission is one student's uploaded artifact for one assignment.
// Status only moves forward through the pipeline; FAILED is terminal.
type Submission struct {
	ID               uint             `gorm:"primarykey" json:"id"`
	StudentID        uint             `json:"student_id" gorm:"not null;index"`
	Student          User             `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	AssignmentID     uint             `json:"assignment_id" gorm:"not null;index"`
	Assignment       Assignment       `json:"assignment,omitempty" gorm:"foreignKey:AssignmentID"`
	OriginalDocURL   string           `json:"original_doc_url,omitempty" gorm:"size:500"`
	AnonymizedDocURL string           `json:"anonymized_doc_url,omitempty" gorm:"size:500"`
	OriginalFileName string           `json:"original_file_name,omitempty"`
	FileType         string           `json:"file_type,omitempty"` // pdf, docx, jpg, png, ...
	ExtractedText    string           `json:"extracted_text,omitempty" gorm:"type:text"`
	AnonymizedText   string           `json:"anonymized_text,omitempty" gorm:"type:text"`
	Status           SubmissionStatus `json:"status" gorm:"not null;default:'UPLOADED';index"`
	ProcessingError  *string          `json:"processing_error,omitempty" gorm:"type:text"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	DeletedAt        gorm.DeletedAt   `gorm:"index" json:"-"`
}

// IsImage reports whether the uploaded document is an image file.
func (s *Submission) IsImage() bool {
	switch s.FileType {
	case "jpg", "jpeg", "png", "bmp", "gif":
		return true
	}
	return false
}
