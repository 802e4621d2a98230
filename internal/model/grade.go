package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type GradeStatus string

const (
	GradeHighConfidence GradeStatus = "HIGH_CONFIDENCE"
	GradeNeedsReview    GradeStatus = "NEEDS_REVIEW"
	GradeApproved       GradeStatus = "APPROVED"
	GradePublished      GradeStatus = "PUBLISHED"
	GradeAppealed       GradeStatus = "APPEALED"
)

// Grade is the scoring record attached 1:1 to a submission, mutable until
// published. TeacherScore, once set, wins over AIScore everywhere a final
// score is computed.
type Grade struct {
	ID              uint           `gorm:"primarykey" json:"id"`
	SubmissionID    uint           `json:"submission_id" gorm:"not null;uniqueIndex"`
	Submission      Submission     `json:"submission,omitempty" gorm:"foreignKey:SubmissionID"`
	AIScore         float64        `json:"ai_score"`
	AIConfidence    float64        `json:"ai_confidence"` // 0.00-1.00
	TeacherScore    *float64       `json:"teacher_score,omitempty"`
	AIFeedback      datatypes.JSON `json:"ai_feedback,omitempty"`
	TeacherComments string         `json:"teacher_comments,omitempty" gorm:"type:text"`
	Status          GradeStatus    `json:"status" gorm:"not null;index"`
	ReviewedByID    *uint          `json:"reviewed_by_id,omitempty"`
	ReviewedBy      *User          `json:"reviewed_by,omitempty" gorm:"foreignKey:ReviewedByID"`
	ReviewedAt      *time.Time     `json:"reviewed_at,omitempty"`
	PublishedAt     *time.Time     `json:"published_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// FinalScore is the score a publish operation snapshots: the teacher's
// score when present, the AI score otherwise.
func (g *Grade) FinalScore() float64 {
	if g.TeacherScore != nil {
		return *g.TeacherScore
	}
	return g.AIScore
}
