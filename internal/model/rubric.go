package model

import (
	"time"

	"gorm.io/gorm"
)

// Rubric is one grading criterion for an assignment. Assignments without
// rubrics are scored against a built-in default rubric.
type Rubric struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	AssignmentID uint           `json:"assignment_id" gorm:"not null;index"`
	QuestionID   string         `json:"question_id" gorm:"not null"` // e.g. "Q1"
	Weight       float64        `json:"weight" gorm:"not null"`
	Criteria     string         `json:"criteria" gorm:"type:text;not null"`
	KeyPoints    string         `json:"key_points,omitempty" gorm:"type:text"`
	SampleAnswer string         `json:"sample_answer,omitempty" gorm:"type:text"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}
