package model

import (
	"time"

	"gorm.io/gorm"
)

type Assignment struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	Title       string         `json:"title" gorm:"not null"`
	Description string         `json:"description,omitempty" gorm:"type:text"`
	TotalMarks  float64        `json:"total_marks" gorm:"not null;default:100"`
	TeacherID   uint           `json:"teacher_id" gorm:"not null;index"`
	Teacher     User           `json:"teacher,omitempty" gorm:"foreignKey:TeacherID"`
	Rubrics     []Rubric       `json:"rubrics,omitempty" gorm:"foreignKey:AssignmentID"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
