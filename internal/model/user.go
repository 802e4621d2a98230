package model

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleStudent UserRole = "STUDENT"
	RoleTeacher UserRole = "TEACHER"
	RoleAdmin   UserRole = "ADMIN"
)

type User struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	FullName      string         `json:"full_name" gorm:"not null"`
	StudentNumber string         `json:"student_number,omitempty" gorm:"index"`
	Email         string         `json:"email" gorm:"not null;uniqueIndex"`
	Role          UserRole       `json:"role" gorm:"not null;default:'STUDENT'"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}
