package repository

import (
	"github.com/lshigami/Markhor/internal/model"
	"gorm.io/gorm"
)

type AssignmentRepository interface {
	FindByID(id uint) (*model.Assignment, error)
	FindByIDWithTeacher(id uint) (*model.Assignment, error)
}

type assignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) FindByID(id uint) (*model.Assignment, error) {
	var assignment model.Assignment
	err := r.db.First(&assignment, id).Error
	return &assignment, err
}

func (r *assignmentRepository) FindByIDWithTeacher(id uint) (*model.Assignment, error) {
	var assignment model.Assignment
	err := r.db.Preload("Teacher").First(&assignment, id).Error
	return &assignment, err
}
