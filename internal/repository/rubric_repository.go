package repository

import (
	"github.com/lshigami/Markhor/internal/model"
	"gorm.io/gorm"
)

type RubricRepository interface {
	FindByAssignment(assignmentID uint) ([]model.Rubric, error)
}

type rubricRepository struct {
	db *gorm.DB
}

func NewRubricRepository(db *gorm.DB) RubricRepository {
	return &rubricRepository{db: db}
}

func (r *rubricRepository) FindByAssignment(assignmentID uint) ([]model.Rubric, error) {
	var rubrics []model.Rubric
	err := r.db.
		Where("assignment_id = ?", assignmentID).
		Order("question_id ASC").
		Find(&rubrics).Error
	return rubrics, err
}
