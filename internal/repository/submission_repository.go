package repository

import (
	"github.com/lshigami/Markhor/internal/model"
	"gorm.io/gorm"
)

type SubmissionRepository interface {
	Create(submission *model.Submission) error
	Update(submission *model.Submission) error
	FindByID(id uint) (*model.Submission, error)
	FindByIDWithRelations(id uint) (*model.Submission, error)
	FindByAssignment(assignmentID uint) ([]model.Submission, error)
	FindByStudent(studentID uint) ([]model.Submission, error)
	WithTx(tx *gorm.DB) SubmissionRepository
}

type submissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) WithTx(tx *gorm.DB) SubmissionRepository {
	if tx == nil {
		return r
	}
	return &submissionRepository{db: tx}
}

func (r *submissionRepository) Create(submission *model.Submission) error {
	return r.db.Create(submission).Error
}

func (r *submissionRepository) Update(submission *model.Submission) error {
	return r.db.Save(submission).Error
}

func (r *submissionRepository) FindByID(id uint) (*model.Submission, error) {
	var submission model.Submission
	err := r.db.First(&submission, id).Error
	return &submission, err
}

func (r *submissionRepository) FindByIDWithRelations(id uint) (*model.Submission, error) {
	var submission model.Submission
	err := r.db.
		Preload("Student").
		Preload("Assignment").
		Preload("Assignment.Teacher").
		Preload("Assignment.Rubrics").
		First(&submission, id).Error
	return &submission, err
}

func (r *submissionRepository) FindByAssignment(assignmentID uint) ([]model.Submission, error) {
	var submissions []model.Submission
	err := r.db.
		Preload("Student").
		Where("assignment_id = ?", assignmentID).
		Order("created_at DESC").
		Find(&submissions).Error
	return submissions, err
}

func (r *submissionRepository) FindByStudent(studentID uint) ([]model.Submission, error) {
	var submissions []model.Submission
	err := r.db.
		Preload("Assignment").
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&submissions).Error
	return submissions, err
}
