package repository

import (
	"github.com/lshigami/Markhor/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GradeRepository interface {
	Create(grade *model.Grade) error
	Update(grade *model.Grade) error
	FindBySubmissionID(submissionID uint) (*model.Grade, error)
	// FindBySubmissionIDForUpdate takes a row lock on the grade so that
	// concurrent publishes of the same submission serialize.
	FindBySubmissionIDForUpdate(submissionID uint) (*model.Grade, error)
	WithTx(tx *gorm.DB) GradeRepository
}

type gradeRepository struct {
	db *gorm.DB
}

func NewGradeRepository(db *gorm.DB) GradeRepository {
	return &gradeRepository{db: db}
}

func (r *gradeRepository) WithTx(tx *gorm.DB) GradeRepository {
	if tx == nil {
		return r
	}
	return &gradeRepository{db: tx}
}

func (r *gradeRepository) Create(grade *model.Grade) error {
	return r.db.Create(grade).Error
}

func (r *gradeRepository) Update(grade *model.Grade) error {
	return r.db.Save(grade).Error
}

func (r *gradeRepository) FindBySubmissionID(submissionID uint) (*model.Grade, error) {
	var grade model.Grade
	err := r.db.Where("submission_id = ?", submissionID).First(&grade).Error
	return &grade, err
}

func (r *gradeRepository) FindBySubmissionIDForUpdate(submissionID uint) (*model.Grade, error) {
	var grade model.Grade
	err := r.db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("submission_id = ?", submissionID).
		First(&grade).Error
	return &grade, err
}
