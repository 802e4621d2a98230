package repository

import (
	"github.com/lshigami/Markhor/internal/model"
	"gorm.io/gorm"
)

type AppealRepository interface {
	Create(appeal *model.Appeal) error
	Update(appeal *model.Appeal) error
	FindByID(id uint) (*model.Appeal, error)
	FindBySubmission(submissionID uint) ([]model.Appeal, error)
	FindByStatus(status model.AppealStatus) ([]model.Appeal, error)
	// HasUnresolvedForSubmission reports whether a PENDING or REVIEWING
	// appeal already exists for the submission.
	HasUnresolvedForSubmission(submissionID uint) (bool, error)
	WithTx(tx *gorm.DB) AppealRepository
}

type appealRepository struct {
	db *gorm.DB
}

func NewAppealRepository(db *gorm.DB) AppealRepository {
	return &appealRepository{db: db}
}

func (r *appealRepository) WithTx(tx *gorm.DB) AppealRepository {
	if tx == nil {
		return r
	}
	return &appealRepository{db: tx}
}

func (r *appealRepository) Create(appeal *model.Appeal) error {
	return r.db.Create(appeal).Error
}

func (r *appealRepository) Update(appeal *model.Appeal) error {
	return r.db.Save(appeal).Error
}

func (r *appealRepository) FindByID(id uint) (*model.Appeal, error) {
	var appeal model.Appeal
	err := r.db.
		Preload("Student").
		Preload("Submission").
		Preload("Submission.Assignment").
		First(&appeal, id).Error
	return &appeal, err
}

func (r *appealRepository) FindBySubmission(submissionID uint) ([]model.Appeal, error) {
	var appeals []model.Appeal
	err := r.db.
		Where("submission_id = ?", submissionID).
		Order("created_at DESC").
		Find(&appeals).Error
	return appeals, err
}

func (r *appealRepository) FindByStatus(status model.AppealStatus) ([]model.Appeal, error) {
	var appeals []model.Appeal
	err := r.db.
		Preload("Student").
		Preload("Submission").
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&appeals).Error
	return appeals, err
}

func (r *appealRepository) HasUnresolvedForSubmission(submissionID uint) (bool, error) {
	var count int64
	err := r.db.Model(&model.Appeal{}).
		Where("submission_id = ? AND status IN ?", submissionID,
			[]model.AppealStatus{model.AppealPending, model.AppealReviewing}).
		Count(&count).Error
	return count > 0, err
}
