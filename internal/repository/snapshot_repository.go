package repository

import (
	"github.com/lshigami/Markhor/internal/model"
	"gorm.io/gorm"
)

type SnapshotRepository interface {
	Create(snapshot *model.GradeSnapshot) error
	// MaxVersionForSubmission returns 0 when no snapshot exists yet.
	MaxVersionForSubmission(submissionID uint) (int, error)
	FindBySubmissionOrdered(submissionID uint) ([]model.GradeSnapshot, error)
	FindLatestBySubmission(submissionID uint) (*model.GradeSnapshot, error)
	WithTx(tx *gorm.DB) SnapshotRepository
}

type snapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) SnapshotRepository {
	return &snapshotRepository{db: db}
}

func (r *snapshotRepository) WithTx(tx *gorm.DB) SnapshotRepository {
	if tx == nil {
		return r
	}
	return &snapshotRepository{db: tx}
}

func (r *snapshotRepository) Create(snapshot *model.GradeSnapshot) error {
	return r.db.Create(snapshot).Error
}

func (r *snapshotRepository) MaxVersionForSubmission(submissionID uint) (int, error) {
	var max int
	err := r.db.Model(&model.GradeSnapshot{}).
		Where("submission_id = ?", submissionID).
		Select("COALESCE(MAX(version_number), 0)").
		Scan(&max).Error
	return max, err
}

func (r *snapshotRepository) FindBySubmissionOrdered(submissionID uint) ([]model.GradeSnapshot, error) {
	var snapshots []model.GradeSnapshot
	err := r.db.
		Preload("PublishedBy").
		Where("submission_id = ?", submissionID).
		Order("version_number DESC").
		Find(&snapshots).Error
	return snapshots, err
}

func (r *snapshotRepository) FindLatestBySubmission(submissionID uint) (*model.GradeSnapshot, error) {
	var snapshot model.GradeSnapshot
	err := r.db.
		Where("submission_id = ?", submissionID).
		Order("version_number DESC").
		First(&snapshot).Error
	return &snapshot, err
}
