package repository

import (
	"time"

	"github.com/lshigami/Markhor/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NotificationRepository interface {
	Create(attempt *model.NotificationAttempt) error
	Update(attempt *model.NotificationAttempt) error
	FindByID(id uint) (*model.NotificationAttempt, error)
	FindByUser(userID uint) ([]model.NotificationAttempt, error)
	// FindDueForRetry returns FAILED rows whose retry budget is not
	// exhausted and whose next_retry_at has passed.
	FindDueForRetry(now time.Time, maxAttempts int) ([]model.NotificationAttempt, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(attempt *model.NotificationAttempt) error {
	return r.db.Omit(clause.Associations).Create(attempt).Error
}

func (r *notificationRepository) Update(attempt *model.NotificationAttempt) error {
	return r.db.Omit(clause.Associations).Save(attempt).Error
}

func (r *notificationRepository) FindByID(id uint) (*model.NotificationAttempt, error) {
	var attempt model.NotificationAttempt
	err := r.db.Preload("User").First(&attempt, id).Error
	return &attempt, err
}

func (r *notificationRepository) FindByUser(userID uint) ([]model.NotificationAttempt, error) {
	var attempts []model.NotificationAttempt
	err := r.db.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&attempts).Error
	return attempts, err
}

func (r *notificationRepository) FindDueForRetry(now time.Time, maxAttempts int) ([]model.NotificationAttempt, error) {
	var attempts []model.NotificationAttempt
	err := r.db.
		Preload("User").
		Where("status = ? AND attempt_count < ? AND next_retry_at <= ?",
			model.NotificationFailed, maxAttempts, now).
		Find(&attempts).Error
	return attempts, err
}
