package service

import (
	"context"
	"fmt"
	"time"

	"github.com/lshigami/Markhor/config"
	"github.com/lshigami/Markhor/internal/model"
	"github.com/lshigami/Markhor/internal/repository"
	"github.com/rs/zerolog/log"
)

// NotificationService delivers user-facing events at-least-once with
// bounded retry. The first attempt happens synchronously inside Notify;
// failed attempts are re-driven only by the periodic sweep, so each row
// has a single writer per attempt.
type NotificationService interface {
	Notify(user *model.User, notificationType string, referenceID uint, message string) (*model.NotificationAttempt, error)
	NotifyTeacherReviewNeeded(submission *model.Submission)
	NotifyStudentGradePublished(submission *model.Submission)
	NotifyStudentAppealResolved(appealID uint, student *model.User, resolution string)
	GetNotificationsForUser(userID uint) ([]model.NotificationAttempt, error)
	RetryFailedNotifications()
	RunSweep(ctx context.Context)
}

type notificationService struct {
	notificationRepo repository.NotificationRepository
	channel          DeliveryChannel
	maxRetryAttempts int
	retryDelay       time.Duration
	sweepInterval    time.Duration
	now              func() time.Time
}

func NewNotificationService(notificationRepo repository.NotificationRepository, channel DeliveryChannel, cfg *config.Config) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		channel:          channel,
		maxRetryAttempts: cfg.Notification.MaxRetryAttempts,
		retryDelay:       time.Duration(cfg.Notification.RetryDelaySeconds) * time.Second,
		sweepInterval:    time.Duration(cfg.Notification.SweepSeconds) * time.Second,
		now:              time.Now,
	}
}

func (s *notificationService) NotifyTeacherReviewNeeded(submission *model.Submission) {
	teacher := submission.Assignment.Teacher
	message := fmt.Sprintf(
		"Submission #%d requires your review (low AI confidence). Student: %s, Assignment: %s",
		submission.ID, submission.Student.FullName, submission.Assignment.Title,
	)
	if _, err := s.Notify(&teacher, model.NotifyReviewNeeded, submission.ID, message); err != nil {
		log.Error().Err(err).Uint("submissionID", submission.ID).Msg("Failed to create review notification")
	}
}

func (s *notificationService) NotifyStudentGradePublished(submission *model.Submission) {
	message := fmt.Sprintf(
		"Your grade for '%s' has been published. Log in to view your feedback.",
		submission.Assignment.Title,
	)
	if _, err := s.Notify(&submission.Student, model.NotifyGradePublished, submission.ID, message); err != nil {
		log.Error().Err(err).Uint("submissionID", submission.ID).Msg("Failed to create publish notification")
	}
}

func (s *notificationService) NotifyStudentAppealResolved(appealID uint, student *model.User, resolution string) {
	message := fmt.Sprintf("Your appeal has been resolved: %s", resolution)
	if _, err := s.Notify(student, model.NotifyAppealResolved, appealID, message); err != nil {
		log.Error().Err(err).Uint("appealID", appealID).Msg("Failed to create appeal notification")
	}
}

// Notify creates the attempt row and makes the first delivery attempt in
// the same call. Delivery failure is not returned: it is recorded on the
// row and retried by the sweep.
func (s *notificationService) Notify(user *model.User, notificationType string, referenceID uint, message string) (*model.NotificationAttempt, error) {
	now := s.now()
	attempt := model.NotificationAttempt{
		UserID:           user.ID,
		NotificationType: notificationType,
		ReferenceID:      referenceID,
		Message:          message,
		Status:           model.NotificationPending,
		AttemptCount:     0,
		NextRetryAt:      &now,
	}

	if err := s.notificationRepo.Create(&attempt); err != nil {
		return nil, fmt.Errorf("failed to create notification attempt: %w", err)
	}

	// The recipient address comes from memory for the first attempt;
	// retries reload it via Preload("User").
	attempt.User = *user

	log.Info().Str("type", notificationType).Uint("userID", user.ID).Msg("Notification created")

	s.send(&attempt)
	return &attempt, nil
}

// send performs one delivery attempt and persists the outcome. The
// caller must own the row; nothing else may mutate it concurrently.
func (s *notificationService) send(attempt *model.NotificationAttempt) {
	attempt.AttemptCount++
	now := s.now()
	attempt.LastAttemptAt = &now

	subject := fmt.Sprintf("[Markhor] %s", attempt.NotificationType)
	err := s.channel.Send(attempt.User.FullName, attempt.User.Email, subject, attempt.Message)
	if err != nil {
		msg := err.Error()
		attempt.ErrorMessage = &msg
		s.handleSendFailure(attempt)
	} else {
		attempt.Status = model.NotificationSent
		attempt.NextRetryAt = nil
		log.Info().Uint("notificationID", attempt.ID).Int("attempt", attempt.AttemptCount).
			Msg("Notification sent")
	}

	if err := s.notificationRepo.Update(attempt); err != nil {
		log.Error().Err(err).Uint("notificationID", attempt.ID).Msg("Failed to persist notification attempt")
	}
}

func (s *notificationService) handleSendFailure(attempt *model.NotificationAttempt) {
	if attempt.AttemptCount < s.maxRetryAttempts {
		attempt.Status = model.NotificationFailed
		// Linear backoff keyed to the attempt number.
		next := s.now().Add(s.retryDelay * time.Duration(attempt.AttemptCount))
		attempt.NextRetryAt = &next
		log.Warn().Uint("notificationID", attempt.ID).
			Int("attempt", attempt.AttemptCount).Int("max", s.maxRetryAttempts).
			Time("nextRetryAt", next).Msg("Notification delivery failed, will retry")
	} else {
		attempt.Status = model.NotificationExhausted
		attempt.NextRetryAt = nil
		log.Error().Uint("notificationID", attempt.ID).Int("attempts", attempt.AttemptCount).
			Msg("Notification retries exhausted")
	}
}

func (s *notificationService) GetNotificationsForUser(userID uint) ([]model.NotificationAttempt, error) {
	return s.notificationRepo.FindByUser(userID)
}

// RetryFailedNotifications re-attempts every FAILED row whose retry time
// has passed. Called from the sweep loop.
func (s *notificationService) RetryFailedNotifications() {
	due, err := s.notificationRepo.FindDueForRetry(s.now(), s.maxRetryAttempts)
	if err != nil {
		log.Error().Err(err).Msg("Failed to query notifications due for retry")
		return
	}
	if len(due) == 0 {
		return
	}

	log.Info().Int("count", len(due)).Msg("Retrying failed notifications")
	for i := range due {
		s.send(&due[i])
	}
}

// RunSweep drives the retry loop until the context is cancelled. Started
// once per process from the application lifecycle.
func (s *notificationService) RunSweep(ctx context.Context) {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	log.Info().Dur("interval", s.sweepInterval).Msg("Notification retry sweep started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Notification retry sweep stopped")
			return
		case <-ticker.C:
			s.RetryFailedNotifications()
		}
	}
}
