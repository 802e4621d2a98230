package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lshigami/Markhor/internal/model"
	"github.com/lshigami/Markhor/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AppealService handles student objections to published grades. An
// appeal approved with a new score republishes the grade as a new
// snapshot version; any other resolution leaves the published snapshot
// untouched.
type AppealService interface {
	CreateAppeal(submissionID uint, student *model.User, reason string) (*model.Appeal, error)
	ResolveAppeal(appealID uint, resolver *model.User, status model.AppealStatus, newScore *float64, resolution string) (*model.Appeal, error)
	GetPendingAppeals() ([]model.Appeal, error)
	GetAppealsBySubmission(submissionID uint) ([]model.Appeal, error)
}

type appealService struct {
	db             repository.TxManager
	appealRepo     repository.AppealRepository
	submissionRepo repository.SubmissionRepository
	gradeRepo      repository.GradeRepository
	publish        PublishService
	notification   NotificationService
	audit          AuditLogService
	now            func() time.Time
}

func NewAppealService(
	db repository.TxManager,
	appealRepo repository.AppealRepository,
	submissionRepo repository.SubmissionRepository,
	gradeRepo repository.GradeRepository,
	publish PublishService,
	notification NotificationService,
	audit AuditLogService,
) AppealService {
	return &appealService{
		db:             db,
		appealRepo:     appealRepo,
		submissionRepo: submissionRepo,
		gradeRepo:      gradeRepo,
		publish:        publish,
		notification:   notification,
		audit:          audit,
		now:            time.Now,
	}
}

// CreateAppeal opens an appeal against a published grade. Only the
// submission's owner may appeal, and only one appeal may be open per
// submission at a time. The appeal insert and the grade flip to
// APPEALED commit together.
func (s *appealService) CreateAppeal(submissionID uint, student *model.User, reason string) (*model.Appeal, error) {
	submission, err := s.submissionRepo.FindByID(submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("submission %d: %w", submissionID, ErrNotFound)
		}
		return nil, err
	}
	if submission.StudentID != student.ID {
		return nil, fmt.Errorf("submission %d does not belong to student %d: %w", submissionID, student.ID, ErrUnauthorized)
	}
	if submission.Status != model.SubmissionPublished {
		return nil, fmt.Errorf("submission %d is not published: %w", submissionID, ErrInvalidState)
	}

	open, err := s.appealRepo.HasUnresolvedForSubmission(submissionID)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, fmt.Errorf("submission %d already has an open appeal: %w", submissionID, ErrInvalidState)
	}

	appeal := model.Appeal{
		SubmissionID: submissionID,
		StudentID:    student.ID,
		Reason:       reason,
		Status:       model.AppealPending,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		appealRepo := s.appealRepo.WithTx(tx)
		gradeRepo := s.gradeRepo.WithTx(tx)

		if err := appealRepo.Create(&appeal); err != nil {
			return fmt.Errorf("failed to create appeal: %w", err)
		}

		// The grade leaves PUBLISHED while the objection is examined.
		grade, err := gradeRepo.FindBySubmissionID(submissionID)
		if err != nil {
			return fmt.Errorf("no grade for submission %d: %w", submissionID, err)
		}
		grade.Status = model.GradeAppealed
		if err := gradeRepo.Update(grade); err != nil {
			return fmt.Errorf("failed to mark grade as appealed: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if loaded, err := s.submissionRepo.FindByIDWithRelations(submissionID); err != nil {
		log.Error().Err(err).Uint("submissionID", submissionID).
			Msg("Failed to reload submission for appeal notification")
	} else {
		s.notification.NotifyTeacherReviewNeeded(loaded)
	}

	s.audit.Record(student, "CREATE_APPEAL", "APPEAL", appeal.ID, map[string]interface{}{
		"submissionId": submissionID,
		"reason":       reason,
	})

	log.Info().Uint("appealID", appeal.ID).Uint("submissionID", submissionID).Msg("Appeal created")
	return &appeal, nil
}

// ResolveAppeal closes an open appeal. APPROVED with a new score
// overrides the teacher score and republishes as the next snapshot
// version; APPROVED without one and REJECTED restore the published
// state without a new snapshot. The appeal update and the grade update
// commit together; republication runs after the commit in its own
// transaction, so a failed republish leaves the grade APPROVED and
// retriable through the normal publish flow.
func (s *appealService) ResolveAppeal(appealID uint, resolver *model.User, status model.AppealStatus, newScore *float64, resolution string) (*model.Appeal, error) {
	appeal, err := s.appealRepo.FindByID(appealID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("appeal %d: %w", appealID, ErrNotFound)
		}
		return nil, err
	}
	if appeal.Status.Terminal() {
		return nil, fmt.Errorf("appeal %d is already resolved: %w", appealID, ErrInvalidState)
	}
	if !status.Terminal() {
		return nil, fmt.Errorf("status %s does not resolve an appeal: %w", status, ErrInvalidState)
	}

	now := s.now()
	appeal.Status = status
	appeal.Resolution = resolution
	appeal.ResolvedByID = &resolver.ID
	appeal.ResolvedAt = &now

	republish := false
	err = s.db.Transaction(func(tx *gorm.DB) error {
		appealRepo := s.appealRepo.WithTx(tx)
		gradeRepo := s.gradeRepo.WithTx(tx)

		if err := appealRepo.Update(appeal); err != nil {
			return fmt.Errorf("failed to update appeal: %w", err)
		}

		switch status {
		case model.AppealApproved:
			republish, err = applyApproval(gradeRepo, appeal, newScore, resolution)
			return err
		case model.AppealRejected:
			return applyRejection(gradeRepo, appeal, resolution)
		default:
			// CLOSED records the resolution without touching the grade.
			return nil
		}
	})
	if err != nil {
		return nil, err
	}

	if republish {
		notes := fmt.Sprintf("Republished after appeal (Appeal #%d)", appeal.ID)
		if _, err := s.publish.PublishGrade(appeal.SubmissionID, resolver, notes); err != nil {
			return nil, fmt.Errorf("failed to republish grade after appeal: %w", err)
		}
	}

	s.notification.NotifyStudentAppealResolved(appeal.ID, &appeal.Student, resolution)

	s.audit.Record(resolver, "RESOLVE_APPEAL", "APPEAL", appeal.ID, map[string]interface{}{
		"submissionId": appeal.SubmissionID,
		"status":       status,
		"resolution":   resolution,
	})

	log.Info().Uint("appealID", appeal.ID).Str("status", string(status)).Msg("Appeal resolved")
	return appeal, nil
}

// applyApproval adjusts the grade when the appeal carries a new score
// and reports whether a republication is due. Approval without a score
// records the resolution and restores the published state as-is.
func applyApproval(gradeRepo repository.GradeRepository, appeal *model.Appeal, newScore *float64, resolution string) (bool, error) {
	grade, err := gradeRepo.FindBySubmissionID(appeal.SubmissionID)
	if err != nil {
		return false, fmt.Errorf("no grade for submission %d: %w", appeal.SubmissionID, err)
	}

	if newScore == nil {
		grade.Status = model.GradePublished
		if err := gradeRepo.Update(grade); err != nil {
			return false, fmt.Errorf("failed to restore grade after appeal: %w", err)
		}
		return false, nil
	}

	grade.TeacherScore = newScore
	grade.TeacherComments = appendComment(grade.TeacherComments,
		fmt.Sprintf("[Adjusted after appeal] %s", resolution))
	grade.Status = model.GradeApproved
	if err := gradeRepo.Update(grade); err != nil {
		return false, fmt.Errorf("failed to apply appeal adjustment: %w", err)
	}
	return true, nil
}

func applyRejection(gradeRepo repository.GradeRepository, appeal *model.Appeal, resolution string) error {
	grade, err := gradeRepo.FindBySubmissionID(appeal.SubmissionID)
	if err != nil {
		return fmt.Errorf("no grade for submission %d: %w", appeal.SubmissionID, err)
	}

	// The published snapshot stands; only the audit trail on the grade
	// records the rejection.
	grade.TeacherComments = appendComment(grade.TeacherComments,
		fmt.Sprintf("[Appeal rejected] %s", resolution))
	grade.Status = model.GradePublished
	if err := gradeRepo.Update(grade); err != nil {
		return fmt.Errorf("failed to restore grade after rejected appeal: %w", err)
	}
	return nil
}

func appendComment(existing, addition string) string {
	if strings.TrimSpace(existing) == "" {
		return addition
	}
	return existing + "\n" + addition
}

func (s *appealService) GetPendingAppeals() ([]model.Appeal, error) {
	return s.appealRepo.FindByStatus(model.AppealPending)
}

func (s *appealService) GetAppealsBySubmission(submissionID uint) ([]model.Appeal, error) {
	return s.appealRepo.FindBySubmission(submissionID)
}
