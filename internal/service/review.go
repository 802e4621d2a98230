package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/lshigami/Markhor/internal/model"
	"github.com/lshigami/Markhor/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ReviewService is the teacher's pre-publication surface: overriding the
// AI score, adding comments and approving the grade.
type ReviewService interface {
	ReviewGrade(submissionID uint, reviewer *model.User, score *float64, comments string) (*model.Grade, error)
	GetGrade(submissionID uint) (*model.Grade, error)
}

type reviewService struct {
	submissionRepo repository.SubmissionRepository
	gradeRepo      repository.GradeRepository
	audit          AuditLogService
	now            func() time.Time
}

func NewReviewService(
	submissionRepo repository.SubmissionRepository,
	gradeRepo repository.GradeRepository,
	audit AuditLogService,
) ReviewService {
	return &reviewService{
		submissionRepo: submissionRepo,
		gradeRepo:      gradeRepo,
		audit:          audit,
		now:            time.Now,
	}
}

// ReviewGrade records the teacher's verdict. A nil score keeps the AI
// score as final; a non-nil score overrides it from here on.
func (s *reviewService) ReviewGrade(submissionID uint, reviewer *model.User, score *float64, comments string) (*model.Grade, error) {
	submission, err := s.submissionRepo.FindByID(submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("submission %d: %w", submissionID, ErrNotFound)
		}
		return nil, err
	}

	grade, err := s.gradeRepo.FindBySubmissionID(submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no grade for submission %d: %w", submissionID, ErrNotFound)
		}
		return nil, err
	}
	if grade.Status == model.GradePublished {
		return nil, fmt.Errorf("grade for submission %d is already published: %w", submissionID, ErrInvalidState)
	}

	now := s.now()
	if score != nil {
		grade.TeacherScore = score
	}
	if comments != "" {
		grade.TeacherComments = comments
	}
	grade.Status = model.GradeApproved
	grade.ReviewedByID = &reviewer.ID
	grade.ReviewedAt = &now
	if err := s.gradeRepo.Update(grade); err != nil {
		return nil, fmt.Errorf("failed to update grade: %w", err)
	}

	submission.Status = model.SubmissionReviewed
	if err := s.submissionRepo.Update(submission); err != nil {
		return nil, fmt.Errorf("failed to update submission status: %w", err)
	}

	details := map[string]interface{}{
		"submissionId": submissionID,
		"aiScore":      grade.AIScore,
	}
	if score != nil {
		details["teacherScore"] = *score
	}
	s.audit.Record(reviewer, "REVIEW_GRADE", "GRADE", grade.ID, details)

	log.Info().Uint("submissionID", submissionID).Uint("reviewerID", reviewer.ID).
		Float64("finalScore", grade.FinalScore()).Msg("Grade reviewed")
	return grade, nil
}

func (s *reviewService) GetGrade(submissionID uint) (*model.Grade, error) {
	grade, err := s.gradeRepo.FindBySubmissionID(submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no grade for submission %d: %w", submissionID, ErrNotFound)
		}
		return nil, err
	}
	return grade, nil
}
