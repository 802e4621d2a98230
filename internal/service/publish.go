package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lshigami/Markhor/internal/model"
	"github.com/lshigami/Markhor/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PublishService turns the mutable grade into an immutable versioned
// snapshot visible to the student. Publishing the same submission twice
// yields two snapshots with consecutive version numbers; concurrent
// publishes serialize on a row lock so versions never collide.
type PublishService interface {
	PublishGrade(submissionID uint, publisher *model.User, notes string) (*model.GradeSnapshot, error)
	GetSnapshots(submissionID uint) ([]model.GradeSnapshot, error)
	GetLatestSnapshot(submissionID uint) (*model.GradeSnapshot, error)
}

type publishService struct {
	db             repository.TxManager
	submissionRepo repository.SubmissionRepository
	gradeRepo      repository.GradeRepository
	snapshotRepo   repository.SnapshotRepository
	notification   NotificationService
	audit          AuditLogService
	now            func() time.Time
}

func NewPublishService(
	db repository.TxManager,
	submissionRepo repository.SubmissionRepository,
	gradeRepo repository.GradeRepository,
	snapshotRepo repository.SnapshotRepository,
	notification NotificationService,
	audit AuditLogService,
) PublishService {
	return &publishService{
		db:             db,
		submissionRepo: submissionRepo,
		gradeRepo:      gradeRepo,
		snapshotRepo:   snapshotRepo,
		notification:   notification,
		audit:          audit,
		now:            time.Now,
	}
}

// PublishGrade snapshots the current grade state in one transaction:
// snapshot insert, grade status flip and submission status flip commit
// or roll back together. The student notification goes out only after
// the commit.
func (s *publishService) PublishGrade(submissionID uint, publisher *model.User, notes string) (*model.GradeSnapshot, error) {
	var snapshot *model.GradeSnapshot

	err := s.db.Transaction(func(tx *gorm.DB) error {
		submissionRepo := s.submissionRepo.WithTx(tx)
		gradeRepo := s.gradeRepo.WithTx(tx)
		snapshotRepo := s.snapshotRepo.WithTx(tx)

		submission, err := submissionRepo.FindByID(submissionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("submission %d: %w", submissionID, ErrNotFound)
			}
			return err
		}

		// The lock serializes concurrent publishes of the same submission;
		// the second one reads the version the first one created.
		grade, err := gradeRepo.FindBySubmissionIDForUpdate(submissionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("no grade for submission %d: %w", submissionID, ErrNotFound)
			}
			return err
		}

		maxVersion, err := snapshotRepo.MaxVersionForSubmission(submissionID)
		if err != nil {
			return fmt.Errorf("failed to determine snapshot version: %w", err)
		}

		breakdown, err := buildBreakdown(grade)
		if err != nil {
			return err
		}

		snapshot = &model.GradeSnapshot{
			SubmissionID:      submissionID,
			FinalScore:        grade.FinalScore(),
			Feedback:          buildCombinedFeedback(grade),
			DetailedBreakdown: breakdown,
			PublishedByID:     publisher.ID,
			VersionNumber:     maxVersion + 1,
			PublishNotes:      notes,
		}
		if err := snapshotRepo.Create(snapshot); err != nil {
			return fmt.Errorf("failed to create grade snapshot: %w", err)
		}

		now := s.now()
		grade.Status = model.GradePublished
		grade.PublishedAt = &now
		if err := gradeRepo.Update(grade); err != nil {
			return fmt.Errorf("failed to update grade status: %w", err)
		}

		submission.Status = model.SubmissionPublished
		if err := submissionRepo.Update(submission); err != nil {
			return fmt.Errorf("failed to update submission status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Uint("submissionID", submissionID).Int("version", snapshot.VersionNumber).
		Float64("finalScore", snapshot.FinalScore).Msg("Grade published")

	// Post-commit side effects. The reload brings in Student and
	// Assignment for the notification text.
	if loaded, err := s.submissionRepo.FindByIDWithRelations(submissionID); err != nil {
		log.Error().Err(err).Uint("submissionID", submissionID).
			Msg("Failed to reload submission for publish notification")
	} else {
		s.notification.NotifyStudentGradePublished(loaded)
	}

	s.audit.Record(publisher, "PUBLISH_GRADE", "GRADE_SNAPSHOT", snapshot.ID, map[string]interface{}{
		"submissionId": submissionID,
		"version":      snapshot.VersionNumber,
		"finalScore":   snapshot.FinalScore,
	})

	return snapshot, nil
}

func (s *publishService) GetSnapshots(submissionID uint) ([]model.GradeSnapshot, error) {
	return s.snapshotRepo.FindBySubmissionOrdered(submissionID)
}

func (s *publishService) GetLatestSnapshot(submissionID uint) (*model.GradeSnapshot, error) {
	snapshot, err := s.snapshotRepo.FindLatestBySubmission(submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no published grade for submission %d: %w", submissionID, ErrNotFound)
		}
		return nil, err
	}
	return snapshot, nil
}

// buildCombinedFeedback renders the AI feedback and the teacher's
// comments into the single text block the student sees.
func buildCombinedFeedback(grade *model.Grade) string {
	var b strings.Builder

	if len(grade.AIFeedback) > 0 {
		b.WriteString("=== AI Scoring Feedback ===\n")
		var fb Feedback
		if err := json.Unmarshal(grade.AIFeedback, &fb); err != nil {
			b.Write(grade.AIFeedback)
			b.WriteString("\n")
		} else {
			if len(fb.Strengths) > 0 {
				b.WriteString("Strengths:\n")
				for _, item := range fb.Strengths {
					fmt.Fprintf(&b, "  - %s\n", item)
				}
			}
			if len(fb.Weaknesses) > 0 {
				b.WriteString("Weaknesses:\n")
				for _, item := range fb.Weaknesses {
					fmt.Fprintf(&b, "  - %s\n", item)
				}
			}
			if len(fb.Suggestions) > 0 {
				b.WriteString("Suggestions:\n")
				for _, sg := range fb.Suggestions {
					fmt.Fprintf(&b, "  - %s: %s\n", sg.Issue, sg.Suggestion)
				}
			}
			if fb.Error != "" {
				fmt.Fprintf(&b, "Note: %s\n", fb.Error)
			}
		}
	}

	if grade.TeacherComments != "" {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("=== Teacher Comments ===\n")
		b.WriteString(grade.TeacherComments)
		b.WriteString("\n")
	}

	return b.String()
}

// buildBreakdown captures the numeric grade state at publish time.
func buildBreakdown(grade *model.Grade) (datatypes.JSON, error) {
	breakdown := map[string]interface{}{
		"aiScore":      grade.AIScore,
		"aiConfidence": grade.AIConfidence,
	}
	if grade.TeacherScore != nil {
		breakdown["teacherScore"] = *grade.TeacherScore
	}
	if grade.TeacherComments != "" {
		breakdown["teacherComments"] = grade.TeacherComments
	}
	if len(grade.AIFeedback) > 0 {
		breakdown["aiFeedback"] = json.RawMessage(grade.AIFeedback)
	}

	data, err := json.Marshal(breakdown)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize grade breakdown: %w", err)
	}
	return data, nil
}
