package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/lshigami/Markhor/internal/model"
	"github.com/lshigami/Markhor/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// SubmissionEnqueuer hands a committed submission id to the processing
// queue. The row must be durable before the id is enqueued so a worker
// never dequeues a submission it cannot read.
type SubmissionEnqueuer interface {
	EnqueueSubmission(ctx context.Context, submissionID uint) error
}

// SubmissionPipelineService owns the per-submission state machine:
// UPLOADED → OCR_PROCESSING → ANONYMIZING → SCORING → SCORED, or
// NEEDS_REVIEW when the confidence gate holds the grade for a teacher.
// FAILED is the terminal error state. Process must not be invoked twice
// concurrently for one submission id; the queue consumer guarantees
// one in-flight run per dequeued id.
type SubmissionPipelineService interface {
	CreateSubmission(ctx context.Context, studentID, assignmentID uint, fileName string, data []byte) (*model.Submission, error)
	Process(ctx context.Context, submissionID uint) error
	GetSubmission(id uint) (*model.Submission, error)
	GetSubmissionsByAssignment(assignmentID uint) ([]model.Submission, error)
	GetSubmissionsByStudent(studentID uint) ([]model.Submission, error)
}

type submissionPipelineService struct {
	submissionRepo repository.SubmissionRepository
	userRepo       repository.UserRepository
	assignmentRepo repository.AssignmentRepository
	storage        ObjectStorageService
	extraction     ExtractionProvider
	anonymizer     AnonymizationService
	scoring        ScoringService
	audit          AuditLogService
	enqueuer       SubmissionEnqueuer
}

func NewSubmissionPipelineService(
	submissionRepo repository.SubmissionRepository,
	userRepo repository.UserRepository,
	assignmentRepo repository.AssignmentRepository,
	storage ObjectStorageService,
	extraction ExtractionProvider,
	anonymizer AnonymizationService,
	scoring ScoringService,
	audit AuditLogService,
	enqueuer SubmissionEnqueuer,
) SubmissionPipelineService {
	return &submissionPipelineService{
		submissionRepo: submissionRepo,
		userRepo:       userRepo,
		assignmentRepo: assignmentRepo,
		storage:        storage,
		extraction:     extraction,
		anonymizer:     anonymizer,
		scoring:        scoring,
		audit:          audit,
		enqueuer:       enqueuer,
	}
}

// CreateSubmission uploads the original document, creates the row and
// enqueues it for processing. The enqueue happens after the insert has
// committed, so a crashed worker can never observe a missing row.
func (s *submissionPipelineService) CreateSubmission(ctx context.Context, studentID, assignmentID uint, fileName string, data []byte) (*model.Submission, error) {
	student, err := s.userRepo.FindByID(studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("student %d: %w", studentID, ErrNotFound)
		}
		return nil, err
	}
	if _, err := s.assignmentRepo.FindByID(assignmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("assignment %d: %w", assignmentID, ErrNotFound)
		}
		return nil, err
	}

	originalURL, err := s.storage.UploadFile(ctx, data, "submissions/original", fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to store original document: %w", err)
	}

	submission := model.Submission{
		StudentID:        studentID,
		AssignmentID:     assignmentID,
		OriginalDocURL:   originalURL,
		OriginalFileName: fileName,
		FileType:         fileExtension(fileName),
		Status:           model.SubmissionUploaded,
	}
	if err := s.submissionRepo.Create(&submission); err != nil {
		return nil, fmt.Errorf("failed to create submission record: %w", err)
	}

	s.audit.Record(student, "UPLOAD", "SUBMISSION", submission.ID, map[string]interface{}{
		"fileName": fileName,
		"fileSize": len(data),
	})

	if err := s.enqueuer.EnqueueSubmission(ctx, submission.ID); err != nil {
		// The row is durable; an operator can re-enqueue it. Surfacing the
		// error would roll the upload back from the caller's point of view.
		log.Error().Err(err).Uint("submissionID", submission.ID).
			Msg("Failed to enqueue submission for processing")
	}

	log.Info().Uint("submissionID", submission.ID).Uint("studentID", studentID).
		Msg("Submission created")
	return &submission, nil
}

// Process runs the pipeline for one submission. It is detached from the
// upload: errors are recorded on the row, never returned to the
// uploader. The returned error is for the worker's logging only.
func (s *submissionPipelineService) Process(ctx context.Context, submissionID uint) error {
	log.Info().Uint("submissionID", submissionID).Msg("Starting submission processing")

	submission, err := s.submissionRepo.FindByIDWithRelations(submissionID)
	if err != nil {
		return fmt.Errorf("submission %d not found: %w", submissionID, err)
	}

	// Status only moves forward; a stale or duplicate queue entry for a
	// submission already past UPLOADED is dropped here.
	if submission.Status != model.SubmissionUploaded {
		log.Warn().Uint("submissionID", submissionID).Str("status", string(submission.Status)).
			Msg("Skipping submission not in UPLOADED state")
		return nil
	}

	// Step 1: text extraction (vision first for images, OCR otherwise).
	if err := s.transition(submission, model.SubmissionOCRProcessing); err != nil {
		return err
	}

	extractedText, visionContext, err := s.extractText(ctx, submission)
	if err != nil {
		s.fail(submission, err)
		return err
	}
	submission.ExtractedText = extractedText
	if err := s.submissionRepo.Update(submission); err != nil {
		s.fail(submission, err)
		return err
	}
	log.Info().Uint("submissionID", submission.ID).Int("chars", len(extractedText)).
		Msg("Text extraction completed")

	// Step 2: anonymization. Empty extracted text is allowed through; the
	// scoring engine handles it with a low-confidence result.
	if err := s.transition(submission, model.SubmissionAnonymizing); err != nil {
		return err
	}
	anonymized := s.anonymizer.Anonymize(
		extractedText,
		submission.Student.FullName,
		submission.Student.StudentNumber,
	)
	submission.AnonymizedText = anonymized

	// Archiving the anonymized text is auxiliary; losing the archive must
	// not lose the submission.
	archiveName := fmt.Sprintf("anonymized_%d.txt", submission.ID)
	if url, err := s.storage.UploadText(ctx, anonymized, "submissions/anonymized", archiveName); err != nil {
		log.Warn().Err(err).Uint("submissionID", submission.ID).
			Msg("Failed to archive anonymized text, continuing")
	} else {
		submission.AnonymizedDocURL = url
	}
	if err := s.submissionRepo.Update(submission); err != nil {
		s.fail(submission, err)
		return err
	}

	// Step 3: AI scoring. Any error here is fatal; degraded AI responses
	// are absorbed inside the scoring service and do not reach this point.
	if err := s.transition(submission, model.SubmissionScoring); err != nil {
		return err
	}
	grade, err := s.scoring.ScoreSubmission(ctx, submission, visionContext)
	if err != nil {
		s.fail(submission, err)
		return err
	}

	finalStatus := model.SubmissionScored
	if grade.Status == model.GradeNeedsReview {
		finalStatus = model.SubmissionNeedsReview
	}
	if err := s.transition(submission, finalStatus); err != nil {
		return err
	}

	log.Info().Uint("submissionID", submission.ID).Msg("Submission processing completed")
	return nil
}

// extractText runs vision-first extraction for images with an OCR
// fallback. Vision failure is non-fatal; failure of both paths is fatal.
func (s *submissionPipelineService) extractText(ctx context.Context, submission *model.Submission) (text, visionContext string, err error) {
	data, err := s.storage.Download(ctx, submission.OriginalDocURL)
	if err != nil {
		return "", "", fmt.Errorf("failed to download original document: %w", err)
	}

	if submission.IsImage() {
		analysis, visionErr := s.extraction.AnalyzeImage(ctx, data)
		if visionErr == nil && analysis != nil && analysis.ExtractedText != "" {
			return analysis.ExtractedText, buildVisionReport(analysis), nil
		}
		if visionErr != nil {
			log.Warn().Err(visionErr).Uint("submissionID", submission.ID).
				Msg("Vision analysis failed, falling back to OCR")
		}
	}

	text, err = s.extraction.ExtractText(ctx, data, submission.FileType)
	if err != nil {
		return "", "", fmt.Errorf("text extraction failed: %w", err)
	}
	return text, "", nil
}

// buildVisionReport renders the vision analysis as the qualitative
// context string handed to the scoring prompt.
func buildVisionReport(analysis *ImageAnalysis) string {
	var b strings.Builder
	b.WriteString("=== Vision Analysis ===\n")
	if analysis.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", analysis.Description)
	}
	if len(analysis.Formulas) > 0 {
		b.WriteString("Mathematical formulas detected:\n")
		for _, formula := range analysis.Formulas {
			fmt.Fprintf(&b, "  - %s\n", formula)
		}
	}
	if analysis.ContainsChart {
		b.WriteString("Chart detected: yes\n")
		if analysis.ChartType != "" {
			fmt.Fprintf(&b, "  Chart type: %s\n", analysis.ChartType)
		}
	}
	b.WriteString("=== End Vision Analysis ===")
	return b.String()
}

func (s *submissionPipelineService) transition(submission *model.Submission, status model.SubmissionStatus) error {
	submission.Status = status
	if err := s.submissionRepo.Update(submission); err != nil {
		log.Error().Err(err).Uint("submissionID", submission.ID).Str("status", string(status)).
			Msg("Failed to persist status transition")
		return fmt.Errorf("failed to persist status %s: %w", status, err)
	}
	log.Info().Uint("submissionID", submission.ID).Str("status", string(status)).
		Msg("Submission status updated")
	return nil
}

// fail moves the submission into the terminal FAILED state and records
// the error text on the row for polling callers.
func (s *submissionPipelineService) fail(submission *model.Submission, cause error) {
	log.Error().Err(cause).Uint("submissionID", submission.ID).Msg("Submission processing failed")

	msg := cause.Error()
	submission.Status = model.SubmissionFailed
	submission.ProcessingError = &msg
	if err := s.submissionRepo.Update(submission); err != nil {
		log.Error().Err(err).Uint("submissionID", submission.ID).
			Msg("Failed to persist FAILED status")
	}
}

func (s *submissionPipelineService) GetSubmission(id uint) (*model.Submission, error) {
	submission, err := s.submissionRepo.FindByIDWithRelations(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("submission %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return submission, nil
}

func (s *submissionPipelineService) GetSubmissionsByAssignment(assignmentID uint) ([]model.Submission, error) {
	return s.submissionRepo.FindByAssignment(assignmentID)
}

func (s *submissionPipelineService) GetSubmissionsByStudent(studentID uint) ([]model.Submission, error) {
	return s.submissionRepo.FindByStudent(studentID)
}

func fileExtension(fileName string) string {
	ext := filepath.Ext(fileName)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
