package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/lshigami/Markhor/config"
	"github.com/lshigami/Markhor/internal/model"
	"github.com/lshigami/Markhor/internal/repository"
	"github.com/rs/zerolog/log"
)

// ScoringService grades an anonymized submission with the LLM backend
// and applies the confidence gate. A malformed AI response never fails
// the pipeline: it degrades to a fixed low-confidence result so a grade
// is always produced.
type ScoringService interface {
	ScoreSubmission(ctx context.Context, submission *model.Submission, visionContext string) (*model.Grade, error)
}

// Degraded result used when the AI response cannot be parsed.
const (
	fallbackScore      = 50.0
	fallbackConfidence = 0.3
)

// QuestionScore is one per-question entry of the grading breakdown.
type QuestionScore struct {
	QuestionID      string   `json:"questionId"`
	Score           float64  `json:"score"`
	MaxScore        float64  `json:"maxScore"`
	KeyPointsFound  []string `json:"keyPointsFound,omitempty"`
	KeyPointsMissed []string `json:"keyPointsMissing,omitempty"`
}

// Suggestion is one actionable improvement item of the AI feedback.
type Suggestion struct {
	Issue        string `json:"issue"`
	Suggestion   string `json:"suggestion"`
	Why          string `json:"why"`
	HowToImprove string `json:"howToImprove"`
}

// Feedback is the fixed internal shape of the AI's structured feedback.
type Feedback struct {
	Strengths   []string     `json:"strengths"`
	Weaknesses  []string     `json:"weaknesses"`
	Suggestions []Suggestion `json:"suggestions"`
	Error       string       `json:"error,omitempty"`
}

type scoringResult struct {
	TotalScore       float64         `json:"totalScore"`
	Confidence       float64         `json:"confidence"`
	Breakdown        []QuestionScore `json:"breakdown,omitempty"`
	Feedback         Feedback        `json:"feedback"`
	ConfidenceReason string          `json:"confidenceReason,omitempty"`
}

type scoringService struct {
	gradeRepo    repository.GradeRepository
	rubricRepo   repository.RubricRepository
	llm          LLMService
	notification NotificationService
	audit        AuditLogService
	threshold    float64
}

func NewScoringService(
	gradeRepo repository.GradeRepository,
	rubricRepo repository.RubricRepository,
	llm LLMService,
	notification NotificationService,
	audit AuditLogService,
	cfg *config.Config,
) ScoringService {
	return &scoringService{
		gradeRepo:    gradeRepo,
		rubricRepo:   rubricRepo,
		llm:          llm,
		notification: notification,
		audit:        audit,
		threshold:    cfg.Scoring.ConfidenceThreshold,
	}
}

// ScoreSubmission expects submission.Assignment (with Teacher) and
// submission.Student to be preloaded by the pipeline.
func (s *scoringService) ScoreSubmission(ctx context.Context, submission *model.Submission, visionContext string) (*model.Grade, error) {
	log.Info().Uint("submissionID", submission.ID).Msg("Starting AI scoring")

	rubrics, err := s.rubricRepo.FindByAssignment(submission.AssignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rubrics for assignment %d: %w", submission.AssignmentID, err)
	}

	prompt := buildScoringPrompt(submission, rubrics, visionContext)

	response, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("AI scoring failed for submission %d: %w", submission.ID, err)
	}

	result := parseScoringResponse(response, submission.Assignment.TotalMarks)

	feedbackJSON, err := json.Marshal(result.Feedback)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize feedback: %w", err)
	}

	grade := model.Grade{
		SubmissionID: submission.ID,
		AIScore:      result.TotalScore,
		AIConfidence: result.Confidence,
		AIFeedback:   feedbackJSON,
	}

	if result.Confidence >= s.threshold {
		grade.Status = model.GradeHighConfidence
		log.Info().Float64("score", result.TotalScore).Float64("confidence", result.Confidence).
			Msg("High confidence score")
	} else {
		grade.Status = model.GradeNeedsReview
		log.Info().Float64("score", result.TotalScore).Float64("confidence", result.Confidence).
			Msg("Low confidence, requires teacher review")
	}

	if err := s.gradeRepo.Create(&grade); err != nil {
		return nil, fmt.Errorf("failed to save grade for submission %d: %w", submission.ID, err)
	}

	// Notify after the grade row exists so the teacher's review link has
	// something to show.
	if grade.Status == model.GradeNeedsReview {
		s.notification.NotifyTeacherReviewNeeded(submission)
	}

	s.audit.Record(nil, "AI_SCORE", "GRADE", grade.ID, map[string]interface{}{
		"submissionId": submission.ID,
		"aiScore":      grade.AIScore,
		"confidence":   grade.AIConfidence,
		"status":       grade.Status,
	})

	return &grade, nil
}

// buildScoringPrompt combines the assignment rubric (or the default one),
// the anonymized answer and optional vision context into one grading
// request.
func buildScoringPrompt(submission *model.Submission, rubrics []model.Rubric, visionContext string) string {
	assignment := submission.Assignment

	var b strings.Builder
	b.WriteString("You are a professional teaching assessment assistant. Grade the student's answer against the criteria below.\n\n")

	b.WriteString("## Assignment\n")
	fmt.Fprintf(&b, "Title: %s\n", assignment.Title)
	fmt.Fprintf(&b, "Description: %s\n", assignment.Description)
	fmt.Fprintf(&b, "Total Marks: %.0f\n\n", assignment.TotalMarks)

	if len(rubrics) == 0 {
		b.WriteString("## Grading Criteria (default)\n")
		b.WriteString("No rubric is configured for this assignment; grade on these dimensions:\n")
		b.WriteString("1. Content completeness (40%): are the assignment requirements fully addressed?\n")
		b.WriteString("2. Accuracy (30%): are concepts understood correctly, is the reasoning sound?\n")
		b.WriteString("3. Expression quality (20%): is the language clear and well structured?\n")
		b.WriteString("4. Originality (10%): are there unique insights, depth of thought?\n\n")
	} else {
		b.WriteString("## Grading Criteria (rubric)\n")
		for _, rubric := range rubrics {
			fmt.Fprintf(&b, "### %s (%.0f points)\n", rubric.QuestionID, rubric.Weight)
			fmt.Fprintf(&b, "Criteria: %s\n", rubric.Criteria)
			if rubric.KeyPoints != "" {
				fmt.Fprintf(&b, "Key Points: %s\n", rubric.KeyPoints)
			}
			if rubric.SampleAnswer != "" {
				fmt.Fprintf(&b, "Sample Answer: %s\n", rubric.SampleAnswer)
			}
			b.WriteString("\n")
		}
	}

	if visionContext != "" {
		b.WriteString("## Image Analysis (vision model output)\n")
		b.WriteString("The submission was an image; the following analysis includes formula and chart detection. Use it as additional grading context.\n\n")
		b.WriteString(visionContext)
		b.WriteString("\n\n")
	}

	b.WriteString("## Student Answer (extracted text)\n")
	b.WriteString(submission.AnonymizedText)
	b.WriteString("\n\n")

	b.WriteString("## Requirements\n")
	b.WriteString("Score each criterion, provide a total score and a confidence in [0.0, 1.0], ")
	b.WriteString("and give specific, actionable feedback: strengths, weaknesses, and improvement ")
	b.WriteString("suggestions each carrying issue, suggestion, why and howToImprove.\n\n")

	b.WriteString("Return the result as JSON only:\n")
	b.WriteString("```json\n")
	fmt.Fprintf(&b, "{\n  \"totalScore\": <0-%.0f>,\n", assignment.TotalMarks)
	b.WriteString(`  "confidence": <0.0-1.0>,
  "breakdown": [{"questionId": "Q1", "score": 0, "maxScore": 0, "keyPointsFound": [], "keyPointsMissing": []}],
  "feedback": {
    "strengths": ["..."],
    "weaknesses": ["..."],
    "suggestions": [{"issue": "...", "suggestion": "...", "why": "...", "howToImprove": "..."}]
  },
  "confidenceReason": "..."
}
`)
	b.WriteString("```\n")

	return b.String()
}

// parseScoringResponse parses the AI response, clamping score and
// confidence into range. On any parse failure it returns the degraded
// fallback result instead of an error.
func parseScoringResponse(response string, totalMarks float64) scoringResult {
	raw := stripJSONFence(response)

	var result scoringResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		log.Warn().Err(err).Str("response", truncate(response, 500)).
			Msg("Failed to parse AI scoring response, using fallback result")
		return scoringResult{
			TotalScore: fallbackScore,
			Confidence: fallbackConfidence,
			Feedback:   Feedback{Error: "AI response parsing failed"},
		}
	}

	result.TotalScore = clamp(result.TotalScore, 0, totalMarks)
	result.Confidence = clamp(result.Confidence, 0, 1)
	result.TotalScore = math.Round(result.TotalScore*100) / 100
	return result
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
