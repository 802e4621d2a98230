package service

import (
	"context"
	"strings"
	"testing"

	"github.com/lshigami/Markhor/config"
	"github.com/lshigami/Markhor/internal/model"
)

func scoringFixture(llm *fakeLLM, rubrics []model.Rubric) (ScoringService, *fakeGradeRepo, *fakeNotifier) {
	gradeRepo := newFakeGradeRepo()
	notifier := &fakeNotifier{}
	cfg := &config.Config{}
	cfg.Scoring.ConfidenceThreshold = 0.85
	svc := NewScoringService(gradeRepo, &fakeRubricRepo{rubrics: rubrics}, llm, notifier, NewAuditLogService(&fakeAuditRepo{}), cfg)
	return svc, gradeRepo, notifier
}

func scoringSubmission() *model.Submission {
	return &model.Submission{
		ID:             7,
		AssignmentID:   3,
		AnonymizedText: "The answer discusses supply and demand equilibrium.",
		Assignment: model.Assignment{
			ID:         3,
			Title:      "Economics essay",
			TotalMarks: 100,
			Teacher:    model.User{ID: 2, FullName: "Prof. Lane", Email: "lane@school.edu"},
		},
		Student: model.User{ID: 9, FullName: "Student"},
	}
}

func TestScoreSubmissionConfidenceGate(t *testing.T) {
	tests := []struct {
		name       string
		response   string
		wantStatus model.GradeStatus
		wantNotify bool
	}{
		{
			name:       "high confidence skips review",
			response:   `{"totalScore": 88, "confidence": 0.92, "feedback": {"strengths": ["clear"]}}`,
			wantStatus: model.GradeHighConfidence,
			wantNotify: false,
		},
		{
			name:       "low confidence requests review",
			response:   `{"totalScore": 55, "confidence": 0.40, "feedback": {"weaknesses": ["thin"]}}`,
			wantStatus: model.GradeNeedsReview,
			wantNotify: true,
		},
		{
			name:       "threshold itself counts as high confidence",
			response:   `{"totalScore": 70, "confidence": 0.85, "feedback": {}}`,
			wantStatus: model.GradeHighConfidence,
			wantNotify: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, gradeRepo, notifier := scoringFixture(&fakeLLM{response: tt.response}, nil)

			grade, err := svc.ScoreSubmission(context.Background(), scoringSubmission(), "")
			if err != nil {
				t.Fatalf("ScoreSubmission() error = %v", err)
			}
			if grade.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", grade.Status, tt.wantStatus)
			}
			if _, err := gradeRepo.FindBySubmissionID(7); err != nil {
				t.Errorf("grade row not persisted: %v", err)
			}
			if notified := len(notifier.reviewNeeded) > 0; notified != tt.wantNotify {
				t.Errorf("review notification sent = %v, want %v", notified, tt.wantNotify)
			}
		})
	}
}

func TestScoreSubmissionClampsOutOfRangeValues(t *testing.T) {
	svc, _, _ := scoringFixture(&fakeLLM{
		response: `{"totalScore": 150, "confidence": 1.7, "feedback": {}}`,
	}, nil)

	grade, err := svc.ScoreSubmission(context.Background(), scoringSubmission(), "")
	if err != nil {
		t.Fatalf("ScoreSubmission() error = %v", err)
	}
	if grade.AIScore != 100 {
		t.Errorf("AIScore = %v, want clamped to 100", grade.AIScore)
	}
	if grade.AIConfidence != 1 {
		t.Errorf("AIConfidence = %v, want clamped to 1", grade.AIConfidence)
	}
}

func TestScoreSubmissionDegradesOnMalformedResponse(t *testing.T) {
	svc, _, notifier := scoringFixture(&fakeLLM{response: "I cannot grade this, sorry."}, nil)

	grade, err := svc.ScoreSubmission(context.Background(), scoringSubmission(), "")
	if err != nil {
		t.Fatalf("ScoreSubmission() error = %v, want degraded result instead", err)
	}
	if grade.AIScore != fallbackScore {
		t.Errorf("AIScore = %v, want fallback %v", grade.AIScore, fallbackScore)
	}
	if grade.AIConfidence != fallbackConfidence {
		t.Errorf("AIConfidence = %v, want fallback %v", grade.AIConfidence, fallbackConfidence)
	}
	if grade.Status != model.GradeNeedsReview {
		t.Errorf("status = %s, want NEEDS_REVIEW for fallback confidence", grade.Status)
	}
	if !strings.Contains(string(grade.AIFeedback), "parsing failed") {
		t.Errorf("AIFeedback = %s, want parse failure marker", grade.AIFeedback)
	}
	if len(notifier.reviewNeeded) != 1 {
		t.Errorf("review notifications = %d, want 1", len(notifier.reviewNeeded))
	}
}

func TestBuildScoringPromptDefaultRubric(t *testing.T) {
	llm := &fakeLLM{response: `{"totalScore": 60, "confidence": 0.9, "feedback": {}}`}
	svc, _, _ := scoringFixture(llm, nil)

	if _, err := svc.ScoreSubmission(context.Background(), scoringSubmission(), ""); err != nil {
		t.Fatalf("ScoreSubmission() error = %v", err)
	}
	if len(llm.prompts) != 1 {
		t.Fatalf("prompts sent = %d, want 1", len(llm.prompts))
	}
	prompt := llm.prompts[0]
	for _, want := range []string{
		"Content completeness (40%)",
		"Accuracy (30%)",
		"Expression quality (20%)",
		"Originality (10%)",
		"supply and demand equilibrium",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildScoringPromptUsesConfiguredRubric(t *testing.T) {
	rubrics := []model.Rubric{
		{AssignmentID: 3, QuestionID: "Q1", Criteria: "Define equilibrium", Weight: 60, KeyPoints: "intersection of curves"},
		{AssignmentID: 3, QuestionID: "Q2", Criteria: "Give an example", Weight: 40},
	}
	llm := &fakeLLM{response: `{"totalScore": 60, "confidence": 0.9, "feedback": {}}`}
	svc, _, _ := scoringFixture(llm, rubrics)

	if _, err := svc.ScoreSubmission(context.Background(), scoringSubmission(), "=== Vision Analysis ===\nchart"); err != nil {
		t.Fatalf("ScoreSubmission() error = %v", err)
	}
	prompt := llm.prompts[0]
	if strings.Contains(prompt, "Content completeness") {
		t.Error("prompt used default rubric although one is configured")
	}
	for _, want := range []string{"Q1", "Define equilibrium", "intersection of curves", "Q2", "Vision Analysis"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
