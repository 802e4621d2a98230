package service

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

// AnonymizationService strips personally identifiable information from
// extracted text before it reaches the scoring backend. Pure function of
// its inputs.
type AnonymizationService interface {
	Anonymize(text, studentName, studentNumber string) string
	CountRedactions(text string) int
}

var (
	// Student numbers: 6-10 digits, or a letter followed by 5-9 digits.
	studentNumberPattern = regexp.MustCompile(`\b[0-9]{6,10}\b|\b[A-Z][0-9]{5,9}\b`)
	emailPattern         = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phonePattern         = regexp.MustCompile(`\b1[3-9]\d{9}\b`)
	nameLabelPattern     = regexp.MustCompile(`(?i)(name|姓名)\s*[:：]\s*\S+`)
	idLabelPattern       = regexp.MustCompile(`(?i)(student\s*id|学号)\s*[:：]\s*\S+`)
)

var redactionMarkers = []string{
	"[STUDENT_NAME]", "[STUDENT_ID]", "[EMAIL]", "[PHONE]", "[REDACTED]",
}

type anonymizationService struct{}

func NewAnonymizationService() AnonymizationService {
	return &anonymizationService{}
}

func (s *anonymizationService) Anonymize(text, studentName, studentNumber string) string {
	if text == "" {
		return text
	}

	anonymized := text

	if studentName != "" {
		namePattern := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(studentName))
		anonymized = namePattern.ReplaceAllString(anonymized, "[STUDENT_NAME]")
	}
	if studentNumber != "" {
		anonymized = strings.ReplaceAll(anonymized, studentNumber, "[STUDENT_ID]")
	}

	anonymized = studentNumberPattern.ReplaceAllString(anonymized, "[STUDENT_ID]")
	anonymized = emailPattern.ReplaceAllString(anonymized, "[EMAIL]")
	anonymized = phonePattern.ReplaceAllString(anonymized, "[PHONE]")
	anonymized = nameLabelPattern.ReplaceAllString(anonymized, "${1}: [REDACTED]")
	anonymized = idLabelPattern.ReplaceAllString(anonymized, "${1}: [REDACTED]")

	log.Info().Int("chars", len(text)).Msg("Text anonymized")
	return anonymized
}

// CountRedactions reports how many PII markers the anonymized text
// contains, used for the student-facing anonymization preview.
func (s *anonymizationService) CountRedactions(text string) int {
	count := 0
	for _, marker := range redactionMarkers {
		count += strings.Count(text, marker)
	}
	return count
}
