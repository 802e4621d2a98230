package dto

import (
	"github.com/jinzhu/copier"
	"github.com/lshigami/Markhor/internal/model"
)

// Copier handles the model-to-DTO mapping; status enums and JSON blobs
// convert because their underlying types match.

func FromSubmission(m *model.Submission) SubmissionResponse {
	var resp SubmissionResponse
	copier.Copy(&resp, m)
	if m.Student.ID != 0 {
		var student UserResponse
		copier.Copy(&student, &m.Student)
		resp.Student = &student
	}
	return resp
}

func FromSubmissions(ms []model.Submission) []SubmissionResponse {
	resps := make([]SubmissionResponse, 0, len(ms))
	for i := range ms {
		resps = append(resps, FromSubmission(&ms[i]))
	}
	return resps
}

func FromGrade(m *model.Grade) GradeResponse {
	var resp GradeResponse
	copier.Copy(&resp, m)
	return resp
}

func FromSnapshot(m *model.GradeSnapshot) SnapshotResponse {
	var resp SnapshotResponse
	copier.Copy(&resp, m)
	return resp
}

func FromSnapshots(ms []model.GradeSnapshot) []SnapshotResponse {
	resps := make([]SnapshotResponse, 0, len(ms))
	for i := range ms {
		resps = append(resps, FromSnapshot(&ms[i]))
	}
	return resps
}

func FromAppeal(m *model.Appeal) AppealResponse {
	var resp AppealResponse
	copier.Copy(&resp, m)
	return resp
}

func FromAppeals(ms []model.Appeal) []AppealResponse {
	resps := make([]AppealResponse, 0, len(ms))
	for i := range ms {
		resps = append(resps, FromAppeal(&ms[i]))
	}
	return resps
}

func FromNotifications(ms []model.NotificationAttempt) []NotificationResponse {
	resps := make([]NotificationResponse, 0, len(ms))
	for i := range ms {
		var resp NotificationResponse
		copier.Copy(&resp, &ms[i])
		resps = append(resps, resp)
	}
	return resps
}
