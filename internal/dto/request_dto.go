package dto

// CreateSubmissionRequest is the multipart form accompanying an upload.
// The file itself arrives as the "file" form field.
type CreateSubmissionRequest struct {
	StudentID    uint `form:"student_id" binding:"required"`
	AssignmentID uint `form:"assignment_id" binding:"required"`
}

type ReviewGradeRequest struct {
	TeacherID uint     `json:"teacher_id" binding:"required"`
	Score     *float64 `json:"score,omitempty"`
	Comments  string   `json:"comments,omitempty"`
}

type PublishGradeRequest struct {
	TeacherID uint   `json:"teacher_id" binding:"required"`
	Notes     string `json:"notes,omitempty"`
}

type CreateAppealRequest struct {
	StudentID uint   `json:"student_id" binding:"required"`
	Reason    string `json:"reason" binding:"required"`
}

type ResolveAppealRequest struct {
	TeacherID  uint     `json:"teacher_id" binding:"required"`
	Status     string   `json:"status" binding:"required,oneof=APPROVED REJECTED CLOSED"`
	NewScore   *float64 `json:"new_score,omitempty"`
	Resolution string   `json:"resolution" binding:"required"`
}
