package student

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/Markhor/internal/dto"
	"github.com/lshigami/Markhor/internal/model"
	"github.com/lshigami/Markhor/internal/repository"
	"github.com/lshigami/Markhor/internal/service"
	"github.com/rs/zerolog/log"
)

type SubmissionController struct {
	pipeline      service.SubmissionPipelineService
	publish       service.PublishService
	appeals       service.AppealService
	notifications service.NotificationService
	anonymizer    service.AnonymizationService
	userRepo      repository.UserRepository
}

func NewSubmissionController(
	pipeline service.SubmissionPipelineService,
	publish service.PublishService,
	appeals service.AppealService,
	notifications service.NotificationService,
	anonymizer service.AnonymizationService,
	userRepo repository.UserRepository,
) *SubmissionController {
	return &SubmissionController{
		pipeline:      pipeline,
		publish:       publish,
		appeals:       appeals,
		notifications: notifications,
		anonymizer:    anonymizer,
		userRepo:      userRepo,
	}
}

// CreateSubmission godoc
// @Summary Upload a submission document
// @Description Student uploads an answer document; processing continues asynchronously.
// @Tags Student - Submissions
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Answer document (pdf, docx, txt or image)"
// @Param student_id formData int true "Student ID"
// @Param assignment_id formData int true "Assignment ID"
// @Success 202 {object} dto.SubmissionResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /submissions [post]
func (c *SubmissionController) CreateSubmission(ctx *gin.Context) {
	var req dto.CreateSubmissionRequest
	if err := ctx.ShouldBind(&req); err != nil {
		log.Warn().Err(err).Msg("Failed to bind CreateSubmissionRequest")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Missing 'file' form field"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Failed to open uploaded file"})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Failed to read uploaded file"})
		return
	}

	submission, err := c.pipeline.CreateSubmission(ctx.Request.Context(), req.StudentID, req.AssignmentID, fileHeader.Filename, data)
	if err != nil {
		log.Error().Err(err).Uint("studentID", req.StudentID).Msg("Failed to create submission")
		respondError(ctx, err, "Failed to create submission")
		return
	}
	ctx.JSON(http.StatusAccepted, dto.FromSubmission(submission))
}

// GetSubmission returns the submission with its current pipeline status,
// which the student polls while processing runs.
func (c *SubmissionController) GetSubmission(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	submission, err := c.pipeline.GetSubmission(id)
	if err != nil {
		respondError(ctx, err, "Failed to retrieve submission")
		return
	}
	resp := dto.FromSubmission(submission)
	resp.RedactionCount = c.anonymizer.CountRedactions(submission.AnonymizedText)
	ctx.JSON(http.StatusOK, resp)
}

func (c *SubmissionController) GetMySubmissions(ctx *gin.Context) {
	studentID, ok := paramID(ctx, "student_id")
	if !ok {
		return
	}
	submissions, err := c.pipeline.GetSubmissionsByStudent(studentID)
	if err != nil {
		respondError(ctx, err, "Failed to retrieve submissions")
		return
	}
	ctx.JSON(http.StatusOK, dto.FromSubmissions(submissions))
}

// GetResult returns the latest published snapshot, the student-visible
// grade.
func (c *SubmissionController) GetResult(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	snapshot, err := c.publish.GetLatestSnapshot(id)
	if err != nil {
		respondError(ctx, err, "Failed to retrieve result")
		return
	}
	ctx.JSON(http.StatusOK, dto.FromSnapshot(snapshot))
}

// GetSnapshots returns the full version history, newest first.
func (c *SubmissionController) GetSnapshots(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	snapshots, err := c.publish.GetSnapshots(id)
	if err != nil {
		respondError(ctx, err, "Failed to retrieve result history")
		return
	}
	ctx.JSON(http.StatusOK, dto.FromSnapshots(snapshots))
}

// CreateAppeal godoc
// @Summary Appeal a published grade
// @Tags Student - Appeals
// @Accept json
// @Produce json
// @Param id path int true "Submission ID"
// @Param appeal body dto.CreateAppealRequest true "Appeal reason"
// @Success 201 {object} dto.AppealResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /submissions/{id}/appeals [post]
func (c *SubmissionController) CreateAppeal(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req dto.CreateAppealRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	student, err := c.userRepo.FindByID(req.StudentID)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Unknown student"})
		return
	}
	if student.Role != model.RoleStudent {
		ctx.JSON(http.StatusForbidden, dto.ErrorResponse{Error: "Only students can appeal a grade"})
		return
	}

	appeal, err := c.appeals.CreateAppeal(id, student, req.Reason)
	if err != nil {
		log.Error().Err(err).Uint("submissionID", id).Msg("Failed to create appeal")
		respondError(ctx, err, "Failed to create appeal")
		return
	}
	ctx.JSON(http.StatusCreated, dto.FromAppeal(appeal))
}

func (c *SubmissionController) GetAppeals(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	appeals, err := c.appeals.GetAppealsBySubmission(id)
	if err != nil {
		respondError(ctx, err, "Failed to retrieve appeals")
		return
	}
	ctx.JSON(http.StatusOK, dto.FromAppeals(appeals))
}

// GetMyNotifications returns the delivery log for one user, newest
// first.
func (c *SubmissionController) GetMyNotifications(ctx *gin.Context) {
	userID, ok := paramID(ctx, "user_id")
	if !ok {
		return
	}
	attempts, err := c.notifications.GetNotificationsForUser(userID)
	if err != nil {
		respondError(ctx, err, "Failed to retrieve notifications")
		return
	}
	ctx.JSON(http.StatusOK, dto.FromNotifications(attempts))
}

func paramID(ctx *gin.Context, name string) (uint, bool) {
	val, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid " + name + " format"})
		return 0, false
	}
	return uint(val), true
}

func respondError(ctx *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrUnauthorized):
		ctx.JSON(http.StatusForbidden, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrInvalidState):
		ctx.JSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrUnsupportedFormat):
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	default:
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: fallback + ": " + err.Error()})
	}
}
