package teacher

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/Markhor/internal/dto"
	"github.com/lshigami/Markhor/internal/model"
	"github.com/lshigami/Markhor/internal/repository"
	"github.com/lshigami/Markhor/internal/service"
	"github.com/rs/zerolog/log"
)

type GradingController struct {
	pipeline service.SubmissionPipelineService
	review   service.ReviewService
	publish  service.PublishService
	appeals  service.AppealService
	userRepo repository.UserRepository
}

func NewGradingController(
	pipeline service.SubmissionPipelineService,
	review service.ReviewService,
	publish service.PublishService,
	appeals service.AppealService,
	userRepo repository.UserRepository,
) *GradingController {
	return &GradingController{
		pipeline: pipeline,
		review:   review,
		publish:  publish,
		appeals:  appeals,
		userRepo: userRepo,
	}
}

func (c *GradingController) GetSubmissionsByAssignment(ctx *gin.Context) {
	assignmentID, ok := paramID(ctx, "assignment_id")
	if !ok {
		return
	}
	submissions, err := c.pipeline.GetSubmissionsByAssignment(assignmentID)
	if err != nil {
		respondError(ctx, err, "Failed to retrieve submissions")
		return
	}
	ctx.JSON(http.StatusOK, dto.FromSubmissions(submissions))
}

// GetGrade returns the working grade record, including the AI feedback
// the teacher reviews.
func (c *GradingController) GetGrade(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	grade, err := c.review.GetGrade(id)
	if err != nil {
		respondError(ctx, err, "Failed to retrieve grade")
		return
	}
	ctx.JSON(http.StatusOK, dto.FromGrade(grade))
}

// ReviewGrade godoc
// @Summary Review a grade
// @Description Teacher overrides the AI score and/or adds comments, approving the grade for publication.
// @Tags Teacher - Grading
// @Accept json
// @Produce json
// @Param id path int true "Submission ID"
// @Param review body dto.ReviewGradeRequest true "Review data"
// @Success 200 {object} dto.GradeResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /submissions/{id}/review [put]
func (c *GradingController) ReviewGrade(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req dto.ReviewGradeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	reviewer, ok := c.requireTeacher(ctx, req.TeacherID)
	if !ok {
		return
	}

	grade, err := c.review.ReviewGrade(id, reviewer, req.Score, req.Comments)
	if err != nil {
		log.Error().Err(err).Uint("submissionID", id).Msg("Failed to review grade")
		respondError(ctx, err, "Failed to review grade")
		return
	}
	ctx.JSON(http.StatusOK, dto.FromGrade(grade))
}

// PublishGrade godoc
// @Summary Publish a grade
// @Description Creates the next immutable snapshot version and notifies the student.
// @Tags Teacher - Grading
// @Accept json
// @Produce json
// @Param id path int true "Submission ID"
// @Param publish body dto.PublishGradeRequest true "Publish data"
// @Success 201 {object} dto.SnapshotResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /submissions/{id}/publish [post]
func (c *GradingController) PublishGrade(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req dto.PublishGradeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	publisher, ok := c.requireTeacher(ctx, req.TeacherID)
	if !ok {
		return
	}

	snapshot, err := c.publish.PublishGrade(id, publisher, req.Notes)
	if err != nil {
		log.Error().Err(err).Uint("submissionID", id).Msg("Failed to publish grade")
		respondError(ctx, err, "Failed to publish grade")
		return
	}
	ctx.JSON(http.StatusCreated, dto.FromSnapshot(snapshot))
}

func (c *GradingController) GetPendingAppeals(ctx *gin.Context) {
	appeals, err := c.appeals.GetPendingAppeals()
	if err != nil {
		respondError(ctx, err, "Failed to retrieve pending appeals")
		return
	}
	ctx.JSON(http.StatusOK, dto.FromAppeals(appeals))
}

// ResolveAppeal godoc
// @Summary Resolve an appeal
// @Description Approves (with optional score adjustment and republication) or rejects an appeal.
// @Tags Teacher - Appeals
// @Accept json
// @Produce json
// @Param id path int true "Appeal ID"
// @Param resolution body dto.ResolveAppealRequest true "Resolution data"
// @Success 200 {object} dto.AppealResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /appeals/{id}/resolve [put]
func (c *GradingController) ResolveAppeal(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req dto.ResolveAppealRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	resolver, ok := c.requireTeacher(ctx, req.TeacherID)
	if !ok {
		return
	}

	appeal, err := c.appeals.ResolveAppeal(id, resolver, model.AppealStatus(req.Status), req.NewScore, req.Resolution)
	if err != nil {
		log.Error().Err(err).Uint("appealID", id).Msg("Failed to resolve appeal")
		respondError(ctx, err, "Failed to resolve appeal")
		return
	}
	ctx.JSON(http.StatusOK, dto.FromAppeal(appeal))
}

func (c *GradingController) requireTeacher(ctx *gin.Context, teacherID uint) (*model.User, bool) {
	user, err := c.userRepo.FindByID(teacherID)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Unknown teacher"})
		return nil, false
	}
	if user.Role != model.RoleTeacher && user.Role != model.RoleAdmin {
		ctx.JSON(http.StatusForbidden, dto.ErrorResponse{Error: "Only teachers can perform this action"})
		return nil, false
	}
	return user, true
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
	default:
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: fallback + ": " + err.Error()})
	}
}
