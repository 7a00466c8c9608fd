package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/examhub/internal/controller"
	"github.com/lshigami/examhub/internal/dto"
	"github.com/lshigami/examhub/internal/model"
	"github.com/lshigami/examhub/internal/repository"
	"github.com/lshigami/examhub/internal/service"
)

type GradingController struct {
	grading     service.GradingService
	submissions service.TestSubmissionService
}

func NewGradingController(grading service.GradingService, submissions service.TestSubmissionService) *GradingController {
	return &GradingController{grading: grading, submissions: submissions}
}

// PendingAttempts godoc
// @Summary (Admin) Attempts waiting for manual grading
// @Tags Admin - Grading
// @Produce json
// @Param exam_id query int false "Only this exam"
// @Success 200 {array} dto.TestAttemptSummaryDTO
// @Router /admin/attempts/pending [get]
func (c *GradingController) PendingAttempts(ctx *gin.Context) {
	examID, ok := controller.OptionalUintQuery(ctx, "exam_id")
	if !ok {
		return
	}
	attempts, err := c.grading.PendingAttempts(ctx.Request.Context(), examID)
	if err != nil {
		controller.RespondError(ctx, "Admin PendingAttempts", err)
		return
	}
	ctx.JSON(http.StatusOK, attempts)
}

// ListAttempts godoc
// @Summary (Admin) List attempts
// @Tags Admin - Grading
// @Produce json
// @Param exam_id query int false "Exam ID"
// @Param student_id query int false "Student ID"
// @Param status query string false "started, submitted or graded"
// @Success 200 {array} dto.TestAttemptSummaryDTO
// @Failure 400 {object} dto.ErrorResponse
// @Router /admin/attempts [get]
func (c *GradingController) ListAttempts(ctx *gin.Context) {
	examID, ok := controller.OptionalUintQuery(ctx, "exam_id")
	if !ok {
		return
	}
	studentID, ok := controller.OptionalUintQuery(ctx, "student_id")
	if !ok {
		return
	}
	filter := repository.AttemptFilter{ExamID: examID, StudentID: studentID}
	if raw := ctx.Query("status"); raw != "" {
		status, err := model.ParseAttemptStatus(raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: err.Error()})
			return
		}
		filter.Status = &status
	}
	attempts, err := c.submissions.ListAttempts(ctx.Request.Context(), filter)
	if err != nil {
		controller.RespondError(ctx, "Admin ListAttempts", err)
		return
	}
	ctx.JSON(http.StatusOK, attempts)
}

// GradeAttempt godoc
// @Summary (Admin) Grade essay and speaking answers
// @Description Scores apply to essay and speaking results only; choice results accept feedback only. The total is recomputed from all results and the attempt becomes graded.
// @Tags Admin - Grading
// @Accept json
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Param grades body dto.ManualGradeDTO true "Grades"
// @Success 200 {object} dto.TestAttemptDetailDTO
// @Failure 400 {object} dto.ErrorResponse "Score out of range or unknown result"
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/attempts/{attempt_id}/grade [post]
func (c *GradingController) GradeAttempt(ctx *gin.Context) {
	attemptID, ok := controller.ParseID(ctx, "attempt_id")
	if !ok {
		return
	}
	var req dto.ManualGradeDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.BindFailed(ctx, "Admin GradeAttempt", err)
		return
	}
	detail, err := c.grading.GradeAttempt(ctx.Request.Context(), attemptID, req)
	if err != nil {
		controller.RespondError(ctx, "Admin GradeAttempt", err)
		return
	}
	ctx.JSON(http.StatusOK, detail)
}

// SuggestGrades godoc
// @Summary (Admin) AI grade suggestions for ungraded answers
// @Description Nothing is saved; graders confirm suggestions through the grade endpoint.
// @Tags Admin - Grading
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Success 200 {array} dto.GradeSuggestionDTO
// @Failure 404 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse "Assistant not configured"
// @Router /admin/attempts/{attempt_id}/suggestions [post]
func (c *GradingController) SuggestGrades(ctx *gin.Context) {
	attemptID, ok := controller.ParseID(ctx, "attempt_id")
	if !ok {
		return
	}
	suggestions, err := c.grading.SuggestGrades(ctx.Request.Context(), attemptID)
	if err != nil {
		controller.RespondError(ctx, "Admin SuggestGrades", err)
		return
	}
	ctx.JSON(http.StatusOK, suggestions)
}
