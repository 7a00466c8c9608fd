package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/examhub/internal/controller"
	"github.com/lshigami/examhub/internal/dto"
	"github.com/lshigami/examhub/internal/service"
)

type QuestionController struct {
	bank service.QuestionBankService
}

func NewQuestionController(bank service.QuestionBankService) *QuestionController {
	return &QuestionController{bank: bank}
}

// ListQuestions godoc
// @Summary (Admin) Search the question bank
// @Tags Admin - Questions
// @Produce json
// @Param skill query string false "Skill names, comma separated"
// @Param type query string false "Question type name"
// @Param level query int false "Level 1-5"
// @Param q query string false "Search in content"
// @Param limit query int false "Max results"
// @Success 200 {array} dto.QuestionResponseDTO
// @Failure 400 {object} dto.ErrorResponse
// @Router /admin/questions [get]
func (c *QuestionController) ListQuestions(ctx *gin.Context) {
	var query dto.QuestionQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		controller.BindFailed(ctx, "Admin ListQuestions", err)
		return
	}
	questions, err := c.bank.ListQuestions(ctx.Request.Context(), query)
	if err != nil {
		controller.RespondError(ctx, "Admin ListQuestions", err)
		return
	}
	ctx.JSON(http.StatusOK, questions)
}

// GetQuestion godoc
// @Summary (Admin) Get a question with its answers
// @Tags Admin - Questions
// @Produce json
// @Param question_id path int true "Question ID"
// @Success 200 {object} dto.QuestionResponseDTO
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/questions/{question_id} [get]
func (c *QuestionController) GetQuestion(ctx *gin.Context) {
	id, ok := controller.ParseID(ctx, "question_id")
	if !ok {
		return
	}
	q, err := c.bank.GetQuestion(ctx.Request.Context(), id)
	if err != nil {
		controller.RespondError(ctx, "Admin GetQuestion", err)
		return
	}
	ctx.JSON(http.StatusOK, q)
}

// DeleteQuestion godoc
// @Summary (Admin) Delete a question and its answers
// @Tags Admin - Questions
// @Produce json
// @Param question_id path int true "Question ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Question is used by an exam or attempt"
// @Router /admin/questions/{question_id} [delete]
func (c *QuestionController) DeleteQuestion(ctx *gin.Context) {
	id, ok := controller.ParseID(ctx, "question_id")
	if !ok {
		return
	}
	if err := c.bank.DeleteQuestion(ctx.Request.Context(), id); err != nil {
		controller.RespondError(ctx, "Admin DeleteQuestion", err)
		return
	}
	ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "Question deleted"})
}

// ResourceQuestions godoc
// @Summary (Admin) Questions of a reading passage or listening resource
// @Tags Admin - Questions
// @Produce json
// @Param type path string true "reading or listening"
// @Param resource_id path int true "Resource ID"
// @Success 200 {array} dto.QuestionResponseDTO
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/resources/{type}/{resource_id}/questions [get]
func (c *QuestionController) ResourceQuestions(ctx *gin.Context) {
	id, ok := controller.ParseID(ctx, "resource_id")
	if !ok {
		return
	}
	questions, err := c.bank.ResourceQuestions(ctx.Request.Context(), ctx.Param("type"), id)
	if err != nil {
		controller.RespondError(ctx, "Admin ResourceQuestions", err)
		return
	}
	ctx.JSON(http.StatusOK, questions)
}

// DeleteResource godoc
// @Summary (Admin) Delete a reading passage or listening resource
// @Description Child questions stay in the bank without a parent.
// @Tags Admin - Questions
// @Produce json
// @Param type path string true "reading or listening"
// @Param resource_id path int true "Resource ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/resources/{type}/{resource_id} [delete]
func (c *QuestionController) DeleteResource(ctx *gin.Context) {
	id, ok := controller.ParseID(ctx, "resource_id")
	if !ok {
		return
	}
	if err := c.bank.DeleteResource(ctx.Request.Context(), ctx.Param("type"), id); err != nil {
		controller.RespondError(ctx, "Admin DeleteResource", err)
		return
	}
	ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "Resource deleted"})
}
