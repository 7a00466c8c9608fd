package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/examhub/internal/controller"
	"github.com/lshigami/examhub/internal/dto"
	"github.com/lshigami/examhub/internal/service"
)

// AdminExamController builds exams out of structure templates and bank questions.
type AdminExamController struct {
	assembly   service.ExamAssemblyService
	structures service.StructureService
}

func NewAdminExamController(assembly service.ExamAssemblyService, structures service.StructureService) *AdminExamController {
	return &AdminExamController{assembly: assembly, structures: structures}
}

// CreateExam godoc
// @Summary (Admin) Create an exam
// @Description Creates an exam. When structure_id is given its parts are stamped onto the new exam.
// @Tags Admin - Exams
// @Accept json
// @Produce json
// @Param exam body dto.ExamCreateDTO true "Exam data"
// @Success 201 {object} dto.ExamResponseDTO
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "Structure not found"
// @Router /admin/exams [post]
func (c *AdminExamController) CreateExam(ctx *gin.Context) {
	var req dto.ExamCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.BindFailed(ctx, "Admin CreateExam", err)
		return
	}
	resp, err := c.assembly.CreateExam(ctx.Request.Context(), req)
	if err != nil {
		controller.RespondError(ctx, "Admin CreateExam", err)
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// ListExams godoc
// @Summary (Admin) List exams
// @Tags Admin - Exams
// @Produce json
// @Success 200 {array} dto.ExamSummaryDTO
// @Failure 500 {object} dto.ErrorResponse
// @Router /admin/exams [get]
func (c *AdminExamController) ListExams(ctx *gin.Context) {
	exams, err := c.assembly.ListExams(ctx.Request.Context())
	if err != nil {
		controller.RespondError(ctx, "Admin ListExams", err)
		return
	}
	ctx.JSON(http.StatusOK, exams)
}

// GetExam godoc
// @Summary (Admin) Get an exam with parts, questions and correct answers
// @Tags Admin - Exams
// @Produce json
// @Param exam_id path int true "Exam ID"
// @Success 200 {object} dto.ExamResponseDTO
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/exams/{exam_id} [get]
func (c *AdminExamController) GetExam(ctx *gin.Context) {
	examID, ok := controller.ParseID(ctx, "exam_id")
	if !ok {
		return
	}
	resp, err := c.assembly.GetExam(ctx.Request.Context(), examID)
	if err != nil {
		controller.RespondError(ctx, "Admin GetExam", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// InstantiateStructure godoc
// @Summary (Admin) Stamp a structure template onto an exam
// @Description Copies every part of the structure (name, order, skill). No questions are added.
// @Tags Admin - Exams
// @Accept json
// @Produce json
// @Param exam_id path int true "Exam ID"
// @Param body body dto.InstantiateStructureDTO true "Structure"
// @Success 201 {array} dto.ExamPartResponseDTO
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/exams/{exam_id}/instantiate [post]
func (c *AdminExamController) InstantiateStructure(ctx *gin.Context) {
	examID, ok := controller.ParseID(ctx, "exam_id")
	if !ok {
		return
	}
	var req dto.InstantiateStructureDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.BindFailed(ctx, "Admin InstantiateStructure", err)
		return
	}
	parts, err := c.assembly.Instantiate(ctx.Request.Context(), req.StructureID, examID)
	if err != nil {
		controller.RespondError(ctx, "Admin InstantiateStructure", err)
		return
	}
	ctx.JSON(http.StatusCreated, parts)
}

// AddPart godoc
// @Summary (Admin) Append a free-form part to an exam
// @Tags Admin - Exams
// @Accept json
// @Produce json
// @Param exam_id path int true "Exam ID"
// @Param part body dto.ExamPartCreateDTO true "Part"
// @Success 201 {object} dto.ExamPartResponseDTO
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/exams/{exam_id}/parts [post]
func (c *AdminExamController) AddPart(ctx *gin.Context) {
	examID, ok := controller.ParseID(ctx, "exam_id")
	if !ok {
		return
	}
	var req dto.ExamPartCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.BindFailed(ctx, "Admin AddPart", err)
		return
	}
	part, err := c.assembly.QuickAddPart(ctx.Request.Context(), examID, req)
	if err != nil {
		controller.RespondError(ctx, "Admin AddPart", err)
		return
	}
	ctx.JSON(http.StatusCreated, part)
}

// DeletePart godoc
// @Summary (Admin) Delete an exam part
// @Description Removes the part and its question links. Bank questions are kept.
// @Tags Admin - Exams
// @Produce json
// @Param part_id path int true "Part ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/parts/{part_id} [delete]
func (c *AdminExamController) DeletePart(ctx *gin.Context) {
	partID, ok := controller.ParseID(ctx, "part_id")
	if !ok {
		return
	}
	if err := c.assembly.DeletePart(ctx.Request.Context(), partID); err != nil {
		controller.RespondError(ctx, "Admin DeletePart", err)
		return
	}
	ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "Part deleted"})
}

// AddQuestion godoc
// @Summary (Admin) Add one bank question to a part
// @Description Adding a question that is already in the exam is a no-op reported as skipped.
// @Tags Admin - Exams
// @Accept json
// @Produce json
// @Param part_id path int true "Part ID"
// @Param body body dto.AddQuestionDTO true "Question and score"
// @Success 200 {object} dto.AddQuestionsResultDTO
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/parts/{part_id}/questions [post]
func (c *AdminExamController) AddQuestion(ctx *gin.Context) {
	partID, ok := controller.ParseID(ctx, "part_id")
	if !ok {
		return
	}
	var req dto.AddQuestionDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.BindFailed(ctx, "Admin AddQuestion", err)
		return
	}
	res, err := c.assembly.AddSingleQuestion(ctx.Request.Context(), partID, req)
	if err != nil {
		controller.RespondError(ctx, "Admin AddQuestion", err)
		return
	}
	ctx.JSON(http.StatusOK, res)
}

// AddResourceGroup godoc
// @Summary (Admin) Add all questions of a passage or listening resource to a part
// @Description Questions already in the exam are skipped, so the call can be repeated.
// @Tags Admin - Exams
// @Accept json
// @Produce json
// @Param part_id path int true "Part ID"
// @Param body body dto.AddResourceGroupDTO true "Resource"
// @Success 200 {object} dto.AddQuestionsResultDTO
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/parts/{part_id}/resource-groups [post]
func (c *AdminExamController) AddResourceGroup(ctx *gin.Context) {
	partID, ok := controller.ParseID(ctx, "part_id")
	if !ok {
		return
	}
	var req dto.AddResourceGroupDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.BindFailed(ctx, "Admin AddResourceGroup", err)
		return
	}
	res, err := c.assembly.AddResourceGroup(ctx.Request.Context(), partID, req)
	if err != nil {
		controller.RespondError(ctx, "Admin AddResourceGroup", err)
		return
	}
	ctx.JSON(http.StatusOK, res)
}

// RemoveQuestion godoc
// @Summary (Admin) Remove a question from a part
// @Tags Admin - Exams
// @Produce json
// @Param part_id path int true "Part ID"
// @Param question_id path int true "Question ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/parts/{part_id}/questions/{question_id} [delete]
func (c *AdminExamController) RemoveQuestion(ctx *gin.Context) {
	partID, ok := controller.ParseID(ctx, "part_id")
	if !ok {
		return
	}
	questionID, ok := controller.ParseID(ctx, "question_id")
	if !ok {
		return
	}
	if err := c.assembly.RemoveQuestion(ctx.Request.Context(), partID, questionID); err != nil {
		controller.RespondError(ctx, "Admin RemoveQuestion", err)
		return
	}
	ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "Question removed from part"})
}

// AvailableQuestions godoc
// @Summary (Admin) Bank questions for the exam picker
// @Description Questions already placed in the exam are hidden unless include_selected=true, and flagged already_selected.
// @Tags Admin - Exams
// @Produce json
// @Param exam_id path int true "Exam ID"
// @Param skill query string false "Skill names, comma separated"
// @Param type query string false "Question type name"
// @Param level query int false "Level 1-5"
// @Param q query string false "Search in content"
// @Param include_selected query bool false "Include questions already in the exam"
// @Success 200 {array} dto.AvailableQuestionDTO
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/exams/{exam_id}/available-questions [get]
func (c *AdminExamController) AvailableQuestions(ctx *gin.Context) {
	examID, ok := controller.ParseID(ctx, "exam_id")
	if !ok {
		return
	}
	var query dto.QuestionQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		controller.BindFailed(ctx, "Admin AvailableQuestions", err)
		return
	}
	questions, err := c.assembly.AvailableQuestions(ctx.Request.Context(), examID, query)
	if err != nil {
		controller.RespondError(ctx, "Admin AvailableQuestions", err)
		return
	}
	ctx.JSON(http.StatusOK, questions)
}

// CreateStructure godoc
// @Summary (Admin) Create an exam structure template
// @Description Rejects duplicate order indexes and duplicate part names, listing every problem.
// @Tags Admin - Structures
// @Accept json
// @Produce json
// @Param structure body dto.StructureCreateDTO true "Structure"
// @Success 201 {object} dto.StructureResponseDTO
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Name already exists"
// @Router /admin/structures [post]
func (c *AdminExamController) CreateStructure(ctx *gin.Context) {
	var req dto.StructureCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.BindFailed(ctx, "Admin CreateStructure", err)
		return
	}
	resp, err := c.structures.CreateStructure(ctx.Request.Context(), req)
	if err != nil {
		controller.RespondError(ctx, "Admin CreateStructure", err)
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// ListStructures godoc
// @Summary (Admin) List exam structure templates
// @Tags Admin - Structures
// @Produce json
// @Success 200 {array} dto.StructureResponseDTO
// @Router /admin/structures [get]
func (c *AdminExamController) ListStructures(ctx *gin.Context) {
	structures, err := c.structures.ListStructures(ctx.Request.Context())
	if err != nil {
		controller.RespondError(ctx, "Admin ListStructures", err)
		return
	}
	ctx.JSON(http.StatusOK, structures)
}

// LoadStructures godoc
// @Summary (Admin) Seed structure templates from YAML
// @Description Body is a YAML document with a top-level structures list. Existing names are skipped.
// @Tags Admin - Structures
// @Accept plain
// @Produce json
// @Success 200 {object} dto.StructureLoadResultDTO
// @Failure 400 {object} dto.ErrorResponse
// @Router /admin/structures/yaml [post]
func (c *AdminExamController) LoadStructures(ctx *gin.Context) {
	res, err := c.structures.LoadStructuresYAML(ctx.Request.Context(), ctx.Request.Body)
	if err != nil {
		controller.RespondError(ctx, "Admin LoadStructures", err)
		return
	}
	ctx.JSON(http.StatusOK, res)
}
