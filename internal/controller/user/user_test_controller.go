package user

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/examhub/internal/controller"
	"github.com/lshigami/examhub/internal/dto"
	"github.com/lshigami/examhub/internal/grading"
	"github.com/lshigami/examhub/internal/repository"
	"github.com/lshigami/examhub/internal/service"
	"github.com/rs/zerolog/log"
)

// Form field prefixes of a submission; the suffix is the question id.
const (
	answerFieldPrefix = "answer_"
	textFieldPrefix   = "text_"
	audioFieldPrefix  = "audio_answer_"

	maxSubmissionMemory = 32 << 20
)

type UserTestController struct {
	userTestService       service.UserTestService
	testSubmissionService service.TestSubmissionService
}

func NewUserTestController(uts service.UserTestService, tss service.TestSubmissionService) *UserTestController {
	return &UserTestController{
		userTestService:       uts,
		testSubmissionService: tss,
	}
}

// ListExams godoc
// @Summary (User) List exams open for submissions
// @Tags User - Exams & Attempts
// @Produce json
// @Success 200 {array} dto.ExamSummaryDTO
// @Failure 500 {object} dto.ErrorResponse
// @Router /exams [get]
func (c *UserTestController) ListExams(ctx *gin.Context) {
	exams, err := c.userTestService.ListOpenExams(ctx.Request.Context())
	if err != nil {
		controller.RespondError(ctx, "User ListExams", err)
		return
	}
	ctx.JSON(http.StatusOK, exams)
}

// GetExam godoc
// @Summary (User) Get an exam to take
// @Description Parts and questions in order, without correct answers or explanations.
// @Tags User - Exams & Attempts
// @Produce json
// @Param exam_id path int true "Exam ID"
// @Success 200 {object} dto.ExamResponseDTO
// @Failure 403 {object} dto.ErrorResponse "Exam closed"
// @Failure 404 {object} dto.ErrorResponse
// @Router /exams/{exam_id} [get]
func (c *UserTestController) GetExam(ctx *gin.Context) {
	examID, ok := controller.ParseID(ctx, "exam_id")
	if !ok {
		return
	}
	exam, err := c.userTestService.GetExamForStudent(ctx.Request.Context(), examID)
	if err != nil {
		controller.RespondError(ctx, "User GetExam", err)
		return
	}
	ctx.JSON(http.StatusOK, exam)
}

// parseSubmission reads student_id, started_at, answer_<qid>, text_<qid> and
// audio_answer_<qid> from a multipart form. The returned closers must be
// closed once the submission is processed.
func parseSubmission(form *multipart.Form) (service.SubmitRequest, []io.Closer, error) {
	req := service.SubmitRequest{Answers: grading.Submission{
		SelectedAnswers: map[uint]uint{},
		TextAnswers:     map[uint]string{},
		Audio:           map[uint]grading.Audio{},
	}}

	studentID, err := strconv.ParseUint(firstValue(form, "student_id"), 10, 32)
	if err != nil || studentID == 0 {
		return req, nil, fmt.Errorf("%w: student_id is required", service.ErrInvalidInput)
	}
	req.StudentID = uint(studentID)

	if raw := firstValue(form, "started_at"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return req, nil, fmt.Errorf("%w: started_at must be RFC3339", service.ErrInvalidInput)
		}
		req.StartedAt = &t
	}

	for field, values := range form.Value {
		if len(values) == 0 {
			continue
		}
		switch {
		case strings.HasPrefix(field, answerFieldPrefix):
			qid, err := questionID(field, answerFieldPrefix)
			if err != nil {
				return req, nil, err
			}
			aid, err := strconv.ParseUint(strings.TrimSpace(values[0]), 10, 32)
			if err != nil {
				return req, nil, fmt.Errorf("%w: %s must be an answer id", service.ErrInvalidInput, field)
			}
			req.Answers.SelectedAnswers[qid] = uint(aid)
		case strings.HasPrefix(field, textFieldPrefix):
			qid, err := questionID(field, textFieldPrefix)
			if err != nil {
				return req, nil, err
			}
			req.Answers.TextAnswers[qid] = values[0]
		}
	}

	var closers []io.Closer
	for field, files := range form.File {
		if !strings.HasPrefix(field, audioFieldPrefix) || len(files) == 0 || files[0].Size == 0 {
			continue
		}
		qid, err := questionID(field, audioFieldPrefix)
		if err != nil {
			closeAll(closers)
			return req, nil, err
		}
		f, err := files[0].Open()
		if err != nil {
			closeAll(closers)
			return req, nil, fmt.Errorf("open %s: %w", field, err)
		}
		closers = append(closers, f)
		req.Answers.Audio[qid] = grading.Audio{FileName: files[0].Filename, Content: f}
	}
	return req, closers, nil
}

func firstValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}

func questionID(field, prefix string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimPrefix(field, prefix), 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: field %q does not name a question id", service.ErrInvalidInput, field)
	}
	return uint(id), nil
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		_ = c.Close()
	}
}

// SubmitExam godoc
// @Summary (User) Submit answers for an exam
// @Description Multipart form: student_id, optional started_at (RFC3339), answer_<question_id>=<answer_id> for choice questions, text_<question_id> for essays and file audio_answer_<question_id> for speaking questions. Choice questions are scored immediately; essays and recordings wait for a grader.
// @Tags User - Exams & Attempts
// @Accept multipart/form-data
// @Produce json
// @Param exam_id path int true "Exam ID"
// @Param student_id formData int true "Student ID"
// @Param started_at formData string false "Start time, RFC3339"
// @Success 201 {object} dto.TestAttemptDetailDTO
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse "Exam closed"
// @Failure 404 {object} dto.ErrorResponse
// @Router /exams/{exam_id}/attempts [post]
func (c *UserTestController) SubmitExam(ctx *gin.Context) {
	examID, ok := controller.ParseID(ctx, "exam_id")
	if !ok {
		return
	}
	if err := ctx.Request.ParseMultipartForm(maxSubmissionMemory); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Submission must be a multipart form", Details: []string{err.Error()}})
		return
	}
	req, closers, err := parseSubmission(ctx.Request.MultipartForm)
	if err != nil {
		controller.RespondError(ctx, "User SubmitExam", err)
		return
	}
	defer closeAll(closers)

	log.Info().Uint("examID", examID).Uint("studentID", req.StudentID).
		Int("choices", len(req.Answers.SelectedAnswers)).Int("texts", len(req.Answers.TextAnswers)).Int("recordings", len(req.Answers.Audio)).
		Msg("User SubmitExam: received submission")
	detail, err := c.testSubmissionService.SubmitExam(ctx.Request.Context(), examID, req)
	if err != nil {
		controller.RespondError(ctx, "User SubmitExam", err)
		return
	}
	ctx.Header("Location", fmt.Sprintf("/api/v1/attempts/%d", detail.ID))
	ctx.JSON(http.StatusCreated, detail)
}

// GetAttempt godoc
// @Summary (User) Get the result of an attempt
// @Tags User - Exams & Attempts
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Success 200 {object} dto.TestAttemptDetailDTO
// @Failure 404 {object} dto.ErrorResponse
// @Router /attempts/{attempt_id} [get]
func (c *UserTestController) GetAttempt(ctx *gin.Context) {
	attemptID, ok := controller.ParseID(ctx, "attempt_id")
	if !ok {
		return
	}
	detail, err := c.testSubmissionService.GetAttempt(ctx.Request.Context(), attemptID)
	if err != nil {
		controller.RespondError(ctx, "User GetAttempt", err)
		return
	}
	ctx.JSON(http.StatusOK, detail)
}

// GetStudentAttempts godoc
// @Summary (User) Attempts of a student
// @Tags User - Exams & Attempts
// @Produce json
// @Param student_id path int true "Student ID"
// @Param exam_id query int false "Only this exam"
// @Success 200 {array} dto.TestAttemptSummaryDTO
// @Router /students/{student_id}/attempts [get]
func (c *UserTestController) GetStudentAttempts(ctx *gin.Context) {
	studentID, ok := controller.ParseID(ctx, "student_id")
	if !ok {
		return
	}
	examID, ok := controller.OptionalUintQuery(ctx, "exam_id")
	if !ok {
		return
	}
	attempts, err := c.testSubmissionService.ListAttempts(ctx.Request.Context(), repository.AttemptFilter{ExamID: examID, StudentID: &studentID})
	if err != nil {
		controller.RespondError(ctx, "User GetStudentAttempts", err)
		return
	}
	ctx.JSON(http.StatusOK, attempts)
}
