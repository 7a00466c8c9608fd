package user

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/examhub/internal/cache"
	"github.com/lshigami/examhub/internal/dto"
	"github.com/lshigami/examhub/internal/model"
	"github.com/lshigami/examhub/internal/repository/repotest"
	"github.com/lshigami/examhub/internal/service"
	"github.com/lshigami/examhub/internal/storage"
	"github.com/spf13/afero"
)

type formFile struct {
	field, name, body string
}

func multipartBody(t *testing.T, values map[string]string, files ...formFile) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range values {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.name)
		if err != nil {
			t.Fatalf("create file: %v", err)
		}
		if _, err := io.WriteString(part, f.body); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func parseForm(t *testing.T, body *bytes.Buffer, contentType string) *multipart.Form {
	t.Helper()
	boundary := contentType[len("multipart/form-data; boundary="):]
	form, err := multipart.NewReader(body, boundary).ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	return form
}

func TestParseSubmission(t *testing.T) {
	body, ct := multipartBody(t, map[string]string{
		"student_id": "8",
		"started_at": "2026-03-01T10:00:00Z",
		"answer_3":   "12",
		"text_4":     "I grew up by the sea.",
		"note":       "ignored",
	}, formFile{"audio_answer_5", "rec.webm", "RIFF"}, formFile{"audio_answer_6", "empty.webm", ""})
	form := parseForm(t, body, ct)
	defer form.RemoveAll()

	req, closers, err := parseSubmission(form)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	defer closeAll(closers)

	if req.StudentID != 8 || req.StartedAt == nil || !req.StartedAt.Equal(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected header fields %+v", req)
	}
	if req.Answers.SelectedAnswers[3] != 12 || len(req.Answers.SelectedAnswers) != 1 {
		t.Fatalf("unexpected choices %+v", req.Answers.SelectedAnswers)
	}
	if req.Answers.TextAnswers[4] != "I grew up by the sea." {
		t.Fatalf("unexpected texts %+v", req.Answers.TextAnswers)
	}
	if len(req.Answers.Audio) != 1 || req.Answers.Audio[5].FileName != "rec.webm" {
		t.Fatalf("expected only the non-empty recording, got %+v", req.Answers.Audio)
	}
	got, _ := io.ReadAll(req.Answers.Audio[5].Content)
	if string(got) != "RIFF" || len(closers) != 1 {
		t.Fatalf("unexpected audio %q with %d closers", got, len(closers))
	}
}

func TestParseSubmissionRejectsBadFields(t *testing.T) {
	cases := map[string]map[string]string{
		"missing student":  {"answer_3": "12"},
		"bad started_at":   {"student_id": "1", "started_at": "yesterday"},
		"bad question id":  {"student_id": "1", "answer_x": "12"},
		"bad answer value": {"student_id": "1", "answer_3": "B"},
	}
	for name, values := range cases {
		t.Run(name, func(t *testing.T) {
			body, ct := multipartBody(t, values)
			form := parseForm(t, body, ct)
			defer form.RemoveAll()
			if _, _, err := parseSubmission(form); !errors.Is(err, service.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func newRouter(t *testing.T) (*gin.Engine, *repotest.Store, uint, model.Question) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	store := repotest.New()
	keys := cache.NewMemoryStore(cache.NewExamLoader(store.Repos().Exams), time.Minute)
	media := storage.NewMediaStore(afero.NewMemMapFs(), "/srv", "uploads")
	assembly := service.NewExamAssemblyService(store, keys)

	yes, no := true, false
	qs := []model.Question{{
		Content: "She ____ here.", SkillType: model.SkillGrammar, QuestionType: model.QuestionSingleChoice, Level: 1,
		Answers: []model.Answer{{Content: "lives", IsCorrect: &yes}, {Content: "live", IsCorrect: &no}},
	}}
	if err := store.Repos().Questions.CreateBatch(ctx, qs); err != nil {
		t.Fatalf("seed: %v", err)
	}
	exam, err := assembly.CreateExam(ctx, dto.ExamCreateDTO{Title: "Quiz", DurationMinutes: 10})
	if err != nil {
		t.Fatalf("create exam: %v", err)
	}
	part, err := assembly.QuickAddPart(ctx, exam.ID, dto.ExamPartCreateDTO{Name: "Grammar", SkillType: "grammar"})
	if err != nil {
		t.Fatalf("add part: %v", err)
	}
	two := 2.0
	if _, err := assembly.AddSingleQuestion(ctx, part.ID, dto.AddQuestionDTO{QuestionID: qs[0].ID, Score: &two}); err != nil {
		t.Fatalf("link: %v", err)
	}

	ctrl := NewUserTestController(
		service.NewUserTestService(store),
		service.NewTestSubmissionService(store, keys, media, service.NewScoreConverterService()),
	)
	r := gin.New()
	r.GET("/api/v1/exams/:exam_id", ctrl.GetExam)
	r.POST("/api/v1/exams/:exam_id/attempts", ctrl.SubmitExam)
	r.GET("/api/v1/attempts/:attempt_id", ctrl.GetAttempt)
	r.GET("/api/v1/students/:student_id/attempts", ctrl.GetStudentAttempts)
	return r, store, exam.ID, qs[0]
}

func TestSubmitExamEndpoint(t *testing.T) {
	r, store, examID, q := newRouter(t)
	examPath := "/api/v1/exams/" + strconv.FormatUint(uint64(examID), 10)

	body, ct := multipartBody(t, map[string]string{
		"student_id": "5",
		"answer_" + strconv.FormatUint(uint64(q.ID), 10): strconv.FormatUint(uint64(q.Answers[0].ID), 10),
	})
	req := httptest.NewRequest(http.MethodPost, examPath+"/attempts", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var detail dto.TestAttemptDetailDTO
	if err := json.Unmarshal(w.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if detail.Score != 2 || detail.MaxScore != 2 || detail.Status != model.AttemptGraded {
		t.Fatalf("unexpected attempt %+v", detail)
	}
	location := w.Header().Get("Location")
	if location != "/api/v1/attempts/"+strconv.FormatUint(uint64(detail.ID), 10) {
		t.Fatalf("unexpected Location %q", location)
	}
	if c := store.Counts(); c.Attempts != 1 || c.Results != 1 {
		t.Fatalf("unexpected counts %+v", c)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, location, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("get attempt: %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/students/5/attempts", nil))
	var attempts []dto.TestAttemptSummaryDTO
	if err := json.Unmarshal(w.Body.Bytes(), &attempts); err != nil || len(attempts) != 1 {
		t.Fatalf("expected one attempt for the student, got %s", w.Body.String())
	}
}

func TestSubmitExamErrors(t *testing.T) {
	r, _, examID, _ := newRouter(t)

	cases := []struct {
		name   string
		path   string
		values map[string]string
		want   int
	}{
		{"missing student", "/api/v1/exams/" + strconv.FormatUint(uint64(examID), 10) + "/attempts", map[string]string{}, http.StatusBadRequest},
		{"unknown exam", "/api/v1/exams/999/attempts", map[string]string{"student_id": "1"}, http.StatusNotFound},
		{"bad id", "/api/v1/exams/abc/attempts", map[string]string{"student_id": "1"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, ct := multipartBody(t, tc.values)
			req := httptest.NewRequest(http.MethodPost, tc.path, body)
			req.Header.Set("Content-Type", ct)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, w.Code, w.Body.String())
			}
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/exams/1/attempts", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("non-multipart body: expected 400, got %d", w.Code)
	}
}

func TestGetExamHidesCorrectAnswers(t *testing.T) {
	r, _, examID, _ := newRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/exams/"+strconv.FormatUint(uint64(examID), 10), nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if bytes.Contains(w.Body.Bytes(), []byte("is_correct")) {
		t.Fatalf("student view leaked correctness: %s", w.Body.String())
	}
}
