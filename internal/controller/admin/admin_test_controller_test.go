package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/examhub/internal/cache"
	"github.com/lshigami/examhub/internal/dto"
	"github.com/lshigami/examhub/internal/model"
	"github.com/lshigami/examhub/internal/repository/repotest"
	"github.com/lshigami/examhub/internal/service"
)

func examRouter() (*gin.Engine, *repotest.Store) {
	gin.SetMode(gin.TestMode)
	store := repotest.New()
	keys := cache.NewMemoryStore(cache.NewExamLoader(store.Repos().Exams), time.Minute)
	ctrl := NewAdminExamController(service.NewExamAssemblyService(store, keys), service.NewStructureService(store))

	r := gin.New()
	admin := r.Group("/api/v1/admin")
	admin.POST("/structures", ctrl.CreateStructure)
	admin.GET("/structures", ctrl.ListStructures)
	admin.POST("/structures/yaml", ctrl.LoadStructures)
	admin.POST("/exams", ctrl.CreateExam)
	admin.GET("/exams/:exam_id", ctrl.GetExam)
	admin.POST("/exams/:exam_id/instantiate", ctrl.InstantiateStructure)
	admin.POST("/exams/:exam_id/parts", ctrl.AddPart)
	admin.GET("/exams/:exam_id/available-questions", ctrl.AvailableQuestions)
	admin.DELETE("/parts/:part_id", ctrl.DeletePart)
	admin.POST("/parts/:part_id/questions", ctrl.AddQuestion)
	admin.POST("/parts/:part_id/resource-groups", ctrl.AddResourceGroup)
	admin.DELETE("/parts/:part_id/questions/:question_id", ctrl.RemoveQuestion)
	return r, store
}

func doJSON(t *testing.T, r *gin.Engine, method, url string, body interface{}, out interface{}) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if out != nil && w.Code < 300 {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, url, err, w.Body.String())
		}
	}
	return w.Code
}

func TestExamAuthoringFlow(t *testing.T) {
	r, store := examRouter()
	yes, no := true, false
	passages := []model.ReadingPassage{{
		Title:   "Bees",
		Content: "Honey bees live in colonies.",
		Questions: []model.Question{
			{Content: "How many queens?", SkillType: model.SkillReading, QuestionType: model.QuestionSingleChoice, Level: 1,
				Answers: []model.Answer{{Content: "One", IsCorrect: &yes}, {Content: "Two", IsCorrect: &no}}},
			{Content: "Where do bees live?", SkillType: model.SkillReading, QuestionType: model.QuestionSingleChoice, Level: 1,
				Answers: []model.Answer{{Content: "Hives", IsCorrect: &yes}, {Content: "Caves", IsCorrect: &no}}},
		},
	}}
	if err := store.Repos().Resources.CreatePassages(context.Background(), passages); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var structure dto.StructureResponseDTO
	code := doJSON(t, r, http.MethodPost, "/api/v1/admin/structures", dto.StructureCreateDTO{
		Name:  "Reading only",
		Parts: []dto.StructurePartDTO{{Name: "Reading", OrderIndex: 1, SkillType: "reading"}},
	}, &structure)
	if code != http.StatusCreated {
		t.Fatalf("create structure: %d", code)
	}

	var exam dto.ExamResponseDTO
	code = doJSON(t, r, http.MethodPost, "/api/v1/admin/exams", dto.ExamCreateDTO{
		Title: "Reading test", DurationMinutes: 20, StructureID: &structure.ID,
	}, &exam)
	if code != http.StatusCreated || len(exam.Parts) != 1 {
		t.Fatalf("create exam: %d %+v", code, exam)
	}
	partURL := fmt.Sprintf("/api/v1/admin/parts/%d", exam.Parts[0].ID)

	var added dto.AddQuestionsResultDTO
	two := 2.0
	code = doJSON(t, r, http.MethodPost, partURL+"/resource-groups", dto.AddResourceGroupDTO{
		ResourceID: passages[0].ID, ResourceType: "reading", ScorePerQuestion: &two,
	}, &added)
	if code != http.StatusOK || added.Added != 2 {
		t.Fatalf("add group: %d %+v", code, added)
	}
	code = doJSON(t, r, http.MethodPost, partURL+"/questions", dto.AddQuestionDTO{QuestionID: passages[0].Questions[0].ID}, &added)
	if code != http.StatusOK || added.Skipped != 1 {
		t.Fatalf("re-adding a linked question: %d %+v", code, added)
	}

	examURL := fmt.Sprintf("/api/v1/admin/exams/%d", exam.ID)
	var available []dto.AvailableQuestionDTO
	code = doJSON(t, r, http.MethodGet, examURL+"/available-questions?skill=reading&include_selected=true", nil, &available)
	if code != http.StatusOK || len(available) != 2 || !available[0].AlreadySelected {
		t.Fatalf("available: %d %+v", code, available)
	}

	code = doJSON(t, r, http.MethodGet, examURL, nil, &exam)
	if code != http.StatusOK || exam.MaxScore != 4 || len(exam.Parts[0].Questions) != 2 {
		t.Fatalf("get exam: %d %+v", code, exam)
	}

	code = doJSON(t, r, http.MethodDelete, fmt.Sprintf("%s/questions/%d", partURL, passages[0].Questions[1].ID), nil, nil)
	if code != http.StatusOK {
		t.Fatalf("remove question: %d", code)
	}
	code = doJSON(t, r, http.MethodDelete, partURL, nil, nil)
	if code != http.StatusOK {
		t.Fatalf("delete part: %d", code)
	}
	if c := store.Counts(); c.Parts != 0 || c.Links != 0 || c.Questions != 2 {
		t.Fatalf("unexpected counts %+v", c)
	}
}

func TestExamEndpointsRejectBadInput(t *testing.T) {
	r, _ := examRouter()
	cases := []struct {
		name   string
		method string
		url    string
		body   interface{}
		want   int
	}{
		{"exam without title", http.MethodPost, "/api/v1/admin/exams", map[string]int{"duration_minutes": 10}, http.StatusBadRequest},
		{"unknown exam", http.MethodGet, "/api/v1/admin/exams/404", nil, http.StatusNotFound},
		{"unknown structure", http.MethodPost, "/api/v1/admin/exams/1/instantiate", dto.InstantiateStructureDTO{StructureID: 9}, http.StatusNotFound},
		{"bad skill", http.MethodPost, "/api/v1/admin/exams/1/parts", map[string]string{"name": "X", "skill_type": "cooking"}, http.StatusBadRequest},
		{"negative score", http.MethodPost, "/api/v1/admin/parts/1/questions", map[string]interface{}{"question_id": 1, "score": -2}, http.StatusBadRequest},
		{"negative group score", http.MethodPost, "/api/v1/admin/parts/1/resource-groups", map[string]interface{}{"resource_id": 1, "resource_type": "reading", "score_per_question": -1}, http.StatusBadRequest},
		{"unknown part", http.MethodDelete, "/api/v1/admin/parts/77", nil, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if code := doJSON(t, r, tc.method, tc.url, tc.body, nil); code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, code)
			}
		})
	}
}

func TestStructureEndpoints(t *testing.T) {
	r, _ := examRouter()
	yaml := "structures:\n  - name: TOEIC\n    parts:\n      - {name: Listening, order_index: 1, skill_type: listening}\n      - {name: Reading, order_index: 2, skill_type: reading}\n"

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/admin/structures/yaml", strings.NewReader(yaml)))
	if w.Code != http.StatusOK {
		t.Fatalf("load yaml: %d %s", w.Code, w.Body.String())
	}

	code := doJSON(t, r, http.MethodPost, "/api/v1/admin/structures", dto.StructureCreateDTO{
		Name:  "TOEIC",
		Parts: []dto.StructurePartDTO{{Name: "Reading", OrderIndex: 1, SkillType: "reading"}},
	}, nil)
	if code != http.StatusConflict {
		t.Fatalf("duplicate name: expected 409, got %d", code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/admin/structures", strings.NewReader(
		`{"name":"Dup","parts":[{"name":"A","order_index":1,"skill_type":"reading"},{"name":"a","order_index":2,"skill_type":"reading"}]}`)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate part: expected 400, got %d", w.Code)
	}
	var body dto.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || len(body.Details) != 1 {
		t.Fatalf("expected one detail, got %s", w.Body.String())
	}

	var structures []dto.StructureResponseDTO
	if code := doJSON(t, r, http.MethodGet, "/api/v1/admin/structures", nil, &structures); code != http.StatusOK || len(structures) != 1 {
		t.Fatalf("list: %d %+v", code, structures)
	}
}

func TestAddQuestionAcceptsExplicitZeroScore(t *testing.T) {
	r, store := examRouter()
	yes, no := true, false
	qs := []model.Question{{
		Content: "Warm-up: pick one.", SkillType: model.SkillGrammar, QuestionType: model.QuestionSingleChoice, Level: 1,
		Answers: []model.Answer{{Content: "a", IsCorrect: &yes}, {Content: "b", IsCorrect: &no}},
	}}
	if err := store.Repos().Questions.CreateBatch(context.Background(), qs); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var exam dto.ExamResponseDTO
	if code := doJSON(t, r, http.MethodPost, "/api/v1/admin/exams", dto.ExamCreateDTO{Title: "Practice", DurationMinutes: 5}, &exam); code != http.StatusCreated {
		t.Fatalf("create exam: %d", code)
	}
	examURL := fmt.Sprintf("/api/v1/admin/exams/%d", exam.ID)
	var part dto.ExamPartResponseDTO
	if code := doJSON(t, r, http.MethodPost, examURL+"/parts", map[string]string{"name": "Warm-up", "skill_type": "grammar"}, &part); code != http.StatusCreated {
		t.Fatalf("add part: %d", code)
	}

	var added dto.AddQuestionsResultDTO
	body := map[string]interface{}{"question_id": qs[0].ID, "score": 0}
	if code := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/admin/parts/%d/questions", part.ID), body, &added); code != http.StatusOK || added.Added != 1 {
		t.Fatalf("add question: %d %+v", code, added)
	}
	if code := doJSON(t, r, http.MethodGet, examURL, nil, &exam); code != http.StatusOK {
		t.Fatalf("get exam: %d", code)
	}
	if got := exam.Parts[0].Questions[0].Score; got != 0 || exam.MaxScore != 0 {
		t.Fatalf("expected an unweighted link, got score %v max %v", got, exam.MaxScore)
	}
}
