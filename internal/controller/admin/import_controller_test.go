package admin

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/examhub/internal/dto"
	"github.com/lshigami/examhub/internal/importer"
	"github.com/lshigami/examhub/internal/repository/repotest"
	"github.com/lshigami/examhub/internal/service"
)

func importRouter() (*gin.Engine, *repotest.Store) {
	gin.SetMode(gin.TestMode)
	store := repotest.New()
	ctrl := NewImportController(service.NewImportService(store))
	r := gin.New()
	r.POST("/api/v1/admin/imports", ctrl.ImportQuestions)
	r.GET("/api/v1/admin/imports/template/:type", ctrl.DownloadTemplate)
	r.GET("/api/v1/admin/imports/logs", ctrl.ListImportLogs)
	return r, store
}

func uploadRequest(t *testing.T, url string, workbook []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "questions.xlsx")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(workbook); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, url, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func downloadTemplate(t *testing.T, r *gin.Engine, kind string) []byte {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/admin/imports/template/"+kind, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("template %s: expected 200, got %d", kind, w.Code)
	}
	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="template_`+kind+`.xlsx"` {
		t.Fatalf("unexpected Content-Disposition %q", got)
	}
	return w.Body.Bytes()
}

func TestImportTemplateRoundTripOverHTTP(t *testing.T) {
	r, store := importRouter()
	workbook := downloadTemplate(t, r, "writing")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/api/v1/admin/imports?mode=check", workbook))
	if w.Code != http.StatusOK {
		t.Fatalf("check: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if c := store.Counts(); c.Questions != 0 {
		t.Fatalf("check mode stored questions: %+v", c)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/api/v1/admin/imports?mode=save", workbook))
	if w.Code != http.StatusOK {
		t.Fatalf("save: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var res dto.ImportResultDTO
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.Success || res.SuccessCount != 1 || res.RedirectURL != "/api/v1/admin/questions?skill=writing" {
		t.Fatalf("unexpected result %+v", res)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/admin/imports/logs", nil))
	var logs []dto.ImportLogDTO
	if err := json.Unmarshal(w.Body.Bytes(), &logs); err != nil || len(logs) != 1 || !logs[0].Committed {
		t.Fatalf("unexpected import logs %s", w.Body.String())
	}
}

func TestImportRejectsInvalidUploads(t *testing.T) {
	r, store := importRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/api/v1/admin/imports?mode=save", []byte("plain text")))
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unreadable workbook: expected 422, got %d", w.Code)
	}
	var res dto.ImportResultDTO
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Success || len(res.Errors) != 1 || res.Errors[0].Row != 0 {
		t.Fatalf("unexpected result %+v", res)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/api/v1/admin/imports?mode=overwrite", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown mode: expected 400, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/admin/imports", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing file: expected 400, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/admin/imports/template/math", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown template: expected 400, got %d", w.Code)
	}
	if c := store.Counts(); c.Questions != 0 {
		t.Fatalf("rejected uploads stored questions: %+v", c)
	}
}

func TestDownloadedTemplatesAreValid(t *testing.T) {
	r, _ := importRouter()
	for _, kind := range []string{"reading", "listening", "grammar", "speaking"} {
		workbook := downloadTemplate(t, r, kind)
		grid, err := importer.ReadExcel(bytes.NewReader(workbook))
		if err != nil {
			t.Fatalf("%s: read: %v", kind, err)
		}
		plan, err := importer.ScanSheet(grid)
		if err != nil || plan.HasErrors() {
			t.Fatalf("%s: template does not validate: %v %+v", kind, err, plan)
		}
	}
}
