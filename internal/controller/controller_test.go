package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/examhub/internal/dto"
	"github.com/lshigami/examhub/internal/importer"
	"github.com/lshigami/examhub/internal/model"
	"github.com/lshigami/examhub/internal/service"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{model.ErrExamNotFound, http.StatusNotFound},
		{fmt.Errorf("load: %w", model.ErrResourceNotFound), http.StatusNotFound},
		{model.ErrQuestionInUse, http.StatusConflict},
		{model.ErrStructureExists, http.StatusConflict},
		{model.ErrExamClosed, http.StatusForbidden},
		{model.ErrInvalidScore, http.StatusBadRequest},
		{model.ErrEmptyExam, http.StatusBadRequest},
		{importer.ErrUnknownSheetType, http.StatusBadRequest},
		{&service.ValidationError{Err: model.ErrDuplicateStructurePart}, http.StatusBadRequest},
		{service.ErrAssistantUnavailable, http.StatusServiceUnavailable},
		{errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := StatusFor(tc.err); got != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, got)
		}
	}
}

func TestRespondErrorIncludesValidationDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)

	RespondError(ctx, "test", &service.ValidationError{Err: service.ErrInvalidInput, Details: []string{"a", "b"}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var body dto.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Message != service.ErrInvalidInput.Error() || len(body.Details) != 2 {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestRespondErrorHidesInternalMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)

	RespondError(ctx, "test", errors.New("pq: relation does not exist"))
	var body dto.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if w.Code != http.StatusInternalServerError || body.Message != "Internal server error" {
		t.Fatalf("unexpected response %d %+v", w.Code, body)
	}
}

func TestParseID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for raw, ok := range map[string]bool{"12": true, "0": false, "-3": false, "abc": false} {
		w := httptest.NewRecorder()
		ctx, _ := gin.CreateTestContext(w)
		ctx.Params = gin.Params{{Key: "exam_id", Value: raw}}

		id, got := ParseID(ctx, "exam_id")
		if got != ok {
			t.Fatalf("%q: expected ok=%v", raw, ok)
		}
		if ok && id != 12 {
			t.Fatalf("%q: unexpected id %d", raw, id)
		}
		if !ok && w.Code != http.StatusBadRequest {
			t.Fatalf("%q: expected 400, got %d", raw, w.Code)
		}
	}
}
