// Package controller holds helpers shared by the admin and user HTTP handlers.
package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/examhub/internal/dto"
	"github.com/lshigami/examhub/internal/importer"
	"github.com/lshigami/examhub/internal/model"
	"github.com/lshigami/examhub/internal/service"
	"github.com/rs/zerolog/log"
)

// ParseID reads a positive integer path parameter. On failure it writes a 400
// response and returns false.
func ParseID(ctx *gin.Context, name string) (uint, bool) {
	raw := ctx.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid " + name + " format"})
		return 0, false
	}
	return uint(id), true
}

// OptionalUintQuery reads an optional positive integer query parameter.
func OptionalUintQuery(ctx *gin.Context, name string) (*uint, bool) {
	raw := ctx.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid " + name + " format in query"})
		return nil, false
	}
	id := uint(v)
	return &id, true
}

// BindFailed answers a request whose body or query did not bind.
func BindFailed(ctx *gin.Context, op string, err error) {
	log.Warn().Err(err).Msg(op + ": failed to bind request")
	ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request", Details: []string{err.Error()}})
}

// StatusFor maps domain errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrExamNotFound),
		errors.Is(err, model.ErrPartNotFound),
		errors.Is(err, model.ErrQuestionNotFound),
		errors.Is(err, model.ErrStructureNotFound),
		errors.Is(err, model.ErrAttemptNotFound),
		errors.Is(err, model.ErrResourceNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrQuestionInUse),
		errors.Is(err, model.ErrStructureExists):
		return http.StatusConflict
	case errors.Is(err, model.ErrExamClosed):
		return http.StatusForbidden
	case errors.Is(err, model.ErrInvalidSkillType),
		errors.Is(err, model.ErrInvalidQuestionType),
		errors.Is(err, model.ErrInvalidResourceType),
		errors.Is(err, model.ErrInvalidScore),
		errors.Is(err, model.ErrEmptyExam),
		errors.Is(err, model.ErrDuplicateStructurePart),
		errors.Is(err, importer.ErrUnknownSheetType),
		errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrAssistantUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// RespondError writes err as a dto.ErrorResponse with the mapped status.
func RespondError(ctx *gin.Context, op string, err error) {
	status := StatusFor(err)
	resp := dto.ErrorResponse{Message: err.Error()}
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		resp.Message = ve.Err.Error()
		resp.Details = ve.Details
	}
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg(op + ": service error")
		resp.Message = "Internal server error"
		resp.Details = []string{err.Error()}
	} else {
		log.Warn().Err(err).Int("status", status).Msg(op + ": request rejected")
	}
	ctx.JSON(status, resp)
}
