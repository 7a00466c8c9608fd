package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/examhub/internal/controller"
	"github.com/lshigami/examhub/internal/dto"
	"github.com/lshigami/examhub/internal/importer"
	"github.com/lshigami/examhub/internal/service"
	"github.com/rs/zerolog/log"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ImportController struct {
	imports service.ImportService
}

func NewImportController(imports service.ImportService) *ImportController {
	return &ImportController{imports: imports}
}

// ImportQuestions godoc
// @Summary (Admin) Import questions from a spreadsheet
// @Description Validates every row of the workbook and reports all errors by row. In save mode the batch is committed only when no row has an error.
// @Tags Admin - Imports
// @Accept multipart/form-data
// @Produce json
// @Param mode query string false "check (default) or save"
// @Param file formData file true "xlsx workbook"
// @Success 200 {object} dto.ImportResultDTO
// @Failure 400 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ImportResultDTO "Validation failed, nothing saved"
// @Router /admin/imports [post]
func (c *ImportController) ImportQuestions(ctx *gin.Context) {
	mode, err := importer.ParseMode(ctx.Query("mode"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: err.Error()})
		return
	}
	fh, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "A spreadsheet must be uploaded in the 'file' field"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		controller.RespondError(ctx, "Admin ImportQuestions", err)
		return
	}
	defer f.Close()

	log.Info().Str("file", fh.Filename).Int64("size", fh.Size).Str("mode", string(mode)).Msg("Admin ImportQuestions: received workbook")
	res := c.imports.Import(ctx.Request.Context(), service.ImportRequest{FileName: fh.Filename, Content: f, Mode: mode})
	if !res.Success {
		ctx.JSON(http.StatusUnprocessableEntity, res)
		return
	}
	ctx.JSON(http.StatusOK, res)
}

// DownloadTemplate godoc
// @Summary (Admin) Download an import template
// @Tags Admin - Imports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param type path string true "reading, listening, writing, grammar or speaking"
// @Success 200 {file} file
// @Failure 400 {object} dto.ErrorResponse
// @Router /admin/imports/template/{type} [get]
func (c *ImportController) DownloadTemplate(ctx *gin.Context) {
	kind, err := importer.ParseSheetType(ctx.Param("type"))
	if err != nil {
		controller.RespondError(ctx, "Admin DownloadTemplate", err)
		return
	}
	ctx.Header("Content-Type", xlsxContentType)
	ctx.Header("Content-Disposition", `attachment; filename="template_`+kind.String()+`.xlsx"`)
	ctx.Status(http.StatusOK)
	if err := c.imports.WriteTemplate(ctx.Writer, kind); err != nil {
		log.Error().Err(err).Str("type", kind.String()).Msg("Admin DownloadTemplate: failed to write workbook")
		_ = ctx.Error(err)
	}
}

// ListImportLogs godoc
// @Summary (Admin) Recent save-mode imports
// @Tags Admin - Imports
// @Produce json
// @Param limit query int false "Max entries, default 20"
// @Success 200 {array} dto.ImportLogDTO
// @Router /admin/imports/logs [get]
func (c *ImportController) ListImportLogs(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	logs, err := c.imports.RecentImports(ctx.Request.Context(), limit)
	if err != nil {
		controller.RespondError(ctx, "Admin ListImportLogs", err)
		return
	}
	ctx.JSON(http.StatusOK, logs)
}
