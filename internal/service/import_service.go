package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/lshigami/examhub/internal/dto"
	"github.com/lshigami/examhub/internal/importer"
	"github.com/lshigami/examhub/internal/model"
	"github.com/lshigami/examhub/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

// ImportRequest is one uploaded workbook.
type ImportRequest struct {
	FileName string
	Content  io.Reader
	Mode     importer.Mode
}

type ImportService interface {
	// Import validates a workbook and, in save mode, commits it as a whole or not at all.
	Import(ctx context.Context, req ImportRequest) *dto.ImportResultDTO
	// ImportGrid runs the same pipeline on an already parsed grid.
	ImportGrid(ctx context.Context, fileName string, grid importer.Grid, mode importer.Mode) *dto.ImportResultDTO
	WriteTemplate(w io.Writer, kind importer.SheetType) error
	RecentImports(ctx context.Context, limit int) ([]dto.ImportLogDTO, error)
}

type importService struct {
	store repository.Store
}

func NewImportService(store repository.Store) ImportService {
	return &importService{store: store}
}

func systemFailure(mode importer.Mode, format string, args ...interface{}) *dto.ImportResultDTO {
	msg := fmt.Sprintf(format, args...)
	return &dto.ImportResultDTO{
		Success:      false,
		Message:      msg,
		Mode:         string(mode),
		InvalidCount: 1,
		Errors:       []importer.RowError{{Row: 0, Message: msg}},
	}
}

func (s *importService) Import(ctx context.Context, req ImportRequest) *dto.ImportResultDTO {
	grid, err := importer.ReadExcel(req.Content)
	if err != nil {
		log.Warn().Err(err).Str("file", req.FileName).Msg("Import: unreadable workbook")
		return systemFailure(req.Mode, "Could not read the spreadsheet: %v", err)
	}
	return s.ImportGrid(ctx, req.FileName, grid, req.Mode)
}

func (s *importService) ImportGrid(ctx context.Context, fileName string, grid importer.Grid, mode importer.Mode) *dto.ImportResultDTO {
	kind, err := importer.DetectType(grid)
	if err != nil {
		log.Info().Str("file", fileName).Msg("Import: rejected, unknown sheet type")
		return systemFailure(mode, "Unrecognised sheet type in cell A%d; expected one of %s", importer.TypeRow, importer.KnownDiscriminators())
	}

	plan := importer.Scan(kind, grid)
	res := &dto.ImportResultDTO{
		SheetType:    kind.String(),
		Mode:         string(mode),
		ValidCount:   plan.ValidCount,
		InvalidCount: plan.InvalidCount,
		Errors:       plan.Errors,
	}
	if res.Errors == nil {
		res.Errors = []importer.RowError{}
	}

	if mode == importer.ModeCheck {
		res.Success = plan.Admissible()
		res.Message = summary(plan, false)
		return res
	}

	committed := false
	if plan.Admissible() {
		if err := s.commit(ctx, plan); err != nil {
			log.Error().Err(err).Str("file", fileName).Str("type", kind.String()).Msg("Import: commit failed, batch rolled back")
			res = systemFailure(mode, "Import failed and was rolled back: %v", err)
			res.SheetType = kind.String()
			s.record(ctx, kind, fileName, false, plan.ValidCount, res.Errors)
			return res
		}
		committed = true
	}

	res.Success = committed
	res.Message = summary(plan, committed)
	if committed {
		res.SuccessCount = plan.QuestionCount()
		res.RedirectURL = "/api/v1/admin/questions?skill=" + kind.Skill().String()
		log.Info().Str("file", fileName).Str("type", kind.String()).Int("questions", res.SuccessCount).Msg("Import: batch committed")
	}
	s.record(ctx, kind, fileName, committed, plan.ValidCount, res.Errors)
	return res
}

// commit persists the plan in one transaction. A panic inside the unit of work
// is turned into an error so the transaction rolls back.
func (s *importService) commit(ctx context.Context, plan *importer.Plan) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected failure: %v", r)
		}
	}()
	return s.store.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Resources.CreatePassages(ctx, plan.Passages); err != nil {
			return fmt.Errorf("create passages: %w", err)
		}
		if err := tx.Resources.CreateListeningResources(ctx, plan.ListeningResources); err != nil {
			return fmt.Errorf("create listening resources: %w", err)
		}
		if err := tx.Questions.CreateBatch(ctx, plan.Questions); err != nil {
			return fmt.Errorf("create questions: %w", err)
		}
		return nil
	})
}

func summary(plan *importer.Plan, committed bool) string {
	switch {
	case committed:
		return fmt.Sprintf("Imported %d questions", plan.QuestionCount())
	case plan.HasErrors():
		return fmt.Sprintf("Found %d errors in %d rows; nothing was saved", len(plan.Errors), plan.InvalidCount)
	case plan.ValidCount == 0:
		return "The sheet contains no question rows"
	}
	return fmt.Sprintf("All %d rows are valid", plan.ValidCount)
}

// record writes the import log. Failures are logged only; the import result stands.
func (s *importService) record(ctx context.Context, kind importer.SheetType, fileName string, committed bool, valid int, errs []importer.RowError) {
	raw, err := json.Marshal(errs)
	if err != nil {
		log.Warn().Err(err).Msg("Import: could not encode row errors for the log")
		raw = []byte("[]")
	}
	entry := &model.ImportLog{
		SheetType:    kind.String(),
		FileName:     fileName,
		Committed:    committed,
		ValidCount:   valid,
		InvalidCount: distinctRows(errs),
		Errors:       datatypes.JSON(raw),
	}
	if err := s.store.Repos().ImportLogs.Create(ctx, entry); err != nil {
		log.Warn().Err(err).Str("file", fileName).Msg("Import: could not write import log")
	}
}

func distinctRows(errs []importer.RowError) int {
	rows := make(map[int]struct{}, len(errs))
	for _, e := range errs {
		rows[e.Row] = struct{}{}
	}
	return len(rows)
}

func (s *importService) WriteTemplate(w io.Writer, kind importer.SheetType) error {
	return importer.WriteTemplate(w, kind)
}

func (s *importService) RecentImports(ctx context.Context, limit int) ([]dto.ImportLogDTO, error) {
	logs, err := s.store.Repos().ImportLogs.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("error fetching import logs: %w", err)
	}
	out := make([]dto.ImportLogDTO, 0, len(logs))
	for _, l := range logs {
		item := dto.ImportLogDTO{
			ID:           l.ID,
			SheetType:    l.SheetType,
			FileName:     l.FileName,
			Committed:    l.Committed,
			ValidCount:   l.ValidCount,
			InvalidCount: l.InvalidCount,
			CreatedAt:    l.CreatedAt,
		}
		if len(l.Errors) > 0 {
			if err := json.Unmarshal(l.Errors, &item.Errors); err != nil {
				log.Warn().Err(err).Uint("importLogID", l.ID).Msg("RecentImports: unreadable error list")
			}
		}
		out = append(out, item)
	}
	return out, nil
}
