package service

import (
	"context"
	"fmt"

	"github.com/lshigami/examhub/internal/cache"
	"github.com/lshigami/examhub/internal/dto"
	"github.com/lshigami/examhub/internal/model"
	"github.com/lshigami/examhub/internal/repository"
	"github.com/rs/zerolog/log"
)

const defaultQuestionScore = 1.0

type ExamAssemblyService interface {
	CreateExam(ctx context.Context, req dto.ExamCreateDTO) (*dto.ExamResponseDTO, error)
	GetExam(ctx context.Context, examID uint) (*dto.ExamResponseDTO, error)
	ListExams(ctx context.Context) ([]dto.ExamSummaryDTO, error)

	// Instantiate stamps the parts of a structure onto an exam. No questions are added.
	Instantiate(ctx context.Context, structureID, examID uint) ([]dto.ExamPartResponseDTO, error)
	QuickAddPart(ctx context.Context, examID uint, req dto.ExamPartCreateDTO) (*dto.ExamPartResponseDTO, error)
	DeletePart(ctx context.Context, partID uint) error

	// AddSingleQuestion is a no-op when the question is already placed in the exam.
	AddSingleQuestion(ctx context.Context, partID uint, req dto.AddQuestionDTO) (*dto.AddQuestionsResultDTO, error)
	// AddResourceGroup links every child question of a passage or listening
	// resource that is not yet in the exam. Each link is inserted on its own.
	AddResourceGroup(ctx context.Context, partID uint, req dto.AddResourceGroupDTO) (*dto.AddQuestionsResultDTO, error)
	RemoveQuestion(ctx context.Context, partID, questionID uint) error
	AvailableQuestions(ctx context.Context, examID uint, query dto.QuestionQuery) ([]dto.AvailableQuestionDTO, error)
}

type examAssemblyService struct {
	store repository.Store
	keys  cache.AnswerKeyStore
}

func NewExamAssemblyService(store repository.Store, keys cache.AnswerKeyStore) ExamAssemblyService {
	return &examAssemblyService{store: store, keys: keys}
}

func (s *examAssemblyService) CreateExam(ctx context.Context, req dto.ExamCreateDTO) (*dto.ExamResponseDTO, error) {
	if req.StartsAt != nil && req.EndsAt != nil && req.EndsAt.Before(*req.StartsAt) {
		return nil, fmt.Errorf("exam window ends before it starts")
	}
	exam := model.Exam{
		Title:           req.Title,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		StartsAt:        req.StartsAt,
		EndsAt:          req.EndsAt,
		IsActive:        true,
	}

	err := s.store.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Exams.Create(ctx, &exam); err != nil {
			return fmt.Errorf("error creating exam: %w", err)
		}
		if req.StructureID == nil {
			return nil
		}
		_, err := instantiate(ctx, tx, *req.StructureID, exam.ID)
		return err
	})
	if err != nil {
		log.Error().Err(err).Str("title", req.Title).Msg("CreateExam: failed")
		return nil, err
	}
	log.Info().Uint("examID", exam.ID).Str("title", exam.Title).Msg("CreateExam: exam created")
	return s.GetExam(ctx, exam.ID)
}

func (s *examAssemblyService) GetExam(ctx context.Context, examID uint) (*dto.ExamResponseDTO, error) {
	exam, err := s.store.Repos().Exams.FindWithQuestions(ctx, examID)
	if err != nil {
		return nil, err
	}
	return toExamDTO(exam, true)
}

func (s *examAssemblyService) ListExams(ctx context.Context) ([]dto.ExamSummaryDTO, error) {
	rows, err := s.store.Repos().Exams.ListWithCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("error fetching exams: %w", err)
	}
	out := make([]dto.ExamSummaryDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.ExamSummaryDTO{
			ID:              r.ID,
			Title:           r.Title,
			Description:     r.Description,
			DurationMinutes: r.DurationMinutes,
			StartsAt:        r.StartsAt,
			EndsAt:          r.EndsAt,
			IsActive:        r.IsActive,
			PartCount:       r.PartCount,
			QuestionCount:   r.QuestionCount,
			CreatedAt:       r.CreatedAt,
		})
	}
	return out, nil
}

func (s *examAssemblyService) Instantiate(ctx context.Context, structureID, examID uint) ([]dto.ExamPartResponseDTO, error) {
	var parts []model.ExamPart
	err := s.store.Transaction(ctx, func(tx *repository.Repositories) error {
		if _, err := tx.Exams.FindByID(ctx, examID); err != nil {
			return err
		}
		var err error
		parts, err = instantiate(ctx, tx, structureID, examID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, examID)
	log.Info().Uint("examID", examID).Uint("structureID", structureID).Int("parts", len(parts)).Msg("Instantiate: parts stamped")

	out := make([]dto.ExamPartResponseDTO, 0, len(parts))
	for _, p := range parts {
		out = append(out, toPartDTO(p))
	}
	return out, nil
}

// instantiate copies name, order index and skill of every structure part.
func instantiate(ctx context.Context, tx *repository.Repositories, structureID, examID uint) ([]model.ExamPart, error) {
	structure, err := tx.Structures.FindByID(ctx, structureID)
	if err != nil {
		return nil, err
	}
	parts := make([]model.ExamPart, 0, len(structure.Parts))
	for _, sp := range structure.Parts {
		part := model.ExamPart{
			ExamID:     examID,
			Name:       sp.Name,
			OrderIndex: sp.OrderIndex,
			SkillType:  sp.SkillType,
		}
		if err := tx.Exams.CreatePart(ctx, &part); err != nil {
			return nil, fmt.Errorf("error creating part %q: %w", sp.Name, err)
		}
		parts = append(parts, part)
	}
	return parts, nil
}

func (s *examAssemblyService) QuickAddPart(ctx context.Context, examID uint, req dto.ExamPartCreateDTO) (*dto.ExamPartResponseDTO, error) {
	skill, err := model.ParseSkillTypeName(req.SkillType)
	if err != nil {
		return nil, err
	}
	repos := s.store.Repos()
	if _, err := repos.Exams.FindByID(ctx, examID); err != nil {
		return nil, err
	}
	maxOrder, err := repos.Exams.MaxPartOrder(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("error reading part order: %w", err)
	}
	part := model.ExamPart{
		ExamID:     examID,
		Name:       req.Name,
		OrderIndex: maxOrder + 1,
		SkillType:  skill,
	}
	if err := repos.Exams.CreatePart(ctx, &part); err != nil {
		return nil, fmt.Errorf("error creating part: %w", err)
	}
	s.invalidate(ctx, examID)
	resp := toPartDTO(part)
	return &resp, nil
}

func (s *examAssemblyService) DeletePart(ctx context.Context, partID uint) error {
	var examID uint
	err := s.store.Transaction(ctx, func(tx *repository.Repositories) error {
		part, err := tx.Exams.FindPart(ctx, partID)
		if err != nil {
			return err
		}
		examID = part.ExamID
		return tx.Exams.DeletePart(ctx, partID)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, examID)
	log.Info().Uint("partID", partID).Uint("examID", examID).Msg("DeletePart: part removed")
	return nil
}

func normalizeScore(score *float64) (float64, error) {
	switch {
	case score == nil:
		return defaultQuestionScore, nil
	case *score < 0:
		return 0, fmt.Errorf("%w: %.2f", model.ErrInvalidScore, *score)
	}
	return *score, nil
}

func (s *examAssemblyService) AddSingleQuestion(ctx context.Context, partID uint, req dto.AddQuestionDTO) (*dto.AddQuestionsResultDTO, error) {
	score, err := normalizeScore(req.Score)
	if err != nil {
		return nil, err
	}
	repos := s.store.Repos()
	part, err := repos.Exams.FindPart(ctx, partID)
	if err != nil {
		return nil, err
	}
	if _, err := repos.Questions.FindByID(ctx, req.QuestionID); err != nil {
		return nil, err
	}

	res := &dto.AddQuestionsResultDTO{PartID: partID}
	maxOrder, err := repos.Exams.MaxSortOrder(ctx, partID)
	if err != nil {
		return nil, fmt.Errorf("error reading sort order: %w", err)
	}
	inserted, err := repos.Exams.InsertQuestionIfAbsent(ctx, &model.ExamQuestion{
		ExamID:     part.ExamID,
		ExamPartID: partID,
		QuestionID: req.QuestionID,
		SortOrder:  maxOrder + 1,
		Score:      score,
	})
	if err != nil {
		return nil, fmt.Errorf("error linking question %d: %w", req.QuestionID, err)
	}
	if inserted {
		res.Added = 1
		s.invalidate(ctx, part.ExamID)
	} else {
		res.Skipped = 1
	}
	return res, nil
}

func (s *examAssemblyService) AddResourceGroup(ctx context.Context, partID uint, req dto.AddResourceGroupDTO) (*dto.AddQuestionsResultDTO, error) {
	kind, err := model.ParseResourceType(req.ResourceType)
	if err != nil {
		return nil, err
	}
	score, err := normalizeScore(req.ScorePerQuestion)
	if err != nil {
		return nil, err
	}
	repos := s.store.Repos()
	part, err := repos.Exams.FindPart(ctx, partID)
	if err != nil {
		return nil, err
	}
	questions, err := repos.Resources.Questions(ctx, kind, req.ResourceID)
	if err != nil {
		return nil, err
	}
	next, err := repos.Exams.MaxSortOrder(ctx, partID)
	if err != nil {
		return nil, fmt.Errorf("error reading sort order: %w", err)
	}

	res := &dto.AddQuestionsResultDTO{PartID: partID}
	for _, q := range questions {
		inserted, err := repos.Exams.InsertQuestionIfAbsent(ctx, &model.ExamQuestion{
			ExamID:     part.ExamID,
			ExamPartID: partID,
			QuestionID: q.ID,
			SortOrder:  next + 1,
			Score:      score,
		})
		if err != nil {
			// links inserted so far stay; a re-run adds only the missing ones
			s.invalidate(ctx, part.ExamID)
			return nil, fmt.Errorf("error linking question %d: %w", q.ID, err)
		}
		if inserted {
			next++
			res.Added++
		} else {
			res.Skipped++
		}
	}
	if res.Added > 0 {
		s.invalidate(ctx, part.ExamID)
	}
	log.Info().Uint("partID", partID).Str("resourceType", string(kind)).Uint("resourceID", req.ResourceID).
		Int("added", res.Added).Int("skipped", res.Skipped).Msg("AddResourceGroup: done")
	return res, nil
}

func (s *examAssemblyService) RemoveQuestion(ctx context.Context, partID, questionID uint) error {
	repos := s.store.Repos()
	part, err := repos.Exams.FindPart(ctx, partID)
	if err != nil {
		return err
	}
	if err := repos.Exams.RemoveQuestion(ctx, partID, questionID); err != nil {
		return err
	}
	s.invalidate(ctx, part.ExamID)
	return nil
}

func (s *examAssemblyService) AvailableQuestions(ctx context.Context, examID uint, query dto.QuestionQuery) ([]dto.AvailableQuestionDTO, error) {
	filter, err := questionFilter(query)
	if err != nil {
		return nil, err
	}
	repos := s.store.Repos()
	if _, err := repos.Exams.FindByID(ctx, examID); err != nil {
		return nil, err
	}
	linked, err := repos.Exams.LinkedQuestionIDs(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("error reading exam questions: %w", err)
	}
	selected := make(map[uint]bool, len(linked))
	for _, id := range linked {
		selected[id] = true
	}

	questions, err := repos.Questions.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error fetching questions: %w", err)
	}
	out := make([]dto.AvailableQuestionDTO, 0, len(questions))
	for _, q := range questions {
		if selected[q.ID] && !query.IncludeSelected {
			continue
		}
		qd, err := toQuestionDTO(q, true)
		if err != nil {
			return nil, err
		}
		out = append(out, dto.AvailableQuestionDTO{QuestionResponseDTO: qd, AlreadySelected: selected[q.ID]})
	}
	return out, nil
}

// invalidate drops the cached answer key. The edit is already committed, so a
// failure is only logged and the key expires with its TTL.
func (s *examAssemblyService) invalidate(ctx context.Context, examID uint) {
	if err := s.keys.Invalidate(ctx, examID); err != nil {
		log.Error().Err(err).Uint("examID", examID).Msg("could not invalidate answer key")
	}
}
