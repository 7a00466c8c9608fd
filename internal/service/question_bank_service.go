package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/lshigami/examhub/internal/dto"
	"github.com/lshigami/examhub/internal/model"
	"github.com/lshigami/examhub/internal/repository"
	"github.com/rs/zerolog/log"
)

type QuestionBankService interface {
	ListQuestions(ctx context.Context, query dto.QuestionQuery) ([]dto.QuestionResponseDTO, error)
	GetQuestion(ctx context.Context, id uint) (*dto.QuestionResponseDTO, error)
	// DeleteQuestion removes a question and its answers. Questions placed in an
	// exam or answered in an attempt are refused with model.ErrQuestionInUse.
	DeleteQuestion(ctx context.Context, id uint) error
	// DeleteResource removes a passage or listening resource; its questions stay
	// in the bank as standalone questions.
	DeleteResource(ctx context.Context, kind string, id uint) error
	ResourceQuestions(ctx context.Context, kind string, id uint) ([]dto.QuestionResponseDTO, error)
}

type questionBankService struct {
	store repository.Store
}

func NewQuestionBankService(store repository.Store) QuestionBankService {
	return &questionBankService{store: store}
}

// questionFilter turns query parameters into a repository filter. Skill may
// list several names separated by commas.
func questionFilter(q dto.QuestionQuery) (repository.QuestionFilter, error) {
	filter := repository.QuestionFilter{
		Level:  q.Level,
		Search: strings.TrimSpace(q.Search),
		Limit:  q.Limit,
	}
	if q.Skill != "" {
		for _, name := range strings.Split(q.Skill, ",") {
			skill, err := model.ParseSkillTypeName(name)
			if err != nil {
				return filter, err
			}
			filter.Skills = append(filter.Skills, skill)
		}
	}
	if q.Type != "" {
		qt, err := model.ParseQuestionTypeName(q.Type)
		if err != nil {
			return filter, err
		}
		filter.QuestionType = qt
	}
	return filter, nil
}

func (s *questionBankService) ListQuestions(ctx context.Context, query dto.QuestionQuery) ([]dto.QuestionResponseDTO, error) {
	filter, err := questionFilter(query)
	if err != nil {
		return nil, err
	}
	questions, err := s.store.Repos().Questions.List(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("ListQuestions: query failed")
		return nil, fmt.Errorf("error fetching questions: %w", err)
	}
	return mapQuestions(questions)
}

func (s *questionBankService) GetQuestion(ctx context.Context, id uint) (*dto.QuestionResponseDTO, error) {
	q, err := s.store.Repos().Questions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp, err := toQuestionDTO(*q, true)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *questionBankService) DeleteQuestion(ctx context.Context, id uint) error {
	err := s.store.Transaction(ctx, func(tx *repository.Repositories) error {
		used, err := tx.Questions.UsageCount(ctx, id)
		if err != nil {
			return fmt.Errorf("error checking question usage: %w", err)
		}
		if used > 0 {
			return fmt.Errorf("%w: question %d has %d references", model.ErrQuestionInUse, id, used)
		}
		return tx.Questions.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	log.Info().Uint("questionID", id).Msg("DeleteQuestion: question removed")
	return nil
}

func (s *questionBankService) DeleteResource(ctx context.Context, kind string, id uint) error {
	rt, err := model.ParseResourceType(kind)
	if err != nil {
		return err
	}
	err = s.store.Transaction(ctx, func(tx *repository.Repositories) error {
		return tx.Resources.Delete(ctx, rt, id)
	})
	if err != nil {
		return err
	}
	log.Info().Str("resourceType", string(rt)).Uint("resourceID", id).Msg("DeleteResource: resource removed, questions kept")
	return nil
}

func (s *questionBankService) ResourceQuestions(ctx context.Context, kind string, id uint) ([]dto.QuestionResponseDTO, error) {
	rt, err := model.ParseResourceType(kind)
	if err != nil {
		return nil, err
	}
	questions, err := s.store.Repos().Resources.Questions(ctx, rt, id)
	if err != nil {
		return nil, err
	}
	return mapQuestions(questions)
}

func mapQuestions(questions []model.Question) ([]dto.QuestionResponseDTO, error) {
	out := make([]dto.QuestionResponseDTO, 0, len(questions))
	for _, q := range questions {
		qd, err := toQuestionDTO(q, true)
		if err != nil {
			return nil, err
		}
		out = append(out, qd)
	}
	return out, nil
}
