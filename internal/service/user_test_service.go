package service

import (
	"context"
	"fmt"
	"time"

	"github.com/lshigami/examhub/internal/dto"
	"github.com/lshigami/examhub/internal/repository"
	"github.com/rs/zerolog/log"
)

type UserTestService interface {
	// ListOpenExams returns active exams inside their window that have questions.
	ListOpenExams(ctx context.Context) ([]dto.ExamSummaryDTO, error)
	// GetExamForStudent hides correct answers and explanations.
	GetExamForStudent(ctx context.Context, examID uint) (*dto.ExamResponseDTO, error)
}

type userTestService struct {
	store repository.Store
	now   func() time.Time
}

func NewUserTestService(store repository.Store) UserTestService {
	return &userTestService{store: store, now: time.Now}
}

func (s *userTestService) ListOpenExams(ctx context.Context) ([]dto.ExamSummaryDTO, error) {
	rows, err := s.store.Repos().Exams.ListWithCounts(ctx)
	if err != nil {
		log.Error().Err(err).Msg("ListOpenExams: query failed")
		return nil, fmt.Errorf("error fetching exams: %w", err)
	}
	now := s.now()
	out := []dto.ExamSummaryDTO{}
	for _, r := range rows {
		if r.QuestionCount == 0 || checkOpen(&r.Exam, now) != nil {
			continue
		}
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

func (s *userTestService) GetExamForStudent(ctx context.Context, examID uint) (*dto.ExamResponseDTO, error) {
	exam, err := s.store.Repos().Exams.FindWithQuestions(ctx, examID)
	if err != nil {
		return nil, err
	}
	if err := checkOpen(exam, s.now()); err != nil {
		return nil, err
	}
	return toExamDTO(exam, false)
}
