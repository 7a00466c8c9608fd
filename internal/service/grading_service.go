package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/lshigami/examhub/internal/dto"
	"github.com/lshigami/examhub/internal/grading"
	"github.com/lshigami/examhub/internal/model"
	"github.com/lshigami/examhub/internal/repository"
	"github.com/rs/zerolog/log"
)

type GradingService interface {
	// GradeAttempt applies grader scores and feedback, recomputes the total from
	// every result and marks the attempt Graded. Repeating it is harmless.
	GradeAttempt(ctx context.Context, attemptID uint, req dto.ManualGradeDTO) (*dto.TestAttemptDetailDTO, error)
	PendingAttempts(ctx context.Context, examID *uint) ([]dto.TestAttemptSummaryDTO, error)
	SuggestGrades(ctx context.Context, attemptID uint) ([]dto.GradeSuggestionDTO, error)
}

type gradingService struct {
	store          repository.Store
	assistant      GradingAssistant
	scoreConverter ScoreConverterService
}

func NewGradingService(store repository.Store, assistant GradingAssistant, scoreConverter ScoreConverterService) GradingService {
	return &gradingService{store: store, assistant: assistant, scoreConverter: scoreConverter}
}

func manualGrades(attempt *model.TestAttempt, req dto.ManualGradeDTO) (grading.ManualGrades, error) {
	known := make(map[uint]bool, len(attempt.Results))
	for _, r := range attempt.Results {
		known[r.ID] = true
	}
	in := grading.ManualGrades{Scores: map[uint]float64{}, Feedback: map[uint]string{}}
	var unknown []string
	for _, g := range req.Grades {
		if !known[g.ResultID] {
			unknown = append(unknown, fmt.Sprintf("result %d does not belong to attempt %d", g.ResultID, attempt.ID))
			continue
		}
		if g.Score != nil {
			in.Scores[g.ResultID] = *g.Score
		}
		if g.Feedback != nil {
			in.Feedback[g.ResultID] = *g.Feedback
		}
	}
	if len(unknown) > 0 {
		return in, &ValidationError{Err: ErrInvalidInput, Details: unknown}
	}
	return in, nil
}

func (s *gradingService) GradeAttempt(ctx context.Context, attemptID uint, req dto.ManualGradeDTO) (*dto.TestAttemptDetailDTO, error) {
	err := s.store.Transaction(ctx, func(tx *repository.Repositories) error {
		attempt, err := tx.Attempts.FindByIDWithDetails(ctx, attemptID)
		if err != nil {
			return err
		}
		in, err := manualGrades(attempt, req)
		if err != nil {
			return err
		}
		if err := grading.ApplyManual(attempt, in); err != nil {
			return err
		}
		return tx.Attempts.SaveGrades(ctx, attempt)
	})
	if err != nil {
		log.Warn().Err(err).Uint("attemptID", attemptID).Msg("GradeAttempt: grades not saved")
		return nil, err
	}
	log.Info().Uint("attemptID", attemptID).Int("grades", len(req.Grades)).Msg("GradeAttempt: attempt graded")
	return loadAttemptDetail(ctx, s.store.Repos(), s.scoreConverter, attemptID)
}

func (s *gradingService) PendingAttempts(ctx context.Context, examID *uint) ([]dto.TestAttemptSummaryDTO, error) {
	status := model.AttemptSubmitted
	attempts, err := s.store.Repos().Attempts.List(ctx, repository.AttemptFilter{ExamID: examID, Status: &status})
	if err != nil {
		return nil, fmt.Errorf("error fetching pending attempts: %w", err)
	}
	out := make([]dto.TestAttemptSummaryDTO, 0, len(attempts))
	for _, a := range attempts {
		out = append(out, toAttemptSummaryDTO(a))
	}
	return out, nil
}

// SuggestGrades asks the assistant about every ungraded result. A failure on
// one result is reported in its entry and does not stop the others.
func (s *gradingService) SuggestGrades(ctx context.Context, attemptID uint) ([]dto.GradeSuggestionDTO, error) {
	attempt, err := s.store.Repos().Attempts.FindByIDWithDetails(ctx, attemptID)
	if err != nil {
		return nil, err
	}

	out := []dto.GradeSuggestionDTO{}
	for _, r := range attempt.Results {
		if !r.PendingManualGrade() {
			continue
		}
		item := dto.GradeSuggestionDTO{ResultID: r.ID, QuestionID: r.QuestionID, MaxScore: r.MaxScore}
		req := GradeRequest{Question: r.Question, MaxScore: r.MaxScore}
		if r.TextAnswer != nil {
			req.TextAnswer = *r.TextAnswer
		}
		if r.AudioAnswerURL != nil {
			req.AudioURL = *r.AudioAnswerURL
		}

		feedback, score, err := s.assistant.SuggestGrade(ctx, req)
		if errors.Is(err, ErrAssistantUnavailable) {
			return nil, err
		}
		if err != nil {
			item.Error = err.Error()
		} else {
			item.Score = score
			item.Feedback = feedback
		}
		out = append(out, item)
	}
	return out, nil
}
