package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/lshigami/examhub/internal/cache"
	"github.com/lshigami/examhub/internal/dto"
	"github.com/lshigami/examhub/internal/grading"
	"github.com/lshigami/examhub/internal/model"
	"github.com/lshigami/examhub/internal/repository"
	"github.com/lshigami/examhub/internal/storage"
	"github.com/rs/zerolog/log"
)

const defaultAudioExt = ".webm"

// MediaStorage stores uploaded files and returns their public URL.
type MediaStorage interface {
	Save(ctx context.Context, category, name string, r io.Reader) (string, error)
	Remove(url string) error
}

// SubmitRequest is a student's complete answer payload for one exam.
type SubmitRequest struct {
	StudentID uint
	StartedAt *time.Time
	Answers   grading.Submission
}

type TestSubmissionService interface {
	// SubmitExam grades a submission and stores the attempt with its results in
	// one transaction. Choice questions are scored at once; essays and speaking
	// answers wait for a grader.
	SubmitExam(ctx context.Context, examID uint, req SubmitRequest) (*dto.TestAttemptDetailDTO, error)
	GetAttempt(ctx context.Context, attemptID uint) (*dto.TestAttemptDetailDTO, error)
	ListAttempts(ctx context.Context, filter repository.AttemptFilter) ([]dto.TestAttemptSummaryDTO, error)
}

type testSubmissionService struct {
	store          repository.Store
	keys           cache.AnswerKeyStore
	media          MediaStorage
	scoreConverter ScoreConverterService
	now            func() time.Time
}

func NewTestSubmissionService(
	store repository.Store,
	keys cache.AnswerKeyStore,
	media MediaStorage,
	scoreConverter ScoreConverterService,
) TestSubmissionService {
	return &testSubmissionService{
		store:          store,
		keys:           keys,
		media:          media,
		scoreConverter: scoreConverter,
		now:            time.Now,
	}
}

// attemptAudioSaver writes speaking answers under
// speaking/attempt_<id>_student_<sid>/q<qid>_<uuid>.<ext> and remembers them
// so they can be removed if the attempt is rolled back.
type attemptAudioSaver struct {
	media     MediaStorage
	attemptID uint
	studentID uint
	saved     []string
}

func (a *attemptAudioSaver) SaveAudio(ctx context.Context, questionID uint, audio grading.Audio) (string, error) {
	ext := strings.ToLower(path.Ext(audio.FileName))
	if ext == "" {
		ext = defaultAudioExt
	}
	category := fmt.Sprintf("speaking/attempt_%d_student_%d", a.attemptID, a.studentID)
	url, err := a.media.Save(ctx, category, storage.GenerateName(fmt.Sprintf("q%d", questionID), ext), audio.Content)
	if err != nil {
		return "", err
	}
	a.saved = append(a.saved, url)
	return url, nil
}

func (a *attemptAudioSaver) cleanup() {
	for _, url := range a.saved {
		if err := a.media.Remove(url); err != nil {
			log.Warn().Err(err).Str("url", url).Msg("SubmitExam: could not remove orphaned audio")
		}
	}
}

// checkOpen rejects inactive exams and submissions outside the exam window.
func checkOpen(exam *model.Exam, now time.Time) error {
	if !exam.IsActive {
		return fmt.Errorf("%w: exam %d is inactive", model.ErrExamClosed, exam.ID)
	}
	if exam.StartsAt != nil && now.Before(*exam.StartsAt) {
		return fmt.Errorf("%w: exam %d opens at %s", model.ErrExamClosed, exam.ID, exam.StartsAt.Format(time.RFC3339))
	}
	if exam.EndsAt != nil && now.After(*exam.EndsAt) {
		return fmt.Errorf("%w: exam %d closed at %s", model.ErrExamClosed, exam.ID, exam.EndsAt.Format(time.RFC3339))
	}
	return nil
}

func (s *testSubmissionService) SubmitExam(ctx context.Context, examID uint, req SubmitRequest) (*dto.TestAttemptDetailDTO, error) {
	now := s.now()
	exam, err := s.store.Repos().Exams.FindByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	if err := checkOpen(exam, now); err != nil {
		return nil, err
	}

	key, err := s.keys.Get(ctx, examID)
	if err != nil {
		log.Error().Err(err).Uint("examID", examID).Msg("SubmitExam: answer key unavailable")
		return nil, fmt.Errorf("error loading answer key: %w", err)
	}
	if len(key.Entries) == 0 {
		return nil, fmt.Errorf("%w: exam %d", model.ErrEmptyExam, examID)
	}

	startedAt := now
	if req.StartedAt != nil && !req.StartedAt.After(now) {
		startedAt = *req.StartedAt
	}
	saver := &attemptAudioSaver{media: s.media, studentID: req.StudentID}
	attempt := model.TestAttempt{
		ExamID:    examID,
		StudentID: req.StudentID,
		StartedAt: startedAt,
		Status:    model.AttemptStarted,
	}

	err = s.store.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Attempts.Create(ctx, &attempt); err != nil {
			return fmt.Errorf("error creating attempt: %w", err)
		}
		saver.attemptID = attempt.ID

		outcome, err := grading.Evaluate(ctx, key, req.Answers, saver)
		if err != nil {
			return err
		}
		for i := range outcome.Results {
			outcome.Results[i].TestAttemptID = attempt.ID
		}
		if err := tx.Attempts.CreateResults(ctx, outcome.Results); err != nil {
			return fmt.Errorf("error saving results: %w", err)
		}

		attempt.Score = outcome.Score
		attempt.MaxScore = outcome.MaxScore
		attempt.Status = outcome.Status
		attempt.SubmittedAt = &now
		// results were inserted with their final values; only the totals change
		return tx.Attempts.SaveGrades(ctx, &attempt)
	})
	if err != nil {
		saver.cleanup()
		log.Error().Err(err).Uint("examID", examID).Uint("studentID", req.StudentID).Msg("SubmitExam: submission rolled back")
		return nil, err
	}

	log.Info().Uint("attemptID", attempt.ID).Uint("examID", examID).Uint("studentID", req.StudentID).
		Float64("score", attempt.Score).Float64("maxScore", attempt.MaxScore).Str("status", attempt.Status.String()).
		Msg("SubmitExam: attempt stored")
	return s.GetAttempt(ctx, attempt.ID)
}

func (s *testSubmissionService) GetAttempt(ctx context.Context, attemptID uint) (*dto.TestAttemptDetailDTO, error) {
	return loadAttemptDetail(ctx, s.store.Repos(), s.scoreConverter, attemptID)
}

// loadAttemptDetail maps an attempt with its results. Correct answers are
// revealed since the attempt is already submitted.
func loadAttemptDetail(ctx context.Context, repos *repository.Repositories, converter ScoreConverterService, attemptID uint) (*dto.TestAttemptDetailDTO, error) {
	attempt, err := repos.Attempts.FindByIDWithDetails(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	resp := &dto.TestAttemptDetailDTO{
		ID:          attempt.ID,
		ExamID:      attempt.ExamID,
		ExamTitle:   attempt.Exam.Title,
		StudentID:   attempt.StudentID,
		StartedAt:   attempt.StartedAt,
		SubmittedAt: attempt.SubmittedAt,
		Score:       attempt.Score,
		MaxScore:    attempt.MaxScore,
		Status:      attempt.Status,
		Results:     make([]dto.TestResultDTO, 0, len(attempt.Results)),
	}
	if attempt.MaxScore > 0 {
		if pct, err := converter.ConvertToPercentage(attempt.Score, attempt.MaxScore); err == nil {
			resp.Percentage = &pct
		} else {
			log.Warn().Err(err).Uint("attemptID", attempt.ID).Msg("GetAttempt: percentage unavailable")
		}
	}

	for _, r := range attempt.Results {
		q, err := toQuestionDTO(r.Question, true)
		if err != nil {
			return nil, err
		}
		item := dto.TestResultDTO{
			ID:               r.ID,
			QuestionID:       r.QuestionID,
			Question:         q,
			SelectedAnswerID: r.SelectedAnswerID,
			TextAnswer:       r.TextAnswer,
			AudioAnswerURL:   r.AudioAnswerURL,
			IsCorrect:        r.IsCorrect,
			PendingGrade:     r.PendingManualGrade(),
			ScoreObtained:    r.ScoreObtained,
			MaxScore:         r.MaxScore,
			Feedback:         r.Feedback,
		}
		if id, ok := r.Question.CorrectAnswerID(); ok {
			item.CorrectAnswerID = &id
		}
		if item.PendingGrade {
			resp.PendingCount++
		}
		resp.Results = append(resp.Results, item)
	}
	return resp, nil
}

func (s *testSubmissionService) ListAttempts(ctx context.Context, filter repository.AttemptFilter) ([]dto.TestAttemptSummaryDTO, error) {
	attempts, err := s.store.Repos().Attempts.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error fetching attempts: %w", err)
	}
	out := make([]dto.TestAttemptSummaryDTO, 0, len(attempts))
	for _, a := range attempts {
		out = append(out, toAttemptSummaryDTO(a))
	}
	return out, nil
}
