package repository

import (
	"context"

	"github.com/lshigami/examhub/internal/model"
	"gorm.io/gorm"
)

// AttemptFilter narrows attempt listings. Nil fields match everything.
type AttemptFilter struct {
	ExamID    *uint
	StudentID *uint
	Status    *model.AttemptStatus
}

type TestAttemptRepository interface {
	Create(ctx context.Context, attempt *model.TestAttempt) error
	CreateResults(ctx context.Context, results []model.TestResult) error
	// SaveGrades writes the attempt totals and every result's score, correctness and feedback.
	SaveGrades(ctx context.Context, attempt *model.TestAttempt) error
	FindByID(ctx context.Context, id uint) (*model.TestAttempt, error)
	// FindByIDWithDetails loads the exam and each result with its question and answers.
	FindByIDWithDetails(ctx context.Context, id uint) (*model.TestAttempt, error)
	List(ctx context.Context, filter AttemptFilter) ([]model.TestAttempt, error)
}

type testAttemptRepository struct {
	db *gorm.DB
}

func NewTestAttemptRepository(db *gorm.DB) TestAttemptRepository {
	return &testAttemptRepository{db: db}
}

func (r *testAttemptRepository) Create(ctx context.Context, attempt *model.TestAttempt) error {
	return r.db.WithContext(ctx).Omit("Exam").Create(attempt).Error
}

func (r *testAttemptRepository) CreateResults(ctx context.Context, results []model.TestResult) error {
	if len(results) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit("Question").Create(&results).Error
}

func (r *testAttemptRepository) SaveGrades(ctx context.Context, attempt *model.TestAttempt) error {
	db := r.db.WithContext(ctx)
	for _, res := range attempt.Results {
		err := db.Model(&model.TestResult{}).Where("id = ?", res.ID).Updates(map[string]interface{}{
			"score_obtained": res.ScoreObtained,
			"is_correct":     res.IsCorrect,
			"feedback":       res.Feedback,
		}).Error
		if err != nil {
			return err
		}
	}
	return db.Model(&model.TestAttempt{}).Where("id = ?", attempt.ID).Updates(map[string]interface{}{
		"score":        attempt.Score,
		"max_score":    attempt.MaxScore,
		"status":       attempt.Status,
		"submitted_at": attempt.SubmittedAt,
	}).Error
}

func (r *testAttemptRepository) FindByID(ctx context.Context, id uint) (*model.TestAttempt, error) {
	var attempt model.TestAttempt
	if err := r.db.WithContext(ctx).First(&attempt, id).Error; err != nil {
		return nil, notFound(err, model.ErrAttemptNotFound)
	}
	return &attempt, nil
}

func (r *testAttemptRepository) FindByIDWithDetails(ctx context.Context, id uint) (*model.TestAttempt, error) {
	var attempt model.TestAttempt
	err := r.db.WithContext(ctx).
		Preload("Exam").
		Preload("Results", func(db *gorm.DB) *gorm.DB { return db.Order("test_results.id ASC") }).
		Preload("Results.Question").
		Preload("Results.Question.Answers", func(db *gorm.DB) *gorm.DB { return db.Order("answers.id ASC") }).
		First(&attempt, id).Error
	if err != nil {
		return nil, notFound(err, model.ErrAttemptNotFound)
	}
	return &attempt, nil
}

func (r *testAttemptRepository) List(ctx context.Context, filter AttemptFilter) ([]model.TestAttempt, error) {
	query := r.db.WithContext(ctx).Model(&model.TestAttempt{})
	if filter.ExamID != nil {
		query = query.Where("exam_id = ?", *filter.ExamID)
	}
	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var attempts []model.TestAttempt
	err := query.Order("submitted_at DESC NULLS LAST, id DESC").Find(&attempts).Error
	return attempts, err
}
