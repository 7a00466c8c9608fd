package cache

import (
	"context"

	"github.com/lshigami/examhub/internal/grading"
	"github.com/lshigami/examhub/internal/repository"
)

// ExamLoader reads answer keys through the exam repository.
type ExamLoader struct {
	exams repository.ExamRepository
}

func NewExamLoader(exams repository.ExamRepository) *ExamLoader {
	return &ExamLoader{exams: exams}
}

func (l *ExamLoader) LoadAnswerKey(ctx context.Context, examID uint) (grading.AnswerKey, error) {
	exam, err := l.exams.FindWithQuestions(ctx, examID)
	if err != nil {
		return grading.AnswerKey{}, err
	}
	return grading.BuildAnswerKey(exam), nil
}
