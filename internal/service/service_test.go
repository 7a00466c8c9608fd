package service

import (
	"context"
	"testing"
	"time"

	"github.com/lshigami/examhub/internal/cache"
	"github.com/lshigami/examhub/internal/dto"
	"github.com/lshigami/examhub/internal/model"
	"github.com/lshigami/examhub/internal/repository/repotest"
)

type fixture struct {
	ctx   context.Context
	store *repotest.Store
	keys  *cache.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repotest.New()
	return &fixture{
		ctx:   context.Background(),
		store: store,
		keys:  cache.NewMemoryStore(cache.NewExamLoader(store.Repos().Exams), time.Minute),
	}
}

func (f *fixture) assembly() ExamAssemblyService {
	return NewExamAssemblyService(f.store, f.keys)
}

func choiceQuestion(content string, skill model.SkillType) model.Question {
	yes, no := true, false
	return model.Question{
		Content:      content,
		SkillType:    skill,
		QuestionType: model.QuestionSingleChoice,
		Level:        1,
		Answers: []model.Answer{
			{Content: "right", IsCorrect: &yes},
			{Content: "wrong", IsCorrect: &no},
		},
	}
}

func openQuestion(content string, skill model.SkillType, qt model.QuestionType) model.Question {
	sample := "A sample answer."
	return model.Question{Content: content, SkillType: skill, QuestionType: qt, Level: 2, Explanation: &sample}
}

// seedQuestions stores standalone questions and returns them with ids set.
func (f *fixture) seedQuestions(t *testing.T, qs ...model.Question) []model.Question {
	t.Helper()
	if err := f.store.Repos().Questions.CreateBatch(f.ctx, qs); err != nil {
		t.Fatalf("seed questions: %v", err)
	}
	return qs
}

// seedPassage stores a reading passage owning n choice questions.
func (f *fixture) seedPassage(t *testing.T, n int) model.ReadingPassage {
	t.Helper()
	p := model.ReadingPassage{Title: "Bees", Content: "Honey bees live in colonies."}
	for i := 0; i < n; i++ {
		p.Questions = append(p.Questions, choiceQuestion("Passage question", model.SkillReading))
	}
	passages := []model.ReadingPassage{p}
	if err := f.store.Repos().Resources.CreatePassages(f.ctx, passages); err != nil {
		t.Fatalf("seed passage: %v", err)
	}
	return passages[0]
}

// newExamWithPart creates an exam holding one empty part.
func (f *fixture) newExamWithPart(t *testing.T, req dto.ExamCreateDTO) (uint, uint) {
	t.Helper()
	if req.Title == "" {
		req.Title = "Mock exam"
	}
	if req.DurationMinutes == 0 {
		req.DurationMinutes = 60
	}
	svc := f.assembly()
	exam, err := svc.CreateExam(f.ctx, req)
	if err != nil {
		t.Fatalf("create exam: %v", err)
	}
	part, err := svc.QuickAddPart(f.ctx, exam.ID, dto.ExamPartCreateDTO{Name: "Part 1", SkillType: "reading"})
	if err != nil {
		t.Fatalf("add part: %v", err)
	}
	return exam.ID, part.ID
}

func (f *fixture) link(t *testing.T, partID, questionID uint, score float64) {
	t.Helper()
	res, err := f.assembly().AddSingleQuestion(f.ctx, partID, dto.AddQuestionDTO{QuestionID: questionID, Score: &score})
	if err != nil {
		t.Fatalf("link question %d: %v", questionID, err)
	}
	if res.Added != 1 {
		t.Fatalf("question %d was not linked: %+v", questionID, res)
	}
}
