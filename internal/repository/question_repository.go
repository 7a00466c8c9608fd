package repository

import (
	"context"

	"github.com/lshigami/examhub/internal/model"
	"gorm.io/gorm"
)

// QuestionFilter narrows bank queries. Zero values match everything.
type QuestionFilter struct {
	Skills       []model.SkillType
	QuestionType model.QuestionType
	Level        int
	Search       string
	Limit        int
}

type QuestionRepository interface {
	FindByID(ctx context.Context, id uint) (*model.Question, error)
	List(ctx context.Context, filter QuestionFilter) ([]model.Question, error)
	CreateBatch(ctx context.Context, questions []model.Question) error
	// UsageCount counts exam links and attempt results that reference the question.
	UsageCount(ctx context.Context, id uint) (int64, error)
	Delete(ctx context.Context, id uint) error
}

type questionRepository struct {
	db *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) FindByID(ctx context.Context, id uint) (*model.Question, error) {
	var question model.Question
	err := r.db.WithContext(ctx).
		Preload("Answers", func(db *gorm.DB) *gorm.DB { return db.Order("answers.id ASC") }).
		First(&question, id).Error
	if err != nil {
		return nil, notFound(err, model.ErrQuestionNotFound)
	}
	return &question, nil
}

func (r *questionRepository) List(ctx context.Context, filter QuestionFilter) ([]model.Question, error) {
	query := r.db.WithContext(ctx).Model(&model.Question{})
	if len(filter.Skills) > 0 {
		query = query.Where("skill_type IN ?", filter.Skills)
	}
	if filter.QuestionType != 0 {
		query = query.Where("question_type = ?", filter.QuestionType)
	}
	if filter.Level != 0 {
		query = query.Where("level = ?", filter.Level)
	}
	if filter.Search != "" {
		query = query.Where("content ILIKE ?", "%"+filter.Search+"%")
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var questions []model.Question
	if err := query.Order("created_at DESC, id DESC").Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *questionRepository) CreateBatch(ctx context.Context, questions []model.Question) error {
	if len(questions) == 0 {
		return nil
	}
	// gorm inserts the nested answers after each question
	return r.db.WithContext(ctx).Create(&questions).Error
}

func (r *questionRepository) UsageCount(ctx context.Context, id uint) (int64, error) {
	var links, results int64
	if err := r.db.WithContext(ctx).Model(&model.ExamQuestion{}).Where("question_id = ?", id).Count(&links).Error; err != nil {
		return 0, err
	}
	if err := r.db.WithContext(ctx).Model(&model.TestResult{}).Where("question_id = ?", id).Count(&results).Error; err != nil {
		return 0, err
	}
	return links + results, nil
}

// Delete removes the question together with its answers.
func (r *questionRepository) Delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("question_id = ?", id).Delete(&model.Answer{}).Error; err != nil {
		return err
	}
	res := db.Delete(&model.Question{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrQuestionNotFound
	}
	return nil
}
