package repository

import (
	"context"

	"github.com/lshigami/examhub/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ExamSummary is an exam row with its linked question count.
type ExamSummary struct {
	model.Exam
	PartCount     int
	QuestionCount int
}

type ExamRepository interface {
	Create(ctx context.Context, exam *model.Exam) error
	FindByID(ctx context.Context, id uint) (*model.Exam, error)
	// FindWithQuestions loads parts, links, questions and answers in presentation order.
	FindWithQuestions(ctx context.Context, id uint) (*model.Exam, error)
	ListWithCounts(ctx context.Context) ([]ExamSummary, error)

	CreatePart(ctx context.Context, part *model.ExamPart) error
	FindPart(ctx context.Context, id uint) (*model.ExamPart, error)
	MaxPartOrder(ctx context.Context, examID uint) (int, error)
	// DeletePart removes the part and its question links. Bank questions stay.
	DeletePart(ctx context.Context, id uint) error

	MaxSortOrder(ctx context.Context, partID uint) (int, error)
	// InsertQuestionIfAbsent relies on the (exam_id, question_id) unique index and
	// reports false when the question is already linked somewhere in the exam.
	InsertQuestionIfAbsent(ctx context.Context, link *model.ExamQuestion) (bool, error)
	RemoveQuestion(ctx context.Context, partID, questionID uint) error
	LinkedQuestionIDs(ctx context.Context, examID uint) ([]uint, error)
}

type examRepository struct {
	db *gorm.DB
}

func NewExamRepository(db *gorm.DB) ExamRepository {
	return &examRepository{db: db}
}

func (r *examRepository) Create(ctx context.Context, exam *model.Exam) error {
	return r.db.WithContext(ctx).Create(exam).Error
}

func (r *examRepository) FindByID(ctx context.Context, id uint) (*model.Exam, error) {
	var exam model.Exam
	if err := r.db.WithContext(ctx).First(&exam, id).Error; err != nil {
		return nil, notFound(err, model.ErrExamNotFound)
	}
	return &exam, nil
}

func (r *examRepository) FindWithQuestions(ctx context.Context, id uint) (*model.Exam, error) {
	var exam model.Exam
	err := r.db.WithContext(ctx).
		Preload("Parts", func(db *gorm.DB) *gorm.DB {
			return db.Order("exam_parts.order_index ASC, exam_parts.id ASC")
		}).
		Preload("Parts.Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("exam_questions.sort_order ASC, exam_questions.id ASC")
		}).
		Preload("Parts.Questions.Question").
		Preload("Parts.Questions.Question.Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("answers.id ASC")
		}).
		First(&exam, id).Error
	if err != nil {
		return nil, notFound(err, model.ErrExamNotFound)
	}
	return &exam, nil
}

func (r *examRepository) ListWithCounts(ctx context.Context) ([]ExamSummary, error) {
	var results []ExamSummary
	err := r.db.WithContext(ctx).Model(&model.Exam{}).
		Select("exams.*, " +
			"(SELECT COUNT(*) FROM exam_parts WHERE exam_parts.exam_id = exams.id) AS part_count, " +
			"(SELECT COUNT(*) FROM exam_questions WHERE exam_questions.exam_id = exams.id) AS question_count").
		Where("exams.deleted_at IS NULL").
		Order("exams.created_at DESC").
		Scan(&results).Error
	return results, err
}

func (r *examRepository) CreatePart(ctx context.Context, part *model.ExamPart) error {
	return r.db.WithContext(ctx).Create(part).Error
}

func (r *examRepository) FindPart(ctx context.Context, id uint) (*model.ExamPart, error) {
	var part model.ExamPart
	if err := r.db.WithContext(ctx).First(&part, id).Error; err != nil {
		return nil, notFound(err, model.ErrPartNotFound)
	}
	return &part, nil
}

func (r *examRepository) MaxPartOrder(ctx context.Context, examID uint) (int, error) {
	var max int
	err := r.db.WithContext(ctx).Model(&model.ExamPart{}).
		Where("exam_id = ?", examID).
		Select("COALESCE(MAX(order_index), 0)").
		Scan(&max).Error
	return max, err
}

func (r *examRepository) DeletePart(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("exam_part_id = ?", id).Delete(&model.ExamQuestion{}).Error; err != nil {
		return err
	}
	res := db.Delete(&model.ExamPart{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrPartNotFound
	}
	return nil
}

func (r *examRepository) MaxSortOrder(ctx context.Context, partID uint) (int, error) {
	var max int
	err := r.db.WithContext(ctx).Model(&model.ExamQuestion{}).
		Where("exam_part_id = ?", partID).
		Select("COALESCE(MAX(sort_order), 0)").
		Scan(&max).Error
	return max, err
}

func (r *examRepository) InsertQuestionIfAbsent(ctx context.Context, link *model.ExamQuestion) (bool, error) {
	res := r.db.WithContext(ctx).
		Omit("Question").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "exam_id"}, {Name: "question_id"}},
			DoNothing: true,
		}).
		Create(link)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *examRepository) RemoveQuestion(ctx context.Context, partID, questionID uint) error {
	res := r.db.WithContext(ctx).
		Where("exam_part_id = ? AND question_id = ?", partID, questionID).
		Delete(&model.ExamQuestion{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrQuestionNotFound
	}
	return nil
}

func (r *examRepository) LinkedQuestionIDs(ctx context.Context, examID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&model.ExamQuestion{}).
		Where("exam_id = ?", examID).
		Pluck("question_id", &ids).Error
	return ids, err
}
