package dto

import (
	"time"

	"github.com/lshigami/examhub/internal/model"
)

// AnswerOptionDTO is one choice of a question. IsCorrect is omitted in student views.
type AnswerOptionDTO struct {
	ID        uint   `json:"id"`
	Content   string `json:"content"`
	IsCorrect *bool  `json:"is_correct,omitempty"`
}

// QuestionResponseDTO is a bank question.
type QuestionResponseDTO struct {
	ID                  uint               `json:"id"`
	Content             string             `json:"content"`
	SkillType           model.SkillType    `json:"skill_type" swaggertype:"string"`
	QuestionType        model.QuestionType `json:"question_type" swaggertype:"string"`
	Level               int                `json:"level"`
	MediaURL            *string            `json:"media_url,omitempty"`
	Explanation         *string            `json:"explanation,omitempty"`
	ReadingPassageID    *uint              `json:"reading_passage_id,omitempty"`
	ListeningResourceID *uint              `json:"listening_resource_id,omitempty"`
	Answers             []AnswerOptionDTO  `json:"answers,omitempty"`
	CreatedAt           time.Time          `json:"created_at"`
}

// ExamQuestionResponseDTO is a question placed in an exam part.
type ExamQuestionResponseDTO struct {
	ID         uint                `json:"id"`
	QuestionID uint                `json:"question_id"`
	SortOrder  int                 `json:"sort_order"`
	Score      float64             `json:"score"`
	Question   QuestionResponseDTO `json:"question"`
}

type ExamPartResponseDTO struct {
	ID         uint                      `json:"id"`
	ExamID     uint                      `json:"exam_id"`
	Name       string                    `json:"name"`
	OrderIndex int                       `json:"order_index"`
	SkillType  model.SkillType           `json:"skill_type" swaggertype:"string"`
	Questions  []ExamQuestionResponseDTO `json:"questions,omitempty"`
}

// ExamResponseDTO is the full exam with its parts and questions.
type ExamResponseDTO struct {
	ID              uint                  `json:"id"`
	Title           string                `json:"title"`
	Description     string                `json:"description,omitempty"`
	DurationMinutes int                   `json:"duration_minutes"`
	StartsAt        *time.Time            `json:"starts_at,omitempty"`
	EndsAt          *time.Time            `json:"ends_at,omitempty"`
	IsActive        bool                  `json:"is_active"`
	MaxScore        float64               `json:"max_score"`
	Parts           []ExamPartResponseDTO `json:"parts"`
	CreatedAt       time.Time             `json:"created_at"`
}

// ExamSummaryDTO is used for exam listings.
type ExamSummaryDTO struct {
	ID              uint       `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
	StartsAt        *time.Time `json:"starts_at,omitempty"`
	EndsAt          *time.Time `json:"ends_at,omitempty"`
	IsActive        bool       `json:"is_active"`
	PartCount       int        `json:"part_count"`
	QuestionCount   int        `json:"question_count"`
	CreatedAt       time.Time  `json:"created_at"`
}

// AvailableQuestionDTO drives the question picker of an exam.
type AvailableQuestionDTO struct {
	QuestionResponseDTO
	AlreadySelected bool `json:"already_selected"`
}

// AddQuestionsResultDTO reports how many links an add operation created.
type AddQuestionsResultDTO struct {
	PartID  uint `json:"part_id"`
	Added   int  `json:"added"`
	Skipped int  `json:"skipped"`
}

// --- attempts ---

// TestResultDTO is the per-question outcome shown after submission.
type TestResultDTO struct {
	ID               uint                `json:"id"`
	QuestionID       uint                `json:"question_id"`
	Question         QuestionResponseDTO `json:"question"`
	SelectedAnswerID *uint               `json:"selected_answer_id,omitempty"`
	CorrectAnswerID  *uint               `json:"correct_answer_id,omitempty"`
	TextAnswer       *string             `json:"text_answer,omitempty"`
	AudioAnswerURL   *string             `json:"audio_answer_url,omitempty"`
	IsCorrect        *bool               `json:"is_correct"`
	PendingGrade     bool                `json:"pending_grade"`
	ScoreObtained    float64             `json:"score_obtained"`
	MaxScore         float64             `json:"max_score"`
	Feedback         *string             `json:"feedback,omitempty"`
}

// TestAttemptDetailDTO is the full detail of one attempt.
type TestAttemptDetailDTO struct {
	ID           uint                `json:"id"`
	ExamID       uint                `json:"exam_id"`
	ExamTitle    string              `json:"exam_title,omitempty"`
	StudentID    uint                `json:"student_id"`
	StartedAt    time.Time           `json:"started_at"`
	SubmittedAt  *time.Time          `json:"submitted_at,omitempty"`
	Score        float64             `json:"score"`
	MaxScore     float64             `json:"max_score"`
	Percentage   *float64            `json:"percentage,omitempty"`
	Status       model.AttemptStatus `json:"status" swaggertype:"string"`
	PendingCount int                 `json:"pending_count"`
	Results      []TestResultDTO     `json:"results,omitempty"`
}

// TestAttemptSummaryDTO is used for attempt listings and the grading queue.
type TestAttemptSummaryDTO struct {
	ID          uint                `json:"id"`
	ExamID      uint                `json:"exam_id"`
	StudentID   uint                `json:"student_id"`
	SubmittedAt *time.Time          `json:"submitted_at,omitempty"`
	Score       float64             `json:"score"`
	MaxScore    float64             `json:"max_score"`
	Status      model.AttemptStatus `json:"status" swaggertype:"string"`
}

// GradeSuggestionDTO is an AI proposal for one pending result. Graders decide.
type GradeSuggestionDTO struct {
	ResultID   uint    `json:"result_id"`
	QuestionID uint    `json:"question_id"`
	Score      float64 `json:"score"`
	MaxScore   float64 `json:"max_score"`
	Feedback   string  `json:"feedback"`
	Error      string  `json:"error,omitempty"`
}
