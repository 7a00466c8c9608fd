package model

import (
	"time"

	"gorm.io/gorm"
)

type TestAttempt struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	ExamID      uint           `json:"exam_id" gorm:"not null;index"`
	Exam        Exam           `json:"exam,omitempty" gorm:"foreignKey:ExamID"`
	StudentID   uint           `json:"student_id" gorm:"not null;index"`
	StartedAt   time.Time      `json:"started_at"`
	SubmittedAt *time.Time     `json:"submitted_at,omitempty"`
	Score       float64        `json:"score"`
	MaxScore    float64        `json:"max_score"`
	Status      AttemptStatus  `json:"status" gorm:"not null;default:0;index"`
	Results     []TestResult   `json:"results,omitempty" gorm:"foreignKey:TestAttemptID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TestResult is the per-question outcome of an attempt. IsCorrect nil means
// the result waits for a human grader.
type TestResult struct {
	ID               uint      `gorm:"primarykey" json:"id"`
	TestAttemptID    uint      `json:"test_attempt_id" gorm:"not null;index"`
	QuestionID       uint      `json:"question_id" gorm:"not null;index"`
	Question         Question  `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
	SelectedAnswerID *uint     `json:"selected_answer_id,omitempty"`
	TextAnswer       *string   `json:"text_answer,omitempty" gorm:"type:text"`
	AudioAnswerURL   *string   `json:"audio_answer_url,omitempty"`
	IsCorrect        *bool     `json:"is_correct,omitempty"`
	ScoreObtained    float64   `json:"score_obtained"`
	MaxScore         float64   `json:"max_score"`
	Feedback         *string   `json:"feedback,omitempty" gorm:"type:text"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// PendingManualGrade reports whether the result still needs a grader.
func (r *TestResult) PendingManualGrade() bool {
	return r.IsCorrect == nil
}
