package model

import "time"

type Answer struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	QuestionID uint      `json:"question_id" gorm:"not null;index"`
	Content    string    `json:"content" gorm:"type:text;not null"`
	IsCorrect  *bool     `json:"is_correct,omitempty"` // nil for free-text answers
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
