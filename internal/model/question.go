package model

import "time"

type Question struct {
	ID                  uint               `gorm:"primarykey" json:"id"`
	Content             string             `json:"content" gorm:"type:text;not null"`
	SkillType           SkillType          `json:"skill_type" gorm:"not null;index"`
	QuestionType        QuestionType       `json:"question_type" gorm:"not null;index"`
	Level               int                `json:"level" gorm:"not null;default:1"` // 1-5
	MediaURL            *string            `json:"media_url,omitempty"`
	Explanation         *string            `json:"explanation,omitempty" gorm:"type:text"`
	ReadingPassageID    *uint              `json:"reading_passage_id,omitempty" gorm:"index"`
	ReadingPassage      *ReadingPassage    `json:"reading_passage,omitempty" gorm:"foreignKey:ReadingPassageID;constraint:OnDelete:SET NULL;"`
	ListeningResourceID *uint              `json:"listening_resource_id,omitempty" gorm:"index"`
	ListeningResource   *ListeningResource `json:"listening_resource,omitempty" gorm:"foreignKey:ListeningResourceID;constraint:OnDelete:SET NULL;"`
	Answers             []Answer           `json:"answers,omitempty" gorm:"foreignKey:QuestionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

// CorrectAnswerID returns the first answer flagged correct, or false when none is.
func (q *Question) CorrectAnswerID() (uint, bool) {
	for _, a := range q.Answers {
		if a.IsCorrect != nil && *a.IsCorrect {
			return a.ID, true
		}
	}
	return 0, false
}
