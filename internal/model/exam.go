package model

import (
	"time"

	"gorm.io/gorm"
)

type Exam struct {
	ID              uint           `gorm:"primarykey" json:"id"`
	Title           string         `json:"title" gorm:"not null"`
	Description     string         `json:"description,omitempty"`
	DurationMinutes int            `json:"duration_minutes" gorm:"not null"`
	StartsAt        *time.Time     `json:"starts_at,omitempty"`
	EndsAt          *time.Time     `json:"ends_at,omitempty"`
	IsActive        bool           `json:"is_active" gorm:"default:true"`
	Parts           []ExamPart     `json:"parts,omitempty" gorm:"foreignKey:ExamID;constraint:OnDelete:CASCADE;"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// ExamPart is one ordered section of an exam.
type ExamPart struct {
	ID         uint           `gorm:"primarykey" json:"id"`
	ExamID     uint           `json:"exam_id" gorm:"not null;index"`
	Name       string         `json:"name" gorm:"not null"`
	OrderIndex int            `json:"order_index" gorm:"not null"`
	SkillType  SkillType      `json:"skill_type" gorm:"not null"`
	Questions  []ExamQuestion `json:"questions,omitempty" gorm:"foreignKey:ExamPartID;constraint:OnDelete:CASCADE;"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// ExamQuestion links a bank question into a part. ExamID is denormalised so that
// the (exam_id, question_id) unique index keeps a question to one slot per exam.
type ExamQuestion struct {
	ID         uint     `gorm:"primarykey" json:"id"`
	ExamID     uint     `json:"exam_id" gorm:"not null;uniqueIndex:idx_exam_question"`
	ExamPartID uint     `json:"exam_part_id" gorm:"not null;index"`
	QuestionID uint     `json:"question_id" gorm:"not null;uniqueIndex:idx_exam_question"`
	Question   Question `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
	SortOrder  int      `json:"sort_order" gorm:"not null"`
	Score      float64  `json:"score" gorm:"not null;default:1"`
}
