package model

import "time"

// ReadingPassage is a shared text prompt owning a group of questions.
type ReadingPassage struct {
	ID        uint       `gorm:"primarykey" json:"id"`
	Title     string     `json:"title" gorm:"not null"`
	Content   string     `json:"content" gorm:"type:text;not null"`
	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:ReadingPassageID"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ListeningResource is an audio prompt with its transcript.
type ListeningResource struct {
	ID         uint       `gorm:"primarykey" json:"id"`
	Title      string     `json:"title" gorm:"not null"`
	Transcript string     `json:"transcript" gorm:"type:text;not null"`
	AudioURL   *string    `json:"audio_url,omitempty"`
	Questions  []Question `json:"questions,omitempty" gorm:"foreignKey:ListeningResourceID"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
