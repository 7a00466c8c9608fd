package model

import "time"

// ExamStructure is a reusable section template. It is only copied into exams,
// never referenced by them afterwards.
type ExamStructure struct {
	ID          uint            `gorm:"primarykey" json:"id"`
	Name        string          `json:"name" gorm:"not null;uniqueIndex"`
	Description string          `json:"description,omitempty"`
	Parts       []StructurePart `json:"parts,omitempty" gorm:"foreignKey:ExamStructureID;constraint:OnDelete:CASCADE;"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type StructurePart struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	ExamStructureID uint      `json:"exam_structure_id" gorm:"not null;index"`
	Name            string    `json:"name" gorm:"not null"`
	OrderIndex      int       `json:"order_index" gorm:"not null"`
	SkillType       SkillType `json:"skill_type" gorm:"not null"`
}
