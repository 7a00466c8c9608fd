package dto

import "time"

// ExamCreateDTO creates an exam, optionally stamped from a structure template.
type ExamCreateDTO struct {
	Title           string     `json:"title" binding:"required"`
	Description     string     `json:"description,omitempty"`
	DurationMinutes int        `json:"duration_minutes" binding:"required,min=1"`
	StartsAt        *time.Time `json:"starts_at"`
	EndsAt          *time.Time `json:"ends_at"`
	StructureID     *uint      `json:"structure_id"`
}

type InstantiateStructureDTO struct {
	StructureID uint `json:"structure_id" binding:"required"`
}

type ExamPartCreateDTO struct {
	Name      string `json:"name" binding:"required"`
	SkillType string `json:"skill_type" binding:"required,oneof=none listening reading writing speaking grammar"`
}

// AddQuestionDTO links one bank question. An omitted score defaults to 1;
// an explicit 0 links an unweighted question.
type AddQuestionDTO struct {
	QuestionID uint     `json:"question_id" binding:"required"`
	Score      *float64 `json:"score" binding:"omitempty,min=0"`
}

// AddResourceGroupDTO links every question of a passage or listening resource.
type AddResourceGroupDTO struct {
	ResourceID       uint    `json:"resource_id" binding:"required"`
	ResourceType     string  `json:"resource_type" binding:"required,oneof=reading listening"`
	ScorePerQuestion *float64 `json:"score_per_question" binding:"omitempty,min=0"`
}

// QuestionQuery filters bank listings and the exam question picker.
type QuestionQuery struct {
	Skill           string `form:"skill"`
	Type            string `form:"type"`
	Level           int    `form:"level" binding:"omitempty,min=1,max=5"`
	Search          string `form:"q"`
	Limit           int    `form:"limit" binding:"omitempty,min=1,max=500"`
	IncludeSelected bool   `form:"include_selected"`
}

// ResultGradeDTO is the grader input for one test result.
type ResultGradeDTO struct {
	ResultID uint     `json:"result_id" binding:"required"`
	Score    *float64 `json:"score" binding:"omitempty,min=0"`
	Feedback *string  `json:"feedback"`
}

type ManualGradeDTO struct {
	Grades []ResultGradeDTO `json:"grades" binding:"required,min=1,dive"`
}

// StructurePartDTO is one section of a structure template.
type StructurePartDTO struct {
	Name       string `json:"name" yaml:"name" binding:"required" validate:"required"`
	OrderIndex int    `json:"order_index" yaml:"order_index" binding:"required,min=1" validate:"required,min=1"`
	SkillType  string `json:"skill_type" yaml:"skill_type" binding:"required" validate:"required,oneof=none listening reading writing speaking grammar"`
}

type StructureCreateDTO struct {
	Name        string             `json:"name" yaml:"name" binding:"required" validate:"required"`
	Description string             `json:"description,omitempty" yaml:"description"`
	Parts       []StructurePartDTO `json:"parts" yaml:"parts" binding:"required,min=1,dive" validate:"required,min=1,dive"`
}

// StructureFileDTO is the YAML seed file layout.
type StructureFileDTO struct {
	Structures []StructureCreateDTO `yaml:"structures" validate:"required,min=1,dive"`
}
