package dto

import (
	"time"

	"github.com/lshigami/examhub/internal/importer"
	"github.com/lshigami/examhub/internal/model"
)

type ErrorResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// ImportResultDTO is the outcome of a bulk import run.
type ImportResultDTO struct {
	Success      bool                `json:"success"`
	Message      string              `json:"message"`
	SheetType    string              `json:"sheet_type,omitempty"`
	Mode         string              `json:"mode"`
	ValidCount   int                 `json:"valid_count"`
	InvalidCount int                 `json:"invalid_count"`
	Errors       []importer.RowError `json:"errors"`
	RedirectURL  string              `json:"redirect_url,omitempty"`
	SuccessCount int                 `json:"success_count,omitempty"`
}

type ImportLogDTO struct {
	ID           uint                `json:"id"`
	SheetType    string              `json:"sheet_type"`
	FileName     string              `json:"file_name"`
	Committed    bool                `json:"committed"`
	ValidCount   int                 `json:"valid_count"`
	InvalidCount int                 `json:"invalid_count"`
	Errors       []importer.RowError `json:"errors,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
}

type StructurePartResponseDTO struct {
	ID         uint            `json:"id"`
	Name       string          `json:"name"`
	OrderIndex int             `json:"order_index"`
	SkillType  model.SkillType `json:"skill_type" swaggertype:"string"`
}

type StructureResponseDTO struct {
	ID          uint                       `json:"id"`
	Name        string                     `json:"name"`
	Description string                     `json:"description,omitempty"`
	Parts       []StructurePartResponseDTO `json:"parts"`
	CreatedAt   time.Time                  `json:"created_at"`
}

// StructureLoadResultDTO reports a YAML seeding run.
type StructureLoadResultDTO struct {
	Created []string `json:"created"`
	Skipped []string `json:"skipped"`
}
