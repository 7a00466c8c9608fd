package model

import (
	"time"

	"gorm.io/datatypes"
)

// ImportLog records one save-mode bulk import run, committed or rejected.
type ImportLog struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	SheetType    string         `json:"sheet_type" gorm:"not null"`
	FileName     string         `json:"file_name"`
	Committed    bool           `json:"committed"`
	ValidCount   int            `json:"valid_count"`
	InvalidCount int            `json:"invalid_count"`
	Errors       datatypes.JSON `json:"errors,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}
