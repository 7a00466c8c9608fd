package repository

import (
	"context"

	"github.com/lshigami/examhub/internal/model"
	"gorm.io/gorm"
)

type ImportLogRepository interface {
	Create(ctx context.Context, entry *model.ImportLog) error
	Recent(ctx context.Context, limit int) ([]model.ImportLog, error)
}

type importLogRepository struct {
	db *gorm.DB
}

func NewImportLogRepository(db *gorm.DB) ImportLogRepository {
	return &importLogRepository{db: db}
}

func (r *importLogRepository) Create(ctx context.Context, entry *model.ImportLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *importLogRepository) Recent(ctx context.Context, limit int) ([]model.ImportLog, error) {
	if limit <= 0 {
		limit = 20
	}
	var logs []model.ImportLog
	err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Find(&logs).Error
	return logs, err
}
