package repository

import (
	"context"

	"github.com/lshigami/examhub/internal/model"
	"gorm.io/gorm"
)

type StructureRepository interface {
	Create(ctx context.Context, structure *model.ExamStructure) error
	FindByID(ctx context.Context, id uint) (*model.ExamStructure, error)
	FindByName(ctx context.Context, name string) (*model.ExamStructure, error)
	List(ctx context.Context) ([]model.ExamStructure, error)
}

type structureRepository struct {
	db *gorm.DB
}

func NewStructureRepository(db *gorm.DB) StructureRepository {
	return &structureRepository{db: db}
}

func orderedParts(db *gorm.DB) *gorm.DB {
	return db.Order("structure_parts.order_index ASC")
}

func (r *structureRepository) Create(ctx context.Context, structure *model.ExamStructure) error {
	return r.db.WithContext(ctx).Create(structure).Error
}

func (r *structureRepository) FindByID(ctx context.Context, id uint) (*model.ExamStructure, error) {
	var structure model.ExamStructure
	if err := r.db.WithContext(ctx).Preload("Parts", orderedParts).First(&structure, id).Error; err != nil {
		return nil, notFound(err, model.ErrStructureNotFound)
	}
	return &structure, nil
}

func (r *structureRepository) FindByName(ctx context.Context, name string) (*model.ExamStructure, error) {
	var structure model.ExamStructure
	err := r.db.WithContext(ctx).Preload("Parts", orderedParts).Where("name = ?", name).First(&structure).Error
	if err != nil {
		return nil, notFound(err, model.ErrStructureNotFound)
	}
	return &structure, nil
}

func (r *structureRepository) List(ctx context.Context) ([]model.ExamStructure, error) {
	var structures []model.ExamStructure
	if err := r.db.WithContext(ctx).Preload("Parts", orderedParts).Order("name ASC").Find(&structures).Error; err != nil {
		return nil, err
	}
	return structures, nil
}
