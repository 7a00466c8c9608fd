package repository

import (
	"context"

	"github.com/lshigami/examhub/internal/model"
	"gorm.io/gorm"
)

// ResourceRepository stores reading passages and listening resources, the two
// parent kinds that own question groups.
type ResourceRepository interface {
	CreatePassages(ctx context.Context, passages []model.ReadingPassage) error
	CreateListeningResources(ctx context.Context, resources []model.ListeningResource) error
	// Questions returns the child questions of a resource in creation order.
	Questions(ctx context.Context, kind model.ResourceType, id uint) ([]model.Question, error)
	// Delete orphans the child questions and removes the resource.
	Delete(ctx context.Context, kind model.ResourceType, id uint) error
}

type resourceRepository struct {
	db *gorm.DB
}

func NewResourceRepository(db *gorm.DB) ResourceRepository {
	return &resourceRepository{db: db}
}

func (r *resourceRepository) CreatePassages(ctx context.Context, passages []model.ReadingPassage) error {
	if len(passages) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&passages).Error
}

func (r *resourceRepository) CreateListeningResources(ctx context.Context, resources []model.ListeningResource) error {
	if len(resources) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&resources).Error
}

func resourceTarget(kind model.ResourceType) (interface{}, string, error) {
	switch kind {
	case model.ResourceReading:
		return &model.ReadingPassage{}, "reading_passage_id", nil
	case model.ResourceListening:
		return &model.ListeningResource{}, "listening_resource_id", nil
	}
	return nil, "", model.ErrInvalidResourceType
}

func (r *resourceRepository) Questions(ctx context.Context, kind model.ResourceType, id uint) ([]model.Question, error) {
	target, column, err := resourceTarget(kind)
	if err != nil {
		return nil, err
	}
	db := r.db.WithContext(ctx)
	if err := db.First(target, id).Error; err != nil {
		return nil, notFound(err, model.ErrResourceNotFound)
	}

	var questions []model.Question
	if err := db.Where(column+" = ?", id).Order("id ASC").Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *resourceRepository) Delete(ctx context.Context, kind model.ResourceType, id uint) error {
	target, column, err := resourceTarget(kind)
	if err != nil {
		return err
	}
	db := r.db.WithContext(ctx)
	if err := db.Model(&model.Question{}).Where(column+" = ?", id).Update(column, nil).Error; err != nil {
		return err
	}
	res := db.Delete(target, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrResourceNotFound
	}
	return nil
}
