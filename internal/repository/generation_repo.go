package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/codariq/codariq-api/internal/models"
)

// GenerationFilter narrows generation queries.
type GenerationFilter struct {
	ChatModel *string
	CodeModel *string
	Success   *bool
	Limit     int
}

// GenerationRepository defines data operations for recorded generation runs.
type GenerationRepository interface {
	Create(ctx context.Context, generation *models.Generation) error
	List(ctx context.Context, filter GenerationFilter) ([]models.Generation, error)
	GetByUUID(ctx context.Context, uuid string) (models.Generation, error)
}

type generationRepository struct {
	db *gorm.DB
}

// NewGenerationRepository instantiates the repository.
func NewGenerationRepository(db *gorm.DB) GenerationRepository {
	return &generationRepository{db: db}
}

func (r *generationRepository) Create(ctx context.Context, generation *models.Generation) error {
	return r.db.WithContext(ctx).Create(generation).Error
}

func (r *generationRepository) List(ctx context.Context, filter GenerationFilter) ([]models.Generation, error) {
	query := r.db.WithContext(ctx).Model(&models.Generation{})

	if filter.ChatModel != nil {
		query = query.Where("chat_model = ?", *filter.ChatModel)
	}
	if filter.CodeModel != nil {
		query = query.Where("code_model = ?", *filter.CodeModel)
	}
	if filter.Success != nil {
		query = query.Where("success = ?", *filter.Success)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var generations []models.Generation
	if err := query.Order("created_at DESC").Find(&generations).Error; err != nil {
		return nil, err
	}

	return generations, nil
}

func (r *generationRepository) GetByUUID(ctx context.Context, uuid string) (models.Generation, error) {
	var generation models.Generation
	if err := r.db.WithContext(ctx).
		Where("uuid = ?", uuid).
		First(&generation).Error; err != nil {
		return models.Generation{}, err
	}

	return generation, nil
}
