package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/codariq/codariq-api/internal/models"
)

// FeedbackFilter narrows feedback queries. Model matches either the chat or
// the code model of a record.
type FeedbackFilter struct {
	Model *string
	Since *time.Time
	Until *time.Time
}

// FeedbackRepository defines data operations for the append-only feedback
// log. There is deliberately no update method: records are immutable once
// written, and Purge is the only removal path.
type FeedbackRepository interface {
	Append(ctx context.Context, feedback *models.Feedback) error
	List(ctx context.Context, filter FeedbackFilter) ([]models.Feedback, error)
	FindByGenerationID(ctx context.Context, generationID string) (models.Feedback, error)
	Count(ctx context.Context) (int64, error)
	Purge(ctx context.Context, filter FeedbackFilter) (int64, error)
}

type feedbackRepository struct {
	db *gorm.DB
}

// NewFeedbackRepository instantiates the repository.
func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

func (r *feedbackRepository) applyFilter(query *gorm.DB, filter FeedbackFilter) *gorm.DB {
	if filter.Model != nil {
		query = query.Where("chat_model = ? OR code_model = ?", *filter.Model, *filter.Model)
	}
	if filter.Since != nil {
		query = query.Where("created_at >= ?", *filter.Since)
	}
	if filter.Until != nil {
		query = query.Where("created_at < ?", *filter.Until)
	}
	return query
}

func (r *feedbackRepository) Append(ctx context.Context, feedback *models.Feedback) error {
	return r.db.WithContext(ctx).Create(feedback).Error
}

func (r *feedbackRepository) List(ctx context.Context, filter FeedbackFilter) ([]models.Feedback, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.Feedback{}), filter)

	var feedback []models.Feedback
	if err := query.Order("id ASC").Find(&feedback).Error; err != nil {
		return nil, err
	}

	return feedback, nil
}

func (r *feedbackRepository) FindByGenerationID(ctx context.Context, generationID string) (models.Feedback, error) {
	var feedback models.Feedback
	if err := r.db.WithContext(ctx).
		Where("generation_id = ?", generationID).
		First(&feedback).Error; err != nil {
		return models.Feedback{}, err
	}

	return feedback, nil
}

func (r *feedbackRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Feedback{}).Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

func (r *feedbackRepository) Purge(ctx context.Context, filter FeedbackFilter) (int64, error) {
	query := r.applyFilter(r.db.WithContext(ctx), filter)

	result := query.Delete(&models.Feedback{})
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}
