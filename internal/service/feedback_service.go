package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/codariq/codariq-api/internal/dto"
	"github.com/codariq/codariq-api/internal/models"
	"github.com/codariq/codariq-api/internal/observability"
	"github.com/codariq/codariq-api/internal/repository"
)

// ErrInvalidRating indicates a rating outside the accepted scale. Nothing is
// written when this is returned.
var ErrInvalidRating = errors.New("rating must be between 1 and 5")

const aggregateVersionKey = "feedback:agg:version"

// FeedbackService manages the append-only feedback log and its aggregates.
type FeedbackService interface {
	Submit(ctx context.Context, payload dto.FeedbackSubmitRequest) (dto.FeedbackResponse, error)
	Aggregate(ctx context.Context, filter dto.FeedbackFilter) (dto.AggregateResponse, error)
	Export(ctx context.Context, filter dto.FeedbackFilter) ([]dto.FeedbackResponse, error)
	Purge(ctx context.Context, filter dto.FeedbackFilter) (int64, error)
}

type feedbackService struct {
	feedback  repository.FeedbackRepository
	cache     *redis.Client
	cacheTTL  time.Duration
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	events    EventPublisher
	logger    zerolog.Logger
}

// NewFeedbackService constructs a FeedbackService instance. The cache client
// may be nil; aggregates are then recomputed on every call.
func NewFeedbackService(repo repository.FeedbackRepository, cache *redis.Client, cacheTTL time.Duration, validate *validator.Validate, events EventPublisher, logger zerolog.Logger) FeedbackService {
	return &feedbackService{
		feedback:  repo,
		cache:     cache,
		cacheTTL:  cacheTTL,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		events:    events,
		logger:    logger.With().Str("component", "feedback_service").Logger(),
	}
}

func (s *feedbackService) Submit(ctx context.Context, payload dto.FeedbackSubmitRequest) (dto.FeedbackResponse, error) {
	if payload.Rating < models.RatingMin || payload.Rating > models.RatingMax {
		return dto.FeedbackResponse{}, fmt.Errorf("%w: got %d", ErrInvalidRating, payload.Rating)
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.FeedbackResponse{}, err
	}

	payload.GenerationID = strings.TrimSpace(payload.GenerationID)

	// Repeat submissions for the same generation are idempotent.
	existing, err := s.feedback.FindByGenerationID(ctx, payload.GenerationID)
	if err == nil {
		s.logger.Debug().Str("generation_id", payload.GenerationID).Msg("feedback already recorded")
		return dto.NewFeedbackResponse(existing), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.FeedbackResponse{}, err
	}

	record := models.Feedback{
		GenerationID: payload.GenerationID,
		Prompt:       payload.Prompt,
		Output:       payload.Output,
		Rating:       payload.Rating,
		Comment:      strings.TrimSpace(s.sanitizer.Sanitize(payload.Comment)),
		ChatModel:    payload.ChatModel,
		CodeModel:    payload.CodeModel,
	}

	if err := s.feedback.Append(ctx, &record); err != nil {
		return dto.FeedbackResponse{}, err
	}

	s.invalidateAggregates(ctx)
	observability.FeedbackSubmitted().WithLabelValues(strconv.Itoa(record.Rating)).Inc()

	response := dto.NewFeedbackResponse(record)
	if s.events != nil {
		s.events.Publish(ctx, TopicFeedback, response)
	}

	s.logger.Info().Uint("feedback_id", record.ID).Str("generation_id", record.GenerationID).Int("rating", record.Rating).Msg("feedback recorded")

	return response, nil
}

func (s *feedbackService) Aggregate(ctx context.Context, filter dto.FeedbackFilter) (dto.AggregateResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return dto.AggregateResponse{}, err
	}

	cacheKey := s.aggregateCacheKey(ctx, filter)
	if s.cache != nil && cacheKey != "" {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.AggregateResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Str("key", cacheKey).Msg("aggregate cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read aggregate cache")
		}
	}

	records, err := s.feedback.List(ctx, repositoryFilter(filter))
	if err != nil {
		return dto.AggregateResponse{}, err
	}

	response := buildAggregate(records)

	if s.cache != nil && cacheKey != "" {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store aggregate cache")
			}
		}
	}

	return response, nil
}

func (s *feedbackService) Export(ctx context.Context, filter dto.FeedbackFilter) ([]dto.FeedbackResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	records, err := s.feedback.List(ctx, repositoryFilter(filter))
	if err != nil {
		return nil, err
	}

	return dto.NewFeedbackResponseSlice(records), nil
}

func (s *feedbackService) Purge(ctx context.Context, filter dto.FeedbackFilter) (int64, error) {
	deleted, err := s.feedback.Purge(ctx, repositoryFilter(filter))
	if err != nil {
		return 0, err
	}

	s.invalidateAggregates(ctx)
	s.logger.Info().Int64("deleted", deleted).Msg("feedback purged")

	return deleted, nil
}

// aggregateCacheKey namespaces cached aggregates with a version counter that
// is bumped on every submit and purge, so stale summaries are never served.
func (s *feedbackService) aggregateCacheKey(ctx context.Context, filter dto.FeedbackFilter) string {
	if s.cache == nil {
		return ""
	}

	version, err := s.cache.Get(ctx, aggregateVersionKey).Int64()
	if err != nil && err != redis.Nil {
		return ""
	}

	model := ""
	if filter.Model != nil {
		model = *filter.Model
	}
	since := int64(0)
	if filter.Since != nil {
		since = filter.Since.Unix()
	}
	until := int64(0)
	if filter.Until != nil {
		until = filter.Until.Unix()
	}

	return fmt.Sprintf("feedback:agg:%d:%s:%d:%d", version, model, since, until)
}

func (s *feedbackService) invalidateAggregates(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Incr(ctx, aggregateVersionKey).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to bump aggregate cache version")
	}
}

func repositoryFilter(filter dto.FeedbackFilter) repository.FeedbackFilter {
	return repository.FeedbackFilter{
		Model: filter.Model,
		Since: filter.Since,
		Until: filter.Until,
	}
}

func buildAggregate(records []models.Feedback) dto.AggregateResponse {
	response := dto.AggregateResponse{
		Count:        int64(len(records)),
		Distribution: make(map[int]int64, models.RatingMax),
	}

	if len(records) == 0 {
		return response
	}

	var sum int64
	var positive int64
	for _, record := range records {
		response.Distribution[record.Rating]++
		sum += int64(record.Rating)
		if record.IsPositive() {
			positive++
		}
	}

	mean := float64(sum) / float64(len(records))
	response.MeanRating = &mean
	response.PositiveRate = float64(positive) / float64(len(records)) * 100

	return response
}
