package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/codariq/codariq-api/internal/dto"
	"github.com/codariq/codariq-api/internal/models"
	"github.com/codariq/codariq-api/internal/repository"
	"github.com/codariq/codariq-api/pkg/llm"
)

// ErrNoFeedback indicates there are no commented feedback records to analyze.
var ErrNoFeedback = errors.New("no feedback with comments to analyze")

const uncategorized = "Uncategorized"

// InsightService turns collected feedback back into model-produced analysis:
// aggregate themes, concrete improvement suggestions and per-comment
// categorization.
type InsightService interface {
	Analyze(ctx context.Context, payload dto.InsightRequest) (dto.InsightResponse, error)
	SuggestImprovements(ctx context.Context, payload dto.ImprovementRequest) (dto.ImprovementResponse, error)
	Categorize(ctx context.Context, payload dto.InsightRequest) (dto.CategorizationResponse, error)
}

type insightService struct {
	feedback  repository.FeedbackRepository
	provider  llm.Provider
	model     string
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewInsightService constructs an InsightService backed by the configured
// insight model.
func NewInsightService(feedback repository.FeedbackRepository, provider llm.Provider, model string, validate *validator.Validate, logger zerolog.Logger) InsightService {
	return &insightService{
		feedback:  feedback,
		provider:  provider,
		model:     model,
		validator: validate,
		logger:    logger.With().Str("component", "insight_service").Logger(),
	}
}

func (s *insightService) Analyze(ctx context.Context, payload dto.InsightRequest) (dto.InsightResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.InsightResponse{}, err
	}

	records, err := s.commented(ctx, payload.Model)
	if err != nil {
		return dto.InsightResponse{}, err
	}

	entries := make([]llm.FeedbackEntry, 0, len(records))
	for _, record := range records {
		entries = append(entries, llm.FeedbackEntry{
			Prompt:    record.Prompt,
			Output:    record.Output,
			Rating:    record.Rating,
			Comment:   record.Comment,
			ChatModel: record.ChatModel,
			CodeModel: record.CodeModel,
		})
	}

	resp, err := s.provider.Complete(ctx, llm.CompletionRequest{
		Model:      s.model,
		Prompt:     llm.BuildFeedbackAnalysisPrompt(entries),
		JSONOutput: true,
	})
	if err != nil {
		return dto.InsightResponse{}, err
	}

	insight, err := llm.ParseInsight(resp.Text)
	if err != nil {
		return dto.InsightResponse{}, err
	}

	s.logger.Info().Int("analyzed", len(entries)).Msg("feedback analysis completed")

	return dto.InsightResponse{Analyzed: len(entries), Insight: insight}, nil
}

func (s *insightService) SuggestImprovements(ctx context.Context, payload dto.ImprovementRequest) (dto.ImprovementResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ImprovementResponse{}, err
	}

	resp, err := s.provider.Complete(ctx, llm.CompletionRequest{
		Model:      s.model,
		Prompt:     llm.BuildImprovementPrompt(payload.Code, payload.Feedback, payload.Prompt),
		JSONOutput: true,
	})
	if err != nil {
		return dto.ImprovementResponse{}, err
	}

	suggestions, err := llm.ParseSuggestions(resp.Text)
	if err != nil {
		return dto.ImprovementResponse{}, err
	}

	return dto.ImprovementResponse{Suggestions: suggestions}, nil
}

func (s *insightService) Categorize(ctx context.Context, payload dto.InsightRequest) (dto.CategorizationResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CategorizationResponse{}, err
	}

	records, err := s.commented(ctx, payload.Model)
	if err != nil {
		return dto.CategorizationResponse{}, err
	}

	response := dto.CategorizationResponse{Categories: make(map[string][]dto.CategorizedComment)}
	for _, record := range records {
		entry := dto.CategorizedComment{
			Comment:      record.Comment,
			Rating:       record.Rating,
			GenerationID: record.GenerationID,
			Timestamp:    record.CreatedAt.Format(time.RFC3339),
		}

		for _, category := range s.categorizeComment(ctx, record) {
			response.Categories[category] = append(response.Categories[category], entry)
		}
	}

	return response, nil
}

// categorizeComment asks the insight model to place one comment. Failures of
// any kind land the comment in the catch-all bucket instead of dropping it.
func (s *insightService) categorizeComment(ctx context.Context, record models.Feedback) []string {
	resp, err := s.provider.Complete(ctx, llm.CompletionRequest{
		Model:      s.model,
		Prompt:     llm.BuildCategorizationPrompt(record.Comment, record.Prompt, record.Output),
		JSONOutput: true,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("generation_id", record.GenerationID).Msg("categorization call failed")
		return []string{uncategorized}
	}

	categories, err := llm.ParseCategories(resp.Text)
	if err != nil || len(categories) == 0 {
		return []string{uncategorized}
	}

	return categories
}

func (s *insightService) commented(ctx context.Context, model string) ([]models.Feedback, error) {
	filter := repository.FeedbackFilter{}
	if model != "" {
		filter.Model = &model
	}

	records, err := s.feedback.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	commented := make([]models.Feedback, 0, len(records))
	for _, record := range records {
		if record.Comment != "" {
			commented = append(commented, record)
		}
	}
	if len(commented) == 0 {
		return nil, ErrNoFeedback
	}

	return commented, nil
}
