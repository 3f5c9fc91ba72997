package service

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/codariq/codariq-api/internal/dto"
	"github.com/codariq/codariq-api/internal/models"
	"github.com/codariq/codariq-api/internal/repository"
)

const recentRunLimit = 10

// EvaluationService derives performance summaries from recorded runs.
type EvaluationService interface {
	Summary(ctx context.Context) (dto.EvaluationSummaryResponse, error)
}

type evaluationService struct {
	generations repository.GenerationRepository
	logger      zerolog.Logger
}

// NewEvaluationService constructs an EvaluationService instance.
func NewEvaluationService(generations repository.GenerationRepository, logger zerolog.Logger) EvaluationService {
	return &evaluationService{
		generations: generations,
		logger:      logger.With().Str("component", "evaluation_service").Logger(),
	}
}

func (s *evaluationService) Summary(ctx context.Context) (dto.EvaluationSummaryResponse, error) {
	runs, err := s.generations.List(ctx, repository.GenerationFilter{})
	if err != nil {
		return dto.EvaluationSummaryResponse{}, err
	}

	response := dto.EvaluationSummaryResponse{
		Total:      len(runs),
		ChatModels: []dto.ModelPerformance{},
		CodeModels: []dto.ModelPerformance{},
		Recent:     []dto.GenerationResponse{},
	}
	if len(runs) == 0 {
		return response, nil
	}

	var succeeded int
	var totalDuration int64
	for _, run := range runs {
		if run.Success {
			succeeded++
		}
		totalDuration += run.DurationMS
	}
	response.SuccessRate = float64(succeeded) / float64(len(runs)) * 100
	response.AvgDurationMS = float64(totalDuration) / float64(len(runs))

	response.ChatModels = perModel(runs, func(run models.Generation) string { return run.ChatModel })
	response.CodeModels = perModel(runs, func(run models.Generation) string { return run.CodeModel })

	recent := runs
	if len(recent) > recentRunLimit {
		recent = recent[:recentRunLimit]
	}
	response.Recent = dto.NewGenerationResponseSlice(recent)

	return response, nil
}

type modelTally struct {
	count     int
	succeeded int
	duration  int64
	tokens    int
}

func perModel(runs []models.Generation, key func(models.Generation) string) []dto.ModelPerformance {
	tallies := make(map[string]*modelTally)
	for _, run := range runs {
		name := key(run)
		if name == "" {
			continue
		}
		tally, ok := tallies[name]
		if !ok {
			tally = &modelTally{}
			tallies[name] = tally
		}
		tally.count++
		if run.Success {
			tally.succeeded++
		}
		tally.duration += run.DurationMS
		tally.tokens += run.TokensEst
	}

	performances := make([]dto.ModelPerformance, 0, len(tallies))
	for name, tally := range tallies {
		performances = append(performances, dto.ModelPerformance{
			Model:         name,
			Count:         tally.count,
			SuccessRate:   float64(tally.succeeded) / float64(tally.count) * 100,
			AvgDurationMS: float64(tally.duration) / float64(tally.count),
			AvgTokensEst:  float64(tally.tokens) / float64(tally.count),
		})
	}

	sort.Slice(performances, func(i, j int) bool {
		return performances[i].Model < performances[j].Model
	})

	return performances
}
