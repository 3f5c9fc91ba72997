package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/codariq/codariq-api/internal/dto"
	"github.com/codariq/codariq-api/internal/models"
	"github.com/codariq/codariq-api/internal/observability"
	"github.com/codariq/codariq-api/internal/registry"
	"github.com/codariq/codariq-api/internal/repository"
	"github.com/codariq/codariq-api/pkg/llm"
	"github.com/codariq/codariq-api/pkg/retrieval"
)

var (
	// ErrGenerationFailed wraps inference or parse failures. The failed run
	// is still recorded for evaluation.
	ErrGenerationFailed = errors.New("generation failed")
	// ErrGenerationNotFound indicates no run exists for the given id.
	ErrGenerationNotFound = errors.New("generation not found")
	// ErrReferenceTooLarge indicates an uploaded reference file over the limit.
	ErrReferenceTooLarge = errors.New("reference file too large")
	// ErrUnsupportedReferenceType indicates a non-text reference upload.
	ErrUnsupportedReferenceType = errors.New("reference file must be plain text")
)

// FileUploader persists generated code artifacts and returns a public URL.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// GenerationService runs the two-stage generation pipeline and records every
// run, successful or not.
type GenerationService interface {
	Generate(ctx context.Context, payload dto.GenerateRequest, reference *multipart.FileHeader) (dto.GenerationResponse, error)
	List(ctx context.Context, filter dto.GenerationFilter) ([]dto.GenerationResponse, error)
	Get(ctx context.Context, uuid string) (dto.GenerationResponse, error)
}

type generationService struct {
	generations repository.GenerationRepository
	registry    *registry.Registry
	provider    llm.Provider
	retriever   retrieval.Retriever
	uploader    FileUploader
	events      EventPublisher
	validator   *validator.Validate
	maxRefBytes int64
	logger      zerolog.Logger
}

// GenerationDeps bundles the orchestrator's collaborators. Retriever,
// uploader and events are optional.
type GenerationDeps struct {
	Generations repository.GenerationRepository
	Registry    *registry.Registry
	Provider    llm.Provider
	Retriever   retrieval.Retriever
	Uploader    FileUploader
	Events      EventPublisher
	Validator   *validator.Validate
	MaxRefBytes int64
	Logger      zerolog.Logger
}

// NewGenerationService constructs a GenerationService instance.
func NewGenerationService(deps GenerationDeps) GenerationService {
	return &generationService{
		generations: deps.Generations,
		registry:    deps.Registry,
		provider:    deps.Provider,
		retriever:   deps.Retriever,
		uploader:    deps.Uploader,
		events:      deps.Events,
		validator:   deps.Validator,
		maxRefBytes: deps.MaxRefBytes,
		logger:      deps.Logger.With().Str("component", "generation_service").Logger(),
	}
}

func (s *generationService) Generate(ctx context.Context, payload dto.GenerateRequest, reference *multipart.FileHeader) (dto.GenerationResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GenerationResponse{}, err
	}

	chatModel, err := s.registry.Resolve(payload.ChatModel)
	if err != nil {
		return dto.GenerationResponse{}, err
	}
	codeModel, err := s.registry.Resolve(payload.CodeModel)
	if err != nil {
		return dto.GenerationResponse{}, err
	}

	referenceText, err := s.readReference(reference)
	if err != nil {
		return dto.GenerationResponse{}, err
	}

	passages := s.retrieve(ctx, payload.Prompt, payload.TopK)

	started := time.Now()

	run := models.Generation{
		UUID:      uuid.NewString(),
		Prompt:    payload.Prompt,
		ChatModel: chatModel.Name,
		CodeModel: codeModel.Name,
	}

	output, err := s.runPipeline(ctx, chatModel, codeModel, payload.Prompt, passages, referenceText)
	run.DurationMS = time.Since(started).Milliseconds()

	if err != nil {
		run.Error = err.Error()
		if createErr := s.generations.Create(ctx, &run); createErr != nil {
			s.logger.Error().Err(createErr).Msg("failed to record failed generation")
		}
		observability.Generations().WithLabelValues(chatModel.Name, "failure").Inc()
		s.logger.Warn().Err(err).Str("uuid", run.UUID).Msg("generation failed")
		return dto.NewGenerationResponse(run), fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	run.Success = true
	run.Description = output.Description
	run.Code = output.Code
	run.Filename = llm.SanitizeFilename(output.Filename)
	run.TokensEst = len(output.Code) / 4
	run.Metrics = datatypes.JSONMap(codeMetrics(output.Code))

	if s.uploader != nil && run.Code != "" {
		url, uploadErr := s.uploader.Upload(ctx, run.Filename, strings.NewReader(run.Code))
		if uploadErr != nil {
			s.logger.Warn().Err(uploadErr).Str("uuid", run.UUID).Msg("artifact upload failed")
		} else {
			run.ArtifactURL = url
		}
	}

	if err := s.generations.Create(ctx, &run); err != nil {
		return dto.GenerationResponse{}, err
	}

	observability.Generations().WithLabelValues(chatModel.Name, "success").Inc()

	response := dto.NewGenerationResponse(run)
	if s.events != nil {
		s.events.Publish(ctx, TopicGenerations, response)
	}

	s.logger.Info().
		Str("uuid", run.UUID).
		Str("chat_model", run.ChatModel).
		Str("code_model", run.CodeModel).
		Int64("duration_ms", run.DurationMS).
		Msg("generation completed")

	return response, nil
}

// runPipeline is the two-stage flow: the chat model answers the prompt, then
// the code model restructures that answer into a JSON code artifact.
func (s *generationService) runPipeline(ctx context.Context, chatModel, codeModel registry.Descriptor, prompt string, passages []string, reference string) (llm.CodeOutput, error) {
	chatResp, err := s.provider.Complete(ctx, llm.CompletionRequest{
		Model:  chatModel.Model,
		System: llm.AgentContext,
		Prompt: llm.BuildGenerationPrompt(prompt, passages, reference),
	})
	if err != nil {
		return llm.CodeOutput{}, fmt.Errorf("chat stage: %w", err)
	}

	parseResp, err := s.provider.Complete(ctx, llm.CompletionRequest{
		Model:      codeModel.Model,
		Prompt:     llm.BuildParsePrompt(chatResp.Text),
		JSONOutput: true,
	})
	if err != nil {
		return llm.CodeOutput{}, fmt.Errorf("parse stage: %w", err)
	}

	output, err := llm.ParseCodeOutput(parseResp.Text)
	if err != nil {
		return llm.CodeOutput{}, fmt.Errorf("parse stage: %w", err)
	}

	return output, nil
}

func (s *generationService) retrieve(ctx context.Context, prompt string, topK int) []string {
	if s.retriever == nil {
		return nil
	}

	passages, err := s.retriever.Retrieve(ctx, prompt, topK)
	if err != nil {
		// Retrieval is advisory; generation proceeds without context.
		s.logger.Warn().Err(err).Msg("retrieval failed, generating without context")
		return nil
	}

	return retrieval.Texts(passages)
}

func (s *generationService) readReference(reference *multipart.FileHeader) (string, error) {
	if reference == nil {
		return "", nil
	}
	if s.maxRefBytes > 0 && reference.Size > s.maxRefBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrReferenceTooLarge, reference.Size)
	}

	file, err := reference.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	limit := s.maxRefBytes
	if limit <= 0 {
		limit = 1 << 20
	}
	content, err := io.ReadAll(io.LimitReader(file, limit))
	if err != nil {
		return "", err
	}

	detected := mimetype.Detect(content)
	if !isTextual(detected) {
		return "", fmt.Errorf("%w: got %s", ErrUnsupportedReferenceType, detected.String())
	}

	return string(content), nil
}

func isTextual(detected *mimetype.MIME) bool {
	for m := detected; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

func (s *generationService) List(ctx context.Context, filter dto.GenerationFilter) ([]dto.GenerationResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	generations, err := s.generations.List(ctx, repository.GenerationFilter{
		ChatModel: filter.ChatModel,
		CodeModel: filter.CodeModel,
		Success:   filter.Success,
		Limit:     filter.Limit,
	})
	if err != nil {
		return nil, err
	}

	return dto.NewGenerationResponseSlice(generations), nil
}

func (s *generationService) Get(ctx context.Context, id string) (dto.GenerationResponse, error) {
	generation, err := s.generations.GetByUUID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GenerationResponse{}, ErrGenerationNotFound
		}
		return dto.GenerationResponse{}, err
	}

	return dto.NewGenerationResponse(generation), nil
}

// codeMetrics computes static measures over generated code. They feed the
// evaluation summary; nothing here executes the code.
func codeMetrics(code string) map[string]any {
	lines := strings.Split(code, "\n")

	nonEmpty := 0
	totalLen := 0
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			nonEmpty++
		}
		totalLen += len(line)
	}

	avgLineLength := 0.0
	if len(lines) > 0 {
		avgLineLength = float64(totalLen) / float64(len(lines))
	}

	return map[string]any{
		"total_lines":     len(lines),
		"non_empty_lines": nonEmpty,
		"character_count": len(code),
		"has_docstrings":  strings.Contains(code, `"""`) || strings.Contains(code, "'''"),
		"has_comments":    strings.Contains(code, "#") || strings.Contains(code, "//"),
		"avg_line_length": avgLineLength,
	}
}
