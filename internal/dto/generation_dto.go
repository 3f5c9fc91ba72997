package dto

import (
	"time"

	"github.com/codariq/codariq-api/internal/models"
)

// GenerateRequest asks the orchestrator for one code generation run. The
// form tags cover multipart submissions carrying a reference file.
type GenerateRequest struct {
	Prompt    string `json:"prompt" form:"prompt" validate:"required,min=3"`
	ChatModel string `json:"chat_model" form:"chat_model" validate:"required"`
	CodeModel string `json:"code_model" form:"code_model" validate:"required"`
	TopK      int    `json:"top_k" form:"top_k" validate:"omitempty,min=1,max=10"`
}

// GenerationFilter narrows generation listings.
type GenerationFilter struct {
	ChatModel *string `validate:"omitempty,min=1"`
	CodeModel *string `validate:"omitempty,min=1"`
	Success   *bool
	Limit     int `validate:"omitempty,min=1,max=500"`
}

// GenerationResponse is the public view of one generation run.
type GenerationResponse struct {
	UUID        string         `json:"uuid"`
	Prompt      string         `json:"prompt"`
	Description string         `json:"description"`
	Code        string         `json:"code"`
	Filename    string         `json:"filename"`
	ArtifactURL string         `json:"artifact_url,omitempty"`
	ChatModel   string         `json:"chat_model"`
	CodeModel   string         `json:"code_model"`
	Success     bool           `json:"success"`
	Error       string         `json:"error,omitempty"`
	DurationMS  int64          `json:"duration_ms"`
	TokensEst   int            `json:"tokens_est"`
	Metrics     map[string]any `json:"metrics,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// NewGenerationResponse maps a generation record to its response shape.
func NewGenerationResponse(g models.Generation) GenerationResponse {
	return GenerationResponse{
		UUID:        g.UUID,
		Prompt:      g.Prompt,
		Description: g.Description,
		Code:        g.Code,
		Filename:    g.Filename,
		ArtifactURL: g.ArtifactURL,
		ChatModel:   g.ChatModel,
		CodeModel:   g.CodeModel,
		Success:     g.Success,
		Error:       g.Error,
		DurationMS:  g.DurationMS,
		TokensEst:   g.TokensEst,
		Metrics:     g.Metrics,
		CreatedAt:   g.CreatedAt,
	}
}

// NewGenerationResponseSlice maps a slice of generation records.
func NewGenerationResponseSlice(generations []models.Generation) []GenerationResponse {
	responses := make([]GenerationResponse, 0, len(generations))
	for _, g := range generations {
		responses = append(responses, NewGenerationResponse(g))
	}
	return responses
}
