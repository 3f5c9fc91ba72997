package dto

import "github.com/codariq/codariq-api/internal/registry"

// RegisterModelRequest adds or overwrites a backend model descriptor.
type RegisterModelRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=128"`
	Provider string `json:"provider" validate:"omitempty,max=64"`
	Model    string `json:"model" validate:"omitempty,max=128"`
	BaseURL  string `json:"base_url" validate:"omitempty,url"`
	Role     string `json:"role" validate:"omitempty,oneof=chat code"`
}

// ModelResponse is the public view of a registered model.
type ModelResponse struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Role     string `json:"role"`
}

// NewModelResponse maps a descriptor to its response shape. The backend base
// URL stays internal.
func NewModelResponse(d registry.Descriptor) ModelResponse {
	return ModelResponse{
		Name:     d.Name,
		Provider: d.Provider,
		Model:    d.Model,
		Role:     d.Role,
	}
}

// NewModelResponseSlice maps a slice of descriptors.
func NewModelResponseSlice(descriptors []registry.Descriptor) []ModelResponse {
	responses := make([]ModelResponse, 0, len(descriptors))
	for _, d := range descriptors {
		responses = append(responses, NewModelResponse(d))
	}
	return responses
}
