package dto

import (
	"time"

	"github.com/codariq/codariq-api/internal/models"
)

// FeedbackSubmitRequest records one user judgment of a generated output.
// Rating bounds are enforced by the service so an out-of-range value maps to
// the dedicated invalid-rating error rather than a generic validation error.
type FeedbackSubmitRequest struct {
	GenerationID string `json:"generation_id" validate:"required"`
	Prompt       string `json:"prompt"`
	Output       string `json:"output"`
	Rating       int    `json:"rating" validate:"required"`
	Comment      string `json:"comment" validate:"omitempty,max=4000"`
	ChatModel    string `json:"chat_model"`
	CodeModel    string `json:"code_model"`
}

// FeedbackFilter narrows feedback queries.
type FeedbackFilter struct {
	Model *string `validate:"omitempty,min=1"`
	Since *time.Time
	Until *time.Time
}

// FeedbackResponse is the public view of one feedback record.
type FeedbackResponse struct {
	ID           uint      `json:"id"`
	GenerationID string    `json:"generation_id"`
	Prompt       string    `json:"prompt"`
	Output       string    `json:"output"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	ChatModel    string    `json:"chat_model"`
	CodeModel    string    `json:"code_model"`
	CreatedAt    time.Time `json:"created_at"`
}

// AggregateResponse summarizes a filtered set of feedback records.
// MeanRating is nil when no records match the filter; the JSON field is
// omitted rather than reporting NaN or a misleading zero.
type AggregateResponse struct {
	Count        int64         `json:"count"`
	MeanRating   *float64      `json:"mean_rating,omitempty"`
	Distribution map[int]int64 `json:"distribution"`
	PositiveRate float64       `json:"positive_rate"`
}

// NewFeedbackResponse maps a feedback record to its response shape.
func NewFeedbackResponse(f models.Feedback) FeedbackResponse {
	return FeedbackResponse{
		ID:           f.ID,
		GenerationID: f.GenerationID,
		Prompt:       f.Prompt,
		Output:       f.Output,
		Rating:       f.Rating,
		Comment:      f.Comment,
		ChatModel:    f.ChatModel,
		CodeModel:    f.CodeModel,
		CreatedAt:    f.CreatedAt,
	}
}

// NewFeedbackResponseSlice maps a slice of feedback records.
func NewFeedbackResponseSlice(feedback []models.Feedback) []FeedbackResponse {
	responses := make([]FeedbackResponse, 0, len(feedback))
	for _, f := range feedback {
		responses = append(responses, NewFeedbackResponse(f))
	}
	return responses
}
