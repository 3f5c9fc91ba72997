package dto

import "github.com/codariq/codariq-api/pkg/llm"

// InsightRequest scopes the feedback set the analysis runs over.
type InsightRequest struct {
	Model string `json:"model" validate:"omitempty,min=1"`
}

// InsightResponse carries the model-produced analysis of collected feedback.
type InsightResponse struct {
	Analyzed int         `json:"analyzed"`
	Insight  llm.Insight `json:"insight"`
}

// ImprovementRequest asks for suggestions over one generated output.
type ImprovementRequest struct {
	Code     string `json:"code" validate:"required"`
	Feedback string `json:"feedback" validate:"required"`
	Prompt   string `json:"prompt"`
}

// ImprovementResponse lists categorized improvement suggestions.
type ImprovementResponse struct {
	Suggestions []llm.Suggestion `json:"suggestions"`
}

// CategorizedComment is one feedback comment placed in a category.
type CategorizedComment struct {
	Comment      string `json:"comment"`
	Rating       int    `json:"rating"`
	GenerationID string `json:"generation_id"`
	Timestamp    string `json:"timestamp"`
}

// CategorizationResponse groups feedback comments by category. Comments the
// model fails to place land under "Uncategorized".
type CategorizationResponse struct {
	Categories map[string][]CategorizedComment `json:"categories"`
}
