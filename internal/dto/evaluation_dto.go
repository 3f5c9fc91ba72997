package dto

// ModelPerformance compares generation outcomes for one backend model.
type ModelPerformance struct {
	Model         string  `json:"model"`
	Count         int     `json:"count"`
	SuccessRate   float64 `json:"success_rate"`
	AvgDurationMS float64 `json:"avg_duration_ms"`
	AvgTokensEst  float64 `json:"avg_tokens_est"`
}

// EvaluationSummaryResponse aggregates recorded generation runs.
type EvaluationSummaryResponse struct {
	Total         int                  `json:"total"`
	SuccessRate   float64              `json:"success_rate"`
	AvgDurationMS float64              `json:"avg_duration_ms"`
	ChatModels    []ModelPerformance   `json:"chat_models"`
	CodeModels    []ModelPerformance   `json:"code_models"`
	Recent        []GenerationResponse `json:"recent"`
}
