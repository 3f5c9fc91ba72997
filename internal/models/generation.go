package models

import (
	"time"

	"gorm.io/datatypes"
)

// Generation records one inference run end to end: the prompt, the models
// involved, the parsed output and basic static metrics over the generated
// code. Failed runs are recorded too so success rates can be derived.
type Generation struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	UUID        string            `gorm:"size:64;uniqueIndex;not null" json:"uuid"`
	Prompt      string            `gorm:"type:text;not null" json:"prompt"`
	Description string            `gorm:"type:text" json:"description"`
	Code        string            `gorm:"type:text" json:"code"`
	Filename    string            `gorm:"size:255" json:"filename"`
	ArtifactURL string            `gorm:"size:512" json:"artifact_url"`
	ChatModel   string            `gorm:"size:128;index" json:"chat_model"`
	CodeModel   string            `gorm:"size:128;index" json:"code_model"`
	Success     bool              `gorm:"not null" json:"success"`
	Error       string            `gorm:"type:text" json:"error,omitempty"`
	DurationMS  int64             `gorm:"not null" json:"duration_ms"`
	TokensEst   int               `json:"tokens_est"`
	Metrics     datatypes.JSONMap `json:"metrics"`
	CreatedAt   time.Time         `json:"created_at"`
}
