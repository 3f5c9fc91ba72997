package models

import "time"

// Rating bounds for user feedback.
const (
	RatingMin = 1
	RatingMax = 5
)

// Feedback is one user judgment of a generated output. Records are
// append-only: they are never updated after creation and can only be
// removed through an explicit operator purge.
type Feedback struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	GenerationID string    `gorm:"size:64;index;not null" json:"generation_id"`
	Prompt       string    `gorm:"type:text" json:"prompt"`
	Output       string    `gorm:"type:text" json:"output"`
	Rating       int       `gorm:"not null" json:"rating"`
	Comment      string    `gorm:"type:text" json:"comment"`
	ChatModel    string    `gorm:"size:128;index" json:"chat_model"`
	CodeModel    string    `gorm:"size:128;index" json:"code_model"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsPositive reports whether the rating counts as positive feedback.
func (f Feedback) IsPositive() bool {
	return f.Rating >= 4
}
