package llm

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var codeOutputSchema = jsonschema.MustCompileString("code_output.json", `{
	"type": "object",
	"required": ["description", "code", "filename"],
	"properties": {
		"description": {"type": "string"},
		"code": {"type": "string", "minLength": 1},
		"filename": {"type": "string", "minLength": 1}
	}
}`)

var insightSchema = jsonschema.MustCompileString("insight.json", `{
	"type": "object",
	"required": ["common_themes", "areas_for_improvement", "user_likes", "improvement_suggestions"],
	"properties": {
		"common_themes": {"type": "array", "items": {"type": "string"}},
		"areas_for_improvement": {"type": "array", "items": {"type": "string"}},
		"user_likes": {"type": "array", "items": {"type": "string"}},
		"improvement_suggestions": {"type": "array", "items": {"type": "string"}}
	}
}`)

var suggestionSchema = jsonschema.MustCompileString("suggestions.json", `{
	"type": "object",
	"required": ["suggestions"],
	"properties": {
		"suggestions": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["category", "suggestion", "reason", "priority"],
				"properties": {
					"category": {"enum": ["Quality", "Readability", "Performance", "BestPractices"]},
					"suggestion": {"type": "string"},
					"reason": {"type": "string"},
					"priority": {"enum": ["High", "Medium", "Low"]}
				}
			}
		}
	}
}`)

var categorySchema = jsonschema.MustCompileString("categories.json", `{
	"type": "array",
	"items": {
		"enum": ["Code Quality", "Performance", "Readability", "Documentation", "Functionality", "Best Practices"]
	}
}`)

// CodeOutput is the structured result of the code-parsing stage.
type CodeOutput struct {
	Description string `json:"description"`
	Code        string `json:"code"`
	Filename    string `json:"filename"`
}

// Insight is the structured result of batch feedback analysis.
type Insight struct {
	CommonThemes           []string `json:"common_themes"`
	AreasForImprovement    []string `json:"areas_for_improvement"`
	UserLikes              []string `json:"user_likes"`
	ImprovementSuggestions []string `json:"improvement_suggestions"`
}

// Suggestion is one categorized improvement recommendation.
type Suggestion struct {
	Category   string `json:"category"`
	Suggestion string `json:"suggestion"`
	Reason     string `json:"reason"`
	Priority   string `json:"priority"`
}

// ParseCodeOutput validates and decodes the code model's JSON answer.
func ParseCodeOutput(content string) (CodeOutput, error) {
	cleaned := CleanModelJSON(content)

	if err := validate(codeOutputSchema, cleaned); err != nil {
		return CodeOutput{}, fmt.Errorf("code output does not match schema: %w", err)
	}

	var output CodeOutput
	if err := json.Unmarshal([]byte(cleaned), &output); err != nil {
		return CodeOutput{}, fmt.Errorf("parse code output: %w", err)
	}

	output.Filename = SanitizeFilename(output.Filename)
	return output, nil
}

// ParseInsight validates and decodes a feedback analysis answer.
func ParseInsight(content string) (Insight, error) {
	cleaned := CleanModelJSON(content)

	if err := validate(insightSchema, cleaned); err != nil {
		return Insight{}, fmt.Errorf("insight does not match schema: %w", err)
	}

	var insight Insight
	if err := json.Unmarshal([]byte(cleaned), &insight); err != nil {
		return Insight{}, fmt.Errorf("parse insight: %w", err)
	}

	return insight, nil
}

// ParseSuggestions validates and decodes an improvement suggestion answer.
func ParseSuggestions(content string) ([]Suggestion, error) {
	cleaned := CleanModelJSON(content)

	if err := validate(suggestionSchema, cleaned); err != nil {
		return nil, fmt.Errorf("suggestions do not match schema: %w", err)
	}

	var payload struct {
		Suggestions []Suggestion `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("parse suggestions: %w", err)
	}

	return payload.Suggestions, nil
}

// ParseCategories validates and decodes a categorization answer.
func ParseCategories(content string) ([]string, error) {
	cleaned := CleanModelJSON(content)

	if err := validate(categorySchema, cleaned); err != nil {
		return nil, fmt.Errorf("categories do not match schema: %w", err)
	}

	var categories []string
	if err := json.Unmarshal([]byte(cleaned), &categories); err != nil {
		return nil, fmt.Errorf("parse categories: %w", err)
	}

	return categories, nil
}

// CleanModelJSON strips the role prefix and markdown fences local models
// tend to wrap JSON answers in.
func CleanModelJSON(content string) string {
	cleaned := strings.TrimSpace(content)
	cleaned = strings.TrimPrefix(cleaned, "assistant:")
	cleaned = strings.TrimSpace(cleaned)

	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
		cleaned = strings.TrimSpace(cleaned)
	}

	return cleaned
}

// SanitizeFilename reduces a model-proposed filename to a safe basename.
func SanitizeFilename(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	stem = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, stem)

	stem = strings.Trim(stem, "_")
	if stem == "" {
		stem = "generated"
	}

	return stem + ext
}

func validate(schema *jsonschema.Schema, content string) error {
	var value any
	if err := json.Unmarshal([]byte(content), &value); err != nil {
		return err
	}
	return schema.Validate(value)
}
