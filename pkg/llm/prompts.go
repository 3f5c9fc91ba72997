package llm

import (
	"strconv"
	"strings"
)

// AgentContext is the system prompt for the code assistant.
const AgentContext = "Purpose: The primary role of this agent is to assist users by analyzing code. " +
	"It should be able to generate code and answer questions about code provided."

// codeParserInstructions asks the code model to restate the chat model's
// answer as a structured JSON object.
const codeParserInstructions = "Parse the response from the previous LLM into a description and a string of valid code. " +
	"Also come up with a valid filename that could be saved which doesn't contain any special characters. " +
	"You should return a JSON object with the keys description, code and filename. Return only the JSON object."

// FeedbackCategories are the themes feedback comments are sorted into.
var FeedbackCategories = []string{
	"Code Quality",
	"Performance",
	"Readability",
	"Documentation",
	"Functionality",
	"Best Practices",
}

// BuildGenerationPrompt merges the user prompt with retrieved passages and
// the extracted text of an uploaded reference file.
func BuildGenerationPrompt(prompt string, passages []string, reference string) string {
	if len(passages) == 0 && reference == "" {
		return prompt
	}

	builder := strings.Builder{}
	builder.WriteString(prompt)

	if len(passages) > 0 {
		builder.WriteString("\n\n## Relevant Context\n")
		for _, passage := range passages {
			builder.WriteString("- ")
			builder.WriteString(passage)
			builder.WriteString("\n")
		}
	}

	if reference != "" {
		builder.WriteString("\n## Reference Material\n")
		builder.WriteString(reference)
		builder.WriteString("\n")
	}

	return builder.String()
}

// BuildParsePrompt wraps the chat model's answer with the code parser
// instructions for the second inference stage.
func BuildParsePrompt(response string) string {
	builder := strings.Builder{}
	builder.WriteString(codeParserInstructions)
	builder.WriteString("\n\nHere is the response:\n")
	builder.WriteString(response)
	return builder.String()
}

// BuildFeedbackAnalysisPrompt asks the model to summarize a batch of
// feedback entries into actionable insights.
func BuildFeedbackAnalysisPrompt(entries []FeedbackEntry) string {
	builder := strings.Builder{}
	builder.WriteString("Analyze the following user feedback for generated code and provide insights about code quality and user satisfaction.\n")

	i := 1
	for _, entry := range entries {
		if entry.Comment == "" {
			continue
		}
		builder.WriteString("- Feedback ")
		builder.WriteString(strconv.Itoa(i))
		builder.WriteString(": Prompt: ")
		builder.WriteString(entry.Prompt)
		builder.WriteString(", Response Generated: ")
		builder.WriteString(entry.Output)
		builder.WriteString(", Rating: ")
		builder.WriteString(strconv.Itoa(entry.Rating))
		builder.WriteString(", Comment: ")
		builder.WriteString(entry.Comment)
		builder.WriteString(", Models Used: ")
		builder.WriteString(entry.CodeModel)
		builder.WriteString(", ")
		builder.WriteString(entry.ChatModel)
		builder.WriteString("\n")
		i++
	}

	builder.WriteString("Return a JSON object with the keys common_themes, areas_for_improvement, user_likes and improvement_suggestions, ")
	builder.WriteString("each holding an array of strings. Focus on actionable insights and specific patterns in the feedback. ")
	builder.WriteString("Return only the JSON object with no additional text.")

	return builder.String()
}

// BuildImprovementPrompt asks the model for categorized improvement
// suggestions over one generated output and its feedback.
func BuildImprovementPrompt(code, feedback, prompt string) string {
	if prompt == "" {
		prompt = "Not provided"
	}

	builder := strings.Builder{}
	builder.WriteString("You are a code improvement advisor. Analyze this response from an LLM and provide improvement suggestions.\n")
	builder.WriteString("ORIGINAL PROMPT:\n")
	builder.WriteString(prompt)
	builder.WriteString("\nRESPONSE:\n")
	builder.WriteString(code)
	builder.WriteString("\nFEEDBACK GIVEN BY USER:\n")
	builder.WriteString(feedback)
	builder.WriteString("\nReturn a JSON object with a suggestions array; every suggestion has the fields category, suggestion, reason and priority. ")
	builder.WriteString("category must be one of: Quality, Readability, Performance, BestPractices. priority must be one of: High, Medium, Low. ")
	builder.WriteString("Include at least one suggestion. Return only the JSON object, no other text.")

	return builder.String()
}

// BuildCategorizationPrompt asks the model to sort one feedback comment into
// a single category from FeedbackCategories.
func BuildCategorizationPrompt(comment, prompt, code string) string {
	if prompt == "" {
		prompt = "Not provided"
	}
	if code == "" {
		code = "Not provided"
	}

	builder := strings.Builder{}
	builder.WriteString("Categorize this feedback into one of the following categories [")
	builder.WriteString(strings.Join(FeedbackCategories, ", "))
	builder.WriteString("]\n")
	builder.WriteString("FEEDBACK ON RESPONSE: ")
	builder.WriteString(comment)
	builder.WriteString(" ,RESPONSE: ")
	builder.WriteString(code)
	builder.WriteString(" ,PROMPT GIVEN: ")
	builder.WriteString(prompt)
	builder.WriteString("\nReturn a JSON array containing only the matching category names. Return only the JSON array with no additional text.")

	return builder.String()
}

// FeedbackEntry is the subset of a feedback record the analysis prompts need.
type FeedbackEntry struct {
	Prompt    string
	Output    string
	Rating    int
	Comment   string
	ChatModel string
	CodeModel string
}

