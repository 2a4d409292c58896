package extractor

import (
	"strings"
	"time"

	"github.com/ladlehq/ladle/internal/logger"
	"github.com/ladlehq/ladle/pkg/recipe"
)

// SystemPrompt is the fixed instruction template sent with every
// extraction request.
const SystemPrompt = `You are a recipe extraction assistant. Your task is to extract structured recipe data from webpage content.

Rules:
1. Set isRecipe to true only when the content contains at least one actual recipe with ingredients and preparation steps
2. When isRecipe is false, the recipes array MUST be empty
3. When isRecipe is true, the recipes array MUST contain every recipe found on the page
4. Extract ingredient quantities as numbers where stated; omit quantity for "to taste" ingredients
5. Number instruction steps starting at 1, in preparation order
6. Express all durations in minutes
7. Resolve relative dates (e.g. "posted yesterday") against today's date
8. Extract exactly what the page says; do not invent ingredients or steps`

// Feedback carries the previous failing output back to the model so it
// can see exactly what it got wrong last time.
type Feedback struct {
	// Previous is the first recipe that failed validation.
	Previous *recipe.Recipe

	// ValidationError is the specific defect, e.g. "ingredients: is empty".
	ValidationError string
}

// BuildPrompt assembles the user prompt: instruction context, today's
// date, the cleaned page content, and, on a retry, the previous failing
// recipe plus the validation error text.
func BuildPrompt(content string, now time.Time, feedback *Feedback, maxContentSize int) string {
	var prompt strings.Builder

	prompt.WriteString("Extract recipe data from the following webpage content.\n\n")
	prompt.WriteString("Today's date is ")
	prompt.WriteString(now.Format("2006-01-02"))
	prompt.WriteString(".\n")

	if feedback != nil {
		prompt.WriteString("\n## Previous Attempt\n")
		prompt.WriteString("Your previous extraction failed validation with this error:\n")
		prompt.WriteString(feedback.ValidationError)
		prompt.WriteString("\n")
		if feedback.Previous != nil {
			if rendered, err := recipe.Canonical(feedback.Previous); err == nil {
				prompt.WriteString("\nThis was the failing recipe:\n```json\n")
				prompt.Write(rendered)
				prompt.WriteString("\n```\n")
			}
		}
		prompt.WriteString("\nCorrect this specific error in your response.\n")
	}

	prompt.WriteString("\n## Webpage Content\n")
	prompt.WriteString("```\n")
	prompt.WriteString(truncateContent(content, maxContentSize))
	prompt.WriteString("\n```\n")

	return prompt.String()
}

// truncateContent limits content size to avoid blowing the context
// window. maxLen of 0 means no limit.
func truncateContent(content string, maxLen int) string {
	if maxLen <= 0 || len(content) <= maxLen {
		return content
	}
	logger.Warn("content truncated due to length",
		"original_bytes", len(content),
		"max_bytes", maxLen)
	return content[:maxLen] + "\n\n[Content truncated due to length...]"
}

// StripMarkdownCodeBlock removes a wrapping ```json fence if the model
// ignored the constraint and wrapped its output anyway.
func StripMarkdownCodeBlock(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
