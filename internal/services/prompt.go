package services

import (
	"strings"

	"github.com/samber/lo"

	"clarity-backend/internal/models"
)

// SummaryInstruction conditions the one-shot summarization call.
const SummaryInstruction = "You are Clarity, a supportive AI therapist. " +
	"Summarize the following conversation between a user and Clarity. " +
	"Highlight the feelings the user expressed, the main themes discussed, and any actionable ideas that came up. " +
	"Write in the second person, addressing the user warmly, in a few short paragraphs."

// BuildSummaryPrompt flattens the conversation into "<role>: <text>" lines.
// An empty history yields an empty prompt.
func BuildSummaryPrompt(turns []models.Turn) string {
	lines := lo.Map(turns, func(t models.Turn, _ int) string {
		return string(t.Role) + ": " + t.Text
	})
	return strings.Join(lines, "\n")
}
