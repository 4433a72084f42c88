// Package planner decides which question the agent asks next. The output is
// a pure function of which required fields are confirmed, never of their
// values.
package planner

import "groweasy-agent/internal/models"

// ClosingQuestion is returned once every required field is confirmed.
const ClosingQuestion = "Is there anything else I should know?"

var questions = map[string]string{
	models.FieldLocation:     "Which neighborhood are you interested in?",
	models.FieldPropertyType: "What type of property are you looking for? (flat/villa/plot)",
	models.FieldBudget:       "What's your budget range? (e.g., 50L-80L or 2Cr)",
	models.FieldTimeline:     "What's your preferred timeline? (e.g., 3M for 3 months)",
	models.FieldPurpose:      "Is this for investment or personal use?",
}

// NextQuestion scans the fixed required-field order and returns the question
// for the first unconfirmed field.
func NextQuestion(metadata models.Metadata) string {
	for _, field := range models.RequiredFields {
		if !metadata.Has(field) {
			return questions[field]
		}
	}
	return ClosingQuestion
}

// QuestionFor returns the canonical prompt text for one field.
func QuestionFor(field string) string {
	return questions[field]
}

// Progress builds the per-field completion view returned with every
// response.
func Progress(metadata models.Metadata) []models.FieldProgress {
	out := make([]models.FieldProgress, 0, len(models.RequiredFields))
	for _, field := range models.RequiredFields {
		entry := models.FieldProgress{
			Field:     field,
			Completed: metadata.Has(field),
		}
		if value := metadata.Value(field); value != "" {
			entry.Value = &value
		}
		out = append(out, entry)
	}
	return out
}
