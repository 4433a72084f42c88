// Package respond cleans oracle prose before it reaches the user and
// suppresses questions the conversation has already answered. When the
// oracle stalls or repeats itself, the planner's canonical question replaces
// its output, which keeps the conversation moving forward.
package respond

import (
	"regexp"
	"strings"

	"groweasy-agent/internal/models"
)

const (
	clarifyFallback = "Could you provide more details about that?"
	genericFallback = "What else should I know about your property needs?"
)

var (
	braceFragmentRe   = regexp.MustCompile(`(?s)\{.*?\}`)
	bracketFragmentRe = regexp.MustCompile(`(?s)\[.*?\]`)
	artifactRe        = regexp.MustCompile(`[{}%\[\]]`)
)

// similarityKeywords flag two questions as covering the same ground.
var similarityKeywords = []string{"location", "property", "budget", "timeline", "purpose"}

// answeredKeywords maps a confirmed field to the phrase the oracle uses when
// it asks about that field again.
var answeredKeywords = []struct {
	field   string
	keyword string
}{
	{models.FieldLocation, "neighborhood"},
	{models.FieldPropertyType, "type of property"},
	{models.FieldBudget, "budget"},
	{models.FieldTimeline, "timeline"},
}

// Sanitize strips structural artifacts from oracle prose. Degenerate output
// is replaced with a generic follow-up so the user never sees raw metadata.
func Sanitize(text string, history []models.Turn) string {
	clean := braceFragmentRe.ReplaceAllString(text, "")
	clean = bracketFragmentRe.ReplaceAllString(clean, "")
	clean = strings.ReplaceAll(clean, "%%", "")
	clean = strings.TrimSpace(strings.Join(strings.Fields(clean), " "))

	if len(clean) < 5 || artifactRe.MatchString(clean) {
		if lastAgentMessage(history) != "" {
			return clarifyFallback
		}
		return genericFallback
	}

	return clean
}

// IsRedundant reports whether the cleaned reply repeats one of the last two
// agent messages or asks about a field that is already confirmed.
func IsRedundant(response string, metadata models.Metadata, history []models.Turn) bool {
	lower := strings.ToLower(response)

	for _, msg := range lastAgentMessages(history, 2) {
		if strings.Contains(msg, lower) || questionsAreSimilar(msg, lower) {
			return true
		}
	}

	for _, entry := range answeredKeywords {
		if metadata.Value(entry.field) != "" && strings.Contains(lower, entry.keyword) {
			return true
		}
	}

	return false
}

func questionsAreSimilar(q1, q2 string) bool {
	for _, kw := range similarityKeywords {
		if strings.Contains(q1, kw) && strings.Contains(q2, kw) {
			return true
		}
	}
	return false
}

func lastAgentMessage(history []models.Turn) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == models.RoleAgent {
			return history[i].Content
		}
	}
	return ""
}

func lastAgentMessages(history []models.Turn, n int) []string {
	out := []string{}
	for i := len(history) - 1; i >= 0 && len(out) < n; i-- {
		if history[i].Role == models.RoleAgent {
			out = append(out, strings.ToLower(history[i].Content))
		}
	}
	return out
}
