// Package extract harvests field candidates from two sources: deterministic
// pattern matching over the raw user message, and the %%key:value%%
// annotation channel embedded in oracle prose. Both produce the same
// candidate map shape so the merge engine stays oblivious to provenance.
package extract

import (
	"regexp"
	"strings"

	"groweasy-agent/internal/models"
)

// AnnotationDelimiter wraps the oracle's structured field annotations.
const AnnotationDelimiter = "%%"

var (
	locationPrepositionRe = regexp.MustCompile(`(?i)(?:in|at|near|around|interested in|looking at)\s+([a-z\s]+nagar|[\w\s]+)`)
	locationLabelRe       = regexp.MustCompile(`(?i)(?:location|area|neighborhood)\s*(?:is|:)?\s*([a-z\s]+)`)

	budgetRe   = regexp.MustCompile(`(?i)(\d+\.?\d*\s*(lakh|lac|l|cr|crore|c))\b`)
	timelineRe = regexp.MustCompile(`(?i)(\d+\s*(months|month|m|days|day|d|years|year|y))\b`)
	purposeRe  = regexp.MustCompile(`(?i)\b(invest\w*|rent\w*|roi|personal\w*|own use|family|self)\b`)

	annotationRe = regexp.MustCompile(`%%(.+?):(.+?)%%`)
	jsonBlockRe  = regexp.MustCompile(`(?s)\{.*?\}`)
)

// propertyTypeSynonyms maps canonical-ish labels to the phrases users write.
var propertyTypeSynonyms = []struct {
	label    string
	synonyms []string
}{
	{"villa", []string{"villa", "house", "bungalow", "independent house"}},
	{"flat", []string{"flat", "apartment", "condo", "condominium"}},
	{"plot", []string{"plot", "land", "empty land", "vacant land"}},
}

// FromMessage runs deterministic pattern extraction over the latest user
// message, consulting prior user turns for property-type mentions. Fields
// already confirmed in existing metadata are skipped: extraction only fills
// absent fields.
func FromMessage(message string, history []models.Turn, existing models.Metadata) map[string]string {
	candidates := map[string]string{}
	lower := strings.ToLower(message)

	if existing.Value(models.FieldLocation) == "" {
		for _, re := range []*regexp.Regexp{locationPrepositionRe, locationLabelRe} {
			if m := re.FindStringSubmatch(lower); m != nil {
				if loc := strings.TrimSpace(m[1]); len(loc) > 3 {
					candidates[models.FieldLocation] = loc
					break
				}
			}
		}
	}

	if existing.Value(models.FieldPropertyType) == "" {
		if label := matchPropertyType(lower, history); label != "" {
			candidates[models.FieldPropertyType] = label
		}
	}

	if existing.Value(models.FieldBudget) == "" {
		if m := budgetRe.FindStringSubmatch(message); m != nil {
			candidates[models.FieldBudget] = strings.ToUpper(m[1])
		}
	}

	if existing.Value(models.FieldTimeline) == "" {
		if m := timelineRe.FindStringSubmatch(message); m != nil {
			candidates[models.FieldTimeline] = m[1]
		}
	}

	if existing.Value(models.FieldPurpose) == "" {
		if purposeRe.MatchString(lower) {
			candidates[models.FieldPurpose] = lower
		}
	}

	return candidates
}

func matchPropertyType(lowerMessage string, history []models.Turn) string {
	for _, entry := range propertyTypeSynonyms {
		for _, syn := range entry.synonyms {
			if strings.Contains(lowerMessage, syn) {
				return entry.label
			}
			for _, turn := range history {
				if turn.Role == models.RoleUser && strings.Contains(strings.ToLower(turn.Content), syn) {
					return entry.label
				}
			}
		}
	}
	return ""
}

// Annotations parses the %%key:value%% channel out of oracle prose. It
// returns the candidate map (keys lowercased to the canonical field names)
// and the prose with annotations and stray JSON fragments removed. Garbage
// around annotations is tolerated.
func Annotations(text string) (map[string]string, string) {
	candidates := map[string]string{}

	// Accidental JSON blobs first, they can contain colons and braces that
	// confuse the annotation scan.
	clean := jsonBlockRe.ReplaceAllString(text, "")

	clean = annotationRe.ReplaceAllStringFunc(clean, func(match string) string {
		m := annotationRe.FindStringSubmatch(match)
		key := canonicalField(strings.TrimSpace(m[1]))
		value := strings.TrimSpace(m[2])
		if key != "" && value != "" {
			candidates[key] = value
		}
		return ""
	})

	clean = strings.ReplaceAll(clean, AnnotationDelimiter, "")
	clean = strings.TrimSpace(strings.Join(strings.Fields(clean), " "))

	return candidates, clean
}

// canonicalField maps the oracle's loosely-cased keys onto required field
// names; anything else is discarded by returning "".
func canonicalField(key string) string {
	switch strings.ToLower(key) {
	case "location":
		return models.FieldLocation
	case "propertytype", "property_type", "property type":
		return models.FieldPropertyType
	case "budget":
		return models.FieldBudget
	case "timeline":
		return models.FieldTimeline
	case "purpose":
		return models.FieldPurpose
	}
	return ""
}
