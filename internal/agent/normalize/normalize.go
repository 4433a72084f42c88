// Package normalize converts raw extracted field values into canonical form.
// All functions are pure; the same canonicalization runs regardless of
// whether a value came from pattern extraction or from the oracle's
// annotation channel.
package normalize

import (
	"regexp"
	"strings"

	"groweasy-agent/internal/models"
)

var (
	locationSplitRe = regexp.MustCompile(`[,;.]`)
	locationNoiseRe = regexp.MustCompile(`(?i)\b(area|near|in)\b`)

	villaRe     = regexp.MustCompile(`(?i)villa|house|bungalow`)
	apartmentRe = regexp.MustCompile(`(?i)flat|apartment|residential|^\d+\s*bhk`)
	plotRe      = regexp.MustCompile(`(?i)plot|land|empty`)

	numberRe = regexp.MustCompile(`(\d+\.?\d*)`)

	urgentRe       = regexp.MustCompile(`(?i)immediate|asap|urgent`)
	timelineDayRe  = regexp.MustCompile(`(?i)(\d+)\s*(day|d)`)
	timelineMonRe  = regexp.MustCompile(`(?i)(\d+)\s*(month|mth|m)`)
	timelineYearRe = regexp.MustCompile(`(?i)(\d+)\s*(year|yr|y)`)

	investmentRe = regexp.MustCompile(`(?i)invest|rent|roi`)
)

// Field normalizes a raw value for the named required field. The second
// return value is false when the value is unparseable for that field.
func Field(field, raw string) (string, bool) {
	switch field {
	case models.FieldLocation:
		return Location(raw)
	case models.FieldPropertyType:
		return PropertyType(raw)
	case models.FieldBudget:
		return Budget(raw)
	case models.FieldTimeline:
		return Timeline(raw)
	case models.FieldPurpose:
		return Purpose(raw)
	}
	return "", false
}

// Location keeps the text before the first comma, semicolon or period and
// strips filler words ("Baner area, near the highway" becomes "Baner").
func Location(raw string) (string, bool) {
	first := locationSplitRe.Split(raw, 2)[0]
	cleaned := strings.TrimSpace(locationNoiseRe.ReplaceAllString(first, ""))
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if cleaned == "" {
		return "", false
	}
	return cleaned, true
}

// PropertyType classifies free text into villa, apartment or plot.
func PropertyType(raw string) (string, bool) {
	switch {
	case villaRe.MatchString(raw):
		return "villa", true
	case apartmentRe.MatchString(raw):
		return "apartment", true
	case plotRe.MatchString(raw):
		return "plot", true
	}
	return "", false
}

// Budget emits "<n>L" or "<n>Cr" when a unit token is recognized, else the
// bare number. "50 lakh" -> "50L", "1.5 cr" -> "1.5Cr", "75" -> "75".
func Budget(raw string) (string, bool) {
	s := strings.ReplaceAll(strings.ToLower(raw), ",", "")

	num := numberRe.FindString(s)
	if num == "" {
		return "", false
	}

	// "lakh", "lac" and the bare "l" suffix all contain an 'l'; "cr" and
	// "crore" never do, so the order below matches unit detection exactly.
	if strings.Contains(s, "l") {
		return num + "L", true
	}
	if strings.Contains(s, "cr") {
		return num + "Cr", true
	}
	return num, true
}

// Timeline emits "<n>D|M|Y". Urgency keywords map to "1M"; a bare number is
// assumed to be months.
func Timeline(raw string) (string, bool) {
	s := strings.ToLower(raw)

	if urgentRe.MatchString(s) {
		return "1M", true
	}
	if m := timelineDayRe.FindStringSubmatch(s); m != nil {
		return m[1] + "D", true
	}
	if m := timelineMonRe.FindStringSubmatch(s); m != nil {
		return m[1] + "M", true
	}
	if m := timelineYearRe.FindStringSubmatch(s); m != nil {
		return m[1] + "Y", true
	}
	if num := numberRe.FindString(s); num != "" {
		return num + "M", true
	}
	return "", false
}

// Purpose always resolves when text is present: investment keywords win,
// everything else is personal use.
func Purpose(raw string) (string, bool) {
	if strings.TrimSpace(raw) == "" {
		return "", false
	}
	if investmentRe.MatchString(raw) {
		return "investment", true
	}
	return "personal", true
}

// Candidates normalizes a raw candidate map, dropping unparseable values.
func Candidates(raw map[string]string) map[string]string {
	out := make(map[string]string, len(raw))
	for field, value := range raw {
		if normalized, ok := Field(field, value); ok {
			out[field] = normalized
		}
	}
	return out
}
