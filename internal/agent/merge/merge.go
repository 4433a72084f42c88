// Package merge combines confirmed metadata with newly extracted field
// candidates while preserving the completed-fields invariant.
package merge

import "groweasy-agent/internal/models"

// Apply validates candidates against the required-field allow-list and
// writes accepted values into a copy of the existing record. Confirmed
// fields are never overwritten; CompletedFields ends up as the union of the
// prior set and the fields written this turn. The input record is treated as
// an immutable snapshot.
func Apply(existing models.Metadata, candidates map[string]string) models.Metadata {
	out := existing.Clone()

	for _, field := range models.RequiredFields {
		value, ok := candidates[field]
		if !ok || value == "" {
			continue
		}
		if out.Value(field) != "" {
			// Confirmed facts are immutable for the life of the lead.
			continue
		}
		setField(&out, field, value)
	}

	out.CompletedFields = completedSet(out)
	return out
}

func setField(m *models.Metadata, field, value string) {
	switch field {
	case models.FieldLocation:
		m.Location = value
	case models.FieldPropertyType:
		m.PropertyType = value
	case models.FieldBudget:
		m.Budget = value
	case models.FieldTimeline:
		m.Timeline = value
	case models.FieldPurpose:
		m.Purpose = value
	}
}

// completedSet recomputes the set from the values themselves, so a field
// name appears exactly when its value is present and non-empty. Required
// field order keeps the result deterministic.
func completedSet(m models.Metadata) []string {
	set := make([]string, 0, len(models.RequiredFields))
	for _, field := range models.RequiredFields {
		if m.Value(field) != "" {
			set = append(set, field)
		}
	}
	return set
}
