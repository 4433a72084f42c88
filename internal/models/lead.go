package models

import (
	"context"
	"errors"
	"time"
)

// LeadStatus enumerates the lifecycle states of a lead.
type LeadStatus string

const (
	StatusNew     LeadStatus = "new"
	StatusWarm    LeadStatus = "warm"
	StatusHot     LeadStatus = "hot"
	StatusCold    LeadStatus = "cold"
	StatusInvalid LeadStatus = "invalid"
)

// Field names of the qualification record.
const (
	FieldLocation     = "location"
	FieldPropertyType = "propertyType"
	FieldBudget       = "budget"
	FieldTimeline     = "timeline"
	FieldPurpose      = "purpose"
)

// RequiredFields is the canonical elicitation order. The question planner and
// the oracle prompt both follow it and must stay in agreement.
var RequiredFields = []string{
	FieldLocation,
	FieldPropertyType,
	FieldBudget,
	FieldTimeline,
	FieldPurpose,
}

// ErrLeadNotFound is returned by repositories for unknown lead keys.
var ErrLeadNotFound = errors.New("LEAD_NOT_FOUND")

// Metadata is the structured qualification record attached to a lead.
// CompletedFields holds exactly the required field names whose values are
// present and non-empty.
type Metadata struct {
	Location        string   `json:"location,omitempty"`
	PropertyType    string   `json:"propertyType,omitempty"`
	Budget          string   `json:"budget,omitempty"`
	Timeline        string   `json:"timeline,omitempty"`
	Purpose         string   `json:"purpose,omitempty"`
	CompletedFields []string `json:"completedFields"`
}

// NewMetadata returns an empty record with a non-nil completed set, matching
// the persisted shape of a fresh lead.
func NewMetadata() Metadata {
	return Metadata{CompletedFields: []string{}}
}

// Value returns the current value of a required field by name.
func (m Metadata) Value(field string) string {
	switch field {
	case FieldLocation:
		return m.Location
	case FieldPropertyType:
		return m.PropertyType
	case FieldBudget:
		return m.Budget
	case FieldTimeline:
		return m.Timeline
	case FieldPurpose:
		return m.Purpose
	}
	return ""
}

// Has reports whether the field has been confirmed.
func (m Metadata) Has(field string) bool {
	for _, f := range m.CompletedFields {
		if f == field {
			return true
		}
	}
	return false
}

// IsComplete reports whether every required field has been confirmed.
func (m Metadata) IsComplete() bool {
	for _, f := range RequiredFields {
		if !m.Has(f) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy; merge treats the input record as immutable.
func (m Metadata) Clone() Metadata {
	out := m
	out.CompletedFields = make([]string, len(m.CompletedFields))
	copy(out.CompletedFields, m.CompletedFields)
	return out
}

// Lead is one prospective customer, unique by phone number.
type Lead struct {
	ID                    string     `json:"id" db:"id"`
	Name                  string     `json:"name" db:"name"`
	Phone                 string     `json:"phone" db:"phone"`
	Source                string     `json:"source,omitempty" db:"source"`
	Status                LeadStatus `json:"status" db:"status"`
	Metadata              Metadata   `json:"metadata" db:"metadata"`
	GibberishCount        int        `json:"gibberishCount" db:"gibberish_count"`
	ClassificationReasons []string   `json:"classificationReasons,omitempty" db:"classification_reasons"`
	LastContact           time.Time  `json:"lastContact" db:"last_contact"`
	LastClassifiedAt      time.Time  `json:"lastClassifiedAt,omitempty" db:"last_classified_at"`
	CreatedAt             time.Time  `json:"createdAt" db:"created_at"`
}

// Classification is the ephemeral per-turn quality verdict.
type Classification struct {
	Classification string   `json:"classification"`
	Reasons        []string `json:"reasons"`
	Confidence     int      `json:"confidence"`
}

// FieldProgress is one entry of the per-field progress view returned to the
// transport layer.
type FieldProgress struct {
	Field     string  `json:"field"`
	Completed bool    `json:"completed"`
	Value     *string `json:"value"`
}

// LeadRepository defines lead data access.
type LeadRepository interface {
	Create(ctx context.Context, lead *Lead) error
	FindByID(ctx context.Context, id string) (*Lead, error)
	FindByPhone(ctx context.Context, phone string) (*Lead, error)
	Update(ctx context.Context, lead *Lead) error
}
