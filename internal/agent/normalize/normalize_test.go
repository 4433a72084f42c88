package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocation(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"plain", "Baner", "Baner", true},
		{"trailing clause dropped", "Baner, near the highway", "Baner", true},
		{"noise words stripped", "near Hinjewadi area", "Hinjewadi", true},
		{"in prefix stripped", "in Wakad", "Wakad", true},
		{"semicolon split", "Kothrud; close to school", "Kothrud", true},
		{"only noise", "in area", "", false},
		{"empty", "   ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Location(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPropertyType(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"villa", "villa", true},
		{"independent house", "villa", true},
		{"Bungalow", "villa", true},
		{"flat", "apartment", true},
		{"3BHK", "apartment", true},
		{"residential unit", "apartment", true},
		{"plot", "plot", true},
		{"empty land", "plot", true},
		{"castle", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := PropertyType(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBudget(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"50 lakh", "50L", true},
		{"50L", "50L", true},
		{"1.5 cr", "1.5Cr", true},
		{"2 crore", "2Cr", true},
		{"75", "75", true},
		{"1,50,000", "150000", true},
		{"cheap", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := Budget(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTimeline(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"asap", "1M", true},
		{"immediately", "1M", true},
		{"6 months", "6M", true},
		{"10 days", "10D", true},
		{"2 years", "2Y", true},
		{"3", "3M", true},
		{"someday", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := Timeline(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPurpose(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"investment", "investment", true},
		{"for rental ROI", "investment", true},
		{"for my family", "personal", true},
		{"personal use", "personal", true},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := Purpose(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCandidates_DropsUnparseable(t *testing.T) {
	raw := map[string]string{
		"location":     "in Baner, west side",
		"propertyType": "castle",
		"budget":       "60 lakh",
	}

	got := Candidates(raw)

	assert.Equal(t, map[string]string{
		"location": "Baner",
		"budget":   "60L",
	}, got)
}
