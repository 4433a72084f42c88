package respond

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"groweasy-agent/internal/models"
)

func agentTurn(content string) models.Turn {
	return models.Turn{Role: models.RoleAgent, Content: content}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		history []models.Turn
		want    string
	}{
		{
			name:  "plain text untouched",
			input: "Got it! Which neighborhood are you interested in?",
			want:  "Got it! Which neighborhood are you interested in?",
		},
		{
			name:  "brace fragment stripped",
			input: `Noted. {"budget":"50L"} What's your timeline?`,
			want:  "Noted. What's your timeline?",
		},
		{
			name:  "bracket fragment and delimiter stripped",
			input: "Sure [internal note] %% what's your budget?",
			want:  "Sure what's your budget?",
		},
		{
			name:  "whitespace collapsed",
			input: "Thanks!\n\n  What   next?",
			want:  "Thanks! What next?",
		},
		{
			name:    "degenerate output with prior question",
			input:   "{}",
			history: []models.Turn{agentTurn("What's your budget range?")},
			want:    "Could you provide more details about that?",
		},
		{
			name:  "degenerate output without prior question",
			input: "ok",
			want:  "What else should I know about your property needs?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.input, tt.history))
		})
	}
}

func TestIsRedundant_RecentlyAsked(t *testing.T) {
	history := []models.Turn{
		agentTurn("Which neighborhood are you interested in?"),
		{Role: models.RoleUser, Content: "not sure yet"},
		agentTurn("Could you tell me your preferred location?"),
	}

	// Shares the "location" keyword with the last agent message.
	assert.True(t, IsRedundant("What location works for you?", models.NewMetadata(), history))

	// Unrelated follow-up passes through.
	assert.False(t, IsRedundant("Do you have children attending school?", models.NewMetadata(), history))
}

func TestIsRedundant_SubstringOfRecentMessage(t *testing.T) {
	history := []models.Turn{
		agentTurn("Great! What's your budget range? (e.g., 50L-80L or 2Cr)"),
	}

	assert.True(t, IsRedundant("What's your budget range?", models.NewMetadata(), history))
}

func TestIsRedundant_AlreadyAnsweredField(t *testing.T) {
	md := models.Metadata{
		Budget:          "50L",
		CompletedFields: []string{models.FieldBudget},
	}

	assert.True(t, IsRedundant("And what is your budget?", md, nil))
	assert.False(t, IsRedundant("What's your preferred timeline?", md, nil))
}

func TestIsRedundant_OnlyLastTwoAgentMessagesCount(t *testing.T) {
	history := []models.Turn{
		agentTurn("Which neighborhood are you interested in?"),
		agentTurn("What type of property are you looking for?"),
		agentTurn("Is this for investment or personal use?"),
	}

	// The location question is three agent messages back, so asking about
	// location again is not flagged as recently asked.
	assert.False(t, IsRedundant("Where would you like to live, which place?", models.NewMetadata(), history))
}
