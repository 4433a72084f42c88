package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"groweasy-agent/internal/models"
)

// Fixed user-facing texts of the conversation flow.
const (
	clarifyReply  = "Could you please rephrase or provide more details about your requirements?"
	handoffReply  = "Please contact our support team if you need further assistance!"
	oracleStumble = "Let me check my options. Could you clarify your needs?"
)

func greetingPrompt(returning bool, name string) string {
	kind, instruction := "welcome", "Thank them for reaching out"
	if returning {
		kind, instruction = "welcome back", "Welcome them back"
	}
	return fmt.Sprintf(`Generate a %s message for %s:
- %s
- Mention you're the GrowEasy real estate assistant
- Single sentence only
Example: "Thank you for contacting GrowEasy, %s! How can I assist you today?"`, kind, name, instruction, name)
}

func fallbackGreeting(returning bool, name string) string {
	if returning {
		return fmt.Sprintf("Welcome back to GrowEasy, %s! How can I assist you today?", name)
	}
	return fmt.Sprintf("Thank you for contacting GrowEasy, %s! How can I assist you today?", name)
}

func turnPrompt(message string, metadata models.Metadata) string {
	known, _ := json.MarshalIndent(metadata, "", "  ")

	return fmt.Sprintf(`Analyze this real estate inquiry carefully:
User Message: %q

Current Known Details:
%s

STRICT RULES:
1. FIRST acknowledge the user's message briefly
2. THEN extract ANY new field values you find
3. FINALLY ask for ONLY THE NEXT MISSING FIELD in this order:
   location → propertyType → budget → timeline → purpose
4. Format extracted fields like this: %%%%key:value%%%%
5. NEVER show metadata or JSON to user
6. If all fields are complete, confirm details

EXAMPLE 1:
User: "I want a villa"
Response: "Got it, you're looking for a villa. What's your preferred location?"

EXAMPLE 2:
User: "Around 50L budget"
Response: "Understood, your budget is ~50L. What's your timeline for purchase?"

EXAMPLE 3 (all fields complete):
Response: "Great! I'll find villa options matching your requirements."`, message, known)
}

// completionSummary renders the confirmed record as the closing sentence,
// expanding the compact budget and timeline codes back into words.
func completionSummary(m models.Metadata) string {
	parts := []string{}

	if m.PropertyType != "" {
		parts = append(parts, m.PropertyType)
	}
	if m.Location != "" {
		parts = append(parts, "in "+m.Location)
	}
	if m.Budget != "" {
		switch {
		case strings.Contains(m.Budget, "Cr"):
			parts = append(parts, "(~₹"+strings.Replace(m.Budget, "Cr", "", 1)+" Crore)")
		case strings.Contains(m.Budget, "L"):
			parts = append(parts, "(~₹"+strings.Replace(m.Budget, "L", "", 1)+" Lakh)")
		default:
			parts = append(parts, "(~₹"+m.Budget+")")
		}
	}
	if m.Timeline != "" {
		switch {
		case strings.HasSuffix(m.Timeline, "D"):
			parts = append(parts, "within "+strings.TrimSuffix(m.Timeline, "D")+" days")
		case strings.HasSuffix(m.Timeline, "M"):
			parts = append(parts, "within "+strings.TrimSuffix(m.Timeline, "M")+" months")
		case strings.HasSuffix(m.Timeline, "Y"):
			parts = append(parts, "within "+strings.TrimSuffix(m.Timeline, "Y")+" years")
		}
	}

	return fmt.Sprintf("Great! I'll find %s options. Would you like me to send similar properties?", strings.Join(parts, " "))
}
