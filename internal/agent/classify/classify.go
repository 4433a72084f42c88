// Package classify maps recent conversation plus metadata completeness onto
// a lead quality verdict. The oracle's opinion is advisory; completeness is
// not.
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"groweasy-agent/internal/common/logger"
	"groweasy-agent/internal/common/metrics"
	"groweasy-agent/internal/genai"
	"groweasy-agent/internal/models"
)

const (
	// CompletenessReason is the reason attached to the deterministic hot
	// override.
	CompletenessReason = "Completed all required fields"

	defaultConfidence = 50
)

type Classifier struct {
	oracle genai.Oracle
	logger logger.Logger
}

func NewClassifier(oracle genai.Oracle, log logger.Logger) *Classifier {
	return &Classifier{
		oracle: oracle,
		logger: log.WithFields(map[string]interface{}{"component": "classify"}),
	}
}

// Classify produces the per-turn verdict from the last three turns and the
// merged metadata. A lead with every required field confirmed is hot
// regardless of what the oracle would have said; otherwise the oracle is
// consulted and its output parsed defensively. No failure mode escapes to
// the caller.
func (c *Classifier) Classify(ctx context.Context, recent []models.Turn, metadata models.Metadata) models.Classification {
	if metadata.IsComplete() {
		result := models.Classification{
			Classification: string(models.StatusHot),
			Reasons:        []string{CompletenessReason},
			Confidence:     100,
		}
		metrics.LeadClassifications.WithLabelValues(result.Classification).Inc()
		return result
	}

	result, err := c.askOracle(ctx, recent)
	if err != nil {
		metrics.OracleFailures.WithLabelValues("classify").Inc()
		c.logger.Warn("classification oracle failed", map[string]interface{}{
			"error": err.Error(),
		})
		result = models.Classification{
			Classification: string(models.StatusCold),
			Reasons:        []string{"Classification failed"},
			Confidence:     defaultConfidence,
		}
	}

	metrics.LeadClassifications.WithLabelValues(result.Classification).Inc()
	return result
}

func (c *Classifier) askOracle(ctx context.Context, recent []models.Turn) (models.Classification, error) {
	text, err := c.oracle.Generate(ctx, buildPrompt(recent))
	if err != nil {
		return models.Classification{}, err
	}
	return parseVerdict(text), nil
}

func buildPrompt(recent []models.Turn) string {
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}

	lines := make([]string, 0, len(recent))
	for _, turn := range recent {
		lines = append(lines, fmt.Sprintf("%s: %s", turn.Role, turn.Content))
	}

	return fmt.Sprintf(`Analyze ONLY these recent messages:
%s

CLASSIFICATION RULES:
1. HOT: Must have ALL - specific location, exact budget, property type, timeline <6mo
2. COLD: Missing 2+ requirements
3. INVALID: Gibberish/test/spam

Respond ONLY with this JSON format:
{
  "classification": "HOT|COLD|INVALID",
  "reasons": ["specific", "reasons"],
  "confidence": 0-100
}`, strings.Join(lines, "\n"))
}

// parseVerdict tolerates every malformation the oracle is known to produce:
// prose around the JSON, wrong classification casing, a bare string where
// the reasons list should be, confidence out of range or missing.
func parseVerdict(text string) models.Classification {
	fallback := models.Classification{
		Classification: string(models.StatusCold),
		Reasons:        []string{"Invalid classification response"},
		Confidence:     defaultConfidence,
	}

	raw, err := genai.FirstJSONObject(text)
	if err != nil {
		return fallback
	}

	var parsed struct {
		Classification string          `json:"classification"`
		Reasons        json.RawMessage `json:"reasons"`
		Confidence     *float64        `json:"confidence"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fallback
	}

	classification := strings.ToLower(strings.TrimSpace(parsed.Classification))
	switch classification {
	case "hot", "cold", "invalid":
	default:
		classification = string(models.StatusCold)
	}

	return models.Classification{
		Classification: classification,
		Reasons:        coerceReasons(parsed.Reasons),
		Confidence:     clampConfidence(parsed.Confidence),
	}
}

func coerceReasons(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return []string{"Unknown"}
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) == 0 {
			return []string{"Unknown"}
		}
		return list
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil && single != "" {
		return []string{single}
	}

	return []string{"Unknown"}
}

func clampConfidence(value *float64) int {
	if value == nil {
		return defaultConfidence
	}
	confidence := int(*value)
	if confidence < 0 {
		return 0
	}
	if confidence > 100 {
		return 100
	}
	return confidence
}
