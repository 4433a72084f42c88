// Package gibberish decides whether a user message is low-signal noise. The
// oracle does the judging for anything non-trivial; deterministic checks
// cover the cases where its verdict cannot be trusted.
package gibberish

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"groweasy-agent/internal/common/logger"
	"groweasy-agent/internal/common/metrics"
	"groweasy-agent/internal/genai"
	"groweasy-agent/internal/models"
)

var (
	digitRunRe    = regexp.MustCompile(`^\d{5,}$`)
	homeRowMashRe = regexp.MustCompile(`(?i)^[asdfghjkl]+$`)
)

// isRepeatedRune reports whether s is a single rune repeated two or more
// times. Equivalent to the backreference pattern `^(.)\1+$`, which Go's
// RE2-based regexp package cannot compile.
func isRepeatedRune(s string) bool {
	runes := []rune(s)
	if len(runes) < 2 || runes[0] == '\n' {
		return false
	}
	for _, r := range runes[1:] {
		if r != runes[0] {
			return false
		}
	}
	return true
}

// Result is the verdict for one message.
type Result struct {
	IsGibberish bool   `json:"isGibberish"`
	Reason      string `json:"reason"`
}

type Checker struct {
	oracle genai.Oracle
	logger logger.Logger
}

func NewChecker(oracle genai.Oracle, log logger.Logger) *Checker {
	return &Checker{
		oracle: oracle,
		logger: log.WithFields(map[string]interface{}{"component": "gibberish"}),
	}
}

// Check classifies the latest user message. A message of five or more
// consecutive digits and nothing else is gibberish no matter what the
// oracle would say; everything else is delegated, with the local heuristic
// as the failure fallback.
func (c *Checker) Check(ctx context.Context, message string, history []models.Turn) Result {
	trimmed := strings.TrimSpace(message)

	if digitRunRe.MatchString(trimmed) {
		return Result{IsGibberish: true, Reason: "Random number sequence"}
	}

	result, err := c.askOracle(ctx, message)
	if err != nil {
		metrics.OracleFailures.WithLabelValues("gibberish").Inc()
		c.logger.Warn("gibberish oracle failed, using basic check", map[string]interface{}{
			"error": err.Error(),
		})
		return Result{
			IsGibberish: basicCheck(trimmed),
			Reason:      "Failed to analyze - basic check",
		}
	}

	return result
}

func (c *Checker) askOracle(ctx context.Context, message string) (Result, error) {
	text, err := c.oracle.Generate(ctx, buildPrompt(message))
	if err != nil {
		return Result{}, err
	}

	raw, err := genai.FirstJSONObject(text)
	if err != nil {
		return Result{}, err
	}

	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return Result{}, fmt.Errorf("%w: %v", genai.ErrNoJSONObject, err)
	}
	return result, nil
}

func buildPrompt(message string) string {
	return fmt.Sprintf(`Analyze if this real estate message is gibberish/test content:
Message: %q

Rules:
1. Gibberish includes: random letters, numbers, repeated patterns
2. Even number sequences can be gibberish if they don't relate to real estate
3. Very short messages (<3 chars) are gibberish

Respond STRICTLY with this JSON format:
{
  "isGibberish": boolean,
  "reason": string
}`, message)
}

// basicCheck is the deterministic fallback for oracle failures.
func basicCheck(trimmed string) bool {
	if len(trimmed) < 3 {
		return true
	}
	if isRepeatedRune(trimmed) {
		return true
	}
	if digitRunRe.MatchString(trimmed) {
		return true
	}
	if homeRowMashRe.MatchString(trimmed) {
		return true
	}
	return false
}
