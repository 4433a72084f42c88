package gibberish

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"groweasy-agent/internal/common/logger"
)

// fakeOracle returns a canned reply or error for every prompt.
type fakeOracle struct {
	reply string
	err   error
	calls int
}

func (f *fakeOracle) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func TestCheck_DigitRunOverridesOracle(t *testing.T) {
	// Oracle would say the message is fine; the deterministic check wins and
	// the oracle is never consulted.
	oracle := &fakeOracle{reply: `{"isGibberish": false, "reason": "looks fine"}`}
	checker := NewChecker(oracle, logger.NewTestLogger(t))

	result := checker.Check(context.Background(), "9990001111", nil)

	assert.True(t, result.IsGibberish)
	assert.Equal(t, "Random number sequence", result.Reason)
	assert.Equal(t, 0, oracle.calls)
}

func TestCheck_OracleVerdictUsed(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  bool
	}{
		{
			name:  "flagged as gibberish",
			reply: `Here you go: {"isGibberish": true, "reason": "keyboard mash"}`,
			want:  true,
		},
		{
			name:  "accepted",
			reply: `{"isGibberish": false, "reason": "genuine inquiry"}`,
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewChecker(&fakeOracle{reply: tt.reply}, logger.NewTestLogger(t))

			result := checker.Check(context.Background(), "I want a flat in Baner", nil)

			assert.Equal(t, tt.want, result.IsGibberish)
		})
	}
}

func TestCheck_FallbackOnOracleFailure(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    bool
	}{
		{"too short", "hm", true},
		{"repeated character", "aaaaaaa", true},
		{"home row mash", "asdasdasd", true},
		{"genuine message", "villa in Baner please", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewChecker(&fakeOracle{err: errors.New("boom")}, logger.NewTestLogger(t))

			result := checker.Check(context.Background(), tt.message, nil)

			assert.Equal(t, tt.want, result.IsGibberish)
			assert.Equal(t, "Failed to analyze - basic check", result.Reason)
		})
	}
}

func TestCheck_FallbackOnUnparseableOracleOutput(t *testing.T) {
	checker := NewChecker(&fakeOracle{reply: "no json here, sorry"}, logger.NewTestLogger(t))

	result := checker.Check(context.Background(), "qq", nil)

	assert.True(t, result.IsGibberish)
	assert.Equal(t, "Failed to analyze - basic check", result.Reason)
}
