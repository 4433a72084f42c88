// Package genai is the HTTP client for the text-understanding oracle
// gateway. It only moves prompts and text; every caller owns its own prompt
// wording and its own fallback when the oracle fails.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"groweasy-agent/internal/common/config"
	"groweasy-agent/internal/common/logger"
)

var (
	ErrOracleTimeout     = errors.New("ORACLE_TIMEOUT")
	ErrOracleUnavailable = errors.New("ORACLE_UNAVAILABLE")
	ErrNoJSONObject      = errors.New("ORACLE_PARSE_FAILED")
)

// Oracle is the capability consumed by the conversation engine and the
// classifiers. Substituted with deterministic fakes in tests.
type Oracle interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Client struct {
	config config.GenAIConfig
	client *http.Client
	logger logger.Logger
}

func NewClient(cfg config.GenAIConfig, log logger.Logger) *Client {
	return &Client{
		config: cfg,
		// No client timeout; each call is bounded by its context.
		client: &http.Client{},
		logger: log.WithFields(map[string]interface{}{"component": "genai"}),
	}
}

// Generate posts the prompt to the gateway and returns the raw text reply.
// Retries transient failures with exponential backoff until the configured
// per-call budget runs out; exceeding the budget is an ErrOracleTimeout.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.GetDuration(c.config.Timeout))
		defer cancel()
	}

	requestBody := map[string]interface{}{
		"prompt":      prompt,
		"model":       c.config.Model,
		"max_tokens":  c.config.MaxTokens,
		"temperature": c.config.Temperature,
	}

	body, _ := json.Marshal(requestBody)

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ErrOracleTimeout
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/ai/generate", bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.config.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
		}

		resp, lastErr = c.client.Do(req)

		if ctx.Err() != nil ||
			errors.Is(lastErr, context.DeadlineExceeded) ||
			errors.Is(lastErr, context.Canceled) {
			return "", ErrOracleTimeout
		}

		if lastErr == nil {
			if resp.StatusCode == http.StatusOK {
				break
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			resp = nil
		}
	}

	if lastErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", ErrOracleTimeout
		}
		return "", fmt.Errorf("%w: %v", ErrOracleUnavailable, lastErr)
	}

	if resp == nil {
		return "", fmt.Errorf("%w: no successful response after retries", ErrOracleUnavailable)
	}
	defer resp.Body.Close()

	var apiResponse struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return "", fmt.Errorf("%w: decode error: %v", ErrOracleUnavailable, err)
	}

	c.logger.Debug("oracle reply received", map[string]interface{}{
		"chars": len(apiResponse.Text),
	})

	return apiResponse.Text, nil
}

// FirstJSONObject locates the first '{' and the last '}' in oracle output and
// returns the enclosed slice. Oracle replies routinely wrap the JSON object
// in prose or code fences, so garbage before and after is tolerated.
func FirstJSONObject(text string) ([]byte, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("%w: no JSON object in %q", ErrNoJSONObject, truncate(text, 80))
	}
	return []byte(text[start : end+1]), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
