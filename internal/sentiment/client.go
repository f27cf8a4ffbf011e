// internal/sentiment/client.go
package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"support-engine/internal/common/config"
	"support-engine/internal/common/logger"
)

var ErrSentimentFailed = errors.New("SENTIMENT_FAILED")

// Result is the sentiment verdict for one raw message.
type Result struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type scoreRequest struct {
	Text string `json:"text"`
}

// Client calls the sentiment model server.
type Client struct {
	baseURL    string
	maxRetries int
	client     *http.Client
	logger     logger.Logger
}

// NewClient creates a sentiment client from endpoint config.
func NewClient(cfg config.EndpointConfig, log logger.Logger) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		maxRetries: cfg.MaxRetries,
		client: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Millisecond,
		},
		logger: log.With(map[string]interface{}{
			"component": "sentiment",
		}),
	}
}

// Score analyzes the raw message text. The caller must pass the original
// message, not the cleaned classifier input, because casing and
// punctuation carry sentiment signal.
func (c *Client) Score(ctx context.Context, rawText string) (*Result, error) {
	body, _ := json.Marshal(scoreRequest{Text: rawText})

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrSentimentFailed, ctx.Err())
			}
		}

		req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/sentiment", bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSentimentFailed, err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, lastErr = c.client.Do(req)

		if ctx.Err() != nil ||
			errors.Is(lastErr, context.DeadlineExceeded) ||
			errors.Is(lastErr, context.Canceled) {
			return nil, fmt.Errorf("%w: %v", ErrSentimentFailed, ctx.Err())
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
		return nil, fmt.Errorf("%w: %v", ErrSentimentFailed, lastErr)
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: no successful response after retries", ErrSentimentFailed)
	}
	defer resp.Body.Close()

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrSentimentFailed, err)
	}
	if result.Label == "" {
		return nil, fmt.Errorf("%w: empty label in response", ErrSentimentFailed)
	}

	return &result, nil
}
