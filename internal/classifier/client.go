// internal/classifier/client.go
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"support-engine/internal/common/config"
	"support-engine/internal/common/logger"
)

var (
	ErrClassifyFailed  = errors.New("CLASSIFY_FAILED")
	ErrClassifyTimeout = errors.New("CLASSIFY_TIMEOUT")
)

// Client calls the intent classifier model server.
type Client struct {
	baseURL    string
	maxRetries int
	client     *http.Client
	logger     logger.Logger
}

// NewClient creates a classifier client from endpoint config.
func NewClient(cfg config.EndpointConfig, log logger.Logger) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		maxRetries: cfg.MaxRetries,
		client: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Millisecond,
		},
		logger: log.With(map[string]interface{}{
			"component": "classifier",
		}),
	}
}

// Classify sends a cleaned message to the model server and returns the
// predicted intent with its confidence. Callers are expected to run the
// input through CleanText first.
func (c *Client) Classify(ctx context.Context, cleanedText string) (*Prediction, error) {
	body, _ := json.Marshal(classifyRequest{Text: cleanedText})

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ErrClassifyTimeout
			}
		}

		req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/classify", bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrClassifyFailed, err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, lastErr = c.client.Do(req)

		if ctx.Err() != nil ||
			errors.Is(lastErr, context.DeadlineExceeded) ||
			errors.Is(lastErr, context.Canceled) {
			return nil, ErrClassifyTimeout
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
		return nil, fmt.Errorf("%w: %v", ErrClassifyFailed, lastErr)
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: no successful response after retries", ErrClassifyFailed)
	}
	defer resp.Body.Close()

	var apiResponse classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrClassifyFailed, err)
	}
	if apiResponse.Intent == "" {
		return nil, fmt.Errorf("%w: empty intent in response", ErrClassifyFailed)
	}

	return buildPrediction(apiResponse), nil
}

// buildPrediction derives confidence and the top-3 list from the response.
// When the server returns per-class probabilities the confidence is the
// maximum of those; a server that only reports a bare confidence is
// accepted as-is.
func buildPrediction(resp classifyResponse) *Prediction {
	p := &Prediction{
		Intent:        resp.Intent,
		Confidence:    resp.Confidence,
		Probabilities: resp.Probabilities,
	}

	if len(resp.Probabilities) == 0 {
		p.Top3 = []ScoredIntent{{Intent: resp.Intent, Score: resp.Confidence}}
		return p
	}

	scored := make([]ScoredIntent, 0, len(resp.Probabilities))
	for intent, score := range resp.Probabilities {
		scored = append(scored, ScoredIntent{Intent: intent, Score: score})
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score == scored[j].Score {
			return scored[i].Intent < scored[j].Intent
		}
		return scored[i].Score > scored[j].Score
	})

	p.Confidence = scored[0].Score
	if len(scored) > 3 {
		scored = scored[:3]
	}
	p.Top3 = scored
	return p
}
