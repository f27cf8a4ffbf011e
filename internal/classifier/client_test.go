// internal/classifier/client_test.go
package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"support-engine/internal/common/config"
	"support-engine/internal/common/logger"
)

func newTestClient(t *testing.T, serverURL string, maxRetries int) *Client {
	t.Helper()
	return NewClient(config.EndpointConfig{
		BaseURL:    serverURL,
		Timeout:    2000,
		MaxRetries: maxRetries,
	}, logger.NewTestLogger(t))
}

// ==========================
// CleanText
// ==========================

func TestCleanText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "strips placeholders",
			input: "I want to cancel order {{Order Number}} now",
			want:  "i want to cancel order now",
		},
		{
			name:  "lowercases and collapses whitespace",
			input: "  WHERE is   my\tORDER  ",
			want:  "where is my order",
		},
		{
			name:  "multiple placeholders",
			input: "refund {{Invoice Number}} to {{Account}}",
			want:  "refund to",
		},
		{
			name:  "plain text unchanged except case",
			input: "track my order",
			want:  "track my order",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.input))
		})
	}
}

// ==========================
// Classify
// ==========================

func TestClassify(t *testing.T) {
	t.Run("successful classification", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/classify", r.URL.Path)
			require.Equal(t, http.MethodPost, r.Method)

			var req classifyRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "i want to cancel my order", req.Text)

			json.NewEncoder(w).Encode(classifyResponse{
				Intent: "cancel_order",
				Probabilities: map[string]float64{
					"cancel_order": 0.87,
					"change_order": 0.08,
					"track_order":  0.03,
					"complaint":    0.02,
				},
			})
		}))
		defer server.Close()

		pred, err := newTestClient(t, server.URL, 1).Classify(context.Background(), "i want to cancel my order")
		require.NoError(t, err)

		assert.Equal(t, "cancel_order", pred.Intent)
		assert.InDelta(t, 0.87, pred.Confidence, 1e-9)
		require.Len(t, pred.Top3, 3)
		assert.Equal(t, "cancel_order", pred.Top3[0].Intent)
	})

	t.Run("bare confidence without probabilities", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(classifyResponse{Intent: "track_order", Confidence: 0.66})
		}))
		defer server.Close()

		pred, err := newTestClient(t, server.URL, 0).Classify(context.Background(), "track my order")
		require.NoError(t, err)

		assert.Equal(t, "track_order", pred.Intent)
		assert.Equal(t, 0.66, pred.Confidence)
		require.Len(t, pred.Top3, 1)
	})

	t.Run("retries on server error", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) == 1 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			json.NewEncoder(w).Encode(classifyResponse{Intent: "track_order", Confidence: 0.9})
		}))
		defer server.Close()

		pred, err := newTestClient(t, server.URL, 2).Classify(context.Background(), "track my order")
		require.NoError(t, err)
		assert.Equal(t, "track_order", pred.Intent)
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})

	t.Run("fails after exhausting retries", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		_, err := newTestClient(t, server.URL, 1).Classify(context.Background(), "anything")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrClassifyFailed)
	})

	t.Run("context cancellation maps to timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			json.NewEncoder(w).Encode(classifyResponse{Intent: "track_order", Confidence: 0.9})
		}))
		defer server.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := newTestClient(t, server.URL, 0).Classify(ctx, "anything")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrClassifyTimeout)
	})

	t.Run("empty intent rejected", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(classifyResponse{})
		}))
		defer server.Close()

		_, err := newTestClient(t, server.URL, 0).Classify(context.Background(), "anything")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrClassifyFailed)
	})
}
