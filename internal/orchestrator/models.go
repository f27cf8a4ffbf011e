// internal/orchestrator/models.go
package orchestrator

import (
	"time"

	"support-engine/internal/generation"
	"support-engine/internal/retriever"
	"support-engine/internal/routing"
)

// Request is one incoming customer message.
type Request struct {
	RequestID string `json:"request_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

// step names the processing phases of a request.
type step string

const (
	stepIntent   step = "INTENT"
	stepRetrieve step = "RETRIEVE"
	stepGenerate step = "GENERATE"
	stepDone     step = "DONE"
)

// requestState accumulates intermediate values while a request walks
// through the phases. It is discarded wholesale when any phase fails.
type requestState struct {
	requestID   string
	sessionID   string
	userQuery   string
	cleanedText string

	predictedIntent  string
	confidence       float64
	decision         routing.Decision
	sentimentLabel   string
	sentimentScore   float64
	hasAngerKeywords bool
	sentimentFired   bool

	retrieved        bool
	retrievedDocs    []retriever.Document
	retrievedContext string

	output *generation.Output
}

// Result is the completed outcome for one request.
type Result struct {
	RequestID string `json:"request_id"`
	SessionID string `json:"session_id,omitempty"`
	UserQuery string `json:"user_message"`

	PredictedIntent string  `json:"predicted_intent"`
	Confidence      float64 `json:"confidence"`

	Bucket   routing.Bucket   `json:"bucket"`
	Action   string           `json:"action"`
	Reason   string           `json:"reason"`
	CostTier routing.CostTier `json:"cost_tier"`

	SentimentLabel       string  `json:"sentiment_label"`
	SentimentScore       float64 `json:"sentiment_score"`
	HasAngerKeywords     bool    `json:"has_anger_keywords"`
	EscalatedBySentiment bool    `json:"escalated_by_sentiment"`

	RetrievedDocuments []retriever.Document `json:"retrieved_documents,omitempty"`
	RetrievedContext   string               `json:"retrieved_context,omitempty"`

	Response string           `json:"response"`
	Usage    generation.Usage `json:"llm_usage"`
	CostUSD  float64          `json:"cost_usd"`

	ProcessedAt time.Time     `json:"processed_at"`
	Duration    time.Duration `json:"duration"`
}

// BatchResult pairs one batch entry with its outcome.
type BatchResult struct {
	Request Request `json:"request"`
	Result  *Result `json:"result,omitempty"`
	Err     error   `json:"-"`
}
