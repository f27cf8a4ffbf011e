// internal/store/interactions.go
package store

import (
	"context"
	"database/sql"
	"time"

	"support-engine/internal/common/errors"
	"support-engine/internal/common/logger"
)

// Interaction is one processed request written to the audit table.
type Interaction struct {
	RequestID            string
	SessionID            string
	UserQuery            string
	PredictedIntent      string
	Confidence           float64
	Bucket               string
	Action               string
	CostTier             string
	SentimentLabel       string
	SentimentScore       float64
	EscalatedBySentiment bool
	Response             string
	InputTokens          int
	OutputTokens         int
	CostUSD              float64
	ProcessedAt          time.Time
}

const insertInteractionQuery = `
	INSERT INTO interactions (
		request_id, session_id, user_query, predicted_intent, confidence,
		bucket, action, cost_tier, sentiment_label, sentiment_score,
		escalated_by_sentiment, response, input_tokens, output_tokens,
		cost_usd, processed_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

// InteractionStore persists processed requests for auditing.
type InteractionStore struct {
	db     *sql.DB
	logger logger.Logger
}

// NewInteractionStore creates an audit store over an open connection.
func NewInteractionStore(db *sql.DB, log logger.Logger) *InteractionStore {
	return &InteractionStore{
		db: db,
		logger: log.With(map[string]interface{}{
			"component": "interaction-store",
		}),
	}
}

// Insert writes one interaction row.
func (s *InteractionStore) Insert(ctx context.Context, in Interaction) error {
	_, err := s.db.ExecContext(ctx, insertInteractionQuery,
		in.RequestID, in.SessionID, in.UserQuery, in.PredictedIntent, in.Confidence,
		in.Bucket, in.Action, in.CostTier, in.SentimentLabel, in.SentimentScore,
		in.EscalatedBySentiment, in.Response, in.InputTokens, in.OutputTokens,
		in.CostUSD, in.ProcessedAt,
	)
	if err != nil {
		return errors.NewAuditInsertFailedError(err)
	}
	return nil
}
