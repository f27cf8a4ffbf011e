// internal/orchestrator/orchestrator.go
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"support-engine/internal/classifier"
	"support-engine/internal/common/logger"
	"support-engine/internal/common/metrics"
	"support-engine/internal/common/observability"
	"support-engine/internal/generation"
	"support-engine/internal/notify"
	"support-engine/internal/retriever"
	"support-engine/internal/routing"
	"support-engine/internal/sentiment"
	"support-engine/internal/store"
)

// IntentClassifier predicts the intent of a cleaned message.
type IntentClassifier interface {
	Classify(ctx context.Context, cleanedText string) (*classifier.Prediction, error)
}

// SentimentScorer analyzes the raw message text.
type SentimentScorer interface {
	Score(ctx context.Context, rawText string) (*sentiment.Result, error)
}

// DocumentRetriever fetches knowledge-base documents for a query.
type DocumentRetriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]retriever.Document, error)
}

// ResponseGenerator produces the final answer for a bucket.
type ResponseGenerator interface {
	Generate(ctx context.Context, bucket routing.Bucket, intent, query, retrievedContext string) (*generation.Output, error)
}

// EscalationNotifier surfaces BUCKET_C outcomes to the support team.
type EscalationNotifier interface {
	NotifyEscalation(ctx context.Context, esc notify.Escalation) error
}

// AuditStore persists completed interactions.
type AuditStore interface {
	Insert(ctx context.Context, in store.Interaction) error
}

// SessionRecorder appends turns to per-session history.
type SessionRecorder interface {
	Append(ctx context.Context, sessionID string, turn store.Turn) error
}

// Orchestrator drives one request through intent classification,
// conditional retrieval and response generation. The notifier, audit
// store and session recorder are optional; a nil value disables that
// side effect.
type Orchestrator struct {
	engine     *routing.Engine
	classifier IntentClassifier
	sentiment  SentimentScorer
	retriever  DocumentRetriever
	generator  ResponseGenerator

	notifier EscalationNotifier
	audit    AuditStore
	sessions SessionRecorder

	obs    *observability.Observability
	logger logger.Logger

	sideEffectTimeout time.Duration
}

// New wires an orchestrator from its capabilities.
func New(
	engine *routing.Engine,
	intentClassifier IntentClassifier,
	sentimentScorer SentimentScorer,
	docRetriever DocumentRetriever,
	generator ResponseGenerator,
	obs *observability.Observability,
	log logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		engine:            engine,
		classifier:        intentClassifier,
		sentiment:         sentimentScorer,
		retriever:         docRetriever,
		generator:         generator,
		obs:               obs,
		logger:            log.With(map[string]interface{}{"component": "orchestrator"}),
		sideEffectTimeout: 10 * time.Second,
	}
}

// WithNotifier enables escalation notifications.
func (o *Orchestrator) WithNotifier(n EscalationNotifier) *Orchestrator {
	o.notifier = n
	return o
}

// WithAuditStore enables interaction auditing.
func (o *Orchestrator) WithAuditStore(a AuditStore) *Orchestrator {
	o.audit = a
	return o
}

// WithSessionRecorder enables per-session history.
func (o *Orchestrator) WithSessionRecorder(s SessionRecorder) *Orchestrator {
	o.sessions = s
	return o
}

// Process runs one request to completion. On any phase failure the
// accumulated state is discarded and only the error is returned; no
// partial response, audit row or notification is produced.
func (o *Orchestrator) Process(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	rs := &requestState{
		requestID: req.RequestID,
		sessionID: req.SessionID,
		userQuery: req.Message,
	}
	if rs.requestID == "" {
		rs.requestID = uuid.NewString()
	}

	log := o.logger.With(map[string]interface{}{"requestId": rs.requestID})
	log.Info("processing request", map[string]interface{}{"sessionId": rs.sessionID})

	current := stepIntent
	for current != stepDone {
		var err error
		switch current {
		case stepIntent:
			current, err = o.runIntent(ctx, rs, log)
		case stepRetrieve:
			current, err = o.runRetrieve(ctx, rs, log)
		case stepGenerate:
			current, err = o.runGenerate(ctx, rs, log)
		default:
			err = fmt.Errorf("unknown step %q", current)
		}
		if err != nil {
			metrics.RequestsFailed.WithLabelValues(string(current)).Inc()
			log.Error("request failed", map[string]interface{}{
				"step":  string(current),
				"error": err.Error(),
			})
			return nil, err
		}
	}

	result := o.buildResult(rs, start)
	o.recordOutcome(ctx, result, log)
	o.runSideEffects(result, log)

	log.Info("request complete", map[string]interface{}{
		"intent":     result.PredictedIntent,
		"bucket":     string(result.Bucket),
		"action":     result.Action,
		"durationMs": result.Duration.Milliseconds(),
	})
	return result, nil
}

// ProcessBatch routes a batch of messages sequentially. One failed
// message does not abort the rest.
func (o *Orchestrator) ProcessBatch(ctx context.Context, reqs []Request) []BatchResult {
	results := make([]BatchResult, 0, len(reqs))
	for _, req := range reqs {
		res, err := o.Process(ctx, req)
		results = append(results, BatchResult{Request: req, Result: res, Err: err})
	}
	return results
}

// runIntent classifies the message, scores sentiment, and picks the
// bucket. The conditional edge afterwards decides whether retrieval is
// needed: BUCKET_B always retrieves, BUCKET_A retrieves only when its
// template is missing, BUCKET_C never retrieves.
func (o *Orchestrator) runIntent(ctx context.Context, rs *requestState, log logger.Logger) (step, error) {
	rs.cleanedText = classifier.CleanText(rs.userQuery)

	pred, err := o.classifier.Classify(ctx, rs.cleanedText)
	if err != nil {
		return stepIntent, err
	}
	rs.predictedIntent = pred.Intent
	rs.confidence = pred.Confidence

	sent, err := o.sentiment.Score(ctx, rs.userQuery)
	if err != nil {
		return stepIntent, err
	}
	rs.sentimentLabel = sent.Label
	rs.sentimentScore = sent.Score
	rs.hasAngerKeywords = routing.HasAngerKeywords(rs.userQuery)

	rs.decision = o.engine.DecideBucket(rs.predictedIntent, rs.confidence)

	rs.decision, rs.sentimentFired = o.engine.ApplySentimentOverride(
		rs.decision, rs.sentimentLabel, rs.sentimentScore, rs.hasAngerKeywords)
	if rs.sentimentFired {
		metrics.SentimentEscalations.Inc()
		log.Warn("sentiment escalation triggered", map[string]interface{}{
			"sentimentLabel": rs.sentimentLabel,
			"sentimentScore": rs.sentimentScore,
		})
	}

	switch rs.decision.Bucket {
	case routing.BucketA:
		if !generation.HasDirectResponse(rs.predictedIntent) {
			rs.decision = o.engine.RerouteMissingTemplate(rs.decision)
			log.Warn("template missing, falling back to retrieval", map[string]interface{}{
				"intent": rs.predictedIntent,
			})
			return stepRetrieve, nil
		}
		return stepGenerate, nil
	case routing.BucketB:
		return stepRetrieve, nil
	default:
		return stepGenerate, nil
	}
}

// runRetrieve fetches context for the query. It runs at most once per
// request.
func (o *Orchestrator) runRetrieve(ctx context.Context, rs *requestState, log logger.Logger) (step, error) {
	if rs.retrieved {
		return stepGenerate, nil
	}
	rs.retrieved = true

	docs, err := o.retriever.Retrieve(ctx, rs.userQuery, 0)
	if err != nil {
		return stepRetrieve, err
	}
	rs.retrievedDocs = docs
	rs.retrievedContext = retriever.FormatContext(docs)

	log.Debug("retrieval complete", map[string]interface{}{
		"documents": len(docs),
	})
	return stepGenerate, nil
}

func (o *Orchestrator) runGenerate(ctx context.Context, rs *requestState, log logger.Logger) (step, error) {
	out, err := o.generator.Generate(ctx, rs.decision.Bucket, rs.predictedIntent, rs.userQuery, rs.retrievedContext)
	if err != nil {
		return stepGenerate, err
	}
	rs.output = out
	return stepDone, nil
}

func (o *Orchestrator) buildResult(rs *requestState, start time.Time) *Result {
	return &Result{
		RequestID:            rs.requestID,
		SessionID:            rs.sessionID,
		UserQuery:            rs.userQuery,
		PredictedIntent:      rs.predictedIntent,
		Confidence:           rs.confidence,
		Bucket:               rs.decision.Bucket,
		Action:               rs.decision.Action,
		Reason:               rs.decision.Reason,
		CostTier:             rs.decision.CostTier,
		SentimentLabel:       rs.sentimentLabel,
		SentimentScore:       rs.sentimentScore,
		HasAngerKeywords:     rs.hasAngerKeywords,
		EscalatedBySentiment: rs.decision.Action == routing.ActionSentimentEscalate,
		RetrievedDocuments:   rs.retrievedDocs,
		RetrievedContext:     rs.retrievedContext,
		Response:             rs.output.Response,
		Usage:                rs.output.Usage,
		CostUSD:              rs.output.CostUSD,
		ProcessedAt:          start.UTC(),
		Duration:             time.Since(start),
	}
}

func (o *Orchestrator) recordOutcome(ctx context.Context, result *Result, log logger.Logger) {
	metrics.RequestsRouted.WithLabelValues(string(result.Bucket), result.Action).Inc()
	metrics.RequestDuration.WithLabelValues(string(result.Bucket)).Observe(result.Duration.Seconds())

	if o.obs != nil {
		o.obs.RecordRequestProcessed(ctx, string(result.Bucket))
		o.obs.RecordRequestDuration(ctx, result.Duration, string(result.Bucket))
	}
}

// runSideEffects fires the best-effort side channels. They run in the
// background with their own deadline so a slow store never delays the
// customer-facing response.
func (o *Orchestrator) runSideEffects(result *Result, log logger.Logger) {
	if o.notifier != nil && result.Bucket == routing.BucketC {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), o.sideEffectTimeout)
			defer cancel()

			err := o.notifier.NotifyEscalation(ctx, notify.Escalation{
				RequestID:      result.RequestID,
				SessionID:      result.SessionID,
				Intent:         result.PredictedIntent,
				Action:         result.Action,
				Query:          result.UserQuery,
				SentimentLabel: result.SentimentLabel,
				SentimentScore: result.SentimentScore,
			})
			if err != nil {
				log.Error("escalation notification failed", map[string]interface{}{"error": err.Error()})
			}
		}()
	}

	if o.audit != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), o.sideEffectTimeout)
			defer cancel()

			err := o.audit.Insert(ctx, store.Interaction{
				RequestID:            result.RequestID,
				SessionID:            result.SessionID,
				UserQuery:            result.UserQuery,
				PredictedIntent:      result.PredictedIntent,
				Confidence:           result.Confidence,
				Bucket:               string(result.Bucket),
				Action:               result.Action,
				CostTier:             string(result.CostTier),
				SentimentLabel:       result.SentimentLabel,
				SentimentScore:       result.SentimentScore,
				EscalatedBySentiment: result.EscalatedBySentiment,
				Response:             result.Response,
				InputTokens:          result.Usage.InputTokens,
				OutputTokens:         result.Usage.OutputTokens,
				CostUSD:              result.CostUSD,
				ProcessedAt:          result.ProcessedAt,
			})
			if err != nil {
				log.Error("interaction audit failed", map[string]interface{}{"error": err.Error()})
			}
		}()
	}

	if o.sessions != nil && result.SessionID != "" {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), o.sideEffectTimeout)
			defer cancel()

			err := o.sessions.Append(ctx, result.SessionID, store.Turn{
				UserQuery: result.UserQuery,
				Response:  result.Response,
				Bucket:    string(result.Bucket),
				Timestamp: result.ProcessedAt,
			})
			if err != nil {
				log.Error("session history append failed", map[string]interface{}{"error": err.Error()})
			}
		}()
	}
}
