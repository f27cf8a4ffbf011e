// internal/routing/engine.go
package routing

import (
	"fmt"
)

// Bucket identifies the routing destination for a message.
type Bucket string

const (
	BucketA Bucket = "BUCKET_A" // template lookup, no LLM
	BucketB Bucket = "BUCKET_B" // RAG + small LLM
	BucketC Bucket = "BUCKET_C" // escalation, big LLM or human
)

// IsValid reports whether b is one of the three known buckets.
func (b Bucket) IsValid() bool {
	return b == BucketA || b == BucketB || b == BucketC
}

// CostTier is the normalized cost classification of a bucket.
type CostTier string

const (
	CostZero CostTier = "zero"
	CostLow  CostTier = "low"
	CostHigh CostTier = "high"
)

// Routing actions. Escalation paths carry a distinct action so downstream
// consumers can tell why a message landed in BUCKET_C; normal routing
// reuses the bucket name as the action.
const (
	ActionLowConfidenceEscalate = "LOW_CONFIDENCE_ESCALATE"
	ActionUnknownIntentEscalate = "UNKNOWN_INTENT_ESCALATE"
	ActionSentimentEscalate     = "escalate_sentiment"
)

// SentimentEscalationThreshold is the minimum sentiment score required
// for a negative-sentiment override.
const SentimentEscalationThreshold = 0.75

// LabelNegative is the sentiment label that can trigger an escalation override.
const LabelNegative = "NEGATIVE"

// Decision is the outcome of routing a classified message.
type Decision struct {
	Bucket   Bucket   `json:"bucket"`
	Action   string   `json:"action"`
	Reason   string   `json:"reason"`
	CostTier CostTier `json:"cost_tier"`
}

// Engine routes classified messages to buckets based on a routing table.
type Engine struct {
	table *Table
}

// NewEngine creates a routing engine over a loaded table.
func NewEngine(table *Table) *Engine {
	return &Engine{table: table}
}

// ConfidenceThreshold returns the threshold below which predictions
// are escalated regardless of intent.
func (e *Engine) ConfidenceThreshold() float64 {
	return e.table.ConfidenceThreshold()
}

// DecideBucket maps a predicted intent and its confidence to a routing
// decision. The confidence check runs before the intent lookup, so a
// low-confidence prediction escalates even when the intent is known.
func (e *Engine) DecideBucket(intent string, confidence float64) Decision {
	if confidence < e.table.ConfidenceThreshold() {
		return Decision{
			Bucket:   BucketC,
			Action:   ActionLowConfidenceEscalate,
			Reason:   fmt.Sprintf("Low confidence (%.2f%%) - Escalate to human", confidence*100),
			CostTier: CostHigh,
		}
	}

	entry, ok := e.table.Lookup(intent)
	if !ok {
		return Decision{
			Bucket:   BucketC,
			Action:   ActionUnknownIntentEscalate,
			Reason:   fmt.Sprintf("Unknown intent %q - Escalate to human", intent),
			CostTier: CostHigh,
		}
	}

	return Decision{
		Bucket:   entry.Bucket,
		Action:   string(entry.Bucket),
		Reason:   bucketReason(entry.Bucket),
		CostTier: entry.Cost,
	}
}

func bucketReason(b Bucket) string {
	switch b {
	case BucketA:
		return "Direct database/FAQ lookup - No LLM needed"
	case BucketB:
		return "RAG + Small LLM for procedural response"
	default:
		return "Escalate to Big LLM or Human agent"
	}
}

// ApplySentimentOverride promotes a decision to BUCKET_C when the message
// carries strongly negative sentiment and anger keywords. The override is
// one-way: a decision already in BUCKET_C is returned unchanged, so
// applying it twice has no further effect. The second return value reports
// whether the override fired.
func (e *Engine) ApplySentimentOverride(d Decision, label string, score float64, hasAnger bool) (Decision, bool) {
	if d.Bucket == BucketC {
		return d, false
	}
	if label != LabelNegative || score <= SentimentEscalationThreshold || !hasAnger {
		return d, false
	}

	d.Bucket = BucketC
	d.CostTier = CostHigh
	d.Action = ActionSentimentEscalate
	d.Reason = fmt.Sprintf("Negative sentiment (%.2f%%) with anger keywords - Escalate to human", score*100)
	return d, true
}

// RerouteMissingTemplate downgrades a BUCKET_A decision to BUCKET_B when
// no direct-response template exists for the intent, so the message falls
// back to retrieval. Only the A-to-B path exists; decisions in any other
// bucket are returned unchanged. The action deliberately keeps the
// original bucket label so the re-route stays visible in audit trails.
func (e *Engine) RerouteMissingTemplate(d Decision) Decision {
	if d.Bucket != BucketA {
		return d
	}
	d.Bucket = BucketB
	d.CostTier = CostLow
	return d
}
