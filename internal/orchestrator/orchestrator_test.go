// internal/orchestrator/orchestrator_test.go
package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"support-engine/internal/classifier"
	"support-engine/internal/common/logger"
	"support-engine/internal/generation"
	"support-engine/internal/notify"
	"support-engine/internal/retriever"
	"support-engine/internal/routing"
	"support-engine/internal/sentiment"
	"support-engine/internal/store"
)

// ==========================
// Fakes
// ==========================

type fakeClassifier struct {
	intents map[string]classifier.Prediction
	err     error
}

func (f *fakeClassifier) Classify(_ context.Context, cleaned string) (*classifier.Prediction, error) {
	if f.err != nil {
		return nil, f.err
	}
	pred, ok := f.intents[cleaned]
	if !ok {
		pred = classifier.Prediction{Intent: "unknown", Confidence: 0.9}
	}
	return &pred, nil
}

type fakeSentiment struct {
	result sentiment.Result
	err    error
}

func (f *fakeSentiment) Score(_ context.Context, _ string) (*sentiment.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	res := f.result
	return &res, nil
}

type fakeRetriever struct {
	docs  []retriever.Document
	err   error
	calls int
}

func (f *fakeRetriever) Retrieve(_ context.Context, _ string, _ int) ([]retriever.Document, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.docs, nil
}

type fakeGenerator struct {
	calls      int
	gotBucket  routing.Bucket
	gotContext string
	err        error
}

func (f *fakeGenerator) Generate(_ context.Context, bucket routing.Bucket, intent, _, retrievedContext string) (*generation.Output, error) {
	f.calls++
	f.gotBucket = bucket
	f.gotContext = retrievedContext
	if f.err != nil {
		return nil, f.err
	}
	switch bucket {
	case routing.BucketA:
		return &generation.Output{Response: generation.DirectResponse(intent)}, nil
	case routing.BucketC:
		return &generation.Output{Response: generation.EscalationMessage(intent)}, nil
	default:
		return &generation.Output{
			Response: "generated answer",
			Usage:    generation.Usage{InputTokens: 100, OutputTokens: 50, TotalTokens: 150},
			CostUSD:  0.000125,
		}, nil
	}
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []notify.Escalation
	done  chan struct{}
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{done: make(chan struct{}, 8)}
}

func (f *fakeNotifier) NotifyEscalation(_ context.Context, esc notify.Escalation) error {
	f.mu.Lock()
	f.calls = append(f.calls, esc)
	f.mu.Unlock()
	f.done <- struct{}{}
	return nil
}

type fakeAudit struct {
	mu    sync.Mutex
	calls []store.Interaction
	done  chan struct{}
}

func newFakeAudit() *fakeAudit {
	return &fakeAudit{done: make(chan struct{}, 8)}
}

func (f *fakeAudit) Insert(_ context.Context, in store.Interaction) error {
	f.mu.Lock()
	f.calls = append(f.calls, in)
	f.mu.Unlock()
	f.done <- struct{}{}
	return nil
}

type fakeSessions struct {
	mu    sync.Mutex
	turns map[string][]store.Turn
	done  chan struct{}
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{turns: make(map[string][]store.Turn), done: make(chan struct{}, 8)}
}

func (f *fakeSessions) Append(_ context.Context, sessionID string, turn store.Turn) error {
	f.mu.Lock()
	f.turns[sessionID] = append(f.turns[sessionID], turn)
	f.mu.Unlock()
	f.done <- struct{}{}
	return nil
}

func waitSignal(t *testing.T, ch chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for side effect")
	}
}

// ==========================
// Setup
// ==========================

const testRoutingDocument = `{
	"confidence_threshold": 0.5,
	"intent_routing": {
		"BUCKET_A": {
			"description": "Direct lookup",
			"cost": "Zero",
			"intents": ["track_order", "check_invoice", "newsletter_subscription"]
		},
		"BUCKET_B": {
			"description": "RAG",
			"cost": "Low",
			"intents": ["cancel_order", "get_refund"]
		},
		"BUCKET_C": {
			"description": "Escalation",
			"cost": "High",
			"intents": ["complaint", "contact_human_agent"]
		}
	}
}`

func testEngine(t *testing.T) *routing.Engine {
	t.Helper()
	path := filepath.Join(t.TempDir(), "routing_config.json")
	require.NoError(t, os.WriteFile(path, []byte(testRoutingDocument), 0o644))

	table, err := routing.LoadTable(path, nil)
	require.NoError(t, err)
	return routing.NewEngine(table)
}

func defaultClassifier() *fakeClassifier {
	return &fakeClassifier{intents: map[string]classifier.Prediction{
		"track my order":                     {Intent: "track_order", Confidence: 0.93},
		"i want to cancel my order":          {Intent: "cancel_order", Confidence: 0.88},
		"i want a refund this is terrible!!": {Intent: "get_refund", Confidence: 0.84},
		"subscribe me to the newsletter":     {Intent: "newsletter_subscription", Confidence: 0.91},
		"gibberish":                          {Intent: "track_order", Confidence: 0.12},
	}}
}

func positiveSentiment() *fakeSentiment {
	return &fakeSentiment{result: sentiment.Result{Label: "POSITIVE", Score: 0.8}}
}

func newTestOrchestrator(t *testing.T, cls IntentClassifier, sent SentimentScorer, ret *fakeRetriever, gen *fakeGenerator) *Orchestrator {
	t.Helper()
	return New(testEngine(t), cls, sent, ret, gen, nil, logger.NewTestLogger(t))
}

// ==========================
// Scenarios
// ==========================

func TestProcessTemplatePath(t *testing.T) {
	ret := &fakeRetriever{}
	gen := &fakeGenerator{}
	o := newTestOrchestrator(t, defaultClassifier(), positiveSentiment(), ret, gen)

	res, err := o.Process(context.Background(), Request{Message: "Track my Order"})
	require.NoError(t, err)

	assert.Equal(t, routing.BucketA, res.Bucket)
	assert.Equal(t, "BUCKET_A", res.Action)
	assert.Equal(t, routing.CostZero, res.CostTier)
	assert.Equal(t, "track_order", res.PredictedIntent)
	assert.Equal(t, generation.DirectResponse("track_order"), res.Response)
	assert.False(t, res.EscalatedBySentiment)

	// template path never touches retrieval
	assert.Zero(t, ret.calls)
	assert.Empty(t, res.RetrievedContext)
	assert.NotEmpty(t, res.RequestID)
}

func TestProcessRAGPath(t *testing.T) {
	ret := &fakeRetriever{docs: []retriever.Document{
		{ID: "doc-0", Score: 0.9, Metadata: retriever.DocMetadata{Instruction: "How do I cancel?", Response: "Press cancel."}},
	}}
	gen := &fakeGenerator{}
	o := newTestOrchestrator(t, defaultClassifier(), positiveSentiment(), ret, gen)

	res, err := o.Process(context.Background(), Request{Message: "I want to cancel my order"})
	require.NoError(t, err)

	assert.Equal(t, routing.BucketB, res.Bucket)
	assert.Equal(t, 1, ret.calls)
	assert.Equal(t, 1, gen.calls)
	assert.Contains(t, gen.gotContext, "[Context 1]")
	assert.Equal(t, "generated answer", res.Response)
	assert.Equal(t, 150, res.Usage.TotalTokens)
	assert.InDelta(t, 0.000125, res.CostUSD, 1e-12)
	require.Len(t, res.RetrievedDocuments, 1)
}

func TestProcessSentimentEscalation(t *testing.T) {
	ret := &fakeRetriever{}
	gen := &fakeGenerator{}
	sent := &fakeSentiment{result: sentiment.Result{Label: "NEGATIVE", Score: 0.97}}
	o := newTestOrchestrator(t, defaultClassifier(), sent, ret, gen)

	res, err := o.Process(context.Background(), Request{Message: "I want a refund this is TERRIBLE!!"})
	require.NoError(t, err)

	assert.Equal(t, routing.BucketC, res.Bucket)
	assert.Equal(t, routing.ActionSentimentEscalate, res.Action)
	assert.Equal(t, routing.CostHigh, res.CostTier)
	assert.True(t, res.EscalatedBySentiment)
	assert.True(t, res.HasAngerKeywords)

	// escalations skip retrieval even though the intent maps to BUCKET_B
	assert.Zero(t, ret.calls)
	assert.Equal(t, routing.BucketC, gen.gotBucket)
}

func TestProcessNegativeWithoutAngerStaysRouted(t *testing.T) {
	ret := &fakeRetriever{}
	gen := &fakeGenerator{}
	sent := &fakeSentiment{result: sentiment.Result{Label: "NEGATIVE", Score: 0.95}}
	o := newTestOrchestrator(t, defaultClassifier(), sent, ret, gen)

	res, err := o.Process(context.Background(), Request{Message: "I want to cancel my order"})
	require.NoError(t, err)

	assert.Equal(t, routing.BucketB, res.Bucket)
	assert.False(t, res.EscalatedBySentiment)
	assert.Equal(t, 1, ret.calls)
}

func TestProcessMissingTemplateFallsBackToRAG(t *testing.T) {
	ret := &fakeRetriever{}
	gen := &fakeGenerator{}
	o := newTestOrchestrator(t, defaultClassifier(), positiveSentiment(), ret, gen)

	// newsletter_subscription routes to BUCKET_A but has no template
	res, err := o.Process(context.Background(), Request{Message: "Subscribe me to the Newsletter"})
	require.NoError(t, err)

	assert.Equal(t, routing.BucketB, res.Bucket)
	assert.Equal(t, routing.CostLow, res.CostTier)
	// the action keeps the original bucket label
	assert.Equal(t, "BUCKET_A", res.Action)
	assert.Equal(t, 1, ret.calls)
	assert.Equal(t, routing.BucketB, gen.gotBucket)
}

func TestProcessLowConfidenceEscalates(t *testing.T) {
	ret := &fakeRetriever{}
	gen := &fakeGenerator{}
	o := newTestOrchestrator(t, defaultClassifier(), positiveSentiment(), ret, gen)

	res, err := o.Process(context.Background(), Request{Message: "gibberish"})
	require.NoError(t, err)

	assert.Equal(t, routing.BucketC, res.Bucket)
	assert.Equal(t, routing.ActionLowConfidenceEscalate, res.Action)
	assert.Zero(t, ret.calls)
}

func TestProcessEmptyRetrievalUsesSentinelContext(t *testing.T) {
	ret := &fakeRetriever{docs: nil}
	gen := &fakeGenerator{}
	o := newTestOrchestrator(t, defaultClassifier(), positiveSentiment(), ret, gen)

	res, err := o.Process(context.Background(), Request{Message: "I want to cancel my order"})
	require.NoError(t, err)

	assert.Equal(t, retriever.EmptyContextSentinel, res.RetrievedContext)
	assert.Equal(t, retriever.EmptyContextSentinel, gen.gotContext)
}

// ==========================
// Failure handling
// ==========================

func TestProcessFailuresDiscardState(t *testing.T) {
	t.Run("classifier failure", func(t *testing.T) {
		gen := &fakeGenerator{}
		o := newTestOrchestrator(t, &fakeClassifier{err: assert.AnError}, positiveSentiment(), &fakeRetriever{}, gen)

		res, err := o.Process(context.Background(), Request{Message: "anything"})
		require.Error(t, err)
		assert.Nil(t, res)
		assert.Zero(t, gen.calls)
	})

	t.Run("sentiment failure", func(t *testing.T) {
		gen := &fakeGenerator{}
		o := newTestOrchestrator(t, defaultClassifier(), &fakeSentiment{err: assert.AnError}, &fakeRetriever{}, gen)

		res, err := o.Process(context.Background(), Request{Message: "track my order"})
		require.Error(t, err)
		assert.Nil(t, res)
		assert.Zero(t, gen.calls)
	})

	t.Run("retrieval failure", func(t *testing.T) {
		gen := &fakeGenerator{}
		o := newTestOrchestrator(t, defaultClassifier(), positiveSentiment(), &fakeRetriever{err: assert.AnError}, gen)

		res, err := o.Process(context.Background(), Request{Message: "I want to cancel my order"})
		require.Error(t, err)
		assert.Nil(t, res)
		assert.Zero(t, gen.calls)
	})

	t.Run("generation failure", func(t *testing.T) {
		o := newTestOrchestrator(t, defaultClassifier(), positiveSentiment(), &fakeRetriever{}, &fakeGenerator{err: assert.AnError})

		res, err := o.Process(context.Background(), Request{Message: "track my order"})
		require.Error(t, err)
		assert.Nil(t, res)
	})
}

func TestProcessBatchContinuesPastFailures(t *testing.T) {
	cls := defaultClassifier()
	ret := &fakeRetriever{}
	gen := &fakeGenerator{}
	o := newTestOrchestrator(t, cls, positiveSentiment(), ret, gen)

	results := o.ProcessBatch(context.Background(), []Request{
		{Message: "track my order"},
		{Message: "I want to cancel my order"},
	})

	require.Len(t, results, 2)
	require.NoError(t, results[0].Err)
	assert.Equal(t, routing.BucketA, results[0].Result.Bucket)
	require.NoError(t, results[1].Err)
	assert.Equal(t, routing.BucketB, results[1].Result.Bucket)
}

// ==========================
// Side effects
// ==========================

func TestProcessSideEffects(t *testing.T) {
	t.Run("escalation notifies support", func(t *testing.T) {
		notifier := newFakeNotifier()
		sent := &fakeSentiment{result: sentiment.Result{Label: "NEGATIVE", Score: 0.97}}
		o := newTestOrchestrator(t, defaultClassifier(), sent, &fakeRetriever{}, &fakeGenerator{}).
			WithNotifier(notifier)

		res, err := o.Process(context.Background(), Request{Message: "I want a refund this is TERRIBLE!!"})
		require.NoError(t, err)
		waitSignal(t, notifier.done)

		notifier.mu.Lock()
		defer notifier.mu.Unlock()
		require.Len(t, notifier.calls, 1)
		assert.Equal(t, res.RequestID, notifier.calls[0].RequestID)
		assert.Equal(t, routing.ActionSentimentEscalate, notifier.calls[0].Action)
	})

	t.Run("non escalated requests do not notify", func(t *testing.T) {
		notifier := newFakeNotifier()
		o := newTestOrchestrator(t, defaultClassifier(), positiveSentiment(), &fakeRetriever{}, &fakeGenerator{}).
			WithNotifier(notifier)

		_, err := o.Process(context.Background(), Request{Message: "track my order"})
		require.NoError(t, err)

		select {
		case <-notifier.done:
			t.Fatal("notifier should not have been called")
		case <-time.After(100 * time.Millisecond):
		}
	})

	t.Run("audit row records the outcome", func(t *testing.T) {
		audit := newFakeAudit()
		o := newTestOrchestrator(t, defaultClassifier(), positiveSentiment(), &fakeRetriever{}, &fakeGenerator{}).
			WithAuditStore(audit)

		res, err := o.Process(context.Background(), Request{SessionID: "sess-7", Message: "I want to cancel my order"})
		require.NoError(t, err)
		waitSignal(t, audit.done)

		audit.mu.Lock()
		defer audit.mu.Unlock()
		require.Len(t, audit.calls, 1)
		row := audit.calls[0]
		assert.Equal(t, res.RequestID, row.RequestID)
		assert.Equal(t, "sess-7", row.SessionID)
		assert.Equal(t, "BUCKET_B", row.Bucket)
		assert.Equal(t, 100, row.InputTokens)
	})

	t.Run("session history records the turn", func(t *testing.T) {
		sessions := newFakeSessions()
		o := newTestOrchestrator(t, defaultClassifier(), positiveSentiment(), &fakeRetriever{}, &fakeGenerator{}).
			WithSessionRecorder(sessions)

		_, err := o.Process(context.Background(), Request{SessionID: "sess-8", Message: "track my order"})
		require.NoError(t, err)
		waitSignal(t, sessions.done)

		sessions.mu.Lock()
		defer sessions.mu.Unlock()
		require.Len(t, sessions.turns["sess-8"], 1)
		assert.Equal(t, "BUCKET_A", sessions.turns["sess-8"][0].Bucket)
	})

	t.Run("anonymous requests skip session history", func(t *testing.T) {
		sessions := newFakeSessions()
		o := newTestOrchestrator(t, defaultClassifier(), positiveSentiment(), &fakeRetriever{}, &fakeGenerator{}).
			WithSessionRecorder(sessions)

		_, err := o.Process(context.Background(), Request{Message: "track my order"})
		require.NoError(t, err)

		select {
		case <-sessions.done:
			t.Fatal("session recorder should not have been called")
		case <-time.After(100 * time.Millisecond):
		}
	})
}
