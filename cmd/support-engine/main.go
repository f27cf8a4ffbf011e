// cmd/support-engine/main.go
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"support-engine/internal/classifier"
	"support-engine/internal/common/config"
	"support-engine/internal/common/database"
	"support-engine/internal/common/logger"
	"support-engine/internal/common/observability"
	"support-engine/internal/generation"
	"support-engine/internal/notify"
	"support-engine/internal/orchestrator"
	"support-engine/internal/retriever"
	"support-engine/internal/routing"
	"support-engine/internal/sentiment"
	"support-engine/internal/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting support engine...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Routing table (fatal on any problem) ---
	table, err := routing.LoadTable(cfg.Routing.ConfigPath, cfg.Routing.ConfidenceThreshold)
	if err != nil {
		zapLog.Fatal("routing table load failed", zap.Error(err))
	}
	engine := routing.NewEngine(table)

	stats := table.Stats()
	zapLog.Info("Routing table loaded",
		zap.Int("totalIntents", stats.TotalIntents),
		zap.Float64("confidenceThreshold", stats.ConfidenceThreshold),
	)

	// --- Elasticsearch with retry ---
	esClient, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		zapLog.Fatal("elasticsearch client creation failed", zap.Error(err))
	}
	err = retryWithBackoff(func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return esClient.Ping(pingCtx)
	}, 10, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch unreachable", zap.Error(err))
	}

	searcher, err := retriever.NewElasticsearchSearcher(ctx, esClient, cfg.Retrieval.IndexName)
	if err != nil {
		zapLog.Fatal("knowledge-base index check failed", zap.Error(err))
	}

	embedder, err := retriever.NewOpenAIEmbedder(cfg.LLM)
	if err != nil {
		zapLog.Fatal("embedder creation failed", zap.Error(err))
	}

	rag, err := retriever.New(embedder, searcher, cfg.Retrieval.MetadataPath,
		cfg.Retrieval.TopK, cfg.Retrieval.CacheCap, log)
	if err != nil {
		zapLog.Fatal("retriever creation failed", zap.Error(err))
	}

	// --- Model servers and generation ---
	intentClient := classifier.NewClient(cfg.Models.Classifier, log)
	sentimentClient := sentiment.NewClient(cfg.Models.Sentiment, log)

	llmClient, err := generation.NewClient(cfg.LLM)
	if err != nil {
		zapLog.Fatal("llm client creation failed", zap.Error(err))
	}
	generator := generation.NewGenerator(llmClient, cfg.LLM.InputCostPer1M, cfg.LLM.OutputCostPer1M, log)

	orch := orchestrator.New(engine, intentClient, sentimentClient, rag, generator, obs, log)

	// --- Optional side stores ---
	if cfg.Store.AuditEnabled {
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			zapLog.Fatal("postgres client creation failed", zap.Error(err))
		}
		defer pg.Close()

		err = retryWithBackoff(func() error {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return pg.Ping(pingCtx)
		}, 10, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres unreachable", zap.Error(err))
		}

		orch.WithAuditStore(store.NewInteractionStore(pg.DB, log))
		zapLog.Info("Interaction audit enabled")
	}

	if cfg.Store.SessionsEnabled {
		redisClient := database.NewRedis(cfg.Database.Redis)
		defer redisClient.Close()

		err = retryWithBackoff(func() error {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return redisClient.Ping(pingCtx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis unreachable", zap.Error(err))
		}

		orch.WithSessionRecorder(store.NewSessionStore(redisClient.Client, cfg.Store.SessionHistory, log))
		zapLog.Info("Session history enabled")
	}

	// --- Escalation notifications ---
	if cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
		var emailSender notify.EmailSender
		var smsSender notify.SMSSender

		if cfg.Notifications.Email.Enabled {
			emailSender, err = notify.NewSESEmailSender(ctx, cfg.Notifications.AWS.Region)
			if err != nil {
				zapLog.Fatal("ses sender creation failed", zap.Error(err))
			}
		}
		if cfg.Notifications.SMS.Enabled {
			smsSender, err = notify.NewSNSSMSSender(ctx, cfg.Notifications.AWS.Region)
			if err != nil {
				zapLog.Fatal("sns sender creation failed", zap.Error(err))
			}
		}

		orch.WithNotifier(notify.NewNotifier(cfg.Notifications, emailSender, smsSender, log))
		zapLog.Info("Escalation notifications enabled",
			zap.Bool("email", cfg.Notifications.Email.Enabled),
			zap.Bool("sms", cfg.Notifications.SMS.Enabled),
		)
	}

	// Requests arrive as JSON lines on stdin, one {"session_id","message"}
	// object per line; results go to stdout the same way.
	go runStdinLoop(orch, zapLog)

	// Metrics and pprof
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("metrics server failed", zap.Error(err))
		}
	}()

	zapLog.Info("Support engine ready")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
}

func runStdinLoop(orch *orchestrator.Orchestrator, zapLog *zap.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	encoder := json.NewEncoder(os.Stdout)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req orchestrator.Request
		if err := json.Unmarshal(line, &req); err != nil {
			zapLog.Error("malformed request line", zap.Error(err))
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		result, err := orch.Process(ctx, req)
		cancel()
		if err != nil {
			zapLog.Error("request processing failed", zap.Error(err))
			continue
		}

		if err := encoder.Encode(result); err != nil {
			zapLog.Error("result encoding failed", zap.Error(err))
		}
	}
	if err := scanner.Err(); err != nil {
		zapLog.Error("stdin read failed", zap.Error(err))
	}
}
