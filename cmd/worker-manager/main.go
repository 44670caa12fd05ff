// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"tezloan-workers/internal/common/config"
	"tezloan-workers/internal/common/database"
	"tezloan-workers/internal/common/llm"
	"tezloan-workers/internal/common/logger"
	"tezloan-workers/internal/common/observability"
	"tezloan-workers/internal/sessionstore"

	// Conversation Workers (2)
	as "tezloan-workers/internal/workers/conversation/advance-stage"
	ecd "tezloan-workers/internal/workers/conversation/extract-customer-data"

	// Credit Workers (2)
	ccs "tezloan-workers/internal/workers/credit/calculate-credit-score"
	mld "tezloan-workers/internal/workers/credit/make-loan-decision"

	// KYC Worker (1)
	vd "tezloan-workers/internal/workers/kyc/verify-documents"

	// Transcript Worker (1)
	pt "tezloan-workers/internal/workers/transcript/process-transcript"

	// Application & Communication Workers (2)
	clr "tezloan-workers/internal/workers/application/create-loan-record"
	sn "tezloan-workers/internal/workers/communication/send-notification"

	// Orchestration Worker (1)
	plr "tezloan-workers/internal/workers/orchestration/process-loan-request"
)

const sessionTTL = 24 * time.Hour

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
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var zeebeClient zbc.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebeClient, err = zbc.NewClient(&zbc.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Shared services ---
	sessionStore := sessionstore.NewRedisStore(redis, sessionTTL)

	generator := llm.NewClient(&llm.Config{
		BaseURL: cfg.APIs.GenAI.BaseURL,
		APIKey:  cfg.APIs.GenAI.APIKey,
		Model:   cfg.APIs.GenAI.Model,
		Timeout: time.Duration(cfg.APIs.GenAI.Timeout) * time.Millisecond,
	}, log)

	// --- START: Register ALL 9 Workers ---

	// --- 1. Conversation Workers (2) ---
	extractHandler := ecd.NewHandler(&ecd.Config{
		MinLoan:   cfg.Loan.MinLoan,
		MaxLoan:   cfg.Loan.MaxLoan,
		MinIncome: cfg.Loan.MinIncome,
		MaxIncome: cfg.Loan.MaxIncome,
		Timeout:   time.Duration(cfg.Workers[ecd.TaskType].Timeout) * time.Millisecond,
	}, log)
	if cfg.Workers[ecd.TaskType].Enabled {
		startWorker(zeebeClient, ecd.TaskType, cfg.Workers[ecd.TaskType], extractHandler.Handle, zapLog)
	}

	advanceHandler := as.NewHandler(&as.Config{
		IncomeRatio: cfg.Loan.IncomeRatio,
		Timeout:     time.Duration(cfg.Workers[as.TaskType].Timeout) * time.Millisecond,
	}, log)
	if cfg.Workers[as.TaskType].Enabled {
		startWorker(zeebeClient, as.TaskType, cfg.Workers[as.TaskType], advanceHandler.Handle, zapLog)
	}

	// --- 2. Credit Workers (2) ---
	scoreHandler := ccs.NewHandler(ccs.LoadConfig(), log)
	if cfg.Workers[ccs.TaskType].Enabled {
		startWorker(zeebeClient, ccs.TaskType, cfg.Workers[ccs.TaskType], scoreHandler.Handle, zapLog)
	}

	decisionHandler := mld.NewHandler(mld.LoadConfig(), log)
	if cfg.Workers[mld.TaskType].Enabled {
		startWorker(zeebeClient, mld.TaskType, cfg.Workers[mld.TaskType], decisionHandler.Handle, zapLog)
	}

	// --- 3. KYC Worker (1) ---
	verifyHandler := vd.NewHandler(vd.LoadConfig(), log)
	if cfg.Workers[vd.TaskType].Enabled {
		startWorker(zeebeClient, vd.TaskType, cfg.Workers[vd.TaskType], verifyHandler.Handle, zapLog)
	}

	// --- 4. Transcript Worker (1) ---
	if cfg.Workers[pt.TaskType].Enabled {
		handler := pt.NewHandler(pt.LoadConfig(), generator, extractHandler, log)
		startWorker(zeebeClient, pt.TaskType, cfg.Workers[pt.TaskType], handler.Handle, zapLog)
	}

	// --- 5. Application & Communication Workers (2) ---
	recordHandler := clr.NewHandler(clr.LoadConfig(), pg.DB, log)
	if cfg.Workers[clr.TaskType].Enabled {
		startWorker(zeebeClient, clr.TaskType, cfg.Workers[clr.TaskType], recordHandler.Handle, zapLog)
	}

	notifyHandler, err := sn.NewHandler(&sn.Config{
		EmailEnabled: cfg.Notifications.Email.Enabled,
		SMSEnabled:   cfg.Notifications.SMS.Enabled,
		FromEmail:    cfg.Notifications.Email.FromEmail,
		AWSRegion:    cfg.Notifications.AWS.Region,
		Timeout:      time.Duration(cfg.Workers[sn.TaskType].Timeout) * time.Millisecond,
	}, log)
	if err != nil {
		zapLog.Fatal("failed to create send-notification handler", zap.Error(err))
	}
	if cfg.Workers[sn.TaskType].Enabled {
		startWorker(zeebeClient, sn.TaskType, cfg.Workers[sn.TaskType], notifyHandler.Handle, zapLog)
	}

	// --- 6. Orchestration Worker (1) ---
	if cfg.Workers[plr.TaskType].Enabled {
		handler := plr.NewHandler(
			plr.LoadConfig(),
			sessionStore,
			generator,
			plr.Engines{
				Extract: extractHandler,
				Advance: advanceHandler,
				Score:   scoreHandler,
				Decide:  decisionHandler,
				Verify:  verifyHandler,
			},
			esClient,
			notifyHandler,
			recordHandler,
			log,
		)
		startWorker(zeebeClient, plr.TaskType, cfg.Workers[plr.TaskType], handler.Handle, zapLog)
	}

	zapLog.Info("All 9 workers registered successfully")

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	if err := zeebeClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handlerFunc func(worker.JobClient, entities.Job), log *zap.Logger) {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	client.NewJobWorker().
		JobType(taskType).
		Handler(handlerFunc).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
}
