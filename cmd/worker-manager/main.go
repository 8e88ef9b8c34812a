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

	"churn-predictor/internal/common/aws"
	"churn-predictor/internal/common/config"
	"churn-predictor/internal/common/database"
	"churn-predictor/internal/common/logger"
	"churn-predictor/internal/common/model"
	"churn-predictor/internal/common/observability"

	// Prediction pipeline workers
	df "churn-predictor/internal/workers/prediction/derive-features"
	fup "churn-predictor/internal/workers/prediction/fetch-user-profile"
	sc "churn-predictor/internal/workers/prediction/score-churn"
	vp "churn-predictor/internal/workers/prediction/validate-profile"

	// Retention follow-up workers
	brp "churn-predictor/internal/workers/retention/build-retention-playlist"
	sro "churn-predictor/internal/workers/retention/send-retention-offer"
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

	zapLog.Info("Starting worker manager...")

	obs := observability.New("churn-predictor")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Classifier artifact ---
	holder := model.NewHolder(cfg.Model.ArtifactPath)
	if cfg.Model.EagerLoad {
		if err := holder.Warm(); err != nil {
			zapLog.Fatal("classifier artifact load failed", zap.Error(err))
		}
		zapLog.Info("Classifier artifact loaded", zap.String("path", cfg.Model.ArtifactPath))
	}

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
	var rds *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rds, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rds.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rds.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init AWS delivery clients ---
	sesClient, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
	if err != nil {
		zapLog.Fatal("SES client init failed", zap.Error(err))
	}
	snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
	if err != nil {
		zapLog.Fatal("SNS client init failed", zap.Error(err))
	}
	zapLog.Info("AWS delivery clients initialized")

	// --- Register workers ---

	// Prediction pipeline
	if cfg.Workers[vp.TaskType].Enabled {
		handler := vp.NewHandler(
			&vp.Config{
				Timeout: time.Duration(cfg.Workers[vp.TaskType].Timeout) * time.Millisecond,
			},
			log,
		)
		startWorker(zeebeClient, vp.TaskType, cfg.Workers[vp.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[fup.TaskType].Enabled {
		handler := fup.NewHandler(
			&fup.Config{
				Timeout:  time.Duration(cfg.Workers[fup.TaskType].Timeout) * time.Millisecond,
				CacheTTL: 5 * time.Minute,
			},
			pg.DB, rds.Client, log,
		)
		startWorker(zeebeClient, fup.TaskType, cfg.Workers[fup.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[df.TaskType].Enabled {
		handler := df.NewHandler(
			&df.Config{
				Timeout: time.Duration(cfg.Workers[df.TaskType].Timeout) * time.Millisecond,
			},
			log,
		)
		startWorker(zeebeClient, df.TaskType, cfg.Workers[df.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[sc.TaskType].Enabled {
		handler := sc.NewHandler(
			&sc.Config{
				Timeout:   time.Duration(cfg.Workers[sc.TaskType].Timeout) * time.Millisecond,
				Threshold: cfg.Model.Threshold,
			},
			holder, obs, log,
		)
		startWorker(zeebeClient, sc.TaskType, cfg.Workers[sc.TaskType], handler.Handle, zapLog)
	}

	// Retention follow-ups
	if cfg.Workers[sro.TaskType].Enabled {
		handler := sro.NewHandler(
			&sro.Config{
				EmailEnabled: cfg.Notifications.Email.Enabled,
				PushEnabled:  cfg.Notifications.Push.Enabled,
				FromEmail:    cfg.Notifications.Email.FromEmail,
				AWSRegion:    cfg.Notifications.AWS.Region,
				Timeout:      time.Duration(cfg.Workers[sro.TaskType].Timeout) * time.Millisecond,
			},
			sesClient, snsClient, log,
		)
		startWorker(zeebeClient, sro.TaskType, cfg.Workers[sro.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[brp.TaskType].Enabled {
		handler := brp.NewHandler(
			&brp.Config{
				Timeout:      time.Duration(cfg.Workers[brp.TaskType].Timeout) * time.Millisecond,
				EventsIndex:  cfg.Database.Elasticsearch.EventsIndex,
				MinSkipRatio: 0.5,
				MinPlays:     5,
				MaxGenres:    50,
			},
			esClient.Client, log,
		)
		startWorker(zeebeClient, brp.TaskType, cfg.Workers[brp.TaskType], handler.Handle, zapLog)
	}

	zapLog.Info("All workers registered successfully")

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
