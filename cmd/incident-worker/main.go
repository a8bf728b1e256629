// cmd/incident-worker/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"incident-triage/internal/classifier"
	"incident-triage/internal/common/camunda"
	"incident-triage/internal/common/config"
	"incident-triage/internal/common/database"
	"incident-triage/internal/common/logger"
	"incident-triage/internal/common/observability"
	"incident-triage/internal/notify"
	"incident-triage/internal/search"
	"incident-triage/internal/store"

	ci "incident-triage/internal/workers/triage/classify-incident"
	cir "incident-triage/internal/workers/triage/create-incident-record"
	qi "incident-triage/internal/workers/triage/query-incidents"
	uis "incident-triage/internal/workers/triage/update-incident-status"
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
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func workerTimeout(cfg *config.Config, taskType string) time.Duration {
	return config.GetDuration(config.GetWorkerConfig(cfg, taskType).Timeout)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "console").Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting incident worker...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs, err := observability.New(cfg.App.Name, prom.DefaultRegisterer)
	if err != nil {
		zapLog.Fatal("observability setup failed", zap.Error(err))
	}
	if err := obs.EnableTracing(cfg.Tracing); err != nil {
		zapLog.Fatal("tracing setup failed", zap.Error(err))
	}

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClient(ctx, cfg.Camunda)
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

	incidentStore := store.New(pg.DB, log,
		store.WithCache(redis.Client, cfg.Store.CacheTTL),
		store.WithQueryTimeout(cfg.Store.QueryTimeout),
	)
	if err := incidentStore.Migrate(ctx); err != nil {
		zapLog.Fatal("incident schema migration failed", zap.Error(err))
	}

	readiness := []readinessCheck{
		{name: "zeebe", probe: zeebe.HealthCheck},
		{name: "postgres", probe: pg.Ping},
		{name: "redis", probe: redis.Ping},
	}

	// --- Init Elasticsearch with retry ---
	var index *search.Index
	if cfg.Search.Enabled {
		var es *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		index = search.New(es.Client, cfg.Search.Index, log)
		if err := index.EnsureIndex(ctx); err != nil {
			zapLog.Fatal("incident index setup failed", zap.Error(err))
		}
		readiness = append(readiness, readinessCheck{name: "elasticsearch", probe: es.Ping})
		zapLog.Info("Elasticsearch connected successfully", zap.String("index", index.Name()))
	}

	var pager *notify.Notifier
	if cfg.Notifications.Enabled() {
		pager, err = notify.NewFromConfig(ctx, cfg.Notifications, log)
		if err != nil {
			zapLog.Fatal("notifier setup failed", zap.Error(err))
		}
		zapLog.Info("Incident paging enabled", zap.String("threshold", cfg.Notifications.PriorityThreshold))
	}

	cls := classifier.New(cfg.Classifier.Options()...)

	// --- Register Workers ---
	manager := camunda.NewManager(zeebe.GetClient(), log)

	classify := ci.NewHandler(&ci.Config{Timeout: workerTimeout(cfg, ci.TaskType)}, cls, log, obs)
	manager.Register(ci.TaskType, config.GetWorkerConfig(cfg, ci.TaskType), classify.Handle)

	createOpts := cir.HandlerOptions{
		Config:     &cir.Config{Timeout: workerTimeout(cfg, cir.TaskType)},
		Classifier: cls,
		Store:      incidentStore,
		Logger:     log,
		Obs:        obs,
	}
	if index != nil {
		createOpts.Indexer = index
	}
	if pager != nil {
		createOpts.Pager = pager
	}
	create := cir.NewHandler(createOpts)
	manager.Register(cir.TaskType, config.GetWorkerConfig(cfg, cir.TaskType), create.Handle)

	var (
		reindexer uis.Indexer
		searcher  qi.Searcher
	)
	if index != nil {
		reindexer = index
		searcher = index
	}
	update := uis.NewHandler(&uis.Config{Timeout: workerTimeout(cfg, uis.TaskType)}, incidentStore, reindexer, log, obs)
	manager.Register(uis.TaskType, config.GetWorkerConfig(cfg, uis.TaskType), update.Handle)

	query := qi.NewHandler(&qi.Config{Timeout: workerTimeout(cfg, qi.TaskType)}, incidentStore, searcher, log, obs)
	manager.Register(qi.TaskType, config.GetWorkerConfig(cfg, qi.TaskType), query.Handle)

	zapLog.Info("Workers registered", zap.Int("count", manager.Count()))

	// --- Health & Metrics Server ---
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           newHealthMux(readiness, 5*time.Second),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	manager.Stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error flushing telemetry", zap.Error(err))
	}

	zapLog.Info("Incident worker stopped gracefully")
}
