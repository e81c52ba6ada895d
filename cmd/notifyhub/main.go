package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"notifyhub/internal/api"
	"notifyhub/internal/common/config"
	"notifyhub/internal/common/database"
	"notifyhub/internal/common/logger"
	"notifyhub/internal/common/observability"
	"notifyhub/internal/dict"
	"notifyhub/internal/directory"
	"notifyhub/internal/dispatch"
	"notifyhub/internal/push"
	"notifyhub/internal/search"
	"notifyhub/internal/service"
	"notifyhub/internal/session"
	"notifyhub/internal/store"
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

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting notifyhub...",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	obs := observability.New(cfg.App.Name, os.Getenv("JAEGER_ENDPOINT"))
	defer obs.Shutdown()

	ctx := context.Background()

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

	// --- Init Elasticsearch with retry (optional) ---
	var indexer service.Indexer
	if cfg.Search.Enabled {
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
		indexer = search.NewIndexer(esClient.Client, cfg.Search.Index, log)
	}

	// --- Metrics and pprof listener ---
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("metrics listener started", zap.String("address", cfg.Metrics.Address))
		if err := http.ListenAndServe(cfg.Metrics.Address, nil); err != nil {
			zapLog.Error("metrics listener failed", zap.Error(err))
		}
	}()

	// --- Push channel ---
	var channel push.Channel
	switch cfg.Dispatch.Channel {
	case "sns":
		channel, err = push.NewSNSChannel(ctx, cfg.Dispatch.SNSRegion)
		if err != nil {
			zapLog.Fatal("sns channel init failed", zap.Error(err))
		}
	default:
		channel = push.NewRedisChannel(rds.Client)
	}
	zapLog.Info("push channel ready", zap.String("channel", channel.Name()))

	// --- Dispatch pipeline ---
	registry := session.NewRedisRegistry(rds.Client, cfg.Sessions.KeyPrefix,
		time.Duration(cfg.Sessions.TTL)*time.Second)
	dispatcher := dispatch.New(registry, channel, log, obs,
		cfg.Dispatch.Workers, cfg.Dispatch.QueueSize,
		time.Duration(cfg.Dispatch.RunTimeout)*time.Millisecond)

	// --- Service ---
	notifications := store.NewNotificationStore(pg.DB)
	records := store.NewDeliveryRecordStore(pg.DB)
	dicts := dict.New(pg.DB, rds.Client)
	users := directory.New(pg.DB)
	svc := service.NewNotificationService(pg.DB, notifications, records, dicts, users,
		dispatcher, indexer, log, obs)

	// --- HTTP API ---
	server := api.NewServer(svc, registry, log)
	go func() {
		zapLog.Info("api listener started", zap.String("address", cfg.API.Address))
		if err := server.Run(cfg.API.Address); err != nil {
			zapLog.Fatal("api listener failed", zap.Error(err))
		}
	}()

	zapLog.Info("notifyhub started",
		zap.Int("dispatchWorkers", cfg.Dispatch.Workers),
		zap.Int("dispatchQueue", cfg.Dispatch.QueueSize),
	)

	// --- Graceful shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	zapLog.Info("shutdown requested, draining dispatcher...")
	dispatcher.Shutdown()
	zapLog.Info("notifyhub stopped")
}
