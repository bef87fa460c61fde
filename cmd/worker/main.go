package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mglynn/habitflow/internal/cache"
	"github.com/mglynn/habitflow/internal/config"
	"github.com/mglynn/habitflow/internal/database"
	"github.com/mglynn/habitflow/internal/logger"
	"github.com/mglynn/habitflow/internal/queue"
	"github.com/mglynn/habitflow/internal/workers"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.WorkerDebugMode || *debugFlag

	newLogger := logger.NewProductionLogger
	if *debugFlag {
		newLogger = logger.NewDevelopmentLogger
	}
	zapLogger, err := newLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = zapLogger.Sync()
	}()

	zapLogger.Info("starting_worker", zap.Bool("debug_mode", debugMode))

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("failed_to_parse_redis_url", zap.Error(err))
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() {
		if err := redisClient.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		pingCancel()
		zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
	}
	pingCancel()
	zapLogger.Info("connected_to_redis")

	jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_rabbitmq", zap.Int("prefetch", cfg.RabbitMQPrefetch))

	habitRepo := database.NewHabitRepository(db)
	progressCache := cache.NewProgressCache(redisClient, time.Duration(cfg.ProgressCacheTTL)*time.Second)
	refresher := workers.NewProgressRefresher(habitRepo, progressCache, zapLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	msgChan, errChan, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		zapLogger.Fatal("failed_to_start_consuming", zap.Error(err))
	}

	zapLogger.Info("worker_started")

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgChan:
				if !ok {
					zapLogger.Info("message_channel_closed")
					return
				}
				handleMessage(ctx, msg, refresher, jobQueue, zapLogger)
			}
		}
	}()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-errChan:
				if !ok {
					return
				}
				zapLogger.Error("queue_error", zap.Error(err))
			}
		}
	}()

	<-sigChan
	zapLogger.Info("shutdown_signal_received")

	cancel()

	zapLogger.Info("worker_stopped")
}

// handleMessage processes one job. Failed jobs are re-enqueued with an
// incremented retry count until the cap, then dead-lettered.
func handleMessage(ctx context.Context, msg *queue.Message, refresher *workers.ProgressRefresher, jobQueue queue.JobQueue, zapLogger *zap.Logger) {
	job := msg.GetJob()

	if err := refresher.ProcessJob(ctx, job); err != nil {
		zapLogger.Error("job_failed",
			zap.Error(err),
			zap.String("job_id", job.ID.String()),
			zap.String("job_type", string(job.Type)),
			zap.Int("retry_count", job.RetryCount),
		)

		job.IncrementRetry()
		if job.CanRetry() {
			if enqErr := jobQueue.Enqueue(ctx, job); enqErr != nil {
				zapLogger.Error("job_requeue_failed", zap.Error(enqErr), zap.String("job_id", job.ID.String()))
				_ = msg.Nack(true)
				return
			}
			_ = msg.Ack()
			return
		}

		// Retries exhausted; dead-letter the message
		_ = msg.Nack(false)
		return
	}

	_ = msg.Ack()
}
