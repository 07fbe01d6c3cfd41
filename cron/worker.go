package cron

import (
	"context"
	"fmt"
	"time"

	"meridian/config"
	"meridian/services/notification"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypePackageExpire = "package:expire"

// Expirer sweeps packages whose validity window has passed.
type Expirer interface {
	ExpireOverdue(ctx context.Context) (int64, error)
}

// RedisOpt is the asynq connection shared by the API (enqueue) and the worker.
func RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

type Worker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	cronSpec  string
	logger    *zap.Logger
}

func NewWorker(redisOpt asynq.RedisClientOpt, dispatcher *notification.Dispatcher, expirer Expirer, logger *zap.Logger) *Worker {
	concurrency := config.AppConfig.WorkerConcurrency
	if concurrency <= 0 {
		concurrency = 10
	}
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			"default": 1,
		},
		Logger: logger.Sugar(),
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(notification.TypeBookingNotification, dispatcher.HandleTask)
	mux.HandleFunc(TypePackageExpire, HandlePackageExpire(expirer, logger))

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Location: time.UTC,
		Logger:   logger.Sugar(),
	})

	return &Worker{
		server:    srv,
		scheduler: scheduler,
		mux:       mux,
		cronSpec:  config.AppConfig.PackageExpiryCron,
		logger:    logger,
	}
}

// Run starts the task server and the expiry schedule, and blocks until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	if w.cronSpec != "" {
		entryID, err := w.scheduler.Register(w.cronSpec, asynq.NewTask(TypePackageExpire, nil), asynq.Unique(time.Hour))
		if err != nil {
			return fmt.Errorf("invalid package expiry schedule %q: %w", w.cronSpec, err)
		}
		if err := w.scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer w.scheduler.Shutdown()
		w.logger.Info("Package expiry scheduled", zap.String("cron", w.cronSpec), zap.String("entryId", entryID))
	}

	const maxAttempts = 5
	for attempt := 1; ; attempt++ {
		err := w.server.Start(w.mux)
		if err == nil {
			break
		}
		w.logger.Error("failed to start worker", zap.Int("attempt", attempt), zap.Error(err))
		if attempt == maxAttempts {
			return fmt.Errorf("worker did not start after %d attempts: %w", maxAttempts, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt*2) * time.Second):
		}
	}
	w.logger.Info("Worker started")

	<-ctx.Done()
	w.logger.Info("Shutting down worker...")
	w.server.Shutdown()
	return nil
}

func HandlePackageExpire(expirer Expirer, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		n, err := expirer.ExpireOverdue(ctx)
		if err != nil {
			logger.Error("package expiry sweep failed", zap.Error(err))
			return err
		}
		logger.Info("package expiry sweep finished", zap.Int64("expired", n))
		return nil
	}
}
