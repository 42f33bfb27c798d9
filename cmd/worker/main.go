package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/selah-im/intake_server/config"
	"github.com/selah-im/intake_server/internal/database"
	"github.com/selah-im/intake_server/internal/pkg/logger"
	"github.com/selah-im/intake_server/internal/pkg/pubsub"
	"github.com/selah-im/intake_server/internal/pkg/queue"
	"github.com/selah-im/intake_server/internal/repository"
	"github.com/selah-im/intake_server/internal/worker"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.New("info", "json").Fatal("failed to load config", zap.Error(err))
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	defer log.Sync()

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatal("failed to connect database", zap.Error(err))
	}
	log.Info("database connected", zap.String("driver", cfg.Database.Driver))

	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatal("failed to connect redis", zap.Error(err))
	}
	log.Info("redis connected")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jobQueue := queue.NewQueue(rdb, cfg.Queue.IntakeQueue)
	publisher := pubsub.NewPublisher(rdb)
	appRepo := repository.NewApplicationRepository(db)

	processor, err := worker.NewProcessorFromConfig(ctx, cfg, appRepo, publisher, log)
	if err != nil {
		log.Fatal("failed to build processor", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("received shutdown signal")
		cancel()
	}()

	pool := worker.NewPool(jobQueue, processor, cfg.Queue.MaxWorkers, log.Named("pool"))
	pool.Start(ctx)
	pool.Wait()

	log.Info("worker shutdown complete")
}
