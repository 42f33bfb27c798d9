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

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/selah-im/intake_server/config"
	"github.com/selah-im/intake_server/internal/api"
	"github.com/selah-im/intake_server/internal/api/handler"
	"github.com/selah-im/intake_server/internal/database"
	"github.com/selah-im/intake_server/internal/pkg/cron"
	"github.com/selah-im/intake_server/internal/pkg/logger"
	"github.com/selah-im/intake_server/internal/pkg/pubsub"
	"github.com/selah-im/intake_server/internal/pkg/queue"
	"github.com/selah-im/intake_server/internal/pkg/ws"
	"github.com/selah-im/intake_server/internal/repository"
	"github.com/selah-im/intake_server/internal/service"
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
	if err := database.Migrate(db); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}
	log.Info("database connected", zap.String("driver", cfg.Database.Driver))

	// Redis is required for queue mode and optional inline, where it only
	// carries progress events
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		if !cfg.Queue.Inline {
			log.Fatal("failed to connect redis", zap.Error(err))
		}
		log.Warn("redis unavailable, live progress disabled", zap.Error(err))
		rdb = nil
	} else {
		log.Info("redis connected")
	}

	appRepo := repository.NewApplicationRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var dispatcher service.Dispatcher
	var inline *worker.InlineDispatcher
	if cfg.Queue.Inline {
		var publisher worker.ProgressPublisher
		if rdb != nil {
			publisher = pubsub.NewPublisher(rdb)
		}
		processor, err := worker.NewProcessorFromConfig(ctx, cfg, appRepo, publisher, log)
		if err != nil {
			log.Fatal("failed to build processor", zap.Error(err))
		}
		inline = worker.NewInlineDispatcher(processor, log)
		dispatcher = inline
		log.Info("async phase runs in-process")
	} else {
		dispatcher = queue.NewQueue(rdb, cfg.Queue.IntakeQueue)
		log.Info("async phase dispatched to queue", zap.String("queue", cfg.Queue.IntakeQueue))
	}

	wsHub := ws.NewHub(log.Named("ws"))
	if rdb != nil {
		go relayProgress(ctx, rdb, wsHub, log)
	}

	intakeService := service.NewIntakeService(appRepo, analyticsRepo, dispatcher, cfg.Email.SourceTag, log.Named("intake"))
	adminService := service.NewAdminService(appRepo, &cfg.Admin, log.Named("admin"))
	if cfg.Admin.PasswordHash == "" || cfg.Admin.JWTSecret == "" {
		log.Warn("admin login disabled, set admin.password_hash and admin.jwt_secret")
	}

	router := api.NewRouter(
		handler.NewIntakeHandler(intakeService),
		handler.NewAdminHandler(adminService),
		handler.NewWebSocketHandler(wsHub, cfg.Admin.JWTSecret, cfg.CORS.AllowedOrigins, log.Named("ws")),
		cfg,
		log.Named("http"),
	)

	sweeper := cron.NewService(
		appRepo,
		time.Duration(cfg.Sweep.IntervalMinutes)*time.Minute,
		time.Duration(cfg.Sweep.StalledAfterHours)*time.Hour,
		log.Named("sweep"),
	)
	sweeper.Start()
	defer sweeper.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Info("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}

	cancel()
	if inline != nil {
		log.Info("waiting for in-flight applications")
		inline.Wait()
	}
	log.Info("server stopped")
}

// relayProgress forwards pipeline progress from Redis to every admin socket.
func relayProgress(ctx context.Context, rdb *redis.Client, hub *ws.Hub, log *zap.Logger) {
	subscriber := pubsub.NewSubscriber(rdb)
	err := subscriber.Subscribe(ctx, func(msg *pubsub.ProgressMessage) {
		if err := hub.Broadcast(&ws.Message{Type: msg.Type, Data: msg}); err != nil {
			log.Warn("broadcast progress failed", zap.Error(err))
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("progress subscription ended", zap.Error(err))
	}
}
