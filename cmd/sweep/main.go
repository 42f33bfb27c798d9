package main

import (
	"context"
	"flag"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/selah-im/intake_server/config"
	"github.com/selah-im/intake_server/internal/database"
	"github.com/selah-im/intake_server/internal/pkg/cron"
	"github.com/selah-im/intake_server/internal/pkg/logger"
	"github.com/selah-im/intake_server/internal/repository"
)

var (
	stalledAfter  = flag.Int("stalled-after", 0, "Hours without analysis before a record counts as stalled (0 uses sweep.stalled_after_hours)")
	failOnStalled = flag.Bool("fail-on-stalled", false, "Exit with status 2 when stalled records exist")
)

// One-shot stalled-application report, for cron jobs outside the server.
func main() {
	flag.Parse()

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

	hours := cfg.Sweep.StalledAfterHours
	if *stalledAfter > 0 {
		hours = *stalledAfter
	}

	sweeper := cron.NewService(repository.NewApplicationRepository(db), 0, time.Duration(hours)*time.Hour, log)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := sweeper.SweepNow(ctx)
	if err != nil {
		log.Fatal("sweep failed", zap.Error(err))
	}
	log.Info("sweep finished", zap.Int("stalled", n), zap.Int("stalled_after_hours", hours))

	if *failOnStalled && n > 0 {
		log.Sync()
		os.Exit(2)
	}
}
