package cron

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/selah-im/intake_server/internal/model"
	"github.com/selah-im/intake_server/internal/pkg/metrics"
)

const sweepLimit = 500

// StalledFinder lists records whose async phase never finished.
type StalledFinder interface {
	FindStalled(ctx context.Context, before time.Time, limit int) ([]*model.Application, error)
}

// Service periodically reports applications left without analysis so an
// admin can follow up by hand. It never retries them.
type Service struct {
	finder       StalledFinder
	interval     time.Duration
	stalledAfter time.Duration
	log          *zap.Logger
	stopChan     chan struct{}
	stopOnce     sync.Once
}

func NewService(finder StalledFinder, interval, stalledAfter time.Duration, log *zap.Logger) *Service {
	if interval <= 0 {
		interval = time.Hour
	}
	if stalledAfter <= 0 {
		stalledAfter = 24 * time.Hour
	}
	return &Service{
		finder:       finder,
		interval:     interval,
		stalledAfter: stalledAfter,
		log:          log,
		stopChan:     make(chan struct{}),
	}
}

func (s *Service) Start() {
	go s.runSweep()
	s.log.Info("stalled application sweep started",
		zap.Duration("interval", s.interval),
		zap.Duration("stalled_after", s.stalledAfter))
}

func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		s.log.Info("stalled application sweep stopped")
	})
}

func (s *Service) runSweep() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			if _, err := s.SweepNow(context.Background()); err != nil {
				s.log.Error("stalled application sweep failed", zap.Error(err))
			}
		}
	}
}

// SweepNow runs one sweep and returns how many stalled records it found.
func (s *Service) SweepNow(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.stalledAfter)

	apps, err := s.finder.FindStalled(ctx, cutoff, sweepLimit)
	if err != nil {
		return 0, err
	}

	metrics.StalledApplications.Set(float64(len(apps)))

	for _, app := range apps {
		s.log.Warn("application stalled, manual follow-up needed",
			zap.String("application_id", app.ID),
			zap.String("beta_status", app.BetaStatus),
			zap.Time("created_at", app.CreatedAt))
	}
	if len(apps) > 0 {
		s.log.Info("stalled application sweep summary", zap.Int("stalled", len(apps)))
	}
	return len(apps), nil
}
