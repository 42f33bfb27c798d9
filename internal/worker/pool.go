package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/selah-im/intake_server/internal/pkg/queue"
)

const (
	popTimeout   = 5 * time.Second
	errorBackoff = time.Second
)

type JobSource interface {
	Pop(ctx context.Context, timeout time.Duration) (*queue.IntakeMessage, error)
}

type JobProcessor interface {
	Process(ctx context.Context, msg *queue.IntakeMessage) error
}

// Pool runs a fixed number of workers popping intake jobs from the queue.
type Pool struct {
	source     JobSource
	processor  JobProcessor
	size       int
	popTimeout time.Duration
	backoff    time.Duration
	log        *zap.Logger
	wg         sync.WaitGroup
}

func NewPool(source JobSource, processor JobProcessor, size int, log *zap.Logger) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{
		source:     source,
		processor:  processor,
		size:       size,
		popTimeout: popTimeout,
		backoff:    errorBackoff,
		log:        log,
	}
}

// Start launches the workers. They exit once ctx is cancelled and their
// current job returns.
func (p *Pool) Start(ctx context.Context) {
	p.log.Info("worker pool started", zap.Int("workers", p.size))
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
}

// Wait blocks until every worker has exited.
func (p *Pool) Wait() {
	p.wg.Wait()
	p.log.Info("worker pool stopped")
}

func (p *Pool) run(ctx context.Context, workerID int) {
	defer p.wg.Done()
	log := p.log.With(zap.Int("worker", workerID))

	for {
		select {
		case <-ctx.Done():
			log.Debug("worker shutting down")
			return
		default:
		}

		msg, err := p.source.Pop(ctx, p.popTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn("failed to pop job", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.backoff):
			}
			continue
		}
		if msg == nil {
			continue // timeout
		}

		log.Info("processing application", zap.String("application_id", msg.ApplicationID))
		// jobs run to completion once popped
		if err := p.processor.Process(context.Background(), msg); err != nil {
			log.Warn("application processing aborted",
				zap.String("application_id", msg.ApplicationID), zap.Error(err))
		}
	}
}
