package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/selah-im/intake_server/internal/pkg/queue"
)

// InlineDispatcher runs the async phase in a detached goroutine of the
// calling process. Nothing bounds the number of goroutines in flight.
type InlineDispatcher struct {
	processor JobProcessor
	log       *zap.Logger
	wg        sync.WaitGroup
}

func NewInlineDispatcher(processor JobProcessor, log *zap.Logger) *InlineDispatcher {
	return &InlineDispatcher{processor: processor, log: log}
}

// Dispatch never blocks on the pipeline and does not inherit ctx, so the
// work outlives the request that triggered it.
func (d *InlineDispatcher) Dispatch(_ context.Context, applicationID string) error {
	msg := &queue.IntakeMessage{
		ApplicationID: applicationID,
		SubmittedAt:   time.Now().UTC(),
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.processor.Process(context.Background(), msg); err != nil {
			d.log.Warn("application processing aborted",
				zap.String("application_id", applicationID), zap.Error(err))
		}
	}()
	return nil
}

// Wait blocks until every dispatched run has returned.
func (d *InlineDispatcher) Wait() {
	d.wg.Wait()
}
