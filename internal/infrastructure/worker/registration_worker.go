package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/DRSN-tech/respondr-media/internal/usecase"
	"github.com/DRSN-tech/respondr-media/pkg/e"
	"github.com/DRSN-tech/respondr-media/pkg/jitter"
	"github.com/DRSN-tech/respondr-media/pkg/logger"
)

const maxErrorBackoffFactor = 10

// RegistrationWorker периодически дорегистрирует вложения, которые загружены, но не приняты API инцидентов.
type RegistrationWorker struct {
	processor usecase.PendingProcessor
	logger    logger.Logger
	batchSize int
	interval  time.Duration
	stop      chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

func NewRegistrationWorker(
	processor usecase.PendingProcessor,
	logger logger.Logger,
	batchSize int,
	interval time.Duration,
) *RegistrationWorker {
	return &RegistrationWorker{
		processor: processor,
		logger:    logger,
		batchSize: batchSize,
		interval:  interval,
		stop:      make(chan struct{}),
	}
}

func (w *RegistrationWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()
}

// Stop останавливает воркер и дожидается завершения текущей пачки.
func (w *RegistrationWorker) Stop(_ context.Context) error {
	w.stopOnce.Do(func() { close(w.stop) })
	w.wg.Wait()
	return nil
}

func (w *RegistrationWorker) run(ctx context.Context) {
	w.logger.Infof("Draining pending attachments on startup...")

	failures := 0
	for {
		err := w.drain(ctx)
		switch {
		case errors.Is(err, e.ErrRegistrationDisabled):
			w.logger.Warnf("registration worker disabled: %v", err)
			return
		case err != nil:
			failures++
			w.logger.Warnf("pending batch failed (%d in a row): %v", failures, err)
		default:
			failures = 0
		}

		select {
		case <-ctx.Done():
			w.logger.Infof("Registration worker stopped by context cancellation")
			return
		case <-w.stop:
			w.logger.Infof("Registration worker stopped")
			return
		case <-time.After(w.nextDelay(failures)):
		}
	}
}

// drain обрабатывает пачки, пока очередь отдаёт полные пачки.
func (w *RegistrationWorker) drain(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.stop:
			return nil
		default:
		}

		n, err := w.processor.ProcessPendingBatch(ctx, w.batchSize)
		if err != nil {
			return err
		}

		if n > 0 {
			w.logger.Debugf("processed %d pending attachment(s)", n)
		}

		if n < w.batchSize {
			return nil
		}
	}
}

// nextDelay — интервал опроса, растущий экспоненциально при подряд идущих ошибках.
func (w *RegistrationWorker) nextDelay(failures int) time.Duration {
	if failures == 0 {
		return jitter.Duration(w.interval, jitter.DefaultJitter)
	}

	return jitter.ExponentialBackoff(w.interval, maxErrorBackoffFactor*w.interval, failures, jitter.DefaultJitter)
}
