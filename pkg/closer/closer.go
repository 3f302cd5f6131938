package closer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/DRSN-tech/respondr-media/pkg/logger"
)

// allClosed возвращается gracefulClose, когда все ресурсы отработали.
const allClosed = -1

// Func — функция освобождения ресурса.
type Func func(ctx context.Context) error

type resource struct {
	name  string
	close Func
}

// Closer освобождает зарегистрированные ресурсы в обратном порядке (LIFO).
// Ресурс, добавленный последним (например, HTTP-сервер), останавливается первым.
type Closer struct {
	mu            sync.Mutex
	once          sync.Once
	resources     []resource
	forcedTimeout time.Duration
	logger        logger.Logger
}

// NewCloser создаёт Closer. forcedTimeout — время на принудительное закрытие оставшихся
// ресурсов, если контекст Close истёк раньше.
func NewCloser(forcedTimeout time.Duration, logger logger.Logger) *Closer {
	const defaultForcedTimeout = 2 * time.Second

	if forcedTimeout <= 0 {
		forcedTimeout = defaultForcedTimeout
	}

	return &Closer{
		forcedTimeout: forcedTimeout,
		logger:        logger,
	}
}

// Add регистрирует ресурс под именем, которое попадёт в логи и ошибки.
func (c *Closer) Add(name string, f Func) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resources = append(c.resources, resource{name: name, close: f})
}

// Close запускается один раз. Повторные вызовы ничего не делают и возвращают nil.
func (c *Closer) Close(ctx context.Context) error {
	var err error

	c.once.Do(func() {
		c.mu.Lock()
		resources := c.resources
		c.mu.Unlock()

		stopIdx, errs := c.gracefulClose(ctx, resources)
		if stopIdx == allClosed {
			err = errors.Join(errs...)
			return
		}

		// Ресурс stopIdx уже закрывается в своей горутине, повторно его не трогаем.
		stuck := resources[stopIdx]
		c.logger.Warnf("shutdown deadline reached while closing %s, forcing %d remaining resource(s)", stuck.name, stopIdx)
		errs = append(errs, fmt.Errorf("%s: %w", stuck.name, ctx.Err()))
		errs = append(errs, c.forcedClose(resources[:stopIdx])...)

		err = fmt.Errorf("shutdown interrupted after %d/%d resources: %w",
			len(resources)-1-stopIdx, len(resources), errors.Join(errs...))
	})

	return err
}

// gracefulClose закрывает ресурсы по одному от последнего к первому.
// При отмене ctx возвращает индекс ресурса, который так и не завершился.
func (c *Closer) gracefulClose(ctx context.Context, resources []resource) (int, []error) {
	var errs []error

	for i := len(resources) - 1; i >= 0; i-- {
		res := resources[i]
		done := make(chan error, 1)

		go func() {
			done <- res.close(ctx)
		}()

		select {
		case err := <-done:
			if err != nil {
				c.logger.Errorf(err, "failed to close %s", res.name)
				errs = append(errs, fmt.Errorf("%s: %w", res.name, err))
				continue
			}
			c.logger.Infof("%s closed", res.name)
		case <-ctx.Done():
			return i, errs
		}
	}

	return allClosed, errs
}

// forcedClose параллельно закрывает оставшиеся ресурсы с собственным таймаутом.
func (c *Closer) forcedClose(resources []resource) []error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	ctx, cancel := context.WithTimeout(context.Background(), c.forcedTimeout)
	defer cancel()

	for _, res := range resources {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := res.close(ctx); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s (forced): %w", res.name, err))
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	return errs
}
