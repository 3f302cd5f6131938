package clients

import (
	"context"
	"fmt"
	"time"

	"github.com/DRSN-tech/respondr-media/internal/cfg"
	"github.com/DRSN-tech/respondr-media/pkg/e"
	"github.com/DRSN-tech/respondr-media/pkg/jitter"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

const (
	readyBaseBackoff = 200 * time.Millisecond
	readyMaxBackoff  = 2 * time.Second
)

// RedisClient — подключение к Redis, через которое кэшируются ссылки на скачивание.
type RedisClient struct {
	Client *r.Client
}

func NewRedisClient(cfg *cfg.RedisCfg) *RedisClient {
	return &RedisClient{
		Client: r.NewClient(&r.Options{
			Addr:         cfg.Addr,
			Username:     cfg.User,
			Password:     cfg.Password,
			DB:           cfg.DB,
			MaxRetries:   cfg.MaxRetries,
			DialTimeout:  cfg.DialTimeout,
			ReadTimeout:  cfg.Timeout,
			WriteTimeout: cfg.Timeout,
		}),
	}
}

func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// WaitReady пингует Redis до attempts раз с нарастающей задержкой между попытками.
func (c *RedisClient) WaitReady(ctx context.Context, attempts int) error {
	var err error
	for attempt := range max(attempts, 1) {
		if err = c.Ping(ctx); err == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return e.Wrap(whereami.WhereAmI(), fmt.Errorf("%w (last ping: %w)", ctx.Err(), err))
		case <-time.After(jitter.ExponentialBackoff(readyBaseBackoff, readyMaxBackoff, attempt, jitter.DefaultJitter)):
		}
	}

	return fmt.Errorf("redis is not ready after %d attempts: %w", attempts, err)
}

func (c *RedisClient) Close(_ context.Context) error {
	return c.Client.Close()
}
