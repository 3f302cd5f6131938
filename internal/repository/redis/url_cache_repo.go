package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/DRSN-tech/respondr-media/internal/repository/redis/converter"
	"github.com/DRSN-tech/respondr-media/pkg/clients"
	"github.com/DRSN-tech/respondr-media/pkg/e"
	"github.com/DRSN-tech/respondr-media/pkg/logger"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

const urlKeyPrefix = "attachment_url:"

// URLCacheRepo кэширует подписанные ссылки на вложения.
type URLCacheRepo struct {
	client *clients.RedisClient
	logger logger.Logger
}

func NewURLCacheRepo(client *clients.RedisClient, logger logger.Logger) *URLCacheRepo {
	return &URLCacheRepo{
		client: client,
		logger: logger,
	}
}

// Get возвращает ссылку из кэша или пустую строку при промахе.
func (u *URLCacheRepo) Get(ctx context.Context, storagePath string) (string, error) {
	key := urlKey(storagePath)

	data, err := u.client.Client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, r.Nil) {
			return "", nil // cache miss
		}
		return "", e.Wrap(whereami.WhereAmI(), err)
	}

	model, err := unmarshalURL(data)
	if err != nil {
		u.logger.Warnf("Redis unmarshal failed: %v", e.Wrap(whereami.WhereAmI(), err))
		return "", nil
	}

	if model.StoragePath != storagePath {
		u.logger.Warnf("Cache path mismatch: key_path: %s, model_path: %s", storagePath, model.StoragePath)
		if err := u.client.Client.Del(ctx, key).Err(); err != nil {
			u.logger.Warnf("Redis del failed: %v", e.Wrap(whereami.WhereAmI(), err))
		}
		return "", nil // cache miss
	}

	return model.URL, nil
}

// Set кэширует ссылку на ttl.
func (u *URLCacheRepo) Set(ctx context.Context, storagePath, url string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(converter.NewDownloadURLRedisModel(storagePath, url, time.Now().UTC()))
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := u.client.Client.Set(ctx, urlKey(storagePath), data, ttl).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func unmarshalURL(data []byte) (*converter.DownloadURLRedisModel, error) {
	var model converter.DownloadURLRedisModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, err
	}

	return &model, nil
}

// urlKey возвращает Redis-ключ для ссылки на объект
func urlKey(storagePath string) string {
	return urlKeyPrefix + storagePath
}
