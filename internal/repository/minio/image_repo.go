package minio

import (
	"bytes"
	"context"
	"net/url"
	"time"

	"github.com/DRSN-tech/respondr-media/internal/domain"
	"github.com/DRSN-tech/respondr-media/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/minio/minio-go/v7"
)

// ImageRepo хранит вложения инцидентов в MinIO.
type ImageRepo struct {
	mc     *minio.Client
	bucket string
}

func NewImageRepo(mc *minio.Client, bucket string) *ImageRepo {
	return &ImageRepo{
		mc:     mc,
		bucket: bucket,
	}
}

// Upload записывает объект одним PutObject с заданным Content-Type и возвращает его ключ.
func (i *ImageRepo) Upload(ctx context.Context, image *domain.Image) (string, error) {
	bucket := image.Bucket
	if bucket == "" {
		bucket = i.bucket
	}

	info, err := i.mc.PutObject(ctx, bucket, image.ObjectKey, bytes.NewReader(image.Bytes), image.Size, minio.PutObjectOptions{
		ContentType: image.ContentType,
	})
	if err != nil {
		return "", e.Wrap(whereami.WhereAmI(), err)
	}

	return info.Key, nil
}

// Delete удаляет объект по ключу.
func (i *ImageRepo) Delete(ctx context.Context, key string) error {
	if err := i.mc.RemoveObject(ctx, i.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// PresignedURL выдаёт временную ссылку на скачивание объекта.
func (i *ImageRepo) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := i.mc.PresignedGetObject(ctx, i.bucket, key, expiry, url.Values{})
	if err != nil {
		return "", e.Wrap(whereami.WhereAmI(), err)
	}

	return u.String(), nil
}
