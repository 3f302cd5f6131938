package minio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/DRSN-tech/respondr-media/internal/domain"
	"github.com/DRSN-tech/respondr-media/internal/infrastructure"
	"github.com/DRSN-tech/respondr-media/internal/usecase"
	"github.com/DRSN-tech/respondr-media/pkg/e"
	"github.com/DRSN-tech/respondr-media/pkg/jitter"
	"github.com/DRSN-tech/respondr-media/pkg/logger"
)

const (
	cleanupAttempts    = 3
	cleanupBaseBackoff = time.Second
	cleanupMaxBackoff  = 8 * time.Second
	cleanupTimeout     = 30 * time.Second
)

// ImageCompressor приводит исходный файл к бюджету хранения.
type ImageCompressor interface {
	Compress(src *domain.SourceFile) (*domain.CompressedImage, error)
}

// KeyBuilder строит уникальный ключ объекта.
type KeyBuilder interface {
	Build(ownerID, subjectID, mimeType string) (string, error)
}

// UploadObserver собирает телеметрию записи в хранилище.
type UploadObserver interface {
	RecordUpload(duration time.Duration, sizeBytes int64, err error)
}

// UploadPipeline — конвейер загрузки изображения инцидента:
// проверка контекста → сжатие → ключ → одна запись в MinIO → метаданные.
type UploadPipeline struct {
	compressor    ImageCompressor
	keys          KeyBuilder
	repo          usecase.ImageRepository
	bucket        string
	uploadTimeout time.Duration
	observer      UploadObserver
	logger        logger.Logger
	shutdownCtx   context.Context
	wg            sync.WaitGroup
}

func NewUploadPipeline(
	compressor ImageCompressor,
	keys KeyBuilder,
	repo usecase.ImageRepository,
	bucket string,
	uploadTimeout time.Duration,
	observer UploadObserver,
	logger logger.Logger,
	shutdownCtx context.Context,
) *UploadPipeline {
	return &UploadPipeline{
		compressor:    compressor,
		keys:          keys,
		repo:          repo,
		bucket:        bucket,
		uploadTimeout: uploadTimeout,
		observer:      observer,
		logger:        logger,
		shutdownCtx:   shutdownCtx,
	}
}

// UploadIncidentImage сжимает файл и записывает его под новым ключом.
// Пустой владелец или инцидент отклоняются до декодирования и любых сетевых вызовов.
// Ошибка записи возвращается как e.ErrUploadTransport, метаданные при этом не формируются.
func (u *UploadPipeline) UploadIncidentImage(ctx context.Context, req *usecase.UploadImageReq) (*domain.AttachmentMetadata, error) {
	const op = "UploadPipeline.UploadIncidentImage"

	if err := infrastructure.ValidateContext(req.OwnerID, req.IncidentID); err != nil {
		return nil, e.Wrap(op, err)
	}

	if req.File == nil {
		return nil, e.Wrap(op, e.ErrNoImage)
	}

	compressed, err := u.compressor.Compress(req.File)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	key, err := u.keys.Build(req.OwnerID, req.IncidentID, compressed.MimeType)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if err := u.upload(ctx, domain.NewImage(u.bucket, key, compressed.Data, compressed.MimeType)); err != nil {
		return nil, e.Wrap(op, err)
	}

	u.logger.Infof("%s: stored %s (%d bytes, %dx%d, quality %.2f after %d attempts)",
		op, key, compressed.Size, compressed.Width, compressed.Height, compressed.Quality, compressed.Attempts)

	return domain.NewAttachmentMetadata(key, req.File.Name, compressed), nil
}

// upload выполняет единственную запись объекта с установленным Content-Type.
func (u *UploadPipeline) upload(ctx context.Context, img *domain.Image) (err error) {
	start := time.Now()
	defer func() {
		if u.observer != nil {
			u.observer.RecordUpload(time.Since(start), img.Size, err)
		}
	}()

	if u.uploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.uploadTimeout)
		defer cancel()
	}

	if _, err = u.repo.Upload(ctx, img); err != nil {
		return fmt.Errorf("%w: %s: %w", e.ErrUploadTransport, img.ObjectKey, err)
	}

	return nil
}

// CleanupImages запускает фоновое удаление указанных ключей.
func (u *UploadPipeline) CleanupImages(keys []string) {
	if len(keys) == 0 {
		return
	}
	u.wg.Add(1)
	go u.cleanupUploadedKeys(keys)
}

// cleanupUploadedKeys удаляет объекты с экспоненциальной задержкой и jitter.
func (u *UploadPipeline) cleanupUploadedKeys(keys []string) {
	defer u.wg.Done()
	const op = "UploadPipeline.cleanupUploadedKeys"
	u.logger.Infof("%s: cleaning up %d key(s)", op, len(keys))

	ctx, cancel := context.WithTimeout(u.shutdownCtx, cleanupTimeout)
	defer cancel()

	for _, key := range keys {
		for attempt := 0; attempt < cleanupAttempts; attempt++ {
			err := u.repo.Delete(ctx, key)
			if err == nil {
				break
			}

			if ctx.Err() != nil {
				u.logger.Warnf("%s: interrupted by shutdown, key=%s", op, key)
				return
			}

			if attempt == cleanupAttempts-1 {
				u.logger.Errorf(err, "%s: giving up on key=%s", op, key)
				break
			}

			select {
			case <-time.After(jitter.ExponentialBackoff(cleanupBaseBackoff, cleanupMaxBackoff, attempt, jitter.DefaultJitter)):
			case <-ctx.Done():
				u.logger.Warnf("%s: interrupted by shutdown during backoff, key=%s", op, key)
				return
			}
		}
	}
}

// WaitForCleanup ожидает завершения фоновых очисток с учётом таймаута завершения приложения.
func (u *UploadPipeline) WaitForCleanup(shutdownTimeoutCtx context.Context) error {
	done := make(chan struct{})
	go func() {
		u.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-shutdownTimeoutCtx.Done():
		return fmt.Errorf("minio cleanup timeout during shutdown: %w", shutdownTimeoutCtx.Err())
	}
}
