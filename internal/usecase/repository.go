package usecase

import (
	"context"
	"time"

	"github.com/DRSN-tech/respondr-media/internal/domain"
)

type ImageRepository interface {
	Upload(ctx context.Context, image *domain.Image) (string, error)
	Delete(ctx context.Context, key string) error
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

type PendingAttachmentRepository interface {
	Create(ctx context.Context, pending *domain.PendingAttachment) (*domain.PendingAttachment, error)
	// ClaimByID переводит запись владельца в processing; e.ErrPendingNotFound, если захватывать нечего.
	ClaimByID(ctx context.Context, id, ownerID string) (*domain.PendingAttachment, error)
	// GetAndMarkAsProcessing захватывает созревшие записи и зависшие дольше staleAfter.
	GetAndMarkAsProcessing(ctx context.Context, limit int, staleAfter time.Duration) ([]*domain.PendingAttachment, error)
	MarkAsRegistered(ctx context.Context, id string) error
	MarkAsFailed(ctx context.Context, req *FailedAttemptReq) error
	Delete(ctx context.Context, id, ownerID string) (*domain.PendingAttachment, error)
}

type URLCacheRepository interface {
	// Get возвращает пустую строку при промахе.
	Get(ctx context.Context, storagePath string) (string, error)
	Set(ctx context.Context, storagePath, url string, ttl time.Duration) error
}
