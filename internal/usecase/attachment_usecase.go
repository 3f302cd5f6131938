package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/DRSN-tech/respondr-media/internal/domain"
	"github.com/DRSN-tech/respondr-media/pkg/e"
	"github.com/DRSN-tech/respondr-media/pkg/jitter"
	"github.com/DRSN-tech/respondr-media/pkg/logger"
	"github.com/google/uuid"
)

const (
	OutcomeRegistered = "registered"
	OutcomePending    = "pending"
	OutcomeFailed     = "failed"
	OutcomeDiscarded  = "discarded"
)

// AttachmentOptions — параметры сценариев работы с вложениями.
type AttachmentOptions struct {
	PresignExpiry time.Duration
	ServiceToken  string // токен фоновых повторов; если пуст, фоновые повторы отключены
	StaleAfter    time.Duration
	RetryBase     time.Duration
	RetryMax      time.Duration
	// BookkeepingTimeout ограничивает запись состояния ожидающего вложения после отмены запроса.
	BookkeepingTimeout time.Duration
}

// AttachmentUseCase связывает конвейер загрузки с регистрацией вложения во внешнем API.
// Неудачная регистрация не откатывает загрузку.
type AttachmentUseCase struct {
	imagesInfra ImagesInfra
	incidentAPI IncidentAPI
	pendingRepo PendingAttachmentRepository
	imageRepo   ImageRepository
	urlCache    URLCacheRepository
	producer    MessageProducer
	observer    RegistrationObserver
	logger      logger.Logger
	opts        AttachmentOptions
	now         func() time.Time
}

func NewAttachmentUC(
	imagesInfra ImagesInfra,
	incidentAPI IncidentAPI,
	pendingRepo PendingAttachmentRepository,
	imageRepo ImageRepository,
	urlCache URLCacheRepository,
	producer MessageProducer,
	observer RegistrationObserver,
	logger logger.Logger,
	opts AttachmentOptions,
) *AttachmentUseCase {
	return &AttachmentUseCase{
		imagesInfra: imagesInfra,
		incidentAPI: incidentAPI,
		pendingRepo: pendingRepo,
		imageRepo:   imageRepo,
		urlCache:    urlCache,
		producer:    producer,
		observer:    observer,
		logger:      logger,
		opts:        opts,
		now:         time.Now,
	}
}

// UploadAndRegister загружает изображение и, если требуется, регистрирует его в API инцидентов.
// При неудачной регистрации метаданные сохраняются как ожидающие, а вызывающий получает их вместе с PendingID.
func (a *AttachmentUseCase) UploadAndRegister(ctx context.Context, req *UploadAndRegisterReq) (*UploadAndRegisterRes, error) {
	const op = "AttachmentUseCase.UploadAndRegister"

	meta, err := a.imagesInfra.UploadIncidentImage(ctx, &req.Upload)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	a.publish(ctx, domain.AttachmentUploaded, req.Upload.IncidentID, req.Upload.OwnerID, *meta)

	if !req.Register {
		return NewUploadAndRegisterRes(meta, false, ""), nil
	}

	err = a.incidentAPI.RegisterAttachment(ctx, NewRegisterAttachmentReq(req.Upload.IncidentID, req.Token, *meta))
	if err == nil {
		a.record(OutcomeRegistered)
		a.publish(ctx, domain.AttachmentRegistered, req.Upload.IncidentID, req.Upload.OwnerID, *meta)
		return NewUploadAndRegisterRes(meta, true, ""), nil
	}

	a.logger.Warnf("%s: registration failed, keeping %s as pending: %v", op, meta.StoragePath, err)
	a.record(OutcomePending)

	pending := domain.NewPendingAttachment(
		uuid.NewString(),
		req.Upload.IncidentID,
		req.Upload.OwnerID,
		*meta,
		err.Error(),
		a.nextAttemptAt(1),
	)

	res := NewUploadAndRegisterRes(meta, false, "")
	res.RegistrationErr = fmt.Errorf("%w: %w", e.ErrRegistrationPending, err)

	// Метаданные принадлежат вызывающему: даже если запись не сохранилась, он может зарегистрировать их сам.
	saveCtx, cancel := a.bookkeepingCtx(ctx)
	defer cancel()

	saved, saveErr := a.pendingRepo.Create(saveCtx, pending)
	if saveErr != nil {
		a.logger.Errorf(saveErr, "%s: failed to persist pending attachment %s", op, meta.StoragePath)
		return res, nil
	}

	res.PendingID = saved.ID
	return res, nil
}

// RetryPending повторяет регистрацию ожидающего вложения без повторной загрузки.
func (a *AttachmentUseCase) RetryPending(ctx context.Context, req *RetryPendingReq) (*RetryPendingRes, error) {
	const op = "AttachmentUseCase.RetryPending"

	pending, err := a.pendingRepo.ClaimByID(ctx, req.PendingID, req.OwnerID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if err := a.register(ctx, pending, req.Token); err != nil {
		return nil, e.Wrap(op, fmt.Errorf("%w: %w", e.ErrRegistrationFailed, err))
	}

	return NewRetryPendingRes(&pending.Metadata, pending.IncidentID), nil
}

// DiscardPending отказывается от ожидающего вложения: запись удаляется, объект убирается из хранилища в фоне.
func (a *AttachmentUseCase) DiscardPending(ctx context.Context, req *DiscardPendingReq) error {
	const op = "AttachmentUseCase.DiscardPending"

	pending, err := a.pendingRepo.Delete(ctx, req.PendingID, req.OwnerID)
	if err != nil {
		return e.Wrap(op, err)
	}

	a.imagesInfra.CleanupImages([]string{pending.Metadata.StoragePath})
	a.record(OutcomeDiscarded)
	a.publish(ctx, domain.AttachmentDiscarded, pending.IncidentID, pending.OwnerID, pending.Metadata)

	return nil
}

// GetDownloadURL возвращает подписанную ссылку на объект. Ссылки кэшируются немного меньше срока их жизни.
func (a *AttachmentUseCase) GetDownloadURL(ctx context.Context, storagePath string) (*DownloadURLRes, error) {
	const op = "AttachmentUseCase.GetDownloadURL"

	if !domain.IsIncidentStoragePath(storagePath) {
		return nil, e.Wrap(fmt.Sprintf("%s: %q", op, storagePath), e.ErrInvalidStoragePath)
	}

	cached, err := a.urlCache.Get(ctx, storagePath)
	if err != nil {
		a.logger.Warnf("%s: cache lookup failed: %v", op, err)
	}
	if cached != "" {
		return &DownloadURLRes{URL: cached, Cached: true}, nil
	}

	url, err := a.imageRepo.PresignedURL(ctx, storagePath, a.opts.PresignExpiry)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	// Фоновое кэширование ссылки
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()

		if err := a.urlCache.Set(bgCtx, storagePath, url, a.cacheTTL()); err != nil {
			a.logger.Warnf("%s: failed to cache download url: %v", op, err)
		}
	}()

	return &DownloadURLRes{URL: url}, nil
}

// ProcessPendingBatch захватывает пачку созревших ожидающих вложений и регистрирует их служебным токеном.
// Возвращает количество обработанных записей.
func (a *AttachmentUseCase) ProcessPendingBatch(ctx context.Context, limit int) (int, error) {
	const op = "AttachmentUseCase.ProcessPendingBatch"

	if a.opts.ServiceToken == "" {
		return 0, e.Wrap(op, e.ErrRegistrationDisabled)
	}

	batch, err := a.pendingRepo.GetAndMarkAsProcessing(ctx, limit, a.opts.StaleAfter)
	if err != nil {
		return 0, e.Wrap(op, err)
	}

	for _, pending := range batch {
		if err := a.register(ctx, pending, a.opts.ServiceToken); err != nil {
			a.logger.Warnf("%s: pending %s attempt %d failed: %v", op, pending.ID, pending.Attempts+1, err)
		}
	}

	return len(batch), nil
}

// register выполняет одну попытку регистрации захваченной записи и фиксирует её исход.
func (a *AttachmentUseCase) register(ctx context.Context, pending *domain.PendingAttachment, token string) error {
	const op = "AttachmentUseCase.register"

	err := a.incidentAPI.RegisterAttachment(ctx, NewRegisterAttachmentReq(pending.IncidentID, token, pending.Metadata))

	markCtx, cancel := a.bookkeepingCtx(ctx)
	defer cancel()

	if err != nil {
		a.record(OutcomeFailed)
		failed := NewFailedAttemptReq(pending.ID, err.Error(), a.nextAttemptAt(pending.Attempts+1))
		if markErr := a.pendingRepo.MarkAsFailed(markCtx, failed); markErr != nil {
			a.logger.Errorf(markErr, "%s: failed to release pending %s", op, pending.ID)
		}
		return err
	}

	a.record(OutcomeRegistered)
	if err := a.pendingRepo.MarkAsRegistered(markCtx, pending.ID); err != nil {
		a.logger.Errorf(err, "%s: pending %s registered but not marked", op, pending.ID)
	}
	a.publish(ctx, domain.AttachmentRegistered, pending.IncidentID, pending.OwnerID, pending.Metadata)

	return nil
}

// bookkeepingCtx отвязывает запись состояния ожидающего вложения от отмены запроса:
// объект уже лежит в хранилище, и потерять запись о нём нельзя.
func (a *AttachmentUseCase) bookkeepingCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), a.bookkeepingTimeout())
}

func (a *AttachmentUseCase) bookkeepingTimeout() time.Duration {
	const defaultBookkeepingTimeout = 5 * time.Second

	if a.opts.BookkeepingTimeout > 0 {
		return a.opts.BookkeepingTimeout
	}

	return defaultBookkeepingTimeout
}

// nextAttemptAt — момент следующей фоновой попытки после attempts неудачных.
func (a *AttachmentUseCase) nextAttemptAt(attempts int) time.Time {
	delay := jitter.ExponentialBackoff(a.opts.RetryBase, a.opts.RetryMax, attempts-1, jitter.DefaultJitter)
	return a.now().Add(delay)
}

func (a *AttachmentUseCase) cacheTTL() time.Duration {
	const margin = 30 * time.Second

	if a.opts.PresignExpiry > 2*margin {
		return a.opts.PresignExpiry - margin
	}

	return a.opts.PresignExpiry / 2
}

func (a *AttachmentUseCase) publish(ctx context.Context, t domain.AttachmentEventType, incidentID, ownerID string, meta domain.AttachmentMetadata) {
	event := domain.NewAttachmentEvent(uuid.NewString(), t, incidentID, ownerID, meta)
	if err := a.producer.PublishAttachmentEvent(ctx, event); err != nil {
		a.logger.Warnf("failed to publish %s for %s: %v", t, meta.StoragePath, err)
	}
}

func (a *AttachmentUseCase) record(outcome string) {
	if a.observer != nil {
		a.observer.RecordRegistration(outcome)
	}
}
