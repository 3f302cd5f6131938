package usecase

import "context"

type AttachmentUC interface {
	UploadAndRegister(ctx context.Context, req *UploadAndRegisterReq) (*UploadAndRegisterRes, error)
	RetryPending(ctx context.Context, req *RetryPendingReq) (*RetryPendingRes, error)
	DiscardPending(ctx context.Context, req *DiscardPendingReq) error
	GetDownloadURL(ctx context.Context, storagePath string) (*DownloadURLRes, error)
}

// PendingProcessor обрабатывает очередь вложений, ожидающих регистрации.
type PendingProcessor interface {
	ProcessPendingBatch(ctx context.Context, limit int) (int, error)
}
