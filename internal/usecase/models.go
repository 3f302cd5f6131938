package usecase

import (
	"time"

	"github.com/DRSN-tech/respondr-media/internal/domain"
)

// ATTACHMENT USECASE

// UploadImageReq — запрос на загрузку одного изображения инцидента.
type UploadImageReq struct {
	OwnerID    string
	IncidentID string
	File       *domain.SourceFile
}

// UploadAndRegisterReq — загрузка с последующей регистрацией во внешнем API.
type UploadAndRegisterReq struct {
	Upload   UploadImageReq
	Token    string // bearer-токен пользователя, пробрасывается в API инцидентов
	Register bool
}

// UploadAndRegisterRes — результат двухфазной загрузки.
// Если регистрация не удалась, Registered=false, а PendingID указывает на запись для повтора.
type UploadAndRegisterRes struct {
	Metadata        *domain.AttachmentMetadata
	Registered      bool
	PendingID       string
	RegistrationErr error // e.ErrRegistrationPending вместе с причиной отказа API
}

// RetryPendingReq — ручной повтор регистрации без повторной загрузки бинарника.
type RetryPendingReq struct {
	PendingID string
	OwnerID   string
	Token     string
}

type RetryPendingRes struct {
	Metadata   *domain.AttachmentMetadata
	IncidentID string
}

type DiscardPendingReq struct {
	PendingID string
	OwnerID   string
}

type DownloadURLRes struct {
	URL    string
	Cached bool
}

// INFRASTUCTURE

// RegisterAttachmentReq — тело запроса регистрации вложения в API инцидентов.
type RegisterAttachmentReq struct {
	IncidentID string
	Token      string
	Metadata   domain.AttachmentMetadata
}

// REPOSITORIES

// FailedAttemptReq фиксирует неудачную попытку регистрации и время следующей.
type FailedAttemptReq struct {
	ID            string
	LastError     string
	NextAttemptAt time.Time
}

// MAPPERS

func NewUploadImageReq(ownerID, incidentID string, file *domain.SourceFile) *UploadImageReq {
	return &UploadImageReq{
		OwnerID:    ownerID,
		IncidentID: incidentID,
		File:       file,
	}
}

func NewUploadAndRegisterReq(upload UploadImageReq, token string, register bool) *UploadAndRegisterReq {
	return &UploadAndRegisterReq{
		Upload:   upload,
		Token:    token,
		Register: register,
	}
}

func NewUploadAndRegisterRes(meta *domain.AttachmentMetadata, registered bool, pendingID string) *UploadAndRegisterRes {
	return &UploadAndRegisterRes{
		Metadata:   meta,
		Registered: registered,
		PendingID:  pendingID,
	}
}

func NewRetryPendingReq(pendingID, ownerID, token string) *RetryPendingReq {
	return &RetryPendingReq{
		PendingID: pendingID,
		OwnerID:   ownerID,
		Token:     token,
	}
}

func NewRetryPendingRes(meta *domain.AttachmentMetadata, incidentID string) *RetryPendingRes {
	return &RetryPendingRes{
		Metadata:   meta,
		IncidentID: incidentID,
	}
}

func NewDiscardPendingReq(pendingID, ownerID string) *DiscardPendingReq {
	return &DiscardPendingReq{
		PendingID: pendingID,
		OwnerID:   ownerID,
	}
}

func NewRegisterAttachmentReq(incidentID, token string, meta domain.AttachmentMetadata) *RegisterAttachmentReq {
	return &RegisterAttachmentReq{
		IncidentID: incidentID,
		Token:      token,
		Metadata:   meta,
	}
}

func NewFailedAttemptReq(id, lastErr string, nextAttemptAt time.Time) *FailedAttemptReq {
	return &FailedAttemptReq{
		ID:            id,
		LastError:     lastErr,
		NextAttemptAt: nextAttemptAt,
	}
}
