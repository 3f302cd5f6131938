package usecase

import (
	"context"

	"github.com/DRSN-tech/respondr-media/internal/domain"
)

type ImagesInfra interface {
	UploadIncidentImage(ctx context.Context, req *UploadImageReq) (*domain.AttachmentMetadata, error)
	CleanupImages(keys []string)
}

type IncidentAPI interface {
	RegisterAttachment(ctx context.Context, req *RegisterAttachmentReq) error
}

type MessageProducer interface {
	PublishAttachmentEvent(ctx context.Context, event *domain.AttachmentEvent) error
}

// RegistrationObserver считает исходы регистрации вложений.
type RegistrationObserver interface {
	RecordRegistration(outcome string)
}
