package converter

import (
	"github.com/DRSN-tech/respondr-media/internal/domain"
	"github.com/google/uuid"
)

// PendingAttachmentConverter преобразует PendingAttachment между domain и моделью PostgreSQL.
type PendingAttachmentConverter interface {
	ToModel(entity *domain.PendingAttachment) (*PendingAttachmentModel, error)
	ToEntity(model *PendingAttachmentModel) *domain.PendingAttachment
	ToArrEntity(models []*PendingAttachmentModel) []*domain.PendingAttachment
}

type PendingAttachmentConverterImpl struct{}

func NewPendingAttachmentConverterImpl() *PendingAttachmentConverterImpl {
	return &PendingAttachmentConverterImpl{}
}

func (c *PendingAttachmentConverterImpl) ToModel(entity *domain.PendingAttachment) (*PendingAttachmentModel, error) {
	id, err := uuid.Parse(entity.ID)
	if err != nil {
		return nil, err
	}

	return &PendingAttachmentModel{
		ID:            id,
		IncidentID:    entity.IncidentID,
		OwnerID:       entity.OwnerID,
		StoragePath:   entity.Metadata.StoragePath,
		FileName:      entity.Metadata.FileName,
		MimeType:      entity.Metadata.MimeType,
		SizeBytes:     entity.Metadata.SizeBytes,
		Width:         entity.Metadata.Width,
		Height:        entity.Metadata.Height,
		Status:        string(entity.Status),
		Attempts:      entity.Attempts,
		LastError:     ConvertOptionalString(entity.LastError),
		NextAttemptAt: entity.NextAttemptAt,
		CreatedAt:     entity.CreatedAt,
		UpdatedAt:     entity.UpdatedAt,
		RegisteredAt:  entity.RegisteredAt,
	}, nil
}

func (c *PendingAttachmentConverterImpl) ToEntity(model *PendingAttachmentModel) *domain.PendingAttachment {
	if model == nil {
		return nil
	}

	var lastErr string
	if model.LastError != nil {
		lastErr = *model.LastError
	}

	return &domain.PendingAttachment{
		ID:         model.ID.String(),
		IncidentID: model.IncidentID,
		OwnerID:    model.OwnerID,
		Metadata: domain.AttachmentMetadata{
			StoragePath: model.StoragePath,
			FileName:    model.FileName,
			MimeType:    model.MimeType,
			SizeBytes:   model.SizeBytes,
			Width:       model.Width,
			Height:      model.Height,
		},
		Status:        domain.PendingStatus(model.Status),
		Attempts:      model.Attempts,
		LastError:     lastErr,
		NextAttemptAt: model.NextAttemptAt,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
		RegisteredAt:  model.RegisteredAt,
	}
}

func (c *PendingAttachmentConverterImpl) ToArrEntity(models []*PendingAttachmentModel) []*domain.PendingAttachment {
	entities := make([]*domain.PendingAttachment, 0, len(models))
	for _, m := range models {
		entities = append(entities, c.ToEntity(m))
	}

	return entities
}

// ConvertOptionalString превращает пустую строку в NULL.
func ConvertOptionalString(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}
