package domain

import "time"

type AttachmentEventType string

const (
	AttachmentUploaded   AttachmentEventType = "attachment.uploaded"
	AttachmentRegistered AttachmentEventType = "attachment.registered"
	AttachmentDiscarded  AttachmentEventType = "attachment.discarded"
)

// AttachmentEvent публикуется в Kafka для подписчиков (превью, модерация и т.д.).
type AttachmentEvent struct {
	EventID    string              `json:"event_id"`
	Type       AttachmentEventType `json:"event_type"`
	OccurredAt time.Time           `json:"occurred_at"`
	IncidentID string              `json:"incident_id"`
	OwnerID    string              `json:"owner_id"`
	Attachment AttachmentMetadata  `json:"attachment"`
}

func NewAttachmentEvent(id string, t AttachmentEventType, incidentID, ownerID string, meta AttachmentMetadata) *AttachmentEvent {
	return &AttachmentEvent{
		EventID:    id,
		Type:       t,
		OccurredAt: time.Now().UTC(),
		IncidentID: incidentID,
		OwnerID:    ownerID,
		Attachment: meta,
	}
}
