package converter

import (
	"time"

	"github.com/google/uuid"
)

// PendingAttachmentModel представляет запись таблицы pending_attachments в PostgreSQL.
type PendingAttachmentModel struct {
	ID                  uuid.UUID  `db:"id"`
	IncidentID          string     `db:"incident_id"`
	OwnerID             string     `db:"owner_id"`
	StoragePath         string     `db:"storage_path"`
	FileName            string     `db:"file_name"`
	MimeType            string     `db:"mime_type"`
	SizeBytes           int64      `db:"size_bytes"`
	Width               int        `db:"width"`
	Height              int        `db:"height"`
	Status              string     `db:"status"`
	Attempts            int        `db:"attempts"`
	LastError           *string    `db:"last_error"`
	NextAttemptAt       time.Time  `db:"next_attempt_at"`
	ProcessingStartedAt *time.Time `db:"processing_started_at"`
	CreatedAt           time.Time  `db:"created_at"`
	UpdatedAt           *time.Time `db:"updated_at"`
	RegisteredAt        *time.Time `db:"registered_at"`
}
