package domain

import (
	"path"
	"strings"
	"time"
)

const (
	// StorageKeyPrefix — корень пространства ключей вложений инцидентов.
	StorageKeyPrefix          = "incidents"
	defaultAttachmentFileName = "incident-image.webp"
)

// IsIncidentStoragePath сообщает, что путь лежит внутри пространства вложений инцидентов.
func IsIncidentStoragePath(p string) bool {
	if !strings.HasPrefix(p, StorageKeyPrefix+"/") || strings.Contains(p, "..") {
		return false
	}

	return path.Base(p) != StorageKeyPrefix
}

// AttachmentMetadata — описание загруженного вложения, которое вызывающая сторона
// регистрирует во внешнем API инцидентов.
type AttachmentMetadata struct {
	StoragePath string `json:"storage_path"`
	FileName    string `json:"file_name"`
	MimeType    string `json:"mime_type"`
	SizeBytes   int64  `json:"size_bytes"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

// NewAttachmentMetadata собирает метаданные. Если у исходного файла нет имени,
// используется последний сегмент ключа хранения.
func NewAttachmentMetadata(storagePath string, originalName string, img *CompressedImage) *AttachmentMetadata {
	fileName := originalName
	if fileName == "" {
		fileName = path.Base(storagePath)
	}
	if fileName == "" || fileName == "." || fileName == "/" {
		fileName = defaultAttachmentFileName
	}

	return &AttachmentMetadata{
		StoragePath: storagePath,
		FileName:    fileName,
		MimeType:    img.MimeType,
		SizeBytes:   img.Size,
		Width:       img.Width,
		Height:      img.Height,
	}
}

type PendingStatus string

const (
	PendingStatusPending    PendingStatus = "pending"
	PendingStatusProcessing PendingStatus = "processing"
	PendingStatusRegistered PendingStatus = "registered"
)

// PendingAttachment — вложение, которое уже лежит в хранилище, но ещё не принято API инцидентов.
type PendingAttachment struct {
	ID            string
	IncidentID    string
	OwnerID       string
	Metadata      AttachmentMetadata
	Status        PendingStatus
	Attempts      int
	LastError     string
	NextAttemptAt time.Time
	CreatedAt     time.Time
	UpdatedAt     *time.Time
	RegisteredAt  *time.Time
}

func NewPendingAttachment(id, incidentID, ownerID string, metadata AttachmentMetadata, lastErr string, nextAttemptAt time.Time) *PendingAttachment {
	return &PendingAttachment{
		ID:            id,
		IncidentID:    incidentID,
		OwnerID:       ownerID,
		Metadata:      metadata,
		Status:        PendingStatusPending,
		Attempts:      1,
		LastError:     lastErr,
		NextAttemptAt: nextAttemptAt,
		CreatedAt:     time.Now().UTC(),
	}
}
