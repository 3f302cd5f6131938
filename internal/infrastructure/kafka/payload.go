package kafka

import (
	"github.com/DRSN-tech/respondr-media/internal/domain"
	"github.com/DRSN-tech/respondr-media/pkg/e"
	"github.com/jimlawless/whereami"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Схема значения сообщения:
//
//	message AttachmentEvent {
//	  string event_id = 1;
//	  string event_type = 2;
//	  google.protobuf.Timestamp occurred_at = 3;
//	  string incident_id = 4;
//	  string owner_id = 5;
//	  Attachment attachment = 6;
//	}
//
//	message Attachment {
//	  string storage_path = 1;
//	  string file_name = 2;
//	  string mime_type = 3;
//	  int64 size_bytes = 4;
//	  int32 width = 5;
//	  int32 height = 6;
//	}
const (
	eventIDField    protowire.Number = 1
	eventTypeField  protowire.Number = 2
	occurredAtField protowire.Number = 3
	incidentIDField protowire.Number = 4
	ownerIDField    protowire.Number = 5
	attachmentField protowire.Number = 6

	storagePathField protowire.Number = 1
	fileNameField    protowire.Number = 2
	mimeTypeField    protowire.Number = 3
	sizeBytesField   protowire.Number = 4
	widthField       protowire.Number = 5
	heightField      protowire.Number = 6
)

// PayloadContentType — значение заголовка content-type у сообщений о вложениях.
const PayloadContentType = "application/x-protobuf"

// GetPayloadBytes кодирует событие в protobuf по схеме AttachmentEvent.
func GetPayloadBytes(event *domain.AttachmentEvent) ([]byte, error) {
	occurredAt, err := proto.Marshal(timestamppb.New(event.OccurredAt))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var b []byte
	b = appendString(b, eventIDField, event.EventID)
	b = appendString(b, eventTypeField, string(event.Type))
	b = appendMessage(b, occurredAtField, occurredAt)
	b = appendString(b, incidentIDField, event.IncidentID)
	b = appendString(b, ownerIDField, event.OwnerID)
	b = appendMessage(b, attachmentField, attachmentBytes(event.Attachment))

	return b, nil
}

func attachmentBytes(meta domain.AttachmentMetadata) []byte {
	var b []byte
	b = appendString(b, storagePathField, meta.StoragePath)
	b = appendString(b, fileNameField, meta.FileName)
	b = appendString(b, mimeTypeField, meta.MimeType)
	b = appendVarint(b, sizeBytesField, uint64(meta.SizeBytes))
	b = appendVarint(b, widthField, uint64(int32(meta.Width)))
	b = appendVarint(b, heightField, uint64(int32(meta.Height)))
	return b
}

// Нулевые значения не пишутся, как в proto3.
func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}
