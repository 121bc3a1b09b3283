package types

import "time"

// Attachment is a file attached to an event by its organizer.
// The bytes live in object storage; this record holds the metadata.
type Attachment struct {
	// ID is the unique identifier of the attachment.
	ID int64 `json:"id" db:"id"`

	// EventID references the event the file is attached to.
	EventID int64 `json:"eventId" db:"event_id"`

	// Filename is the original name of the uploaded file.
	Filename string `json:"filename" db:"filename"`

	// ContentType is the MIME type reported at upload time.
	ContentType string `json:"contentType" db:"content_type"`

	// Size is the file size in bytes.
	Size int64 `json:"size" db:"size_bytes"`

	// ObjectKey is the key of the file in object storage.
	// Not exposed in API responses.
	ObjectKey string `json:"-" db:"object_key"`

	// CreatedAt is the timestamp when the attachment was uploaded.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
