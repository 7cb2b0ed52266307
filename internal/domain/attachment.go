package domain

import (
	"strings"
	"time"
)

// Attachment is a file stored against a card. Checksum is the
// SHA-256 of the stored bytes; Blurhash is only set for images.
type Attachment struct {
	CreatedAt  time.Time `json:"created_at"`
	ID         string    `json:"id"`
	CardID     string    `json:"card_id"`
	UploaderID string    `json:"uploader_id"`
	FileName   string    `json:"file_name"`
	MimeType   string    `json:"mime_type"`
	SizeBytes  int64     `json:"size_bytes"`
	Checksum   string    `json:"checksum"`
	Blurhash   string    `json:"blurhash,omitempty"`
	StorePath  string    `json:"-"`
}

// IsImage reports whether the attachment can be rendered as a
// preview thumbnail.
func (a *Attachment) IsImage() bool {
	return strings.HasPrefix(a.MimeType, "image/")
}
