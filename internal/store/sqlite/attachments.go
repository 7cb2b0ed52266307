package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/quadroapp/quadro-server/internal/domain"
	"github.com/quadroapp/quadro-server/internal/store"
)

const attachmentColumns = `id, created_at, card_id, uploader_id, file_name, mime_type, size_bytes, checksum, blurhash, store_path`

func scanAttachment(scanner interface{ Scan(dest ...any) error }) (*domain.Attachment, error) {
	var a domain.Attachment
	var createdAt string

	err := scanner.Scan(
		&a.ID,
		&createdAt,
		&a.CardID,
		&a.UploaderID,
		&a.FileName,
		&a.MimeType,
		&a.SizeBytes,
		&a.Checksum,
		&a.Blurhash,
		&a.StorePath,
	)
	if err != nil {
		return nil, err
	}

	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAttachment inserts attachment metadata. A duplicate
// (card, checksum) pair returns store.ErrAlreadyExists so callers can
// return the existing row instead.
func (s *Store) CreateAttachment(ctx context.Context, attachment *domain.Attachment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attachments (id, created_at, card_id, uploader_id, file_name, mime_type, size_bytes, checksum, blurhash, store_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		attachment.ID,
		formatTime(attachment.CreatedAt),
		attachment.CardID,
		attachment.UploaderID,
		attachment.FileName,
		attachment.MimeType,
		attachment.SizeBytes,
		attachment.Checksum,
		attachment.Blurhash,
		attachment.StorePath,
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// GetAttachment retrieves attachment metadata by ID.
func (s *Store) GetAttachment(ctx context.Context, id string) (*domain.Attachment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+attachmentColumns+` FROM attachments WHERE id = ?`, id)
	attachment, err := scanAttachment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return attachment, err
}

// GetAttachmentByChecksum finds a card's attachment with the given
// content hash, for upload dedup.
func (s *Store) GetAttachmentByChecksum(ctx context.Context, cardID, checksum string) (*domain.Attachment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+attachmentColumns+` FROM attachments WHERE card_id = ? AND checksum = ?`,
		cardID, checksum)
	attachment, err := scanAttachment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return attachment, err
}

// DeleteAttachment removes attachment metadata. The caller removes
// the file afterwards; an orphaned file is preferable to a dangling
// row.
func (s *Store) DeleteAttachment(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM attachments WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// AttachmentsForCard returns the card's attachments newest-first.
func (s *Store) AttachmentsForCard(ctx context.Context, cardID string) ([]*domain.Attachment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+attachmentColumns+` FROM attachments WHERE card_id = ? ORDER BY created_at DESC`, cardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attachments []*domain.Attachment
	for rows.Next() {
		attachment, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, attachment)
	}
	return attachments, rows.Err()
}
