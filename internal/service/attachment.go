package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/quadroapp/quadro-server/internal/domain"
	"github.com/quadroapp/quadro-server/internal/id"
	"github.com/quadroapp/quadro-server/internal/media/files"
	"github.com/quadroapp/quadro-server/internal/store"
)

// AttachmentService stores card attachments on disk and their
// metadata in the store. Re-uploading identical bytes to the same
// card returns the existing attachment instead of a second copy.
type AttachmentService struct {
	store   store.Store
	cards   *CardService
	storage *files.Storage
	logger  *slog.Logger
}

// NewAttachmentService creates a new attachment service.
func NewAttachmentService(st store.Store, cards *CardService, storage *files.Storage, logger *slog.Logger) *AttachmentService {
	return &AttachmentService{
		store:   st,
		cards:   cards,
		storage: storage,
		logger:  logger,
	}
}

// Upload saves the attachment bytes and metadata. Size limits are
// enforced while streaming, before anything is committed.
func (s *AttachmentService) Upload(ctx context.Context, user *domain.User, cardID, fileName, mimeType string, r io.Reader) (*domain.Attachment, error) {
	card, err := s.store.GetCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if _, err := s.cards.memberBoardID(ctx, user, card); err != nil {
		return nil, err
	}

	attachmentID := id.MustGenerate("att")
	saved, err := s.storage.Save(cardID, attachmentID, fileName, r)
	if err != nil {
		return nil, err
	}

	// Same bytes already on this card: drop the new copy.
	if existing, err := s.store.GetAttachmentByChecksum(ctx, cardID, saved.Checksum); err == nil {
		if removeErr := s.storage.Delete(saved.Path); removeErr != nil {
			s.logger.Warn("remove duplicate upload", "path", saved.Path, "error", removeErr)
		}
		return existing, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	attachment := &domain.Attachment{
		ID:         attachmentID,
		CreatedAt:  time.Now().UTC(),
		CardID:     cardID,
		UploaderID: user.ID,
		FileName:   saved.FileName,
		MimeType:   mimeType,
		SizeBytes:  saved.SizeBytes,
		Checksum:   saved.Checksum,
		StorePath:  saved.Path,
	}

	if attachment.IsImage() {
		attachment.Blurhash = s.computeBlurhash(saved.Path)
	}

	if err := s.store.CreateAttachment(ctx, attachment); err != nil {
		if removeErr := s.storage.Delete(saved.Path); removeErr != nil {
			s.logger.Warn("remove orphaned upload", "path", saved.Path, "error", removeErr)
		}
		return nil, fmt.Errorf("create attachment: %w", err)
	}

	s.logger.Info("attachment uploaded",
		"attachment_id", attachment.ID,
		"card_id", cardID,
		"size_bytes", attachment.SizeBytes,
	)
	return attachment, nil
}

// Download opens the stored bytes for streaming to the client.
func (s *AttachmentService) Download(ctx context.Context, user *domain.User, attachmentID string) (*domain.Attachment, *os.File, error) {
	attachment, err := s.get(ctx, user, attachmentID)
	if err != nil {
		return nil, nil, err
	}

	f, err := s.storage.Open(attachment.StorePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open attachment: %w", err)
	}
	return attachment, f, nil
}

// List returns the card's attachments.
func (s *AttachmentService) List(ctx context.Context, user *domain.User, cardID string) ([]*domain.Attachment, error) {
	if _, err := s.cards.GetCard(ctx, user, cardID); err != nil {
		return nil, err
	}
	return s.store.AttachmentsForCard(ctx, cardID)
}

// Delete removes the metadata row and the stored file.
func (s *AttachmentService) Delete(ctx context.Context, user *domain.User, attachmentID string) error {
	attachment, err := s.store.GetAttachment(ctx, attachmentID)
	if err != nil {
		return err
	}
	card, err := s.store.GetCard(ctx, attachment.CardID)
	if err != nil {
		return err
	}
	if _, err := s.cards.memberBoardID(ctx, user, card); err != nil {
		return err
	}

	if err := s.store.DeleteAttachment(ctx, attachmentID); err != nil {
		return fmt.Errorf("delete attachment: %w", err)
	}
	if err := s.storage.Delete(attachment.StorePath); err != nil {
		s.logger.Warn("remove attachment file", "path", attachment.StorePath, "error", err)
	}
	return nil
}

func (s *AttachmentService) get(ctx context.Context, user *domain.User, attachmentID string) (*domain.Attachment, error) {
	attachment, err := s.store.GetAttachment(ctx, attachmentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.cards.GetCard(ctx, user, attachment.CardID); err != nil {
		return nil, err
	}
	return attachment, nil
}

// computeBlurhash is best effort; a preview-less image is fine.
func (s *AttachmentService) computeBlurhash(path string) string {
	f, err := s.storage.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	hash, err := files.ComputeBlurHash(f)
	if err != nil {
		s.logger.Debug("blurhash failed", "path", path, "error", err)
		return ""
	}
	return hash
}
