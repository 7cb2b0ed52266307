// Package files provides attachment storage on disk.
package files

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	apperrors "github.com/quadroapp/quadro-server/internal/errors"
	"github.com/quadroapp/quadro-server/internal/util"
)

// Storage manages attachment filesystem operations.
// Thread-safe for concurrent operations. Files are stored under
// {basePath}/attachments/{cardID}/{attachmentID}_{sanitized name}.
type Storage struct {
	basePath     string
	maxSizeBytes int64
	mu           sync.RWMutex
}

// Saved describes a stored file.
type Saved struct {
	Path      string
	FileName  string
	Checksum  string
	SizeBytes int64
}

// NewStorage creates a Storage rooted at basePath with the given
// per-file size limit.
func NewStorage(basePath string, maxSizeBytes int64) (*Storage, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	if maxSizeBytes <= 0 {
		return nil, fmt.Errorf("max size must be positive")
	}

	storagePath := filepath.Join(basePath, "attachments")
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return nil, fmt.Errorf("create attachments directory: %w", err)
	}

	return &Storage{
		basePath:     storagePath,
		maxSizeBytes: maxSizeBytes,
	}, nil
}

// MaxSizeBytes returns the per-file size limit.
func (s *Storage) MaxSizeBytes() int64 {
	return s.maxSizeBytes
}

// Save streams r to disk for a card attachment. The size limit is
// enforced while reading: an oversized upload is rejected and no file
// is left behind. The returned checksum is the SHA-256 of the stored
// bytes.
func (s *Storage) Save(cardID, attachmentID, fileName string, r io.Reader) (*Saved, error) {
	if cardID == "" || attachmentID == "" {
		return nil, fmt.Errorf("card and attachment IDs cannot be empty")
	}
	name := util.SanitizeFilename(fileName)

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.basePath, cardID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create card directory: %w", err)
	}
	path := filepath.Join(dir, attachmentID+"_"+name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("create attachment file: %w", err)
	}

	hasher := sha256.New()
	// Read one byte past the limit so an exactly-at-limit file passes.
	limited := io.LimitReader(r, s.maxSizeBytes+1)
	written, err := io.Copy(io.MultiWriter(f, hasher), limited)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("write attachment: %w", err)
	}
	if written > s.maxSizeBytes {
		os.Remove(path)
		return nil, apperrors.Validationf("file exceeds the %d byte limit", s.maxSizeBytes)
	}

	return &Saved{
		Path:      path,
		FileName:  name,
		Checksum:  hex.EncodeToString(hasher.Sum(nil)),
		SizeBytes: written,
	}, nil
}

// Open returns a reader over a stored attachment.
func (s *Storage) Open(path string) (*os.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Refuse paths outside the storage root.
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	root, err := filepath.Abs(s.basePath)
	if err != nil {
		return nil, err
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("path outside storage root")
	}

	f, err := os.Open(abs)
	if os.IsNotExist(err) {
		return nil, apperrors.NotFound("attachment file not found")
	}
	return f, err
}

// Delete removes a stored attachment file. Missing files are not an
// error; the metadata row is authoritative.
func (s *Storage) Delete(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove attachment: %w", err)
	}
	return nil
}
