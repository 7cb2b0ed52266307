package files

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/quadroapp/quadro-server/internal/errors"
)

func newTestStorage(t *testing.T, maxSize int64) *Storage {
	t.Helper()
	s, err := NewStorage(t.TempDir(), maxSize)
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}
	return s
}

func TestSaveAndOpen(t *testing.T) {
	s := newTestStorage(t, 1024)
	content := []byte("meeting notes for tomorrow")

	saved, err := s.Save("crd-1", "att-1", "notes.txt", bytes.NewReader(content))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.SizeBytes != int64(len(content)) {
		t.Errorf("size %d, want %d", saved.SizeBytes, len(content))
	}

	sum := sha256.Sum256(content)
	if saved.Checksum != hex.EncodeToString(sum[:]) {
		t.Errorf("checksum mismatch")
	}

	f, err := s.Open(saved.Path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(f); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), content) {
		t.Error("stored content differs from input")
	}
}

func TestSaveSanitizesFilename(t *testing.T) {
	s := newTestStorage(t, 1024)

	saved, err := s.Save("crd-1", "att-1", "../../etc/passwd", bytes.NewReader([]byte("x")))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if strings.Contains(saved.FileName, "/") || strings.Contains(saved.FileName, "..") {
		t.Errorf("unsafe stored name %q", saved.FileName)
	}
	if !strings.HasPrefix(saved.Path, s.basePath) {
		t.Errorf("file stored outside root: %s", saved.Path)
	}
}

func TestSaveRejectsOversized(t *testing.T) {
	s := newTestStorage(t, 10)

	_, err := s.Save("crd-1", "att-1", "big.bin", bytes.NewReader(make([]byte, 11)))
	if err == nil {
		t.Fatal("expected size limit error")
	}
	var appErr *apperrors.Error
	if !apperrors.As(err, &appErr) || appErr.Code != apperrors.CodeValidation {
		t.Errorf("expected validation error, got %v", err)
	}

	// No file may be left behind.
	entries, err := os.ReadDir(filepath.Join(s.basePath, "crd-1"))
	if err == nil && len(entries) != 0 {
		t.Errorf("oversized upload left %d files on disk", len(entries))
	}
}

func TestSaveAtLimitPasses(t *testing.T) {
	s := newTestStorage(t, 10)

	saved, err := s.Save("crd-1", "att-1", "exact.bin", bytes.NewReader(make([]byte, 10)))
	if err != nil {
		t.Fatalf("save at limit: %v", err)
	}
	if saved.SizeBytes != 10 {
		t.Errorf("size %d, want 10", saved.SizeBytes)
	}
}

func TestOpenRefusesEscape(t *testing.T) {
	s := newTestStorage(t, 1024)

	if _, err := s.Open(filepath.Join(s.basePath, "..", "secret")); err == nil {
		t.Error("expected error for path outside storage root")
	}
}

func TestComputeBlurHash(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	hash, err := ComputeBlurHash(&buf)
	if err != nil {
		t.Fatalf("compute blurhash: %v", err)
	}
	if hash == "" {
		t.Error("empty blurhash")
	}
}
