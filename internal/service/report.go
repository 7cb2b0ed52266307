package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/quadroapp/quadro-server/internal/domain"
	apperrors "github.com/quadroapp/quadro-server/internal/errors"
	"github.com/quadroapp/quadro-server/internal/report"
	"github.com/quadroapp/quadro-server/internal/store"
	"github.com/quadroapp/quadro-server/internal/util"
)

// systemImporterID marks imports triggered by the drop-folder watcher
// rather than a user upload.
const systemImporterID = "system"

// ReportService exposes the news-report archive and its import paths.
type ReportService struct {
	store    store.Store
	importer *report.Importer
	logger   *slog.Logger
}

// NewReportService creates a new report service.
func NewReportService(st store.Store, importer *report.Importer, logger *slog.Logger) *ReportService {
	return &ReportService{
		store:    st,
		importer: importer,
		logger:   logger,
	}
}

// ImportUpload stages an uploaded export file and runs the importer
// over it. Reports scope required.
func (s *ReportService) ImportUpload(ctx context.Context, user *domain.User, fileName string, r io.Reader) (*domain.ImportResult, error) {
	if err := s.requireReportsScope(ctx, user); err != nil {
		return nil, err
	}

	ext := filepath.Ext(fileName)
	tmp, err := os.CreateTemp("", "quadro-import-*"+ext)
	if err != nil {
		return nil, fmt.Errorf("stage upload: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("stage upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("stage upload: %w", err)
	}

	result, err := s.importer.ImportFile(ctx, user.ID, tmp.Name())
	if err != nil {
		return nil, err
	}
	// The staged file carries a random name; report the original.
	result.SourceFile = util.SanitizeFilename(fileName)
	return result, nil
}

// ImportDropped is the watcher callback for files landing in the drop
// directory. Errors are logged; the watcher has no caller to return
// them to.
func (s *ReportService) ImportDropped(ctx context.Context, path string) {
	if _, err := s.importer.ImportFile(ctx, systemImporterID, path); err != nil {
		s.logger.Error("drop-folder import failed", "path", path, "error", err)
	}
}

// GetReport returns one archived report.
func (s *ReportService) GetReport(ctx context.Context, user *domain.User, reportID string) (*domain.Report, error) {
	if err := s.requireReportsScope(ctx, user); err != nil {
		return nil, err
	}
	return s.store.GetReport(ctx, reportID)
}

// ListReports pages through the archive, newest first.
func (s *ReportService) ListReports(ctx context.Context, user *domain.User, params store.PaginationParams) (*store.PaginatedResult[*domain.Report], error) {
	if err := s.requireReportsScope(ctx, user); err != nil {
		return nil, err
	}
	return s.store.ListReports(ctx, params)
}

// DeleteReport removes a report from the archive. Admin only.
func (s *ReportService) DeleteReport(ctx context.Context, user *domain.User, reportID string) error {
	if !user.IsAdmin() {
		return apperrors.Forbidden("only admins can delete reports")
	}
	return s.store.DeleteReport(ctx, reportID)
}

func (s *ReportService) requireReportsScope(ctx context.Context, user *domain.User) error {
	if user.IsAdmin() {
		return nil
	}
	profile, err := s.store.GetProfile(ctx, user.ID)
	if err != nil {
		return err
	}
	if !profile.HasScope(domain.ScopeReports) {
		return apperrors.Forbidden("reports access has not been granted")
	}
	return nil
}
