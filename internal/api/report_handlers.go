package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/quadroapp/quadro-server/internal/domain"
	apperrors "github.com/quadroapp/quadro-server/internal/errors"
	"github.com/quadroapp/quadro-server/internal/store"
)

func (s *Server) registerReportRoutes() {
	// Import goes through chi directly for multipart form handling.
	s.router.Post("/api/v1/reports/import", withExtendedTimeout(s.handleImportReport, 5*time.Minute))

	huma.Register(s.api, huma.Operation{
		OperationID: "listReports",
		Method:      http.MethodGet,
		Path:        "/api/v1/reports",
		Summary:     "List news reports",
		Description: "Requires the reports scope",
		Tags:        []string{"Reports"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListReports)

	huma.Register(s.api, huma.Operation{
		OperationID: "getReport",
		Method:      http.MethodGet,
		Path:        "/api/v1/reports/{id}",
		Summary:     "Get news report",
		Tags:        []string{"Reports"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetReport)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteReport",
		Method:      http.MethodDelete,
		Path:        "/api/v1/reports/{id}",
		Summary:     "Delete news report",
		Description: "Admin only",
		Tags:        []string{"Reports"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteReport)
}

// === DTOs ===

// ReportIDInput identifies a news report.
type ReportIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Report ID"`
}

// ListReportsInput carries report listing pagination.
type ListReportsInput struct {
	Authorization string `header:"Authorization"`
	Limit         int    `query:"limit" doc:"Items per page (default 50, max 500)"`
	Cursor        string `query:"cursor" doc:"Opaque cursor from a previous page"`
}

// ReportOutput wraps a report for Huma.
type ReportOutput struct {
	Body *domain.Report
}

// ReportsOutput wraps a report page for Huma.
type ReportsOutput struct {
	Body *store.PaginatedResult[*domain.Report]
}

// === Handlers ===

// handleImportReport is a chi handler, not a Huma one, so it writes
// the response envelope itself.
func (s *Server) handleImportReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := GetUser(ctx)
	if err != nil {
		writeErrorEnvelope(w, err, s.logger)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+1024)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeErrorEnvelope(w, apperrors.Validation("no file uploaded; use the 'file' multipart field"), s.logger)
		return
	}
	defer file.Close()

	result, err := s.services.Report.ImportUpload(ctx, user, header.Filename, file)
	if err != nil {
		writeErrorEnvelope(w, err, s.logger)
		return
	}

	writeDataEnvelope(w, http.StatusCreated, result, s.logger)
}

func (s *Server) handleListReports(ctx context.Context, input *ListReportsInput) (*ReportsOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	params := store.PaginationParams{Limit: input.Limit, Cursor: input.Cursor}
	params.Validate()

	page, err := s.services.Report.ListReports(ctx, user, params)
	if err != nil {
		return nil, err
	}
	return &ReportsOutput{Body: page}, nil
}

func (s *Server) handleGetReport(ctx context.Context, input *ReportIDInput) (*ReportOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	report, err := s.services.Report.GetReport(ctx, user, input.ID)
	if err != nil {
		return nil, err
	}
	return &ReportOutput{Body: report}, nil
}

func (s *Server) handleDeleteReport(ctx context.Context, input *ReportIDInput) (*MessageOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Report.DeleteReport(ctx, user, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Report deleted"}}, nil
}
