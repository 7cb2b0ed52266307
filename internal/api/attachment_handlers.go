package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/quadroapp/quadro-server/internal/domain"
	apperrors "github.com/quadroapp/quadro-server/internal/errors"
)

func (s *Server) registerAttachmentRoutes() {
	// Upload goes through chi directly because Huma does not support
	// multipart forms. The extended timeout covers slow links.
	s.router.Post("/api/v1/cards/{id}/attachments", withExtendedTimeout(s.handleUploadAttachment, 10*time.Minute))

	huma.Register(s.api, huma.Operation{
		OperationID: "listAttachments",
		Method:      http.MethodGet,
		Path:        "/api/v1/cards/{id}/attachments",
		Summary:     "List attachments",
		Tags:        []string{"Attachments"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListAttachments)

	huma.Register(s.api, huma.Operation{
		OperationID: "downloadAttachment",
		Method:      http.MethodGet,
		Path:        "/api/v1/attachments/{id}/download",
		Summary:     "Download attachment",
		Tags:        []string{"Attachments"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDownloadAttachment)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteAttachment",
		Method:      http.MethodDelete,
		Path:        "/api/v1/attachments/{id}",
		Summary:     "Delete attachment",
		Description: "The uploader, the board owner, or an admin may delete an attachment",
		Tags:        []string{"Attachments"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteAttachment)
}

// === DTOs ===

// AttachmentIDInput identifies an attachment.
type AttachmentIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Attachment ID"`
}

// AttachmentsOutput wraps an attachment list for Huma.
type AttachmentsOutput struct {
	Body struct {
		Attachments []*domain.Attachment `json:"attachments" doc:"Attachments, newest first"`
	}
}

// === Handlers ===

// handleUploadAttachment is a chi handler, not a Huma one, so it writes
// the response envelope itself.
func (s *Server) handleUploadAttachment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := GetUser(ctx)
	if err != nil {
		writeErrorEnvelope(w, err, s.logger)
		return
	}

	cardID := chi.URLParam(r, "id")

	// The storage layer enforces the same cap while streaming; this
	// bound stops the multipart parse from ever buffering more.
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+1024)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeErrorEnvelope(w, apperrors.Validation("no file uploaded; use the 'file' multipart field"), s.logger)
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	attachment, err := s.services.Attachment.Upload(ctx, user, cardID, header.Filename, mimeType, file)
	if err != nil {
		writeErrorEnvelope(w, err, s.logger)
		return
	}

	writeDataEnvelope(w, http.StatusCreated, attachment, s.logger)
}

func (s *Server) handleListAttachments(ctx context.Context, input *CardIDInput) (*AttachmentsOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	attachments, err := s.services.Attachment.List(ctx, user, input.ID)
	if err != nil {
		return nil, err
	}

	out := &AttachmentsOutput{}
	out.Body.Attachments = attachments
	return out, nil
}

func (s *Server) handleDownloadAttachment(ctx context.Context, input *AttachmentIDInput) (*huma.StreamResponse, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	attachment, f, err := s.services.Attachment.Download(ctx, user, input.ID)
	if err != nil {
		return nil, err
	}

	return &huma.StreamResponse{
		Body: func(ctx huma.Context) {
			ctx.SetHeader("Content-Type", attachment.MimeType)
			ctx.SetHeader("Content-Length", strconv.FormatInt(attachment.SizeBytes, 10))
			ctx.SetHeader("Content-Disposition", `attachment; filename="`+attachment.FileName+`"`)
			io.Copy(ctx.BodyWriter(), f)
			f.Close()
		},
	}, nil
}

func (s *Server) handleDeleteAttachment(ctx context.Context, input *AttachmentIDInput) (*MessageOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Attachment.Delete(ctx, user, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Attachment deleted"}}, nil
}

// === chi helpers ===

// withExtendedTimeout pushes out the connection deadlines for large
// uploads. Must run before any body reading.
func withExtendedTimeout(next http.HandlerFunc, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc := http.NewResponseController(w)
		if err := rc.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			_ = err
		}
		if err := rc.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			_ = err
		}
		next(w, r)
	}
}

// writeDataEnvelope writes a success envelope from a chi handler,
// matching what EnvelopeTransformer produces for Huma responses.
func writeDataEnvelope(w http.ResponseWriter, status int, data any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(APIEnvelope{
		Version: EnvelopeVersion,
		Success: true,
		Data:    data,
	}); err != nil {
		logger.Error("write response envelope", "error", err)
	}
}

// writeErrorEnvelope maps an error to the envelope the rest of the
// API produces for failures.
func writeErrorEnvelope(w http.ResponseWriter, err error, logger *slog.Logger) {
	status := http.StatusInternalServerError
	envelope := any(APIEnvelope{
		Version: EnvelopeVersion,
		Success: false,
		Error:   "internal server error",
	})

	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		status = appErr.HTTPStatus()
		envelope = APIErrorEnvelope{
			Version: EnvelopeVersion,
			Success: false,
			Code:    string(appErr.Code),
			Message: appErr.Message,
			Details: appErr.Details,
		}
	} else {
		var statusErr huma.StatusError
		if errors.As(err, &statusErr) {
			status = statusErr.GetStatus()
			envelope = APIEnvelope{
				Version: EnvelopeVersion,
				Success: false,
				Error:   statusErr.Error(),
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encodeErr := json.NewEncoder(w).Encode(envelope); encodeErr != nil {
		logger.Error("write error envelope", "error", encodeErr)
	}
}
