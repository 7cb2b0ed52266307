package api

import (
	"github.com/quadroapp/quadro-server/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Auth       *service.AuthService
	Board      *service.BoardService
	Card       *service.CardService
	Attachment *service.AttachmentService
	Event      *service.EventService
	Profile    *service.ProfileService
	Equipment  *service.EquipmentService
	Report     *service.ReportService
	Webhook    *service.WebhookService
	Search     *service.SearchService
}
