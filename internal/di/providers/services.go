package providers

import (
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/quadroapp/quadro-server/internal/auth"
	"github.com/quadroapp/quadro-server/internal/config"
	"github.com/quadroapp/quadro-server/internal/logger"
	"github.com/quadroapp/quadro-server/internal/media/files"
	"github.com/quadroapp/quadro-server/internal/report"
	"github.com/quadroapp/quadro-server/internal/service"
	"github.com/quadroapp/quadro-server/internal/validation"
)

// ProvideFileStorage provides the attachment file store.
func ProvideFileStorage(i do.Injector) (*files.Storage, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return files.NewStorage(filepath.Join(cfg.Data.BasePath, "attachments"), cfg.Uploads.MaxSizeBytes)
}

// ProvideAuthService provides the account and session service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	validate := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokens, validate, log.Logger), nil
}

// ProvideBoardService provides the board service and wires board
// access checks into SSE broadcast filtering.
func ProvideBoardService(i do.Injector) (*service.BoardService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	validate := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewBoardService(storeHandle.Store, sseHandle.Manager, validate, log.Logger)

	// Board-scoped events only reach clients who can see the board.
	sseHandle.SetBoardAccessChecker(svc.CanAccess)

	return svc, nil
}

// ProvideCardService provides the card service.
func ProvideCardService(i do.Injector) (*service.CardService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	boards := do.MustInvoke[*service.BoardService](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	validate := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCardService(storeHandle.Store, boards, sseHandle.Manager, validate, log.Logger), nil
}

// ProvideAttachmentService provides the card attachment service.
func ProvideAttachmentService(i do.Injector) (*service.AttachmentService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	cards := do.MustInvoke[*service.CardService](i)
	storage := do.MustInvoke[*files.Storage](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAttachmentService(storeHandle.Store, cards, storage, log.Logger), nil
}

// ProvideEventService provides the agenda service.
func ProvideEventService(i do.Injector) (*service.EventService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	validate := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewEventService(storeHandle.Store, sseHandle.Manager, validate, log.Logger), nil
}

// ProvideProfileService provides the contact directory service.
func ProvideProfileService(i do.Injector) (*service.ProfileService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	validate := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewProfileService(storeHandle.Store, validate, log.Logger), nil
}

// ProvideEquipmentService provides the inventory and loan service.
func ProvideEquipmentService(i do.Injector) (*service.EquipmentService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	validate := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewEquipmentService(storeHandle.Store, validate, log.Logger), nil
}

// ProvideReportImporter provides the news-report file importer.
func ProvideReportImporter(i do.Injector) (*report.Importer, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return report.NewImporter(storeHandle.Store, log.Logger), nil
}

// ProvideReportService provides the news-report service.
func ProvideReportService(i do.Injector) (*service.ReportService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	importer := do.MustInvoke[*report.Importer](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewReportService(storeHandle.Store, importer, log.Logger), nil
}

// ProvideWebhookService provides the webhook subscription service.
func ProvideWebhookService(i do.Injector) (*service.WebhookService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	validate := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewWebhookService(storeHandle.Store, validate, log.Logger), nil
}
