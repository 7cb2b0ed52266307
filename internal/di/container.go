// Package di provides dependency injection configuration for the Quadro server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/quadroapp/quadro-server/internal/auth"
	"github.com/quadroapp/quadro-server/internal/config"
	"github.com/quadroapp/quadro-server/internal/di/providers"
	"github.com/quadroapp/quadro-server/internal/logger"
	"github.com/quadroapp/quadro-server/internal/media/files"
	"github.com/quadroapp/quadro-server/internal/report"
	"github.com/quadroapp/quadro-server/internal/service"
	"github.com/quadroapp/quadro-server/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideValidator)
	do.Provide(injector, providers.ProvideAuthKey)

	// Database layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideStore)

	// Storage layer
	do.Provide(injector, providers.ProvideFileStorage)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideSearchIndexer)
	do.Provide(injector, providers.ProvideSearchService)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideBoardService)
	do.Provide(injector, providers.ProvideCardService)
	do.Provide(injector, providers.ProvideAttachmentService)
	do.Provide(injector, providers.ProvideEventService)
	do.Provide(injector, providers.ProvideProfileService)
	do.Provide(injector, providers.ProvideEquipmentService)
	do.Provide(injector, providers.ProvideReportImporter)
	do.Provide(injector, providers.ProvideReportService)
	do.Provide(injector, providers.ProvideWebhookService)

	// Workers
	do.Provide(injector, providers.ProvideDispatcher)
	do.Provide(injector, providers.ProvideReportWatcher)
	do.Provide(injector, providers.ProvideSessionCleanupJob)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)
	do.Provide(injector, providers.ProvideMDNSService)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	// Invoke core services to trigger initialization
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*validation.Validator](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*files.Storage](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexerHandle](injector)
	_ = do.MustInvoke[*service.SearchService](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)

	// Business services
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.BoardService](injector)
	_ = do.MustInvoke[*service.CardService](injector)
	_ = do.MustInvoke[*service.AttachmentService](injector)
	_ = do.MustInvoke[*service.EventService](injector)
	_ = do.MustInvoke[*service.ProfileService](injector)
	_ = do.MustInvoke[*service.EquipmentService](injector)
	_ = do.MustInvoke[*report.Importer](injector)
	_ = do.MustInvoke[*service.ReportService](injector)
	_ = do.MustInvoke[*service.WebhookService](injector)

	// Workers
	_ = do.MustInvoke[*providers.DispatcherHandle](injector)
	_ = do.MustInvoke[*providers.ReportWatcherHandle](injector)
	_ = do.MustInvoke[*providers.SessionCleanupJob](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)
	_ = do.MustInvoke[*providers.MDNSServiceHandle](injector)

	return nil
}
