package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/quadroapp/quadro-server/internal/config"
	"github.com/quadroapp/quadro-server/internal/logger"
	"github.com/quadroapp/quadro-server/internal/outbox"
	"github.com/quadroapp/quadro-server/internal/service"
	"github.com/quadroapp/quadro-server/internal/watcher"
)

// DispatcherHandle wraps the outbox dispatcher with shutdown capability.
type DispatcherHandle struct {
	*outbox.Dispatcher
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *DispatcherHandle) Shutdown() error {
	h.cancel()
	return nil
}

// ProvideDispatcher provides the webhook outbox dispatcher.
func ProvideDispatcher(i do.Injector) (*DispatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	d := outbox.NewDispatcher(storeHandle.Store, cfg.Webhook, log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	go d.Run(ctx)

	log.Info("Webhook dispatcher started",
		"poll_interval", cfg.Webhook.PollInterval,
		"max_attempts", cfg.Webhook.MaxAttempts,
	)

	return &DispatcherHandle{Dispatcher: d, cancel: cancel}, nil
}

// ReportWatcherHandle wraps the report drop-directory watcher.
type ReportWatcherHandle struct {
	*watcher.Watcher
	cancel  context.CancelFunc
	started bool
}

// Shutdown implements do.Shutdownable.
func (h *ReportWatcherHandle) Shutdown() error {
	if !h.started {
		return nil
	}
	h.cancel()
	h.Stop()
	return nil
}

// ProvideReportWatcher provides the drop-directory watcher when one
// is configured. Without a watch path imports stay API-only.
func ProvideReportWatcher(i do.Injector) (*ReportWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Reports.WatchPath == "" {
		log.Info("Report drop directory not configured, watcher disabled")
		return &ReportWatcherHandle{started: false}, nil
	}

	reports := do.MustInvoke[*service.ReportService](i)

	w, err := watcher.New(cfg.Reports.WatchPath, log.Logger, reports.ImportDropped)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := w.Start(ctx); err != nil {
			log.Error("Report watcher error", "error", err)
		}
	}()

	log.Info("Report watcher started", "path", cfg.Reports.WatchPath)

	return &ReportWatcherHandle{Watcher: w, cancel: cancel, started: true}, nil
}

// SessionCleanupJob runs periodic session cleanup.
type SessionCleanupJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *SessionCleanupJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideSessionCleanupJob provides the periodic session cleanup job.
func ProvideSessionCleanupJob(i do.Injector) (*SessionCleanupJob, error) {
	authService := do.MustInvoke[*service.AuthService](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		// Initial cleanup on startup
		authService.CleanupExpiredSessions(ctx)

		for {
			select {
			case <-ticker.C:
				authService.CleanupExpiredSessions(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Session cleanup job started")

	return &SessionCleanupJob{cancel: cancel}, nil
}
